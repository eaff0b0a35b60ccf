package spreadsheet

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"nutriadmin/internal/model"

	"github.com/xuri/excelize/v2"
)

// StructureError 試算表結構或內容錯誤，Row 為 Excel 列號 (0 表示整份檔案)
type StructureError struct {
	Row    int
	Column string
	Msg    string
}

func (e *StructureError) Error() string {
	switch {
	case e.Row > 0 && e.Column != "":
		return fmt.Sprintf("fila %d, columna %s: %s", e.Row, e.Column, e.Msg)
	case e.Row > 0:
		return fmt.Sprintf("fila %d: %s", e.Row, e.Msg)
	}
	return e.Msg
}

// IsStructureError 判斷是否為檔案內容錯誤
func IsStructureError(err error) bool {
	var se *StructureError
	return errors.As(err, &se)
}

var dateLayouts = []string{"2006-01-02", "02/01/2006", "02-01-2006", "2/1/2006", "2006/01/02"}

var blankValues = map[string]bool{"-": true, "s/d": true, "n/a": true, "na": true}

// Parse 讀取第一個工作表，第一個非空白列為標題
func Parse(r io.Reader) ([]model.MeasurementRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &StructureError{Msg: "el archivo no es un libro .xlsx válido"}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &StructureError{Msg: "el libro no tiene hojas"}
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("Parse: %w", err)
	}
	return parseRows(rows)
}

func parseRows(rows [][]string) ([]model.MeasurementRow, error) {
	headerIdx := -1
	for i, row := range rows {
		if !blankRow(row) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return nil, &StructureError{Msg: "la hoja está vacía"}
	}

	columns := map[int]string{}
	seen := map[string]bool{}
	for i, h := range rows[headerIdx] {
		c := matchHeader(h)
		if c == "" || seen[c] {
			continue
		}
		columns[i] = c
		seen[c] = true
	}
	if !seen[colNombre] {
		return nil, &StructureError{Row: headerIdx + 1, Msg: "falta la columna nombre"}
	}

	index := map[string]int{}
	for i, c := range model.MedidasColumns {
		index[c] = i
	}

	var out []model.MeasurementRow
	for i := headerIdx + 1; i < len(rows); i++ {
		if blankRow(rows[i]) {
			continue
		}
		excelRow := i + 1
		m := model.MeasurementRow{Fila: excelRow}
		targets := m.Medidas.Targets()
		var apellido string

		for col, name := range columns {
			if col >= len(rows[i]) {
				continue
			}
			raw := strings.TrimSpace(rows[i][col])
			if raw == "" {
				continue
			}
			switch name {
			case colNombre:
				m.Nombre = collapseSpaces(raw)
			case colApellido:
				apellido = collapseSpaces(raw)
			case colFecha:
				d, err := parseDate(raw)
				if err != nil {
					return nil, &StructureError{Row: excelRow, Column: rows[headerIdx][col], Msg: "fecha inválida " + strconv.Quote(raw)}
				}
				m.Fecha = &d
			case colSexo:
				m.Sexo = parseSexo(raw)
			case colObservaciones:
				obs := raw
				m.Observaciones = &obs
			default:
				v, ok, err := parseNumber(raw)
				if err != nil {
					return nil, &StructureError{Row: excelRow, Column: rows[headerIdx][col], Msg: "valor numérico inválido " + strconv.Quote(raw)}
				}
				if ok {
					*targets[index[name]] = &v
				}
			}
		}
		if apellido != "" {
			m.Nombre = strings.TrimSpace(m.Nombre + " " + apellido)
		}
		if m.Nombre == "" {
			return nil, &StructureError{Row: excelRow, Msg: "falta el nombre del paciente"}
		}
		m.FillIMC()
		out = append(out, m)
	}

	if len(out) == 0 {
		return nil, &StructureError{Msg: "el archivo no contiene filas de datos"}
	}
	return out, nil
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// parseNumber 接受逗號小數；兩種符號都出現時，最後出現的是小數點
// 空白標記回傳 ok=false
func parseNumber(raw string) (float64, bool, error) {
	if blankValues[strings.ToLower(raw)] {
		return 0, false, nil
	}
	s := strings.ReplaceAll(raw, " ", "")
	comma, dot := strings.LastIndex(s, ","), strings.LastIndex(s, ".")
	switch {
	case comma >= 0 && dot > comma:
		s = strings.ReplaceAll(s, ",", "")
	case comma >= 0:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}

// parseDate 接受 Excel 序號與常見文字格式，只保留日期
func parseDate(raw string) (time.Time, error) {
	if serial, err := strconv.ParseFloat(raw, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, err
		}
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported date %q", raw)
}

func parseSexo(raw string) *string {
	var s string
	switch NormalizeHeader(raw) {
	case "m", "masculino", "h", "hombre", "varon":
		s = "M"
	case "f", "femenino", "mujer":
		s = "F"
	default:
		return nil
	}
	return &s
}
