package spreadsheet

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func workbook(t *testing.T, rows ...[]interface{}) *bytes.Reader {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		row := r
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return bytes.NewReader(buf.Bytes())
}

func TestNormalizeHeader(t *testing.T) {
	require.Equal(t, "peso_kg", NormalizeHeader(" Peso (kg) "))
	require.Equal(t, "pliegue_triceps_mm", NormalizeHeader("Pliegue Tríceps [mm]"))
	require.Equal(t, "masa_adiposa_pct", NormalizeHeader("Masa adiposa %"))
	require.Equal(t, "indice_musculo_oseo", NormalizeHeader("Índice Músculo-Óseo"))
	require.Equal(t, "", NormalizeHeader("  --  "))
}

func TestMatchHeader(t *testing.T) {
	require.Equal(t, colNombre, matchHeader("Jugador"))
	require.Equal(t, colFecha, matchHeader("Fecha de medición"))
	require.Equal(t, "peso", matchHeader("Peso (kg)"))
	require.Equal(t, "talla", matchHeader("Estatura"))
	require.Equal(t, "pliegue_triceps", matchHeader("Tríceps"))
	require.Equal(t, "perimetro_muslo", matchHeader("Perímetro muslo (cm)"))
	require.Equal(t, "masa_adiposa_pct", matchHeader("% grasa"))
	require.Equal(t, "", matchHeader("Columna rara"))
}

func TestParse(t *testing.T) {
	fecha := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	r := workbook(t,
		[]interface{}{},
		[]interface{}{"Nombre", "Apellido", "Fecha", "Sexo", "Peso (kg)", "Talla (cm)", "Tríceps", "Notas"},
		[]interface{}{"  Juan ", "Pérez", fecha, "Masculino", 70.5, 175, "8,5", "x"},
		[]interface{}{},
		[]interface{}{"Ana", "", "01/04/2025", "f", "62,3", "", "-", ""},
	)
	rows, err := Parse(r)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	juan := rows[0]
	require.Equal(t, 3, juan.Fila)
	require.Equal(t, "Juan Pérez", juan.Nombre)
	require.Equal(t, fecha, *juan.Fecha)
	require.Equal(t, "M", *juan.Sexo)
	require.Equal(t, 70.5, *juan.Peso)
	require.Equal(t, 175.0, *juan.Talla)
	require.Equal(t, 8.5, *juan.PliegueTriceps)
	require.Equal(t, 23.02, *juan.IMC)

	ana := rows[1]
	require.Equal(t, 5, ana.Fila)
	require.Equal(t, "Ana", ana.Nombre)
	require.Equal(t, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), *ana.Fecha)
	require.Equal(t, "F", *ana.Sexo)
	require.Equal(t, 62.3, *ana.Peso)
	require.Nil(t, ana.Talla)
	require.Nil(t, ana.PliegueTriceps)
	require.Nil(t, ana.IMC)
}

func TestParseWithoutDateColumn(t *testing.T) {
	rows, err := Parse(workbook(t,
		[]interface{}{"Paciente", "Peso"},
		[]interface{}{"Luis", 80},
	))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Nil(t, rows[0].Fecha)
}

func TestParseStructureErrors(t *testing.T) {
	_, err := Parse(strings.NewReader("not a workbook"))
	require.True(t, IsStructureError(err))

	_, err = Parse(workbook(t))
	require.True(t, IsStructureError(err))
	require.ErrorContains(t, err, "vacía")

	_, err = Parse(workbook(t, []interface{}{"Peso", "Talla"}, []interface{}{70, 170}))
	require.ErrorContains(t, err, "falta la columna nombre")

	_, err = Parse(workbook(t, []interface{}{"Nombre", "Peso"}))
	require.ErrorContains(t, err, "no contiene filas")

	_, err = Parse(workbook(t,
		[]interface{}{"Nombre", "Peso"},
		[]interface{}{"Luis", 80},
		[]interface{}{"", 70},
	))
	require.ErrorContains(t, err, "fila 3")
	require.ErrorContains(t, err, "falta el nombre")

	_, err = Parse(workbook(t,
		[]interface{}{"Nombre", "Peso"},
		[]interface{}{"Luis", "ochenta"},
	))
	require.ErrorContains(t, err, "fila 2, columna Peso")

	_, err = Parse(workbook(t,
		[]interface{}{"Nombre", "Fecha"},
		[]interface{}{"Luis", "ayer"},
	))
	require.ErrorContains(t, err, "fecha inválida")
}

func TestParseNumber(t *testing.T) {
	for raw, want := range map[string]float64{
		"1.234,5": 1234.5,
		"1,234.5": 1234.5,
		"62,3":    62.3,
		"62.3":    62.3,
		"1 500":   1500,
	} {
		v, ok, err := parseNumber(raw)
		require.NoError(t, err, raw)
		require.True(t, ok, raw)
		require.Equal(t, want, v, raw)
	}

	_, ok, err := parseNumber("S/D")
	require.NoError(t, err)
	require.False(t, ok)

	_, _, err = parseNumber("abc")
	require.Error(t, err)
}

func TestParseDate(t *testing.T) {
	d, err := parseDate("45730")
	require.NoError(t, err)
	require.Equal(t, time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), d)

	d, err = parseDate("14-03-2025")
	require.NoError(t, err)
	require.Equal(t, time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), d)

	_, err = parseDate("2025.03.14")
	require.Error(t, err)
}

func TestTemplateRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTemplate(&buf))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	require.Equal(t, []string{templateSheet}, f.GetSheetList())

	seen := map[string]bool{}
	for _, h := range TemplateHeaders {
		c := matchHeader(h)
		require.NotEmpty(t, c, "header %q not recognised", h)
		require.False(t, seen[c], "header %q maps twice", h)
		seen[c] = true
	}

	row := make([]interface{}, len(TemplateHeaders))
	row[0] = "Test"
	require.NoError(t, f.SetSheetRow(templateSheet, "A2", &row))
	out, err := f.WriteToBuffer()
	require.NoError(t, err)
	rows, err := Parse(bytes.NewReader(out.Bytes()))
	require.NoError(t, err)
	require.Len(t, rows, 1)
}
