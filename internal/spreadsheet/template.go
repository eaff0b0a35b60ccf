package spreadsheet

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const templateSheet = "Mediciones"

// TemplateHeaders 範本標題，皆可被 Parse 辨識
var TemplateHeaders = []string{
	"Nombre", "Fecha", "Sexo",
	"Peso (kg)", "Talla (cm)", "Talla sentado (cm)", "Envergadura (cm)", "IMC",
	"Pliegue tríceps (mm)", "Pliegue subescapular (mm)", "Pliegue bíceps (mm)", "Pliegue cresta ilíaca (mm)",
	"Pliegue supraespinal (mm)", "Pliegue abdominal (mm)", "Pliegue muslo (mm)", "Pliegue pantorrilla (mm)",
	"Perímetro brazo relajado (cm)", "Perímetro brazo flexionado (cm)", "Perímetro cintura (cm)",
	"Perímetro cadera (cm)", "Perímetro muslo (cm)", "Perímetro pantorrilla (cm)",
	"Diámetro húmero (cm)", "Diámetro fémur (cm)", "Diámetro biestiloideo (cm)",
	"Suma pliegues", "Masa adiposa (kg)", "Masa adiposa %", "Masa muscular (kg)", "Masa muscular %",
	"Masa ósea (kg)", "Masa residual (kg)", "Índice músculo óseo",
	"Endomorfo", "Mesomorfo", "Ectomorfo", "Observaciones",
}

// WriteTemplate 輸出只有標題列的 .xlsx 範本
func WriteTemplate(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", templateSheet); err != nil {
		return fmt.Errorf("WriteTemplate: %w", err)
	}
	header := make([]interface{}, len(TemplateHeaders))
	for i, h := range TemplateHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(templateSheet, "A1", &header); err != nil {
		return fmt.Errorf("WriteTemplate: %w", err)
	}
	last, err := excelize.ColumnNumberToName(len(TemplateHeaders))
	if err != nil {
		return fmt.Errorf("WriteTemplate: %w", err)
	}
	if err := f.SetColWidth(templateSheet, "A", last, 18); err != nil {
		return fmt.Errorf("WriteTemplate: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("WriteTemplate: %w", err)
	}
	return nil
}
