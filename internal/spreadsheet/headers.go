package spreadsheet

import (
	"strings"
	"unicode"

	"nutriadmin/internal/model"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	colNombre        = "nombre"
	colApellido      = "apellido"
	colFecha         = "fecha"
	colSexo          = "sexo"
	colObservaciones = "observaciones"
)

// aliases 正規化後的標題對應到欄位；量測欄位本身的名稱另外加入
var aliases = map[string]string{
	"nombre":          colNombre,
	"nombres":         colNombre,
	"nombre_completo": colNombre,
	"paciente":        colNombre,
	"jugador":         colNombre,
	"jugadora":        colNombre,
	"deportista":      colNombre,
	"atleta":          colNombre,
	"name":            colNombre,

	"apellido":  colApellido,
	"apellidos": colApellido,

	"fecha":               colFecha,
	"fecha_medicion":      colFecha,
	"fecha_de_medicion":   colFecha,
	"fecha_evaluacion":    colFecha,
	"fecha_de_evaluacion": colFecha,
	"date":                colFecha,

	"sexo":   colSexo,
	"genero": colSexo,

	"observaciones": colObservaciones,
	"observacion":   colObservaciones,
	"obs":           colObservaciones,
	"comentarios":   colObservaciones,

	"peso_corporal":        "peso",
	"masa_corporal":        "peso",
	"estatura":             "talla",
	"altura":               "talla",
	"talla_sentada":        "talla_sentado",
	"indice_masa_corporal": "imc",

	"triceps":       "pliegue_triceps",
	"subescapular":  "pliegue_subescapular",
	"biceps":        "pliegue_biceps",
	"cresta_iliaca": "pliegue_cresta_iliaca",
	"supraespinal":  "pliegue_supraespinal",
	"abdominal":     "pliegue_abdominal",

	"suma_pliegues_6":     "suma_pliegues",
	"suma_6_pliegues":     "suma_pliegues",
	"suma_de_pliegues":    "suma_pliegues",
	"sumatoria_pliegues":  "suma_pliegues",
	"masa_adiposa":        "masa_adiposa_kg",
	"masa_muscular":       "masa_muscular_kg",
	"masa_osea":           "masa_osea_kg",
	"masa_residual":       "masa_residual_kg",
	"porcentaje_grasa":    "masa_adiposa_pct",
	"pct_grasa":           "masa_adiposa_pct",
	"grasa_pct":           "masa_adiposa_pct",
	"indice_musculo_oseo": "indice_musculo_oseo",
	"imo":                 "indice_musculo_oseo",
	"endo":                "endomorfo",
	"meso":                "mesomorfo",
	"ecto":                "ectomorfo",
}

func init() {
	for _, c := range model.MedidasColumns {
		aliases[c] = c
		switch {
		case strings.HasPrefix(c, "pliegue_"):
			aliases["pl_"+strings.TrimPrefix(c, "pliegue_")] = c
		case strings.HasPrefix(c, "perimetro_"):
			aliases["per_"+strings.TrimPrefix(c, "perimetro_")] = c
		case strings.HasPrefix(c, "diametro_"):
			aliases["diam_"+strings.TrimPrefix(c, "diametro_")] = c
		}
	}
}

var unitSuffixes = []string{"_mm", "_cm", "_kg", "_m"}

var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeHeader 轉小寫、去除重音，非英數字元轉為底線
func NormalizeHeader(s string) string {
	s = strings.ReplaceAll(s, "%", " pct ")
	if out, _, err := transform.String(stripAccents, s); err == nil {
		s = out
	}
	s = strings.ToLower(s)

	var b strings.Builder
	underscore := false
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore && b.Len() > 0 {
			b.WriteByte('_')
			underscore = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

// matchHeader 找出標題對應的欄位，未知標題回傳空字串
func matchHeader(raw string) string {
	h := NormalizeHeader(raw)
	if h == "" {
		return ""
	}
	if c, ok := aliases[h]; ok {
		return c
	}
	for _, suf := range unitSuffixes {
		if strings.HasSuffix(h, suf) {
			if c, ok := aliases[strings.TrimSuffix(h, suf)]; ok {
				return c
			}
		}
	}
	return ""
}
