package model

import (
	"math"
	"time"
)

// Sesion 一批同時上傳的量測
type Sesion struct {
	ID          int       `json:"id"`
	PlantelID   int       `json:"plantel_id"`
	CategoriaID int       `json:"categoria_id"`
	LigaID      int       `json:"liga_id"`
	FechaSesion time.Time `json:"fecha_sesion"`
	UserID      *int      `json:"user_id,omitempty"`
	Archivo     *string   `json:"archivo,omitempty"`
	CreatedAt   time.Time `json:"created_at"`

	Plantel       string `json:"plantel,omitempty"`
	Categoria     string `json:"categoria,omitempty"`
	Liga          string `json:"liga,omitempty"`
	TotalInformes int    `json:"total_informes"`
}

type SesionFilter struct {
	PlantelID   int
	CategoriaID int
	LigaID      int
}

// Medidas 所有量測欄位，未量測時為 nil
type Medidas struct {
	Peso         *float64 `json:"peso,omitempty"`
	Talla        *float64 `json:"talla,omitempty"`
	TallaSentado *float64 `json:"talla_sentado,omitempty"`
	Envergadura  *float64 `json:"envergadura,omitempty"`
	IMC          *float64 `json:"imc,omitempty"`

	PliegueTriceps       *float64 `json:"pliegue_triceps,omitempty"`
	PliegueSubescapular  *float64 `json:"pliegue_subescapular,omitempty"`
	PliegueBiceps        *float64 `json:"pliegue_biceps,omitempty"`
	PliegueCrestaIliaca  *float64 `json:"pliegue_cresta_iliaca,omitempty"`
	PliegueSupraespinal  *float64 `json:"pliegue_supraespinal,omitempty"`
	PliegueAbdominal     *float64 `json:"pliegue_abdominal,omitempty"`
	PliegueMuslo         *float64 `json:"pliegue_muslo,omitempty"`
	PlieguePantorrilla   *float64 `json:"pliegue_pantorrilla,omitempty"`
	PerimetroBrazoRelaj  *float64 `json:"perimetro_brazo_relajado,omitempty"`
	PerimetroBrazoFlex   *float64 `json:"perimetro_brazo_flexionado,omitempty"`
	PerimetroCintura     *float64 `json:"perimetro_cintura,omitempty"`
	PerimetroCadera      *float64 `json:"perimetro_cadera,omitempty"`
	PerimetroMuslo       *float64 `json:"perimetro_muslo,omitempty"`
	PerimetroPantorrilla *float64 `json:"perimetro_pantorrilla,omitempty"`
	DiametroHumero       *float64 `json:"diametro_humero,omitempty"`
	DiametroFemur        *float64 `json:"diametro_femur,omitempty"`
	DiametroBiestiloideo *float64 `json:"diametro_biestiloideo,omitempty"`

	SumaPliegues      *float64 `json:"suma_pliegues,omitempty"`
	MasaAdiposaKg     *float64 `json:"masa_adiposa_kg,omitempty"`
	MasaAdiposaPct    *float64 `json:"masa_adiposa_pct,omitempty"`
	MasaMuscularKg    *float64 `json:"masa_muscular_kg,omitempty"`
	MasaMuscularPct   *float64 `json:"masa_muscular_pct,omitempty"`
	MasaOseaKg        *float64 `json:"masa_osea_kg,omitempty"`
	MasaResidualKg    *float64 `json:"masa_residual_kg,omitempty"`
	IndiceMusculoOseo *float64 `json:"indice_musculo_oseo,omitempty"`

	Endomorfo *float64 `json:"endomorfo,omitempty"`
	Mesomorfo *float64 `json:"mesomorfo,omitempty"`
	Ectomorfo *float64 `json:"ectomorfo,omitempty"`

	Observaciones *string `json:"observaciones,omitempty"`
}

// Fields 回傳欄位指標，順序與資料表欄位一致 (見 MedidasColumns)
func (m *Medidas) Fields() []*float64 {
	return []*float64{
		m.Peso, m.Talla, m.TallaSentado, m.Envergadura, m.IMC,
		m.PliegueTriceps, m.PliegueSubescapular, m.PliegueBiceps, m.PliegueCrestaIliaca,
		m.PliegueSupraespinal, m.PliegueAbdominal, m.PliegueMuslo, m.PlieguePantorrilla,
		m.PerimetroBrazoRelaj, m.PerimetroBrazoFlex, m.PerimetroCintura, m.PerimetroCadera,
		m.PerimetroMuslo, m.PerimetroPantorrilla,
		m.DiametroHumero, m.DiametroFemur, m.DiametroBiestiloideo,
		m.SumaPliegues, m.MasaAdiposaKg, m.MasaAdiposaPct, m.MasaMuscularKg, m.MasaMuscularPct,
		m.MasaOseaKg, m.MasaResidualKg, m.IndiceMusculoOseo,
		m.Endomorfo, m.Mesomorfo, m.Ectomorfo,
	}
}

// Targets 回傳可供 Scan 或設定的欄位位址，順序同 Fields
func (m *Medidas) Targets() []**float64 {
	return []**float64{
		&m.Peso, &m.Talla, &m.TallaSentado, &m.Envergadura, &m.IMC,
		&m.PliegueTriceps, &m.PliegueSubescapular, &m.PliegueBiceps, &m.PliegueCrestaIliaca,
		&m.PliegueSupraespinal, &m.PliegueAbdominal, &m.PliegueMuslo, &m.PlieguePantorrilla,
		&m.PerimetroBrazoRelaj, &m.PerimetroBrazoFlex, &m.PerimetroCintura, &m.PerimetroCadera,
		&m.PerimetroMuslo, &m.PerimetroPantorrilla,
		&m.DiametroHumero, &m.DiametroFemur, &m.DiametroBiestiloideo,
		&m.SumaPliegues, &m.MasaAdiposaKg, &m.MasaAdiposaPct, &m.MasaMuscularKg, &m.MasaMuscularPct,
		&m.MasaOseaKg, &m.MasaResidualKg, &m.IndiceMusculoOseo,
		&m.Endomorfo, &m.Mesomorfo, &m.Ectomorfo,
	}
}

// MedidasColumns 資料表欄位名稱，順序同 Fields
var MedidasColumns = []string{
	"peso", "talla", "talla_sentado", "envergadura", "imc",
	"pliegue_triceps", "pliegue_subescapular", "pliegue_biceps", "pliegue_cresta_iliaca",
	"pliegue_supraespinal", "pliegue_abdominal", "pliegue_muslo", "pliegue_pantorrilla",
	"perimetro_brazo_relajado", "perimetro_brazo_flexionado", "perimetro_cintura", "perimetro_cadera",
	"perimetro_muslo", "perimetro_pantorrilla",
	"diametro_humero", "diametro_femur", "diametro_biestiloideo",
	"suma_pliegues", "masa_adiposa_kg", "masa_adiposa_pct", "masa_muscular_kg", "masa_muscular_pct",
	"masa_osea_kg", "masa_residual_kg", "indice_musculo_oseo",
	"endomorfo", "mesomorfo", "ectomorfo",
}

// FillIMC 有體重與身高但沒有 IMC 時計算，身高以公分或公尺皆可
func (m *Medidas) FillIMC() {
	if m.IMC != nil || m.Peso == nil || m.Talla == nil {
		return
	}
	if v, ok := ComputeIMC(*m.Peso, *m.Talla); ok {
		m.IMC = &v
	}
}

// ComputeIMC peso / talla_m²，四捨五入到小數兩位
// talla 大於 3 視為公分
func ComputeIMC(peso, talla float64) (float64, bool) {
	if peso <= 0 || talla <= 0 {
		return 0, false
	}
	if talla > 3 {
		talla = talla / 100
	}
	return math.Round(peso/(talla*talla)*100) / 100, true
}

type Informe struct {
	ID            int       `json:"id"`
	PacienteID    int       `json:"paciente_id"`
	SesionID      int       `json:"sesion_id"`
	FechaMedicion time.Time `json:"fecha_medicion"`
	Medidas
	CreatedAt time.Time `json:"created_at"`

	PacienteNombre string `json:"paciente_nombre,omitempty"`
}

// MeasurementRow 試算表中解析出的一列
type MeasurementRow struct {
	Fila   int
	Nombre string
	Fecha  *time.Time
	Sexo   *string
	Medidas
}
