package model

import "time"

const (
	CuotaPendiente = "pendiente"
	CuotaPagado    = "pagado"
)

type Cuota struct {
	ID               int       `json:"id"`
	Mes              int       `json:"mes"`
	Anio             int       `json:"anio"`
	Monto            float64   `json:"monto"`
	Descripcion      string    `json:"descripcion"`
	FechaVencimiento time.Time `json:"fecha_vencimiento"`
	Activo           bool      `json:"activo"`
	CreatedAt        time.Time `json:"created_at"`

	Pagados    int `json:"pagados"`
	Pendientes int `json:"pendientes"`
}

// CuotaUsuario 一位使用者對某期會費的狀態
type CuotaUsuario struct {
	ID       int        `json:"id"`
	CuotaID  int        `json:"cuota_id"`
	UserID   int        `json:"user_id"`
	Estado   string     `json:"estado"`
	PagadoAt *time.Time `json:"pagado_at,omitempty"`

	Mes              int       `json:"mes"`
	Anio             int       `json:"anio"`
	Monto            float64   `json:"monto"`
	Descripcion      string    `json:"descripcion"`
	FechaVencimiento time.Time `json:"fecha_vencimiento"`
}
