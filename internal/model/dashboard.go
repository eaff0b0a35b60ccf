package model

import "time"

type DashboardTotals struct {
	PacientesActivos int            `json:"pacientes_activos"`
	Sesiones         int            `json:"sesiones"`
	Informes         int            `json:"informes"`
	UsuariosPorRol   map[string]int `json:"usuarios_por_rol"`
	CursosActivos    int            `json:"cursos_activos"`
	CuotasPendientes int            `json:"cuotas_pendientes"`
}

type MonthlyRevenue struct {
	Mes   time.Time `json:"mes"`
	Total float64   `json:"total"`
	Pagos int       `json:"pagos"`
}
