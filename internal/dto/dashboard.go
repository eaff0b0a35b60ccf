package dto

import "nutriadmin/internal/model"

// swagger:model dto.DashboardResponse
type DashboardResponse struct {
	Totales         model.DashboardTotals  `json:"totales"`
	IngresosMensual []model.MonthlyRevenue `json:"ingresos_mensuales"`
	UltimasCargas   []model.Upload         `json:"ultimas_cargas"`
}
