package dto

import "nutriadmin/internal/model"

// swagger:model dto.SesionDetailResponse
type SesionDetailResponse struct {
	Sesion   model.Sesion    `json:"sesion"`
	Informes []model.Informe `json:"informes"`
}

// swagger:model dto.UpdateInformeRequest
type UpdateInformeRequest struct {
	FechaMedicion string `json:"fecha_medicion" validate:"omitempty,datetime=2006-01-02" example:"2025-03-01"`
	model.Medidas
}
