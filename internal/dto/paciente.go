package dto

import "nutriadmin/internal/model"

// swagger:model dto.PacienteRequest
type PacienteRequest struct {
	Nombre          string `json:"nombre" validate:"required,max=200" example:"Juan Pérez"`
	FechaNacimiento string `json:"fecha_nacimiento" validate:"omitempty,datetime=2006-01-02" example:"2008-04-12"`
	Sexo            string `json:"sexo" validate:"omitempty,oneof=M F" example:"M"`
	PlantelID       *int   `json:"plantel_id" example:"1"`
	Activo          *bool  `json:"activo" example:"true"`
}

// swagger:model dto.PacienteListResponse
type PacienteListResponse struct {
	Data []model.Paciente `json:"data"`
	Meta PaginationMeta   `json:"meta"`
}
