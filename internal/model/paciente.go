package model

import "time"

type Paciente struct {
	ID              int        `json:"id"`
	Nombre          string     `json:"nombre"`
	FechaNacimiento *time.Time `json:"fecha_nacimiento,omitempty"`
	Sexo            *string    `json:"sexo,omitempty"`
	PlantelID       *int       `json:"plantel_id,omitempty"`
	Activo          bool       `json:"activo"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

type PacienteFilter struct {
	Query     string
	PlantelID int
	Limit     int
	Offset    int
}
