package dto

// swagger:model dto.CursoRequest
type CursoRequest struct {
	Titulo      string  `json:"titulo" validate:"required,max=200" example:"Nutrición deportiva I"`
	Descripcion string  `json:"descripcion" example:"Curso introductorio"`
	Precio      float64 `json:"precio" validate:"gte=0" example:"25000"`
	Activo      *bool   `json:"activo" example:"true"`
}

// swagger:model dto.GrantAccessRequest
type GrantAccessRequest struct {
	UserID int `json:"user_id" validate:"required,gt=0" example:"7"`
}
