package dto

// swagger:model dto.CatalogRequest
type CatalogRequest struct {
	Nombre string `json:"nombre" validate:"required,max=150" example:"Club Deportivo Norte"`
	Activo *bool  `json:"activo" example:"true"`
}
