package dto

// swagger:model dto.UpdateDocumentoRequest
type UpdateDocumentoRequest struct {
	Titulo      string `json:"titulo" validate:"required,max=200" example:"Jornada de evaluación"`
	Descripcion string `json:"descripcion" example:"Fotos del evento"`
	FechaEvento string `json:"fecha_evento" validate:"omitempty,datetime=2006-01-02" example:"2025-04-20"`
}
