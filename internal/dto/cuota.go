package dto

// swagger:model dto.CuotaRequest
type CuotaRequest struct {
	Mes              int     `json:"mes" validate:"required,min=1,max=12" example:"3"`
	Anio             int     `json:"anio" validate:"required,min=2000,max=2100" example:"2025"`
	Monto            float64 `json:"monto" validate:"required,gt=0" example:"15000"`
	Descripcion      string  `json:"descripcion" example:"Cuota marzo"`
	FechaVencimiento string  `json:"fecha_vencimiento" validate:"required,datetime=2006-01-02" example:"2025-03-10"`
}

// swagger:model dto.CuotaEstadoRequest
type CuotaEstadoRequest struct {
	Estado string `json:"estado" validate:"required,oneof=pendiente pagado" example:"pagado"`
}

// swagger:model dto.CreateCuotaResponse
type CreateCuotaResponse struct {
	ID        int `json:"id" example:"4"`
	Asignados int `json:"asignados" example:"12"`
}
