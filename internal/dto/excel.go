package dto

// swagger:model dto.UploadResponse
type UploadResponse struct {
	Message             string `json:"message" example:"archivo procesado"`
	UploadID            int    `json:"uploadId" example:"40"`
	SesionID            int    `json:"sesionId" example:"12"`
	TotalFilas          int    `json:"totalFilas" example:"25"`
	RegistrosInsertados int    `json:"registrosInsertados" example:"23"`
	RegistrosDuplicados int    `json:"registrosDuplicados" example:"2"`
	PacientesCreados    int    `json:"pacientesCreados" example:"4"`
}
