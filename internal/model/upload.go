package model

import "time"

// Upload 試算表上傳稽核紀錄
type Upload struct {
	ID                  int       `json:"id"`
	SesionID            *int      `json:"sesion_id,omitempty"`
	UserID              *int      `json:"user_id,omitempty"`
	NombreArchivo       string    `json:"nombre_archivo"`
	FileHash            string    `json:"file_hash"`
	TotalFilas          int       `json:"total_filas"`
	RegistrosInsertados int       `json:"registros_insertados"`
	RegistrosDuplicados int       `json:"registros_duplicados"`
	CreatedAt           time.Time `json:"created_at"`
}
