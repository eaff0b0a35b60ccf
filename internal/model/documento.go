package model

import "time"

// Documento 的內容與縮圖只在下載時讀取
type Documento struct {
	ID            int        `json:"id"`
	Titulo        string     `json:"titulo"`
	Descripcion   string     `json:"descripcion"`
	FechaEvento   *time.Time `json:"fecha_evento,omitempty"`
	NombreArchivo string     `json:"nombre_archivo"`
	MimeType      string     `json:"mime_type"`
	Tamano        int        `json:"tamano"`
	HasThumbnail  bool       `json:"has_thumbnail"`
	SubidoPor     *int       `json:"subido_por,omitempty"`
	Activo        bool       `json:"activo"`
	CreatedAt     time.Time  `json:"created_at"`

	Contenido []byte `json:"-"`
}
