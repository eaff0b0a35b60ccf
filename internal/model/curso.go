package model

import "time"

type Curso struct {
	ID          int       `json:"id"`
	Titulo      string    `json:"titulo"`
	Descripcion string    `json:"descripcion"`
	Precio      float64   `json:"precio"`
	ImagenURL   *string   `json:"imagen_url,omitempty"`
	Activo      bool      `json:"activo"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Inscrito 取得課程存取權的使用者
type Inscrito struct {
	UserID    int       `json:"user_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	GrantedBy *int      `json:"granted_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
