package model

import "time"

// CatalogKind 目錄種類，對應資料表名稱
type CatalogKind string

const (
	Planteles  CatalogKind = "planteles"
	Categorias CatalogKind = "categorias"
	Ligas      CatalogKind = "ligas"
)

// Valid 只接受已知的三種目錄
func (k CatalogKind) Valid() bool {
	switch k {
	case Planteles, Categorias, Ligas:
		return true
	}
	return false
}

// CatalogItem 代表 plantel、categoría 或 liga
type CatalogItem struct {
	ID        int       `json:"id"`
	Nombre    string    `json:"nombre"`
	Activo    bool      `json:"activo"`
	CreatedAt time.Time `json:"created_at"`
}
