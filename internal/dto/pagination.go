package dto

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
	// MaxPage 限制 OFFSET 不溢位
	MaxPage = 100000
)

// swagger:model dto.PaginationMeta
type PaginationMeta struct {
	Page       int `json:"page" example:"1"`
	Limit      int `json:"limit" example:"20"`
	Total      int `json:"total" example:"57"`
	TotalPages int `json:"total_pages" example:"3"`
}

func NewPaginationMeta(page, limit, total int) PaginationMeta {
	totalPages := 0
	if total > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return PaginationMeta{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
	}
}
