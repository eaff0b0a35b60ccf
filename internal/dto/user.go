package dto

import (
	"time"

	"nutriadmin/internal/model"
)

// swagger:model dto.CreateUserRequest
type CreateUserRequest struct {
	Name     string `json:"name" validate:"required" example:"Alice"`
	Email    string `json:"email" validate:"required,email" example:"alice@example.com"`
	Password string `json:"password" validate:"required,min=8" example:"Secret123!"`
	Role     string `json:"role" validate:"required,oneof=admin nutricionista cliente" example:"nutricionista"`
}

// swagger:model dto.UpdateUserRequest
type UpdateUserRequest struct {
	Name   string `json:"name" validate:"required" example:"Alice"`
	Email  string `json:"email" validate:"required,email" example:"alice@example.com"`
	Role   string `json:"role" validate:"required,oneof=admin nutricionista cliente" example:"cliente"`
	Activo *bool  `json:"activo" example:"true"`
}

// swagger:model dto.UserResponse
type UserResponse struct {
	ID        int       `json:"id" example:"1"`
	Name      string    `json:"name" example:"Alice"`
	Email     string    `json:"email" example:"alice@example.com"`
	Role      string    `json:"role" example:"admin"`
	Activo    bool      `json:"activo" example:"true"`
	CreatedAt time.Time `json:"created_at" example:"2025-05-01T15:04:05Z07:00"`
}

func NewUserResponse(u *model.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		Activo:    u.Activo,
		CreatedAt: u.CreatedAt,
	}
}
