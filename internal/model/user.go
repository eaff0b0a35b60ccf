package model

import "time"

const (
	RoleAdmin         = "admin"
	RoleNutricionista = "nutricionista"
	RoleCliente       = "cliente"
)

type User struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Activo       bool      `json:"activo"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsStaff 管理員或營養師
func (u User) IsStaff() bool {
	return u.Role == RoleAdmin || u.Role == RoleNutricionista
}

// ValidRole 檢查角色名稱
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleNutricionista, RoleCliente:
		return true
	}
	return false
}

type PasswordResetToken struct {
	ID        int
	UserID    int
	Token     string
	ExpiresAt time.Time
	Used      bool
	CreatedAt time.Time
}
