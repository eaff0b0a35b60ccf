package dto

import "time"

// swagger:model dto.RegisterRequest
type RegisterRequest struct {
	Name     string `json:"name" form:"name" validate:"required" example:"Alice"`
	Email    string `json:"email" form:"email" validate:"required,email" example:"alice@example.com"`
	Password string `json:"password" form:"password" validate:"required,min=8" example:"Secret123!"`
}

// swagger:model dto.LoginRequest
type LoginRequest struct {
	Email    string `json:"email" form:"email" validate:"required" example:"alice@example.com"`
	Password string `json:"password" form:"password" validate:"required" example:"Secret123!"`
}

// swagger:model dto.LoginResponse
type LoginResponse struct {
	AccessToken  string       `json:"access_token" example:"eyJhbGciOi..."`
	TokenType    string       `json:"token_type" example:"Bearer"`
	ExpiresAt    time.Time    `json:"expires_at" example:"2025-05-09T15:04:05Z07:00"`
	RefreshToken string       `json:"refresh_token,omitempty" example:"..."`
	User         UserResponse `json:"user"`
}

// swagger:model dto.RefreshRequest
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" form:"refresh_token" validate:"required"`
}

// swagger:model dto.ForgotPasswordRequest
type ForgotPasswordRequest struct {
	Email string `json:"email" form:"email" validate:"required,email" example:"alice@example.com"`
}

// swagger:model dto.ResetPasswordRequest
type ResetPasswordRequest struct {
	Token       string `json:"token" form:"token" validate:"required"`
	NewPassword string `json:"new_password" form:"new_password" validate:"required,min=8"`
}

// swagger:model dto.UpdatePasswordRequest
type UpdatePasswordRequest struct {
	OldPassword string `json:"old_password" form:"old_password" validate:"required" example:"OldPass123"`
	NewPassword string `json:"new_password" form:"new_password" validate:"required,min=8" example:"NewPass456"`
}
