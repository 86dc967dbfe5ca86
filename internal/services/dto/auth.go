package dto

import (
	"time"

	"businessconnect_backend/internal/models"
)

type RegisterRequest struct {
	FirstName string          `json:"firstName" validate:"required,max=100"`
	LastName  string          `json:"lastName" validate:"omitempty,max=100"`
	Email     string          `json:"email" validate:"required,email,max=255"`
	Password  string          `json:"password" validate:"required,min=6,max=72"`
	Phone     string          `json:"phone" validate:"omitempty,sn-phone"`
	Role      models.UserRole `json:"role" validate:"omitempty,is-user-role"`
}

// LoginRequest accepts either an email or a phone number. A request carrying
// neither is rejected by the service.
type LoginRequest struct {
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone" validate:"omitempty,sn-phone"`
	Password string `json:"password" validate:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"omitempty,email"`
	Phone string `json:"phone" validate:"omitempty,sn-phone"`
}

// ResetPasswordRequest carries the emailed link token, or the SMS code
// together with the phone (or email) it was issued for.
type ResetPasswordRequest struct {
	Token    string `json:"token" validate:"required,max=128"`
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone" validate:"omitempty,sn-phone"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6,max=72"`
}

type AuthResponse struct {
	AccessToken  string        `json:"accessToken"`
	RefreshToken string        `json:"refreshToken"`
	ExpiresAt    time.Time     `json:"expiresAt"`
	User         *UserResponse `json:"user"`
}

// AccessClaims is what the auth middleware needs from a validated access token.
type AccessClaims struct {
	UserID    string
	Role      models.UserRole
	TokenID   string
	ExpiresAt time.Time
}
