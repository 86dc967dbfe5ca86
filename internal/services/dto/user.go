package dto

import (
	"time"

	"businessconnect_backend/internal/models"
)

type UserResponse struct {
	ID          string                 `json:"id"`
	FirstName   string                 `json:"firstName"`
	LastName    string                 `json:"lastName"`
	Email       string                 `json:"email"`
	Phone       string                 `json:"phone,omitempty"`
	Role        models.UserRole        `json:"role"`
	Status      models.UserStatus      `json:"status"`
	IsVerified  bool                   `json:"isVerified"`
	Preferences models.UserPreferences `json:"preferences"`
	LastLoginAt *time.Time             `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time              `json:"createdAt"`
}

func NewUserResponse(u *models.User) *UserResponse {
	if u == nil {
		return nil
	}
	resp := &UserResponse{
		ID:          u.ID,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Email:       u.Email,
		Role:        u.Role,
		Status:      u.Status,
		IsVerified:  u.IsVerified,
		Preferences: u.Preferences.Data(),
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
	if u.Phone != nil {
		resp.Phone = *u.Phone
	}
	return resp
}

type UpdateUserRequest struct {
	FirstName *string `json:"firstName" validate:"omitempty,min=1,max=100"`
	LastName  *string `json:"lastName" validate:"omitempty,max=100"`
	Phone     *string `json:"phone" validate:"omitempty,sn-phone"`
}

type UpdateRoleRequest struct {
	Role models.UserRole `json:"role" validate:"required,is-user-role"`
}

type UpdateStatusRequest struct {
	Status models.UserStatus `json:"status" validate:"required,oneof=active suspended"`
}

type UpdatePreferencesRequest struct {
	EmailNotifications *bool    `json:"emailNotifications"`
	InAppNotifications *bool    `json:"inAppNotifications"`
	Language           *string  `json:"language" validate:"omitempty,oneof=fr en wo"`
	JobAlerts          []string `json:"jobAlerts" validate:"omitempty,max=20,dive,min=1,max=120"`
}

type UserListRequest struct {
	PageRequest
	Role   models.UserRole   `form:"role" validate:"omitempty,is-user-role"`
	Status models.UserStatus `form:"status" validate:"omitempty,oneof=active suspended"`
	Search string            `form:"q" validate:"omitempty,max=100"`
}
