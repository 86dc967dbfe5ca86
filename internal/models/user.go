package models

import (
	"time"

	"gorm.io/datatypes"
)

type User struct {
	BaseModel
	FirstName         string                              `gorm:"size:100" json:"firstName"`
	LastName          string                              `gorm:"size:100" json:"lastName"`
	Email             string                              `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Phone             *string                             `gorm:"size:32;uniqueIndex" json:"phone,omitempty"`
	PasswordHash      string                              `gorm:"not null" json:"-"`
	Role              UserRole                            `gorm:"type:varchar(20);not null;default:'user';index" json:"role"`
	Status            UserStatus                          `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	IsVerified        bool                                `gorm:"default:false" json:"isVerified"`
	VerificationToken string                              `gorm:"size:128;index" json:"-"`
	ResetToken        string                              `gorm:"size:128;index" json:"-"`
	ResetTokenExpires *time.Time                          `json:"-"`
	ResetAttempts     int                                 `gorm:"not null;default:0" json:"-"`
	Preferences       datatypes.JSONType[UserPreferences] `json:"preferences"`
	LastLoginAt       *time.Time                          `json:"lastLoginAt,omitempty"`
}

// UserPreferences is stored as a JSON column on users.
type UserPreferences struct {
	EmailNotifications bool     `json:"emailNotifications"`
	InAppNotifications bool     `json:"inAppNotifications"`
	Language           string   `json:"language"`
	JobAlerts          []string `json:"jobAlerts"`
}

func DefaultPreferences() UserPreferences {
	return UserPreferences{
		EmailNotifications: true,
		InAppNotifications: true,
		Language:           "fr",
		JobAlerts:          []string{},
	}
}

func (u *User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.Email
	}
}

func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}

// RefreshToken rows back refresh-token rotation; only the sha256 of the token is stored.
type RefreshToken struct {
	BaseModel
	UserID    string    `gorm:"type:varchar(36);not null;index"`
	TokenHash string    `gorm:"size:64;not null;uniqueIndex"`
	ExpiresAt time.Time `gorm:"not null;index"`
}
