package models

import (
	"time"
)

// Subscription is one purchase attempt of a plan. The current subscription of
// a user is the most recently created active one that has not ended.
type Subscription struct {
	BaseModel
	UserID         string             `gorm:"type:varchar(36);not null;index" json:"userId"`
	Plan           string             `gorm:"size:50;not null" json:"plan"`
	Status         SubscriptionStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Amount         float64            `gorm:"not null" json:"amount"`
	Currency       string             `gorm:"size:8;not null;default:'XOF'" json:"currency"`
	StartDate      *time.Time         `json:"startDate,omitempty"`
	EndDate        *time.Time         `gorm:"index" json:"endDate,omitempty"`
	PaymentID      string             `gorm:"size:64;not null;uniqueIndex" json:"paymentId"`
	PaymentURL     string             `gorm:"size:500" json:"paymentUrl,omitempty"`
	PaymentMethod  string             `gorm:"size:50" json:"paymentMethod,omitempty"`
	GatewayStatus  string             `gorm:"size:50" json:"gatewayStatus,omitempty"`
	CancelledAt    *time.Time         `json:"cancelledAt,omitempty"`
	ReminderSentAt *time.Time         `json:"-"`
}

// IsCurrent reports whether the subscription grants access at t.
func (s *Subscription) IsCurrent(t time.Time) bool {
	return s.Status == SubscriptionStatusActive && s.EndDate != nil && s.EndDate.After(t)
}

// DaysRemaining rounds up partial days.
func (s *Subscription) DaysRemaining(t time.Time) int {
	if !s.IsCurrent(t) {
		return 0
	}
	d := s.EndDate.Sub(t)
	days := int(d / (24 * time.Hour))
	if d%(24*time.Hour) != 0 {
		days++
	}
	return days
}
