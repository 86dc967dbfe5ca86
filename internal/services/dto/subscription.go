package dto

import (
	"net/url"

	"businessconnect_backend/internal/models"
)

type InitiateSubscriptionRequest struct {
	Plan string `json:"plan" validate:"required,max=50"`
}

type InitiateSubscriptionResponse struct {
	Subscription  *models.Subscription `json:"subscription"`
	PaymentURL    string               `json:"paymentUrl"`
	TransactionID string               `json:"transactionId"`
}

type SubscriptionStatusResponse struct {
	Active        bool                 `json:"active"`
	Plan          string               `json:"plan,omitempty"`
	DaysRemaining int                  `json:"daysRemaining"`
	Subscription  *models.Subscription `json:"subscription,omitempty"`
}

type SubscriptionListRequest struct {
	PageRequest
	Status models.SubscriptionStatus `form:"status" validate:"omitempty,oneof=pending active expired cancelled"`
	UserID string                    `form:"user_id" validate:"omitempty,max=36"`
}

// WebhookRequest is the raw CinetPay notification.
type WebhookRequest struct {
	Token string
	Form  url.Values
}

// ReconcileResult reports what a webhook or verification did.
type ReconcileResult struct {
	Subscription *models.Subscription `json:"subscription"`
	Outcome      string               `json:"outcome"`
}

// WebhookAck is all the payment gateway gets back from a notification.
type WebhookAck struct {
	Outcome string `json:"outcome"`
}

type ExpiryResult struct {
	Expired   int `json:"expired"`
	Reminders int `json:"reminders"`
}
