package payment

import (
	"context"
	"errors"
)

// Status is the gateway outcome normalized across providers.
type Status string

const (
	StatusSucceeded Status = "SUCCEEDED"
	StatusFailed    Status = "FAILED"
	StatusPending   Status = "PENDING"
)

// InitRequest describes a payment to open on the gateway.
type InitRequest struct {
	TransactionID string
	Amount        int64
	Currency      string
	Description   string
	CustomerID    string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	Metadata      string
}

// InitResult carries the hosted checkout page.
type InitResult struct {
	PaymentURL   string
	PaymentToken string
}

// CheckResult is the authoritative transaction state reported by the gateway.
type CheckResult struct {
	TransactionID string
	Status        Status
	RawStatus     string
	Amount        int64
	Currency      string
	PaymentMethod string
	Message       string
}

// Gateway abstracts the payment provider.
type Gateway interface {
	Name() string
	InitPayment(ctx context.Context, req InitRequest) (*InitResult, error)
	CheckPayment(ctx context.Context, transactionID string) (*CheckResult, error)
}

// Notification is a verified webhook delivery. Only the transaction id is
// trusted; the status always comes from CheckPayment.
type Notification struct {
	Provider      string
	TransactionID string
	SiteID        string
	Amount        string
	Currency      string
	PaymentMethod string
	ErrorMessage  string
}

var (
	ErrInvalidSignature = errors.New("payment: invalid webhook signature")
	ErrMissingField     = errors.New("payment: missing transaction id")
)

// GatewayError is returned when the provider answers with an error code.
type GatewayError struct {
	HTTPStatus int
	Code       string
	Message    string
}

func (e *GatewayError) Error() string {
	return "payment gateway error: code=" + e.Code + " message=" + e.Message
}
