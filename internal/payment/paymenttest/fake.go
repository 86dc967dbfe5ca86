// Package paymenttest provides an in-memory payment gateway for tests.
package paymenttest

import (
	"context"
	"errors"
	"sync"

	"businessconnect_backend/internal/payment"
)

// Gateway records initialized payments and answers checks from SetStatus.
type Gateway struct {
	mu       sync.Mutex
	inits    []payment.InitRequest
	statuses map[string]*payment.CheckResult

	InitErr  error
	CheckErr error
}

func NewGateway() *Gateway {
	return &Gateway{statuses: make(map[string]*payment.CheckResult)}
}

func (g *Gateway) Name() string { return "fake" }

func (g *Gateway) InitPayment(_ context.Context, req payment.InitRequest) (*payment.InitResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.InitErr != nil {
		return nil, g.InitErr
	}
	g.inits = append(g.inits, req)
	g.statuses[req.TransactionID] = &payment.CheckResult{
		TransactionID: req.TransactionID,
		Status:        payment.StatusPending,
		RawStatus:     "WAITING_FOR_CUSTOMER",
		Amount:        req.Amount,
		Currency:      req.Currency,
	}
	return &payment.InitResult{
		PaymentURL:   "https://checkout.test/pay/" + req.TransactionID,
		PaymentToken: "tok-" + req.TransactionID,
	}, nil
}

func (g *Gateway) CheckPayment(_ context.Context, transactionID string) (*payment.CheckResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.CheckErr != nil {
		return nil, g.CheckErr
	}
	res, ok := g.statuses[transactionID]
	if !ok {
		return nil, errors.New("unknown transaction")
	}
	cp := *res
	return &cp, nil
}

// SetStatus changes what CheckPayment reports for a transaction.
func (g *Gateway) SetStatus(transactionID string, status payment.Status, amount int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	raw := map[payment.Status]string{
		payment.StatusSucceeded: "ACCEPTED",
		payment.StatusFailed:    "REFUSED",
		payment.StatusPending:   "WAITING_FOR_CUSTOMER",
	}[status]
	g.statuses[transactionID] = &payment.CheckResult{
		TransactionID: transactionID,
		Status:        status,
		RawStatus:     raw,
		Amount:        amount,
		Currency:      "XOF",
		PaymentMethod: "OM",
	}
}

// Inits returns the initialized payment requests.
func (g *Gateway) Inits() []payment.InitRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]payment.InitRequest(nil), g.inits...)
}
