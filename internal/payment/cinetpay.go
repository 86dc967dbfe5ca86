package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"businessconnect_backend/internal/config"
	"businessconnect_backend/internal/logger"
)

const (
	cinetpayCodeCreated = "201"
	cinetpayCodeSuccess = "00"
)

// CinetPayConfig holds merchant credentials.
type CinetPayConfig struct {
	BaseURL   string
	APIKey    string
	SiteID    string
	SecretKey string
	NotifyURL string
	ReturnURL string
	Currency  string
	Channels  string
	Lang      string
	Timeout   time.Duration
}

func CinetPayConfigFrom(cfg *config.Config) CinetPayConfig {
	c := cfg.CinetPay
	return CinetPayConfig{
		BaseURL:   strings.TrimRight(c.BaseURL, "/"),
		APIKey:    c.APIKey,
		SiteID:    c.SiteID,
		SecretKey: c.SecretKey,
		NotifyURL: c.NotifyURL,
		ReturnURL: c.ReturnURL,
		Currency:  c.Currency,
		Channels:  c.Channels,
		Lang:      c.Lang,
		Timeout:   time.Duration(c.TimeoutSec) * time.Second,
	}
}

// CinetPayClient talks to the CinetPay checkout API v2.
type CinetPayClient struct {
	cfg        CinetPayConfig
	httpClient *http.Client
	retries    int
	backoff    time.Duration
}

func NewCinetPayClient(cfg CinetPayConfig, httpClient *http.Client) *CinetPayClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &CinetPayClient{cfg: cfg, httpClient: httpClient, retries: 3, backoff: 500 * time.Millisecond}
}

func (c *CinetPayClient) Name() string { return "cinetpay" }

type initPaymentRequest struct {
	APIKey              string `json:"apikey"`
	SiteID              string `json:"site_id"`
	TransactionID       string `json:"transaction_id"`
	Amount              int64  `json:"amount"`
	Currency            string `json:"currency"`
	Description         string `json:"description"`
	NotifyURL           string `json:"notify_url"`
	ReturnURL           string `json:"return_url"`
	Channels            string `json:"channels"`
	Lang                string `json:"lang,omitempty"`
	Metadata            string `json:"metadata,omitempty"`
	CustomerID          string `json:"customer_id,omitempty"`
	CustomerName        string `json:"customer_name,omitempty"`
	CustomerEmail       string `json:"customer_email,omitempty"`
	CustomerPhoneNumber string `json:"customer_phone_number,omitempty"`
}

type checkPaymentRequest struct {
	APIKey        string `json:"apikey"`
	SiteID        string `json:"site_id"`
	TransactionID string `json:"transaction_id"`
}

type apiResponse struct {
	Code        string          `json:"code"`
	Message     string          `json:"message"`
	Description string          `json:"description"`
	Data        json.RawMessage `json:"data"`
}

type initData struct {
	PaymentToken string `json:"payment_token"`
	PaymentURL   string `json:"payment_url"`
}

type checkData struct {
	Amount        flexString `json:"amount"`
	Currency      string     `json:"currency"`
	Status        string     `json:"status"`
	PaymentMethod string     `json:"payment_method"`
	Description   string     `json:"description"`
	PaymentDate   string     `json:"payment_date"`
}

// flexString accepts both JSON strings and numbers; CinetPay sends amounts either way.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" {
		s = ""
	}
	*f = flexString(s)
	return nil
}

func (c *CinetPayClient) InitPayment(ctx context.Context, req InitRequest) (*InitResult, error) {
	currency := req.Currency
	if currency == "" {
		currency = c.cfg.Currency
	}
	// CinetPay rejects amounts that are not multiples of 5
	if req.Amount <= 0 || req.Amount%5 != 0 {
		return nil, fmt.Errorf("invalid amount %d: must be a positive multiple of 5", req.Amount)
	}

	body := initPaymentRequest{
		APIKey:              c.cfg.APIKey,
		SiteID:              c.cfg.SiteID,
		TransactionID:       req.TransactionID,
		Amount:              req.Amount,
		Currency:            currency,
		Description:         req.Description,
		NotifyURL:           c.cfg.NotifyURL,
		ReturnURL:           c.cfg.ReturnURL,
		Channels:            c.cfg.Channels,
		Lang:                c.cfg.Lang,
		Metadata:            req.Metadata,
		CustomerID:          req.CustomerID,
		CustomerName:        req.CustomerName,
		CustomerEmail:       req.CustomerEmail,
		CustomerPhoneNumber: req.CustomerPhone,
	}

	var resp *apiResponse
	err := withRetry(ctx, c.retries, c.backoff, func() error {
		var err error
		resp, err = c.post(ctx, "/payment", body)
		return err
	})
	if err != nil {
		return nil, err
	}
	if resp.Code != cinetpayCodeCreated {
		return nil, &GatewayError{HTTPStatus: http.StatusOK, Code: resp.Code, Message: resp.Message + ": " + resp.Description}
	}

	var data initData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("decode cinetpay init data: %w", err)
	}
	if data.PaymentURL == "" {
		return nil, &GatewayError{HTTPStatus: http.StatusOK, Code: resp.Code, Message: "missing payment_url"}
	}
	return &InitResult{PaymentURL: data.PaymentURL, PaymentToken: data.PaymentToken}, nil
}

func (c *CinetPayClient) CheckPayment(ctx context.Context, transactionID string) (*CheckResult, error) {
	body := checkPaymentRequest{
		APIKey:        c.cfg.APIKey,
		SiteID:        c.cfg.SiteID,
		TransactionID: transactionID,
	}

	var resp *apiResponse
	err := withRetry(ctx, c.retries, c.backoff, func() error {
		var err error
		resp, err = c.post(ctx, "/payment/check", body)
		return err
	})
	if err != nil {
		return nil, err
	}

	var data checkData
	if len(resp.Data) > 0 && string(resp.Data) != "null" {
		if err := json.Unmarshal(resp.Data, &data); err != nil {
			return nil, fmt.Errorf("decode cinetpay check data: %w", err)
		}
	}

	result := &CheckResult{
		TransactionID: transactionID,
		RawStatus:     data.Status,
		Currency:      data.Currency,
		PaymentMethod: data.PaymentMethod,
		Message:       resp.Message,
		Status:        normalizeStatus(resp.Code, data.Status),
	}
	if amt, err := strconv.ParseFloat(string(data.Amount), 64); err == nil {
		result.Amount = int64(amt)
	}
	return result, nil
}

// normalizeStatus maps CinetPay statuses; anything not final stays pending.
func normalizeStatus(code, status string) Status {
	switch strings.ToUpper(status) {
	case "ACCEPTED":
		if code == cinetpayCodeSuccess || code == "" {
			return StatusSucceeded
		}
		return StatusPending
	case "REFUSED", "CANCELED", "CANCELLED", "FAILED":
		return StatusFailed
	default:
		return StatusPending
	}
}

func (c *CinetPayClient) post(ctx context.Context, path string, payload interface{}) (*apiResponse, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	url := c.cfg.BaseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		logger.HTTPLog(http.MethodPost, url, 0, time.Since(start), err)
		return nil, fmt.Errorf("cinetpay request failed: %w", err)
	}
	defer httpResp.Body.Close()
	logger.HTTPLog(http.MethodPost, url, httpResp.StatusCode, time.Since(start), nil)

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read cinetpay response: %w", err)
	}

	var resp apiResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		if httpResp.StatusCode >= 300 {
			return nil, &GatewayError{HTTPStatus: httpResp.StatusCode, Code: strconv.Itoa(httpResp.StatusCode), Message: http.StatusText(httpResp.StatusCode)}
		}
		return nil, fmt.Errorf("decode cinetpay response: %w", err)
	}
	// CinetPay answers business errors (e.g. unpaid transactions) with 4xx and a JSON body
	if httpResp.StatusCode >= 500 || (httpResp.StatusCode >= 300 && resp.Code == "") {
		return nil, &GatewayError{HTTPStatus: httpResp.StatusCode, Code: resp.Code, Message: resp.Message}
	}
	return &resp, nil
}
