package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"businessconnect_backend/internal/logger"
)

// Sender delivers text messages, used for password reset codes.
type Sender interface {
	Send(ctx context.Context, to, message string) error
}

type Config struct {
	APIURL string
	APIKey string
	From   string
}

// NewSender returns an HTTP gateway sender, or a LogSender when no URL is configured.
func NewSender(cfg Config) Sender {
	if cfg.APIURL == "" {
		logger.Warn("SMS gateway not configured, messages will only be logged")
		return LogSender{}
	}
	return NewHTTPSender(cfg, &http.Client{Timeout: 10 * time.Second})
}

// HTTPSender posts JSON to a bulk SMS gateway with a bearer key.
type HTTPSender struct {
	cfg    Config
	client *http.Client
}

func NewHTTPSender(cfg Config, client *http.Client) *HTTPSender {
	return &HTTPSender{cfg: cfg, client: client}
}

type sendRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
	Text string `json:"text"`
}

func (s *HTTPSender) Send(ctx context.Context, to, message string) error {
	body, err := json.Marshal(sendRequest{From: s.cfg.From, To: to, Text: message})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.APIURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		logger.HTTPLog(req.Method, s.cfg.APIURL, 0, time.Since(start), err)
		return fmt.Errorf("sms gateway: %w", err)
	}
	defer resp.Body.Close()
	logger.HTTPLog(req.Method, s.cfg.APIURL, resp.StatusCode, time.Since(start), nil)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("sms gateway returned status %d", resp.StatusCode)
	}
	return nil
}

// LogSender writes messages to the log.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, to, message string) error {
	logger.CtxInfo(ctx, "📱 sms (not sent)", "to", to, "length", len(message))
	return nil
}
