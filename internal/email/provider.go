package email

import (
	"context"
	"strings"

	"businessconnect_backend/internal/logger"
)

// Provider delivers a rendered message.
type Provider interface {
	Send(ctx context.Context, email *Email) error
}

// NewProvider returns the SMTP provider, or a LogProvider when no host is configured.
func NewProvider(cfg SMTPConfig) Provider {
	if cfg.Host == "" {
		logger.Warn("SMTP host not configured, emails will only be logged")
		return &LogProvider{}
	}
	return NewSMTPProvider(cfg)
}

// LogProvider writes messages to the log instead of sending them.
type LogProvider struct{}

func (p *LogProvider) Send(ctx context.Context, email *Email) error {
	logger.CtxInfo(ctx, "📧 email (not sent)",
		"to", strings.Join(email.To, ","),
		"subject", email.Subject,
	)
	return nil
}
