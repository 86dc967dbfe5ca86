package email

import (
	"context"
	"crypto/tls"
	"fmt"

	"gopkg.in/gomail.v2"
)

// SMTPProvider sends mail through gomail.
type SMTPProvider struct {
	config SMTPConfig
	dialer *gomail.Dialer
}

func NewSMTPProvider(config SMTPConfig) *SMTPProvider {
	d := gomail.NewDialer(config.Host, config.Port, config.Username, config.Password)
	if config.Port == 465 {
		d.SSL = true
	}
	if config.UseTLS {
		d.TLSConfig = &tls.Config{ServerName: config.Host, MinVersion: tls.VersionTLS12}
	}
	return &SMTPProvider{config: config, dialer: d}
}

func (p *SMTPProvider) Send(ctx context.Context, email *Email) error {
	if len(email.To) == 0 {
		return fmt.Errorf("no recipients provided for email")
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", p.config.FromEmail, p.config.FromName)
	m.SetHeader("To", email.To...)
	m.SetHeader("Subject", email.Subject)

	switch {
	case email.HTMLBody != "":
		m.SetBody("text/html", email.HTMLBody)
		if email.TextBody != "" {
			m.AddAlternative("text/plain", email.TextBody)
		}
	case email.TextBody != "":
		m.SetBody("text/plain", email.TextBody)
	default:
		return fmt.Errorf("email body (HTML or Text) must be provided")
	}

	done := make(chan error, 1)
	go func() {
		done <- p.dialer.DialAndSend(m)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send: %w", err)
		}
		return nil
	}
}
