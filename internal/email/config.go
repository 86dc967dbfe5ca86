package email

import (
	"time"

	"businessconnect_backend/internal/config"
)

type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	FromName  string
	UseTLS    bool
	Timeout   time.Duration
}

func FromAppConfig(cfg *config.Config) SMTPConfig {
	e := cfg.Email
	return SMTPConfig{
		Host:      e.SMTPHost,
		Port:      e.SMTPPort,
		Username:  e.SMTPUsername,
		Password:  e.SMTPPassword,
		FromEmail: e.FromEmail,
		FromName:  e.FromName,
		UseTLS:    e.UseTLS,
		Timeout:   30 * time.Second,
	}
}
