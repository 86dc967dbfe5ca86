package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"businessconnect_backend/internal/email"
	"businessconnect_backend/internal/logger"
	"businessconnect_backend/internal/models"
)

// EmailService renders the built-in templates and hands them to a provider.
type EmailService interface {
	SendVerification(ctx context.Context, user *models.User, token string) error
	SendPasswordReset(ctx context.Context, user *models.User, token string, expiresIn time.Duration) error
	SendSubscriptionActivated(ctx context.Context, user *models.User, sub *models.Subscription, planName string) error
	SendSubscriptionExpiring(ctx context.Context, user *models.User, sub *models.Subscription, planName string) error
	SendNotification(ctx context.Context, user *models.User, title, message, link string) error
}

type emailService struct {
	provider    email.Provider
	templates   *email.TemplateManager
	frontendURL string
}

func NewEmailService(provider email.Provider, templates *email.TemplateManager, frontendURL string) EmailService {
	return &emailService{
		provider:    provider,
		templates:   templates,
		frontendURL: strings.TrimRight(frontendURL, "/"),
	}
}

func (s *emailService) SendVerification(ctx context.Context, user *models.User, token string) error {
	return s.send(ctx, user.Email, "Confirmez votre adresse email", email.TemplateVerification, email.TemplateData{
		"Name": user.FullName(),
		"Link": s.link("/verify-email/%s", token),
	})
}

func (s *emailService) SendPasswordReset(ctx context.Context, user *models.User, token string, expiresIn time.Duration) error {
	return s.send(ctx, user.Email, "Réinitialisation de votre mot de passe", email.TemplatePasswordReset, email.TemplateData{
		"Name":      user.FullName(),
		"Link":      s.link("/reset-password?token=%s", token),
		"ExpiresIn": formatDuration(expiresIn),
	})
}

func (s *emailService) SendSubscriptionActivated(ctx context.Context, user *models.User, sub *models.Subscription, planName string) error {
	data := email.TemplateData{
		"Name":     user.FullName(),
		"Plan":     planName,
		"Amount":   fmt.Sprintf("%.0f", sub.Amount),
		"Currency": sub.Currency,
	}
	if sub.EndDate != nil {
		data["EndDate"] = sub.EndDate.Format("02/01/2006")
	}
	return s.send(ctx, user.Email, "Votre abonnement est actif", email.TemplateSubscriptionActivated, data)
}

func (s *emailService) SendSubscriptionExpiring(ctx context.Context, user *models.User, sub *models.Subscription, planName string) error {
	data := email.TemplateData{
		"Name": user.FullName(),
		"Plan": planName,
		"Link": s.link("/subscription"),
	}
	if sub.EndDate != nil {
		data["EndDate"] = sub.EndDate.Format("02/01/2006")
	}
	return s.send(ctx, user.Email, "Votre abonnement expire bientôt", email.TemplateSubscriptionExpiring, data)
}

func (s *emailService) SendNotification(ctx context.Context, user *models.User, title, message, link string) error {
	if link != "" && strings.HasPrefix(link, "/") {
		link = s.frontendURL + link
	}
	return s.send(ctx, user.Email, title, email.TemplateNotification, email.TemplateData{
		"Name":    user.FullName(),
		"Title":   title,
		"Message": message,
		"Link":    link,
	})
}

func (s *emailService) send(ctx context.Context, to, subject, template string, data email.TemplateData) error {
	html, err := s.templates.Render(template, data)
	if err != nil {
		return err
	}
	err = s.provider.Send(ctx, &email.Email{
		To:       []string{to},
		Subject:  subject,
		HTMLBody: html,
	})
	if err != nil {
		logger.CtxWithError(ctx, "Failed to send email", err, "template", template)
		return err
	}
	return nil
}

func (s *emailService) link(format string, args ...interface{}) string {
	return s.frontendURL + fmt.Sprintf(format, args...)
}

func formatDuration(d time.Duration) string {
	if d >= time.Hour && d%time.Hour == 0 {
		h := int(d / time.Hour)
		if h == 1 {
			return "1 heure"
		}
		return fmt.Sprintf("%d heures", h)
	}
	return fmt.Sprintf("%d minutes", int(d/time.Minute))
}
