package services

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"businessconnect_backend/internal/email"
	"businessconnect_backend/internal/logger"
	"businessconnect_backend/internal/repositories"
)

func init() {
	logger.InitWithWriter("test", io.Discard)
}

type recordingProvider struct {
	mu   sync.Mutex
	sent []*email.Email
}

func (p *recordingProvider) Send(_ context.Context, e *email.Email) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, e)
	return nil
}

func (p *recordingProvider) subjects() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.sent))
	for _, e := range p.sent {
		out = append(out, e.Subject)
	}
	return out
}

type recordingPusher struct {
	mu     sync.Mutex
	pushed map[string]int
}

func (p *recordingPusher) PushToUser(userID string, _ interface{}) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pushed == nil {
		p.pushed = make(map[string]int)
	}
	p.pushed[userID]++
	return true
}

type recordingPublisher struct {
	mu       sync.Mutex
	subjects []string
}

func (p *recordingPublisher) Publish(_ context.Context, subject string, _ interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	return nil
}

func (p *recordingPublisher) Close() {}

func (p *recordingPublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.subjects...)
}

func newTestEmailService(t *testing.T) (EmailService, *recordingProvider) {
	t.Helper()
	templates, err := email.DefaultTemplates()
	require.NoError(t, err)
	provider := &recordingProvider{}
	return NewEmailService(provider, templates, "https://businessconnect.sn"), provider
}

// newTestNotificationService delivers synchronously.
func newTestNotificationService(t *testing.T, pusher Pusher, emails EmailService) NotificationService {
	t.Helper()
	svc := NewNotificationService(repositories.NewNotificationRepository(), repositories.NewUserRepository(), pusher, emails)
	svc.(*NotificationServiceImpl).async = false
	return svc
}
