package services

import (
	"context"
	"strings"

	"businessconnect_backend/internal/auth"
	"businessconnect_backend/internal/logger"
	"businessconnect_backend/internal/models"
	"businessconnect_backend/internal/validator"
)

// detach runs fn after the request returns. Side effects such as emails and
// SMS must not hold the response; tests set async to false to observe them.
func detach(ctx context.Context, async bool, name string, fn func(ctx context.Context) error) {
	run := func(ctx context.Context) {
		if err := fn(ctx); err != nil {
			logger.CtxWithError(ctx, "Background task failed", err, "task", name)
		}
	}
	if !async {
		run(ctx)
		return
	}
	go run(context.WithoutCancel(ctx))
}

// canonicalPhone stores Senegal numbers as their 9 national digits.
func canonicalPhone(phone string) string {
	p := validator.NormalizePhone(phone)
	p = strings.TrimPrefix(p, "+221")
	p = strings.TrimPrefix(p, "00221")
	return p
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func strPtr(s string) *string {
	return &s
}

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID string
	Role   models.UserRole
}

func (a Actor) IsAdmin() bool {
	return a.Role == models.UserRoleAdmin
}

// CanModify applies the owner-or-admin rule.
func (a Actor) CanModify(ownerID string) bool {
	return auth.CanModify(ownerID, a.UserID, string(a.Role))
}
