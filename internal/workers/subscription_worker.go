package workers

import (
	"context"
	"time"

	"gorm.io/gorm"

	"businessconnect_backend/internal/logger"
	"businessconnect_backend/internal/repositories"
	"businessconnect_backend/internal/services"
	"businessconnect_backend/internal/services/dto"
)

// SubscriptionWorker expires ended subscriptions, sends reminders and purges
// expired refresh tokens.
type SubscriptionWorker struct {
	db                  *gorm.DB
	subscriptionService services.SubscriptionService
	refreshTokenRepo    repositories.RefreshTokenRepository
}

func NewSubscriptionWorker(db *gorm.DB, subscriptionService services.SubscriptionService, refreshTokenRepo repositories.RefreshTokenRepository) *SubscriptionWorker {
	return &SubscriptionWorker{
		db:                  db,
		subscriptionService: subscriptionService,
		refreshTokenRepo:    refreshTokenRepo,
	}
}

func (w *SubscriptionWorker) Name() string { return "subscriptions" }

func (w *SubscriptionWorker) ExpireDue(ctx context.Context) (*dto.ExpiryResult, error) {
	result, err := w.subscriptionService.ExpireDue(ctx, w.db.WithContext(ctx))
	if result == nil {
		result = &dto.ExpiryResult{}
	}
	logger.WorkerLog(w.Name(), "expire_due", err, "expired", result.Expired, "reminders", result.Reminders)
	return result, err
}

func (w *SubscriptionWorker) PurgeRefreshTokens(ctx context.Context) (int64, error) {
	deleted, err := w.refreshTokenRepo.DeleteExpired(w.db.WithContext(ctx), time.Now().UTC())
	logger.WorkerLog(w.Name(), "purge_refresh_tokens", err, "deleted", deleted)
	return deleted, err
}
