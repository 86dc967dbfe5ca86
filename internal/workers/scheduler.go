package workers

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"businessconnect_backend/internal/logger"
)

const (
	jobTimeout          = 5 * time.Minute
	refreshTokenCleanup = "@daily"
	jobClosing          = "@every 1h"
)

// Scheduler runs the periodic jobs on a cron. Overlapping runs of the same
// job are skipped.
type Scheduler struct {
	cron *cron.Cron
	ctx  context.Context
}

func NewScheduler(ctx context.Context) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(cron.DefaultLogger),
			cron.SkipIfStillRunning(cron.DefaultLogger),
		)),
		ctx: ctx,
	}
}

// Add registers fn under spec ("@every 1h", "0 3 * * *", ...).
func (s *Scheduler) Add(name, spec string, fn func(ctx context.Context) error) error {
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(s.ctx, jobTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			logger.Warn("Scheduled job failed", "job", name, "error", err.Error())
		}
	})
	if err != nil {
		return err
	}
	logger.Info("Scheduled job registered", "job", name, "spec", spec)
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop waits for running jobs to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		logger.Warn("Scheduler stop timed out")
	}
}

// RegisterDefaults wires the application workers.
func RegisterDefaults(s *Scheduler, subs *SubscriptionWorker, jobs *JobWorker, expirySpec string) error {
	if expirySpec == "" {
		expirySpec = "@every 1h"
	}
	if err := s.Add("subscription_expiry", expirySpec, func(ctx context.Context) error {
		_, err := subs.ExpireDue(ctx)
		return err
	}); err != nil {
		return err
	}
	if err := s.Add("refresh_token_cleanup", refreshTokenCleanup, func(ctx context.Context) error {
		_, err := subs.PurgeRefreshTokens(ctx)
		return err
	}); err != nil {
		return err
	}
	return s.Add("job_closing", jobClosing, func(ctx context.Context) error {
		_, err := jobs.CloseExpired(ctx)
		return err
	})
}
