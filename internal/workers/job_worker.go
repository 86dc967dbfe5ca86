package workers

import (
	"context"
	"time"

	"gorm.io/gorm"

	"businessconnect_backend/internal/logger"
	"businessconnect_backend/internal/repositories"
)

// JobWorker closes job offers once their deadline has passed.
type JobWorker struct {
	db      *gorm.DB
	jobRepo repositories.JobRepository
	now     func() time.Time
}

func NewJobWorker(db *gorm.DB, jobRepo repositories.JobRepository) *JobWorker {
	return &JobWorker{
		db:      db,
		jobRepo: jobRepo,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (w *JobWorker) Name() string { return "jobs" }

func (w *JobWorker) CloseExpired(ctx context.Context) (int64, error) {
	closed, err := w.jobRepo.CloseExpired(w.db.WithContext(ctx), w.now())
	logger.WorkerLog(w.Name(), "close_expired", err, "closed", closed)
	return closed, err
}
