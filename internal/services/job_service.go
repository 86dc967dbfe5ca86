package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"businessconnect_backend/internal/events"
	"businessconnect_backend/internal/logger"
	"businessconnect_backend/internal/models"
	"businessconnect_backend/internal/repositories"
	"businessconnect_backend/internal/services/dto"
	"businessconnect_backend/pkg/apperrors"
)

type JobService interface {
	ListJobs(db *gorm.DB, req *dto.JobSearchRequest) (*dto.ListResponse[models.Job], error)
	GetJob(ctx context.Context, db *gorm.DB, jobID string) (*models.Job, error)
	CreateJob(ctx context.Context, db *gorm.DB, actor Actor, req *dto.CreateJobRequest) (*models.Job, error)
	UpdateJob(ctx context.Context, db *gorm.DB, actor Actor, jobID string, req *dto.UpdateJobRequest) (*models.Job, error)
	DeleteJob(ctx context.Context, db *gorm.DB, actor Actor, jobID string) error
	MyJobs(db *gorm.DB, actor Actor, page dto.PageRequest) (*dto.ListResponse[models.Job], error)

	Apply(ctx context.Context, db *gorm.DB, actor Actor, jobID string, req *dto.ApplyJobRequest) (*models.JobApplication, error)
	ListApplications(db *gorm.DB, actor Actor, jobID string) ([]models.JobApplication, error)
	UpdateApplicationStatus(ctx context.Context, db *gorm.DB, actor Actor, jobID, applicationID string, status models.ApplicationStatus) (*models.JobApplication, error)
	MyApplications(db *gorm.DB, actor Actor) ([]models.JobApplication, error)
}

type JobServiceImpl struct {
	jobRepo       repositories.JobRepository
	userRepo      repositories.UserRepository
	notifications NotificationService
	publisher     events.Publisher
}

func NewJobService(
	jobRepo repositories.JobRepository,
	userRepo repositories.UserRepository,
	notifications NotificationService,
	publisher events.Publisher,
) JobService {
	return &JobServiceImpl{
		jobRepo:       jobRepo,
		userRepo:      userRepo,
		notifications: notifications,
		publisher:     publisher,
	}
}

// ---------------- Jobs ----------------

func (s *JobServiceImpl) ListJobs(db *gorm.DB, req *dto.JobSearchRequest) (*dto.ListResponse[models.Job], error) {
	req.Normalize()
	jobs, total, err := s.jobRepo.FindWithFilter(db, repositories.JobFilter{
		Search:     req.Search,
		Type:       req.Type,
		Sector:     req.Sector,
		Location:   req.Location,
		ActiveOnly: true,
		Now:        time.Now().UTC(),
		Page:       req.Page,
		PageSize:   req.PageSize,
	})
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return dto.NewListResponse(jobs, req.Page, req.PageSize, total), nil
}

func (s *JobServiceImpl) GetJob(ctx context.Context, db *gorm.DB, jobID string) (*models.Job, error) {
	job, err := s.findJob(db, jobID)
	if err != nil {
		return nil, err
	}
	if err := s.jobRepo.IncrementViews(db, jobID); err != nil {
		logger.CtxWithError(ctx, "Failed to increment job views", err, "job_id", jobID)
	} else {
		job.Views++
	}
	return job, nil
}

func (s *JobServiceImpl) CreateJob(ctx context.Context, db *gorm.DB, actor Actor, req *dto.CreateJobRequest) (*models.Job, error) {
	if !actor.Role.CanPostJobs() {
		return nil, apperrors.ErrInsufficientPermissions
	}
	if req.Deadline != nil && req.Deadline.Before(time.Now()) {
		return nil, apperrors.ValidationError(map[string]string{"deadline": "Deadline must be in the future"})
	}

	job := &models.Job{
		Title:        strings.TrimSpace(req.Title),
		Company:      strings.TrimSpace(req.Company),
		Location:     req.Location,
		Type:         req.Type,
		Sector:       req.Sector,
		Description:  req.Description,
		Requirements: datatypes.JSONSlice[string](nonNilStrings(req.Requirements)),
		Salary:       req.Salary,
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
		Deadline:     utcPtr(req.Deadline),
		IsActive:     true,
		CreatedBy:    actor.UserID,
	}
	if err := s.jobRepo.Create(db, job); err != nil {
		return nil, apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "Job created", "job_id", job.ID)
	events.Emit(ctx, s.publisher, events.SubjectJobCreated, map[string]interface{}{
		"jobId":     job.ID,
		"title":     job.Title,
		"sector":    job.Sector,
		"createdBy": job.CreatedBy,
	})
	return job, nil
}

func (s *JobServiceImpl) UpdateJob(ctx context.Context, db *gorm.DB, actor Actor, jobID string, req *dto.UpdateJobRequest) (*models.Job, error) {
	job, err := s.findJob(db, jobID)
	if err != nil {
		return nil, err
	}
	if !actor.CanModify(job.CreatedBy) {
		return nil, apperrors.ErrInsufficientPermissions
	}

	if req.Title != nil {
		job.Title = strings.TrimSpace(*req.Title)
	}
	if req.Company != nil {
		job.Company = strings.TrimSpace(*req.Company)
	}
	if req.Location != nil {
		job.Location = *req.Location
	}
	if req.Type != nil {
		job.Type = *req.Type
	}
	if req.Sector != nil {
		job.Sector = *req.Sector
	}
	if req.Description != nil {
		job.Description = *req.Description
	}
	if req.Requirements != nil {
		job.Requirements = datatypes.JSONSlice[string](req.Requirements)
	}
	if req.Salary != nil {
		job.Salary = *req.Salary
	}
	if req.ContactEmail != nil {
		job.ContactEmail = *req.ContactEmail
	}
	if req.ContactPhone != nil {
		job.ContactPhone = *req.ContactPhone
	}
	if req.Deadline != nil {
		job.Deadline = utcPtr(req.Deadline)
	}
	if req.IsActive != nil {
		job.IsActive = *req.IsActive
	}

	if err := s.jobRepo.Update(db, job); err != nil {
		return nil, apperrors.InternalError(err)
	}
	logger.CtxInfo(ctx, "Job updated", "job_id", job.ID)
	return job, nil
}

func (s *JobServiceImpl) DeleteJob(ctx context.Context, db *gorm.DB, actor Actor, jobID string) error {
	job, err := s.findJob(db, jobID)
	if err != nil {
		return err
	}
	if !actor.CanModify(job.CreatedBy) {
		return apperrors.ErrInsufficientPermissions
	}
	if err := s.jobRepo.Delete(db, jobID); err != nil {
		return handleJobError(err)
	}
	logger.CtxInfo(ctx, "Job deleted", "job_id", jobID)
	return nil
}

func (s *JobServiceImpl) MyJobs(db *gorm.DB, actor Actor, page dto.PageRequest) (*dto.ListResponse[models.Job], error) {
	page.Normalize()
	jobs, total, err := s.jobRepo.FindWithFilter(db, repositories.JobFilter{
		CreatedBy: actor.UserID,
		Page:      page.Page,
		PageSize:  page.PageSize,
	})
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return dto.NewListResponse(jobs, page.Page, page.PageSize, total), nil
}

// ---------------- Applications ----------------

func (s *JobServiceImpl) Apply(ctx context.Context, db *gorm.DB, actor Actor, jobID string, req *dto.ApplyJobRequest) (*models.JobApplication, error) {
	job, err := s.findJob(db, jobID)
	if err != nil {
		return nil, err
	}
	if !job.AcceptsApplications(time.Now()) {
		return nil, apperrors.ErrJobClosed
	}
	if job.CreatedBy == actor.UserID {
		return nil, apperrors.ErrCannotApplyOwnJob
	}

	app := &models.JobApplication{
		JobID:       jobID,
		UserID:      actor.UserID,
		CoverLetter: req.CoverLetter,
		ResumeURL:   req.ResumeURL,
		Status:      models.ApplicationStatusPending,
	}
	if err := s.jobRepo.CreateApplication(db, app); err != nil {
		if errors.Is(err, repositories.ErrAlreadyApplied) {
			return nil, apperrors.ErrAlreadyApplied
		}
		return nil, apperrors.InternalError(err)
	}

	applicant := "Un candidat"
	if u, err := s.userRepo.FindByID(db, actor.UserID); err == nil {
		applicant = u.FullName()
	}
	s.notify(ctx, db, Notice{
		UserID:  job.CreatedBy,
		Type:    models.NotificationJobApplication,
		Title:   "Nouvelle candidature",
		Message: fmt.Sprintf("%s a postulé à votre offre « %s ».", applicant, job.Title),
		Data:    map[string]interface{}{"jobId": job.ID, "applicationId": app.ID},
		Link:    "/jobs/" + job.ID + "/applications",
	})
	events.Emit(ctx, s.publisher, events.SubjectJobApplicationCreated, map[string]interface{}{
		"jobId":         job.ID,
		"applicationId": app.ID,
		"userId":        actor.UserID,
	})

	return app, nil
}

func (s *JobServiceImpl) ListApplications(db *gorm.DB, actor Actor, jobID string) ([]models.JobApplication, error) {
	job, err := s.findJob(db, jobID)
	if err != nil {
		return nil, err
	}
	if !actor.CanModify(job.CreatedBy) {
		return nil, apperrors.ErrInsufficientPermissions
	}

	apps, err := s.jobRepo.FindApplicationsByJob(db, jobID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return apps, nil
}

func (s *JobServiceImpl) UpdateApplicationStatus(ctx context.Context, db *gorm.DB, actor Actor, jobID, applicationID string, status models.ApplicationStatus) (*models.JobApplication, error) {
	if !status.IsValid() {
		return nil, apperrors.ErrInvalidStatus("job", "Unknown application status")
	}

	job, err := s.findJob(db, jobID)
	if err != nil {
		return nil, err
	}
	if !actor.CanModify(job.CreatedBy) {
		return nil, apperrors.ErrInsufficientPermissions
	}

	app, err := s.jobRepo.FindApplicationByID(db, applicationID)
	if err != nil {
		return nil, handleJobError(err)
	}
	if app.JobID != jobID {
		return nil, apperrors.ErrApplicationNotFound
	}
	if app.Status == status {
		return app, nil
	}

	if err := s.jobRepo.UpdateApplicationStatus(db, applicationID, status); err != nil {
		return nil, handleJobError(err)
	}
	app.Status = status

	s.notify(ctx, db, Notice{
		UserID:  app.UserID,
		Type:    models.NotificationApplicationStatus,
		Title:   "Mise à jour de votre candidature",
		Message: fmt.Sprintf("Votre candidature pour « %s » est maintenant : %s.", job.Title, applicationStatusLabel(status)),
		Data:    map[string]interface{}{"jobId": job.ID, "applicationId": app.ID, "status": status},
		Link:    "/applications",
	})
	return app, nil
}

func (s *JobServiceImpl) MyApplications(db *gorm.DB, actor Actor) ([]models.JobApplication, error) {
	apps, err := s.jobRepo.FindApplicationsByUser(db, actor.UserID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return apps, nil
}

// ---------------- helpers ----------------

func (s *JobServiceImpl) findJob(db *gorm.DB, jobID string) (*models.Job, error) {
	job, err := s.jobRepo.FindByID(db, jobID)
	if err != nil {
		return nil, handleJobError(err)
	}
	return job, nil
}

// notify never fails the calling operation.
func (s *JobServiceImpl) notify(ctx context.Context, db *gorm.DB, notice Notice) {
	if s.notifications == nil {
		return
	}
	if _, err := s.notifications.Notify(ctx, db, notice); err != nil {
		logger.CtxWithError(ctx, "Failed to notify user", err, "recipient", notice.UserID, "type", notice.Type)
	}
}

func handleJobError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrJobNotFound):
		return apperrors.ErrJobNotFound
	case errors.Is(err, repositories.ErrApplicationNotFound):
		return apperrors.ErrApplicationNotFound
	}
	return apperrors.InternalError(err)
}

func applicationStatusLabel(status models.ApplicationStatus) string {
	switch status {
	case models.ApplicationStatusReviewed:
		return "examinée"
	case models.ApplicationStatusAccepted:
		return "acceptée"
	case models.ApplicationStatusRejected:
		return "refusée"
	}
	return "en attente"
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
