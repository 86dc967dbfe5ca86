package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"businessconnect_backend/internal/events"
	"businessconnect_backend/internal/models"
	"businessconnect_backend/internal/repositories"
	"businessconnect_backend/internal/services/dto"
	"businessconnect_backend/internal/testhelpers"
	"businessconnect_backend/pkg/apperrors"
)

type mockJobRepository struct {
	mock.Mock
}

func (m *mockJobRepository) Create(db *gorm.DB, job *models.Job) error {
	args := m.Called(db, job)
	if job.ID == "" {
		job.ID = "job-new"
	}
	return args.Error(0)
}

func (m *mockJobRepository) FindByID(db *gorm.DB, id string) (*models.Job, error) {
	args := m.Called(db, id)
	if job, ok := args.Get(0).(*models.Job); ok {
		cp := *job
		return &cp, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockJobRepository) Update(db *gorm.DB, job *models.Job) error {
	return m.Called(db, job).Error(0)
}

func (m *mockJobRepository) Delete(db *gorm.DB, id string) error {
	return m.Called(db, id).Error(0)
}

func (m *mockJobRepository) FindWithFilter(db *gorm.DB, filter repositories.JobFilter) ([]models.Job, int64, error) {
	args := m.Called(db, filter)
	jobs, _ := args.Get(0).([]models.Job)
	return jobs, args.Get(1).(int64), args.Error(2)
}

func (m *mockJobRepository) IncrementViews(db *gorm.DB, id string) error {
	return m.Called(db, id).Error(0)
}

func (m *mockJobRepository) CloseExpired(db *gorm.DB, now time.Time) (int64, error) {
	args := m.Called(db, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockJobRepository) CreateApplication(db *gorm.DB, app *models.JobApplication) error {
	return m.Called(db, app).Error(0)
}

func (m *mockJobRepository) FindApplicationByID(db *gorm.DB, id string) (*models.JobApplication, error) {
	args := m.Called(db, id)
	if app, ok := args.Get(0).(*models.JobApplication); ok {
		cp := *app
		return &cp, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockJobRepository) HasApplied(db *gorm.DB, jobID, userID string) (bool, error) {
	args := m.Called(db, jobID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *mockJobRepository) FindApplicationsByJob(db *gorm.DB, jobID string) ([]models.JobApplication, error) {
	args := m.Called(db, jobID)
	apps, _ := args.Get(0).([]models.JobApplication)
	return apps, args.Error(1)
}

func (m *mockJobRepository) FindApplicationsByUser(db *gorm.DB, userID string) ([]models.JobApplication, error) {
	args := m.Called(db, userID)
	apps, _ := args.Get(0).([]models.JobApplication)
	return apps, args.Error(1)
}

func (m *mockJobRepository) UpdateApplicationStatus(db *gorm.DB, id string, status models.ApplicationStatus) error {
	return m.Called(db, id, status).Error(0)
}

type mockNotificationService struct {
	mock.Mock
}

func (m *mockNotificationService) Notify(ctx context.Context, db *gorm.DB, notice Notice) (*models.Notification, error) {
	args := m.Called(ctx, db, notice)
	n, _ := args.Get(0).(*models.Notification)
	return n, args.Error(1)
}

func (m *mockNotificationService) List(db *gorm.DB, userID string, req *dto.NotificationListRequest) (*dto.ListResponse[models.Notification], error) {
	panic("not used")
}

func (m *mockNotificationService) UnreadCount(db *gorm.DB, userID string) (int64, error) {
	panic("not used")
}

func (m *mockNotificationService) MarkAsRead(db *gorm.DB, userID, notificationID string) error {
	panic("not used")
}

func (m *mockNotificationService) MarkAllAsRead(db *gorm.DB, userID string) (int64, error) {
	panic("not used")
}

func (m *mockNotificationService) Delete(db *gorm.DB, userID, notificationID string) error {
	panic("not used")
}

func newJobServiceWithMocks(t *testing.T) (JobService, *mockJobRepository, *mockNotificationService, *recordingPublisher, *gorm.DB) {
	t.Helper()
	repo := &mockJobRepository{}
	notifications := &mockNotificationService{}
	publisher := &recordingPublisher{}
	db := testhelpers.NewTestDB(t)
	svc := NewJobService(repo, repositories.NewUserRepository(), notifications, publisher)
	return svc, repo, notifications, publisher, db
}

func TestJobService_CreateJob(t *testing.T) {
	svc, repo, _, publisher, db := newJobServiceWithMocks(t)
	ctx := context.Background()
	req := &dto.CreateJobRequest{
		Title:       "  Comptable senior ",
		Company:     "Banque de Dakar",
		Type:        models.JobTypeFullTime,
		Description: "Tenue de la comptabilité générale.",
	}

	_, err := svc.CreateJob(ctx, db, Actor{UserID: "u1", Role: models.UserRoleEtudiant}, req)
	assert.ErrorIs(t, err, apperrors.ErrInsufficientPermissions)

	past := time.Now().Add(-time.Hour)
	req.Deadline = &past
	_, err = svc.CreateJob(ctx, db, Actor{UserID: "r1", Role: models.UserRoleRecruteur}, req)
	require.Error(t, err)
	req.Deadline = nil

	repo.On("Create", db, mock.MatchedBy(func(j *models.Job) bool {
		return j.Title == "Comptable senior" && j.CreatedBy == "r1" && j.IsActive
	})).Return(nil).Once()

	job, err := svc.CreateJob(ctx, db, Actor{UserID: "r1", Role: models.UserRoleRecruteur}, req)
	require.NoError(t, err)
	assert.NotNil(t, job.Requirements)
	assert.Equal(t, []string{events.SubjectJobCreated}, publisher.published())
	repo.AssertExpectations(t)
}

func TestJobService_UpdateJobOwnership(t *testing.T) {
	svc, repo, _, _, db := newJobServiceWithMocks(t)
	ctx := context.Background()
	existing := &models.Job{BaseModel: models.BaseModel{ID: "job-1"}, Title: "Chauffeur", CreatedBy: "owner", IsActive: true}
	repo.On("FindByID", db, "job-1").Return(existing, nil)
	repo.On("FindByID", db, "missing").Return(nil, repositories.ErrJobNotFound)

	title := "Chauffeur livreur"
	_, err := svc.UpdateJob(ctx, db, Actor{UserID: "intruder", Role: models.UserRoleRecruteur}, "job-1", &dto.UpdateJobRequest{Title: &title})
	assert.ErrorIs(t, err, apperrors.ErrInsufficientPermissions)

	_, err = svc.UpdateJob(ctx, db, Actor{UserID: "owner", Role: models.UserRoleRecruteur}, "missing", &dto.UpdateJobRequest{Title: &title})
	assert.ErrorIs(t, err, apperrors.ErrJobNotFound)

	repo.On("Update", db, mock.AnythingOfType("*models.Job")).Return(nil).Twice()
	job, err := svc.UpdateJob(ctx, db, Actor{UserID: "owner", Role: models.UserRoleRecruteur}, "job-1", &dto.UpdateJobRequest{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Chauffeur livreur", job.Title)

	closed := false
	job, err = svc.UpdateJob(ctx, db, Actor{UserID: "admin", Role: models.UserRoleAdmin}, "job-1", &dto.UpdateJobRequest{IsActive: &closed})
	require.NoError(t, err, "admins can edit any job")
	assert.False(t, job.IsActive)
	repo.AssertExpectations(t)
}

func TestJobService_Apply(t *testing.T) {
	svc, repo, notifications, publisher, db := newJobServiceWithMocks(t)
	ctx := context.Background()
	candidate := testhelpers.CreateUser(t, db, &models.User{FirstName: "Moussa", LastName: "Ndiaye"})

	open := &models.Job{BaseModel: models.BaseModel{ID: "open"}, Title: "Stagiaire marketing", CreatedBy: "recruiter", IsActive: true}
	yesterday := time.Now().Add(-24 * time.Hour)
	expired := &models.Job{BaseModel: models.BaseModel{ID: "expired"}, CreatedBy: "recruiter", IsActive: true, Deadline: &yesterday}
	repo.On("FindByID", db, "open").Return(open, nil)
	repo.On("FindByID", db, "expired").Return(expired, nil)

	req := &dto.ApplyJobRequest{CoverLetter: "Je suis très motivé par ce poste."}

	_, err := svc.Apply(ctx, db, Actor{UserID: candidate.ID}, "expired", req)
	assert.ErrorIs(t, err, apperrors.ErrJobClosed)

	_, err = svc.Apply(ctx, db, Actor{UserID: "recruiter"}, "open", req)
	assert.ErrorIs(t, err, apperrors.ErrCannotApplyOwnJob)

	repo.On("CreateApplication", db, mock.AnythingOfType("*models.JobApplication")).Return(nil).Once()
	notifications.On("Notify", ctx, db, mock.MatchedBy(func(n Notice) bool {
		return n.UserID == "recruiter" && n.Type == models.NotificationJobApplication &&
			n.Message == "Moussa Ndiaye a postulé à votre offre « Stagiaire marketing »."
	})).Return(&models.Notification{}, nil).Once()

	app, err := svc.Apply(ctx, db, Actor{UserID: candidate.ID}, "open", req)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusPending, app.Status)
	assert.Contains(t, publisher.published(), events.SubjectJobApplicationCreated)

	repo.On("CreateApplication", db, mock.AnythingOfType("*models.JobApplication")).Return(repositories.ErrAlreadyApplied).Once()
	_, err = svc.Apply(ctx, db, Actor{UserID: candidate.ID}, "open", req)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyApplied)

	repo.AssertExpectations(t)
	notifications.AssertExpectations(t)
}

func TestJobService_UpdateApplicationStatus(t *testing.T) {
	svc, repo, notifications, _, db := newJobServiceWithMocks(t)
	ctx := context.Background()
	job := &models.Job{BaseModel: models.BaseModel{ID: "job-1"}, Title: "Caissier", CreatedBy: "recruiter", IsActive: true}
	app := &models.JobApplication{BaseModel: models.BaseModel{ID: "app-1"}, JobID: "job-1", UserID: "candidate", Status: models.ApplicationStatusPending}
	other := &models.JobApplication{BaseModel: models.BaseModel{ID: "app-2"}, JobID: "job-9", UserID: "candidate"}
	repo.On("FindByID", db, "job-1").Return(job, nil)
	repo.On("FindApplicationByID", db, "app-1").Return(app, nil)
	repo.On("FindApplicationByID", db, "app-2").Return(other, nil)

	recruiter := Actor{UserID: "recruiter", Role: models.UserRoleRecruteur}

	_, err := svc.UpdateApplicationStatus(ctx, db, recruiter, "job-1", "app-1", "hired")
	require.Error(t, err)

	_, err = svc.UpdateApplicationStatus(ctx, db, Actor{UserID: "candidate"}, "job-1", "app-1", models.ApplicationStatusAccepted)
	assert.ErrorIs(t, err, apperrors.ErrInsufficientPermissions)

	_, err = svc.UpdateApplicationStatus(ctx, db, recruiter, "job-1", "app-2", models.ApplicationStatusAccepted)
	assert.ErrorIs(t, err, apperrors.ErrApplicationNotFound)

	same, err := svc.UpdateApplicationStatus(ctx, db, recruiter, "job-1", "app-1", models.ApplicationStatusPending)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusPending, same.Status)

	repo.On("UpdateApplicationStatus", db, "app-1", models.ApplicationStatusAccepted).Return(nil).Once()
	notifications.On("Notify", ctx, db, mock.MatchedBy(func(n Notice) bool {
		return n.UserID == "candidate" && n.Type == models.NotificationApplicationStatus
	})).Return(nil, apperrors.ErrUserNotFound).Once()

	updated, err := svc.UpdateApplicationStatus(ctx, db, recruiter, "job-1", "app-1", models.ApplicationStatusAccepted)
	require.NoError(t, err, "a failed notification does not fail the update")
	assert.Equal(t, models.ApplicationStatusAccepted, updated.Status)

	repo.AssertExpectations(t)
	notifications.AssertExpectations(t)
}

func TestJobService_GetJobCountsViews(t *testing.T) {
	svc, repo, _, _, db := newJobServiceWithMocks(t)
	repo.On("FindByID", db, "job-1").Return(&models.Job{BaseModel: models.BaseModel{ID: "job-1"}, Views: 4}, nil)
	repo.On("IncrementViews", db, "job-1").Return(nil)

	job, err := svc.GetJob(context.Background(), db, "job-1")
	require.NoError(t, err)
	assert.Equal(t, 5, job.Views)
}
