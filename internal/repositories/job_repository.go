package repositories

import (
	"time"

	"gorm.io/gorm"

	"businessconnect_backend/internal/models"
)

type JobRepository interface {
	// Jobs
	Create(db *gorm.DB, job *models.Job) error
	FindByID(db *gorm.DB, id string) (*models.Job, error)
	Update(db *gorm.DB, job *models.Job) error
	Delete(db *gorm.DB, id string) error
	FindWithFilter(db *gorm.DB, filter JobFilter) ([]models.Job, int64, error)
	IncrementViews(db *gorm.DB, id string) error
	// CloseExpired deactivates active jobs whose deadline has passed.
	CloseExpired(db *gorm.DB, now time.Time) (int64, error)

	// Applications
	CreateApplication(db *gorm.DB, app *models.JobApplication) error
	FindApplicationByID(db *gorm.DB, id string) (*models.JobApplication, error)
	HasApplied(db *gorm.DB, jobID, userID string) (bool, error)
	FindApplicationsByJob(db *gorm.DB, jobID string) ([]models.JobApplication, error)
	FindApplicationsByUser(db *gorm.DB, userID string) ([]models.JobApplication, error)
	UpdateApplicationStatus(db *gorm.DB, id string, status models.ApplicationStatus) error
}

type JobFilter struct {
	Search    string
	Type      models.JobType
	Sector    string
	Location  string
	CreatedBy string
	// ActiveOnly hides closed jobs and jobs past their deadline.
	ActiveOnly bool
	Now        time.Time
	Page       int
	PageSize   int
}

type JobRepositoryImpl struct{}

func NewJobRepository() JobRepository {
	return &JobRepositoryImpl{}
}

// =======================
// Jobs
// =======================

func (r *JobRepositoryImpl) Create(db *gorm.DB, job *models.Job) error {
	return db.Create(job).Error
}

func (r *JobRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.Job, error) {
	var job models.Job
	if err := db.First(&job, "id = ?", id).Error; err != nil {
		return nil, notFound(err, ErrJobNotFound)
	}
	return &job, nil
}

func (r *JobRepositoryImpl) Update(db *gorm.DB, job *models.Job) error {
	return db.Omit("Applications").Save(job).Error
}

func (r *JobRepositoryImpl) Delete(db *gorm.DB, id string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("job_id = ?", id).Delete(&models.JobApplication{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&models.Job{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrJobNotFound
		}
		return nil
	})
}

func (r *JobRepositoryImpl) FindWithFilter(db *gorm.DB, filter JobFilter) ([]models.Job, int64, error) {
	query := db.Model(&models.Job{})

	if filter.ActiveOnly {
		now := filter.Now
		if now.IsZero() {
			now = time.Now()
		}
		query = query.Where("is_active = ?", true).Where("(deadline IS NULL OR deadline > ?)", now)
	}
	if filter.Search != "" {
		p := containsPattern(filter.Search)
		query = query.Where(
			"(LOWER(title) LIKE ?"+likeEscape+" OR LOWER(company) LIKE ?"+likeEscape+" OR LOWER(description) LIKE ?"+likeEscape+")",
			p, p, p,
		)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Sector != "" {
		query = query.Where("LOWER(sector) = ?", lower(filter.Sector))
	}
	if filter.Location != "" {
		query = query.Where("LOWER(location) LIKE ?"+likeEscape, containsPattern(filter.Location))
	}
	if filter.CreatedBy != "" {
		query = query.Where("created_by = ?", filter.CreatedBy)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var jobs []models.Job
	err := query.Order("created_at DESC").
		Limit(filter.PageSize).
		Offset(models.Offset(filter.Page, filter.PageSize)).
		Find(&jobs).Error
	return jobs, total, err
}

func (r *JobRepositoryImpl) IncrementViews(db *gorm.DB, id string) error {
	return db.Model(&models.Job{}).Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1)).Error
}

// =======================
// Applications
// =======================

func (r *JobRepositoryImpl) CreateApplication(db *gorm.DB, app *models.JobApplication) error {
	if err := db.Omit("Applicant", "Job").Create(app).Error; err != nil {
		if isDuplicateKey(err) {
			return ErrAlreadyApplied
		}
		return err
	}
	return nil
}

func (r *JobRepositoryImpl) FindApplicationByID(db *gorm.DB, id string) (*models.JobApplication, error) {
	var app models.JobApplication
	if err := db.Preload("Applicant").First(&app, "id = ?", id).Error; err != nil {
		return nil, notFound(err, ErrApplicationNotFound)
	}
	return &app, nil
}

func (r *JobRepositoryImpl) HasApplied(db *gorm.DB, jobID, userID string) (bool, error) {
	var count int64
	err := db.Model(&models.JobApplication{}).
		Where("job_id = ? AND user_id = ?", jobID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *JobRepositoryImpl) FindApplicationsByJob(db *gorm.DB, jobID string) ([]models.JobApplication, error) {
	var apps []models.JobApplication
	err := db.Preload("Applicant").
		Where("job_id = ?", jobID).
		Order("created_at DESC").
		Find(&apps).Error
	return apps, err
}

func (r *JobRepositoryImpl) FindApplicationsByUser(db *gorm.DB, userID string) ([]models.JobApplication, error) {
	var apps []models.JobApplication
	err := db.Preload("Job").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&apps).Error
	return apps, err
}

func (r *JobRepositoryImpl) UpdateApplicationStatus(db *gorm.DB, id string, status models.ApplicationStatus) error {
	result := db.Model(&models.JobApplication{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrApplicationNotFound
	}
	return nil
}

func (r *JobRepositoryImpl) CloseExpired(db *gorm.DB, now time.Time) (int64, error) {
	result := db.Model(&models.Job{}).
		Where("is_active = ? AND deadline IS NOT NULL AND deadline < ?", true, now).
		Update("is_active", false)
	return result.RowsAffected, result.Error
}
