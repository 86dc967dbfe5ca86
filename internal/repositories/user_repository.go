package repositories

import (
	"time"

	"gorm.io/gorm"

	"businessconnect_backend/internal/models"
)

type UserRepository interface {
	Create(db *gorm.DB, user *models.User) error
	FindByID(db *gorm.DB, id string) (*models.User, error)
	FindByEmail(db *gorm.DB, email string) (*models.User, error)
	FindByPhone(db *gorm.DB, phone string) (*models.User, error)
	FindByVerificationToken(db *gorm.DB, token string) (*models.User, error)
	FindByResetToken(db *gorm.DB, tokenHash string) (*models.User, error)
	Update(db *gorm.DB, user *models.User) error
	UpdateFields(db *gorm.DB, userID string, fields map[string]interface{}) error
	UpdateLastLogin(db *gorm.DB, userID string, at time.Time) error
	// IncrementResetAttempts records a failed reset attempt and returns the new count.
	IncrementResetAttempts(db *gorm.DB, userID string) (int, error)
	FindWithFilter(db *gorm.DB, filter UserFilter) ([]models.User, int64, error)
	CountByRole(db *gorm.DB, role models.UserRole) (int64, error)
	Delete(db *gorm.DB, userID string) error
}

type UserFilter struct {
	Role     models.UserRole
	Status   models.UserStatus
	Search   string
	Page     int
	PageSize int
}

type UserRepositoryImpl struct{}

func NewUserRepository() UserRepository {
	return &UserRepositoryImpl{}
}

func (r *UserRepositoryImpl) Create(db *gorm.DB, user *models.User) error {
	if err := db.Create(user).Error; err != nil {
		if isDuplicateKey(err) {
			return ErrUserAlreadyExists
		}
		return err
	}
	return nil
}

func (r *UserRepositoryImpl) findOne(db *gorm.DB, query string, arg interface{}) (*models.User, error) {
	var user models.User
	if err := db.Where(query, arg).First(&user).Error; err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return &user, nil
}

func (r *UserRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.User, error) {
	return r.findOne(db, "id = ?", id)
}

func (r *UserRepositoryImpl) FindByEmail(db *gorm.DB, email string) (*models.User, error) {
	return r.findOne(db, "email = ?", email)
}

func (r *UserRepositoryImpl) FindByPhone(db *gorm.DB, phone string) (*models.User, error) {
	return r.findOne(db, "phone = ?", phone)
}

func (r *UserRepositoryImpl) FindByVerificationToken(db *gorm.DB, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrUserNotFound
	}
	return r.findOne(db, "verification_token = ?", token)
}

func (r *UserRepositoryImpl) FindByResetToken(db *gorm.DB, tokenHash string) (*models.User, error) {
	if tokenHash == "" {
		return nil, ErrUserNotFound
	}
	return r.findOne(db, "reset_token = ?", tokenHash)
}

func (r *UserRepositoryImpl) Update(db *gorm.DB, user *models.User) error {
	if err := db.Save(user).Error; err != nil {
		if isDuplicateKey(err) {
			return ErrUserAlreadyExists
		}
		return err
	}
	return nil
}

func (r *UserRepositoryImpl) UpdateFields(db *gorm.DB, userID string, fields map[string]interface{}) error {
	result := db.Model(&models.User{}).Where("id = ?", userID).Updates(fields)
	if result.Error != nil {
		if isDuplicateKey(result.Error) {
			return ErrUserAlreadyExists
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepositoryImpl) UpdateLastLogin(db *gorm.DB, userID string, at time.Time) error {
	return db.Model(&models.User{}).Where("id = ?", userID).UpdateColumn("last_login_at", at).Error
}

func (r *UserRepositoryImpl) IncrementResetAttempts(db *gorm.DB, userID string) (int, error) {
	result := db.Model(&models.User{}).Where("id = ?", userID).
		UpdateColumn("reset_attempts", gorm.Expr("reset_attempts + ?", 1))
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, ErrUserNotFound
	}
	var attempts int
	if err := db.Model(&models.User{}).Where("id = ?", userID).Pluck("reset_attempts", &attempts).Error; err != nil {
		return 0, err
	}
	return attempts, nil
}

func (r *UserRepositoryImpl) FindWithFilter(db *gorm.DB, filter UserFilter) ([]models.User, int64, error) {
	query := db.Model(&models.User{})

	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Search != "" {
		p := containsPattern(filter.Search)
		query = query.Where(
			"(LOWER(first_name) LIKE ?"+likeEscape+" OR LOWER(last_name) LIKE ?"+likeEscape+" OR LOWER(email) LIKE ?"+likeEscape+")",
			p, p, p,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	err := query.Order("created_at DESC").
		Limit(filter.PageSize).
		Offset(models.Offset(filter.Page, filter.PageSize)).
		Find(&users).Error
	return users, total, err
}

func (r *UserRepositoryImpl) CountByRole(db *gorm.DB, role models.UserRole) (int64, error) {
	var count int64
	err := db.Model(&models.User{}).Where("role = ?", role).Count(&count).Error
	return count, err
}

// Delete removes the user and everything they own. Foreign keys are not
// created by the migration, so children are deleted explicitly.
func (r *UserRepositoryImpl) Delete(db *gorm.DB, userID string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var jobIDs []string
		if err := tx.Model(&models.Job{}).Where("created_by = ?", userID).Pluck("id", &jobIDs).Error; err != nil {
			return err
		}
		if len(jobIDs) > 0 {
			if err := tx.Where("job_id IN ?", jobIDs).Delete(&models.JobApplication{}).Error; err != nil {
				return err
			}
		}

		var itemIDs []string
		if err := tx.Model(&models.MarketplaceItem{}).Where("seller_id = ?", userID).Pluck("id", &itemIDs).Error; err != nil {
			return err
		}
		if len(itemIDs) > 0 {
			if err := tx.Where("item_id IN ?", itemIDs).Delete(&models.MarketplaceReport{}).Error; err != nil {
				return err
			}
		}

		owned := []struct {
			model interface{}
			query string
		}{
			{&models.Job{}, "created_by = ?"},
			{&models.JobApplication{}, "user_id = ?"},
			{&models.MarketplaceItem{}, "seller_id = ?"},
			{&models.MarketplaceReport{}, "user_id = ?"},
			{&models.Subscription{}, "user_id = ?"},
			{&models.Notification{}, "user_id = ?"},
			{&models.RefreshToken{}, "user_id = ?"},
		}
		for _, o := range owned {
			if err := tx.Where(o.query, userID).Delete(o.model).Error; err != nil {
				return err
			}
		}

		result := tx.Where("id = ?", userID).Delete(&models.User{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrUserNotFound
		}
		return nil
	})
}
