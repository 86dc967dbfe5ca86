package repositories

import (
	"time"

	"gorm.io/gorm"

	"businessconnect_backend/internal/models"
)

type SubscriptionRepository interface {
	Create(db *gorm.DB, sub *models.Subscription) error
	FindByID(db *gorm.DB, id string) (*models.Subscription, error)
	FindByPaymentID(db *gorm.DB, paymentID string) (*models.Subscription, error)
	Update(db *gorm.DB, sub *models.Subscription) error

	// FindCurrent returns the most recently created active subscription that has not ended.
	FindCurrent(db *gorm.DB, userID string, now time.Time) (*models.Subscription, error)
	// Transition moves a subscription from one status to another; false when it was not in from.
	Transition(db *gorm.DB, id string, from, to models.SubscriptionStatus, fields map[string]interface{}) (bool, error)

	FindByUser(db *gorm.DB, userID string) ([]models.Subscription, error)
	FindWithFilter(db *gorm.DB, filter SubscriptionFilter) ([]models.Subscription, int64, error)
	FindExpired(db *gorm.DB, now time.Time) ([]models.Subscription, error)
	FindExpiringWithoutReminder(db *gorm.DB, now, until time.Time) ([]models.Subscription, error)
	MarkReminderSent(db *gorm.DB, id string, at time.Time) error
}

type SubscriptionFilter struct {
	Status   models.SubscriptionStatus
	UserID   string
	Page     int
	PageSize int
}

type SubscriptionRepositoryImpl struct{}

func NewSubscriptionRepository() SubscriptionRepository {
	return &SubscriptionRepositoryImpl{}
}

func (r *SubscriptionRepositoryImpl) Create(db *gorm.DB, sub *models.Subscription) error {
	return db.Create(sub).Error
}

func (r *SubscriptionRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.Subscription, error) {
	var sub models.Subscription
	if err := db.First(&sub, "id = ?", id).Error; err != nil {
		return nil, notFound(err, ErrSubscriptionNotFound)
	}
	return &sub, nil
}

func (r *SubscriptionRepositoryImpl) FindByPaymentID(db *gorm.DB, paymentID string) (*models.Subscription, error) {
	var sub models.Subscription
	if err := db.First(&sub, "payment_id = ?", paymentID).Error; err != nil {
		return nil, notFound(err, ErrSubscriptionNotFound)
	}
	return &sub, nil
}

func (r *SubscriptionRepositoryImpl) Update(db *gorm.DB, sub *models.Subscription) error {
	return db.Save(sub).Error
}

func (r *SubscriptionRepositoryImpl) FindCurrent(db *gorm.DB, userID string, now time.Time) (*models.Subscription, error) {
	var sub models.Subscription
	err := db.Where("user_id = ? AND status = ? AND end_date > ?", userID, models.SubscriptionStatusActive, now).
		Order("created_at DESC").
		First(&sub).Error
	if err != nil {
		return nil, notFound(err, ErrSubscriptionNotFound)
	}
	return &sub, nil
}

func (r *SubscriptionRepositoryImpl) Transition(db *gorm.DB, id string, from, to models.SubscriptionStatus, fields map[string]interface{}) (bool, error) {
	updates := map[string]interface{}{"status": to}
	for k, v := range fields {
		updates[k] = v
	}

	result := db.Model(&models.Subscription{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *SubscriptionRepositoryImpl) FindByUser(db *gorm.DB, userID string) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := db.Where("user_id = ?", userID).Order("created_at DESC").Find(&subs).Error
	return subs, err
}

func (r *SubscriptionRepositoryImpl) FindWithFilter(db *gorm.DB, filter SubscriptionFilter) ([]models.Subscription, int64, error) {
	query := db.Model(&models.Subscription{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var subs []models.Subscription
	err := query.Order("created_at DESC").
		Limit(filter.PageSize).
		Offset(models.Offset(filter.Page, filter.PageSize)).
		Find(&subs).Error
	return subs, total, err
}

func (r *SubscriptionRepositoryImpl) FindExpired(db *gorm.DB, now time.Time) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := db.Where("status = ? AND end_date <= ?", models.SubscriptionStatusActive, now).Find(&subs).Error
	return subs, err
}

func (r *SubscriptionRepositoryImpl) FindExpiringWithoutReminder(db *gorm.DB, now, until time.Time) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := db.Where("status = ? AND end_date > ? AND end_date <= ? AND reminder_sent_at IS NULL",
		models.SubscriptionStatusActive, now, until).
		Find(&subs).Error
	return subs, err
}

func (r *SubscriptionRepositoryImpl) MarkReminderSent(db *gorm.DB, id string, at time.Time) error {
	return db.Model(&models.Subscription{}).Where("id = ?", id).UpdateColumn("reminder_sent_at", at).Error
}
