package repositories

import (
	"time"

	"gorm.io/gorm"

	"businessconnect_backend/internal/models"
)

type NotificationRepository interface {
	Create(db *gorm.DB, n *models.Notification) error
	FindByID(db *gorm.DB, id string) (*models.Notification, error)
	FindByUser(db *gorm.DB, userID string, unreadOnly bool, page, pageSize int) ([]models.Notification, int64, error)
	CountUnread(db *gorm.DB, userID string) (int64, error)
	MarkAsRead(db *gorm.DB, id string, at time.Time) error
	MarkAllAsRead(db *gorm.DB, userID string, at time.Time) (int64, error)
	Delete(db *gorm.DB, id string) error
}

type NotificationRepositoryImpl struct{}

func NewNotificationRepository() NotificationRepository {
	return &NotificationRepositoryImpl{}
}

func (r *NotificationRepositoryImpl) Create(db *gorm.DB, n *models.Notification) error {
	return db.Create(n).Error
}

func (r *NotificationRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.Notification, error) {
	var n models.Notification
	if err := db.First(&n, "id = ?", id).Error; err != nil {
		return nil, notFound(err, ErrNotificationNotFound)
	}
	return &n, nil
}

func (r *NotificationRepositoryImpl) FindByUser(db *gorm.DB, userID string, unreadOnly bool, page, pageSize int) ([]models.Notification, int64, error) {
	query := db.Model(&models.Notification{}).Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var list []models.Notification
	err := query.Order("created_at DESC").
		Limit(pageSize).
		Offset(models.Offset(page, pageSize)).
		Find(&list).Error
	return list, total, err
}

func (r *NotificationRepositoryImpl) CountUnread(db *gorm.DB, userID string) (int64, error) {
	var count int64
	err := db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

func (r *NotificationRepositoryImpl) MarkAsRead(db *gorm.DB, id string, at time.Time) error {
	return db.Model(&models.Notification{}).Where("id = ?", id).
		Updates(map[string]interface{}{"is_read": true, "read_at": at}).Error
}

func (r *NotificationRepositoryImpl) MarkAllAsRead(db *gorm.DB, userID string, at time.Time) (int64, error) {
	result := db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": at})
	return result.RowsAffected, result.Error
}

func (r *NotificationRepositoryImpl) Delete(db *gorm.DB, id string) error {
	result := db.Where("id = ?", id).Delete(&models.Notification{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}
