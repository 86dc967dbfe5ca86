package repositories

import (
	"time"

	"gorm.io/gorm"

	"businessconnect_backend/internal/models"
)

// RefreshTokenRepository stores hashed refresh tokens.
type RefreshTokenRepository interface {
	Create(db *gorm.DB, token *models.RefreshToken) error
	FindByHash(db *gorm.DB, tokenHash string) (*models.RefreshToken, error)
	DeleteByHash(db *gorm.DB, tokenHash string) error
	DeleteByUserID(db *gorm.DB, userID string) error
	DeleteExpired(db *gorm.DB, now time.Time) (int64, error)
}

type refreshTokenRepository struct{}

func NewRefreshTokenRepository() RefreshTokenRepository {
	return &refreshTokenRepository{}
}

func (r *refreshTokenRepository) Create(db *gorm.DB, token *models.RefreshToken) error {
	return db.Create(token).Error
}

func (r *refreshTokenRepository) FindByHash(db *gorm.DB, tokenHash string) (*models.RefreshToken, error) {
	var token models.RefreshToken
	if err := db.Where("token_hash = ?", tokenHash).First(&token).Error; err != nil {
		return nil, notFound(err, ErrRefreshTokenNotFound)
	}
	return &token, nil
}

// DeleteByHash returns ErrRefreshTokenNotFound when nothing was deleted, which
// makes a concurrent second rotation of the same token fail.
func (r *refreshTokenRepository) DeleteByHash(db *gorm.DB, tokenHash string) error {
	result := db.Where("token_hash = ?", tokenHash).Delete(&models.RefreshToken{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRefreshTokenNotFound
	}
	return nil
}

func (r *refreshTokenRepository) DeleteByUserID(db *gorm.DB, userID string) error {
	return db.Where("user_id = ?", userID).Delete(&models.RefreshToken{}).Error
}

func (r *refreshTokenRepository) DeleteExpired(db *gorm.DB, now time.Time) (int64, error) {
	result := db.Where("expires_at < ?", now).Delete(&models.RefreshToken{})
	return result.RowsAffected, result.Error
}
