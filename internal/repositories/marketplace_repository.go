package repositories

import (
	"gorm.io/gorm"

	"businessconnect_backend/internal/models"
)

type MarketplaceRepository interface {
	Create(db *gorm.DB, item *models.MarketplaceItem) error
	FindByID(db *gorm.DB, id string) (*models.MarketplaceItem, error)
	// Update saves the item without touching its reports and views counters.
	Update(db *gorm.DB, item *models.MarketplaceItem) error
	Delete(db *gorm.DB, id string) error
	FindWithFilter(db *gorm.DB, filter ItemFilter) ([]models.MarketplaceItem, int64, error)
	IncrementViews(db *gorm.DB, id string) error

	// CreateReport stores a report and increments the item counter, returning the new count.
	CreateReport(db *gorm.DB, report *models.MarketplaceReport) (int, error)
	// SuspendIfApproved flips an approved item to suspended; false when the item was not approved.
	SuspendIfApproved(db *gorm.DB, id, reason string) (bool, error)
}

type ItemFilter struct {
	Status   models.ItemStatus
	SellerID string
	Search   string
	Category string
	Location string
	MinPrice *float64
	MaxPrice *float64
	Page     int
	PageSize int
}

type MarketplaceRepositoryImpl struct{}

func NewMarketplaceRepository() MarketplaceRepository {
	return &MarketplaceRepositoryImpl{}
}

func (r *MarketplaceRepositoryImpl) Create(db *gorm.DB, item *models.MarketplaceItem) error {
	return db.Omit("Seller").Create(item).Error
}

func (r *MarketplaceRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.MarketplaceItem, error) {
	var item models.MarketplaceItem
	if err := db.First(&item, "id = ?", id).Error; err != nil {
		return nil, notFound(err, ErrItemNotFound)
	}
	return &item, nil
}

// Update writes the editable columns. The reports and views counters are only
// ever changed in place by CreateReport and IncrementViews.
func (r *MarketplaceRepositoryImpl) Update(db *gorm.DB, item *models.MarketplaceItem) error {
	return db.Omit("Seller", "Reports", "Views").Save(item).Error
}

func (r *MarketplaceRepositoryImpl) Delete(db *gorm.DB, id string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("item_id = ?", id).Delete(&models.MarketplaceReport{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&models.MarketplaceItem{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrItemNotFound
		}
		return nil
	})
}

func (r *MarketplaceRepositoryImpl) FindWithFilter(db *gorm.DB, filter ItemFilter) ([]models.MarketplaceItem, int64, error) {
	query := db.Model(&models.MarketplaceItem{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.SellerID != "" {
		query = query.Where("seller_id = ?", filter.SellerID)
	}
	if filter.Search != "" {
		p := containsPattern(filter.Search)
		query = query.Where("(LOWER(title) LIKE ?"+likeEscape+" OR LOWER(description) LIKE ?"+likeEscape+")", p, p)
	}
	if filter.Category != "" {
		query = query.Where("LOWER(category) = ?", lower(filter.Category))
	}
	if filter.Location != "" {
		query = query.Where("LOWER(location) LIKE ?"+likeEscape, containsPattern(filter.Location))
	}
	if filter.MinPrice != nil {
		query = query.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("price <= ?", *filter.MaxPrice)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []models.MarketplaceItem
	err := query.Order("created_at DESC").
		Limit(filter.PageSize).
		Offset(models.Offset(filter.Page, filter.PageSize)).
		Find(&items).Error
	return items, total, err
}

func (r *MarketplaceRepositoryImpl) IncrementViews(db *gorm.DB, id string) error {
	return db.Model(&models.MarketplaceItem{}).Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1)).Error
}

func (r *MarketplaceRepositoryImpl) CreateReport(db *gorm.DB, report *models.MarketplaceReport) (int, error) {
	var reports int
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(report).Error; err != nil {
			if isDuplicateKey(err) {
				return ErrAlreadyReported
			}
			return err
		}

		result := tx.Model(&models.MarketplaceItem{}).Where("id = ?", report.ItemID).
			UpdateColumn("reports", gorm.Expr("reports + ?", 1))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrItemNotFound
		}

		var counts []int
		if err := tx.Model(&models.MarketplaceItem{}).Where("id = ?", report.ItemID).
			Pluck("reports", &counts).Error; err != nil {
			return err
		}
		if len(counts) > 0 {
			reports = counts[0]
		}
		return nil
	})
	return reports, err
}

func (r *MarketplaceRepositoryImpl) SuspendIfApproved(db *gorm.DB, id, reason string) (bool, error) {
	result := db.Model(&models.MarketplaceItem{}).
		Where("id = ? AND status = ?", id, models.ItemStatusApproved).
		Updates(map[string]interface{}{
			"status":            models.ItemStatusSuspended,
			"moderation_reason": reason,
		})
	return result.RowsAffected > 0, result.Error
}
