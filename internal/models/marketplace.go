package models

import (
	"time"

	"gorm.io/datatypes"
)

type MarketplaceItem struct {
	BaseModel
	Title            string                                `gorm:"size:200;not null" json:"title"`
	Description      string                                `gorm:"type:text;not null" json:"description"`
	Category         string                                `gorm:"size:100;not null;index" json:"category"`
	Price            float64                               `gorm:"not null" json:"price"`
	Currency         string                                `gorm:"size:8;default:'XOF'" json:"currency"`
	Location         string                                `gorm:"size:120;index" json:"location"`
	ContactPhone     string                                `gorm:"size:32" json:"contactPhone,omitempty"`
	ContactEmail     string                                `gorm:"size:255" json:"contactEmail,omitempty"`
	Images           datatypes.JSONSlice[MarketplaceImage] `json:"images"`
	SellerID         string                                `gorm:"type:varchar(36);not null;index" json:"sellerId"`
	Status           ItemStatus                            `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	ModerationReason string                                `gorm:"size:500" json:"moderationReason,omitempty"`
	ModeratedBy      string                                `gorm:"type:varchar(36)" json:"moderatedBy,omitempty"`
	ModeratedAt      *time.Time                            `json:"moderatedAt,omitempty"`
	Reports          int                                   `gorm:"default:0" json:"reports"`
	Views            int                                   `gorm:"default:0" json:"views"`

	Seller *User `gorm:"foreignKey:SellerID" json:"seller,omitempty"`
}

type MarketplaceImage struct {
	URL           string `json:"url"`
	ThumbnailURL  string `json:"thumbnailUrl"`
	Path          string `json:"path"`
	ThumbnailPath string `json:"thumbnailPath"`
}

// MarketplaceReport enforces one report per user and item.
type MarketplaceReport struct {
	BaseModel
	ItemID string `gorm:"type:varchar(36);not null;uniqueIndex:idx_item_reporter" json:"itemId"`
	UserID string `gorm:"type:varchar(36);not null;uniqueIndex:idx_item_reporter" json:"userId"`
	Reason string `gorm:"size:500" json:"reason"`
}
