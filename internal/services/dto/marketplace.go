package dto

import "businessconnect_backend/internal/models"

type CreateItemRequest struct {
	Title        string  `json:"title" validate:"required,min=3,max=200"`
	Description  string  `json:"description" validate:"required,min=10"`
	Category     string  `json:"category" validate:"required,max=100"`
	Price        float64 `json:"price" validate:"gte=0"`
	Location     string  `json:"location" validate:"omitempty,max=120"`
	ContactPhone string  `json:"contactPhone" validate:"omitempty,sn-phone"`
	ContactEmail string  `json:"contactEmail" validate:"omitempty,email"`
}

type UpdateItemRequest struct {
	Title        *string  `json:"title" validate:"omitempty,min=3,max=200"`
	Description  *string  `json:"description" validate:"omitempty,min=10"`
	Category     *string  `json:"category" validate:"omitempty,max=100"`
	Price        *float64 `json:"price" validate:"omitempty,gte=0"`
	Location     *string  `json:"location" validate:"omitempty,max=120"`
	ContactPhone *string  `json:"contactPhone" validate:"omitempty,sn-phone"`
	ContactEmail *string  `json:"contactEmail" validate:"omitempty,email"`
}

type ItemSearchRequest struct {
	PageRequest
	Status   models.ItemStatus `form:"status" validate:"omitempty,is-item-status"`
	Search   string            `form:"q" validate:"omitempty,max=100"`
	Category string            `form:"category" validate:"omitempty,max=100"`
	Location string            `form:"location" validate:"omitempty,max=120"`
	MinPrice *float64          `form:"min_price" validate:"omitempty,gte=0"`
	MaxPrice *float64          `form:"max_price" validate:"omitempty,gte=0"`
}

type ModerateItemRequest struct {
	Status models.ItemStatus `json:"status" validate:"required,is-item-status"`
	Reason string            `json:"reason" validate:"omitempty,max=500"`
}

type ReportItemRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=500"`
}

// ImageUpload is a multipart file handed over by the handler.
type ImageUpload struct {
	Filename    string
	ContentType string
	Size        int64
}
