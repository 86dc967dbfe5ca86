package dto

import "businessconnect_backend/internal/models"

// ListResponse is what list endpoints hand to the response helpers.
type ListResponse[T any] struct {
	Items      []T               `json:"items"`
	Pagination models.Pagination `json:"pagination"`
}

func NewListResponse[T any](items []T, page, pageSize int, total int64) *ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return &ListResponse[T]{
		Items:      items,
		Pagination: models.NewPagination(page, pageSize, total),
	}
}

// PageRequest is embedded by query DTOs that paginate.
type PageRequest struct {
	Page     int `form:"page" validate:"omitempty,min=1"`
	PageSize int `form:"page_size" validate:"omitempty,min=1,max=100"`
}

// Normalize applies the defaults of 1 and 20.
func (p *PageRequest) Normalize() {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}
