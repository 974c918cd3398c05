// Package pagination pages list endpoints with offset and limit.
package pagination

import (
	"math"

	"gorm.io/gorm"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PageRequest holds pagination parameters parsed from query strings.
type PageRequest struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// Normalize fills in defaults and clamps out-of-range values, for requests
// that did not come through query binding.
func (p *PageRequest) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	switch {
	case p.PageSize < 1:
		p.PageSize = DefaultPageSize
	case p.PageSize > MaxPageSize:
		p.PageSize = MaxPageSize
	}
}

func (p PageRequest) offset() int {
	return (p.Page - 1) * p.PageSize
}

// PageResponse wraps one page of items with the totals of the whole result.
type PageResponse[T any] struct {
	Data       []T   `json:"data"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// NewPageResponse creates a PageResponse. Data is never nil so it encodes as [].
func NewPageResponse[T any](data []T, req PageRequest, totalItems int64) *PageResponse[T] {
	req.Normalize()
	if data == nil {
		data = []T{}
	}
	return &PageResponse[T]{
		Data:       data,
		Page:       req.Page,
		PageSize:   req.PageSize,
		TotalItems: totalItems,
		TotalPages: int(math.Ceil(float64(totalItems) / float64(req.PageSize))),
	}
}

// Find counts the rows matched by q, then loads the requested page in order.
// q must already carry its model and filters. Store errors are returned as is.
func Find[T any](q *gorm.DB, req PageRequest, order string) (*PageResponse[T], error) {
	req.Normalize()

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, err
	}

	var items []T
	if total > int64(req.offset()) {
		err := q.Session(&gorm.Session{}).
			Offset(req.offset()).
			Limit(req.PageSize).
			Order(order).
			Find(&items).Error
		if err != nil {
			return nil, err
		}
	}
	return NewPageResponse(items, req, total), nil
}
