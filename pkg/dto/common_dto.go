package dto

import "github.com/google/uuid"

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 50
)

type PageQuery struct {
	Page  int `form:"page" binding:"omitempty,min=1"`
	Limit int `form:"limit" binding:"omitempty,min=1,max=50"`
}

// Normalize fills defaults and clamps the limit.
func (q PageQuery) Normalize() PageQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = DefaultPageLimit
	}
	if q.Limit > MaxPageLimit {
		q.Limit = MaxPageLimit
	}
	return q
}

func (q PageQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

type PaginationMeta struct {
	CurrentPage int   `json:"current_page"`
	TotalPages  int   `json:"total_pages"`
	TotalItems  int64 `json:"total_items"`
	Limit       int   `json:"limit"`
}

type Paginated[T any] struct {
	Data []T            `json:"data"`
	Meta PaginationMeta `json:"meta"`
}

// NewPaginated never returns a nil Data slice, so empty pages encode as [].
func NewPaginated[T any](data []T, total int64, q PageQuery) Paginated[T] {
	if data == nil {
		data = []T{}
	}

	totalPages := int(total) / q.Limit
	if int(total)%q.Limit != 0 {
		totalPages++
	}

	return Paginated[T]{
		Data: data,
		Meta: PaginationMeta{
			CurrentPage: q.Page,
			TotalPages:  totalPages,
			TotalItems:  total,
			Limit:       q.Limit,
		},
	}
}

type AuthorResponse struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
}
