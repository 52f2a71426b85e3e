package dto

import (
	"encoding/base64"
	"encoding/json"
	"errors"
)

const (
	// DefaultLimit is the page size when only a cursor is given.
	DefaultLimit = 20

	// MaxLimit is the largest page size accepted.
	MaxLimit = 100
)

// ErrInvalidCursor is returned when a cursor cannot be decoded or belongs to
// a different listing.
var ErrInvalidCursor = errors.New("invalid cursor")

// PaginationRequest holds the page parameters of a listing request.
type PaginationRequest struct {
	// Cursor is the opaque NextCursor of a previous page.
	Cursor string `form:"cursor"`

	// Limit is the page size, 1-100.
	Limit int `form:"limit" validate:"omitempty,gte=1,lte=100"`
}

// GetLimit returns the limit with defaults applied.
func (p *PaginationRequest) GetLimit() int {
	switch {
	case p.Limit <= 0:
		return DefaultLimit
	case p.Limit > MaxLimit:
		return MaxLimit
	default:
		return p.Limit
	}
}

// PaginatedResponse is one page of a listing.
type PaginatedResponse[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"nextCursor,omitempty"`
	HasMore    bool   `json:"hasMore"`
	Total      int    `json:"total"`
}

// CursorData is the position encoded in a cursor. Scope ties a cursor to the
// filter it was issued for.
type CursorData struct {
	Offset int    `json:"o"`
	Scope  string `json:"s"`
}

// EncodeCursor encodes cursor data as URL-safe base64.
func EncodeCursor(data *CursorData) string {
	if data == nil {
		return ""
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return ""
	}

	return base64.URLEncoding.EncodeToString(raw)
}

// DecodeCursor decodes a cursor produced by EncodeCursor.
func DecodeCursor(encoded string) (*CursorData, error) {
	raw, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ErrInvalidCursor
	}

	var data CursorData
	if err := json.Unmarshal(raw, &data); err != nil || data.Offset < 0 {
		return nil, ErrInvalidCursor
	}

	return &data, nil
}

// Paginate returns the page of items selected by req. Cursors issued for a
// different scope are rejected. A cursor past the end yields an empty page.
func Paginate[T any](items []T, req PaginationRequest, scope string) (*PaginatedResponse[T], error) {
	offset := 0

	if req.Cursor != "" {
		cursor, err := DecodeCursor(req.Cursor)
		if err != nil {
			return nil, err
		}

		if cursor.Scope != scope {
			return nil, ErrInvalidCursor
		}

		offset = cursor.Offset
	}

	limit := req.GetLimit()
	start := min(offset, len(items))
	end := min(start+limit, len(items))

	page := make([]T, end-start)
	copy(page, items[start:end])

	resp := &PaginatedResponse[T]{
		Items:   page,
		HasMore: end < len(items),
		Total:   len(items),
	}

	if resp.HasMore {
		resp.NextCursor = EncodeCursor(&CursorData{Offset: end, Scope: scope})
	}

	return resp, nil
}

// AllItems wraps a complete listing as a single page.
func AllItems[T any](items []T) *PaginatedResponse[T] {
	if items == nil {
		items = []T{}
	}

	return &PaginatedResponse[T]{Items: items, Total: len(items)}
}
