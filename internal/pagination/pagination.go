// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package pagination slices ordered result sets into numbered pages. Page
// numbers outside the valid range are clamped instead of rejected, and an
// empty result set still has one (empty) page.
package pagination

import (
	"strconv"
	"strings"
)

// MaxLimit caps the page size a caller may request.
const MaxLimit = 100

// Paginate is a page request: a 1-based page number and a page size.
type Paginate struct {
	Page  int
	Limit int
}

// New builds a page request from a raw query value. Non-numeric input
// selects page 1 and a non-positive limit falls back to defaultLimit.
func New(rawPage string, limit, defaultLimit int) Paginate {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Paginate{Page: ParsePage(rawPage), Limit: limit}
}

// Offset returns the number of rows to skip for the requested page.
func (p Paginate) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// ParsePage converts a "page" query value into a page number. Anything that
// is not an integer yields 1; out-of-range integers are left for Clamp.
func ParsePage(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 1
	}
	return n
}

// LastPage returns the highest valid page number for total items split into
// pages of size. It is never below 1.
func LastPage(total int64, size int) int {
	if size <= 0 || total <= 0 {
		return 1
	}
	return int((total + int64(size) - 1) / int64(size))
}

// Clamp moves page into [1, LastPage(total, size)].
func Clamp(page int, total int64, size int) int {
	if page < 1 {
		return 1
	}
	if last := LastPage(total, size); page > last {
		return last
	}
	return page
}

// Resolve clamps the request against the known total so the caller can
// compute a valid OFFSET before querying.
func (p Paginate) Resolve(total int64) Paginate {
	return Paginate{Page: Clamp(p.Page, total, p.Limit), Limit: p.Limit}
}

// Page holds the items of a single page along with navigation metadata.
type Page[T any] struct {
	Items        []T   `json:"items"`
	Number       int   `json:"number"`
	PageSize     int   `json:"page_size"`
	Total        int64 `json:"total"`
	TotalPages   int   `json:"total_pages"`
	HasNext      bool  `json:"has_next"`
	HasPrevious  bool  `json:"has_previous"`
	NextPage     int   `json:"next_page,omitempty"`
	PreviousPage int   `json:"previous_page,omitempty"`
}

// MakePage wraps items fetched for an already resolved request.
func MakePage[T any](items []T, p Paginate, total int64) *Page[T] {
	totalPages := LastPage(total, p.Limit)
	page := &Page[T]{
		Items:      items,
		Number:     p.Page,
		PageSize:   p.Limit,
		Total:      total,
		TotalPages: totalPages,
	}

	if page.Number < totalPages {
		page.HasNext = true
		page.NextPage = page.Number + 1
	}
	if page.Number > 1 {
		page.HasPrevious = true
		page.PreviousPage = page.Number - 1
	}

	return page
}

// HasOtherPages reports whether navigation links are needed at all.
func (p *Page[T]) HasOtherPages() bool {
	return p.TotalPages > 1
}
