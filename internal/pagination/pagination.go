// Package pagination slices ordered collections into 1-based pages.
package pagination

import (
	"math"
	"strconv"
	"strings"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Params is a clamped page request.
type Params struct {
	Page  int
	Limit int
}

// Offset is the index of the first item on the page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Info describes where a page sits in its collection.
type Info struct {
	CurrentPage  int `json:"currentPage"`
	TotalPages   int `json:"totalPages"`
	TotalItems   int `json:"totalItems"`
	ItemsPerPage int `json:"itemsPerPage"`
}

// Page is one slice of a collection.
type Page[T any] struct {
	Items      []T
	Pagination Info
}

// ParseParams reads raw query values. Missing, unparseable or zero values fall back to
// the defaults; the page is clamped to at least 1 and the limit to [1, MaxLimit].
func ParseParams(pageRaw, limitRaw string) Params {
	page := parseInt(pageRaw, DefaultPage)
	limit := parseInt(limitRaw, DefaultLimit)
	return Normalize(page, limit)
}

// Normalize clamps already-parsed values.
func Normalize(page, limit int) Params {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 1
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Params{Page: page, Limit: limit}
}

// Paginate returns the requested page of items. A page past the end is empty, not an error.
func Paginate[T any](items []T, params Params) Page[T] {
	params = Normalize(params.Page, params.Limit)
	total := len(items)

	totalPages := 0
	if total > 0 {
		totalPages = (total + params.Limit - 1) / params.Limit
	}

	// Pages past the last one, including ones whose offset would overflow, are empty.
	start := total
	if params.Page-1 < totalPages && params.Page-1 <= math.MaxInt/params.Limit {
		start = params.Offset()
	}
	end := total
	if start+params.Limit < total {
		end = start + params.Limit
	}

	pageItems := make([]T, end-start)
	copy(pageItems, items[start:end])

	return Page[T]{
		Items: pageItems,
		Pagination: Info{
			CurrentPage:  params.Page,
			TotalPages:   totalPages,
			TotalItems:   total,
			ItemsPerPage: params.Limit,
		},
	}
}

// parseInt reads a leading integer the way lenient query parsing does ("12abc" is 12).
// Zero counts as missing.
func parseInt(raw string, fallback int) int {
	raw = strings.TrimSpace(raw)
	end := 0
	for end < len(raw) && (raw[end] >= '0' && raw[end] <= '9' || end == 0 && (raw[end] == '-' || raw[end] == '+')) {
		end++
	}
	n, err := strconv.Atoi(raw[:end])
	if err != nil || n == 0 {
		return fallback
	}
	return n
}
