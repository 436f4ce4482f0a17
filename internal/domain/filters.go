package domain

import (
	"net/url"
	"strconv"
	"strings"
)

// DefaultPageSize is used when a filter state carries no usable limit.
const DefaultPageSize = 12

// Filters is the query state driving a listing: optional criteria plus the
// page position. Values are immutable; every change produces a new Filters.
type Filters struct {
	Search   string `json:"search,omitempty"`
	Category string `json:"category,omitempty"`
	City     string `json:"city,omitempty"`
	Status   string `json:"status,omitempty"`
	Page     int    `json:"page"`
	Limit    int    `json:"limit"`
}

// Normalize trims criteria and clamps Page and Limit to at least 1.
// Out-of-range positions are a local validation concern and are repaired
// rather than reported.
func (f Filters) Normalize(defaultLimit int) Filters {
	f.Search = strings.TrimSpace(f.Search)
	f.Category = strings.TrimSpace(f.Category)
	f.City = strings.TrimSpace(f.City)
	f.Status = strings.TrimSpace(f.Status)
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		if defaultLimit < 1 {
			defaultLimit = DefaultPageSize
		}
		f.Limit = defaultLimit
	}
	return f
}

// Validate reports the first malformed field, if any.
func (f Filters) Validate() error {
	if f.Page < 1 {
		return &ValidationError{Field: "page", Reason: "must be at least 1"}
	}
	if f.Limit < 1 {
		return &ValidationError{Field: "limit", Reason: "must be at least 1"}
	}
	return nil
}

// SameCriteria reports whether f and g select the same result set, that is
// whether they differ at most in page position. Surrounding whitespace is
// not significant.
func (f Filters) SameCriteria(g Filters) bool {
	return strings.TrimSpace(f.Search) == strings.TrimSpace(g.Search) &&
		strings.TrimSpace(f.Category) == strings.TrimSpace(g.Category) &&
		strings.TrimSpace(f.City) == strings.TrimSpace(g.City)
}

// NextFilters computes the filter state that follows prev when the caller
// asks for next. A new search, category or city invalidates the old page
// position, so the page resets to 1; a change of page alone is kept.
func NextFilters(prev, next Filters) Filters {
	if !prev.SameCriteria(next) {
		next.Page = 1
	}
	return next
}

// Values serialises f as query parameters. Empty criteria are omitted.
func (f Filters) Values() url.Values {
	v := url.Values{}
	if f.Search != "" {
		v.Set("search", f.Search)
	}
	if f.Category != "" {
		v.Set("category", f.Category)
	}
	if f.City != "" {
		v.Set("city", f.City)
	}
	if f.Status != "" {
		v.Set("status", f.Status)
	}
	if f.Page > 0 {
		v.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		v.Set("limit", strconv.Itoa(f.Limit))
	}
	return v
}
