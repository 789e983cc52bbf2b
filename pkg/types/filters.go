package types

import (
	"fmt"
	"time"
)

// TimeRange restricts results to a rolling publication window
type TimeRange string

const (
	TimeRangeAll     TimeRange = "all"
	TimeRangeWeek    TimeRange = "week"
	TimeRangeMonth   TimeRange = "month"
	TimeRangeQuarter TimeRange = "quarter"
	TimeRangeYear    TimeRange = "year"
	TimeRangeCustom  TimeRange = "custom" // Uses SearchFilters.From/To
)

// Window returns the rolling window length for a predefined range.
// ok is false for all and custom.
func (r TimeRange) Window() (d time.Duration, ok bool) {
	const day = 24 * time.Hour
	switch r {
	case TimeRangeWeek:
		return 7 * day, true
	case TimeRangeMonth:
		return 30 * day, true
	case TimeRangeQuarter:
		return 90 * day, true
	case TimeRangeYear:
		return 365 * day, true
	default:
		return 0, false
	}
}

// IsValid reports whether r is a known range
func (r TimeRange) IsValid() bool {
	switch r {
	case TimeRangeAll, TimeRangeWeek, TimeRangeMonth, TimeRangeQuarter, TimeRangeYear, TimeRangeCustom:
		return true
	}
	return false
}

// SortBy selects the result ordering
type SortBy string

const (
	SortByRelevance SortBy = "relevance"
	SortByDate      SortBy = "date"
	SortByTitle     SortBy = "title"
)

// IsValid reports whether s is a known ordering
func (s SortBy) IsValid() bool {
	return s == SortByRelevance || s == SortByDate || s == SortByTitle
}

// SearchFilters shapes a query. It is a plain value object.
type SearchFilters struct {
	Type      ContentType `json:"type"`
	TimeRange TimeRange   `json:"timeRange"`
	SortBy    SortBy      `json:"sortBy"`

	// Bounds for TimeRangeCustom; either may be nil
	From *time.Time `json:"from,omitempty"`
	To   *time.Time `json:"to,omitempty"`
}

// DefaultFilters matches everything and sorts by relevance
func DefaultFilters() SearchFilters {
	return SearchFilters{
		Type:      ContentTypeAll,
		TimeRange: TimeRangeAll,
		SortBy:    SortByRelevance,
	}
}

// Normalize returns a copy with empty fields set to their defaults
func (f SearchFilters) Normalize() SearchFilters {
	if f.Type == "" {
		f.Type = ContentTypeAll
	}
	if f.TimeRange == "" {
		f.TimeRange = TimeRangeAll
	}
	if f.SortBy == "" {
		f.SortBy = SortByRelevance
	}
	if f.TimeRange != TimeRangeCustom {
		f.From, f.To = nil, nil
	}
	return f
}

// Validate rejects unknown enum values. Empty values are accepted and
// mean the default.
func (f SearchFilters) Validate() error {
	if f.Type != "" && f.Type != ContentTypeAll && !f.Type.IsValid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidFilter, f.Type)
	}
	if f.TimeRange != "" && !f.TimeRange.IsValid() {
		return fmt.Errorf("%w: unknown time range %q", ErrInvalidFilter, f.TimeRange)
	}
	if f.SortBy != "" && !f.SortBy.IsValid() {
		return fmt.Errorf("%w: unknown sort %q", ErrInvalidFilter, f.SortBy)
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return fmt.Errorf("%w: custom range ends before it starts", ErrInvalidFilter)
	}
	return nil
}

// Params flattens the normalized filters into key/value pairs for cache keys
func (f SearchFilters) Params() map[string]string {
	n := f.Normalize()
	params := map[string]string{
		"type":      string(n.Type),
		"timeRange": string(n.TimeRange),
		"sortBy":    string(n.SortBy),
	}
	if n.From != nil {
		params["from"] = n.From.UTC().Format(time.RFC3339)
	}
	if n.To != nil {
		params["to"] = n.To.UTC().Format(time.RFC3339)
	}
	return params
}
