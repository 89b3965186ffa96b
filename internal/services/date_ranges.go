// Package services provides business logic and orchestration services.
//
// This file resolves the named date-range presets of the transaction list.
// Each preset has its own strategy; customRange uses the caller's bounds.

package services

import (
	"fmt"
	"time"

	"fintrack/internal/core"
)

// DateRangeStrategy turns a preset into query bounds. A zero bound is open.
type DateRangeStrategy interface {
	Bounds(now, customFrom, customTo time.Time) (from, to time.Time)
}

// Last30Days starts 30 days before now and stays open-ended.
type Last30Days struct{}

func (Last30Days) Bounds(now, _, _ time.Time) (time.Time, time.Time) {
	return now.AddDate(0, 0, -30), time.Time{}
}

type ThisMonth struct{}

func (ThisMonth) Bounds(now, _, _ time.Time) (time.Time, time.Time) {
	return core.MonthBounds(now)
}

type LastMonth struct{}

func (LastMonth) Bounds(now, _, _ time.Time) (time.Time, time.Time) {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return core.MonthBounds(first.AddDate(0, -1, 0))
}

type ThisYear struct{}

func (ThisYear) Bounds(now, _, _ time.Time) (time.Time, time.Time) {
	start := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
	return start, start.AddDate(1, 0, 0).Add(-time.Millisecond)
}

// CustomRange widens the given days to 00:00:00.000 and 23:59:59.999.
// Both days are required; otherwise no date filter applies.
type CustomRange struct{}

func (CustomRange) Bounds(_, from, to time.Time) (time.Time, time.Time) {
	if from.IsZero() || to.IsZero() {
		return time.Time{}, time.Time{}
	}
	start, _ := core.DayBounds(from)
	_, end := core.DayBounds(to)
	return start, end
}

// DateRangeResolver maps preset names to strategies.
type DateRangeResolver struct {
	strategies map[string]DateRangeStrategy
}

func NewDateRangeResolver() *DateRangeResolver {
	return &DateRangeResolver{strategies: map[string]DateRangeStrategy{
		"last30days":  Last30Days{},
		"thisMonth":   ThisMonth{},
		"lastMonth":   LastMonth{},
		"thisYear":    ThisYear{},
		"customRange": CustomRange{},
	}}
}

// Register adds or replaces a preset.
func (r *DateRangeResolver) Register(name string, s DateRangeStrategy) {
	r.strategies[name] = s
}

// Resolve returns the bounds for a preset. An empty name means no filter.
func (r *DateRangeResolver) Resolve(name string, now, customFrom, customTo time.Time) (time.Time, time.Time, error) {
	if name == "" {
		return time.Time{}, time.Time{}, nil
	}
	s, ok := r.strategies[name]
	if !ok {
		return time.Time{}, time.Time{}, &core.ValidationError{Field: "dateRange", Err: fmt.Errorf("unknown date range %q", name)}
	}
	from, to := s.Bounds(now, customFrom, customTo)
	return from, to, nil
}
