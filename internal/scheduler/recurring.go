// Package scheduler expands a recurring booking request into the bounded
// series of occurrence times that the materialization workflow turns
// into appointment rows.
package scheduler

import (
	"fmt"
	"strings"
	"time"

	"github.com/craftday/craftday-api/internal/models"
)

// DefaultSeriesWeeks is the horizon applied when recurrence is enabled
// without an explicit end date: one semester.
const DefaultSeriesWeeks = 16

// MaxOccurrences bounds a single series regardless of the requested end
// date, so a mistyped year cannot materialize thousands of rows.
const MaxOccurrences = 104

// SeriesRequest is the payload assembled for series materialization.
type SeriesRequest struct {
	TenantID      string                   `json:"tenant_id"`
	ServiceID     string                   `json:"service_id"`
	StartDate     string                   `json:"start_date"` // YYYY-MM-DD
	StartTime     string                   `json:"start_time"` // HH:MM, tenant-local
	Pattern       models.RecurrencePattern `json:"recurring_pattern"`
	EndDate       string                   `json:"end_date"` // YYYY-MM-DD
	CustomerName  string                   `json:"customer_name"`
	CustomerEmail string                   `json:"customer_email"`
}

// DefaultEndDate returns start + 16 weeks.
func DefaultEndDate(start time.Time) time.Time {
	return start.AddDate(0, 0, DefaultSeriesWeeks*7)
}

// ClampEndDate enforces the no-negative-length rule: an end date before
// the start date collapses to the start date (a one-occurrence series).
func ClampEndDate(start, end time.Time) time.Time {
	if end.Before(start) {
		return start
	}
	return end
}

// ExpandSeries returns every occurrence time from start through end
// inclusive for the given cadence. Weekly and biweekly step in whole
// days; monthly steps by calendar month (AddDate normalization applies,
// so a Jan 31 monthly series lands on Mar 2/3 in non-leap/leap years,
// same behavior the rest of the platform has always had).
func ExpandSeries(start, end time.Time, pattern models.RecurrencePattern) ([]time.Time, error) {
	end = ClampEndDate(start, end)

	var next func(time.Time) time.Time
	switch pattern {
	case models.RecurrenceWeekly:
		next = func(t time.Time) time.Time { return t.AddDate(0, 0, 7) }
	case models.RecurrenceBiweekly:
		next = func(t time.Time) time.Time { return t.AddDate(0, 0, 14) }
	case models.RecurrenceMonthly:
		next = func(t time.Time) time.Time { return t.AddDate(0, 1, 0) }
	default:
		return nil, fmt.Errorf("unsupported recurrence pattern %q", pattern)
	}

	occurrences := []time.Time{start}
	for t := next(start); !t.After(end); t = next(t) {
		occurrences = append(occurrences, t)
		if len(occurrences) >= MaxOccurrences {
			break
		}
	}
	return occurrences, nil
}

// ParseWindow parses the wire-format date/time fields of a SeriesRequest
// into the series start instant and end date. A missing end date gets
// the 16-week default; an end date before the start is clamped.
func (r SeriesRequest) ParseWindow(loc *time.Location) (start, end time.Time, err error) {
	if loc == nil {
		loc = time.UTC
	}
	startDate, err := time.ParseInLocation("2006-01-02", r.StartDate, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start date %q: %w", r.StartDate, err)
	}
	startClock, err := time.Parse("15:04", r.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start time %q: %w", r.StartTime, err)
	}
	start = time.Date(startDate.Year(), startDate.Month(), startDate.Day(),
		startClock.Hour(), startClock.Minute(), 0, 0, loc)

	if strings.TrimSpace(r.EndDate) == "" {
		return start, DefaultEndDate(start), nil
	}
	endDate, err := time.ParseInLocation("2006-01-02", r.EndDate, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end date %q: %w", r.EndDate, err)
	}
	end = time.Date(endDate.Year(), endDate.Month(), endDate.Day(),
		startClock.Hour(), startClock.Minute(), 0, 0, loc)
	return start, ClampEndDate(start, end), nil
}

// Validate checks the request fields that do not need a clock or the
// data store.
func (r SeriesRequest) Validate() error {
	if strings.TrimSpace(r.ServiceID) == "" {
		return fmt.Errorf("service is required")
	}
	if strings.TrimSpace(r.StartDate) == "" {
		return fmt.Errorf("start date is required")
	}
	if strings.TrimSpace(r.StartTime) == "" {
		return fmt.Errorf("start time is required")
	}
	if strings.TrimSpace(r.CustomerEmail) == "" {
		return fmt.Errorf("customer email is required")
	}
	switch r.Pattern {
	case models.RecurrenceWeekly, models.RecurrenceBiweekly, models.RecurrenceMonthly:
		return nil
	default:
		return fmt.Errorf("unsupported recurrence pattern %q", r.Pattern)
	}
}
