package engine

import (
	"fmt"
	"time"

	"github.com/iliyamo/campus-room-reservation/internal/model"
)

// The time grid maps an abstract weekly slot to concrete calendar dates.
// Expansion is deterministic and side-effect-free: re-deriving the same
// range from the same inputs always yields the same dates.

// ValidateRange parses a canonical from/to pair and enforces from <= to.
func ValidateRange(from, to string) (time.Time, time.Time, error) {
	start, err := model.ParseDate(from)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %q", ErrBadDateRange, from)
	}
	end, err := model.ParseDate(to)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %q", ErrBadDateRange, to)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %s after %s", ErrBadDateRange, from, to)
	}
	return start, end, nil
}

// IsExcluded reports whether the date falls in the exclusion calendar: a
// listed holiday or, by the implicit rule, a weekend.
func IsExcluded(date time.Time, holidays map[string]struct{}) bool {
	if wd := date.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return true
	}
	_, holiday := holidays[model.FormatDate(date)]
	return holiday
}

// Occurrences expands a weekly pattern over [start, end] inclusive, skipping
// excluded dates.  A weekend weekday yields no occurrences at all: the
// implicit rule suppresses them before holidays are even consulted.
func Occurrences(weekday time.Weekday, start, end time.Time, holidays map[string]struct{}) []string {
	if weekday == time.Saturday || weekday == time.Sunday {
		return nil
	}
	// Advance to the first matching weekday, then step a week at a time.
	first := start
	for first.Weekday() != weekday {
		first = first.AddDate(0, 0, 1)
	}
	var dates []string
	for d := first; !d.After(end); d = d.AddDate(0, 0, 7) {
		if IsExcluded(d, holidays) {
			continue
		}
		dates = append(dates, model.FormatDate(d))
	}
	return dates
}

// DatesBetween lists every date of [start, end] inclusive.  Used by the
// availability view to walk a query range.
func DatesBetween(start, end time.Time) []string {
	var dates []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, model.FormatDate(d))
	}
	return dates
}
