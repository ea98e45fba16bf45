package model

import "time"

// TimeSlot is an abstract named slot: a recurring weekly (weekday, time
// block) pattern, e.g. "Mon 08:00-10:00".  Concrete calendar occurrences are
// derived by the time grid; the slot itself carries no dates.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – display label, e.g. "A" or "Mon-1".
//  Weekday   – day of week the slot recurs on.
//  StartTime – block start as "HH:MM".
//  EndTime   – block end as "HH:MM".
type TimeSlot struct {
	ID        uint64       // time_slots.id
	Name      string       // time_slots.name
	Weekday   time.Weekday // time_slots.weekday
	StartTime string       // time_slots.start_time
	EndTime   string       // time_slots.end_time
	CreatedAt time.Time    // time_slots.created_at
}

// DateLayout is the canonical calendar-date encoding used throughout the
// engine.  Dates are plain civil dates in UTC; no component ever attaches a
// clock time to a cell date.
const DateLayout = "2006-01-02"

// ParseDate parses a canonical YYYY-MM-DD date string in UTC.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// FormatDate renders a time as a canonical date string.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}
