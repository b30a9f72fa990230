// Package localtime resolves user timezones and maps instants onto the
// local calendar used by slot matching and day summaries.
package localtime

import "time"

// DefaultZone is used when a user has no timezone or an invalid one.
const DefaultZone = "Europe/Rome"

// Resolve returns the location for an IANA zone name. An empty or invalid
// name falls back to DefaultZone without error.
func Resolve(name string) *time.Location {
	if name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	loc, err := time.LoadLocation(DefaultZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Weekday returns the day of week with Monday = 0 and Sunday = 6.
func Weekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// MinuteOfDay returns minutes since local midnight, 0..1439.
func MinuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// DayBounds returns the UTC instants of local midnight on t's day and on
// the following day, so [from, to) covers exactly the local calendar day.
func DayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	local := t.In(loc)
	from := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return from.UTC(), from.AddDate(0, 0, 1).UTC()
}

// WeekBounds returns the UTC instants of local midnight on the Monday of
// t's week and on the following Monday.
func WeekBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	local := t.In(loc)
	monday := local.AddDate(0, 0, -Weekday(local))
	from := time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, loc)
	return from.UTC(), from.AddDate(0, 0, 7).UTC()
}

// DateString formats t in loc as YYYY-MM-DD.
func DateString(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}

// ParseDate parses a YYYY-MM-DD string as local midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", s, loc)
}
