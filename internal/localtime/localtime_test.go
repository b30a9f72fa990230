package localtime

import (
	"testing"
	"time"
)

func TestResolveFallsBackToDefault(t *testing.T) {
	loc := Resolve("Not/AZone")
	if loc.String() != DefaultZone {
		t.Errorf("expected %s, got %s", DefaultZone, loc)
	}

	loc = Resolve("")
	if loc.String() != DefaultZone {
		t.Errorf("expected %s for empty name, got %s", DefaultZone, loc)
	}

	loc = Resolve("America/New_York")
	if loc.String() != "America/New_York" {
		t.Errorf("expected America/New_York, got %s", loc)
	}
}

func TestWeekdayMondayIsZero(t *testing.T) {
	// 2025-06-02 is a Monday
	monday := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		got := Weekday(monday.AddDate(0, 0, i))
		if got != i {
			t.Errorf("day %d: expected weekday %d, got %d", i, i, got)
		}
	}
}

func TestMinuteOfDay(t *testing.T) {
	tt := time.Date(2025, 6, 2, 23, 59, 59, 0, time.UTC)
	if got := MinuteOfDay(tt); got != 1439 {
		t.Errorf("expected 1439, got %d", got)
	}
	tt = time.Date(2025, 6, 2, 0, 0, 30, 0, time.UTC)
	if got := MinuteOfDay(tt); got != 0 {
		t.Errorf("expected 0, got %d", got)
	}
}

func TestDayBoundsCoversLocalDay(t *testing.T) {
	loc := Resolve("Europe/Rome")
	// CEST, UTC+2: local midnight is 22:00 UTC of the previous day.
	instant := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	from, to := DayBounds(instant, loc)

	if from != time.Date(2025, 6, 1, 22, 0, 0, 0, time.UTC) {
		t.Errorf("unexpected from: %v", from)
	}
	if to != time.Date(2025, 6, 2, 22, 0, 0, 0, time.UTC) {
		t.Errorf("unexpected to: %v", to)
	}
}

func TestWeekBoundsStartsOnMonday(t *testing.T) {
	loc := time.UTC
	// 2025-06-05 is a Thursday; the week starts Monday 2025-06-02.
	instant := time.Date(2025, 6, 5, 15, 0, 0, 0, time.UTC)
	from, to := WeekBounds(instant, loc)

	if from != time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC) {
		t.Errorf("unexpected from: %v", from)
	}
	if to != time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC) {
		t.Errorf("unexpected to: %v", to)
	}
}

func TestParseDateRoundTrip(t *testing.T) {
	loc := Resolve("Europe/Rome")
	day, err := ParseDate("2025-06-02", loc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := DateString(day, loc); got != "2025-06-02" {
		t.Errorf("expected 2025-06-02, got %s", got)
	}
}
