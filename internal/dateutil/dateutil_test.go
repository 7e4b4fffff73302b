package dateutil

import (
	"testing"
	"time"
)

func TestParseOffset(t *testing.T) {
	loc, err := ParseOffset("-03:00")
	if err != nil {
		t.Fatalf("parse offset: %v", err)
	}
	_, secs := time.Date(2026, 1, 1, 0, 0, 0, 0, loc).Zone()
	if secs != -3*3600 {
		t.Errorf("expected -10800 seconds, got %d", secs)
	}

	loc, err = ParseOffset("+05:30")
	if err != nil {
		t.Fatalf("parse offset: %v", err)
	}
	_, secs = time.Date(2026, 1, 1, 0, 0, 0, 0, loc).Zone()
	if secs != 5*3600+30*60 {
		t.Errorf("expected 19800 seconds, got %d", secs)
	}

	for _, bad := range []string{"", "-3:00", "03:00", "+15:00", "+01:75", "UTC"} {
		if _, err := ParseOffset(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestClockUsesOffsetNotMachineZone(t *testing.T) {
	loc, _ := ParseOffset("-03:00")
	// 02:00 UTC on Nov 1st is still Oct 31st at -03:00
	clock := NewFixedClock(loc, time.Date(2026, time.November, 1, 2, 0, 0, 0, time.UTC))

	if got := clock.Today(); got != "2026-10-31" {
		t.Errorf("expected today 2026-10-31, got %s", got)
	}
	if got := clock.FirstOfMonth(); got != "2026-10-01" {
		t.Errorf("expected first of month 2026-10-01, got %s", got)
	}
	if got := clock.Now().Hour(); got != 23 {
		t.Errorf("expected hour 23 in offset, got %d", got)
	}
}

func TestComposeDueInstant(t *testing.T) {
	loc, _ := ParseOffset("-03:00")

	got, ok := ComposeDueInstant("2026-10-15", "18:00", loc)
	if !ok {
		t.Fatal("expected valid instant")
	}
	want := time.Date(2026, time.October, 15, 21, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("expected %s, got %s", want, got)
	}

	for _, hhmm := range []string{"", "9", "9:00", "noon"} {
		got, ok := ComposeDueInstant("2026-10-15", hhmm, loc)
		if !ok {
			t.Fatalf("expected default time for %q", hhmm)
		}
		if got.Hour() != 9 || got.Minute() != 0 {
			t.Errorf("expected 09:00 for %q, got %s", hhmm, got.Format(TimeLayout))
		}
	}

	invalid := []struct{ date, hhmm string }{
		{"", "10:00"},
		{"15/10/2026", "10:00"},
		{"2026-1-5", "10:00"},
		{"2026-02-30", "10:00"},
		{"2026-10-15", "25:00"},
	}
	for _, tc := range invalid {
		if _, ok := ComposeDueInstant(tc.date, tc.hhmm, loc); ok {
			t.Errorf("expected invalid for %q %q", tc.date, tc.hhmm)
		}
	}
}

func TestValidDateAndLexicographicOrder(t *testing.T) {
	if !ValidDate("2026-09-30") {
		t.Error("expected valid date")
	}
	if ValidDate("2026-9-30") {
		t.Error("expected non padded date to be rejected")
	}
	if !Before("2026-09-30", "2026-10-01") {
		t.Error("expected 2026-09-30 before 2026-10-01")
	}
	if Before("2026-10-01", "2026-10-01") {
		t.Error("expected equal dates not to be before")
	}
	if got := FormatDate(2026, time.March, 5); got != "2026-03-05" {
		t.Errorf("expected 2026-03-05, got %s", got)
	}
}
