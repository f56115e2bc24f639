package holiday

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 10, 0, 0, 0, time.UTC)
}

func TestNew(t *testing.T) {
	t.Parallel()

	if _, err := New("DE"); err != nil {
		t.Fatalf("New(DE): %v", err)
	}
	if _, err := New("de"); err != nil {
		t.Errorf("country code should be case-insensitive: %v", err)
	}
	if _, err := New("XX"); err == nil {
		t.Error("unknown country accepted")
	}
	if _, err := New(""); err == nil {
		t.Error("empty country accepted")
	}
}

func TestIsHoliday(t *testing.T) {
	t.Parallel()
	cal, err := New("DE")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		day  time.Time
		want bool
	}{
		{"new year", date(2026, time.January, 1), true},
		{"labour day", date(2026, time.May, 1), true},
		{"german unity day", date(2026, time.October, 3), true},
		{"christmas", date(2026, time.December, 25), true},
		{"easter monday 2026", date(2026, time.April, 6), true}, // movable feast
		{"ordinary wednesday", date(2026, time.August, 12), false},
		{"ordinary day next year", date(2027, time.June, 2), false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := cal.IsHoliday(tt.day); got != tt.want {
				t.Errorf("IsHoliday(%v) = %v, want %v", tt.day, got, tt.want)
			}
		})
	}
}

func TestIsHolidayCachesYears(t *testing.T) {
	t.Parallel()
	cal, err := New("DE")
	if err != nil {
		t.Fatal(err)
	}

	day := date(2026, time.January, 1)
	if !cal.IsHoliday(day) {
		t.Fatal("Jan 1 not a holiday")
	}
	cal.mu.Lock()
	if _, ok := cal.years[2026]; !ok {
		t.Error("year 2026 not cached after lookup")
	}
	cal.mu.Unlock()

	// Repeated lookups answer from the cache.
	if !cal.IsHoliday(day) {
		t.Error("cached lookup disagrees")
	}
}

func TestNilCalendar(t *testing.T) {
	t.Parallel()
	var cal *Calendar
	if cal.IsHoliday(date(2026, time.January, 1)) {
		t.Error("nil calendar reported a holiday")
	}
}
