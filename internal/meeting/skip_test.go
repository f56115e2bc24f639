package meeting

import (
	"testing"
	"time"
)

type holidayStub map[string]bool

func (h holidayStub) IsHoliday(t time.Time) bool {
	return h[t.Format("2006-01-02")]
}

func TestDueThisWeek(t *testing.T) {
	t.Parallel()

	at := func(days int) time.Time { return monday.AddDate(0, 0, days).Add(10 * time.Hour) }

	tests := []struct {
		name     string
		start    time.Time
		at       time.Time
		interval int
		want     bool
	}{
		{"interval 1 always due", monday, at(7), 1, true},
		{"week 0 fires", monday, at(0), 2, true},
		{"week 1 skipped", monday, at(7), 2, false},
		{"week 2 fires", monday, at(14), 2, true},
		{"week 3 skipped", monday, at(21), 2, false},
		{"interval 3 week 2 skipped", monday, at(14), 3, false},
		{"interval 3 week 3 fires", monday, at(21), 3, true},
		{
			// The counter anchors at midnight of the start date, so an
			// occurrence earlier on the same day still lands in week 0.
			"created later the same day",
			monday.Add(18 * time.Hour), monday.Add(10 * time.Hour), 2, true,
		},
		{"occurrence before the anchor day", monday, monday.AddDate(0, 0, -1), 2, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := dueThisWeek(tt.start, tt.at, tt.interval); got != tt.want {
				t.Errorf("dueThisWeek(%v, %v, %d) = %v, want %v",
					tt.start, tt.at, tt.interval, got, tt.want)
			}
		})
	}
}

func TestShouldSkip(t *testing.T) {
	t.Parallel()

	trig := Trigger{Meeting: "m", WeekInterval: 2, start: monday}
	holidays := holidayStub{"2026-01-05": true}

	if reason, skip := shouldSkip(trig, monday.AddDate(0, 0, 7).Add(10*time.Hour), nil); !skip || reason != "off-week" {
		t.Errorf("off-week occurrence: reason=%q skip=%v", reason, skip)
	}
	if reason, skip := shouldSkip(trig, monday.Add(10*time.Hour), holidays); !skip || reason != "holiday" {
		t.Errorf("holiday occurrence: reason=%q skip=%v", reason, skip)
	}
	if reason, skip := shouldSkip(trig, monday.AddDate(0, 0, 14).Add(10*time.Hour), holidays); skip {
		t.Errorf("due occurrence skipped: reason=%q", reason)
	}
	// The week gate is checked before the holiday gate.
	if reason, _ := shouldSkip(Trigger{WeekInterval: 2, start: monday},
		monday.AddDate(0, 0, 7), holidayStub{"2026-01-12": true}); reason != "off-week" {
		t.Errorf("off-week holiday: reason=%q, want off-week", reason)
	}
}
