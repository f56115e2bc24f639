package meeting

import (
	"testing"
	"time"
)

// 2026-01-05 is a Monday.
var monday = time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

func TestTriggersOneShot(t *testing.T) {
	t.Parallel()

	start := monday.Add(14 * time.Hour)
	m := &Meeting{
		Name:         "kickoff",
		Start:        start,
		Participants: []Participant{{Name: "a", ID: 1, Weight: 1}},
	}

	trigs, err := m.Triggers()
	if err != nil {
		t.Fatal(err)
	}
	if len(trigs) != 2 {
		t.Fatalf("got %d triggers, want 2", len(trigs))
	}

	appt, rem := trigs[0], trigs[1]
	if appt.ID != "kickoff" || rem.ID != "kickoff.reminder" {
		t.Errorf("trigger ids = %q, %q", appt.ID, rem.ID)
	}
	if !rem.Reminder || appt.Reminder {
		t.Errorf("reminder flags = %v, %v", appt.Reminder, rem.Reminder)
	}

	if next, ok := appt.Next(monday); !ok || !next.Equal(start) {
		t.Errorf("appointment Next = %v, %v; want %v", next, ok, start)
	}
	if next, ok := rem.Next(monday); !ok || !next.Equal(start.Add(-5*time.Minute)) {
		t.Errorf("reminder Next = %v, %v; want %v", next, ok, start.Add(-5*time.Minute))
	}

	// Once the instant has passed, the trigger never fires again.
	if _, ok := appt.Next(start); ok {
		t.Error("one-shot trigger fired past its instant")
	}
}

func TestTriggersRecurring(t *testing.T) {
	t.Parallel()

	m := &Meeting{
		Name:         "standup",
		Start:        monday,
		Schedules:    []Schedule{{WeekInterval: 1, Days: "mon", Hour: 10, Minute: 0}},
		Participants: []Participant{{Name: "a", ID: 1, Weight: 1}},
	}

	trigs, err := m.Triggers()
	if err != nil {
		t.Fatal(err)
	}
	if len(trigs) != 2 {
		t.Fatalf("got %d triggers, want 2", len(trigs))
	}
	if trigs[0].ID != "standup.schedule-0" || trigs[1].ID != "standup.schedule-0.reminder" {
		t.Errorf("trigger ids = %q, %q", trigs[0].ID, trigs[1].ID)
	}

	first, ok := trigs[0].Next(monday)
	if !ok || !first.Equal(monday.Add(10*time.Hour)) {
		t.Fatalf("first occurrence = %v, %v; want Mon 10:00", first, ok)
	}
	second, ok := trigs[0].Next(first)
	if !ok || !second.Equal(first.AddDate(0, 0, 7)) {
		t.Errorf("second occurrence = %v, %v; want one week later", second, ok)
	}

	// Occurrences before the meeting start never fire even when asked from
	// far in the past.
	early, ok := trigs[0].Next(monday.AddDate(0, -1, 0))
	if !ok || early.Before(monday) {
		t.Errorf("occurrence before start: %v, %v", early, ok)
	}
}

func TestTriggersEndBound(t *testing.T) {
	t.Parallel()

	end := monday.AddDate(0, 0, 3)
	m := &Meeting{
		Name:         "retro",
		Start:        monday,
		End:          &end,
		Schedules:    []Schedule{{WeekInterval: 1, Days: "mon", Hour: 10, Minute: 0}},
		Participants: []Participant{{Name: "a", ID: 1, Weight: 1}},
	}

	trigs, err := m.Triggers()
	if err != nil {
		t.Fatal(err)
	}
	first, ok := trigs[0].Next(monday)
	if !ok {
		t.Fatal("first occurrence missing")
	}
	if _, ok := trigs[0].Next(first); ok {
		t.Error("occurrence at or after the end still fires")
	}
}

func TestTriggersReminderWrapsMidnight(t *testing.T) {
	t.Parallel()

	m := &Meeting{
		Name:         "early",
		Start:        monday,
		Schedules:    []Schedule{{WeekInterval: 1, Days: "mon", Hour: 0, Minute: 2}},
		Participants: []Participant{{Name: "a", ID: 1, Weight: 1}},
	}

	trigs, err := m.Triggers()
	if err != nil {
		t.Fatal(err)
	}
	rem := trigs[1]

	next, ok := rem.Next(monday)
	if !ok {
		t.Fatal("reminder never fires")
	}
	// 00:02 minus 5 minutes wraps to 23:57 but stays on the meeting weekday.
	if next.Weekday() != time.Monday || next.Hour() != 23 || next.Minute() != 57 {
		t.Errorf("wrapped reminder = %v, want Monday 23:57", next)
	}
}

func TestTriggersMultipleSchedules(t *testing.T) {
	t.Parallel()

	m := &Meeting{
		Name:  "sync",
		Start: monday,
		Schedules: []Schedule{
			{WeekInterval: 1, Days: "mon", Hour: 10, Minute: 0},
			{WeekInterval: 2, Days: "wed,fri", Hour: 15, Minute: 30},
		},
		Participants: []Participant{{Name: "a", ID: 1, Weight: 1}},
	}

	trigs, err := m.Triggers()
	if err != nil {
		t.Fatal(err)
	}
	if len(trigs) != 4 {
		t.Fatalf("got %d triggers, want 4", len(trigs))
	}
	wantIDs := []string{
		"sync.schedule-0", "sync.schedule-0.reminder",
		"sync.schedule-1", "sync.schedule-1.reminder",
	}
	for i, want := range wantIDs {
		if trigs[i].ID != want {
			t.Errorf("trigs[%d].ID = %q, want %q", i, trigs[i].ID, want)
		}
	}
	if trigs[2].WeekInterval != 2 {
		t.Errorf("schedule-1 week interval = %d, want 2", trigs[2].WeekInterval)
	}
}
