package meeting

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// ReminderOffset is how long before the meeting start the reminder fires.
const ReminderOffset = 5 * time.Minute

// Trigger is an abstract firing specification for one (meeting, schedule)
// pair: either a one-shot instant or a weekly cron recurrence bounded by the
// meeting's start/end window. Triggers carry no mutable recurrence state;
// Next is a pure function of its argument.
type Trigger struct {
	ID           string
	Meeting      string
	Reminder     bool
	WeekInterval int

	// One-shot instant; zero for recurring triggers.
	At time.Time

	start time.Time
	end   *time.Time
	sched cron.Schedule
}

// Next returns the first occurrence strictly after the given instant, within
// the trigger's bounds. ok=false means the trigger never fires again.
func (t Trigger) Next(after time.Time) (time.Time, bool) {
	if t.sched == nil {
		if t.At.After(after) {
			return t.At, true
		}
		return time.Time{}, false
	}

	from := after
	if lower := t.start.Add(-time.Second); from.Before(lower) {
		from = lower
	}
	next := t.sched.Next(from.In(t.start.Location()))
	if next.IsZero() {
		return time.Time{}, false
	}
	if t.end != nil && !next.Before(*t.end) {
		return time.Time{}, false
	}
	return next, true
}

// Triggers derives the meeting's full trigger set: for a one-shot meeting an
// appointment at Start plus a reminder 5 minutes earlier; for a recurring
// meeting one appointment/reminder pair per schedule entry.
//
// Trigger ids are derived from (meeting name, schedule index, reminder), so a
// prefix match on the meeting name finds every job belonging to it.
func (m *Meeting) Triggers() ([]Trigger, error) {
	if len(m.Schedules) == 0 {
		return []Trigger{
			{
				ID:           m.Name,
				Meeting:      m.Name,
				WeekInterval: 1,
				At:           m.Start,
			},
			{
				ID:           m.Name + ".reminder",
				Meeting:      m.Name,
				Reminder:     true,
				WeekInterval: 1,
				At:           m.Start.Add(-ReminderOffset),
			},
		}, nil
	}

	out := make([]Trigger, 0, 2*len(m.Schedules))
	for n, s := range m.Schedules {
		appt, err := cronSchedule(s.Days, s.Hour, s.Minute)
		if err != nil {
			return nil, fmt.Errorf("meeting %q schedule %d: %w", m.Name, n, err)
		}
		remHour, remMinute := minusOffset(s.Hour, s.Minute, ReminderOffset)
		rem, err := cronSchedule(s.Days, remHour, remMinute)
		if err != nil {
			return nil, fmt.Errorf("meeting %q schedule %d: %w", m.Name, n, err)
		}

		out = append(out,
			Trigger{
				ID:           fmt.Sprintf("%s.schedule-%d", m.Name, n),
				Meeting:      m.Name,
				WeekInterval: s.WeekInterval,
				start:        m.Start,
				end:          m.End,
				sched:        appt,
			},
			Trigger{
				ID:           fmt.Sprintf("%s.schedule-%d.reminder", m.Name, n),
				Meeting:      m.Name,
				Reminder:     true,
				WeekInterval: s.WeekInterval,
				start:        m.Start,
				end:          m.End,
				sched:        rem,
			},
		)
	}
	return out, nil
}

func cronSchedule(days string, hour, minute int) (cron.Schedule, error) {
	return cron.ParseStandard(fmt.Sprintf("%d %d * * %s", minute, hour, days))
}

// minusOffset shifts a time of day backwards, wrapping within the day. The
// weekday set stays unchanged even when the reminder wraps past midnight.
func minusOffset(hour, minute int, off time.Duration) (int, int) {
	total := hour*60 + minute - int(off.Minutes())
	total = ((total % 1440) + 1440) % 1440
	return total / 60, total % 60
}
