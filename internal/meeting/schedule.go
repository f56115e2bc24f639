package meeting

import (
	"fmt"
	"strconv"
	"strings"
)

// Schedule describes one weekly recurrence of a meeting: a weekday set, a
// time of day, and a week interval (1 = every matching week, 2 = every second
// week counted from the meeting's start, ...).
type Schedule struct {
	WeekInterval int    `json:"week_interval"`
	Days         string `json:"days"` // normalized weekday set, e.g. "mon,fri" or "tue-sat"
	Hour         int    `json:"hour"`
	Minute       int    `json:"minute"`
}

var weekdayTokens = map[string]bool{
	"mon": true, "tue": true, "wed": true, "thu": true,
	"fri": true, "sat": true, "sun": true,
}

// ParseSchedule parses the chat-facing schedule syntax: a weekday spec like
// "wed", "mon,tue,fri" or "tue-sat", optionally suffixed with "/n" for an
// every-n-weeks interval, plus a "HH:MM" time of day.
//
//	ParseSchedule("mon-fri/3", "10:00")  // every 3 weeks, Mon through Fri at 10:00
func ParseSchedule(daysSpec, timeOfDay string) (Schedule, error) {
	days, intervalRaw, _ := strings.Cut(strings.ToLower(strings.TrimSpace(daysSpec)), "/")

	interval := 1
	if intervalRaw != "" {
		n, err := strconv.Atoi(intervalRaw)
		if err != nil || n < 1 {
			return Schedule{}, validationf("invalid week interval %q (want a number >= 1)", intervalRaw)
		}
		interval = n
	}

	days = strings.Join(strings.FieldsFunc(days, func(r rune) bool { return r == ' ' }), "")
	if err := validateDays(days); err != nil {
		return Schedule{}, err
	}

	hour, minute, err := parseHHMM(timeOfDay)
	if err != nil {
		return Schedule{}, err
	}

	return Schedule{WeekInterval: interval, Days: days, Hour: hour, Minute: minute}, nil
}

func validateDays(days string) error {
	if days == "" {
		return validationf("empty weekday spec")
	}
	for _, part := range strings.Split(days, ",") {
		lo, hi, isRange := strings.Cut(part, "-")
		if !weekdayTokens[lo] {
			return validationf("unknown weekday %q", lo)
		}
		if isRange && !weekdayTokens[hi] {
			return validationf("unknown weekday %q", hi)
		}
	}
	return nil
}

func parseHHMM(raw string) (hour, minute int, err error) {
	h, m, ok := strings.Cut(strings.TrimSpace(raw), ":")
	if !ok {
		return 0, 0, validationf("invalid time of day %q (want HH:MM)", raw)
	}
	hour, err = strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, validationf("invalid hour in %q", raw)
	}
	minute, err = strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, validationf("invalid minute in %q", raw)
	}
	return hour, minute, nil
}

// validate re-checks the invariants on a possibly rehydrated schedule.
func (s Schedule) validate() error {
	if s.WeekInterval < 1 {
		return validationf("week interval must be >= 1, got %d", s.WeekInterval)
	}
	if s.Hour < 0 || s.Hour > 23 || s.Minute < 0 || s.Minute > 59 {
		return validationf("invalid time of day %02d:%02d", s.Hour, s.Minute)
	}
	return validateDays(strings.ToLower(s.Days))
}

// String renders the schedule the way meeting info displays it.
func (s Schedule) String() string {
	every := "every week"
	if s.WeekInterval > 1 {
		every = fmt.Sprintf("every %d weeks", s.WeekInterval)
	}
	return fmt.Sprintf("%s on %s at %02d:%02d", every, s.Days, s.Hour, s.Minute)
}
