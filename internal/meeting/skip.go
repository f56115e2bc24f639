package meeting

import "time"

// secondsPerWeek is the fixed-length week the interval arithmetic counts in.
// Weeks are elapsed wall-clock septets from the meeting start, not ISO weeks,
// so a "/2" schedule fires on the same parity regardless of year boundaries.
const secondsPerWeek = 7 * 24 * 60 * 60

// HolidayChecker gates occurrences falling on public holidays.
type HolidayChecker interface {
	IsHoliday(t time.Time) bool
}

// dueThisWeek reports whether an occurrence at `at` lands on an active week of
// an every-n-weeks cadence anchored at `start`.
//
// The week counter starts at midnight of the start date, so a meeting created
// Wednesday evening and firing Wednesday morning still counts as week 0.
func dueThisWeek(start, at time.Time, weekInterval int) bool {
	if weekInterval <= 1 {
		return true
	}
	anchor := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	elapsed := at.Sub(anchor)
	if elapsed < 0 {
		return false
	}
	weeks := int(elapsed/time.Second) / secondsPerWeek
	return weeks%weekInterval == 0
}

// shouldSkip decides whether a recurring occurrence is suppressed, and why.
// A skipped occurrence produces no message, no rotation, and no persistence.
func shouldSkip(t Trigger, at time.Time, holidays HolidayChecker) (reason string, skip bool) {
	if !dueThisWeek(t.start, at, t.WeekInterval) {
		return "off-week", true
	}
	if holidays != nil && holidays.IsHoliday(at) {
		return "holiday", true
	}
	return "", false
}
