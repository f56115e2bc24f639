// Package meeting implements dana's recurring-meeting engine: the Meeting
// entity, the translation of schedules into triggers, the week-interval and
// holiday skip gates, the weighted minute-taker rotation, and the Registry
// that owns all meetings and dispatches commands.
//
// The Registry is the single shared mutable resource. Both the inbound command
// path and the job scheduler's callbacks go through its mutex; Meeting values
// never leave the lock by reference.
package meeting
