package meeting

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

const weightTolerance = 1e-9

// Participant is a required meeting member. Weight is this participant's
// share of the minute-taking probability mass; the vector over all required
// participants sums to 1.
//
// Keeping the weight on the participant (instead of a parallel slice) makes
// the len(weights) == len(participants) invariant structural.
type Participant struct {
	Name   string  `json:"name"`
	ID     int64   `json:"id"`
	Weight float64 `json:"weight"`
}

// Member is an optional participant: messaged, never rotated.
type Member struct {
	Name string `json:"name"`
	ID   int64  `json:"id"`
}

type Status string

const (
	StatusActive  Status = "active"
	StatusPaused  Status = "paused"
	StatusExpired Status = "expired"
)

// Meeting is the unit of scheduling, keyed by its unique name.
//
// An empty Schedules list means the meeting is one-shot, firing once at Start.
// Otherwise Start/End bound the recurrence window; occurrences at or after End
// never fire.
type Meeting struct {
	Name         string        `json:"name"`
	Description  string        `json:"description,omitempty"`
	URL          string        `json:"url,omitempty"`
	Start        time.Time     `json:"start"`
	End          *time.Time    `json:"end,omitempty"`
	Schedules    []Schedule    `json:"schedules,omitempty"`
	Participants []Participant `json:"participants"`
	Optional     []Member      `json:"participants_optional,omitempty"`
	Paused       bool          `json:"paused,omitempty"`
}

// normalize repairs and validates a meeting after construction or rehydration:
// weights are renormalized to sum to 1 (accumulated drift, or legacy data),
// and optional participants duplicating required ones are dropped.
func (m *Meeting) normalize() error {
	if strings.TrimSpace(m.Name) == "" {
		return validationf("meeting name is empty")
	}
	if m.Start.IsZero() {
		return validationf("meeting %q has no start time", m.Name)
	}
	if m.End != nil && !m.End.After(m.Start) {
		return validationf("meeting %q ends before it starts", m.Name)
	}
	if len(m.Participants) == 0 {
		return validationf("meeting %q has no participants", m.Name)
	}
	for _, s := range m.Schedules {
		if err := s.validate(); err != nil {
			return fmt.Errorf("meeting %q: %w", m.Name, err)
		}
	}

	m.renormalizeWeights()

	required := make(map[int64]bool, len(m.Participants))
	for _, p := range m.Participants {
		required[p.ID] = true
	}
	kept := m.Optional[:0]
	for _, o := range m.Optional {
		if !required[o.ID] {
			kept = append(kept, o)
		}
	}
	m.Optional = kept
	return nil
}

// renormalizeWeights rescales the weight vector to sum to 1. A non-positive
// sum (fresh meeting, corrupt data) resets to uniform.
func (m *Meeting) renormalizeWeights() {
	if len(m.Participants) == 0 {
		return
	}
	sum := 0.0
	for _, p := range m.Participants {
		if p.Weight > 0 {
			sum += p.Weight
		}
	}
	if sum <= 0 {
		u := 1.0 / float64(len(m.Participants))
		for i := range m.Participants {
			m.Participants[i].Weight = u
		}
		return
	}
	if math.Abs(sum-1.0) <= weightTolerance {
		return
	}
	for i := range m.Participants {
		if m.Participants[i].Weight < 0 {
			m.Participants[i].Weight = 0
		}
		m.Participants[i].Weight /= sum
	}
}

// StatusAt derives the meeting status at the given instant.
func (m *Meeting) StatusAt(now time.Time) Status {
	if m.End != nil && m.End.Before(now) {
		return StatusExpired
	}
	if len(m.Schedules) == 0 && m.Start.Before(now) {
		return StatusExpired
	}
	if m.Paused {
		return StatusPaused
	}
	return StatusActive
}

// hasMember reports whether the named user already participates, required or
// optional.
func (m *Meeting) hasMember(name string) bool {
	for _, p := range m.Participants {
		if p.Name == name {
			return true
		}
	}
	for _, o := range m.Optional {
		if o.Name == name {
			return true
		}
	}
	return false
}

// recipients returns the directory ids of everyone to message: required plus
// optional participants.
func (m *Meeting) recipients() []int64 {
	ids := make([]int64, 0, len(m.Participants)+len(m.Optional))
	for _, p := range m.Participants {
		ids = append(ids, p.ID)
	}
	for _, o := range m.Optional {
		ids = append(ids, o.ID)
	}
	return ids
}

// clone deep-copies the meeting so callbacks can mutate a candidate state,
// commit it, and only then swap it in.
func (m *Meeting) clone() *Meeting {
	cp := *m
	cp.Participants = append([]Participant(nil), m.Participants...)
	cp.Optional = append([]Member(nil), m.Optional...)
	cp.Schedules = append([]Schedule(nil), m.Schedules...)
	if m.End != nil {
		end := *m.End
		cp.End = &end
	}
	return &cp
}

// Markdown renders the meeting info block shown in chat.
func (m *Meeting) Markdown(now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", m.Name)
	if m.Description != "" {
		fmt.Fprintf(&b, "*%s*\n\n", m.Description)
	}
	fmt.Fprintf(&b, "status: %s\n", m.StatusAt(now))
	if m.URL != "" {
		fmt.Fprintf(&b, "url: %s\n", m.URL)
	}
	fmt.Fprintf(&b, "start: %s\n", m.Start.Format("2006-01-02 15:04"))
	if m.End != nil {
		fmt.Fprintf(&b, "end: %s\n", m.End.Format("2006-01-02 15:04"))
	} else {
		b.WriteString("end: -\n")
	}
	if len(m.Schedules) > 0 {
		parts := make([]string, len(m.Schedules))
		for i, s := range m.Schedules {
			parts[i] = s.String()
		}
		fmt.Fprintf(&b, "schedules: %s\n", strings.Join(parts, ", "))
	}

	names := make([]string, 0, len(m.Participants)+len(m.Optional))
	optional := make(map[string]bool, len(m.Optional))
	for _, p := range m.Participants {
		names = append(names, p.Name)
	}
	for _, o := range m.Optional {
		names = append(names, o.Name)
		optional[o.Name] = true
	}
	sort.Strings(names)

	b.WriteString("\nparticipants:\n")
	for _, n := range names {
		if optional[n] {
			fmt.Fprintf(&b, "* %s (optional)\n", n)
		} else {
			fmt.Fprintf(&b, "* %s\n", n)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// title renders the linked meeting name used in payloads.
func (m *Meeting) title() string {
	if m.URL != "" {
		return fmt.Sprintf("[%s](%s)", m.Name, m.URL)
	}
	return m.Name
}

// Payload is the message handed to the transport collaborator.
type Payload struct {
	Type    string  `json:"type"` // always "private"
	To      []int64 `json:"to"`
	Content string  `json:"content"`
}

// Appointment builds the starts-now message, embedding the rotation result.
func (m *Meeting) Appointment(takers [3]Participant) Payload {
	content := fmt.Sprintf(
		"**%s** *starts now*\n\n"+
			"**%s** was randomly selected to take minutes (then **%s** or **%s** if unavailable)\n",
		m.title(), takers[0].Name, takers[1].Name, takers[2].Name,
	)
	return Payload{Type: "private", To: m.recipients(), Content: content}
}

// Reminder builds the starts-in-5-minutes message. No rotation: the reminder
// only announces the upcoming start.
func (m *Meeting) Reminder() Payload {
	content := fmt.Sprintf("**%s** *starts in 5 minutes*\n", m.title())
	return Payload{Type: "private", To: m.recipients(), Content: content}
}
