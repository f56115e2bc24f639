package meeting

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tmichela/dana/internal/eventbus"
	"github.com/tmichela/dana/pkg/logx"
)

// storageKey is the single persistence slot holding the full registry
// snapshot, a JSON object mapping meeting name to meeting fields.
const storageKey = "meetings"

// Transport delivers a rendered payload. The delivery result is logged but
// never inspected for success.
type Transport interface {
	Send(ctx context.Context, p Payload) error
}

// Directory resolves free-text participant mentions to stable ids. It is
// consulted once per mutating command; only the resolved ids are stored.
type Directory interface {
	Members(ctx context.Context) ([]Member, error)
}

// JobScheduler arms and cancels timer jobs. Arm replaces any job with the
// same id; Cancel removes the job with the exact id plus every job under its
// dot-separated namespace ("standup" cancels "standup.schedule-0.reminder"
// but not "standup2").
type JobScheduler interface {
	Arm(id string, next func(after time.Time) (time.Time, bool), run func(ctx context.Context, at time.Time))
	Cancel(id string)
}

// Store is the narrow persistence contract the registry commits through.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
}

type Options struct {
	Store     Store
	Transport Transport
	Directory Directory
	Scheduler JobScheduler
	Holidays  HolidayChecker
	Bus       eventbus.Bus
	Logger    logx.Logger

	// Now and Rand are injectable for tests; nil means wall clock and a
	// time-seeded source.
	Now  func() time.Time
	Rand *rand.Rand
}

// Registry owns the meeting collection and is the only component allowed to
// mutate it. Both execution contexts, the inbound command path and the
// scheduler's firing callbacks, serialize on one mutex; Meeting references
// never escape it.
type Registry struct {
	store     Store
	transport Transport
	directory Directory
	jobs      JobScheduler
	holidays  HolidayChecker
	bus       eventbus.Bus
	log       logx.Logger
	now       func() time.Time

	mu       sync.Mutex
	rng      *rand.Rand
	meetings map[string]*Meeting
}

func NewRegistry(opts Options) *Registry {
	r := &Registry{
		store:     opts.Store,
		transport: opts.Transport,
		directory: opts.Directory,
		jobs:      opts.Scheduler,
		holidays:  opts.Holidays,
		bus:       opts.Bus,
		log:       opts.Logger,
		now:       opts.Now,
		rng:       opts.Rand,
		meetings:  map[string]*Meeting{},
	}
	if r.log.IsZero() {
		r.log = logx.Nop()
	}
	r.log = r.log.With(logx.String("component", "registry"))
	if r.now == nil {
		r.now = time.Now
	}
	if r.rng == nil {
		r.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return r
}

// Load rehydrates the registry from the persistence collaborator and re-arms
// jobs for every unpaused meeting. An absent snapshot is an empty registry.
// A meeting that fails validation is dropped with a warning rather than
// poisoning startup.
func (r *Registry) Load(ctx context.Context) error {
	data, ok, err := r.store.Get(ctx, storageKey)
	if err != nil {
		return fmt.Errorf("load meetings: %w", err)
	}
	if !ok {
		return nil
	}

	var loaded map[string]*Meeting
	if err := json.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("load meetings: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for name, m := range loaded {
		m.Name = name
		if err := m.normalize(); err != nil {
			r.log.Warn("dropping invalid stored meeting",
				logx.String("meeting", name), logx.Err(err))
			continue
		}
		r.meetings[name] = m
		if !m.Paused {
			if err := r.armLocked(m); err != nil {
				r.log.Warn("cannot arm stored meeting",
					logx.String("meeting", name), logx.Err(err))
			}
		}
	}
	r.log.Info("registry loaded", logx.Int("meetings", len(r.meetings)))
	return nil
}

// Execute runs one command and returns its human-readable result. Errors are
// returned as-is; stringification for chat happens at the router boundary.
func (r *Registry) Execute(ctx context.Context, cmd Command) (string, error) {
	switch c := cmd.(type) {
	case AddCommand:
		return r.add(ctx, c)
	case RemoveCommand:
		return r.remove(ctx, c)
	case ListCommand:
		return r.list()
	case InfoCommand:
		return r.info(c)
	case EditCommand:
		return "", fmt.Errorf("edit: %w", ErrUnsupported)
	case RescheduleCommand:
		return r.reschedule(ctx, c)
	case AddParticipantCommand:
		return r.addParticipant(ctx, c)
	case RemoveParticipantCommand:
		return r.removeParticipant(ctx, c)
	case PauseCommand:
		return r.pause(ctx, c)
	case ResumeCommand:
		return r.resume(ctx, c)
	default:
		return "", fmt.Errorf("unknown command %T", cmd)
	}
}

func (r *Registry) add(ctx context.Context, c AddCommand) (string, error) {
	if len(c.Participants) == 0 {
		return "", validationf("a meeting needs at least one participant")
	}
	// Directory resolution happens before taking the lock; it is the only
	// potentially slow step of the command path.
	required, err := r.resolve(ctx, c.Participants)
	if err != nil {
		return "", err
	}
	optional, err := r.resolve(ctx, c.Optional)
	if err != nil {
		return "", err
	}

	m := &Meeting{
		Name:        c.Name,
		Description: c.Description,
		URL:         c.URL,
		Start:       c.Start,
		End:         c.End,
		Schedules:   c.Schedules,
	}
	for _, mem := range required {
		m.Participants = append(m.Participants, Participant{Name: mem.Name, ID: mem.ID})
	}
	m.Optional = optional
	if err := m.normalize(); err != nil {
		return "", err
	}
	if _, err := m.Triggers(); err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.meetings[m.Name]; exists {
		return "", fmt.Errorf("%q: %w", m.Name, ErrAlreadyExists)
	}
	if err := r.commitCandidate(ctx, r.withMeeting(m.Name, m)); err != nil {
		return "", err
	}
	if err := r.armLocked(m); err != nil {
		return "", err
	}
	r.log.Info("meeting added", logx.String("meeting", m.Name),
		logx.Int("participants", len(m.Participants)))
	return fmt.Sprintf("meeting %q scheduled", m.Name), nil
}

func (r *Registry) remove(ctx context.Context, c RemoveCommand) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.meetings[c.Name]; !ok {
		return "", fmt.Errorf("%q: %w", c.Name, ErrNotFound)
	}
	if err := r.commitCandidate(ctx, r.withMeeting(c.Name, nil)); err != nil {
		return "", err
	}
	r.jobs.Cancel(c.Name)
	r.log.Info("meeting removed", logx.String("meeting", c.Name))
	return fmt.Sprintf("meeting %q removed", c.Name), nil
}

func (r *Registry) list() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.meetings) == 0 {
		return "no meetings scheduled", nil
	}
	names := make([]string, 0, len(r.meetings))
	for name := range r.meetings {
		names = append(names, name)
	}
	sort.Strings(names)

	now := r.now()
	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, "* %s (%s)\n", name, r.meetings[name].StatusAt(now))
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func (r *Registry) info(c InfoCommand) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.meetings[c.Name]
	if !ok {
		return "", fmt.Errorf("%q: %w", c.Name, ErrNotFound)
	}
	return m.Markdown(r.now()), nil
}

func (r *Registry) reschedule(ctx context.Context, c RescheduleCommand) (string, error) {
	if len(c.Schedules) == 0 {
		return "", validationf("reschedule needs at least one schedule")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.meetings[c.Name]
	if !ok {
		return "", fmt.Errorf("%q: %w", c.Name, ErrNotFound)
	}

	cand := m.clone()
	cand.Schedules = append([]Schedule(nil), c.Schedules...)
	if err := cand.normalize(); err != nil {
		return "", err
	}
	if _, err := cand.Triggers(); err != nil {
		return "", err
	}
	if err := r.commitCandidate(ctx, r.withMeeting(c.Name, cand)); err != nil {
		return "", err
	}
	r.jobs.Cancel(c.Name)
	if !cand.Paused {
		if err := r.armLocked(cand); err != nil {
			return "", err
		}
	}
	r.log.Info("meeting rescheduled", logx.String("meeting", c.Name),
		logx.Int("schedules", len(cand.Schedules)))
	return fmt.Sprintf("meeting %q rescheduled", c.Name), nil
}

func (r *Registry) addParticipant(ctx context.Context, c AddParticipantCommand) (string, error) {
	if len(c.Users) == 0 {
		return "", validationf("no users given")
	}
	members, err := r.resolve(ctx, c.Users)
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.meetings[c.Name]
	if !ok {
		return "", fmt.Errorf("%q: %w", c.Name, ErrNotFound)
	}
	for _, mem := range members {
		if m.hasMember(mem.Name) {
			return fmt.Sprintf("%s already participates in %q, nothing changed", mem.Name, c.Name), nil
		}
	}

	cand := m.clone()
	if c.Optional {
		cand.Optional = append(cand.Optional, members...)
	} else {
		// New required members enter at the current maximum weight so they
		// start competitive instead of starved.
		maxWeight := 0.0
		for _, p := range cand.Participants {
			if p.Weight > maxWeight {
				maxWeight = p.Weight
			}
		}
		for _, mem := range members {
			cand.Participants = append(cand.Participants,
				Participant{Name: mem.Name, ID: mem.ID, Weight: maxWeight})
		}
		cand.renormalizeWeights()
	}
	if err := r.commitCandidate(ctx, r.withMeeting(c.Name, cand)); err != nil {
		return "", err
	}
	role := "participant(s)"
	if c.Optional {
		role = "optional participant(s)"
	}
	return fmt.Sprintf("added %d %s to %q", len(members), role, c.Name), nil
}

func (r *Registry) removeParticipant(ctx context.Context, c RemoveParticipantCommand) (string, error) {
	if len(c.Users) == 0 {
		return "", validationf("no users given")
	}
	drop := make(map[string]bool, len(c.Users))
	for _, u := range c.Users {
		drop[u] = true
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.meetings[c.Name]
	if !ok {
		return "", fmt.Errorf("%q: %w", c.Name, ErrNotFound)
	}

	cand := m.clone()
	kept := cand.Participants[:0]
	for _, p := range cand.Participants {
		if !drop[p.Name] {
			kept = append(kept, p)
		}
	}
	removed := len(cand.Participants) - len(kept)
	if removed == 0 {
		return fmt.Sprintf("none of the given users are required participants of %q", c.Name), nil
	}
	cand.Participants = kept
	if len(cand.Participants) == 0 {
		return "", validationf("meeting %q must keep at least one participant", c.Name)
	}
	cand.renormalizeWeights()
	if err := r.commitCandidate(ctx, r.withMeeting(c.Name, cand)); err != nil {
		return "", err
	}
	return fmt.Sprintf("removed %d participant(s) from %q", removed, c.Name), nil
}

func (r *Registry) pause(ctx context.Context, c PauseCommand) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.meetings[c.Name]
	if !ok {
		return "", fmt.Errorf("%q: %w", c.Name, ErrNotFound)
	}
	if m.Paused {
		return fmt.Sprintf("meeting %q is already paused", c.Name), nil
	}

	cand := m.clone()
	cand.Paused = true
	if err := r.commitCandidate(ctx, r.withMeeting(c.Name, cand)); err != nil {
		return "", err
	}
	r.jobs.Cancel(c.Name)
	r.log.Info("meeting paused", logx.String("meeting", c.Name))
	return fmt.Sprintf("meeting %q paused", c.Name), nil
}

func (r *Registry) resume(ctx context.Context, c ResumeCommand) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.meetings[c.Name]
	if !ok {
		return "", fmt.Errorf("%q: %w", c.Name, ErrNotFound)
	}
	if !m.Paused {
		return fmt.Sprintf("meeting %q is not paused", c.Name), nil
	}

	cand := m.clone()
	cand.Paused = false
	if err := r.commitCandidate(ctx, r.withMeeting(c.Name, cand)); err != nil {
		return "", err
	}
	if err := r.armLocked(cand); err != nil {
		return "", err
	}
	r.log.Info("meeting resumed", logx.String("meeting", c.Name))
	return fmt.Sprintf("meeting %q resumed", c.Name), nil
}

// resolve maps display names to directory entries. An unknown name is a
// validation error; nothing is stored or mutated before every name resolves.
func (r *Registry) resolve(ctx context.Context, names []string) ([]Member, error) {
	if len(names) == 0 {
		return nil, nil
	}
	roster, err := r.directory.Members(ctx)
	if err != nil {
		return nil, fmt.Errorf("directory: %w", err)
	}
	byName := make(map[string]Member, len(roster))
	for _, mem := range roster {
		byName[strings.ToLower(mem.Name)] = mem
	}

	out := make([]Member, 0, len(names))
	seen := make(map[int64]bool, len(names))
	for _, name := range names {
		mem, ok := byName[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, validationf("unknown participant %q", name)
		}
		if seen[mem.ID] {
			continue
		}
		seen[mem.ID] = true
		out = append(out, mem)
	}
	return out, nil
}

// withMeeting builds the candidate registry state with one entry replaced
// (or, for a nil meeting, deleted). The current map is never mutated until
// the snapshot has been committed.
func (r *Registry) withMeeting(name string, m *Meeting) map[string]*Meeting {
	cand := make(map[string]*Meeting, len(r.meetings)+1)
	for k, v := range r.meetings {
		cand[k] = v
	}
	if m == nil {
		delete(cand, name)
	} else {
		cand[name] = m
	}
	return cand
}

// commitCandidate writes the full-collection snapshot and, only on success,
// makes the candidate state current. A failed commit leaves the in-memory
// registry untouched.
func (r *Registry) commitCandidate(ctx context.Context, cand map[string]*Meeting) error {
	data, err := json.MarshalIndent(cand, "", "  ")
	if err != nil {
		return fmt.Errorf("encode meetings: %w", err)
	}
	if err := r.store.Put(ctx, storageKey, data); err != nil {
		return fmt.Errorf("commit meetings: %w", err)
	}
	r.meetings = cand
	return nil
}

// armLocked registers one scheduler job per trigger of m. Callers hold r.mu;
// the scheduler never invokes callbacks while Arm runs, so this ordering
// cannot deadlock.
func (r *Registry) armLocked(m *Meeting) error {
	trigs, err := m.Triggers()
	if err != nil {
		return err
	}
	for _, t := range trigs {
		t := t
		r.jobs.Arm(t.ID, t.Next, func(ctx context.Context, at time.Time) {
			r.fire(ctx, t, at)
		})
	}
	return nil
}

// fire is the scheduler callback for one trigger occurrence. It never
// returns an error: background failures are logged and must not stall the
// timer loop.
func (r *Registry) fire(ctx context.Context, t Trigger, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.meetings[t.Meeting]
	if !ok || m.Paused {
		return
	}

	log := r.log.With(logx.String("meeting", t.Meeting), logx.String("trigger", t.ID))

	if t.sched != nil {
		if reason, skip := shouldSkip(t, at, r.holidays); skip {
			log.Debug("occurrence skipped", logx.String("reason", reason))
			r.publish(eventbus.TypeMeetingSkipped, t, reason)
			return
		}
	}

	if t.Reminder {
		if err := r.transport.Send(ctx, m.Reminder()); err != nil {
			log.Error("reminder delivery failed", logx.Err(err))
		}
		r.publish(eventbus.TypeMeetingFired, t, "")
		return
	}

	// Appointment: rotate on a candidate copy, deliver, commit, and only
	// then swap the decayed weights in. A failed commit drops the decay
	// instead of leaving memory and storage disagreeing.
	cand := m.clone()
	takers := cand.TakeMinutes(r.rng)
	if err := r.transport.Send(ctx, cand.Appointment(takers)); err != nil {
		log.Error("appointment delivery failed", logx.Err(err))
	}
	if err := r.commitCandidate(ctx, r.withMeeting(m.Name, cand)); err != nil {
		log.Error("rotation commit failed", logx.Err(err))
		return
	}
	log.Info("appointment fired", logx.String("minute_taker", takers[0].Name))
	r.publish(eventbus.TypeMeetingFired, t, "")
}

func (r *Registry) publish(eventType string, t Trigger, reason string) {
	if r.bus == nil {
		return
	}
	r.bus.Publish(eventbus.Event{
		Type: eventType,
		Time: r.now(),
		Data: eventbus.MeetingEvent{
			Meeting:  t.Meeting,
			Trigger:  t.ID,
			Reminder: t.Reminder,
			Reason:   reason,
		},
	})
}
