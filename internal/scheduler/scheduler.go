// Package scheduler runs the background timer loop behind the meeting
// registry. It knows nothing about meetings: a job is an id, a pure
// next-occurrence function, and a callback.
//
// Lock discipline: the service mutex is never held while a callback runs, so
// callbacks are free to call back into Arm/Cancel (directly or through the
// registry lock) without deadlocking.
package scheduler

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tmichela/dana/pkg/logx"
)

// NextFunc computes the first occurrence strictly after the given instant.
// ok=false retires the job.
type NextFunc = func(after time.Time) (time.Time, bool)

type job struct {
	id   string
	next time.Time
	fn   NextFunc
	run  func(ctx context.Context, at time.Time)
}

// JobInfo is a read-only snapshot of one armed job.
type JobInfo struct {
	ID   string
	Next time.Time
}

type Option func(*Service)

// WithClock replaces the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLogger(log logx.Logger) Option {
	return func(s *Service) { s.log = log }
}

type Service struct {
	log logx.Logger
	now func() time.Time

	mu   sync.Mutex
	jobs map[string]*job
	wake chan struct{}
}

func New(opts ...Option) *Service {
	s := &Service{
		log:  logx.Nop(),
		now:  time.Now,
		jobs: map[string]*job{},
		wake: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(logx.String("component", "scheduler"))
	return s
}

// Arm registers a job, replacing any existing job with the same id. A job
// whose first occurrence never comes is dropped immediately.
func (s *Service) Arm(id string, next NextFunc, run func(ctx context.Context, at time.Time)) {
	at, ok := next(s.now())
	if !ok {
		s.mu.Lock()
		delete(s.jobs, id)
		s.mu.Unlock()
		s.log.Debug("job never fires, not armed", logx.String("job", id))
		return
	}

	s.mu.Lock()
	s.jobs[id] = &job{id: id, next: at, fn: next, run: run}
	s.mu.Unlock()

	s.log.Debug("job armed", logx.String("job", id), logx.Time("next", at))
	s.poke()
}

// Cancel removes the job with the exact id plus every job in its
// dot-separated namespace: Cancel("standup") drops "standup",
// "standup.reminder" and "standup.schedule-1", but not "standup2".
func (s *Service) Cancel(id string) {
	prefix := id + "."

	s.mu.Lock()
	removed := 0
	for jid := range s.jobs {
		if jid == id || len(jid) > len(prefix) && jid[:len(prefix)] == prefix {
			delete(s.jobs, jid)
			removed++
		}
	}
	s.mu.Unlock()

	if removed > 0 {
		s.log.Debug("jobs cancelled", logx.String("job", id), logx.Int("count", removed))
		s.poke()
	}
}

// Jobs returns the armed jobs sorted by next occurrence.
func (s *Service) Jobs() []JobInfo {
	s.mu.Lock()
	out := make([]JobInfo, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, JobInfo{ID: j.id, Next: j.next})
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, k int) bool { return out[i].Next.Before(out[k].Next) })
	return out
}

// Run is the timer loop: sleep until the earliest due job, fire everything
// due synchronously, recompute, repeat. It returns when ctx is cancelled.
// One failing or slow callback delays later jobs but never kills the loop;
// panic containment is the supervisor's concern.
func (s *Service) Run(ctx context.Context) error {
	for {
		var timerC <-chan time.Time
		var timer *time.Timer
		if wait, ok := s.nextWait(); ok {
			timer = time.NewTimer(wait)
			timerC = timer.C
		}

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return ctx.Err()
		case <-s.wake:
			if timer != nil {
				timer.Stop()
			}
			continue
		case <-timerC:
		}

		s.fireDue(ctx)
	}
}

// Tick fires everything currently due. Exposed so tests can drive the
// service with a fake clock instead of the Run loop.
func (s *Service) Tick(ctx context.Context) { s.fireDue(ctx) }

func (s *Service) nextWait() (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.jobs) == 0 {
		return 0, false
	}
	earliest := time.Time{}
	for _, j := range s.jobs {
		if earliest.IsZero() || j.next.Before(earliest) {
			earliest = j.next
		}
	}
	wait := earliest.Sub(s.now())
	if wait < 0 {
		wait = 0
	}
	return wait, true
}

func (s *Service) fireDue(ctx context.Context) {
	now := s.now()

	// Advance every due job before running any callback, so a slow callback
	// cannot make the same occurrence fire twice.
	s.mu.Lock()
	var due []*job
	for id, j := range s.jobs {
		if j.next.After(now) {
			continue
		}
		due = append(due, &job{id: j.id, next: j.next, fn: j.fn, run: j.run})
		if nx, ok := j.fn(now); ok {
			j.next = nx
		} else {
			delete(s.jobs, id)
		}
	}
	s.mu.Unlock()

	sort.Slice(due, func(i, k int) bool { return due[i].next.Before(due[k].next) })
	for _, j := range due {
		if ctx.Err() != nil {
			return
		}
		s.log.Debug("job firing", logx.String("job", j.id), logx.Time("at", j.next))
		j.run(ctx, j.next)
	}
}

func (s *Service) poke() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}
