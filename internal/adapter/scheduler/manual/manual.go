// Package manual provides a deterministic scheduler driven by a fake clock.
// This is used for testing services without real timers.
package manual

import (
	"sort"
	"sync"
	"time"

	"github.com/tejashwikalptaru/gosketch/internal/ports"
)

// Scheduler runs callbacks inline on the calling goroutine and fires timers
// only when the clock is advanced.
//
// A callback posted while another one is running is queued and runs after it,
// matching the run-to-completion semantics of the real loop.
type Scheduler struct {
	mu      sync.Mutex
	now     time.Time
	timers  []*timer
	seq     int
	queue   []func()
	running bool
}

// Compile-time check
var _ ports.Scheduler = (*Scheduler)(nil)

// New returns a scheduler whose clock starts at start.
func New(start time.Time) *Scheduler {
	return &Scheduler{now: start}
}

// Post runs fn now, or after the running callback finishes.
func (s *Scheduler) Post(fn func()) {
	s.mu.Lock()
	s.queue = append(s.queue, fn)
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	s.drain()
}

func (s *Scheduler) drain() {
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.running = false
			s.mu.Unlock()
			return
		}
		fn := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		fn()
	}
}

// Call runs fn like Post. When called from a callback it runs fn after the
// current callback instead of deadlocking.
func (s *Scheduler) Call(fn func()) {
	s.Post(fn)
}

// Now returns the fake clock.
func (s *Scheduler) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// After fires fn once the clock has advanced by delay.
func (s *Scheduler) After(delay time.Duration, fn func()) ports.Timer {
	return s.add(delay, 0, fn)
}

// Every fires fn each time the clock crosses a multiple of interval.
func (s *Scheduler) Every(interval time.Duration, fn func()) ports.Timer {
	if interval <= 0 {
		return &timer{s: s, stopped: true}
	}
	return s.add(interval, interval, fn)
}

func (s *Scheduler) add(delay, interval time.Duration, fn func()) *timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if delay < 0 {
		delay = 0
	}
	s.seq++
	t := &timer{s: s, due: s.now.Add(delay), interval: interval, fn: fn, seq: s.seq}
	s.timers = append(s.timers, t)
	return t
}

// Advance moves the clock forward by d, firing due timers in time order.
// Each firing sees the clock at its due time.
func (s *Scheduler) Advance(d time.Duration) {
	s.mu.Lock()
	end := s.now.Add(d)
	s.mu.Unlock()

	for {
		s.mu.Lock()
		t := s.nextDue(end)
		if t == nil {
			s.now = end
			s.mu.Unlock()
			return
		}
		s.now = t.due
		if t.interval > 0 {
			t.due = t.due.Add(t.interval)
		} else {
			t.stopped = true
			s.remove(t)
		}
		fn := t.fn
		s.mu.Unlock()

		s.Post(func() {
			s.mu.Lock()
			dead := t.stopped && t.interval > 0
			s.mu.Unlock()
			if !dead {
				fn()
			}
		})
	}
}

func (s *Scheduler) nextDue(end time.Time) *timer {
	sort.SliceStable(s.timers, func(i, j int) bool {
		if s.timers[i].due.Equal(s.timers[j].due) {
			return s.timers[i].seq < s.timers[j].seq
		}
		return s.timers[i].due.Before(s.timers[j].due)
	})
	if len(s.timers) == 0 || s.timers[0].due.After(end) {
		return nil
	}
	return s.timers[0]
}

func (s *Scheduler) remove(t *timer) {
	for i, other := range s.timers {
		if other == t {
			s.timers = append(s.timers[:i], s.timers[i+1:]...)
			return
		}
	}
}

// Pending returns the number of live timers.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

type timer struct {
	s        *Scheduler
	due      time.Time
	interval time.Duration
	fn       func()
	seq      int
	stopped  bool
}

// Stop removes the timer.
func (t *timer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.stopped {
		return false
	}
	t.stopped = true
	t.s.remove(t)
	return true
}
