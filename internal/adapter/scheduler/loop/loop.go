// Package loop provides the event loop every reactive callback runs on.
//
// Signal reads, updater ticks, frame evaluation and interaction handlers are
// queued onto a single goroutine and run one at a time to completion, so
// envelope state is never touched by two callbacks at once.
package loop

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tejashwikalptaru/gosketch/internal/ports"
)

// Loop is a single-goroutine cooperative scheduler.
//
// Thread-safety: Post, Call, After and Every may be called from any goroutine.
type Loop struct {
	logger *slog.Logger

	mu     sync.Mutex
	queue  []func()
	wake   chan struct{}
	quit   chan struct{}
	closed bool
	timers map[*timer]struct{}

	wg sync.WaitGroup
}

// Compile-time check
var _ ports.Scheduler = (*Loop)(nil)

// New starts a loop.
func New(logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Loop{
		logger: logger.With(slog.String("component", "loop")),
		wake:   make(chan struct{}, 1),
		quit:   make(chan struct{}),
		timers: make(map[*timer]struct{}),
	}

	l.wg.Add(1)
	go l.run()

	return l
}

func (l *Loop) run() {
	defer l.wg.Done()

	for {
		select {
		case <-l.quit:
			return
		case <-l.wake:
		}

		for {
			fn := l.next()
			if fn == nil {
				break
			}
			l.invoke(fn)
		}
	}
}

func (l *Loop) next() func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed || len(l.queue) == 0 {
		return nil
	}
	fn := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return fn
}

// invoke runs fn and keeps a panicking callback from killing the loop.
func (l *Loop) invoke(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("callback panicked", slog.Any("panic", r))
		}
	}()
	fn()
}

// Post queues fn. Callbacks posted after Close are dropped.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Call runs fn on the loop and waits for it. It returns without running fn
// when the loop is closed.
func (l *Loop) Call(fn func()) {
	done := make(chan struct{})
	l.Post(func() {
		defer close(done)
		fn()
	})

	select {
	case <-done:
	case <-l.quit:
	}
}

// Now returns the wall clock.
func (l *Loop) Now() time.Time {
	return time.Now()
}

// After runs fn on the loop once delay has passed.
func (l *Loop) After(delay time.Duration, fn func()) ports.Timer {
	t := &timer{loop: l}
	if !l.track(t) {
		t.stopped.Store(true)
		return t
	}

	t.mu.Lock()
	t.after = time.AfterFunc(delay, func() {
		l.Post(func() {
			if !t.stopped.CompareAndSwap(false, true) {
				return
			}
			l.untrack(t)
			fn()
		})
	})
	t.mu.Unlock()

	return t
}

// Every runs fn on the loop every interval. A tick that is still queued when
// the next one is due is not queued twice.
func (l *Loop) Every(interval time.Duration, fn func()) ports.Timer {
	t := &timer{loop: l, stop: make(chan struct{})}
	if interval <= 0 || !l.track(t) {
		t.stopped.Store(true)
		return t
	}

	var pending atomic.Bool

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-t.stop:
				return
			case <-ticker.C:
				if !pending.CompareAndSwap(false, true) {
					continue
				}
				l.Post(func() {
					pending.Store(false)
					if t.stopped.Load() {
						return
					}
					fn()
				})
			}
		}
	}()

	return t
}

// Pending returns the number of live timers.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.timers)
}

func (l *Loop) track(t *timer) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return false
	}
	l.timers[t] = struct{}{}
	return true
}

func (l *Loop) untrack(t *timer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.timers, t)
}

// Close stops every timer and the loop goroutine and waits for them to exit.
// Queued callbacks that have not started are dropped. Must not be called
// from a loop callback.
func (l *Loop) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	timers := make([]*timer, 0, len(l.timers))
	for t := range l.timers {
		timers = append(timers, t)
	}
	l.queue = nil
	l.mu.Unlock()

	for _, t := range timers {
		t.Stop()
	}
	close(l.quit)
	l.wg.Wait()

	l.logger.Debug("loop closed")
}

type timer struct {
	loop *Loop

	mu      sync.Mutex
	after   *time.Timer
	stop    chan struct{}
	stopped atomic.Bool
}

// Stop cancels the timer. Ticks already queued on the loop see the stopped
// flag and return without calling the callback.
func (t *timer) Stop() bool {
	if !t.stopped.CompareAndSwap(false, true) {
		return false
	}
	t.mu.Lock()
	if t.after != nil {
		t.after.Stop()
	}
	t.mu.Unlock()
	if t.stop != nil {
		close(t.stop)
	}
	t.loop.untrack(t)
	return true
}
