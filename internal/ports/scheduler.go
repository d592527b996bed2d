// Package ports define the scheduler interface for the cooperative event loop.
package ports

import "time"

// Scheduler runs callbacks one at a time on a single event loop.
//
// Signal reads, periodic updater ticks, frame evaluation and user interaction
// handlers all run through the scheduler, so two callbacks never run
// concurrently and envelope state needs no locking.
type Scheduler interface {
	// Post queues fn to run on the loop and returns immediately.
	Post(fn func())

	// Call runs fn on the loop and waits for it to finish.
	// Must not be called from a loop callback.
	Call(fn func())

	// After runs fn once on the loop after delay.
	After(delay time.Duration, fn func()) Timer

	// Every runs fn on the loop every interval until the timer is stopped.
	Every(interval time.Duration, fn func()) Timer

	// Now returns the scheduler's current time.
	Now() time.Time
}

// Timer is a handle to a scheduled callback.
type Timer interface {
	// Stop cancels the timer. When called from the loop, the callback is
	// guaranteed not to run again once Stop returns.
	//
	// Returns false if the timer had already been stopped or had fired.
	Stop() bool
}
