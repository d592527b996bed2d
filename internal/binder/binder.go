// Package binder maps envelope outputs onto effect graph parameters.
//
// A Binder hands out graph parameters backed by zero-argument accessors. The
// renderer pulls each accessor once per frame; the binder itself holds no
// signal state, it only records which slot reads which envelopes.
package binder

import (
	"sort"
	"sync"

	"github.com/tejashwikalptaru/gosketch/internal/graph"
)

// Binding describes one bound parameter slot.
type Binding struct {
	Slot  string
	Reads []string
}

type binding struct {
	Binding
	fn func() float64
}

// Binder records parameter slots and the envelopes their accessors read.
type Binder struct {
	mu       sync.Mutex
	bindings []binding
	closed   bool
}

// New returns an empty binder.
func New() *Binder {
	return &Binder{}
}

// Bind registers fn under slot and returns the parameter to place in a chain.
// reads names the envelopes fn updates or reads; two slots naming the same
// envelope share it intentionally.
//
// Once the binder is closed the returned parameter evaluates to zero.
func (b *Binder) Bind(slot string, fn func() float64, reads ...string) graph.Param {
	b.mu.Lock()
	defer b.mu.Unlock()

	r := make([]string, len(reads))
	copy(r, reads)
	b.bindings = append(b.bindings, binding{Binding: Binding{Slot: slot, Reads: r}, fn: fn})

	return graph.Fn(func() float64 {
		if b.isClosed() {
			return 0
		}
		return fn()
	})
}

func (b *Binder) isClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// Bindings returns the registered slots in registration order.
func (b *Binder) Bindings() []Binding {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Binding, len(b.bindings))
	for i, bd := range b.bindings {
		out[i] = bd.Binding
	}
	return out
}

// Readers returns the slots reading envelope, sorted.
func (b *Binder) Readers(envelope string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var slots []string
	for _, bd := range b.bindings {
		for _, r := range bd.Reads {
			if r == envelope {
				slots = append(slots, bd.Slot)
				break
			}
		}
	}
	sort.Strings(slots)
	return slots
}

// Sample evaluates every accessor once and returns the values by slot.
// Slots registered more than once report the last accessor's value.
func (b *Binder) Sample() map[string]float64 {
	b.mu.Lock()
	fns := make([]binding, len(b.bindings))
	copy(fns, b.bindings)
	closed := b.closed
	b.mu.Unlock()

	out := make(map[string]float64, len(fns))
	for _, bd := range fns {
		if closed {
			out[bd.Slot] = 0
			continue
		}
		out[bd.Slot] = graph.Fn(bd.fn).Eval()
	}
	return out
}

// Len returns the number of bindings.
func (b *Binder) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.bindings)
}

// Close drops every accessor. Parameters handed out earlier evaluate to zero
// afterwards, so a renderer still holding an old chain cannot touch released
// envelope state.
func (b *Binder) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.bindings = nil
}
