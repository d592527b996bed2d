package envelope

import (
	"fmt"
	"sync"

	"github.com/tejashwikalptaru/gosketch/internal/domain"
)

type entry interface {
	Reset()
	Anomalies() int
}

// Bank is the envelope state owned by one active patch.
//
// Envelopes are declared by name so bindings can document what they read.
// A bank is created at rest when a patch activates and released when it
// deactivates; a released bank refuses new envelopes and holds no references.
type Bank struct {
	mu       sync.Mutex
	entries  map[string]entry
	order    []string
	released bool
}

// NewBank returns an empty bank.
func NewBank() *Bank {
	return &Bank{entries: make(map[string]entry)}
}

// Smoother declares an exponential smoothing envelope.
func (b *Bank) Smoother(name string, alpha float64) (*Smoother, error) {
	s := NewSmoother(alpha)
	if err := b.add(name, s); err != nil {
		return nil, err
	}
	return s, nil
}

// PeakHold declares an attack/release envelope.
func (b *Bank) PeakHold(name string, decay float64) (*PeakHold, error) {
	p := NewPeakHold(decay)
	if err := b.add(name, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Gate declares a threshold gate.
func (b *Bank) Gate(name string, level float64) (*Threshold, error) {
	g := NewThreshold(level)
	if err := b.add(name, g); err != nil {
		return nil, err
	}
	return g, nil
}

// Chain declares a composed envelope.
func (b *Bank) Chain(name string, stages ...Stage) (*Chain, error) {
	c := NewChain(stages...)
	if err := b.add(name, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Accumulator declares a cooldown-limited accumulator.
func (b *Bank) Accumulator(name string, acc Accumulator) (*Accumulator, error) {
	a := &acc
	a.Reset()
	if err := b.add(name, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (b *Bank) add(name string, e entry) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.released {
		return domain.ErrBankReleased
	}
	if _, exists := b.entries[name]; exists {
		return fmt.Errorf("%w: %q", domain.ErrDuplicateEnvelope, name)
	}
	b.entries[name] = e
	b.order = append(b.order, name)
	return nil
}

// Has reports whether an envelope with the given name was declared.
func (b *Bank) Has(name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.entries[name]
	return ok
}

// Names returns the declared envelope names in declaration order.
func (b *Bank) Names() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.order))
	copy(out, b.order)
	return out
}

// Len returns the number of declared envelopes.
func (b *Bank) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.order)
}

// Reset returns every envelope to its rest value.
func (b *Bank) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, e := range b.entries {
		e.Reset()
	}
}

// Anomalies returns the total number of non-finite samples the bank's
// envelopes ignored.
func (b *Bank) Anomalies() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	total := 0
	for _, e := range b.entries {
		total += e.Anomalies()
	}
	return total
}

// Release drops every envelope. Further declarations fail with
// domain.ErrBankReleased.
func (b *Bank) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = nil
	b.order = nil
	b.released = true
}

// Released reports whether Release was called.
func (b *Bank) Released() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.released
}
