package patch

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tejashwikalptaru/gosketch/internal/binder"
	"github.com/tejashwikalptaru/gosketch/internal/domain"
	"github.com/tejashwikalptaru/gosketch/internal/envelope"
	"github.com/tejashwikalptaru/gosketch/internal/graph"
	"github.com/tejashwikalptaru/gosketch/internal/ports"
)

// Context is handed to a patch setup. It owns every resource the setup
// allocates: envelopes, bindings and updater handles.
//
// Declaration errors are sticky. The first one is kept, later declarations
// return detached envelopes so setup code can stay linear, and Err reports it
// once setup returns.
type Context struct {
	info   domain.PatchInfo
	env    Env
	logger *slog.Logger

	bank   *envelope.Bank
	binder *binder.Binder

	mu       sync.Mutex
	updaters []ports.Timer
	err      error
}

func newContext(info domain.PatchInfo, env Env) *Context {
	return &Context{
		info:   info,
		env:    env,
		logger: env.Logger.With(slog.String("patch", info.Name)),
		bank:   envelope.NewBank(),
		binder: binder.New(),
	}
}

// Info returns the identity of the patch being set up.
func (c *Context) Info() domain.PatchInfo { return c.info }

// Logger returns a logger scoped to the patch.
func (c *Context) Logger() *slog.Logger { return c.logger }

// Err returns the first declaration error.
func (c *Context) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *Context) fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err == nil {
		c.err = err
	}
}

// Smoother declares an exponential smoothing envelope.
func (c *Context) Smoother(name string, alpha float64) *envelope.Smoother {
	s, err := c.bank.Smoother(name, alpha)
	if err != nil {
		c.fail(err)
		return envelope.NewSmoother(alpha)
	}
	return s
}

// PeakHold declares an attack/release envelope.
func (c *Context) PeakHold(name string, decay float64) *envelope.PeakHold {
	p, err := c.bank.PeakHold(name, decay)
	if err != nil {
		c.fail(err)
		return envelope.NewPeakHold(decay)
	}
	return p
}

// Gate declares a threshold gate.
func (c *Context) Gate(name string, level float64) *envelope.Threshold {
	g, err := c.bank.Gate(name, level)
	if err != nil {
		c.fail(err)
		return envelope.NewThreshold(level)
	}
	return g
}

// Accumulator declares a cooldown-limited accumulator.
func (c *Context) Accumulator(name string, acc envelope.Accumulator) *envelope.Accumulator {
	a, err := c.bank.Accumulator(name, acc)
	if err != nil {
		c.fail(err)
		return &acc
	}
	return a
}

// Every starts a periodic updater owned by the patch.
func (c *Context) Every(interval time.Duration, fn func()) {
	if interval <= 0 {
		c.fail(fmt.Errorf("updater interval must be positive, got %v", interval))
		return
	}
	t := c.env.Scheduler.Every(interval, fn)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.updaters = append(c.updaters, t)
}

// Updaters returns the number of running updaters.
func (c *Context) Updaters() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.updaters)
}

// Bind wraps fn as a graph parameter. reads names what fn reads.
func (c *Context) Bind(slot string, fn func() float64, reads ...string) graph.Param {
	return c.binder.Bind(slot, fn, reads...)
}

// Band returns band i of the current signal frame, or NaN when there is none.
func (c *Context) Band(i int) float64 {
	frame := c.env.Source.Read()
	return frame.Band(i)
}

// Time returns the renderer clock in seconds.
func (c *Context) Time() float64 {
	return c.env.Renderer.Time()
}

// Now returns the scheduler clock.
func (c *Context) Now() time.Time {
	return c.env.Scheduler.Now()
}

// Out declares chain as the graph for output.
func (c *Context) Out(output int, chain *graph.Chain) {
	if err := c.env.Renderer.Out(output, chain); err != nil {
		c.fail(fmt.Errorf("output %d: %w", output, err))
	}
}

// release stops every updater, then drops bindings and envelopes.
func (c *Context) release() {
	c.mu.Lock()
	updaters := c.updaters
	c.updaters = nil
	c.mu.Unlock()

	for _, t := range updaters {
		t.Stop()
	}
	c.binder.Close()
	c.bank.Release()
}
