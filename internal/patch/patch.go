// Package patch implements the patch lifecycle.
//
// A patch bundles its signal-source configuration, the envelopes it owns,
// the parameter bindings that read them and the periodic updaters that drive
// them. Everything a patch allocates while activating is owned by the active
// patch record and released as a unit when it deactivates.
package patch

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tejashwikalptaru/gosketch/internal/binder"
	"github.com/tejashwikalptaru/gosketch/internal/domain"
	"github.com/tejashwikalptaru/gosketch/internal/envelope"
	"github.com/tejashwikalptaru/gosketch/internal/ports"
)

// Patch is a visual configuration with uniform activate/deactivate hooks.
type Patch interface {
	// Info returns the patch identity.
	Info() domain.PatchInfo

	// State returns the lifecycle state.
	State() domain.PatchState

	// Activate clears the surface, configures the signal source, creates the
	// envelopes at rest, starts updaters and declares the parameter graph.
	Activate(env Env) error

	// Deactivate cancels every updater started by Activate and releases the
	// patch's envelopes. No-op unless the patch is active.
	Deactivate() error

	// Updaters returns the number of running periodic updaters.
	Updaters() int
}

// Env holds the collaborators a patch activates against.
type Env struct {
	Renderer  ports.Renderer
	Source    ports.SignalSource
	Scheduler ports.Scheduler
	Logger    *slog.Logger
}

func (e Env) validate() error {
	switch {
	case e.Renderer == nil:
		return domain.ErrNoRenderer
	case e.Source == nil, e.Scheduler == nil:
		return domain.ErrNotInitialized
	}
	return nil
}

// Definition describes a patch.
type Definition struct {
	Name   string
	Source domain.SourceConfig
	// Setup declares envelopes, updaters and outputs through the context.
	Setup func(ctx *Context) error
}

// Sketch is a Patch built from a Definition.
//
// Thread-safety: lifecycle calls are serialized by the switcher; the state
// accessors may be called from any goroutine.
type Sketch struct {
	info domain.PatchInfo
	def  Definition

	mu    sync.Mutex
	state domain.PatchState
	ctx   *Context
}

// Compile-time check
var _ Patch = (*Sketch)(nil)

// New returns an uninitialized sketch at index.
func New(index int, def Definition) *Sketch {
	return &Sketch{
		info:  domain.PatchInfo{Index: index, Name: def.Name},
		def:   def,
		state: domain.PatchUninitialized,
	}
}

// Info returns the sketch identity.
func (s *Sketch) Info() domain.PatchInfo {
	return s.info
}

// Definition returns the definition the sketch was built from.
func (s *Sketch) Definition() Definition {
	return s.def
}

// State returns the lifecycle state.
func (s *Sketch) State() domain.PatchState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Activate runs the sketch setup against env. On failure everything the
// setup allocated is released and the sketch keeps its previous state.
func (s *Sketch) Activate(env Env) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == domain.PatchActive {
		return domain.NewPatchError("activate", s.info.Name, domain.ErrAlreadyInitialized)
	}
	if err := env.validate(); err != nil {
		return domain.NewPatchError("activate", s.info.Name, err)
	}
	if env.Logger == nil {
		env.Logger = slog.Default()
	}

	env.Renderer.Clear()

	if err := env.Source.Configure(s.def.Source); err != nil {
		return domain.NewPatchError("configure source", s.info.Name, err)
	}
	env.Source.Show()

	ctx := newContext(s.info, env)
	if err := s.setup(ctx); err != nil {
		ctx.release()
		env.Renderer.Clear()
		return domain.NewPatchError("setup", s.info.Name, err)
	}

	s.ctx = ctx
	s.state = domain.PatchActive

	env.Logger.Debug("patch activated",
		slog.Int("index", s.info.Index),
		slog.String("name", s.info.Name),
		slog.Int("envelopes", ctx.bank.Len()),
		slog.Int("bindings", ctx.binder.Len()),
		slog.Int("updaters", ctx.Updaters()))

	return nil
}

// setup runs the definition, turning a panic into an error.
func (s *Sketch) setup(ctx *Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("setup panicked: %v", r)
		}
	}()

	if s.def.Setup != nil {
		err = s.def.Setup(ctx)
	}
	return errors.Join(err, ctx.Err())
}

// Deactivate stops every updater and releases the envelopes and bindings.
func (s *Sketch) Deactivate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != domain.PatchActive {
		return nil
	}

	s.ctx.release()
	s.ctx = nil
	s.state = domain.PatchDeactivated

	return nil
}

// Updaters returns the number of running periodic updaters.
func (s *Sketch) Updaters() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx == nil {
		return 0
	}
	return s.ctx.Updaters()
}

// Envelopes returns the names of the active envelopes.
func (s *Sketch) Envelopes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx == nil {
		return nil
	}
	return s.ctx.bank.Names()
}

// Bindings returns the active parameter bindings.
func (s *Sketch) Bindings() []binder.Binding {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx == nil {
		return nil
	}
	return s.ctx.binder.Bindings()
}

// Anomalies returns the number of non-finite samples the active envelopes
// ignored since activation.
func (s *Sketch) Anomalies() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx == nil {
		return 0
	}
	return s.ctx.bank.Anomalies()
}

// bank is exposed to tests in this package.
func (s *Sketch) bank() *envelope.Bank {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx == nil {
		return nil
	}
	return s.ctx.bank
}
