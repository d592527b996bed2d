// Package service provides the patch switching and display session logic for GoSketch.
package service

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tejashwikalptaru/gosketch/internal/domain"
	"github.com/tejashwikalptaru/gosketch/internal/patch"
	"github.com/tejashwikalptaru/gosketch/internal/ports"
)

// EnvFunc returns the collaborators the next activation runs against.
type EnvFunc func() patch.Env

// SwitcherService holds the ordered patch registry and performs transitions.
//
// A transition deactivates the current patch, which stops all of its
// updaters, before the next patch is activated. Only one transition runs at
// a time; a request arriving while one is in progress is dropped and
// reported with a switch-dropped event.
type SwitcherService struct {
	// Dependencies (injected)
	logger *slog.Logger
	bus    ports.EventBus
	envFn  EnvFunc

	// State
	patches       []patch.Patch
	index         int  // Position in the rotation, -1 before the first selection
	live          bool // True if patches[index] activated successfully
	transitioning bool

	mu sync.Mutex
}

// NewSwitcherService creates a switcher over patches. Nothing is activated
// until Select or Advance is called.
func NewSwitcherService(
	logger *slog.Logger,
	bus ports.EventBus,
	patches []patch.Patch,
	envFn EnvFunc,
) (*SwitcherService, error) {
	if len(patches) == 0 {
		return nil, domain.ErrEmptyRegistry
	}
	if envFn == nil {
		return nil, fmt.Errorf("switcher: %w: missing environment", domain.ErrNotInitialized)
	}

	list := make([]patch.Patch, len(patches))
	copy(list, patches)

	s := &SwitcherService{
		logger:  logger.With(slog.String("service", "switcher")),
		bus:     bus,
		envFn:   envFn,
		patches: list,
		index:   -1,
	}

	s.logger.Debug("switcher service initialized", slog.Int("patches", len(list)))

	return s, nil
}

// Count returns the number of registered patches.
func (s *SwitcherService) Count() int {
	return len(s.patches)
}

// Patches returns the identity of every registered patch in order.
func (s *SwitcherService) Patches() []domain.PatchInfo {
	out := make([]domain.PatchInfo, len(s.patches))
	for i, p := range s.patches {
		out[i] = p.Info()
	}
	return out
}

// Active returns the current rotation index and whether that patch is running.
func (s *SwitcherService) Active() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index, s.live
}

// Current returns the running patch, if any.
func (s *SwitcherService) Current() (patch.Patch, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.live {
		return nil, false
	}
	return s.patches[s.index], true
}

// Select switches to the patch at index.
func (s *SwitcherService) Select(index int) error {
	if index < 0 || index >= len(s.patches) {
		return fmt.Errorf("%w: %d", domain.ErrInvalidPatchIndex, index)
	}
	return s.run(func(int) int { return index })
}

// Advance switches to the next patch, wrapping at the end.
// From the initial state it selects the first patch.
func (s *SwitcherService) Advance() error {
	return s.run(func(current int) int {
		return (current + 1) % len(s.patches)
	})
}

// Reload re-activates the current patch against a fresh environment, which
// resets its envelopes. Used after the renderer was reconstructed.
func (s *SwitcherService) Reload() error {
	s.mu.Lock()
	index := s.index
	s.mu.Unlock()

	if index < 0 {
		return domain.ErrPatchNotActive
	}
	return s.run(func(current int) int { return current })
}

// run performs one transition to the index chosen by pick.
func (s *SwitcherService) run(pick func(current int) int) error {
	s.mu.Lock()
	if s.transitioning {
		requested := pick(s.index)
		s.mu.Unlock()

		s.logger.Debug("switch dropped, transition in progress", slog.Int("requested", requested))
		s.bus.Publish(domain.NewSwitchDroppedEvent(requested))
		return domain.ErrTransitionInProgress
	}
	s.transitioning = true
	from, live := s.index, s.live
	next := pick(from)
	s.mu.Unlock()

	err := s.transition(from, live, next)

	s.mu.Lock()
	s.index = next
	s.live = err == nil
	s.transitioning = false
	s.mu.Unlock()

	return err
}

// transition deactivates from (when live) and activates next.
func (s *SwitcherService) transition(from int, live bool, next int) error {
	if live {
		s.deactivate(s.patches[from])
	}

	p := s.patches[next]
	info := p.Info()

	if err := p.Activate(s.envFn()); err != nil {
		s.logger.Error("patch activation failed",
			slog.Int("index", info.Index),
			slog.String("name", info.Name),
			slog.Any("error", err))
		s.bus.Publish(domain.NewPatchErrorEvent(info, err))
		return err
	}

	s.logger.Info("patch activated",
		slog.Int("index", info.Index),
		slog.String("name", info.Name),
		slog.Int("updaters", p.Updaters()))
	s.bus.Publish(domain.NewPatchActivatedEvent(info, p.Updaters()))

	return nil
}

func (s *SwitcherService) deactivate(p patch.Patch) {
	info := p.Info()
	if err := p.Deactivate(); err != nil {
		s.logger.Warn("patch deactivation failed", slog.String("name", info.Name), slog.Any("error", err))
		s.bus.Publish(domain.NewPatchErrorEvent(info, err))
	}
	if n := p.Updaters(); n != 0 {
		s.logger.Error("patch left updaters running", slog.String("name", info.Name), slog.Int("updaters", n))
	}
	s.bus.Publish(domain.NewPatchDeactivatedEvent(info))
}

// Shutdown deactivates the running patch.
func (s *SwitcherService) Shutdown() error {
	s.mu.Lock()
	if s.transitioning {
		s.mu.Unlock()
		return domain.ErrTransitionInProgress
	}
	from, live := s.index, s.live
	s.live = false
	s.mu.Unlock()

	if live {
		s.deactivate(s.patches[from])
	}

	s.logger.Debug("switcher service shut down")
	return nil
}

// IsDropped reports whether err means a switch request was dropped.
func IsDropped(err error) bool {
	return errors.Is(err, domain.ErrTransitionInProgress)
}
