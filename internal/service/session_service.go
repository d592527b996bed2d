package service

import (
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/tejashwikalptaru/gosketch/internal/domain"
	"github.com/tejashwikalptaru/gosketch/internal/patch"
	"github.com/tejashwikalptaru/gosketch/internal/ports"
)

// DefaultSettleDelay is how long the session waits after a fullscreen
// request before reading the final surface size.
const DefaultSettleDelay = 100 * time.Millisecond

// SessionConfig holds the display session settings.
type SessionConfig struct {
	SettleDelay     time.Duration
	RendererOptions ports.RendererOptions
}

// DefaultSessionConfig returns the default session settings.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		SettleDelay:     DefaultSettleDelay,
		RendererOptions: ports.RendererOptions{DetectAudio: true},
	}
}

// SessionService owns the rendering surface: its size, its fullscreen state
// and the renderer bound to it. It implements ports.DisplayEvents.
//
// Every state change runs on the scheduler, so display adapters may call it
// from any goroutine. The first interaction requests fullscreen and, after
// the settle delay, resizes and activates the first patch; every later
// interaction advances the switcher.
type SessionService struct {
	// Dependencies (injected)
	logger   *slog.Logger
	bus      ports.EventBus
	sched    ports.Scheduler
	display  ports.Display
	factory  ports.RendererFactory
	source   ports.SignalSource
	switcher *SwitcherService
	config   SessionConfig

	// State
	started  bool
	pending  bool
	size     domain.Size
	renderer ports.Renderer
	settle   ports.Timer

	mu sync.RWMutex
}

// Compile-time check
var _ ports.DisplayEvents = (*SessionService)(nil)

// NewSessionService creates a display session.
func NewSessionService(
	logger *slog.Logger,
	bus ports.EventBus,
	sched ports.Scheduler,
	display ports.Display,
	factory ports.RendererFactory,
	source ports.SignalSource,
	config SessionConfig,
) *SessionService {
	if config.SettleDelay < 0 {
		config.SettleDelay = 0
	}

	s := &SessionService{
		logger:  logger.With(slog.String("service", "session")),
		bus:     bus,
		sched:   sched,
		display: display,
		factory: factory,
		source:  source,
		config:  config,
	}

	s.logger.Debug("session service initialized", slog.Duration("settle_delay", config.SettleDelay))

	return s
}

// Attach sets the switcher the session drives. Must be called before the
// display starts delivering events.
func (s *SessionService) Attach(switcher *SwitcherService) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.switcher = switcher
}

// Env returns the collaborators for the next patch activation.
func (s *SessionService) Env() patch.Env {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return patch.Env{
		Renderer:  s.renderer,
		Source:    s.source,
		Scheduler: s.sched,
		Logger:    s.logger,
	}
}

// Started reports whether the first interaction happened.
func (s *SessionService) Started() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// Settling reports whether the first activation is waiting for the settle delay.
func (s *SessionService) Settling() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pending
}

// Size returns the current surface size.
func (s *SessionService) Size() domain.Size {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.size
}

// Renderer returns the current renderer, or nil before the first resize.
func (s *SessionService) Renderer() ports.Renderer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.renderer
}

// OnResize rebuilds the renderer for size.
func (s *SessionService) OnResize(size domain.Size) {
	s.sched.Post(func() { s.resize(size) })
}

// OnInteraction handles a click on the surface.
func (s *SessionService) OnInteraction() {
	s.sched.Post(s.interact)
}

// RenderFrame evaluates the current frame on the scheduler and rasterizes it
// on the calling goroutine.
func (s *SessionService) RenderFrame() image.Image {
	var frame ports.Frame
	s.sched.Call(func() {
		s.mu.RLock()
		r := s.renderer
		s.mu.RUnlock()
		if r != nil {
			frame = r.Evaluate()
		}
	})
	if frame == nil {
		return nil
	}
	return frame.Render()
}

// resize reconstructs the renderer. Runs on the scheduler.
func (s *SessionService) resize(size domain.Size) {
	if size.Empty() {
		s.logger.Debug("ignoring empty surface size", slog.Int("width", size.Width), slog.Int("height", size.Height))
		return
	}

	r, err := s.factory(size, s.config.RendererOptions)
	if err != nil {
		s.logger.Error("renderer construction failed", slog.Any("error",
			domain.NewRendererError("construct", "keeping previous renderer", err)))
		return
	}

	s.mu.Lock()
	s.size = size
	s.renderer = r
	switcher := s.switcher
	s.mu.Unlock()

	s.logger.Debug("surface resized", slog.Int("width", size.Width), slog.Int("height", size.Height))
	s.bus.Publish(domain.NewSurfaceResizedEvent(size))

	if switcher == nil {
		return
	}
	if _, live := switcher.Active(); live {
		if err := switcher.Reload(); err != nil && !IsDropped(err) {
			s.logger.Warn("reload after resize failed", slog.Any("error", err))
		}
	}
}

// interact runs on the scheduler.
func (s *SessionService) interact() {
	s.mu.Lock()
	switch {
	case s.pending:
		s.mu.Unlock()
		s.logger.Debug("interaction dropped while fullscreen settles")
		return
	case !s.started:
		s.started = true
		s.pending = true
		s.mu.Unlock()

		s.logger.Info("session started")
		s.bus.Publish(domain.NewSessionStartedEvent())
		s.requestFullscreen()
		return
	}
	switcher := s.switcher
	s.mu.Unlock()

	if switcher == nil {
		return
	}
	if err := switcher.Advance(); err != nil && !IsDropped(err) {
		s.logger.Warn("advance failed", slog.Any("error", err))
	}
}

// requestFullscreen uses the first supported capability. The first
// activation is scheduled whether or not fullscreen is granted.
func (s *SessionService) requestFullscreen() {
	var capability ports.Fullscreen
	for _, c := range s.display.Fullscreen() {
		if c.Supported() {
			capability = c
			break
		}
	}

	if capability == nil {
		s.fullscreenUnavailable(domain.ErrFullscreenUnsupported)
		s.scheduleFirstActivation()
		return
	}

	name := capability.Name()
	capability.Request(func(err error) {
		s.sched.Post(func() {
			if err != nil {
				s.fullscreenUnavailable(err)
			} else {
				s.logger.Debug("fullscreen entered", slog.String("capability", name))
				s.bus.Publish(domain.NewFullscreenEnteredEvent(name))
			}
			s.scheduleFirstActivation()
		})
	})
}

func (s *SessionService) fullscreenUnavailable(err error) {
	s.logger.Warn("continuing without fullscreen", slog.Any("error", err))
	s.bus.Publish(domain.NewFullscreenUnavailableEvent(err))
}

// scheduleFirstActivation waits for the settle delay, resizes to the final
// surface size and then activates the first patch.
func (s *SessionService) scheduleFirstActivation() {
	t := s.sched.After(s.config.SettleDelay, func() {
		s.mu.Lock()
		s.pending = false
		s.settle = nil
		switcher := s.switcher
		s.mu.Unlock()

		s.resize(s.display.Size())

		if switcher == nil {
			return
		}
		if err := switcher.Select(0); err != nil && !IsDropped(err) {
			s.logger.Warn("first activation failed", slog.Any("error", err))
		}
	})

	s.mu.Lock()
	s.settle = t
	s.mu.Unlock()
}

// Shutdown cancels a pending first activation, deactivates the running
// patch and hides the signal source.
func (s *SessionService) Shutdown() {
	s.sched.Call(func() {
		s.mu.Lock()
		if s.settle != nil {
			s.settle.Stop()
			s.settle = nil
		}
		s.pending = false
		switcher := s.switcher
		s.mu.Unlock()

		if switcher != nil {
			if err := switcher.Shutdown(); err != nil {
				s.logger.Warn("switcher shutdown failed", slog.Any("error", err))
			}
		}
		if s.source != nil {
			s.source.Hide()
		}
	})

	s.logger.Debug("session service shut down")
}
