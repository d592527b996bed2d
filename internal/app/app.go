// Package app provides application-level orchestration and dependency injection.
// This package wires together all components and manages the application lifecycle.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tejashwikalptaru/gosketch/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/gosketch/internal/adapter/render/raster"
	"github.com/tejashwikalptaru/gosketch/internal/adapter/scheduler/loop"
	"github.com/tejashwikalptaru/gosketch/internal/adapter/signal/analyzer"
	"github.com/tejashwikalptaru/gosketch/internal/adapter/signal/mock"
	"github.com/tejashwikalptaru/gosketch/internal/domain"
	"github.com/tejashwikalptaru/gosketch/internal/logger"
	"github.com/tejashwikalptaru/gosketch/internal/patch"
	"github.com/tejashwikalptaru/gosketch/internal/ports"
	"github.com/tejashwikalptaru/gosketch/internal/service"
)

// Titler is implemented by displays that can show the active patch name.
type Titler interface {
	SetTitle(name string)
}

// Application is the root application structure that holds all dependencies.
// It follows the Dependency Injection pattern with constructor-based injection.
//
// The Application struct is responsible for:
// - Creating and wiring all dependencies
// - Managing the application lifecycle (startup, shutdown)
// - Providing a clean entry point for the cmd binaries
type Application struct {
	// Core dependencies
	logger *slog.Logger
	config Config

	// Infrastructure
	eventBus *eventbus.SyncEventBus
	loop     *loop.Loop
	source   ports.SignalSource
	analyzer *analyzer.Analyzer // nil when the mock source is used
	display  ports.Display

	// Services
	session  *service.SessionService
	switcher *service.SwitcherService

	subscriptions []domain.SubscriptionID
	shutdownOnce  sync.Once
}

// Config holds application configuration.
type Config struct {
	// AppID is the unique application identifier
	AppID string

	// AppName is the display name
	AppName string

	// LogLevel controls logging verbosity
	LogLevel slog.Level

	// LogFormat is "text" or "json"
	LogFormat string

	// Signal names the audio input the cmd binaries open
	Signal string

	// UseMockSignal replaces audio analysis with a synthetic beat
	UseMockSignal bool

	// BPM is the tempo of the synth input
	BPM float64

	// Headless renders without a window
	Headless bool

	// HeadlessFrames stops a headless run after this many frames (0 runs until interrupted)
	HeadlessFrames int

	// ClickEvery switches patches periodically in a headless run
	ClickEvery time.Duration

	// Capture feeds the analyzer. A nil capture falls back to the mock signal.
	Capture ports.SampleCapture

	// SampleRate is the rate the cmd binaries open their capture with
	SampleRate int

	// FFTSize is the analysis window in samples
	FFTSize int

	// AnalysisRate is the analyzer tick interval
	AnalysisRate time.Duration

	// SettleDelay is the wait between the fullscreen request and the first activation
	SettleDelay time.Duration

	// RenderScale divides the surface size to get the render resolution
	RenderScale int

	// DetectAudio is passed to every renderer construction
	DetectAudio bool

	// Display owns the window or canvas. Required.
	Display ports.Display

	// Renderers overrides the software rasterizer (for testing)
	Renderers ports.RendererFactory

	// Patches overrides the built-in catalog (for testing)
	Patches []patch.Patch
}

// DefaultConfig returns the default application configuration, read from
// the environment:
//
//	GOSKETCH_SIGNAL        mic, synth, synth-mute or mock
//	GOSKETCH_BPM           tempo of the synth input
//	GOSKETCH_RENDER_SCALE  render resolution divisor
//	GOSKETCH_HEADLESS      render without a window
//	GOSKETCH_FRAMES        frames to render when headless
//	GOSKETCH_CLICK_EVERY   patch switch interval when headless
func DefaultConfig() Config {
	loggerCfg := logger.DefaultConfig()
	analyzerCfg := analyzer.DefaultConfig()

	signal := strings.ToLower(strings.TrimSpace(os.Getenv("GOSKETCH_SIGNAL")))
	if signal == "" {
		signal = "mic"
	}

	return Config{
		AppID:          "com.gosketch.app",
		AppName:        "GoSketch",
		LogLevel:       loggerCfg.Level,
		LogFormat:      loggerCfg.Format,
		Signal:         signal,
		UseMockSignal:  signal == "mock",
		BPM:            envFloat("GOSKETCH_BPM", 120),
		Headless:       envBool("GOSKETCH_HEADLESS", false),
		HeadlessFrames: envInt("GOSKETCH_FRAMES", 0),
		ClickEvery:     envDuration("GOSKETCH_CLICK_EVERY", 0),
		SampleRate:     44100,
		FFTSize:        analyzerCfg.FFTSize,
		AnalysisRate:   analyzerCfg.Rate,
		SettleDelay:    service.DefaultSettleDelay,
		RenderScale:    envInt("GOSKETCH_RENDER_SCALE", raster.DefaultConfig().Scale),
		DetectAudio:    true,
	}
}

func envInt(key string, fallback int) int {
	if v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key))); err == nil && v > 0 {
		return v
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv(key)), 64); err == nil && v > 0 {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key))); err == nil {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(strings.TrimSpace(os.Getenv(key))); err == nil && v > 0 {
		return v
	}
	return fallback
}

// NewApplication creates a new application with all dependencies wired.
// This is the main dependency injection function.
func NewApplication(config Config) (*Application, error) {
	if config.Display == nil {
		return nil, fmt.Errorf("failed to create application: %w: no display", domain.ErrNotInitialized)
	}

	app := &Application{config: config, display: config.Display}

	// Step 1: Create logger
	app.logger = logger.NewLogger(logger.Config{
		Level:  config.LogLevel,
		Format: config.LogFormat,
	})
	app.logger.Info("initializing application",
		slog.String("app_id", config.AppID),
		slog.String("app_name", config.AppName),
		slog.String("version", GetVersionInfo().FullString()))

	// Step 2: Create an event bus and the event loop
	app.eventBus = eventbus.NewSyncEventBus()
	app.eventBus.SetLogger(app.logger.With(slog.String("component", "eventbus")))
	app.loop = loop.New(app.logger)

	// Step 3: Create the signal source
	if err := app.createSource(); err != nil {
		app.loop.Close()
		return nil, err
	}

	// Step 4: Create services (with dependency injection)
	renderers := config.Renderers
	if renderers == nil {
		renderers = raster.Factory(raster.Config{
			Scale:  config.RenderScale,
			Logger: app.logger,
		})
	}

	sessionCfg := service.DefaultSessionConfig()
	sessionCfg.SettleDelay = config.SettleDelay
	sessionCfg.RendererOptions = ports.RendererOptions{DetectAudio: config.DetectAudio}

	app.session = service.NewSessionService(
		app.logger,
		app.eventBus,
		app.loop,
		app.display,
		renderers,
		app.source,
		sessionCfg,
	)

	patches := config.Patches
	if patches == nil {
		patches = patch.Catalog()
	}
	switcher, err := service.NewSwitcherService(app.logger, app.eventBus, patches, app.session.Env)
	if err != nil {
		app.loop.Close()
		return nil, fmt.Errorf("failed to create switcher: %w", err)
	}
	app.switcher = switcher
	app.session.Attach(switcher)

	// Step 5: Subscribe event observers
	app.subscribe()

	return app, nil
}

// createSource picks the analyzer or the synthetic beat.
func (a *Application) createSource() error {
	if !a.config.UseMockSignal && a.config.Capture == nil {
		a.logger.Warn("no audio capture configured, using the synthetic beat")
	}

	if a.config.UseMockSignal || a.config.Capture == nil {
		src := mock.NewBeatSource()
		src.SetLogger(a.logger.With(slog.String("adapter", "mock-signal")))
		a.source = src
		return nil
	}

	an, err := analyzer.New(a.logger, a.config.Capture, analyzer.Config{
		FFTSize: a.config.FFTSize,
		Rate:    a.config.AnalysisRate,
	})
	if err != nil {
		return fmt.Errorf("failed to create analyzer: %w", err)
	}
	a.analyzer = an
	a.source = an
	return nil
}

// subscribe logs every event at DEBUG, reports patch errors and keeps the
// window title on the active patch.
func (a *Application) subscribe() {
	events := a.logger.With(slog.String("component", "events"))
	a.subscriptions = append(a.subscriptions,
		a.eventBus.SubscribeAll(func(event domain.Event) {
			events.Debug("event", slog.String("type", string(event.Type())))
		}),
		a.eventBus.SubscribeFiltered(domain.EventPatchError, func(event domain.Event) bool {
			e, ok := event.(domain.PatchErrorEvent)
			return ok && e.Error != nil
		}, func(event domain.Event) {
			e := event.(domain.PatchErrorEvent)
			a.logger.Error("patch failed",
				slog.String("patch", e.Patch.Name),
				slog.Any("error", e.Error))
		}),
	)

	if titler, ok := a.display.(Titler); ok {
		a.subscriptions = append(a.subscriptions,
			a.eventBus.Subscribe(domain.EventPatchActivated, func(event domain.Event) {
				if e, ok := event.(domain.PatchActivatedEvent); ok {
					titler.SetTitle(e.Patch.Name)
				}
			}),
		)
	}
}

// Run shows the display and blocks until it is closed or ctx is done.
// The display runs on the calling goroutine since windowing toolkits need
// the main thread; analysis runs alongside it.
func (a *Application) Run(ctx context.Context) error {
	a.logger.Info("GoSketch started", slog.Int("patches", a.switcher.Count()))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	if a.analyzer != nil {
		g.Go(func() error {
			// Analysis failures leave the patches reading silence
			if err := a.analyzer.Run(gctx); err != nil {
				a.logger.Error("audio analysis stopped", slog.Any("error", err))
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		a.display.Quit()
		return nil
	})

	err := a.display.Run(a.session)
	cancel()

	if werr := g.Wait(); err == nil {
		err = werr
	}
	if err != nil {
		return fmt.Errorf("display stopped: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the application.
// This should be called via deferring in main.go. Safe to call more than once.
func (a *Application) Shutdown() error {
	a.shutdownOnce.Do(func() {
		a.logger.Info("shutting down application")

		// Shutdown services, then the loop they run on
		a.session.Shutdown()
		a.loop.Close()

		for _, id := range a.subscriptions {
			a.eventBus.Unsubscribe(id)
		}
		if err := a.eventBus.Close(); err != nil {
			a.logger.Warn("failed to close event bus", slog.Any("error", err))
		}

		a.logger.Info("application shutdown complete")
	})
	return nil
}

// GetServices returns the session and switcher services.
func (a *Application) GetServices() (*service.SessionService, *service.SwitcherService) {
	return a.session, a.switcher
}

// GetEventBus returns the event bus.
func (a *Application) GetEventBus() ports.EventBus {
	return a.eventBus
}

// GetSource returns the signal source the patches read.
func (a *Application) GetSource() ports.SignalSource {
	return a.source
}
