// Package mock provides a mock implementation of the SignalSource interface.
// This is used for testing patches and services without audio capture, and
// as a synthetic beat when no microphone is available.
package mock

import (
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/tejashwikalptaru/gosketch/internal/domain"
	"github.com/tejashwikalptaru/gosketch/internal/ports"
)

// Generator produces band values for a point in time.
type Generator func(t time.Time, bins int) []float64

// Source is a mock implementation of the SignalSource interface.
// Frames come either from values set with SetFrame or from a Generator.
//
// Thread-safety: This implementation is thread-safe.
type Source struct {
	// Dependencies
	logger *slog.Logger
	now    func() time.Time

	// Configuration
	config  domain.SourceConfig
	visible bool
	configs []domain.SourceConfig

	// Frame state
	values    []float64
	generator Generator
	seq       uint64
	mu        sync.RWMutex

	// Behavior configuration (for testing error scenarios)
	failConfigure bool
}

// Compile-time check
var _ ports.SignalSource = (*Source)(nil)

// NewSource creates a mock source producing silence.
func NewSource() *Source {
	return &Source{
		config: domain.DefaultSourceConfig(),
		now:    time.Now,
	}
}

// NewBeatSource creates a mock source that generates a synthetic beat.
func NewBeatSource() *Source {
	s := NewSource()
	s.generator = Beat(120)
	return s
}

// SetLogger sets the logger for this source.
func (m *Source) SetLogger(logger *slog.Logger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logger = logger
}

// SetClock replaces the clock the generator is sampled with.
func (m *Source) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// SetFailConfigure configures the mock to reject configuration (for testing).
func (m *Source) SetFailConfigure(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failConfigure = fail
}

// SetFrame sets fixed band values. Values beyond the configured bin count are
// dropped; missing bins read as NaN.
func (m *Source) SetFrame(values ...float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = append([]float64(nil), values...)
	m.generator = nil
}

// SetGenerator makes every read sample gen.
func (m *Source) SetGenerator(gen Generator) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generator = gen
}

// Configure records and applies cfg.
func (m *Source) Configure(cfg domain.SourceConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failConfigure {
		return domain.NewValidationError("config", cfg, "mock configure failed")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	m.config = cfg
	m.configs = append(m.configs, cfg)
	if m.logger != nil {
		m.logger.Debug("mock source configured", slog.Int("bins", cfg.Bins))
	}
	return nil
}

// Show enables frames.
func (m *Source) Show() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.visible = true
}

// Hide disables frames.
func (m *Source) Hide() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.visible = false
}

// Visible reports whether the source is shown.
func (m *Source) Visible() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.visible
}

// Config returns the active configuration.
func (m *Source) Config() domain.SourceConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// Configs returns every configuration applied so far.
func (m *Source) Configs() []domain.SourceConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.SourceConfig, len(m.configs))
	copy(out, m.configs)
	return out
}

// Read returns the current frame. Hidden sources return an empty frame.
func (m *Source) Read() domain.SignalFrame {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if !m.visible {
		return domain.SignalFrame{At: now}
	}

	m.seq++
	bins := make([]float64, m.config.Bins)
	var values []float64
	if m.generator != nil {
		values = m.generator(now, m.config.Bins)
	} else {
		values = m.values
	}
	for i := range bins {
		if i < len(values) {
			bins[i] = values[i]
		} else {
			bins[i] = math.NaN()
		}
	}

	return domain.SignalFrame{Bins: bins, Seq: m.seq, At: now}
}

// Beat returns a generator for a four-on-the-floor pattern at bpm: a kick in
// the lowest band on every beat, a snare in the upper-middle band on the off
// beats and a slow harmonic swell in the top band.
func Beat(bpm float64) Generator {
	beat := time.Duration(float64(time.Minute) / bpm)
	return func(t time.Time, bins int) []float64 {
		out := make([]float64, bins)
		if bins == 0 {
			return out
		}
		phase := float64(t.UnixNano()%int64(beat)) / float64(beat)
		bar := float64(t.UnixNano()%int64(4*beat)) / float64(4*beat)

		kick := math.Exp(-phase * 8)
		out[0] = kick
		if bins > 1 {
			out[1] = kick * 0.5
		}
		for i := 2; i < bins-1; i++ {
			off := math.Mod(phase+0.5, 1)
			out[i] = math.Exp(-off*12) * 0.8
		}
		if bins > 2 {
			out[bins-1] = 0.3 + 0.3*math.Sin(2*math.Pi*bar)
		}
		return out
	}
}
