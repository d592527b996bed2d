// Package analyzer turns captured PCM into band amplitude frames.
//
// Every analysis tick the most recent FFTSize samples are windowed and
// transformed. Bin energies are grouped into critical bands on the Bark
// scale and converted to specific loudness; the configured number of bands
// is then formed by summing equal runs of critical bands, smoothed against
// the previous frame and mapped through max(0, (v - cutoff) / scale).
package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"

	"github.com/tejashwikalptaru/gosketch/internal/domain"
	"github.com/tejashwikalptaru/gosketch/internal/ports"
)

const (
	// CriticalBands is the number of Bark bands the spectrum is reduced to
	CriticalBands = 24

	// loudnessExponent converts band energy to specific loudness
	loudnessExponent = 0.23
)

// Config holds the analyzer settings.
type Config struct {
	// FFTSize is the analysis window length in samples, a power of two
	FFTSize int

	// Rate is the analysis tick interval
	Rate time.Duration
}

// DefaultConfig returns the default analyzer settings.
func DefaultConfig() Config {
	return Config{
		FFTSize: 1024,
		Rate:    16 * time.Millisecond,
	}
}

// Analyzer is a ports.SignalSource fed by a ports.SampleCapture.
type Analyzer struct {
	logger  *slog.Logger
	capture ports.SampleCapture
	config  Config

	plan   *algofft.Plan[complex128]
	window []float64
	bark   []int // Critical band of every bin below Nyquist

	// Capture side
	ringMu  sync.Mutex
	ring    []float64
	write   int
	filled  int
	samples uint64

	// Analysis side
	mu      sync.RWMutex
	source  domain.SourceConfig
	visible bool
	smooth  []float64
	frame   domain.SignalFrame
	seq     uint64

	// Scratch buffers, only touched by analyze
	block []float64 // Windowed samples
	in    []complex128
	out   []complex128
	re    []float64
	im    []float64
	mag   []float64
	bands []float64
}

// Compile-time check
var _ ports.SignalSource = (*Analyzer)(nil)

// New creates an analyzer reading from capture.
func New(logger *slog.Logger, capture ports.SampleCapture, config Config) (*Analyzer, error) {
	if capture == nil {
		return nil, domain.ErrCaptureUnavailable
	}
	if config.FFTSize < 2 || config.FFTSize&(config.FFTSize-1) != 0 {
		return nil, domain.NewValidationError("fft_size", config.FFTSize, "must be a power of two")
	}
	if config.Rate <= 0 {
		return nil, domain.NewValidationError("rate", config.Rate, "must be positive")
	}

	plan, err := algofft.NewPlan64(config.FFTSize)
	if err != nil {
		return nil, fmt.Errorf("analyzer: fft plan: %w", err)
	}

	half := config.FFTSize / 2
	a := &Analyzer{
		logger:  logger.With(slog.String("adapter", "analyzer")),
		capture: capture,
		config:  config,
		plan:    plan,
		window:  hann(config.FFTSize),
		bark:    barkBands(config.FFTSize, capture.SampleRate()),
		ring:    make([]float64, config.FFTSize),
		block:   make([]float64, config.FFTSize),
		source:  domain.DefaultSourceConfig(),
		in:      make([]complex128, config.FFTSize),
		out:     make([]complex128, config.FFTSize),
		re:      make([]float64, half),
		im:      make([]float64, half),
		mag:     make([]float64, half),
		bands:   make([]float64, CriticalBands),
	}
	a.smooth = make([]float64, a.source.Bins)

	return a, nil
}

// Configure applies analysis parameters. Changing the bin count restarts
// smoothing from zero.
func (a *Analyzer) Configure(cfg domain.SourceConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if cfg.Bins != len(a.smooth) {
		a.smooth = make([]float64, cfg.Bins)
	}
	a.source = cfg
	a.frame = domain.SignalFrame{}

	a.logger.Debug("source configured",
		slog.Int("bins", cfg.Bins),
		slog.Float64("cutoff", cfg.Cutoff),
		slog.Float64("scale", cfg.Scale),
		slog.Float64("smooth", cfg.Smooth))

	return nil
}

// Show enables analysis.
func (a *Analyzer) Show() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.visible = true
}

// Hide disables analysis and drops the current frame.
func (a *Analyzer) Hide() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.visible = false
	a.frame = domain.SignalFrame{}
}

// Read returns a copy of the most recent frame.
func (a *Analyzer) Read() domain.SignalFrame {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.frame.Clone()
}

// Samples returns how many samples were captured so far.
func (a *Analyzer) Samples() uint64 {
	a.ringMu.Lock()
	defer a.ringMu.Unlock()
	return a.samples
}

// Run starts the capture and analyzes on every tick until ctx is done.
func (a *Analyzer) Run(ctx context.Context) error {
	if err := a.capture.Start(a.push); err != nil {
		return err
	}
	defer func() {
		if err := a.capture.Stop(); err != nil {
			a.logger.Warn("capture stop failed", slog.Any("error", err))
		}
	}()

	a.logger.Info("analyzer started",
		slog.Int("fft_size", a.config.FFTSize),
		slog.Int("sample_rate", a.capture.SampleRate()),
		slog.Duration("rate", a.config.Rate))

	ticker := time.NewTicker(a.config.Rate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.logger.Debug("analyzer stopped")
			return nil
		case now := <-ticker.C:
			a.analyze(now)
		}
	}
}

// push appends captured samples to the ring. Called on the capture goroutine.
func (a *Analyzer) push(samples []float32) {
	a.ringMu.Lock()
	defer a.ringMu.Unlock()

	n := len(a.ring)
	for _, s := range samples {
		v := float64(s)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			v = 0
		}
		a.ring[a.write] = v
		a.write = (a.write + 1) % n
		if a.filled < n {
			a.filled++
		}
	}
	a.samples += uint64(len(samples))
}

// analyze produces one frame. Runs on the Run goroutine only.
func (a *Analyzer) analyze(now time.Time) {
	a.mu.RLock()
	visible := a.visible
	a.mu.RUnlock()
	if !visible {
		return
	}

	if !a.fill() {
		return
	}

	if err := a.plan.Forward(a.out, a.in); err != nil {
		a.logger.Warn("fft failed", slog.Any("error", err))
		return
	}

	for k := range a.mag {
		a.re[k] = real(a.out[k])
		a.im[k] = imag(a.out[k])
	}
	vecmath.Magnitude(a.mag, a.re, a.im)

	a.loudness()

	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.visible {
		return
	}

	cfg := a.source
	bins := make([]float64, cfg.Bins)
	spacing := max(CriticalBands/cfg.Bins, 1)
	for i := range bins {
		raw := 0.0
		for j := i * spacing; j < (i+1)*spacing && j < CriticalBands; j++ {
			raw += a.bands[j]
		}
		a.smooth[i] = raw*(1-cfg.Smooth) + a.smooth[i]*cfg.Smooth
		bins[i] = math.Max(0, a.smooth[i]-cfg.Cutoff) / cfg.Scale
	}

	a.seq++
	a.frame = domain.SignalFrame{Bins: bins, Seq: a.seq, At: now}
}

// fill copies the ring, oldest sample first, into the windowed FFT input.
// It reports false until the ring has been filled once.
func (a *Analyzer) fill() bool {
	a.ringMu.Lock()
	defer a.ringMu.Unlock()

	n := len(a.ring)
	if a.filled < n {
		return false
	}
	copy(a.block, a.ring[a.write:])
	copy(a.block[n-a.write:], a.ring[:a.write])
	vecmath.MulBlockInPlace(a.block, a.window)
	for i, v := range a.block {
		a.in[i] = complex(v, 0)
	}
	return true
}

// loudness reduces bin magnitudes to specific loudness per critical band.
func (a *Analyzer) loudness() {
	for i := range a.bands {
		a.bands[i] = 0
	}
	norm := float64(a.config.FFTSize)
	for k, m := range a.mag {
		a.bands[a.bark[k]] += m * m / norm
	}
	for i, e := range a.bands {
		a.bands[i] = math.Pow(e, loudnessExponent)
	}
}

// hann returns a symmetric Hann window.
func hann(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
	}
	return w
}

// barkBands maps every bin below Nyquist to its critical band.
func barkBands(size, sampleRate int) []int {
	out := make([]int, size/2)
	for k := range out {
		f := float64(k) * float64(sampleRate) / float64(size)
		z := 13*math.Atan(0.00076*f) + 3.5*math.Atan(math.Pow(f/7500, 2))
		out[k] = min(max(int(z), 0), CriticalBands-1)
	}
	return out
}
