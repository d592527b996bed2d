package synth

import (
	"encoding/binary"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/tejashwikalptaru/gosketch/internal/domain"
	"github.com/tejashwikalptaru/gosketch/internal/ports"
)

const backend = "synth"

// Options configures the demo loop.
type Options struct {
	SampleRate int
	BPM        float64
	Pattern    Pattern

	// Mute renders the loop on a ticker instead of playing it through the
	// speakers. Tests and headless runs use it.
	Mute bool

	// Block is the number of samples delivered per tick when muted
	Block int
}

// DefaultOptions returns a 120 BPM four-on-the-floor loop at 44.1 kHz.
func DefaultOptions() Options {
	return Options{
		SampleRate: 44100,
		BPM:        120,
		Pattern:    FourOnTheFloor(),
		Block:      512,
	}
}

// oto allows a single context per process.
var (
	otoOnce sync.Once
	otoCtx  *oto.Context
	otoErr  error
)

func otoContext(rate int) (*oto.Context, error) {
	otoOnce.Do(func() {
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   rate,
			ChannelCount: 1,
			Format:       oto.FormatFloat32LE,
		})
		if err != nil {
			otoErr = err
			return
		}
		<-ready
		otoCtx = ctx
	})
	return otoCtx, otoErr
}

// Capture is a ports.SampleCapture that plays the demo loop and hands every
// rendered block to the sink.
type Capture struct {
	logger  *slog.Logger
	options Options

	mu      sync.Mutex
	gen     *Generator
	sink    func([]float32)
	player  *oto.Player
	stop    chan struct{}
	wg      sync.WaitGroup
	scratch []float32
}

// Compile-time check
var _ ports.SampleCapture = (*Capture)(nil)

// New creates a demo loop capture.
func New(logger *slog.Logger, options Options) *Capture {
	defaults := DefaultOptions()
	if options.SampleRate <= 0 {
		options.SampleRate = defaults.SampleRate
	}
	if options.Block <= 0 {
		options.Block = defaults.Block
	}
	if options.Pattern == (Pattern{}) {
		options.Pattern = defaults.Pattern
	}
	return &Capture{
		logger:  logger.With(slog.String("adapter", backend)),
		options: options,
	}
}

// SampleRate returns the loop sample rate in Hz.
func (c *Capture) SampleRate() int {
	return c.options.SampleRate
}

// Start begins playback from the top of the pattern.
func (c *Capture) Start(sink func(samples []float32)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sink != nil {
		return domain.NewCaptureError(backend, "start", domain.ErrAlreadyInitialized)
	}
	c.gen = NewGenerator(c.options.SampleRate, c.options.BPM, c.options.Pattern)
	c.sink = sink

	if c.options.Mute {
		c.stop = make(chan struct{})
		c.wg.Add(1)
		go c.tick(c.stop)
		c.logger.Info("demo loop started muted", slog.Float64("bpm", c.options.BPM))
		return nil
	}

	ctx, err := otoContext(c.options.SampleRate)
	if err != nil {
		c.sink = nil
		return domain.NewCaptureError(backend, "open output", err)
	}
	c.player = ctx.NewPlayer(c)
	c.player.Play()

	c.logger.Info("demo loop playing", slog.Float64("bpm", c.options.BPM))
	return nil
}

// tick renders blocks at the loop's real-time pace.
func (c *Capture) tick(stop <-chan struct{}) {
	defer c.wg.Done()

	interval := time.Duration(float64(time.Second) * float64(c.options.Block) / float64(c.options.SampleRate))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	buf := make([]float32, c.options.Block)
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.mu.Lock()
			gen, sink := c.gen, c.sink
			if gen != nil {
				gen.Fill(buf)
			}
			c.mu.Unlock()
			if sink != nil {
				sink(buf)
			}
		}
	}
}

// Read implements io.Reader for the oto player. Runs on oto's goroutine.
func (c *Capture) Read(p []byte) (int, error) {
	n := len(p) / 4

	c.mu.Lock()
	if len(c.scratch) < n {
		c.scratch = make([]float32, n)
	}
	samples := c.scratch[:n]
	gen, sink := c.gen, c.sink
	if gen != nil {
		gen.Fill(samples)
	} else {
		clear(samples)
	}
	c.mu.Unlock()

	for i, s := range samples {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(s))
	}
	if sink != nil {
		sink(samples)
	}
	return n * 4, nil
}

// Stop ends playback. Safe to call more than once.
func (c *Capture) Stop() error {
	c.mu.Lock()
	stop, player := c.stop, c.player
	c.stop, c.player, c.sink, c.gen = nil, nil, nil, nil
	c.mu.Unlock()

	if stop != nil {
		close(stop)
		c.wg.Wait()
	}
	if player != nil {
		if err := player.Close(); err != nil {
			return domain.NewCaptureError(backend, "close player", err)
		}
	}

	c.logger.Debug("demo loop stopped")
	return nil
}
