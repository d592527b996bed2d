// Package headless provides a ports.Display without a window.
//
// It renders at a fixed frame rate, clicks on a schedule and hands every
// frame to a callback. It is used for smoke runs on machines without a
// screen and for snapshotting patches.
package headless

import (
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/tejashwikalptaru/gosketch/internal/domain"
	"github.com/tejashwikalptaru/gosketch/internal/ports"
)

// Config holds the headless display settings.
type Config struct {
	Size      domain.Size
	FrameRate int

	// ClickEvery clicks the surface periodically. The first click starts
	// the session. Zero clicks once at startup only.
	ClickEvery time.Duration

	// Frames stops the display after this many rendered frames. Zero runs
	// until Quit.
	Frames int

	// OnFrame receives every rendered frame.
	OnFrame func(n int, img image.Image)
}

// DefaultConfig returns a 640x360 surface at 30 frames per second.
func DefaultConfig() Config {
	return Config{
		Size:      domain.Size{Width: 640, Height: 360},
		FrameRate: 30,
	}
}

// Display is a ports.Display driven by tickers.
type Display struct {
	logger *slog.Logger
	config Config

	mu     sync.Mutex
	frames int
	last   image.Image

	quit chan struct{}
	once sync.Once
}

// Compile-time check
var _ ports.Display = (*Display)(nil)

// New creates a headless display.
func New(logger *slog.Logger, config Config) *Display {
	defaults := DefaultConfig()
	if config.Size.Empty() {
		config.Size = defaults.Size
	}
	if config.FrameRate <= 0 {
		config.FrameRate = defaults.FrameRate
	}

	return &Display{
		logger: logger.With(slog.String("adapter", "headless")),
		config: config,
		quit:   make(chan struct{}),
	}
}

// Size returns the configured size.
func (d *Display) Size() domain.Size { return d.config.Size }

// Fullscreen returns a capability that is always granted.
func (d *Display) Fullscreen() []ports.Fullscreen {
	return []ports.Fullscreen{granted{}}
}

// Frames returns the number of frames rendered so far.
func (d *Display) Frames() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.frames
}

// Last returns the most recent non-nil frame.
func (d *Display) Last() image.Image {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last
}

// Run reports the size, clicks once and renders until Quit or the frame limit.
func (d *Display) Run(events ports.DisplayEvents) error {
	events.OnResize(d.config.Size)
	events.OnInteraction()

	render := time.NewTicker(time.Second / time.Duration(d.config.FrameRate))
	defer render.Stop()

	var clicks <-chan time.Time
	if d.config.ClickEvery > 0 {
		t := time.NewTicker(d.config.ClickEvery)
		defer t.Stop()
		clicks = t.C
	}

	d.logger.Debug("headless display running",
		slog.Int("width", d.config.Size.Width),
		slog.Int("height", d.config.Size.Height),
		slog.Int("frame_rate", d.config.FrameRate))

	for {
		select {
		case <-d.quit:
			return nil
		case <-clicks:
			events.OnInteraction()
		case <-render.C:
			if d.frame(events) {
				d.logger.Debug("frame limit reached", slog.Int("frames", d.config.Frames))
				return nil
			}
		}
	}
}

// frame renders one frame and reports whether the limit was reached.
func (d *Display) frame(events ports.DisplayEvents) bool {
	img := events.RenderFrame()

	d.mu.Lock()
	d.frames++
	n := d.frames
	if img != nil {
		d.last = img
	}
	d.mu.Unlock()

	if d.config.OnFrame != nil {
		d.config.OnFrame(n, img)
	}
	return d.config.Frames > 0 && n >= d.config.Frames
}

// Quit makes Run return.
func (d *Display) Quit() {
	d.once.Do(func() { close(d.quit) })
}

type granted struct{}

func (granted) Name() string { return "headless" }

func (granted) Supported() bool { return true }

func (granted) Request(done func(err error)) { done(nil) }
