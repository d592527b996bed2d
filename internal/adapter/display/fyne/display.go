// Package fyne provides a ports.Display backed by a Fyne window.
package fyne

import (
	"log/slog"
	"sync"
	"time"

	fyneapp "fyne.io/fyne/v2"

	"github.com/tejashwikalptaru/gosketch/internal/domain"
	"github.com/tejashwikalptaru/gosketch/internal/ports"
)

const capabilityName = "fyne-window"

// Config holds the window settings.
type Config struct {
	Title     string
	Size      domain.Size // Initial window size
	FrameRate int
}

// DefaultConfig returns an 800x600 window refreshing at 60 frames per second.
func DefaultConfig() Config {
	return Config{
		Title:     "GoSketch",
		Size:      domain.Size{Width: 800, Height: 600},
		FrameRate: 60,
	}
}

// Display is a ports.Display showing a single full-window Surface.
type Display struct {
	logger  *slog.Logger
	app     fyneapp.App
	window  fyneapp.Window
	surface *Surface
	config  Config

	quit     chan struct{}
	quitOnce sync.Once
	wg       sync.WaitGroup
}

// Compile-time check
var _ ports.Display = (*Display)(nil)

// New creates the window. Nothing is shown until Run.
func New(logger *slog.Logger, app fyneapp.App, config Config) *Display {
	defaults := DefaultConfig()
	if config.Title == "" {
		config.Title = defaults.Title
	}
	if config.Size.Empty() {
		config.Size = defaults.Size
	}
	if config.FrameRate <= 0 {
		config.FrameRate = defaults.FrameRate
	}

	d := &Display{
		logger:  logger.With(slog.String("adapter", "fyne")),
		app:     app,
		surface: NewSurface(),
		config:  config,
		quit:    make(chan struct{}),
	}

	d.window = app.NewWindow(config.Title)
	d.window.SetPadded(false)
	d.window.SetContent(d.surface)
	d.window.Resize(fyneapp.NewSize(float32(config.Size.Width), float32(config.Size.Height)))
	d.addShortcuts()

	return d
}

// addShortcuts lets Escape leave fullscreen.
func (d *Display) addShortcuts() {
	d.window.Canvas().SetOnTypedKey(func(ev *fyneapp.KeyEvent) {
		if ev.Name == fyneapp.KeyEscape && d.window.FullScreen() {
			d.window.SetFullScreen(false)
		}
	})
}

// Window returns the underlying window.
func (d *Display) Window() fyneapp.Window { return d.window }

// Surface returns the drawing surface.
func (d *Display) Surface() *Surface { return d.surface }

// Size returns the canvas size in pixels.
func (d *Display) Size() domain.Size {
	c := d.window.Canvas()
	size, scale := c.Size(), c.Scale()
	if size.Width <= 0 || size.Height <= 0 {
		return d.surface.PixelSize()
	}
	return domain.Size{
		Width:  int(size.Width * scale),
		Height: int(size.Height * scale),
	}
}

// Fullscreen returns the window fullscreen capability.
func (d *Display) Fullscreen() []ports.Fullscreen {
	return []ports.Fullscreen{windowFullscreen{window: d.window}}
}

// SetTitle shows the active patch name in the title bar.
func (d *Display) SetTitle(name string) {
	title := d.config.Title
	if name != "" {
		title += " - " + name
	}
	fyneapp.Do(func() { d.window.SetTitle(title) })
}

// Run shows the window and redraws it at the frame rate until the app quits.
func (d *Display) Run(events ports.DisplayEvents) error {
	d.surface.SetEvents(events)

	d.wg.Add(1)
	go d.animate()

	d.logger.Info("window shown",
		slog.Int("width", d.config.Size.Width),
		slog.Int("height", d.config.Size.Height),
		slog.Int("frame_rate", d.config.FrameRate))

	// Blocks until the window is closed
	d.window.ShowAndRun()

	d.stop()
	d.wg.Wait()
	d.surface.SetEvents(nil)
	return nil
}

// animate refreshes the surface on the UI goroutine every frame.
func (d *Display) animate() {
	defer d.wg.Done()

	ticker := time.NewTicker(time.Second / time.Duration(d.config.FrameRate))
	defer ticker.Stop()

	for {
		select {
		case <-d.quit:
			return
		case <-ticker.C:
			fyneapp.Do(d.surface.Refresh)
		}
	}
}

func (d *Display) stop() {
	d.quitOnce.Do(func() { close(d.quit) })
}

// Quit closes the window and makes Run return. Does nothing once Run returned.
func (d *Display) Quit() {
	select {
	case <-d.quit:
		return
	default:
	}
	d.stop()
	fyneapp.Do(d.app.Quit)
}

// windowFullscreen switches the window to fullscreen.
type windowFullscreen struct {
	window fyneapp.Window
}

func (f windowFullscreen) Name() string { return capabilityName }

// Supported is false on mobile, where windows are always fullscreen.
func (f windowFullscreen) Supported() bool {
	return !fyneapp.CurrentDevice().IsMobile()
}

func (f windowFullscreen) Request(done func(err error)) {
	fyneapp.Do(func() {
		f.window.SetFullScreen(true)
		done(nil)
	})
}
