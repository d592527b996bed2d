// Package ebiten provides a ports.Display backed by an Ebitengine window.
package ebiten

import (
	"image"
	"log/slog"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/tejashwikalptaru/gosketch/internal/adapter/display/frame"
	"github.com/tejashwikalptaru/gosketch/internal/domain"
	"github.com/tejashwikalptaru/gosketch/internal/ports"
)

const capabilityName = "ebiten-window"

// Config holds the window settings.
type Config struct {
	Title string
	Size  domain.Size // Initial window size
}

// DefaultConfig returns an 800x600 window.
func DefaultConfig() Config {
	return Config{
		Title: "GoSketch",
		Size:  domain.Size{Width: 800, Height: 600},
	}
}

// input is what the game polled during one tick.
type input struct {
	click  bool
	escape bool
}

// Display is a ports.Display and an ebiten.Game.
//
// Thread-safety: Size, Fullscreen, SetTitle and Quit may be called from any
// goroutine. Update, Draw and Layout run on the game goroutine.
type Display struct {
	logger *slog.Logger
	config Config
	scaler *frame.Scaler

	mu     sync.Mutex
	events ports.DisplayEvents
	size   domain.Size
	quit   bool
}

// Compile-time check
var _ ports.Display = (*Display)(nil)
var _ ebiten.Game = (*Display)(nil)

// New creates the display. The window opens on Run.
func New(logger *slog.Logger, config Config) *Display {
	defaults := DefaultConfig()
	if config.Title == "" {
		config.Title = defaults.Title
	}
	if config.Size.Empty() {
		config.Size = defaults.Size
	}

	return &Display{
		logger: logger.With(slog.String("adapter", "ebiten")),
		config: config,
		scaler: frame.NewScaler(nil),
		size:   config.Size,
	}
}

// Size returns the last laid out size in pixels.
func (d *Display) Size() domain.Size {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.size
}

// Fullscreen returns the window fullscreen capability.
func (d *Display) Fullscreen() []ports.Fullscreen {
	return []ports.Fullscreen{windowFullscreen{}}
}

// SetTitle shows the active patch name in the title bar.
func (d *Display) SetTitle(name string) {
	title := d.config.Title
	if name != "" {
		title += " - " + name
	}
	ebiten.SetWindowTitle(title)
}

// Run opens the window and runs the game loop until it is closed.
func (d *Display) Run(events ports.DisplayEvents) error {
	d.mu.Lock()
	d.events = events
	d.mu.Unlock()

	ebiten.SetWindowSize(d.config.Size.Width, d.config.Size.Height)
	ebiten.SetWindowTitle(d.config.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetRunnableOnUnfocused(true)
	ebiten.SetVsyncEnabled(true)

	d.logger.Info("window shown",
		slog.Int("width", d.config.Size.Width),
		slog.Int("height", d.config.Size.Height))

	err := ebiten.RunGame(d)

	d.mu.Lock()
	d.events = nil
	d.mu.Unlock()

	if err != nil {
		return domain.NewRendererError("run", "ebiten game loop", err)
	}
	return nil
}

// Quit makes the game loop terminate on its next update.
func (d *Display) Quit() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.quit = true
}

// Update implements ebiten.Game.
func (d *Display) Update() error {
	if ebiten.IsWindowBeingClosed() {
		return ebiten.Termination
	}
	return d.step(poll())
}

// poll reads the input state of this tick.
func poll() input {
	return input{
		click: inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) ||
			inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonRight) ||
			len(inpututil.AppendJustPressedTouchIDs(nil)) > 0,
		escape: inpututil.IsKeyJustPressed(ebiten.KeyEscape),
	}
}

// step applies one tick of input.
func (d *Display) step(in input) error {
	d.mu.Lock()
	quit, events := d.quit, d.events
	d.mu.Unlock()

	if quit {
		return ebiten.Termination
	}
	if in.escape && ebiten.IsFullscreen() {
		ebiten.SetFullscreen(false)
	}
	if in.click && events != nil {
		events.OnInteraction()
	}
	return nil
}

// Draw implements ebiten.Game.
func (d *Display) Draw(screen *ebiten.Image) {
	b := screen.Bounds()
	img := d.frame(b.Dx(), b.Dy())
	screen.WritePixels(img.Pix)
}

// frame renders the current frame at w x h.
func (d *Display) frame(w, h int) *image.RGBA {
	d.mu.Lock()
	events := d.events
	d.mu.Unlock()

	var src image.Image
	if events != nil {
		src = events.RenderFrame()
	}
	return d.scaler.Scale(src, w, h)
}

// Layout implements ebiten.Game. The screen matches the window in device
// pixels; a change is reported as a resize.
func (d *Display) Layout(outsideWidth, outsideHeight int) (int, int) {
	scale := ebiten.Monitor().DeviceScaleFactor()
	return d.layout(outsideWidth, outsideHeight, scale)
}

func (d *Display) layout(outsideWidth, outsideHeight int, scale float64) (int, int) {
	if scale <= 0 {
		scale = 1
	}
	size := domain.Size{
		Width:  max(int(float64(outsideWidth)*scale), 1),
		Height: max(int(float64(outsideHeight)*scale), 1),
	}

	d.mu.Lock()
	changed := size != d.size
	d.size = size
	events := d.events
	d.mu.Unlock()

	if changed && events != nil {
		events.OnResize(size)
	}
	return size.Width, size.Height
}

// windowFullscreen switches the game window to fullscreen.
type windowFullscreen struct{}

func (windowFullscreen) Name() string { return capabilityName }

func (windowFullscreen) Supported() bool { return true }

func (windowFullscreen) Request(done func(err error)) {
	ebiten.SetFullscreen(true)
	done(nil)
}
