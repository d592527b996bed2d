//go:build js

// Package web provides a ports.Display backed by a browser canvas.
//
// Frames are put into an offscreen canvas at render resolution and drawn
// stretched onto the visible canvas, so the browser does the upscaling.
package web

import (
	"errors"
	"image"
	"log/slog"
	"sync"

	"github.com/gopherjs/gopherjs/js"

	"github.com/tejashwikalptaru/gosketch/internal/domain"
	"github.com/tejashwikalptaru/gosketch/internal/ports"
)

// Display is a ports.Display drawing into a full-window canvas element.
//
// JavaScript callbacks must not block, so every call into the session is
// made from a fresh goroutine.
type Display struct {
	logger    *slog.Logger
	document  *js.Object
	canvas    *js.Object
	ctx       *js.Object
	offscreen *js.Object
	offctx    *js.Object

	mu      sync.Mutex
	events  ports.DisplayEvents
	size    domain.Size
	frameID int
	quit    chan struct{}
	once    sync.Once
}

// Compile-time check
var _ ports.Display = (*Display)(nil)

// New creates a canvas covering the page. id names an existing canvas
// element; an empty id or a missing element appends a new one to the body.
func New(logger *slog.Logger, id string) *Display {
	document := js.Global.Get("document")

	var canvas *js.Object
	if id != "" {
		canvas = document.Call("getElementById", id)
	}
	if canvas == nil || canvas == js.Undefined {
		canvas = document.Call("createElement", "canvas")
		document.Get("body").Call("appendChild", canvas)
	}

	style := canvas.Get("style")
	style.Set("position", "fixed")
	style.Set("left", "0")
	style.Set("top", "0")
	style.Set("width", "100%")
	style.Set("height", "100%")
	document.Get("body").Get("style").Set("margin", "0")

	offscreen := document.Call("createElement", "canvas")

	d := &Display{
		logger:    logger.With(slog.String("adapter", "web")),
		document:  document,
		canvas:    canvas,
		ctx:       canvas.Call("getContext", "2d"),
		offscreen: offscreen,
		offctx:    offscreen.Call("getContext", "2d"),
		quit:      make(chan struct{}),
	}
	d.size = d.measure()
	return d
}

// measure reads the window size in device pixels.
func (d *Display) measure() domain.Size {
	ratio := js.Global.Get("devicePixelRatio").Float()
	if ratio <= 0 {
		ratio = 1
	}
	return domain.Size{
		Width:  int(js.Global.Get("innerWidth").Float() * ratio),
		Height: int(js.Global.Get("innerHeight").Float() * ratio),
	}
}

// Size returns the canvas size in device pixels.
func (d *Display) Size() domain.Size {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.size
}

// Fullscreen returns the element fullscreen variants in priority order.
func (d *Display) Fullscreen() []ports.Fullscreen {
	return []ports.Fullscreen{
		elementFullscreen{element: d.canvas, method: "requestFullscreen"},
		elementFullscreen{element: d.canvas, method: "webkitRequestFullscreen"},
		elementFullscreen{element: d.canvas, method: "mozRequestFullScreen"},
		elementFullscreen{element: d.canvas, method: "msRequestFullscreen"},
	}
}

// SetTitle shows the active patch name in the document title.
func (d *Display) SetTitle(name string) {
	title := "GoSketch"
	if name != "" {
		title += " - " + name
	}
	d.document.Set("title", title)
}

// Run installs the listeners and draws on every animation frame until Quit.
func (d *Display) Run(events ports.DisplayEvents) error {
	d.mu.Lock()
	d.events = events
	d.mu.Unlock()

	// Wrapped once so the same function can be removed again
	onResize := js.MakeFunc(func(*js.Object, []*js.Object) interface{} {
		size := d.measure()
		d.mu.Lock()
		changed := size != d.size
		d.size = size
		d.mu.Unlock()
		if changed {
			go events.OnResize(size)
		}
		return nil
	})
	onClick := js.MakeFunc(func(*js.Object, []*js.Object) interface{} {
		go events.OnInteraction()
		return nil
	})

	js.Global.Call("addEventListener", "resize", onResize)
	d.canvas.Call("addEventListener", "click", onClick)

	d.resizeCanvas(d.Size())
	go events.OnResize(d.Size())
	d.schedule()

	d.logger.Info("canvas attached", slog.Int("width", d.Size().Width), slog.Int("height", d.Size().Height))

	<-d.quit

	js.Global.Call("removeEventListener", "resize", onResize)
	d.canvas.Call("removeEventListener", "click", onClick)
	d.mu.Lock()
	js.Global.Call("cancelAnimationFrame", d.frameID)
	d.events = nil
	d.mu.Unlock()
	return nil
}

// schedule requests the next animation frame.
func (d *Display) schedule() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.frameID = js.Global.Call("requestAnimationFrame", d.animate).Int()
}

// animate renders off the callback and schedules the next frame once done.
func (d *Display) animate(float64) {
	d.mu.Lock()
	events := d.events
	d.mu.Unlock()
	if events == nil {
		return
	}

	go func() {
		if img := events.RenderFrame(); img != nil {
			d.draw(img)
		}
		select {
		case <-d.quit:
		default:
			d.schedule()
		}
	}()
}

func (d *Display) resizeCanvas(size domain.Size) {
	if d.canvas.Get("width").Int() != size.Width {
		d.canvas.Set("width", size.Width)
	}
	if d.canvas.Get("height").Int() != size.Height {
		d.canvas.Set("height", size.Height)
	}
}

// draw stretches img over the canvas.
func (d *Display) draw(img image.Image) {
	rgba, ok := img.(*image.RGBA)
	if !ok {
		return
	}
	w, h := rgba.Rect.Dx(), rgba.Rect.Dy()
	if d.offscreen.Get("width").Int() != w || d.offscreen.Get("height").Int() != h {
		d.offscreen.Set("width", w)
		d.offscreen.Set("height", h)
	}

	data := js.Global.Get("Uint8ClampedArray").New(js.NewArrayBuffer(rgba.Pix))
	imageData := js.Global.Get("ImageData").New(data, w, h)
	d.offctx.Call("putImageData", imageData, 0, 0)

	size := d.Size()
	d.resizeCanvas(size)
	d.ctx.Set("imageSmoothingEnabled", true)
	d.ctx.Call("drawImage", d.offscreen, 0, 0, size.Width, size.Height)
}

// Quit makes Run return.
func (d *Display) Quit() {
	d.once.Do(func() { close(d.quit) })
}

// elementFullscreen is one vendor variant of Element.requestFullscreen.
type elementFullscreen struct {
	element *js.Object
	method  string
}

func (f elementFullscreen) Name() string { return f.method }

func (f elementFullscreen) Supported() bool {
	fn := f.element.Get(f.method)
	return fn != nil && fn != js.Undefined
}

// Request settles when the returned promise does. Older variants return
// nothing and are treated as granted.
func (f elementFullscreen) Request(done func(err error)) {
	result := f.element.Call(f.method)
	if result == nil || result == js.Undefined || result.Get("then") == js.Undefined {
		done(nil)
		return
	}
	result.Call("then", func() { done(nil) }, func(reason *js.Object) {
		done(errors.New(f.method + ": " + reason.String()))
	})
}
