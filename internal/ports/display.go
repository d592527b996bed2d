// Package ports define the display interface for surface and input abstraction.
// This interface lets the session drive a fyne window, an ebiten window or a browser canvas alike.
package ports

import (
	"image"

	"github.com/tejashwikalptaru/gosketch/internal/domain"
)

// Fullscreen is one way of entering fullscreen mode.
// Displays return their capabilities in priority order and the session uses
// the first supported one.
type Fullscreen interface {
	// Name identifies the capability in logs and events.
	Name() string

	// Supported reports whether the capability is available on this display.
	Supported() bool

	// Request asks for fullscreen and calls done once the request settled.
	// done may be called from any goroutine; a nil error means fullscreen was granted.
	Request(done func(err error))
}

// DisplayEvents receives surface and input events from a display.
// The session implements it. Methods may be called from any goroutine.
type DisplayEvents interface {
	// OnResize reports the new surface size.
	OnResize(size domain.Size)

	// OnInteraction reports a pointer click on the surface.
	OnInteraction()

	// RenderFrame evaluates and rasterizes the current frame.
	// Returns nil when nothing has been rendered yet.
	RenderFrame() image.Image
}

// Display owns a full-window drawing surface.
type Display interface {
	// Size returns the current surface size.
	Size() domain.Size

	// Fullscreen returns the fullscreen capabilities in priority order.
	Fullscreen() []Fullscreen

	// Run shows the surface and forwards events until the display is closed.
	// This is a blocking call.
	Run(events DisplayEvents) error

	// Quit closes the display and makes Run return.
	Quit()
}
