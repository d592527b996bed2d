// Package ports define the renderer interface consumed by patches and the session.
package ports

import (
	"image"

	"github.com/tejashwikalptaru/gosketch/internal/domain"
	"github.com/tejashwikalptaru/gosketch/internal/graph"
)

// RendererOptions configures a renderer at construction time.
type RendererOptions struct {
	// DetectAudio enables audio-reactive parameters in the renderer's graph
	DetectAudio bool
}

// Renderer rasterizes declared effect chains every frame.
//
// A renderer binds to a fixed surface size at construction; when the surface
// changes size the session constructs a new renderer instead of resizing the
// old one.
//
// Thread-safety: Clear, Out and Evaluate are called from the event loop.
// Frames returned by Evaluate are rendered on the display goroutine.
type Renderer interface {
	// Size returns the surface size the renderer was built for.
	Size() domain.Size

	// Options returns the options the renderer was built with.
	Options() RendererOptions

	// Time returns seconds elapsed on the renderer clock.
	Time() float64

	// Clear blanks every output and forgets all declared chains.
	Clear()

	// Out declares chain as the graph rendered into output.
	//
	// Returns domain.ErrUnknownOutput for an output the renderer does not have.
	Out(output int, chain *graph.Chain) error

	// Evaluate resolves every parameter of every declared chain exactly once
	// and returns the frame to rasterize.
	Evaluate() Frame
}

// Frame is one evaluated frame. All parameter values are frozen.
type Frame interface {
	// Render rasterizes the frame and returns the displayed output.
	Render() image.Image
}

// RendererFactory constructs a renderer for a surface size.
type RendererFactory func(size domain.Size, opts RendererOptions) (Renderer, error)
