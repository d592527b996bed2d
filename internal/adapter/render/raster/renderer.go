// Package raster is a software renderer for effect chains.
//
// The surface is rendered at a reduced resolution (the surface size divided
// by Scale) and displays upscale the result. Every output keeps the image of
// the previous frame so chains can read it back with Src.
package raster

import (
	"fmt"
	"image"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tejashwikalptaru/gosketch/internal/domain"
	"github.com/tejashwikalptaru/gosketch/internal/graph"
	"github.com/tejashwikalptaru/gosketch/internal/ports"
)

// Outputs is the number of render outputs (o0 to o3). Output 0 is displayed.
const Outputs = 4

// Config holds the rasterizer settings.
type Config struct {
	// Scale divides the surface size to get the render resolution
	Scale int

	// Workers bounds the number of goroutines rasterizing a frame
	Workers int

	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time

	Logger *slog.Logger
}

// DefaultConfig returns the default rasterizer settings.
func DefaultConfig() Config {
	return Config{
		Scale:   4,
		Workers: runtime.NumCPU(),
		Clock:   time.Now,
	}
}

// Factory returns a ports.RendererFactory building rasterizers with config.
func Factory(config Config) ports.RendererFactory {
	return func(size domain.Size, opts ports.RendererOptions) (ports.Renderer, error) {
		return New(size, opts, config)
	}
}

// Renderer is a ports.Renderer that rasterizes on the CPU.
type Renderer struct {
	size   domain.Size
	res    domain.Size // Render resolution
	opts   ports.RendererOptions
	config Config
	logger *slog.Logger
	start  time.Time

	mu      sync.Mutex
	chains  [Outputs]*graph.Chain
	buffers [Outputs]*image.RGBA // Last rendered image of each output
	frames  uint64
}

// Compile-time check
var _ ports.Renderer = (*Renderer)(nil)

// New creates a renderer for size. The renderer clock starts at zero.
func New(size domain.Size, opts ports.RendererOptions, config Config) (*Renderer, error) {
	if size.Empty() {
		return nil, domain.NewRendererError("construct", fmt.Sprintf("empty surface %dx%d", size.Width, size.Height), nil)
	}

	defaults := DefaultConfig()
	if config.Scale < 1 {
		config.Scale = defaults.Scale
	}
	if config.Workers < 1 {
		config.Workers = defaults.Workers
	}
	if config.Clock == nil {
		config.Clock = defaults.Clock
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	res := domain.Size{
		Width:  max((size.Width+config.Scale-1)/config.Scale, 1),
		Height: max((size.Height+config.Scale-1)/config.Scale, 1),
	}

	r := &Renderer{
		size:   size,
		res:    res,
		opts:   opts,
		config: config,
		logger: config.Logger.With(slog.String("adapter", "raster")),
		start:  config.Clock(),
	}
	for i := range r.buffers {
		r.buffers[i] = image.NewRGBA(image.Rect(0, 0, res.Width, res.Height))
	}

	r.logger.Debug("renderer constructed",
		slog.Int("width", size.Width),
		slog.Int("height", size.Height),
		slog.Int("render_width", res.Width),
		slog.Int("render_height", res.Height),
		slog.Bool("detect_audio", opts.DetectAudio))

	return r, nil
}

// Size returns the surface size.
func (r *Renderer) Size() domain.Size { return r.size }

// Resolution returns the render resolution.
func (r *Renderer) Resolution() domain.Size { return r.res }

// Options returns the construction options.
func (r *Renderer) Options() ports.RendererOptions { return r.opts }

// Time returns seconds since the renderer was constructed.
func (r *Renderer) Time() float64 {
	return r.config.Clock().Sub(r.start).Seconds()
}

// Frames returns the number of frames rasterized.
func (r *Renderer) Frames() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

// Clear forgets every chain and blanks every output.
func (r *Renderer) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.chains {
		r.chains[i] = nil
		clear(r.buffers[i].Pix)
	}
}

// Out declares chain as the graph of output.
func (r *Renderer) Out(output int, chain *graph.Chain) error {
	if output < 0 || output >= Outputs {
		return fmt.Errorf("%w: o%d", domain.ErrUnknownOutput, output)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.chains[output] = chain
	return nil
}

// Evaluate resolves every declared chain and freezes the renderer time.
func (r *Renderer) Evaluate() ports.Frame {
	r.mu.Lock()
	chains := r.chains
	r.mu.Unlock()

	f := &frame{r: r, time: r.Time()}
	for i, c := range chains {
		f.resolved[i] = c.Resolve()
	}
	return f
}

// frame is one evaluated frame.
type frame struct {
	r        *Renderer
	time     float64
	resolved [Outputs]*graph.Resolved
}

// Render rasterizes every declared output and returns output 0.
func (f *frame) Render() image.Image {
	r := f.r
	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.buffers
	next := prev
	for i, res := range f.resolved {
		if res == nil || len(res.Nodes) == 0 {
			continue
		}
		img := image.NewRGBA(prev[i].Rect)
		f.rasterize(img, res, &prev)
		next[i] = img
	}
	r.buffers = next
	r.frames++

	out := image.NewRGBA(next[0].Rect)
	copy(out.Pix, next[0].Pix)
	return out
}

// rasterize fills img with chain, splitting rows across workers.
func (f *frame) rasterize(img *image.RGBA, chain *graph.Resolved, prev *[Outputs]*image.RGBA) {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	s := &shader{time: f.time, prev: prev, res: vec2{float64(w), float64(h)}}

	workers := min(f.r.config.Workers, h)
	rows := (h + workers - 1) / workers

	var g errgroup.Group
	for y0 := 0; y0 < h; y0 += rows {
		y1 := min(y0+rows, h)
		g.Go(func() error {
			for y := y0; y < y1; y++ {
				for x := 0; x < w; x++ {
					st := vec2{(float64(x) + 0.5) / float64(w), 1 - (float64(y)+0.5)/float64(h)}
					c := s.sample(chain.Nodes, st)
					i := img.PixOffset(x, y)
					img.Pix[i+0] = channel(c[0])
					img.Pix[i+1] = channel(c[1])
					img.Pix[i+2] = channel(c[2])
					img.Pix[i+3] = 0xff
				}
			}
			return nil
		})
	}
	_ = g.Wait()
}

func channel(v float64) uint8 {
	switch {
	case !(v > 0):
		return 0
	case v >= 1:
		return 0xff
	default:
		return uint8(v*255 + 0.5)
	}
}
