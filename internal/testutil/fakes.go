package testutil

import (
	"image"
	"math"
	"sync"
	"time"

	"github.com/tejashwikalptaru/gosketch/internal/domain"
	"github.com/tejashwikalptaru/gosketch/internal/graph"
	"github.com/tejashwikalptaru/gosketch/internal/ports"
)

// Renderer is a recording fake of ports.Renderer.
type Renderer struct {
	mu      sync.Mutex
	size    domain.Size
	opts    ports.RendererOptions
	time    float64
	outputs map[int]*graph.Chain
	clears  int
	evals   int
	failOut bool
}

// Compile-time check
var _ ports.Renderer = (*Renderer)(nil)

// NewRenderer returns a fake renderer for size.
func NewRenderer(size domain.Size, opts ports.RendererOptions) *Renderer {
	return &Renderer{size: size, opts: opts, outputs: make(map[int]*graph.Chain)}
}

// RendererFactory returns a factory that records every renderer it builds.
func RendererFactory(built *[]*Renderer) ports.RendererFactory {
	var mu sync.Mutex
	return func(size domain.Size, opts ports.RendererOptions) (ports.Renderer, error) {
		r := NewRenderer(size, opts)
		mu.Lock()
		*built = append(*built, r)
		mu.Unlock()
		return r, nil
	}
}

// Size returns the construction size.
func (r *Renderer) Size() domain.Size { return r.size }

// Options returns the construction options.
func (r *Renderer) Options() ports.RendererOptions { return r.opts }

// SetTime sets the value Time returns.
func (r *Renderer) SetTime(t float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.time = t
}

// SetFailOut makes Out return domain.ErrUnknownOutput.
func (r *Renderer) SetFailOut(fail bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failOut = fail
}

// Time returns the fake clock.
func (r *Renderer) Time() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.time
}

// Clear forgets every output.
func (r *Renderer) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outputs = make(map[int]*graph.Chain)
	r.clears++
}

// Out records chain for output.
func (r *Renderer) Out(output int, chain *graph.Chain) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failOut {
		return domain.ErrUnknownOutput
	}
	r.outputs[output] = chain
	return nil
}

// Output returns the chain declared for output.
func (r *Renderer) Output(output int) *graph.Chain {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.outputs[output]
}

// Outputs returns the number of declared outputs.
func (r *Renderer) Outputs() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.outputs)
}

// Clears returns how often Clear was called.
func (r *Renderer) Clears() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clears
}

// Evaluations returns how often Evaluate was called.
func (r *Renderer) Evaluations() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.evals
}

// Evaluate resolves every declared chain once.
func (r *Renderer) Evaluate() ports.Frame {
	r.mu.Lock()
	chains := make([]*graph.Chain, 0, len(r.outputs))
	for _, c := range r.outputs {
		chains = append(chains, c)
	}
	r.evals++
	size := r.size
	r.mu.Unlock()

	for _, c := range chains {
		c.Resolve()
	}
	return frame{size: size}
}

type frame struct {
	size domain.Size
}

func (f frame) Render() image.Image {
	return image.NewRGBA(image.Rect(0, 0, f.size.Width, f.size.Height))
}

// Fullscreen is a fake fullscreen capability. Requests settle immediately
// with Err unless Hold is set, in which case Settle completes them.
type Fullscreen struct {
	CapName   string
	Available bool
	Err       error
	Hold      bool

	mu       sync.Mutex
	requests int
	pending  []func(error)
}

// Compile-time check
var _ ports.Fullscreen = (*Fullscreen)(nil)

// Name returns CapName.
func (f *Fullscreen) Name() string { return f.CapName }

// Supported returns Available.
func (f *Fullscreen) Supported() bool { return f.Available }

// Request records the request and settles it.
func (f *Fullscreen) Request(done func(error)) {
	f.mu.Lock()
	f.requests++
	if f.Hold {
		f.pending = append(f.pending, done)
		f.mu.Unlock()
		return
	}
	err := f.Err
	f.mu.Unlock()
	done(err)
}

// Settle completes held requests with err.
func (f *Fullscreen) Settle(err error) {
	f.mu.Lock()
	pending := f.pending
	f.pending = nil
	f.mu.Unlock()
	for _, done := range pending {
		done(err)
	}
}

// Requests returns how many times Request was called.
func (f *Fullscreen) Requests() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests
}

// Display is a fake display whose Run blocks until Quit.
type Display struct {
	mu      sync.Mutex
	size    domain.Size
	caps    []ports.Fullscreen
	events  ports.DisplayEvents
	running chan struct{}
	quit    chan struct{}
	once    sync.Once
}

// Compile-time check
var _ ports.Display = (*Display)(nil)

// NewDisplay returns a fake display.
func NewDisplay(size domain.Size, caps ...ports.Fullscreen) *Display {
	return &Display{
		size:    size,
		caps:    caps,
		running: make(chan struct{}),
		quit:    make(chan struct{}),
	}
}

// Size returns the current size.
func (d *Display) Size() domain.Size {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.size
}

// SetSize changes the size and reports it like a window resize.
func (d *Display) SetSize(size domain.Size) {
	d.mu.Lock()
	d.size = size
	events := d.events
	d.mu.Unlock()
	if events != nil {
		events.OnResize(size)
	}
}

// Click reports an interaction.
func (d *Display) Click() {
	d.mu.Lock()
	events := d.events
	d.mu.Unlock()
	if events != nil {
		events.OnInteraction()
	}
}

// Fullscreen returns the configured capabilities.
func (d *Display) Fullscreen() []ports.Fullscreen { return d.caps }

// Run reports the initial size and blocks until Quit.
func (d *Display) Run(events ports.DisplayEvents) error {
	d.mu.Lock()
	d.events = events
	size := d.size
	d.mu.Unlock()

	events.OnResize(size)
	close(d.running)
	<-d.quit
	return nil
}

// Running is closed once Run has started.
func (d *Display) Running() <-chan struct{} { return d.running }

// Quit makes Run return.
func (d *Display) Quit() {
	d.once.Do(func() { close(d.quit) })
}

// Capture is a fake ports.SampleCapture that plays a sine tone from its own
// goroutine until stopped.
type Capture struct {
	Rate     int
	Freq     float64
	Amp      float32
	Block    int
	Interval time.Duration
	StartErr error

	mu      sync.Mutex
	stop    chan struct{}
	wg      sync.WaitGroup
	phase   float64
	starts  int
	stops   int
	running bool
}

// Compile-time check
var _ ports.SampleCapture = (*Capture)(nil)

// NewCapture returns a 48 kHz capture playing freq at half scale.
func NewCapture(freq float64) *Capture {
	return &Capture{Rate: 48000, Freq: freq, Amp: 0.5, Block: 256, Interval: time.Millisecond}
}

// Start begins delivering blocks to sink.
func (c *Capture) Start(sink func([]float32)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.starts++
	if c.StartErr != nil {
		return c.StartErr
	}
	if c.running {
		return nil
	}
	c.running = true
	c.stop = make(chan struct{})

	c.wg.Add(1)
	go func(stop <-chan struct{}) {
		defer c.wg.Done()
		ticker := time.NewTicker(c.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				sink(c.Next(c.Block))
			}
		}
	}(c.stop)

	return nil
}

// Next returns the next n samples of the tone.
func (c *Capture) Next(n int) []float32 {
	out := make([]float32, n)
	step := 2 * math.Pi * c.Freq / float64(c.Rate)
	for i := range out {
		out[i] = c.Amp * float32(math.Sin(c.phase))
		c.phase += step
	}
	return out
}

// Stop halts delivery.
func (c *Capture) Stop() error {
	c.mu.Lock()
	c.stops++
	if !c.running {
		c.mu.Unlock()
		return nil
	}
	c.running = false
	close(c.stop)
	c.mu.Unlock()

	c.wg.Wait()
	return nil
}

// SampleRate returns Rate.
func (c *Capture) SampleRate() int { return c.Rate }

// Calls returns how many times Start and Stop were called.
func (c *Capture) Calls() (starts, stops int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.starts, c.stops
}
