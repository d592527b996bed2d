package raster

import (
	"image"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/gosketch/internal/domain"
	"github.com/tejashwikalptaru/gosketch/internal/graph"
	"github.com/tejashwikalptaru/gosketch/internal/logger"
	"github.com/tejashwikalptaru/gosketch/internal/ports"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newRenderer(t *testing.T, size domain.Size) (*Renderer, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Unix(100, 0)}
	r, err := New(size, ports.RendererOptions{DetectAudio: true}, Config{
		Scale:   1,
		Workers: 2,
		Clock:   clock.Now,
		Logger:  logger.NewTestLogger(),
	})
	require.NoError(t, err)
	return r, clock
}

func render(t *testing.T, r *Renderer) *image.RGBA {
	t.Helper()
	img, ok := r.Evaluate().Render().(*image.RGBA)
	require.True(t, ok)
	return img
}

func pixel(img *image.RGBA, x, y int) [3]uint8 {
	i := img.PixOffset(x, y)
	return [3]uint8{img.Pix[i], img.Pix[i+1], img.Pix[i+2]}
}

func TestNew_EmptySurface(t *testing.T) {
	_, err := New(domain.Size{Width: 0, Height: 10}, ports.RendererOptions{}, DefaultConfig())

	var rerr *domain.RendererError
	assert.ErrorAs(t, err, &rerr)
}

func TestNew_Resolution(t *testing.T) {
	r, err := New(domain.Size{Width: 1920, Height: 1080}, ports.RendererOptions{}, Config{Scale: 4})
	require.NoError(t, err)
	assert.Equal(t, domain.Size{Width: 480, Height: 270}, r.Resolution())
	assert.Equal(t, domain.Size{Width: 1920, Height: 1080}, r.Size())

	r, err = New(domain.Size{Width: 10, Height: 10}, ports.RendererOptions{}, Config{Scale: 4})
	require.NoError(t, err)
	assert.Equal(t, domain.Size{Width: 3, Height: 3}, r.Resolution())
}

func TestFactory(t *testing.T) {
	factory := Factory(Config{Scale: 2})
	r, err := factory(domain.Size{Width: 64, Height: 32}, ports.RendererOptions{DetectAudio: true})
	require.NoError(t, err)
	assert.True(t, r.Options().DetectAudio)
	assert.Equal(t, domain.Size{Width: 64, Height: 32}, r.Size())
}

func TestTime_RestartsPerRenderer(t *testing.T) {
	r, clock := newRenderer(t, domain.Size{Width: 4, Height: 4})
	assert.Equal(t, 0.0, r.Time())

	clock.Advance(2500 * time.Millisecond)
	assert.InDelta(t, 2.5, r.Time(), 1e-9)

	fresh, err := New(domain.Size{Width: 4, Height: 4}, ports.RendererOptions{}, Config{Scale: 1, Clock: clock.Now})
	require.NoError(t, err)
	assert.Equal(t, 0.0, fresh.Time())
}

func TestOut_UnknownOutput(t *testing.T) {
	r, _ := newRenderer(t, domain.Size{Width: 4, Height: 4})

	assert.ErrorIs(t, r.Out(-1, graph.Solid()), domain.ErrUnknownOutput)
	assert.ErrorIs(t, r.Out(Outputs, graph.Solid()), domain.ErrUnknownOutput)
	assert.NoError(t, r.Out(3, graph.Solid()))
}

func TestRender_Solid(t *testing.T) {
	r, _ := newRenderer(t, domain.Size{Width: 5, Height: 3})
	require.NoError(t, r.Out(0, graph.Solid(graph.N(1), graph.N(0), graph.N(0))))

	img := render(t, r)
	assert.Equal(t, image.Rect(0, 0, 5, 3), img.Rect)
	for y := 0; y < 3; y++ {
		for x := 0; x < 5; x++ {
			assert.Equal(t, [3]uint8{255, 0, 0}, pixel(img, x, y))
		}
	}
	assert.Equal(t, uint64(1), r.Frames())
}

func TestRender_ColorSteps(t *testing.T) {
	r, _ := newRenderer(t, domain.Size{Width: 1, Height: 1})
	require.NoError(t, r.Out(0, graph.Solid(graph.N(0.2), graph.N(0.4), graph.N(0.6)).Invert()))

	assert.Equal(t, [3]uint8{204, 153, 102}, pixel(render(t, r), 0, 0))

	require.NoError(t, r.Out(0, graph.Solid(graph.N(0.5), graph.N(0.5), graph.N(0.5)).Color(graph.N(1), graph.N(0), graph.N(0.5))))
	assert.Equal(t, [3]uint8{128, 0, 64}, pixel(render(t, r), 0, 0))

	require.NoError(t, r.Out(0, graph.Solid(graph.N(0.2), graph.N(0.2), graph.N(0.2)).Brightness(graph.N(0.2))))
	assert.Equal(t, [3]uint8{102, 102, 102}, pixel(render(t, r), 0, 0))
}

func TestRender_GeometryTransformsCoordinates(t *testing.T) {
	r, _ := newRenderer(t, domain.Size{Width: 4, Height: 1})
	require.NoError(t, r.Out(0, graph.Gradient().Scroll(graph.N(0.5), graph.N(0), graph.N(0), graph.N(0))))

	img := render(t, r)
	// Pixel 0 sits at x = 0.125, scrolled to 0.625
	assert.Equal(t, uint8(159), pixel(img, 0, 0)[0])
}

func TestRender_Shape(t *testing.T) {
	r, _ := newRenderer(t, domain.Size{Width: 9, Height: 9})
	require.NoError(t, r.Out(0, graph.Shape(graph.N(4), graph.N(0.5), graph.N(0.001))))

	img := render(t, r)
	assert.Equal(t, [3]uint8{255, 255, 255}, pixel(img, 4, 4))
	assert.Equal(t, [3]uint8{0, 0, 0}, pixel(img, 0, 0))
}

func TestRender_Feedback(t *testing.T) {
	r, _ := newRenderer(t, domain.Size{Width: 2, Height: 2})
	require.NoError(t, r.Out(0, graph.Src(0).Add(graph.Solid(graph.N(0.2), graph.N(0), graph.N(0)))))

	assert.Equal(t, uint8(51), pixel(render(t, r), 1, 1)[0])
	assert.Equal(t, uint8(102), pixel(render(t, r), 1, 1)[0])
	assert.Equal(t, uint8(153), pixel(render(t, r), 1, 1)[0])
}

func TestRender_SecondaryOutputs(t *testing.T) {
	r, _ := newRenderer(t, domain.Size{Width: 2, Height: 2})
	require.NoError(t, r.Out(1, graph.Solid(graph.N(0), graph.N(1), graph.N(0))))
	require.NoError(t, r.Out(0, graph.Src(1)))

	// o0 reads the previous frame of o1
	assert.Equal(t, [3]uint8{0, 0, 0}, pixel(render(t, r), 0, 0))
	assert.Equal(t, [3]uint8{0, 255, 0}, pixel(render(t, r), 0, 0))
}

func TestClear(t *testing.T) {
	r, _ := newRenderer(t, domain.Size{Width: 2, Height: 2})
	require.NoError(t, r.Out(0, graph.Solid(graph.N(1), graph.N(1), graph.N(1))))
	render(t, r)

	r.Clear()
	img := render(t, r)
	for _, b := range img.Pix {
		require.Zero(t, b)
	}
}

func TestEvaluate_ResolvesOncePerFrame(t *testing.T) {
	r, _ := newRenderer(t, domain.Size{Width: 8, Height: 8})

	calls := 0
	p := graph.Fn(func() float64 {
		calls++
		return 0.5
	})
	require.NoError(t, r.Out(0, graph.Osc(graph.N(10), graph.N(0), p).Rotate(p)))
	require.NoError(t, r.Out(1, graph.Noise(p)))

	frame := r.Evaluate()
	assert.Equal(t, 3, calls)

	frame.Render()
	assert.Equal(t, 3, calls)
}

func TestEvaluate_FreezesTime(t *testing.T) {
	r, clock := newRenderer(t, domain.Size{Width: 16, Height: 1})
	require.NoError(t, r.Out(0, graph.Osc(graph.N(20), graph.N(1), graph.N(0))))

	frame := r.Evaluate()
	clock.Advance(time.Second)
	a := frame.Render().(*image.RGBA)

	clock.Advance(-time.Second)
	b := r.Evaluate().Render().(*image.RGBA)

	assert.Equal(t, a.Pix, b.Pix)
}

func TestRender_WorkersAgree(t *testing.T) {
	chain := graph.Voronoi(graph.N(4)).
		Modulate(graph.Noise(graph.N(3)), graph.N(0.2)).
		Kaleid(graph.N(5)).
		Hue(graph.N(0.3)).
		Diff(graph.Osc(graph.N(30)).ModulateRotate(graph.Shape(graph.N(6))))

	images := make([][]uint8, 0, 2)
	for _, workers := range []int{1, 7} {
		clock := &fakeClock{now: time.Unix(0, 0)}
		r, err := New(domain.Size{Width: 33, Height: 21}, ports.RendererOptions{}, Config{Scale: 1, Workers: workers, Clock: clock.Now})
		require.NoError(t, err)
		require.NoError(t, r.Out(0, chain))
		clock.Advance(1500 * time.Millisecond)
		images = append(images, r.Evaluate().Render().(*image.RGBA).Pix)
	}

	assert.Equal(t, images[0], images[1])
}

func TestNoise_Bounded(t *testing.T) {
	for x := -3.0; x < 3; x += 0.37 {
		for y := -3.0; y < 3; y += 0.41 {
			v := noise3(x, y, 0.7)
			require.False(t, math.IsNaN(v))
			require.LessOrEqual(t, math.Abs(v), 1.1)
		}
	}
}

func TestHSV_RoundTrip(t *testing.T) {
	for _, c := range [][3]float64{{1, 0, 0}, {0.2, 0.6, 0.4}, {0.9, 0.9, 0.1}, {0.3, 0.3, 0.3}} {
		h, s, v := rgbToHSV(c[0], c[1], c[2])
		r, g, b := hsvToRGB(h, s, v)
		assert.InDelta(t, c[0], r, 1e-9)
		assert.InDelta(t, c[1], g, 1e-9)
		assert.InDelta(t, c[2], b, 1e-9)
	}
}
