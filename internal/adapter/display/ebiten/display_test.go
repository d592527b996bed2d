package ebiten

import (
	"image"
	"image/color"
	"sync"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/gosketch/internal/domain"
	"github.com/tejashwikalptaru/gosketch/internal/logger"
)

type recordingEvents struct {
	mu           sync.Mutex
	sizes        []domain.Size
	interactions int
	frame        image.Image
}

func (e *recordingEvents) OnResize(size domain.Size) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sizes = append(e.sizes, size)
}

func (e *recordingEvents) OnInteraction() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.interactions++
}

func (e *recordingEvents) RenderFrame() image.Image {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frame
}

func newDisplay(events *recordingEvents) *Display {
	d := New(logger.NewTestLogger(), Config{Size: domain.Size{Width: 100, Height: 50}})
	d.events = events
	return d
}

func TestNew_Defaults(t *testing.T) {
	d := New(logger.NewTestLogger(), Config{})
	assert.Equal(t, DefaultConfig(), d.config)
	assert.Equal(t, domain.Size{Width: 800, Height: 600}, d.Size())
}

func TestLayout_ReportsResizeOnChange(t *testing.T) {
	events := &recordingEvents{}
	d := newDisplay(events)

	w, h := d.layout(100, 50, 1)
	assert.Equal(t, 100, w)
	assert.Equal(t, 50, h)
	assert.Empty(t, events.sizes)

	w, h = d.layout(100, 50, 2)
	assert.Equal(t, 200, w)
	assert.Equal(t, 100, h)
	assert.Equal(t, []domain.Size{{Width: 200, Height: 100}}, events.sizes)
	assert.Equal(t, domain.Size{Width: 200, Height: 100}, d.Size())
}

func TestLayout_ClampsEmptyWindow(t *testing.T) {
	d := newDisplay(&recordingEvents{})
	w, h := d.layout(0, 0, 0)
	assert.Equal(t, 1, w)
	assert.Equal(t, 1, h)
}

func TestStep_ClickIsInteraction(t *testing.T) {
	events := &recordingEvents{}
	d := newDisplay(events)

	require.NoError(t, d.step(input{}))
	require.NoError(t, d.step(input{click: true}))

	assert.Equal(t, 1, events.interactions)
}

func TestStep_QuitTerminates(t *testing.T) {
	d := newDisplay(&recordingEvents{})
	d.Quit()
	assert.ErrorIs(t, d.step(input{}), ebiten.Termination)
}

func TestFrame_Upscales(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 1, 1))
	src.SetRGBA(0, 0, color.RGBA{G: 255, A: 255})
	d := newDisplay(&recordingEvents{frame: src})

	img := d.frame(6, 4)

	assert.Equal(t, image.Rect(0, 0, 6, 4), img.Rect)
	assert.Equal(t, color.RGBA{G: 255, A: 255}, img.RGBAAt(5, 3))
}

func TestFrame_WithoutEvents(t *testing.T) {
	d := New(logger.NewTestLogger(), Config{})
	img := d.frame(2, 2)
	assert.Equal(t, color.RGBA{A: 255}, img.RGBAAt(0, 0))
}

func TestFullscreen_Capability(t *testing.T) {
	d := newDisplay(&recordingEvents{})
	caps := d.Fullscreen()
	require.Len(t, caps, 1)
	assert.Equal(t, capabilityName, caps[0].Name())
	assert.True(t, caps[0].Supported())
}
