package headless

import (
	"image"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/gosketch/internal/domain"
	"github.com/tejashwikalptaru/gosketch/internal/logger"
	"github.com/tejashwikalptaru/gosketch/internal/testutil"
)

type countingEvents struct {
	mu           sync.Mutex
	sizes        []domain.Size
	interactions int
	renders      int
}

func (e *countingEvents) OnResize(size domain.Size) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sizes = append(e.sizes, size)
}

func (e *countingEvents) OnInteraction() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.interactions++
}

func (e *countingEvents) RenderFrame() image.Image {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.renders++
	if e.renders == 1 {
		return nil
	}
	return image.NewRGBA(image.Rect(0, 0, 2, 2))
}

func (e *countingEvents) Interactions() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.interactions
}

func TestRun_StopsAtFrameLimit(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	var seen []int
	d := New(logger.NewTestLogger(), Config{
		Size:      domain.Size{Width: 64, Height: 32},
		FrameRate: 500,
		Frames:    3,
		OnFrame:   func(n int, _ image.Image) { seen = append(seen, n) },
	})
	events := &countingEvents{}

	require.NoError(t, d.Run(events))

	assert.Equal(t, []domain.Size{{Width: 64, Height: 32}}, events.sizes)
	assert.Equal(t, 1, events.interactions)
	assert.Equal(t, 3, d.Frames())
	assert.Equal(t, []int{1, 2, 3}, seen)
	assert.NotNil(t, d.Last())
}

func TestRun_ClicksPeriodically(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	d := New(logger.NewTestLogger(), Config{FrameRate: 200, ClickEvery: 2 * time.Millisecond})
	events := &countingEvents{}

	done := make(chan error, 1)
	go func() { done <- d.Run(events) }()

	assert.Eventually(t, func() bool { return events.Interactions() >= 3 }, time.Second, time.Millisecond)
	d.Quit()
	d.Quit()
	require.NoError(t, <-done)
}

func TestDefaults(t *testing.T) {
	d := New(logger.NewTestLogger(), Config{})
	assert.Equal(t, domain.Size{Width: 640, Height: 360}, d.Size())

	caps := d.Fullscreen()
	require.Len(t, caps, 1)
	assert.True(t, caps[0].Supported())

	var got error = domain.ErrFullscreenUnsupported
	caps[0].Request(func(err error) { got = err })
	assert.NoError(t, got)
}
