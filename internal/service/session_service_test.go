package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/gosketch/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/gosketch/internal/adapter/scheduler/loop"
	"github.com/tejashwikalptaru/gosketch/internal/adapter/scheduler/manual"
	"github.com/tejashwikalptaru/gosketch/internal/adapter/signal/mock"
	"github.com/tejashwikalptaru/gosketch/internal/domain"
	"github.com/tejashwikalptaru/gosketch/internal/logger"
	"github.com/tejashwikalptaru/gosketch/internal/patch"
	"github.com/tejashwikalptaru/gosketch/internal/ports"
	"github.com/tejashwikalptaru/gosketch/internal/testutil"
)

var (
	windowed   = domain.Size{Width: 800, Height: 600}
	fullscreen = domain.Size{Width: 1920, Height: 1080}
)

type sessionFixture struct {
	sched    *manual.Scheduler
	bus      *eventbus.SyncEventBus
	display  *testutil.Display
	source   *mock.Source
	built    []*testutil.Renderer
	session  *SessionService
	switcher *SwitcherService
	events   []domain.Event
}

func newSessionFixture(t *testing.T, caps ...ports.Fullscreen) *sessionFixture {
	t.Helper()

	f := &sessionFixture{
		sched:   manual.New(time.Unix(0, 0)),
		bus:     eventbus.NewSyncEventBus(),
		display: testutil.NewDisplay(windowed, caps...),
		source:  mock.NewBeatSource(),
	}
	t.Cleanup(func() { _ = f.bus.Close() })

	f.source.SetClock(f.sched.Now)
	f.bus.SubscribeAll(func(e domain.Event) { f.events = append(f.events, e) })

	f.session = NewSessionService(logger.NewTestLogger(), f.bus, f.sched, f.display,
		testutil.RendererFactory(&f.built), f.source, DefaultSessionConfig())

	switcher, err := NewSwitcherService(logger.NewTestLogger(), f.bus, patch.Catalog(), f.session.Env)
	require.NoError(t, err)
	f.switcher = switcher
	f.session.Attach(switcher)

	return f
}

func (f *sessionFixture) types() []domain.EventType {
	out := make([]domain.EventType, len(f.events))
	for i, e := range f.events {
		out[i] = e.Type()
	}
	return out
}

func (f *sessionFixture) find(typ domain.EventType) (domain.Event, bool) {
	for _, e := range f.events {
		if e.Type() == typ {
			return e, true
		}
	}
	return nil, false
}

func (f *sessionFixture) lastRenderer() *testutil.Renderer {
	if len(f.built) == 0 {
		return nil
	}
	return f.built[len(f.built)-1]
}

func TestSession_FirstInteractionActivatesAfterSettle(t *testing.T) {
	fs := &testutil.Fullscreen{CapName: "window", Available: true}
	f := newSessionFixture(t, fs)

	f.session.OnResize(windowed)
	require.Len(t, f.built, 1)
	assert.Equal(t, windowed, f.built[0].Size())
	assert.True(t, f.built[0].Options().DetectAudio)

	f.session.OnInteraction()
	assert.True(t, f.session.Started())
	assert.True(t, f.session.Settling())
	assert.Equal(t, 1, fs.Requests())

	// Fullscreen takes effect without a resize notification
	f.display.SetSize(fullscreen)

	f.sched.Advance(DefaultSettleDelay - time.Millisecond)
	index, live := f.switcher.Active()
	assert.Equal(t, -1, index)
	assert.False(t, live)

	f.sched.Advance(time.Millisecond)
	index, live = f.switcher.Active()
	assert.Equal(t, 0, index)
	assert.True(t, live)
	assert.False(t, f.session.Settling())

	require.Len(t, f.built, 2)
	assert.Equal(t, fullscreen, f.session.Size())
	assert.Same(t, f.built[1], f.session.Renderer())
	assert.Equal(t, 1, f.built[1].Outputs())

	assert.Equal(t, []domain.EventType{
		domain.EventSurfaceResized,
		domain.EventSessionStarted,
		domain.EventFullscreenEntered,
		domain.EventSurfaceResized,
		domain.EventPatchActivated,
	}, f.types())
}

func TestSession_LaterInteractionsAdvance(t *testing.T) {
	f := newSessionFixture(t, &testutil.Fullscreen{CapName: "window", Available: true})
	f.session.OnResize(windowed)
	f.session.OnInteraction()
	f.sched.Advance(DefaultSettleDelay)

	var seen []int
	for i := 0; i < 7; i++ {
		f.session.OnInteraction()
		index, live := f.switcher.Active()
		require.True(t, live)
		seen = append(seen, index)
	}

	assert.Equal(t, []int{1, 2, 3, 4, 5, 0, 1}, seen)
}

func TestSession_InteractionsDuringSettleAreDropped(t *testing.T) {
	f := newSessionFixture(t, &testutil.Fullscreen{CapName: "window", Available: true})
	f.session.OnResize(windowed)

	f.session.OnInteraction()
	f.session.OnInteraction()
	f.session.OnInteraction()
	f.sched.Advance(DefaultSettleDelay)

	index, live := f.switcher.Active()
	assert.Equal(t, 0, index)
	assert.True(t, live)
}

func TestSession_NoSupportedFullscreen(t *testing.T) {
	unsupported := &testutil.Fullscreen{CapName: "standard", Available: false}
	f := newSessionFixture(t, unsupported)
	f.session.OnResize(windowed)

	f.session.OnInteraction()
	assert.Equal(t, 0, unsupported.Requests())

	e, ok := f.find(domain.EventFullscreenUnavailable)
	require.True(t, ok)
	assert.ErrorIs(t, e.(domain.FullscreenUnavailableEvent).Error, domain.ErrFullscreenUnsupported)

	f.sched.Advance(DefaultSettleDelay)
	_, live := f.switcher.Active()
	assert.True(t, live)
}

func TestSession_FirstSupportedCapabilityWins(t *testing.T) {
	standard := &testutil.Fullscreen{CapName: "standard", Available: false}
	vendor := &testutil.Fullscreen{CapName: "vendor", Available: true}
	other := &testutil.Fullscreen{CapName: "other", Available: true}
	f := newSessionFixture(t, standard, vendor, other)
	f.session.OnResize(windowed)

	f.session.OnInteraction()

	assert.Equal(t, 0, standard.Requests())
	assert.Equal(t, 1, vendor.Requests())
	assert.Equal(t, 0, other.Requests())

	e, ok := f.find(domain.EventFullscreenEntered)
	require.True(t, ok)
	assert.Equal(t, "vendor", e.(domain.FullscreenEnteredEvent).Capability)
}

func TestSession_FullscreenRequestFails(t *testing.T) {
	denied := errors.New("permission denied")
	f := newSessionFixture(t, &testutil.Fullscreen{CapName: "window", Available: true, Err: denied})
	f.session.OnResize(windowed)

	f.session.OnInteraction()

	e, ok := f.find(domain.EventFullscreenUnavailable)
	require.True(t, ok)
	assert.ErrorIs(t, e.(domain.FullscreenUnavailableEvent).Error, denied)

	f.sched.Advance(DefaultSettleDelay)
	index, live := f.switcher.Active()
	assert.Equal(t, 0, index)
	assert.True(t, live)
}

func TestSession_SettleStartsWhenRequestCompletes(t *testing.T) {
	fs := &testutil.Fullscreen{CapName: "window", Available: true, Hold: true}
	f := newSessionFixture(t, fs)
	f.session.OnResize(windowed)

	f.session.OnInteraction()
	f.sched.Advance(time.Second)

	_, live := f.switcher.Active()
	assert.False(t, live)
	assert.True(t, f.session.Settling())

	fs.Settle(nil)
	f.sched.Advance(DefaultSettleDelay)

	_, live = f.switcher.Active()
	assert.True(t, live)
}

func TestSession_ResizeRebuildsRendererAndReloads(t *testing.T) {
	f := newSessionFixture(t, &testutil.Fullscreen{CapName: "window", Available: true})
	f.session.OnResize(windowed)
	f.session.OnInteraction()
	f.sched.Advance(DefaultSettleDelay)
	require.NoError(t, f.switcher.Select(4)) // Eyeball has two updaters

	before := f.lastRenderer()
	f.session.OnResize(domain.Size{Width: 640, Height: 480})

	after := f.lastRenderer()
	require.NotSame(t, before, after)
	assert.Same(t, after, f.session.Renderer())
	assert.Equal(t, 1, after.Outputs())

	index, live := f.switcher.Active()
	assert.Equal(t, 4, index)
	assert.True(t, live)

	current, ok := f.switcher.Current()
	require.True(t, ok)
	assert.Equal(t, 2, current.Updaters())
	assert.Equal(t, 2, f.sched.Pending())
}

func TestSession_EmptySizeIgnored(t *testing.T) {
	f := newSessionFixture(t)
	f.session.OnResize(windowed)
	f.session.OnResize(domain.Size{})
	f.session.OnResize(domain.Size{Width: 10})

	assert.Len(t, f.built, 1)
	assert.Equal(t, windowed, f.session.Size())
}

func TestSession_RendererFactoryFailureKeepsPrevious(t *testing.T) {
	sched := manual.New(time.Unix(0, 0))
	bus := eventbus.NewSyncEventBus()
	defer bus.Close()

	calls := 0
	good := testutil.NewRenderer(windowed, ports.RendererOptions{})
	factory := func(size domain.Size, opts ports.RendererOptions) (ports.Renderer, error) {
		calls++
		if calls > 1 {
			return nil, errors.New("no context")
		}
		return good, nil
	}

	s := NewSessionService(logger.NewTestLogger(), bus, sched, testutil.NewDisplay(windowed),
		factory, mock.NewSource(), DefaultSessionConfig())

	s.OnResize(windowed)
	s.OnResize(fullscreen)

	assert.Equal(t, 2, calls)
	assert.Same(t, good, s.Renderer())
	assert.Equal(t, windowed, s.Size())
}

func TestSession_RenderFrame(t *testing.T) {
	f := newSessionFixture(t)
	assert.Nil(t, f.session.RenderFrame())

	f.session.OnResize(windowed)
	f.session.OnInteraction()
	f.sched.Advance(DefaultSettleDelay)

	img := f.session.RenderFrame()
	require.NotNil(t, img)
	assert.Equal(t, windowed.Width, img.Bounds().Dx())
	assert.Equal(t, 1, f.lastRenderer().Evaluations())
}

func TestSession_EnvBeforeRenderer(t *testing.T) {
	f := newSessionFixture(t)
	env := f.session.Env()
	assert.Nil(t, env.Renderer)
	assert.NotNil(t, env.Source)
	assert.NotNil(t, env.Scheduler)

	// Activating without a surface fails and leaves nothing running
	assert.ErrorIs(t, f.switcher.Select(0), domain.ErrNoRenderer)
	assert.Equal(t, 0, f.sched.Pending())
}

func TestSession_ShutdownCancelsSettle(t *testing.T) {
	f := newSessionFixture(t, &testutil.Fullscreen{CapName: "window", Available: true})
	f.session.OnResize(windowed)
	f.session.OnInteraction()
	require.Equal(t, 1, f.sched.Pending())

	f.session.Shutdown()
	f.sched.Advance(time.Second)

	_, live := f.switcher.Active()
	assert.False(t, live)
	assert.Equal(t, 0, f.sched.Pending())
	assert.False(t, f.session.Settling())
}

func TestSession_ShutdownStopsUpdaters(t *testing.T) {
	f := newSessionFixture(t, &testutil.Fullscreen{CapName: "window", Available: true})
	f.session.OnResize(windowed)
	f.session.OnInteraction()
	f.sched.Advance(DefaultSettleDelay)
	require.NoError(t, f.switcher.Select(4))
	require.Equal(t, 2, f.sched.Pending())

	f.session.Shutdown()

	assert.Equal(t, 0, f.sched.Pending())
	assert.False(t, f.source.Visible())
}

// TestSession_EventLoop runs the session on the real event loop with a display
// driving it from another goroutine.
func TestSession_EventLoop(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	l := loop.New(logger.NewTestLogger())
	bus := eventbus.NewSyncEventBus()
	defer bus.Close()

	display := testutil.NewDisplay(windowed, &testutil.Fullscreen{CapName: "window", Available: true})
	var built []*testutil.Renderer
	config := DefaultSessionConfig()
	config.SettleDelay = 5 * time.Millisecond

	session := NewSessionService(logger.NewTestLogger(), bus, l, display,
		testutil.RendererFactory(&built), mock.NewBeatSource(), config)
	switcher, err := NewSwitcherService(logger.NewTestLogger(), bus, patch.Catalog(), session.Env)
	require.NoError(t, err)
	session.Attach(switcher)

	done := make(chan error, 1)
	go func() { done <- display.Run(session) }()
	<-display.Running()

	display.Click()
	require.Eventually(t, func() bool {
		_, live := switcher.Active()
		return live
	}, time.Second, time.Millisecond)

	display.Click()
	require.Eventually(t, func() bool {
		index, _ := switcher.Active()
		return index == 1
	}, time.Second, time.Millisecond)

	assert.NotNil(t, session.RenderFrame())

	session.Shutdown()
	display.Quit()
	require.NoError(t, <-done)
	l.Close()

	assert.Equal(t, 0, l.Pending())
}
