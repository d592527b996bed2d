package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/gosketch/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/gosketch/internal/adapter/scheduler/manual"
	"github.com/tejashwikalptaru/gosketch/internal/adapter/signal/mock"
	"github.com/tejashwikalptaru/gosketch/internal/domain"
	"github.com/tejashwikalptaru/gosketch/internal/logger"
	"github.com/tejashwikalptaru/gosketch/internal/patch"
	"github.com/tejashwikalptaru/gosketch/internal/testutil"
)

// recordingPatch logs lifecycle calls into a shared journal.
type recordingPatch struct {
	info     domain.PatchInfo
	state    domain.PatchState
	journal  *[]string
	updaters int
	failWith error
	onEnter  func()
}

func (p *recordingPatch) Info() domain.PatchInfo   { return p.info }
func (p *recordingPatch) State() domain.PatchState { return p.state }
func (p *recordingPatch) Updaters() int            { return p.updaters }

func (p *recordingPatch) Activate(patch.Env) error {
	*p.journal = append(*p.journal, fmt.Sprintf("activate %d", p.info.Index))
	if p.onEnter != nil {
		p.onEnter()
	}
	if p.failWith != nil {
		return p.failWith
	}
	p.state = domain.PatchActive
	p.updaters = 2
	return nil
}

func (p *recordingPatch) Deactivate() error {
	*p.journal = append(*p.journal, fmt.Sprintf("deactivate %d (updaters before: %d)", p.info.Index, p.updaters))
	p.updaters = 0
	p.state = domain.PatchDeactivated
	return nil
}

func newRecordingPatches(n int, journal *[]string) []*recordingPatch {
	out := make([]*recordingPatch, n)
	for i := range out {
		out[i] = &recordingPatch{info: domain.PatchInfo{Index: i, Name: fmt.Sprintf("p%d", i)}, journal: journal}
	}
	return out
}

func asPatches(ps []*recordingPatch) []patch.Patch {
	out := make([]patch.Patch, len(ps))
	for i, p := range ps {
		out[i] = p
	}
	return out
}

func newSwitcher(t *testing.T, patches []patch.Patch) (*SwitcherService, *eventbus.SyncEventBus) {
	t.Helper()
	bus := eventbus.NewSyncEventBus()
	t.Cleanup(func() { _ = bus.Close() })

	s, err := NewSwitcherService(logger.NewTestLogger(), bus, patches, func() patch.Env { return patch.Env{} })
	require.NoError(t, err)
	return s, bus
}

func TestSwitcher_EmptyRegistry(t *testing.T) {
	_, err := NewSwitcherService(logger.NewTestLogger(), eventbus.NewSyncEventBus(), nil, func() patch.Env { return patch.Env{} })
	assert.ErrorIs(t, err, domain.ErrEmptyRegistry)
}

func TestSwitcher_MissingEnv(t *testing.T) {
	var journal []string
	_, err := NewSwitcherService(logger.NewTestLogger(), eventbus.NewSyncEventBus(), asPatches(newRecordingPatches(1, &journal)), nil)
	assert.ErrorIs(t, err, domain.ErrNotInitialized)
}

func TestSwitcher_NothingActiveAtConstruction(t *testing.T) {
	var journal []string
	s, _ := newSwitcher(t, asPatches(newRecordingPatches(3, &journal)))

	index, live := s.Active()
	assert.Equal(t, -1, index)
	assert.False(t, live)
	assert.Empty(t, journal)
	assert.Equal(t, 3, s.Count())
}

func TestSwitcher_AdvanceWrapsAround(t *testing.T) {
	var journal []string
	s, _ := newSwitcher(t, asPatches(newRecordingPatches(3, &journal)))
	require.NoError(t, s.Select(0))

	var seen []int
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Advance())
		index, live := s.Active()
		require.True(t, live)
		seen = append(seen, index)
	}

	assert.Equal(t, []int{1, 2, 0, 1, 2}, seen)
}

func TestSwitcher_AdvanceKTimesYieldsKModM(t *testing.T) {
	for m := 1; m <= 4; m++ {
		for k := 0; k <= 9; k++ {
			var journal []string
			s, _ := newSwitcher(t, asPatches(newRecordingPatches(m, &journal)))
			require.NoError(t, s.Select(0))

			for i := 0; i < k; i++ {
				require.NoError(t, s.Advance())
			}

			index, _ := s.Active()
			assert.Equal(t, k%m, index, "m=%d k=%d", m, k)
		}
	}
}

func TestSwitcher_DeactivateBeforeActivate(t *testing.T) {
	var journal []string
	s, _ := newSwitcher(t, asPatches(newRecordingPatches(2, &journal)))

	require.NoError(t, s.Select(0))
	require.NoError(t, s.Advance())
	require.NoError(t, s.Advance())

	assert.Equal(t, []string{
		"activate 0",
		"deactivate 0 (updaters before: 2)",
		"activate 1",
		"deactivate 1 (updaters before: 2)",
		"activate 0",
	}, journal)
}

func TestSwitcher_AdvanceFromNothingSelectsFirst(t *testing.T) {
	var journal []string
	s, _ := newSwitcher(t, asPatches(newRecordingPatches(3, &journal)))

	require.NoError(t, s.Advance())

	index, live := s.Active()
	assert.Equal(t, 0, index)
	assert.True(t, live)
	assert.Equal(t, []string{"activate 0"}, journal)
}

func TestSwitcher_SelectOutOfRange(t *testing.T) {
	var journal []string
	s, _ := newSwitcher(t, asPatches(newRecordingPatches(2, &journal)))

	assert.ErrorIs(t, s.Select(2), domain.ErrInvalidPatchIndex)
	assert.ErrorIs(t, s.Select(-1), domain.ErrInvalidPatchIndex)
	assert.Empty(t, journal)
}

func TestSwitcher_ReentrantAdvanceIsDropped(t *testing.T) {
	var journal []string
	ps := newRecordingPatches(3, &journal)
	s, bus := newSwitcher(t, asPatches(ps))

	var dropped []domain.SwitchDroppedEvent
	bus.Subscribe(domain.EventSwitchDropped, func(e domain.Event) {
		dropped = append(dropped, e.(domain.SwitchDroppedEvent))
	})

	var nested error
	ps[1].onEnter = func() { nested = s.Advance() }

	require.NoError(t, s.Select(0))
	require.NoError(t, s.Advance())

	assert.ErrorIs(t, nested, domain.ErrTransitionInProgress)
	assert.True(t, IsDropped(nested))
	require.Len(t, dropped, 1)
	assert.Equal(t, 1, dropped[0].Requested)

	index, live := s.Active()
	assert.Equal(t, 1, index)
	assert.True(t, live)
	assert.Equal(t, []string{"activate 0", "deactivate 0 (updaters before: 2)", "activate 1"}, journal)
}

func TestSwitcher_ActivationFailure(t *testing.T) {
	var journal []string
	ps := newRecordingPatches(3, &journal)
	boom := errors.New("boom")
	ps[1].failWith = boom
	s, bus := newSwitcher(t, asPatches(ps))

	var errorsSeen int
	bus.Subscribe(domain.EventPatchError, func(domain.Event) { errorsSeen++ })

	require.NoError(t, s.Select(0))
	assert.ErrorIs(t, s.Advance(), boom)

	index, live := s.Active()
	assert.Equal(t, 1, index)
	assert.False(t, live)
	assert.Equal(t, 1, errorsSeen)

	_, ok := s.Current()
	assert.False(t, ok)

	// The broken patch is skipped by the next advance
	require.NoError(t, s.Advance())
	index, live = s.Active()
	assert.Equal(t, 2, index)
	assert.True(t, live)
}

func TestSwitcher_Reload(t *testing.T) {
	var journal []string
	s, _ := newSwitcher(t, asPatches(newRecordingPatches(2, &journal)))

	assert.ErrorIs(t, s.Reload(), domain.ErrPatchNotActive)

	require.NoError(t, s.Select(1))
	require.NoError(t, s.Reload())

	assert.Equal(t, []string{"activate 1", "deactivate 1 (updaters before: 2)", "activate 1"}, journal)
}

func TestSwitcher_Events(t *testing.T) {
	var journal []string
	s, bus := newSwitcher(t, asPatches(newRecordingPatches(2, &journal)))

	var types []domain.EventType
	bus.SubscribeAll(func(e domain.Event) { types = append(types, e.Type()) })

	require.NoError(t, s.Select(0))
	require.NoError(t, s.Advance())
	require.NoError(t, s.Shutdown())

	assert.Equal(t, []domain.EventType{
		domain.EventPatchActivated,
		domain.EventPatchDeactivated,
		domain.EventPatchActivated,
		domain.EventPatchDeactivated,
	}, types)

	_, live := s.Active()
	assert.False(t, live)
}

func TestSwitcher_Patches(t *testing.T) {
	s, _ := newSwitcher(t, patch.Catalog())
	infos := s.Patches()
	require.Len(t, infos, 6)
	assert.Equal(t, "Eyeball", infos[4].Name)
}

// TestSwitcher_RealSketchesNeverShareUpdaters drives the built-in catalog
// through several full rotations and checks that only the active patch ever
// has updaters scheduled.
func TestSwitcher_RealSketchesNeverShareUpdaters(t *testing.T) {
	sched := manual.New(time.Unix(0, 0))
	renderer := testutil.NewRenderer(domain.Size{Width: 32, Height: 18}, DefaultSessionConfig().RendererOptions)
	source := mock.NewBeatSource()
	source.SetClock(sched.Now)

	catalog := patch.Catalog()
	bus := eventbus.NewSyncEventBus()
	defer bus.Close()

	s, err := NewSwitcherService(logger.NewTestLogger(), bus, catalog, func() patch.Env {
		return patch.Env{Renderer: renderer, Source: source, Scheduler: sched, Logger: logger.NewTestLogger()}
	})
	require.NoError(t, err)

	bus.Subscribe(domain.EventPatchActivated, func(e domain.Event) {
		activated := e.(domain.PatchActivatedEvent)
		// Scheduled timers belong only to the patch that just activated
		assert.Equal(t, activated.Updaters, sched.Pending(), activated.Patch.Name)
	})

	require.NoError(t, s.Select(0))
	for i := 0; i < 3*len(catalog); i++ {
		renderer.Evaluate()
		sched.Advance(50 * time.Millisecond)
		require.NoError(t, s.Advance())
	}

	require.NoError(t, s.Shutdown())
	assert.Equal(t, 0, sched.Pending())

}
