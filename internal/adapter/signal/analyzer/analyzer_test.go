package analyzer

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/gosketch/internal/domain"
	"github.com/tejashwikalptaru/gosketch/internal/logger"
	"github.com/tejashwikalptaru/gosketch/internal/testutil"
)

var linear = domain.SourceConfig{Bins: 4, Cutoff: 0, Scale: 1, Smooth: 0}

func newAnalyzer(t *testing.T, capture *testutil.Capture) *Analyzer {
	t.Helper()
	a, err := New(logger.NewTestLogger(), capture, DefaultConfig())
	require.NoError(t, err)
	return a
}

// feed pushes one full analysis window of the capture's tone.
func feed(a *Analyzer, capture *testutil.Capture) {
	a.push(capture.Next(a.config.FFTSize))
}

func TestNew_Validation(t *testing.T) {
	_, err := New(logger.NewTestLogger(), nil, DefaultConfig())
	assert.ErrorIs(t, err, domain.ErrCaptureUnavailable)

	var verr *domain.ValidationError
	_, err = New(logger.NewTestLogger(), testutil.NewCapture(100), Config{FFTSize: 1000, Rate: time.Millisecond})
	assert.ErrorAs(t, err, &verr)

	_, err = New(logger.NewTestLogger(), testutil.NewCapture(100), Config{FFTSize: 1024})
	assert.ErrorAs(t, err, &verr)
}

func TestAnalyze_WaitsForFullWindow(t *testing.T) {
	capture := testutil.NewCapture(100)
	a := newAnalyzer(t, capture)
	a.Show()

	a.push(capture.Next(100))
	a.analyze(time.Now())

	assert.Equal(t, 0, a.Read().Len())
	assert.Equal(t, uint64(100), a.Samples())
}

func TestAnalyze_LowToneLandsInFirstBand(t *testing.T) {
	capture := testutil.NewCapture(100)
	a := newAnalyzer(t, capture)
	require.NoError(t, a.Configure(linear))
	a.Show()

	feed(a, capture)
	a.analyze(time.Now())

	frame := a.Read()
	require.Equal(t, 4, frame.Len())
	assert.Greater(t, frame.Band(0), 10*frame.Band(3))
	assert.Equal(t, uint64(1), frame.Seq)
}

func TestAnalyze_HighToneLandsInLastBand(t *testing.T) {
	capture := testutil.NewCapture(5000)
	a := newAnalyzer(t, capture)
	require.NoError(t, a.Configure(linear))
	a.Show()

	feed(a, capture)
	a.analyze(time.Now())

	frame := a.Read()
	require.Equal(t, 4, frame.Len())
	for i := 0; i < 3; i++ {
		assert.Greater(t, frame.Band(3), frame.Band(i), "band %d", i)
	}
}

func TestAnalyze_CutoffAndScale(t *testing.T) {
	capture := testutil.NewCapture(100)
	a := newAnalyzer(t, capture)
	a.Show()

	require.NoError(t, a.Configure(linear))
	feed(a, capture)
	a.analyze(time.Now())
	raw := a.Read().Band(0)
	require.Greater(t, raw, 0.5)

	require.NoError(t, a.Configure(domain.SourceConfig{Bins: 4, Cutoff: 0.5, Scale: 4}))
	a.analyze(time.Now())
	assert.InDelta(t, (raw-0.5)/4, a.Read().Band(0), 1e-9)

	require.NoError(t, a.Configure(domain.SourceConfig{Bins: 4, Cutoff: raw + 1, Scale: 1}))
	a.analyze(time.Now())
	assert.Equal(t, 0.0, a.Read().Band(0))
}

func TestAnalyze_Smoothing(t *testing.T) {
	capture := testutil.NewCapture(100)
	a := newAnalyzer(t, capture)
	require.NoError(t, a.Configure(domain.SourceConfig{Bins: 4, Cutoff: 0, Scale: 1, Smooth: 0.5}))
	a.Show()
	feed(a, capture)

	a.analyze(time.Now())
	first := a.Read().Band(0)
	a.analyze(time.Now())
	second := a.Read().Band(0)

	// Same window twice: raw/2, then raw/2 + raw/4
	assert.InDelta(t, first*1.5, second, 1e-9)
	assert.Equal(t, uint64(2), a.Read().Seq)
}

func TestAnalyze_MoreBinsThanCriticalBands(t *testing.T) {
	capture := testutil.NewCapture(100)
	a := newAnalyzer(t, capture)
	require.NoError(t, a.Configure(domain.SourceConfig{Bins: 32, Scale: 1}))
	a.Show()
	feed(a, capture)
	a.analyze(time.Now())

	frame := a.Read()
	require.Equal(t, 32, frame.Len())
	assert.Equal(t, 0.0, frame.Band(31))
}

func TestAnalyze_HiddenProducesNothing(t *testing.T) {
	capture := testutil.NewCapture(100)
	a := newAnalyzer(t, capture)
	require.NoError(t, a.Configure(linear))
	feed(a, capture)

	a.analyze(time.Now())
	assert.Equal(t, 0, a.Read().Len())

	a.Show()
	a.analyze(time.Now())
	assert.Equal(t, 4, a.Read().Len())

	a.Hide()
	assert.Equal(t, 0, a.Read().Len())
}

func TestAnalyze_NonFiniteSamplesAreSilenced(t *testing.T) {
	capture := testutil.NewCapture(100)
	a := newAnalyzer(t, capture)
	require.NoError(t, a.Configure(linear))
	a.Show()

	block := make([]float32, a.config.FFTSize)
	for i := range block {
		block[i] = float32(math.NaN())
	}
	a.push(block)
	a.analyze(time.Now())

	for _, v := range a.Read().Bins {
		assert.False(t, math.IsNaN(v))
	}
}

func TestConfigure(t *testing.T) {
	capture := testutil.NewCapture(100)
	a := newAnalyzer(t, capture)
	a.Show()
	feed(a, capture)
	a.analyze(time.Now())
	require.Equal(t, domain.DefaultSourceConfig().Bins, a.Read().Len())

	var verr *domain.ValidationError
	assert.ErrorAs(t, a.Configure(domain.SourceConfig{Bins: 0, Scale: 1}), &verr)
	assert.ErrorAs(t, a.Configure(domain.SourceConfig{Bins: 4, Scale: 0}), &verr)
	assert.ErrorAs(t, a.Configure(domain.SourceConfig{Bins: 4, Scale: 1, Smooth: 1}), &verr)

	// A new configuration discards the previous frame
	require.NoError(t, a.Configure(domain.SourceConfig{Bins: 6, Scale: 1}))
	assert.Equal(t, 0, a.Read().Len())

	a.analyze(time.Now())
	assert.Equal(t, 6, a.Read().Len())
}

func TestRun(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	capture := testutil.NewCapture(100)
	a, err := New(logger.NewTestLogger(), capture, Config{FFTSize: 256, Rate: 2 * time.Millisecond})
	require.NoError(t, err)
	a.Show()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	require.Eventually(t, func() bool {
		return a.Read().Len() == domain.DefaultSourceConfig().Bins
	}, 2*time.Second, time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	starts, stops := capture.Calls()
	assert.Equal(t, 1, starts)
	assert.Equal(t, 1, stops)
}

func TestRun_CaptureFailure(t *testing.T) {
	capture := testutil.NewCapture(100)
	capture.StartErr = domain.NewCaptureError("test", "open", errors.New("no device"))
	a := newAnalyzer(t, capture)

	err := a.Run(context.Background())

	var cerr *domain.CaptureError
	assert.ErrorAs(t, err, &cerr)
}
