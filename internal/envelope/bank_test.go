package envelope

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/gosketch/internal/domain"
)

func TestBank_DeclaresAtRest(t *testing.T) {
	b := NewBank()

	kick, err := b.Smoother("kick", 0.9)
	require.NoError(t, err)
	snare, err := b.PeakHold("snare", 0.95)
	require.NoError(t, err)
	_, err = b.Gate("kickGate", 0.15)
	require.NoError(t, err)
	growth, err := b.Accumulator("growth", Accumulator{Threshold: 0.5, Cooldown: time.Second, Gain: 1, Decay: 1})
	require.NoError(t, err)

	assert.Equal(t, 0.0, kick.Value())
	assert.Equal(t, 0.0, snare.Value())
	assert.Equal(t, 0.0, growth.Value())
	assert.Equal(t, []string{"kick", "snare", "kickGate", "growth"}, b.Names())
	assert.Equal(t, 4, b.Len())
	assert.True(t, b.Has("snare"))
}

func TestBank_DuplicateName(t *testing.T) {
	b := NewBank()
	_, err := b.Smoother("kick", 0.9)
	require.NoError(t, err)

	_, err = b.PeakHold("kick", 0.9)
	assert.ErrorIs(t, err, domain.ErrDuplicateEnvelope)
	assert.Equal(t, 1, b.Len())
}

func TestBank_Reset(t *testing.T) {
	b := NewBank()
	kick, _ := b.Smoother("kick", 0.5)
	snare, _ := b.PeakHold("snare", 0.5)
	kick.Update(1)
	snare.Update(1)

	b.Reset()

	assert.Equal(t, 0.0, kick.Value())
	assert.Equal(t, 0.0, snare.Value())
}

func TestBank_Anomalies(t *testing.T) {
	b := NewBank()
	kick, _ := b.Smoother("kick", 0.5)
	gate, _ := b.Gate("gate", 0.5)

	kick.Update(math.NaN())
	gate.Update(math.Inf(1))
	kick.Update(0.3)

	assert.Equal(t, 2, b.Anomalies())
}

func TestBank_Release(t *testing.T) {
	b := NewBank()
	_, err := b.Smoother("kick", 0.5)
	require.NoError(t, err)

	b.Release()

	assert.True(t, b.Released())
	assert.Empty(t, b.Names())
	assert.Equal(t, 0, b.Anomalies())

	_, err = b.Smoother("snare", 0.5)
	assert.ErrorIs(t, err, domain.ErrBankReleased)
	_, err = b.Chain("chain", NewThreshold(0))
	assert.ErrorIs(t, err, domain.ErrBankReleased)
}
