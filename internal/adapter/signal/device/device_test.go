package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/gosketch/internal/adapter/signal/portaudio"
	"github.com/tejashwikalptaru/gosketch/internal/adapter/signal/synth"
	"github.com/tejashwikalptaru/gosketch/internal/domain"
	"github.com/tejashwikalptaru/gosketch/internal/logger"
)

func TestOpen_Mic(t *testing.T) {
	c, err := Open(logger.NewTestLogger(), Options{Kind: Mic, SampleRate: 48000})
	require.NoError(t, err)
	assert.IsType(t, &portaudio.Capture{}, c)
	assert.Equal(t, 48000, c.SampleRate())
}

func TestOpen_EmptyKindIsMic(t *testing.T) {
	c, err := Open(logger.NewTestLogger(), Options{})
	require.NoError(t, err)
	assert.IsType(t, &portaudio.Capture{}, c)
}

func TestOpen_Synth(t *testing.T) {
	c, err := Open(logger.NewTestLogger(), Options{Kind: "SYNTH-MUTE", SampleRate: 22050, BPM: 90})
	require.NoError(t, err)
	assert.IsType(t, &synth.Capture{}, c)
	assert.Equal(t, 22050, c.SampleRate())
}

func TestOpen_Mock(t *testing.T) {
	c, err := Open(logger.NewTestLogger(), Options{Kind: Mock})
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestOpen_Unknown(t *testing.T) {
	_, err := Open(logger.NewTestLogger(), Options{Kind: "theremin"})

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "signal", verr.Field)
}
