//go:build !js

// Package device opens the native sample capture selected on the command line.
package device

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/tejashwikalptaru/gosketch/internal/adapter/signal/portaudio"
	"github.com/tejashwikalptaru/gosketch/internal/adapter/signal/synth"
	"github.com/tejashwikalptaru/gosketch/internal/domain"
	"github.com/tejashwikalptaru/gosketch/internal/ports"
)

// Capture backends.
const (
	Mic        = "mic"        // Default input device through PortAudio
	Synth      = "synth"      // Demo drum loop, played to the speakers
	SynthMuted = "synth-mute" // Demo drum loop, silent
	Mock       = "mock"       // No capture; the app uses its synthetic beat
)

// Names lists the accepted backends.
func Names() []string {
	return []string{Mic, Synth, SynthMuted, Mock}
}

// Options selects and configures a backend.
type Options struct {
	Kind       string
	SampleRate int
	BPM        float64
}

// Open returns the capture for options.Kind. Mock returns a nil capture.
func Open(logger *slog.Logger, options Options) (ports.SampleCapture, error) {
	switch strings.ToLower(options.Kind) {
	case Mic, "":
		return portaudio.New(logger, options.SampleRate, portaudio.DefaultBufferSize), nil
	case Synth, SynthMuted:
		synthOpts := synth.DefaultOptions()
		if options.SampleRate > 0 {
			synthOpts.SampleRate = options.SampleRate
		}
		if options.BPM > 0 {
			synthOpts.BPM = options.BPM
		}
		synthOpts.Mute = strings.EqualFold(options.Kind, SynthMuted)
		return synth.New(logger, synthOpts), nil
	case Mock:
		return nil, nil
	default:
		return nil, domain.NewValidationError("signal", options.Kind,
			fmt.Sprintf("must be one of %s", strings.Join(Names(), ", ")))
	}
}
