// Package ports define interfaces for dependency inversion.
// These interfaces keep the reactive pipeline independent of audio, windowing and rendering frameworks.
package ports

import (
	"github.com/tejashwikalptaru/gosketch/internal/domain"
)

// SignalSource is the audio analyzer the patches read from.
// It produces a fixed-length frame of band amplitudes at its own refresh rate.
//
// Implementations must be thread-safe: frames are produced on the analyzer's
// goroutine and read from the event loop.
type SignalSource interface {
	// Configure applies analysis parameters (bin count, cutoff, scale, smoothing).
	// The next frame produced uses the new parameters; the previous frame is discarded.
	//
	// Returns a *domain.ValidationError when the configuration is unusable.
	Configure(cfg domain.SourceConfig) error

	// Show enables analysis.
	Show()

	// Hide disables analysis. Read returns an empty frame while hidden.
	Hide()

	// Read returns the most recent frame.
	// The returned frame is a copy and may be kept by the caller.
	Read() domain.SignalFrame
}

// SampleCapture delivers raw mono PCM to an analyzer.
// Microphones, demo synthesizers and browser capture implement it.
type SampleCapture interface {
	// Start begins delivering blocks of samples in [-1, 1] to sink.
	// sink is called from the capture's own goroutine and must not block.
	//
	// Returns a *domain.CaptureError if the backend cannot be opened.
	Start(sink func(samples []float32)) error

	// Stop halts delivery and releases the backend. Safe to call more than once.
	Stop() error

	// SampleRate returns the capture sample rate in Hz.
	SampleRate() int
}
