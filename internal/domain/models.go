// Package domain contains core models and logic with no external dependencies.
// This package defines the fundamental entities of the GoSketch visual player.
package domain

import (
	"math"
	"time"
)

// SignalFrame is one snapshot of per-band audio amplitude.
// A frame supersedes the previous one; nothing keeps old frames around.
type SignalFrame struct {
	// Bins holds one amplitude per frequency band, low to high
	Bins []float64

	// Seq increases by one for every analysis tick that produced the frame
	Seq uint64

	// At is when the frame was produced
	At time.Time
}

// Band returns the amplitude of band i.
// It returns NaN when the frame is empty or i is out of range, so that the
// envelope engine can recognise the sample as an anomaly and hold its state.
func (f SignalFrame) Band(i int) float64 {
	if i < 0 || i >= len(f.Bins) {
		return math.NaN()
	}
	return f.Bins[i]
}

// Len returns the number of bands in the frame.
func (f SignalFrame) Len() int {
	return len(f.Bins)
}

// Clone returns a deep copy of the frame.
func (f SignalFrame) Clone() SignalFrame {
	bins := make([]float64, len(f.Bins))
	copy(bins, f.Bins)
	return SignalFrame{Bins: bins, Seq: f.Seq, At: f.At}
}

// SourceConfig holds the analysis parameters a patch applies to the signal source.
type SourceConfig struct {
	// Bins is the number of frequency bands produced per frame
	Bins int

	// Cutoff is subtracted from every band before scaling; results below zero read as zero
	Cutoff float64

	// Scale divides every band after the cutoff is applied
	Scale float64

	// Smooth is the temporal smoothing applied between frames (0 = none, <1)
	Smooth float64
}

// DefaultSourceConfig returns the analysis parameters used before any patch
// configures the source.
func DefaultSourceConfig() SourceConfig {
	return SourceConfig{
		Bins:   4,
		Cutoff: 2,
		Scale:  10,
		Smooth: 0.4,
	}
}

// Validate checks the configuration for values the analyzer cannot use.
func (c SourceConfig) Validate() error {
	if c.Bins < 1 {
		return NewValidationError("bins", c.Bins, "must be at least 1")
	}
	if !(c.Scale > 0) || math.IsInf(c.Scale, 0) {
		return NewValidationError("scale", c.Scale, "must be a positive finite number")
	}
	if c.Smooth < 0 || c.Smooth >= 1 || math.IsNaN(c.Smooth) {
		return NewValidationError("smooth", c.Smooth, "must be in [0, 1)")
	}
	if math.IsNaN(c.Cutoff) || math.IsInf(c.Cutoff, 0) {
		return NewValidationError("cutoff", c.Cutoff, "must be finite")
	}
	return nil
}

// Size is a surface size in pixels.
type Size struct {
	Width  int
	Height int
}

// Empty reports whether the size has no area.
func (s Size) Empty() bool {
	return s.Width <= 0 || s.Height <= 0
}

// PatchState is the lifecycle state of a patch.
type PatchState int

const (
	// PatchUninitialized means the patch has never been activated
	PatchUninitialized PatchState = iota

	// PatchActive means the patch owns the renderer and its updaters are running
	PatchActive

	// PatchDeactivated means the patch was torn down; it may be activated again
	PatchDeactivated
)

// String returns a human-readable representation of the state.
func (s PatchState) String() string {
	switch s {
	case PatchUninitialized:
		return "uninitialized"
	case PatchActive:
		return "active"
	case PatchDeactivated:
		return "deactivated"
	default:
		return "unknown"
	}
}

// PatchInfo identifies a patch in the registry.
type PatchInfo struct {
	// Index is the position of the patch in the registry
	Index int

	// Name is the display name of the patch
	Name string
}
