package envelope

import (
	"time"
)

// DefaultTick is the cadence accumulators are driven at, independent of the
// render frame rate.
const DefaultTick = 16 * time.Millisecond

// Accumulator is a cooldown-limited accumulator.
//
// On every tick, when the gate is open (raw > Threshold) and at least
// Cooldown has elapsed since the last increment, the value grows by
// Gain*raw in the direction of the sign of direction. The value then decays
// by Decay, trigger or not.
//
// Accumulators must be driven from a fixed-interval updater, not from the
// render frame.
type Accumulator struct {
	Threshold float64
	Cooldown  time.Duration
	Gain      float64
	Decay     float64

	value     float64
	lastFire  time.Time
	fired     bool
	triggers  int
	anomalies int
}

// Tick advances the accumulator to now with the current raw sample.
func (a *Accumulator) Tick(now time.Time, raw, direction float64) float64 {
	if !Finite(raw) || !Finite(direction) {
		a.anomalies++
		return a.value
	}
	if Gate(raw, a.Threshold) == 1 && a.cooledDown(now) {
		a.value += sign(direction) * raw * a.Gain
		a.lastFire = now
		a.fired = true
		a.triggers++
	}
	a.value *= a.Decay
	return a.value
}

func (a *Accumulator) cooledDown(now time.Time) bool {
	return !a.fired || now.Sub(a.lastFire) >= a.Cooldown
}

// Value returns the current value.
func (a *Accumulator) Value() float64 { return a.value }

// Triggers returns how many times the accumulator incremented.
func (a *Accumulator) Triggers() int { return a.triggers }

// Reset returns the accumulator to zero and forgets the cooldown.
func (a *Accumulator) Reset() {
	a.value = 0
	a.fired = false
	a.lastFire = time.Time{}
}

// Anomalies returns the number of ignored samples.
func (a *Accumulator) Anomalies() int { return a.anomalies }

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
