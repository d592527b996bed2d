// Package envelope shapes raw band amplitudes into control signals.
//
// The shaping functions Smooth, AttackRelease and Gate are pure: they take a
// raw sample and the previous value and return the next one. The stateful
// envelopes wrap them around an explicit State record so a patch can own,
// reset and release its envelope state as a unit (see Bank).
//
// Every envelope treats a non-finite sample as a signal anomaly: the sample is
// ignored, the state is left untouched and the previous value is returned.
package envelope

import "math"

// Finite reports whether v is neither NaN nor an infinity.
func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Smooth is exponential smoothing: previous*alpha + raw*(1-alpha).
// alpha is clamped into [0, 1).
func Smooth(raw, previous, alpha float64) float64 {
	alpha = clampUnit(alpha)
	return previous*alpha + raw*(1-alpha)
}

// AttackRelease is a peak follower with instantaneous attack and exponential
// release: raw when raw >= previous, otherwise previous*decay.
// decay is clamped into [0, 1).
func AttackRelease(raw, previous, decay float64) float64 {
	if raw >= previous {
		return raw
	}
	return previous * clampUnit(decay)
}

// Gate returns 1 when raw is strictly above threshold and 0 otherwise.
// NaN never opens the gate.
func Gate(raw, threshold float64) float64 {
	if raw > threshold {
		return 1
	}
	return 0
}

// clampUnit clamps a coefficient into [0, 1).
func clampUnit(c float64) float64 {
	switch {
	case math.IsNaN(c), c < 0:
		return 0
	case c >= 1:
		return math.Nextafter(1, 0)
	default:
		return c
	}
}

// State is the persistent part of an envelope.
type State struct {
	Previous float64
}

// Stage is one step of a control signal. Stages can be chained.
type Stage interface {
	// Update feeds a raw sample and returns the shaped value.
	Update(raw float64) float64
	// Reset returns the stage to its rest value.
	Reset()
	// Anomalies returns the number of non-finite samples ignored so far.
	Anomalies() int
}

// Smoother is an exponential smoothing envelope.
type Smoother struct {
	Alpha float64
	State

	anomalies int
}

// NewSmoother returns a smoother at rest.
func NewSmoother(alpha float64) *Smoother {
	return &Smoother{Alpha: alpha}
}

// Update applies Smooth to raw and stores the result.
func (s *Smoother) Update(raw float64) float64 {
	if !Finite(raw) {
		s.anomalies++
		return s.Previous
	}
	s.Previous = Smooth(raw, s.Previous, s.Alpha)
	return s.Previous
}

// Value returns the current value without updating.
func (s *Smoother) Value() float64 { return s.Previous }

// Reset sets the value back to zero.
func (s *Smoother) Reset() { s.Previous = 0 }

// Anomalies returns the number of ignored samples.
func (s *Smoother) Anomalies() int { return s.anomalies }

// PeakHold is an attack/release envelope.
type PeakHold struct {
	Decay float64
	State

	anomalies int
}

// NewPeakHold returns a peak follower at rest.
func NewPeakHold(decay float64) *PeakHold {
	return &PeakHold{Decay: decay}
}

// Update applies AttackRelease to raw and stores the result.
func (p *PeakHold) Update(raw float64) float64 {
	if !Finite(raw) {
		p.anomalies++
		return p.Previous
	}
	p.Previous = AttackRelease(raw, p.Previous, p.Decay)
	return p.Previous
}

// Value returns the current value without updating.
func (p *PeakHold) Value() float64 { return p.Previous }

// Reset sets the value back to zero.
func (p *PeakHold) Reset() { p.Previous = 0 }

// Anomalies returns the number of ignored samples.
func (p *PeakHold) Anomalies() int { return p.anomalies }

// Threshold is a gate stage. It has no persistent value.
type Threshold struct {
	Level float64

	anomalies int
}

// NewThreshold returns a gate opening above level.
func NewThreshold(level float64) *Threshold {
	return &Threshold{Level: level}
}

// Update returns Gate(raw, Level).
func (g *Threshold) Update(raw float64) float64 {
	if !Finite(raw) {
		g.anomalies++
		return 0
	}
	return Gate(raw, g.Level)
}

// Reset is a no-op.
func (g *Threshold) Reset() {}

// Anomalies returns the number of ignored samples.
func (g *Threshold) Anomalies() int { return g.anomalies }

// Chain feeds each stage's output into the next one.
type Chain struct {
	stages []Stage
	last   float64

	anomalies int
}

// NewChain composes stages left to right.
func NewChain(stages ...Stage) *Chain {
	return &Chain{stages: stages}
}

// Update runs raw through every stage. A non-finite sample is rejected before
// it reaches the first stage so no downstream state is touched.
func (c *Chain) Update(raw float64) float64 {
	if !Finite(raw) {
		c.anomalies++
		return c.last
	}
	v := raw
	for _, s := range c.stages {
		v = s.Update(v)
	}
	c.last = v
	return v
}

// Value returns the last output of the chain.
func (c *Chain) Value() float64 { return c.last }

// Reset resets every stage.
func (c *Chain) Reset() {
	for _, s := range c.stages {
		s.Reset()
	}
	c.last = 0
}

// Anomalies counts samples rejected by the chain and its stages.
func (c *Chain) Anomalies() int {
	n := c.anomalies
	for _, s := range c.stages {
		n += s.Anomalies()
	}
	return n
}
