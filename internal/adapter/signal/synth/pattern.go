// Package synth plays a demo drum loop and taps it as a sample capture, so
// the visuals react without a microphone.
package synth

import (
	"math"
	"math/rand/v2"
)

// Pattern is a sixteen-step drum pattern. A true step triggers the voice.
type Pattern struct {
	Kick  [16]bool
	Snare [16]bool
	Hat   [16]bool
}

// FourOnTheFloor is the default pattern.
func FourOnTheFloor() Pattern {
	var p Pattern
	for i := 0; i < 16; i++ {
		p.Kick[i] = i%4 == 0
		p.Snare[i] = i%8 == 4
		p.Hat[i] = i%2 == 1
	}
	return p
}

// voice is one decaying drum hit.
type voice struct {
	age   int // Samples since the last trigger, -1 when silent
	phase float64
}

// Generator renders a pattern at a tempo.
type Generator struct {
	rate    int
	pattern Pattern
	step    int // Samples per sixteenth note
	pos     int // Sample position within the current step
	index   int // Current step

	kick  voice
	snare voice
	hat   voice
	noise *rand.Rand
	bass  float64 // Phase of the sustained bass line
}

// NewGenerator returns a generator for pattern at bpm.
func NewGenerator(rate int, bpm float64, pattern Pattern) *Generator {
	if bpm <= 0 {
		bpm = 120
	}
	step := int(float64(rate) * 60 / bpm / 4)
	return &Generator{
		rate:    rate,
		pattern: pattern,
		step:    max(step, 1),
		kick:    voice{age: -1},
		snare:   voice{age: -1},
		hat:     voice{age: -1},
		noise:   rand.New(rand.NewPCG(1, 2)),
	}
}

// StepLength returns the number of samples per sixteenth note.
func (g *Generator) StepLength() int {
	return g.step
}

// Fill renders len(buf) samples in [-1, 1].
func (g *Generator) Fill(buf []float32) {
	dt := 1 / float64(g.rate)
	for i := range buf {
		if g.pos == 0 {
			g.trigger()
		}

		v := g.kickSample(dt) + g.snareSample(dt) + g.hatSample(dt)

		// Quiet sustained bass keeps the low bands moving between hits
		g.bass += 2 * math.Pi * 55 * dt
		v += 0.08 * math.Sin(g.bass)

		buf[i] = float32(math.Tanh(v))

		g.pos++
		if g.pos >= g.step {
			g.pos = 0
			g.index = (g.index + 1) % 16
		}
	}
	g.bass = math.Mod(g.bass, 2*math.Pi)
}

func (g *Generator) trigger() {
	if g.pattern.Kick[g.index] {
		g.kick = voice{}
	}
	if g.pattern.Snare[g.index] {
		g.snare = voice{}
	}
	if g.pattern.Hat[g.index] {
		g.hat = voice{}
	}
}

// kickSample is a sine swept from 150 Hz down to 45 Hz.
func (g *Generator) kickSample(dt float64) float64 {
	if g.kick.age < 0 {
		return 0
	}
	t := float64(g.kick.age) * dt
	g.kick.age++
	if t > 0.5 {
		g.kick.age = -1
		return 0
	}
	freq := 45 + 105*math.Exp(-t*30)
	g.kick.phase += 2 * math.Pi * freq * dt
	return 0.9 * math.Sin(g.kick.phase) * math.Exp(-t*8)
}

// snareSample is a noise burst over a 180 Hz body.
func (g *Generator) snareSample(dt float64) float64 {
	if g.snare.age < 0 {
		return 0
	}
	t := float64(g.snare.age) * dt
	g.snare.age++
	if t > 0.3 {
		g.snare.age = -1
		return 0
	}
	g.snare.phase += 2 * math.Pi * 180 * dt
	body := 0.3 * math.Sin(g.snare.phase) * math.Exp(-t*25)
	return body + 0.5*(g.noise.Float64()*2-1)*math.Exp(-t*18)
}

// hatSample is a short burst of high passed noise.
func (g *Generator) hatSample(dt float64) float64 {
	if g.hat.age < 0 {
		return 0
	}
	t := float64(g.hat.age) * dt
	g.hat.age++
	if t > 0.06 {
		g.hat.age = -1
		return 0
	}
	n := g.noise.Float64()*2 - 1
	hp := n - g.hat.phase
	g.hat.phase = n
	return 0.2 * hp * math.Exp(-t*70)
}
