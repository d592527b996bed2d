package patch

import (
	"math"
	"time"

	"github.com/tejashwikalptaru/gosketch/internal/domain"
	"github.com/tejashwikalptaru/gosketch/internal/envelope"
	"github.com/tejashwikalptaru/gosketch/internal/graph"
)

// Frequency bands the sketches read.
const (
	bandKick     = 0
	bandLow      = 2
	bandSnare    = 3
	bandHarmonic = 4
)

// Output buffers.
const (
	o0 = 0
	o1 = 1
)

// Catalog returns the built-in sketches in switching order.
func Catalog() []Patch {
	defs := Definitions()
	patches := make([]Patch, len(defs))
	for i, def := range defs {
		patches[i] = New(i, def)
	}
	return patches
}

// Definitions returns the built-in sketch definitions in switching order.
func Definitions() []Definition {
	return []Definition{
		warmLightning(),
		kaleidoscope(),
		blueBlobs(),
		peachFuzz(),
		eyeball(),
		nightLights(),
	}
}

func source(bins int, cutoff, scale, smooth float64) domain.SourceConfig {
	return domain.SourceConfig{Bins: bins, Cutoff: cutoff, Scale: scale, Smooth: smooth}
}

func warmLightning() Definition {
	return Definition{
		Name:   "Warm Lightning",
		Source: source(5, 1, 5, 0.97),
		Setup: func(ctx *Context) error {
			n := graph.N

			noiseSpeed := ctx.Bind("noise.speed", func() float64 {
				return -1 + ctx.Band(bandLow)*0.006
			}, "band2")
			oscFreq := ctx.Bind("osc.frequency", func() float64 {
				return ctx.Band(bandKick) * 0.05
			}, "band0")
			drift := ctx.Bind("rotate.angle", func() float64 {
				return math.Sin(ctx.Time() / 22)
			})
			contrast := ctx.Bind("contrast.amount", func() float64 {
				return math.Pow(ctx.Band(bandHarmonic)*10, 2)
			}, "band4")

			chain := graph.Osc(n(100), n(-0.0018), n(0.7)).
				Diff(graph.Osc(n(20), n(0.00008)).Rotate(n(math.Pi/0.00003))).
				ModulateScale(graph.Noise(n(1.5), noiseSpeed).
					ModulateScale(graph.Osc(oscFreq).Rotate(drift)), n(5)).
				Color(n(11), n(0.5), n(0.4)).Contrast(contrast).
				Add(graph.Src(o0).Modulate(graph.Src(o0), n(0.04)), n(0.6), n(0.9)).
				Invert().Contrast(n(0.5)).Color(n(4), n(-2), n(0.1)).
				ModulateScale(graph.Osc(n(2)), n(-0.2), n(2)).
				Posterize(n(200)).Rotate(n(1), n(0.2), n(0.01)).
				Color(n(22), n(-2), n(0.5)).Contrast(n(0.2))

			ctx.Out(o0, chain)
			return nil
		},
	}
}

func kaleidoscope() Definition {
	return Definition{
		Name:   "Kaleidoscope",
		Source: source(5, 1, 5, 0.97),
		Setup: func(ctx *Context) error {
			n := graph.N
			kick := ctx.Smoother("kick", 0.9)
			snare := ctx.Smoother("snare", 0.9)

			sync := ctx.Bind("osc.sync", func() float64 {
				return 0.01 * snare.Update(ctx.Band(bandSnare)) / 0.5
			}, "snare")
			spin := ctx.Bind("rotate.angle", func() float64 {
				return ctx.Time()*0.4 + kick.Update(ctx.Band(bandKick))*3
			}, "kick")
			zoom := ctx.Bind("scale.amount", func() float64 {
				return math.Sin(ctx.Time()) + 1.5
			})

			chain := graph.Voronoi(n(5), n(-0.1), n(5)).
				Add(graph.Osc(n(1), sync, n(0.1))).
				Kaleid(n(21)).
				Rotate(spin).
				Color(n(0.8), n(0.1), n(0.2)).
				Contrast().
				Scale(zoom, n(1), n(2)).
				Colorama(n(2)).
				Saturate(n(0.6)).
				Contrast(n(0.7))

			ctx.Out(o0, chain)
			return nil
		},
	}
}

func blueBlobs() Definition {
	return Definition{
		Name:   "Blue Blobs",
		Source: source(5, 1, 5, 0.7),
		Setup: func(ctx *Context) error {
			n := graph.N
			kick := ctx.Smoother("kick", 0.9)
			snare := ctx.Smoother("snare", 0.9)

			pulse := ctx.Bind("scale.amount", func() float64 {
				return math.Sin(ctx.Time()) + 1 + kick.Update(ctx.Band(bandKick))*0.5
			}, "kick")
			grid := ctx.Bind("repeat.x", func() float64 {
				return math.Sin(ctx.Time())*10 + snare.Update(ctx.Band(bandHarmonic))*5
			}, "snare")
			breathe := ctx.Bind("scale.breathe", func() float64 {
				return math.Sin(ctx.Time()) + 1.5
			})

			chain := graph.Shape(n(20), n(0.2), n(0.3)).
				Color(n(0.5), n(0.8), n(50)).
				Scale(pulse).
				Repeat(grid).
				ModulateRotate(graph.Src(o0)).
				Scale(breathe).
				Modulate(graph.Noise(n(2), n(2))).
				Rotate(n(1), n(0.2))

			ctx.Out(o0, chain)
			return nil
		},
	}
}

func peachFuzz() Definition {
	return Definition{
		Name:   "Peach Fuzz",
		Source: source(5, 1, domain.DefaultSourceConfig().Scale, 0.5),
		Setup: func(ctx *Context) error {
			n := graph.N
			kick := ctx.PeakHold("kick", 0.95)
			snare := ctx.PeakHold("snare", 0.95)
			harm := ctx.PeakHold("harmonic", 0.95)

			stretch := ctx.Bind("scale.y", func() float64 {
				return kick.Update(ctx.Band(bandKick))*0.4 + 1.8
			}, "kick")
			shake := ctx.Bind("rotate.shake", func() float64 {
				return snare.Update(ctx.Band(bandSnare)) * 0.1
			}, "snare")
			twist := ctx.Bind("modulateRotate.multiple", func() float64 {
				return 0.2 + harm.Update(ctx.Band(bandHarmonic))*5
			}, "harmonic")
			spin := ctx.Bind("rotate.angle", func() float64 {
				return 0.2 + snare.Update(ctx.Band(bandSnare))*2
			}, "snare")
			glow := ctx.Bind("brightness.amount", func() float64 {
				return 0.05 + harm.Update(ctx.Band(bandHarmonic))*0.1
			}, "harmonic")

			peach := graph.Osc(n(18), n(0.1), n(0)).
				Color(n(1.2), n(0.8), n(0.9)).
				Mult(graph.Osc(n(20), n(0.01), n(0))).
				Repeat(n(2), n(20)).
				Rotate(n(0.5)).
				Modulate(graph.Src(o1)).
				Scale(n(1), stretch).
				Diff(graph.Src(o1)).
				Rotate(shake)

			mint := graph.Osc(n(20), n(0.2), n(0)).
				Color(n(0.6), n(1.0), n(0.9)).
				Mult(graph.Osc(n(40))).
				ModulateRotate(graph.Src(o0), twist).
				Rotate(spin).
				Brightness(glow).
				Contrast(n(1.2))

			ctx.Out(o0, peach)
			ctx.Out(o1, mint)
			return nil
		},
	}
}

func eyeball() Definition {
	return Definition{
		Name:   "Eyeball",
		Source: source(5, 1, 6, 0.5),
		Setup: func(ctx *Context) error {
			n := graph.N
			kick := ctx.Smoother("kick", 0.9)
			harmonic := ctx.Smoother("harmonic", 0.9)

			// Saturation follows the snare with a long release, on its own clock
			saturation := ctx.Smoother("snareSaturation", 0.95)
			ctx.Every(envelope.DefaultTick, func() {
				saturation.Update(ctx.Band(bandSnare))
			})

			growth := ctx.Accumulator("growth", envelope.Accumulator{
				Threshold: 0.5,
				Cooldown:  500 * time.Millisecond,
				Gain:      0.01,
				Decay:     0.9995,
			})
			ctx.Every(envelope.DefaultTick, func() {
				growth.Tick(ctx.Now(), ctx.Band(bandKick), math.Cos(ctx.Time()/6.2))
			})

			osc := func(div, offset float64) *graph.Chain {
				return graph.Osc(n(9), n(0), ctx.Bind("osc.offset", func() float64 {
					return math.Sin(ctx.Time()/div) + offset
				}))
			}
			layer := func() *graph.Chain {
				return graph.Noise(n(12), n(0.03)).Brightness(n(0.1)).Contrast(n(1.1)).
					Mult(osc(5, 13)).
					Rotate(ctx.Bind("rotate.angle", func() float64 { return ctx.Time() / 33 }))
			}

			lens := graph.Osc(n(3), n(0), n(0)).
				Mult(graph.Osc(n(3), n(0), n(0)).Rotate(n(math.Pi/2))).
				Rotate(ctx.Bind("lens.rotate", func() float64 { return ctx.Time() / 25 })).
				Scale(n(0.39)).
				Scale(n(1), n(0.6), n(1)).
				Invert()

			chain := graph.Noise(n(6), n(0.05)).
				Mult(osc(1.5, 2)).
				Mult(graph.Noise(n(9), n(0.03)).Brightness(n(1.2)).Contrast(n(2)).Mult(osc(3, 13))).
				Diff(layer()).
				Diff(layer()).
				Scale(ctx.Bind("scale.growth", func() float64 {
					return 0.2 + growth.Value()
				}, "growth")).
				ModulateScale(lens, ctx.Bind("modulateScale.multiple", func() float64 {
					return math.Sin(ctx.Time()/5.3)*1.5 + 3 + kick.Update(ctx.Band(bandKick))*0.2
				}, "kick")).
				Mult(graph.Shape(n(100), n(0.9), n(0.3)).Scale(n(0.8), n(1), n(1))).
				Saturate(ctx.Bind("saturate.amount", func() float64 {
					return 0.02 + saturation.Value()*6
				}, "snareSaturation")).
				Hue(ctx.Bind("hue.amount", func() float64 {
					return harmonic.Update(ctx.Band(bandHarmonic)) * 4
				}, "harmonic"))

			ctx.Out(o0, chain)
			return nil
		},
	}
}

func nightLights() Definition {
	return Definition{
		Name:   "Night Lights",
		Source: source(5, 1, 5, 0.97),
		Setup: func(ctx *Context) error {
			n := graph.N

			red := ctx.Bind("color.r", func() float64 { return ctx.Band(bandKick) * 4 }, "band0")
			green := ctx.Bind("color.g", func() float64 { return ctx.Band(bandLow) * 4 }, "band2")
			blue := ctx.Bind("color.b", func() float64 { return ctx.Band(bandHarmonic) * 4 }, "band4")

			chain := graph.Osc(n(100), n(0.01), n(1.4)).
				Rotate(n(0), n(0.1)).
				Mult(graph.Osc(n(10), n(0.1)).Modulate(graph.Osc(n(10)).Rotate(n(0), n(-0.1)), n(1))).
				Color(red, green, blue)

			ctx.Out(o0, chain)
			return nil
		},
	}
}
