// Package graph describes visual effect chains declaratively.
//
// A chain starts with a source (an oscillator, noise, a shape, a feedback
// buffer) followed by geometry, modulation, colour and blend steps. Leaf
// parameters are either literals or zero-argument callables; a renderer
// resolves every parameter of a chain exactly once per frame with Resolve.
//
// Chains are immutable: every builder method returns a new chain and leaves
// the receiver untouched, so a chain can be shared between outputs.
package graph

import "math"

// Param is a leaf parameter of an effect chain.
type Param struct {
	value float64
	fn    func() float64
}

// N returns a literal parameter.
func N(v float64) Param {
	return Param{value: v}
}

// Fn returns a parameter that is evaluated by calling fn once per frame.
func Fn(fn func() float64) Param {
	if fn == nil {
		return Param{}
	}
	return Param{fn: fn}
}

// Eval returns the current value of the parameter.
// Non-finite results are reported as zero so a bad frame cannot poison a render.
func (p Param) Eval() float64 {
	v := p.value
	if p.fn != nil {
		v = p.fn()
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Dynamic reports whether the parameter is a callable.
func (p Param) Dynamic() bool {
	return p.fn != nil
}

// Kind groups operations by how a renderer treats them.
type Kind int

const (
	// KindSource generates colour from coordinates
	KindSource Kind = iota
	// KindGeometry transforms the coordinates before the previous steps sample them
	KindGeometry
	// KindModulate offsets coordinates by the colour of another chain
	KindModulate
	// KindColor transforms the colour produced by the previous steps
	KindColor
	// KindBlend combines the previous steps with another chain
	KindBlend
)

// Op names an operation in a chain.
type Op string

// Operations understood by the renderer.
const (
	OpOsc      Op = "osc"
	OpNoise    Op = "noise"
	OpVoronoi  Op = "voronoi"
	OpShape    Op = "shape"
	OpSolid    Op = "solid"
	OpGradient Op = "gradient"
	OpSrc      Op = "src"

	OpRotate Op = "rotate"
	OpScale  Op = "scale"
	OpKaleid Op = "kaleid"
	OpRepeat Op = "repeat"
	OpScroll Op = "scroll"

	OpModulate       Op = "modulate"
	OpModulateScale  Op = "modulateScale"
	OpModulateRotate Op = "modulateRotate"

	OpColor      Op = "color"
	OpContrast   Op = "contrast"
	OpBrightness Op = "brightness"
	OpSaturate   Op = "saturate"
	OpInvert     Op = "invert"
	OpHue        Op = "hue"
	OpPosterize  Op = "posterize"
	OpColorama   Op = "colorama"

	OpAdd   Op = "add"
	OpMult  Op = "mult"
	OpDiff  Op = "diff"
	OpBlend Op = "blend"
)

type opSpec struct {
	kind     Kind
	defaults []float64
}

// specs lists every operation with its kind and default arguments.
var specs = map[Op]opSpec{
	OpOsc:      {KindSource, []float64{60, 0.1, 0}},
	OpNoise:    {KindSource, []float64{10, 0.1}},
	OpVoronoi:  {KindSource, []float64{5, 0.3, 0.3}},
	OpShape:    {KindSource, []float64{3, 0.3, 0.01}},
	OpSolid:    {KindSource, []float64{0, 0, 0, 1}},
	OpGradient: {KindSource, []float64{0}},
	OpSrc:      {KindSource, nil},

	OpRotate: {KindGeometry, []float64{10, 0}},
	OpScale:  {KindGeometry, []float64{1.5, 1, 1}},
	OpKaleid: {KindGeometry, []float64{4}},
	OpRepeat: {KindGeometry, []float64{3, 3}},
	OpScroll: {KindGeometry, []float64{0.5, 0.5, 0, 0}},

	OpModulate:       {KindModulate, []float64{0.1}},
	OpModulateScale:  {KindModulate, []float64{1, 1}},
	OpModulateRotate: {KindModulate, []float64{1, 0}},

	OpColor:      {KindColor, []float64{1, 1, 1}},
	OpContrast:   {KindColor, []float64{1.6}},
	OpBrightness: {KindColor, []float64{0.4}},
	OpSaturate:   {KindColor, []float64{2}},
	OpInvert:     {KindColor, []float64{1}},
	OpHue:        {KindColor, []float64{0.4}},
	OpPosterize:  {KindColor, []float64{3, 0.6}},
	OpColorama:   {KindColor, []float64{0.005}},

	OpAdd:   {KindBlend, []float64{1}},
	OpMult:  {KindBlend, []float64{1}},
	OpDiff:  {KindBlend, nil},
	OpBlend: {KindBlend, []float64{0.5}},
}

// KindOf returns the kind of op. Unknown operations report KindColor and false.
func KindOf(op Op) (Kind, bool) {
	spec, ok := specs[op]
	if !ok {
		return KindColor, false
	}
	return spec.kind, true
}

// Node is one step of a chain.
type Node struct {
	Op     Op
	Args   []Param
	Input  *Chain // Second texture for modulate and blend steps
	Output int    // Feedback buffer read by src
}

// Chain is an immutable sequence of nodes starting with a source.
type Chain struct {
	nodes []Node
}

// Nodes returns a copy of the chain's nodes.
func (c *Chain) Nodes() []Node {
	if c == nil {
		return nil
	}
	out := make([]Node, len(c.nodes))
	copy(out, c.nodes)
	return out
}

// Len returns the number of nodes in the chain.
func (c *Chain) Len() int {
	if c == nil {
		return 0
	}
	return len(c.nodes)
}

// withDefaults pads args with the op's defaults.
func withDefaults(op Op, args []Param) []Param {
	defs := specs[op].defaults
	n := len(defs)
	if len(args) > n {
		n = len(args)
	}
	out := make([]Param, n)
	for i := range out {
		switch {
		case i < len(args):
			out[i] = args[i]
		default:
			out[i] = N(defs[i])
		}
	}
	return out
}

func source(op Op, args []Param) *Chain {
	return &Chain{nodes: []Node{{Op: op, Args: withDefaults(op, args)}}}
}

func (c *Chain) then(n Node) *Chain {
	nodes := make([]Node, len(c.nodes)+1)
	copy(nodes, c.nodes)
	nodes[len(c.nodes)] = n
	return &Chain{nodes: nodes}
}

func (c *Chain) step(op Op, args []Param) *Chain {
	return c.then(Node{Op: op, Args: withDefaults(op, args)})
}

func (c *Chain) with(op Op, input *Chain, args []Param) *Chain {
	return c.then(Node{Op: op, Input: input, Args: withDefaults(op, args)})
}

// Osc is a sine oscillator: frequency, sync, colour offset.
func Osc(args ...Param) *Chain { return source(OpOsc, args) }

// Noise is animated value noise: scale, speed.
func Noise(args ...Param) *Chain { return source(OpNoise, args) }

// Voronoi is an animated cell pattern: scale, speed, blending.
func Voronoi(args ...Param) *Chain { return source(OpVoronoi, args) }

// Shape is a regular polygon: sides, radius, smoothing.
func Shape(args ...Param) *Chain { return source(OpShape, args) }

// Solid is a flat colour: r, g, b, a.
func Solid(args ...Param) *Chain { return source(OpSolid, args) }

// Gradient is a coordinate gradient: speed.
func Gradient(args ...Param) *Chain { return source(OpGradient, args) }

// Src samples the previous frame of a render output.
func Src(output int) *Chain {
	return &Chain{nodes: []Node{{Op: OpSrc, Output: output}}}
}

// Rotate rotates coordinates: angle, speed.
func (c *Chain) Rotate(args ...Param) *Chain { return c.step(OpRotate, args) }

// Scale zooms coordinates: amount, xMult, yMult.
func (c *Chain) Scale(args ...Param) *Chain { return c.step(OpScale, args) }

// Kaleid mirrors coordinates around the centre: sides.
func (c *Chain) Kaleid(args ...Param) *Chain { return c.step(OpKaleid, args) }

// Repeat tiles coordinates: repeatX, repeatY.
func (c *Chain) Repeat(args ...Param) *Chain { return c.step(OpRepeat, args) }

// Scroll shifts coordinates: x, y, speedX, speedY.
func (c *Chain) Scroll(args ...Param) *Chain { return c.step(OpScroll, args) }

// Modulate offsets coordinates by the colour of tex: amount.
func (c *Chain) Modulate(tex *Chain, args ...Param) *Chain { return c.with(OpModulate, tex, args) }

// ModulateScale zooms coordinates by the colour of tex: multiple, offset.
func (c *Chain) ModulateScale(tex *Chain, args ...Param) *Chain {
	return c.with(OpModulateScale, tex, args)
}

// ModulateRotate rotates coordinates by the colour of tex: multiple, offset.
func (c *Chain) ModulateRotate(tex *Chain, args ...Param) *Chain {
	return c.with(OpModulateRotate, tex, args)
}

// Color multiplies channels: r, g, b.
func (c *Chain) Color(args ...Param) *Chain { return c.step(OpColor, args) }

// Contrast stretches around mid grey: amount.
func (c *Chain) Contrast(args ...Param) *Chain { return c.step(OpContrast, args) }

// Brightness adds to every channel: amount.
func (c *Chain) Brightness(args ...Param) *Chain { return c.step(OpBrightness, args) }

// Saturate scales saturation: amount.
func (c *Chain) Saturate(args ...Param) *Chain { return c.step(OpSaturate, args) }

// Invert inverts channels: amount.
func (c *Chain) Invert(args ...Param) *Chain { return c.step(OpInvert, args) }

// Hue rotates the hue: amount (fraction of a turn).
func (c *Chain) Hue(args ...Param) *Chain { return c.step(OpHue, args) }

// Posterize quantises channels: bins, gamma.
func (c *Chain) Posterize(args ...Param) *Chain { return c.step(OpPosterize, args) }

// Colorama shifts hue by luminance: amount.
func (c *Chain) Colorama(args ...Param) *Chain { return c.step(OpColorama, args) }

// Add adds tex scaled by amount.
func (c *Chain) Add(tex *Chain, args ...Param) *Chain { return c.with(OpAdd, tex, args) }

// Mult multiplies by tex, mixed by amount.
func (c *Chain) Mult(tex *Chain, args ...Param) *Chain { return c.with(OpMult, tex, args) }

// Diff is the absolute difference with tex.
func (c *Chain) Diff(tex *Chain) *Chain { return c.with(OpDiff, tex, nil) }

// Blend mixes with tex by amount.
func (c *Chain) Blend(tex *Chain, args ...Param) *Chain { return c.with(OpBlend, tex, args) }
