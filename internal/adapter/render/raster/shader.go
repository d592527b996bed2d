package raster

import (
	"image"
	"math"

	"github.com/tejashwikalptaru/gosketch/internal/graph"
)

type vec2 struct{ x, y float64 }

type vec4 [4]float64

func (v vec2) sub(s float64) vec2 { return vec2{v.x - s, v.y - s} }
func (v vec2) add(s float64) vec2 { return vec2{v.x + s, v.y + s} }
func (v vec2) length() float64    { return math.Hypot(v.x, v.y) }

func fract(v float64) float64 { return v - math.Floor(v) }

func rotate(v vec2, angle float64) vec2 {
	c, s := math.Cos(angle), math.Sin(angle)
	return vec2{c*v.x + s*v.y, -s*v.x + c*v.y}
}

// shader evaluates a resolved chain at a coordinate.
//
// Coordinates are in [0,1] with the origin at the bottom left. Geometry and
// modulation steps transform the coordinate before the earlier steps sample
// it; colour and blend steps transform the colour the earlier steps produce.
type shader struct {
	time float64
	prev *[Outputs]*image.RGBA
	res  vec2
}

func (s *shader) sample(nodes []graph.ResolvedNode, st vec2) vec4 {
	if len(nodes) == 0 {
		return vec4{0, 0, 0, 1}
	}
	last := nodes[len(nodes)-1]
	rest := nodes[:len(nodes)-1]

	switch last.Kind {
	case graph.KindSource:
		return s.source(last, st)
	case graph.KindGeometry:
		return s.sample(rest, s.geometry(last, st))
	case graph.KindModulate:
		return s.sample(rest, s.modulate(last, st, s.input(last, st)))
	case graph.KindBlend:
		return blend(last, s.sample(rest, st), s.input(last, st))
	default:
		return color(last, s.sample(rest, st))
	}
}

func (s *shader) input(n graph.ResolvedNode, st vec2) vec4 {
	if n.Input == nil {
		return vec4{0, 0, 0, 1}
	}
	return s.sample(n.Input.Nodes, st)
}

func (s *shader) source(n graph.ResolvedNode, st vec2) vec4 {
	t := s.time
	switch n.Op {
	case graph.OpOsc:
		freq, sync, offset := n.Arg(0), n.Arg(1), n.Arg(2)
		if freq == 0 {
			freq = 1e-9
		}
		r := math.Sin((st.x-offset/freq+t*sync)*freq)*0.5 + 0.5
		g := math.Sin((st.x+t*sync)*freq)*0.5 + 0.5
		b := math.Sin((st.x+offset/freq+t*sync)*freq)*0.5 + 0.5
		return vec4{r, g, b, 1}

	case graph.OpNoise:
		scale, offset := n.Arg(0), n.Arg(1)
		v := noise3(st.x*scale, st.y*scale, offset*t)
		return vec4{v, v, v, 1}

	case graph.OpVoronoi:
		return voronoi(st, n.Arg(0), n.Arg(1), n.Arg(2), t)

	case graph.OpShape:
		sides, radius, smoothing := n.Arg(0), n.Arg(1), n.Arg(2)
		if sides < 1 {
			sides = 1
		}
		p := vec2{st.x*2 - 1, st.y*2 - 1}
		a := math.Atan2(p.x, p.y) + math.Pi
		r := 2 * math.Pi / sides
		d := math.Cos(math.Floor(0.5+a/r)*r-a) * p.length()
		v := 1 - smoothstep(radius, radius+smoothing+1e-7, d)
		return vec4{v, v, v, 1}

	case graph.OpSolid:
		return vec4{n.Arg(0), n.Arg(1), n.Arg(2), n.Arg(3)}

	case graph.OpGradient:
		return vec4{st.x, st.y, math.Sin(t * n.Arg(0)), 1}

	case graph.OpSrc:
		return s.texture(n.Output, st)
	}
	return vec4{0, 0, 0, 1}
}

// texture samples the previous frame of output at st, wrapping around.
func (s *shader) texture(output int, st vec2) vec4 {
	if output < 0 || output >= Outputs {
		return vec4{0, 0, 0, 1}
	}
	img := s.prev[output]
	w, h := img.Rect.Dx(), img.Rect.Dy()
	x := min(int(fract(st.x)*float64(w)), w-1)
	y := min(int((1-fract(st.y))*float64(h)), h-1)
	i := img.PixOffset(x, y)
	return vec4{
		float64(img.Pix[i+0]) / 255,
		float64(img.Pix[i+1]) / 255,
		float64(img.Pix[i+2]) / 255,
		1,
	}
}

func (s *shader) geometry(n graph.ResolvedNode, st vec2) vec2 {
	t := s.time
	switch n.Op {
	case graph.OpRotate:
		return rotate(st.sub(0.5), n.Arg(0)+n.Arg(1)*t).add(0.5)

	case graph.OpScale:
		amount := n.Arg(0)
		ox, oy := 0.5, 0.5
		if len(n.Args) > 4 {
			ox, oy = n.Arg(3), n.Arg(4)
		}
		sx, sy := amount*n.Arg(1), amount*n.Arg(2)
		return vec2{(st.x-ox)/nonZero(sx) + ox, (st.y-oy)/nonZero(sy) + oy}

	case graph.OpKaleid:
		sides := math.Max(n.Arg(0), 1e-9)
		p := st.sub(0.5)
		r := p.length()
		a := math.Atan2(p.y, p.x)
		seg := 2 * math.Pi / sides
		a = math.Mod(a, seg)
		if a < 0 {
			a += seg
		}
		a = math.Abs(a - seg/2)
		return vec2{r * math.Cos(a), r * math.Sin(a)}

	case graph.OpRepeat:
		p := vec2{st.x * n.Arg(0), st.y * n.Arg(1)}
		if math.Mod(p.y, 2) >= 1 {
			p.x += n.Arg(2)
		}
		if math.Mod(p.x, 2) >= 1 {
			p.y += n.Arg(3)
		}
		return vec2{fract(p.x), fract(p.y)}

	case graph.OpScroll:
		return vec2{
			fract(st.x + n.Arg(0) + t*n.Arg(2)),
			fract(st.y + n.Arg(1) + t*n.Arg(3)),
		}
	}
	return st
}

func (s *shader) modulate(n graph.ResolvedNode, st vec2, c vec4) vec2 {
	switch n.Op {
	case graph.OpModulate:
		amount := n.Arg(0)
		return vec2{st.x + c[0]*amount, st.y + c[1]*amount}

	case graph.OpModulateScale:
		multiple, offset := n.Arg(0), n.Arg(1)
		p := st.sub(0.5)
		return vec2{
			p.x/nonZero(offset+multiple*c[0]) + 0.5,
			p.y/nonZero(offset+multiple*c[1]) + 0.5,
		}

	case graph.OpModulateRotate:
		multiple, offset := n.Arg(0), n.Arg(1)
		return rotate(st.sub(0.5), offset+c[0]*multiple).add(0.5)
	}
	return st
}

func color(n graph.ResolvedNode, c vec4) vec4 {
	switch n.Op {
	case graph.OpColor:
		k := [3]float64{n.Arg(0), n.Arg(1), n.Arg(2)}
		for i := range k {
			if k[i] >= 0 {
				c[i] *= k[i]
			} else {
				c[i] = (1 - c[i]) * -k[i]
			}
		}
		return c

	case graph.OpContrast:
		amount := n.Arg(0)
		for i := 0; i < 3; i++ {
			c[i] = (c[i]-0.5)*amount + 0.5
		}
		return c

	case graph.OpBrightness:
		amount := n.Arg(0)
		for i := 0; i < 3; i++ {
			c[i] += amount
		}
		return c

	case graph.OpSaturate:
		amount := n.Arg(0)
		l := luminance(c)
		for i := 0; i < 3; i++ {
			c[i] = l + (c[i]-l)*amount
		}
		return c

	case graph.OpInvert:
		amount := n.Arg(0)
		for i := 0; i < 3; i++ {
			c[i] = (1-c[i])*amount + c[i]*(1-amount)
		}
		return c

	case graph.OpHue:
		h, s, v := rgbToHSV(c[0], c[1], c[2])
		c[0], c[1], c[2] = hsvToRGB(h+n.Arg(0), s, v)
		return c

	case graph.OpPosterize:
		bins, gamma := n.Arg(0), n.Arg(1)
		if bins <= 0 || gamma <= 0 {
			return c
		}
		for i := 0; i < 3; i++ {
			v := math.Pow(math.Max(c[i], 0), gamma)
			v = math.Floor(v*bins) / bins
			c[i] = math.Pow(v, 1/gamma)
		}
		return c

	case graph.OpColorama:
		amount := n.Arg(0)
		h, s, v := rgbToHSV(c[0], c[1], c[2])
		r, g, b := hsvToRGB(h+amount, s+amount, v+amount)
		c[0], c[1], c[2] = fract(r), fract(g), fract(b)
		return c
	}
	return c
}

func blend(n graph.ResolvedNode, a, b vec4) vec4 {
	var out vec4
	amount := n.Arg(0)
	for i := 0; i < 4; i++ {
		switch n.Op {
		case graph.OpAdd:
			out[i] = (a[i]+b[i])*amount + a[i]*(1-amount)
		case graph.OpMult:
			out[i] = a[i]*(1-amount) + a[i]*b[i]*amount
		case graph.OpDiff:
			out[i] = math.Abs(a[i] - b[i])
		case graph.OpBlend:
			out[i] = a[i]*(1-amount) + b[i]*amount
		default:
			out[i] = a[i]
		}
	}
	out[3] = math.Max(a[3], b[3])
	return out
}

func luminance(c vec4) float64 {
	return c[0]*0.2125 + c[1]*0.7154 + c[2]*0.0721
}

func nonZero(v float64) float64 {
	if math.Abs(v) < 1e-9 {
		return 1e-9
	}
	return v
}

func smoothstep(edge0, edge1, x float64) float64 {
	t := math.Min(math.Max((x-edge0)/(edge1-edge0), 0), 1)
	return t * t * (3 - 2*t)
}

func rgbToHSV(r, g, b float64) (h, s, v float64) {
	hi := math.Max(r, math.Max(g, b))
	lo := math.Min(r, math.Min(g, b))
	d := hi - lo
	v = hi
	if hi > 0 {
		s = d / hi
	}
	if d == 0 {
		return 0, s, v
	}
	switch hi {
	case r:
		h = (g - b) / d
		if h < 0 {
			h += 6
		}
	case g:
		h = (b-r)/d + 2
	default:
		h = (r-g)/d + 4
	}
	return h / 6, s, v
}

func hsvToRGB(h, s, v float64) (r, g, b float64) {
	h = fract(h) * 6
	i := math.Floor(h)
	f := h - i
	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))
	switch int(i) % 6 {
	case 0:
		return v, t, p
	case 1:
		return q, v, p
	case 2:
		return p, v, t
	case 3:
		return p, q, v
	case 4:
		return t, p, v
	default:
		return v, p, q
	}
}

// voronoi is an animated cellular pattern.
func voronoi(st vec2, scale, speed, blending, t float64) vec4 {
	p := vec2{st.x * scale, st.y * scale}
	ix, iy := math.Floor(p.x), math.Floor(p.y)
	fx, fy := p.x-ix, p.y-iy

	minDist := 10.0
	var point vec2
	for y := -1.0; y <= 1; y++ {
		for x := -1.0; x <= 1; x++ {
			cx, cy := cellPoint(ix+x, iy+y)
			cx = 0.5 + 0.5*math.Sin(t*speed+2*math.Pi*cx)
			cy = 0.5 + 0.5*math.Sin(t*speed+2*math.Pi*cy)
			d := vec2{x + cx - fx, y + cy - fy}.length()
			if d < minDist {
				minDist = d
				point = vec2{cx, cy}
			}
		}
	}
	v := (point.x*0.3 + point.y*0.6) * (1 - blending*minDist)
	return vec4{v, v, v, 1}
}

func cellPoint(x, y float64) (float64, float64) {
	return fract(math.Sin(x*127.1+y*311.7) * 43758.5453),
		fract(math.Sin(x*269.5+y*183.3) * 43758.5453)
}
