// Package frame adapts rendered frames to a display surface.
package frame

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// Scaler stretches low resolution frames to the surface size.
// The destination buffer is reused between calls.
//
// Thread-safety: not safe for concurrent use. Each display owns one.
type Scaler struct {
	interp draw.Interpolator
	dst    *image.RGBA
}

// NewScaler returns a scaler using interp. A nil interp uses bilinear filtering.
func NewScaler(interp draw.Interpolator) *Scaler {
	if interp == nil {
		interp = draw.ApproxBiLinear
	}
	return &Scaler{interp: interp}
}

// Scale draws src stretched over a width x height image. A nil src yields a
// black image. The result stays valid until the next call.
func (s *Scaler) Scale(src image.Image, width, height int) *image.RGBA {
	width, height = max(width, 1), max(height, 1)

	rect := image.Rect(0, 0, width, height)
	if s.dst == nil || s.dst.Rect != rect {
		s.dst = image.NewRGBA(rect)
	}

	if src == nil || src.Bounds().Empty() {
		draw.Draw(s.dst, rect, image.NewUniform(color.Black), image.Point{}, draw.Src)
		return s.dst
	}
	if src.Bounds() == rect {
		draw.Draw(s.dst, rect, src, src.Bounds().Min, draw.Src)
		return s.dst
	}

	s.interp.Scale(s.dst, rect, src, src.Bounds(), draw.Src, nil)
	return s.dst
}
