package frame

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/image/draw"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Rect, image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

func TestScale_Upscales(t *testing.T) {
	s := NewScaler(draw.NearestNeighbor)
	src := solid(2, 2, color.RGBA{R: 255, A: 255})
	src.SetRGBA(1, 1, color.RGBA{B: 255, A: 255})

	out := s.Scale(src, 8, 6)

	assert.Equal(t, image.Rect(0, 0, 8, 6), out.Rect)
	assert.Equal(t, color.RGBA{R: 255, A: 255}, out.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{B: 255, A: 255}, out.RGBAAt(7, 5))
}

func TestScale_NilIsBlack(t *testing.T) {
	out := NewScaler(nil).Scale(nil, 3, 2)

	assert.Equal(t, image.Rect(0, 0, 3, 2), out.Rect)
	assert.Equal(t, color.RGBA{A: 255}, out.RGBAAt(2, 1))
}

func TestScale_ReusesBuffer(t *testing.T) {
	s := NewScaler(nil)
	a := s.Scale(solid(1, 1, color.RGBA{G: 255, A: 255}), 4, 4)
	b := s.Scale(solid(1, 1, color.RGBA{R: 255, A: 255}), 4, 4)
	assert.Same(t, a, b)
	assert.Equal(t, color.RGBA{R: 255, A: 255}, b.RGBAAt(2, 2))

	c := s.Scale(nil, 5, 4)
	assert.NotSame(t, a, c)
}

func TestScale_SameSizeCopies(t *testing.T) {
	src := solid(4, 3, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	out := NewScaler(nil).Scale(src, 4, 3)
	assert.Equal(t, src.Pix, out.Pix)
}

func TestScale_ClampsEmptySize(t *testing.T) {
	out := NewScaler(nil).Scale(nil, 0, -2)
	assert.Equal(t, image.Rect(0, 0, 1, 1), out.Rect)
}
