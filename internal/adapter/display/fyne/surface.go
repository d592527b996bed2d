package fyne

import (
	"image"
	"sync"

	fyneapp "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"github.com/tejashwikalptaru/gosketch/internal/adapter/display/frame"
	"github.com/tejashwikalptaru/gosketch/internal/domain"
	"github.com/tejashwikalptaru/gosketch/internal/ports"
)

// Surface is a full-window widget that draws the rendered frame and reports
// taps as interactions.
type Surface struct {
	widget.BaseWidget

	raster *canvas.Raster
	scaler *frame.Scaler

	mu     sync.Mutex
	events ports.DisplayEvents
	size   domain.Size // Last pixel size the raster was asked for
}

// NewSurface creates a surface. Events are dropped until SetEvents is called.
func NewSurface() *Surface {
	s := &Surface{scaler: frame.NewScaler(nil)}
	s.raster = canvas.NewRaster(s.draw)
	s.raster.ScaleMode = canvas.ImageScalePixels
	s.ExtendBaseWidget(s)
	return s
}

// SetEvents sets the receiver of surface events.
func (s *Surface) SetEvents(events ports.DisplayEvents) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = events
}

// PixelSize returns the last size the surface was drawn at.
func (s *Surface) PixelSize() domain.Size {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

// CreateRenderer implements fyne.Widget.
func (s *Surface) CreateRenderer() fyneapp.WidgetRenderer {
	return widget.NewSimpleRenderer(s.raster)
}

// MinSize returns the minimum size of the surface.
func (s *Surface) MinSize() fyneapp.Size {
	return fyneapp.NewSize(0, 0)
}

// Refresh redraws the raster.
func (s *Surface) Refresh() {
	s.raster.Refresh()
}

// draw is the raster generator. A size change is reported before the frame
// is rendered.
func (s *Surface) draw(w, h int) image.Image {
	s.mu.Lock()
	events := s.events
	size := domain.Size{Width: w, Height: h}
	changed := size != s.size
	s.size = size
	s.mu.Unlock()

	if events == nil {
		return s.scaler.Scale(nil, w, h)
	}
	if changed {
		events.OnResize(size)
	}
	return s.scaler.Scale(events.RenderFrame(), w, h)
}

// Tapped implements fyne.Tappable.
func (s *Surface) Tapped(*fyneapp.PointEvent) {
	s.mu.Lock()
	events := s.events
	s.mu.Unlock()

	if events != nil {
		events.OnInteraction()
	}
}

// TappedSecondary implements fyne.SecondaryTappable. A right click counts as
// an interaction too.
func (s *Surface) TappedSecondary(pe *fyneapp.PointEvent) {
	s.Tapped(pe)
}

// MouseIn implements desktop.Hoverable.
func (s *Surface) MouseIn(*desktop.MouseEvent) {}

// MouseMoved implements desktop.Hoverable.
func (s *Surface) MouseMoved(*desktop.MouseEvent) {}

// MouseOut implements desktop.Hoverable.
func (s *Surface) MouseOut() {}

// Ensure Surface implements the required interfaces
var _ fyneapp.Tappable = (*Surface)(nil)
var _ fyneapp.SecondaryTappable = (*Surface)(nil)
var _ desktop.Hoverable = (*Surface)(nil)
