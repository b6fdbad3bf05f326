package processor

import (
	"fmt"
	"image"
	"math"
)

const (
	DefaultViewportWidth  = 400
	DefaultViewportHeight = 400
	DefaultWindowFraction = 0.8
	DefaultAspectRatio    = 1.0

	// Ratios outside this range give output images that are a sliver on
	// one axis and unbounded on the other.
	MinAspectRatio = 0.1
	MaxAspectRatio = 10.0
)

// Viewport is the size of the preview surface in display pixels.
type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Rect is a float rectangle in display or source space.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (r Rect) Right() float64  { return r.X + r.Width }
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Empty reports whether r has no area. NaN sizes count as empty.
func (r Rect) Empty() bool {
	return !(r.Width > 0) || !(r.Height > 0)
}

// Contains reports whether o lies fully inside r.
func (r Rect) Contains(o Rect) bool {
	return o.X >= r.X && o.Y >= r.Y && o.Right() <= r.Right() && o.Bottom() <= r.Bottom()
}

// Pixels rounds r to the nearest integer rectangle.
func (r Rect) Pixels() image.Rectangle {
	return image.Rect(
		int(math.Round(r.X)),
		int(math.Round(r.Y)),
		int(math.Round(r.Right())),
		int(math.Round(r.Bottom())),
	)
}

// Geometry is the fixed layout of a crop session: the viewport, how much of
// it the crop window takes and the aspect ratio of the window.
type Geometry struct {
	Viewport       Viewport `json:"viewport"`
	WindowFraction float64  `json:"window_fraction"`
	AspectRatio    float64  `json:"aspect_ratio"`
}

// DefaultGeometry returns the 400x400 viewport with a square window at 80%.
func DefaultGeometry() Geometry {
	return Geometry{
		Viewport:       Viewport{Width: DefaultViewportWidth, Height: DefaultViewportHeight},
		WindowFraction: DefaultWindowFraction,
		AspectRatio:    DefaultAspectRatio,
	}
}

func (g Geometry) Validate() error {
	if g.Viewport.Width <= 0 || g.Viewport.Height <= 0 {
		return fmt.Errorf("%w: viewport %dx%d", ErrInvalidGeometry, g.Viewport.Width, g.Viewport.Height)
	}
	if !(g.WindowFraction > 0 && g.WindowFraction <= 1) {
		return fmt.Errorf("%w: window fraction %v not in (0,1]", ErrInvalidGeometry, g.WindowFraction)
	}
	if !(g.AspectRatio >= MinAspectRatio && g.AspectRatio <= MaxAspectRatio) {
		return fmt.Errorf("%w: aspect ratio %v not in [%v,%v]", ErrInvalidGeometry, g.AspectRatio, MinAspectRatio, MaxAspectRatio)
	}
	return nil
}

// CropWindow is derived from the viewport and aspect ratio only. It is the
// largest rectangle of the given ratio fitting in the fraction of the
// viewport, centered.
func (g Geometry) CropWindow() Rect {
	vw := float64(g.Viewport.Width)
	vh := float64(g.Viewport.Height)

	w := math.Min(vw*g.WindowFraction, vh*g.WindowFraction*g.AspectRatio)
	h := w / g.AspectRatio

	return Rect{
		X:      (vw - w) / 2,
		Y:      (vh - h) / 2,
		Width:  w,
		Height: h,
	}
}

// CoveringScale is the smallest scale at which an image of the given size
// covers the whole viewport.
func (g Geometry) CoveringScale(imgWidth, imgHeight int) float64 {
	return math.Max(
		float64(g.Viewport.Width)/float64(imgWidth),
		float64(g.Viewport.Height)/float64(imgHeight),
	)
}
