package processor

import "math"

// Transform places the source image in the viewport. The offset is a delta
// from the centered position, in display pixels.
type Transform struct {
	Scale   float64 `json:"scale"`
	OffsetX float64 `json:"offset_x"`
	OffsetY float64 `json:"offset_y"`
}

// InitialTransform is the centered transform at covering scale.
func InitialTransform(g Geometry, imgWidth, imgHeight int) Transform {
	return Transform{Scale: g.CoveringScale(imgWidth, imgHeight)}
}

// Valid reports whether t has a positive, finite scale and finite offsets.
func (t Transform) Valid() bool {
	return t.Scale > 0 &&
		!math.IsInf(t.Scale, 0) &&
		!math.IsNaN(t.OffsetX) && !math.IsInf(t.OffsetX, 0) &&
		!math.IsNaN(t.OffsetY) && !math.IsInf(t.OffsetY, 0)
}

// Display returns where the scaled image lands in the viewport.
func (t Transform) Display(imgWidth, imgHeight int, vp Viewport) Rect {
	sw := float64(imgWidth) * t.Scale
	sh := float64(imgHeight) * t.Scale

	return Rect{
		X:      (float64(vp.Width)-sw)/2 + t.OffsetX,
		Y:      (float64(vp.Height)-sh)/2 + t.OffsetY,
		Width:  sw,
		Height: sh,
	}
}

// SourceRect maps the crop window back into source image coordinates.
func (t Transform) SourceRect(imgWidth, imgHeight int, g Geometry) Rect {
	display := t.Display(imgWidth, imgHeight, g.Viewport)
	window := g.CropWindow()

	return Rect{
		X:      (window.X - display.X) / t.Scale,
		Y:      (window.Y - display.Y) / t.Scale,
		Width:  window.Width / t.Scale,
		Height: window.Height / t.Scale,
	}
}
