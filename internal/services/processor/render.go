package processor

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

const DefaultBorderWidth = 2

var (
	DefaultOverlay = color.NRGBA{R: 0, G: 0, B: 0, A: 128}
	DefaultBorder  = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)

// Compositor draws the "spotlight" preview: the image dimmed everywhere
// except inside the crop window, which is outlined.
type Compositor struct {
	Filter      draw.Interpolator
	Overlay     color.Color
	Border      color.Color
	BorderWidth int
	// Hint is an optional caption drawn at the bottom of the preview.
	Hint string
}

func NewCompositor() *Compositor {
	return &Compositor{
		Filter:      draw.ApproxBiLinear,
		Overlay:     DefaultOverlay,
		Border:      DefaultBorder,
		BorderWidth: DefaultBorderWidth,
	}
}

// Render clears and redraws the whole preview. The result depends only on
// its arguments.
func (c *Compositor) Render(src image.Image, t Transform, g Geometry) *image.RGBA {
	vp := image.Rect(0, 0, g.Viewport.Width, g.Viewport.Height)
	dst := image.NewRGBA(vp)

	if t.Valid() {
		b := src.Bounds()
		c.filter().Transform(dst, placement(t, b, g.Viewport), src, b, draw.Src, nil)
	}

	window := g.CropWindow().Pixels().Intersect(vp)

	overlay := image.NewUniform(c.overlay())
	for _, band := range outside(vp, window) {
		draw.Draw(dst, band, overlay, image.Point{}, draw.Over)
	}

	c.strokeBorder(dst, window)

	if c.Hint != "" {
		drawHint(dst, c.Hint)
	}

	return dst
}

// placement is the source-to-display affine map for t.
func placement(t Transform, b image.Rectangle, vp Viewport) f64.Aff3 {
	display := t.Display(b.Dx(), b.Dy(), vp)
	return f64.Aff3{
		t.Scale, 0, display.X - t.Scale*float64(b.Min.X),
		0, t.Scale, display.Y - t.Scale*float64(b.Min.Y),
	}
}

// outside returns the four bands of vp around window.
func outside(vp, window image.Rectangle) []image.Rectangle {
	if window.Empty() {
		return []image.Rectangle{vp}
	}
	return []image.Rectangle{
		image.Rect(vp.Min.X, vp.Min.Y, vp.Max.X, window.Min.Y),
		image.Rect(vp.Min.X, window.Max.Y, vp.Max.X, vp.Max.Y),
		image.Rect(vp.Min.X, window.Min.Y, window.Min.X, window.Max.Y),
		image.Rect(window.Max.X, window.Min.Y, vp.Max.X, window.Max.Y),
	}
}

// strokeBorder draws a frame centered on the window edge.
func (c *Compositor) strokeBorder(dst *image.RGBA, window image.Rectangle) {
	if c.BorderWidth <= 0 || window.Empty() {
		return
	}
	outer := window.Inset(-c.BorderWidth / 2)
	inner := outer.Inset(c.BorderWidth)
	border := image.NewUniform(c.border())

	for _, side := range outside(outer, inner) {
		draw.Draw(dst, side, border, image.Point{}, draw.Src)
	}
}

func (c *Compositor) filter() draw.Interpolator {
	if c.Filter == nil {
		return draw.ApproxBiLinear
	}
	return c.Filter
}

func (c *Compositor) overlay() color.Color {
	if c.Overlay == nil {
		return DefaultOverlay
	}
	return c.Overlay
}

func (c *Compositor) border() color.Color {
	if c.Border == nil {
		return DefaultBorder
	}
	return c.Border
}
