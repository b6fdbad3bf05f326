package processor

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
)

var red = color.NRGBA{R: 255, A: 255}

func TestRenderIsDeterministic(t *testing.T) {
	src := imaging.New(640, 480, red)
	tr := Transform{Scale: 1.3, OffsetX: 12.5, OffsetY: -7}
	c := NewCompositor()

	first := c.Render(src, tr, DefaultGeometry())
	second := c.Render(src, tr, DefaultGeometry())

	if !bytes.Equal(first.Pix, second.Pix) {
		t.Fatal("two renders of the same input differ")
	}
}

func TestRenderSpotlight(t *testing.T) {
	src := imaging.New(400, 400, red)
	g := DefaultGeometry()
	preview := NewCompositor().Render(src, InitialTransform(g, 400, 400), g)

	if got := preview.Bounds(); got != image.Rect(0, 0, 400, 400) {
		t.Fatalf("preview bounds = %v, want the viewport", got)
	}

	tests := []struct {
		name    string
		x, y    int
		check   func(color.RGBA) bool
		explain string
	}{
		{
			name: "inside the window is not dimmed",
			x:    200, y: 200,
			check:   func(c color.RGBA) bool { return c == color.RGBA{R: 255, A: 255} },
			explain: "full red",
		},
		{
			name: "outside the window is dimmed",
			x:    10, y: 10,
			check:   func(c color.RGBA) bool { return c.R > 110 && c.R < 145 && c.G == 0 && c.B == 0 && c.A == 255 },
			explain: "half red",
		},
		{
			name: "below the window is dimmed",
			x:    200, y: 390,
			check:   func(c color.RGBA) bool { return c.R > 110 && c.R < 145 },
			explain: "half red",
		},
		{
			name: "border straddles the window edge",
			x:    40, y: 200,
			check:   func(c color.RGBA) bool { return c == color.RGBA{R: 255, G: 255, B: 255, A: 255} },
			explain: "white",
		},
		{
			name: "border outer pixel",
			x:    39, y: 200,
			check:   func(c color.RGBA) bool { return c == color.RGBA{R: 255, G: 255, B: 255, A: 255} },
			explain: "white",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := preview.RGBAAt(tt.x, tt.y)
			if !tt.check(got) {
				t.Errorf("pixel (%d,%d) = %v, want %s", tt.x, tt.y, got, tt.explain)
			}
		})
	}
}

func TestRenderLeavesGapsTransparentInsideWindow(t *testing.T) {
	// A 100x100 image zoomed to 0.5 covers only the middle of the window.
	src := imaging.New(400, 400, red)
	g := DefaultGeometry()
	preview := NewCompositor().Render(src, Transform{Scale: 0.5}, g)

	if got := preview.RGBAAt(60, 60); got.A != 0 {
		t.Errorf("uncovered pixel inside the window = %v, want transparent", got)
	}
	if got := preview.RGBAAt(10, 10); got.A == 0 || got.R != 0 {
		t.Errorf("uncovered pixel outside the window = %v, want translucent black", got)
	}
	if got := preview.RGBAAt(200, 200); got.R != 255 {
		t.Errorf("image pixel = %v, want red", got)
	}
}

func TestRenderDegenerateTransform(t *testing.T) {
	src := imaging.New(400, 400, red)
	preview := NewCompositor().Render(src, Transform{Scale: 0}, DefaultGeometry())

	if got := preview.RGBAAt(200, 200); got.A != 0 {
		t.Errorf("pixel = %v, want nothing drawn", got)
	}
}

func TestRenderHint(t *testing.T) {
	src := imaging.New(400, 400, red)
	g := DefaultGeometry()

	plain := NewCompositor()
	hinted := NewCompositor()
	hinted.Hint = "Drag to reposition"

	a := plain.Render(src, Transform{Scale: 1}, g)
	b := hinted.Render(src, Transform{Scale: 1}, g)

	if bytes.Equal(a.Pix, b.Pix) {
		t.Error("hint left the preview unchanged")
	}
}
