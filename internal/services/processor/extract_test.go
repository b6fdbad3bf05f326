package processor

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/disintegration/imaging"
)

// gradient returns an image where every pixel is distinct enough to catch
// off-by-one placement.
func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: uint8(x ^ y), A: 255})
		}
	}
	return img
}

func TestExtractRoundTrip(t *testing.T) {
	g := Geometry{
		Viewport:       Viewport{Width: 256, Height: 256},
		WindowFraction: 1,
		AspectRatio:    1,
	}
	src := gradient(256, 256)

	e := NewExtractor()
	e.OutputLongEdge = 256

	out, err := e.Extract(src, InitialTransform(g, 256, 256), g)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if out.Bounds() != src.Bounds() {
		t.Fatalf("output bounds = %v, want %v", out.Bounds(), src.Bounds())
	}
	for y := 0; y < 256; y++ {
		for x := 0; x < 256; x++ {
			if got, want := out.NRGBAAt(x, y), src.NRGBAAt(x, y); got != want {
				t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestExtractOffsetOrigin(t *testing.T) {
	g := Geometry{
		Viewport:       Viewport{Width: 100, Height: 100},
		WindowFraction: 1,
		AspectRatio:    1,
	}
	src := gradient(200, 200).SubImage(image.Rect(50, 50, 150, 150))

	e := NewExtractor()
	e.OutputLongEdge = 100

	out, err := e.Extract(src, Transform{Scale: 1}, g)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	want := color.NRGBA{R: 50, G: 50, B: 0, A: 255}
	if got := out.NRGBAAt(0, 0); got != want {
		t.Errorf("pixel (0,0) = %v, want %v", got, want)
	}
}

func TestExtractOutputSize(t *testing.T) {
	tests := []struct {
		name          string
		aspectRatio   float64
		longEdge      int
		width, height int
	}{
		{"square", 1, 800, 800, 800},
		{"landscape", 16.0 / 9.0, 800, 800, 450},
		{"portrait", 0.5, 400, 400, 800},
		{"widest ratio", MaxAspectRatio, 800, 800, 80},
		{"narrowest ratio", MinAspectRatio, 800, 800, 8000},
		{"unset edge uses default", 1, 0, DefaultOutputLongEdge, DefaultOutputLongEdge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := DefaultGeometry()
			g.AspectRatio = tt.aspectRatio

			e := NewExtractor()
			e.OutputLongEdge = tt.longEdge

			out, err := e.Extract(imaging.New(300, 200, red), InitialTransform(g, 300, 200), g)
			if err != nil {
				t.Fatalf("Extract() error = %v", err)
			}
			if out.Bounds().Dx() != tt.width || out.Bounds().Dy() != tt.height {
				t.Errorf("output = %dx%d, want %dx%d", out.Bounds().Dx(), out.Bounds().Dy(), tt.width, tt.height)
			}
		})
	}
}

func TestExtractRejectsOversizedOutput(t *testing.T) {
	g := DefaultGeometry()
	g.AspectRatio = MinAspectRatio

	e := NewExtractor()
	e.OutputLongEdge = 20000

	_, err := e.Extract(imaging.New(300, 200, red), InitialTransform(g, 300, 200), g)
	if !errors.Is(err, ErrInvalidGeometry) {
		t.Fatalf("Extract() error = %v, want ErrInvalidGeometry", err)
	}
}

func TestExtractFillsOutsideSource(t *testing.T) {
	g := DefaultGeometry()
	src := imaging.New(400, 400, red)

	// Zoomed out below the covering scale and pushed left: the window sees
	// the image in its middle and background around it.
	tr := Transform{Scale: 0.5, OffsetX: -30}

	out, err := NewExtractor().Extract(src, tr, g)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if out.Bounds().Dx() != 800 || out.Bounds().Dy() != 800 {
		t.Fatalf("output = %v, want 800x800", out.Bounds())
	}

	black := color.NRGBA{A: 255}
	for _, p := range []image.Point{{0, 0}, {799, 0}, {0, 799}, {799, 799}, {799, 400}} {
		if got := out.NRGBAAt(p.X, p.Y); got != black {
			t.Errorf("pixel %v = %v, want background", p, got)
		}
	}

	// Source x in [0,400) lands on output x in [75,575).
	center := out.NRGBAAt(300, 400)
	if center.R < 250 || center.G > 5 || center.B > 5 {
		t.Errorf("center pixel = %v, want red", center)
	}
}

func TestExtractCustomBackground(t *testing.T) {
	g := DefaultGeometry()
	e := NewExtractor()
	e.Background = color.NRGBA{R: 10, G: 20, B: 30, A: 255}

	out, err := e.Extract(imaging.New(400, 400, red), Transform{Scale: 0.5}, g)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if got := out.NRGBAAt(0, 0); got != e.Background {
		t.Errorf("pixel (0,0) = %v, want %v", got, e.Background)
	}
}

func TestExtractErrors(t *testing.T) {
	src := imaging.New(400, 400, red)

	tests := []struct {
		name     string
		src      image.Image
		tr       Transform
		geometry Geometry
		wantErr  error
	}{
		{"zero scale", src, Transform{Scale: 0}, DefaultGeometry(), ErrDegenerateTransform},
		{"NaN scale", src, Transform{Scale: math.NaN()}, DefaultGeometry(), ErrDegenerateTransform},
		{"infinite offset", src, Transform{Scale: 1, OffsetY: math.Inf(1)}, DefaultGeometry(), ErrDegenerateTransform},
		{"empty source", image.NewNRGBA(image.Rect(0, 0, 0, 0)), Transform{Scale: 1}, DefaultGeometry(), ErrDegenerateTransform},
		{"bad geometry", src, Transform{Scale: 1}, Geometry{Viewport: Viewport{Width: 400, Height: 400}}, ErrInvalidGeometry},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := NewExtractor().Extract(tt.src, tt.tr, tt.geometry)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Extract() error = %v, want %v", err, tt.wantErr)
			}
			if out != nil {
				t.Error("Extract() returned an image alongside an error")
			}
		})
	}
}

func TestExtractFilters(t *testing.T) {
	g := DefaultGeometry()
	src := gradient(400, 400)

	for _, name := range []string{FilterLanczos, FilterCatmullRom, FilterLinear, FilterNearest} {
		t.Run(name, func(t *testing.T) {
			filter, err := ResampleFilter(name)
			if err != nil {
				t.Fatalf("ResampleFilter(%q) error = %v", name, err)
			}

			e := NewExtractor()
			e.Filter = filter
			out, err := e.Extract(src, Transform{Scale: 1.7, OffsetX: 10}, g)
			if err != nil {
				t.Fatalf("Extract() error = %v", err)
			}
			if out.Bounds().Dx() != 800 {
				t.Errorf("width = %d, want 800", out.Bounds().Dx())
			}
		})
	}

	if _, err := ResampleFilter("bicubic-ish"); err == nil {
		t.Error("ResampleFilter() accepted an unknown name")
	}
}
