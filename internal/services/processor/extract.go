package processor

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

const (
	DefaultOutputLongEdge = 800

	// MaxOutputPixels caps the allocation of a single extraction.
	MaxOutputPixels = 40_000_000
)

// DefaultBackground fills output pixels that fall outside the source image.
var DefaultBackground = color.NRGBA{R: 0, G: 0, B: 0, A: 255}

// Extractor resamples the region under the crop window into a fixed-size
// output image.
type Extractor struct {
	// OutputLongEdge is the output width; the height follows the aspect ratio.
	OutputLongEdge int
	Filter         draw.Interpolator
	Background     color.Color
}

func NewExtractor() *Extractor {
	return &Extractor{
		OutputLongEdge: DefaultOutputLongEdge,
		Filter:         kernelFrom(imaging.Lanczos),
		Background:     DefaultBackground,
	}
}

// OutputSize returns the output dimensions for the aspect ratio.
func (e *Extractor) OutputSize(aspectRatio float64) (int, int) {
	w := e.OutputLongEdge
	if w <= 0 {
		w = DefaultOutputLongEdge
	}
	h := int(math.Round(float64(w) / aspectRatio))
	if h < 1 {
		h = 1
	}
	return w, h
}

// Extract maps the crop window of g back onto src through t and returns the
// resampled pixels. Parts of the window that are not over the image are
// left as the background color.
func (e *Extractor) Extract(src image.Image, t Transform, g Geometry) (*image.NRGBA, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: scale=%v offset=(%v,%v)", ErrDegenerateTransform, t.Scale, t.OffsetX, t.OffsetY)
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}

	bounds := src.Bounds()
	if bounds.Empty() {
		return nil, fmt.Errorf("%w: empty source image", ErrDegenerateTransform)
	}

	sr := t.SourceRect(bounds.Dx(), bounds.Dy(), g)
	if sr.Empty() {
		return nil, fmt.Errorf("%w: source rectangle %+v", ErrDegenerateTransform, sr)
	}

	w, h := e.OutputSize(g.AspectRatio)
	if int64(w)*int64(h) > MaxOutputPixels {
		return nil, fmt.Errorf("%w: output %dx%d exceeds %d pixels", ErrInvalidGeometry, w, h, MaxOutputPixels)
	}
	dst := imaging.New(w, h, e.background())

	sx := float64(w) / sr.Width
	sy := float64(h) / sr.Height

	if sx == 1 && sy == 1 && sr.X == math.Trunc(sr.X) && sr.Y == math.Trunc(sr.Y) {
		copyAligned(dst, src, image.Pt(int(sr.X), int(sr.Y)))
		return dst, nil
	}

	s2d := f64.Aff3{
		sx, 0, -(sr.X + float64(bounds.Min.X)) * sx,
		0, sy, -(sr.Y + float64(bounds.Min.Y)) * sy,
	}
	e.filter().Transform(dst, s2d, src, bounds, draw.Over, nil)

	return dst, nil
}

// copyAligned copies the part of src that lies under dst when dst's origin
// sits at off (relative to src's origin). Nothing outside src is read.
func copyAligned(dst *image.NRGBA, src image.Image, off image.Point) {
	bounds := src.Bounds()
	want := dst.Bounds().Add(bounds.Min).Add(off)
	visible := want.Intersect(bounds)
	if visible.Empty() {
		return
	}
	target := visible.Sub(bounds.Min).Sub(off)
	draw.Draw(dst, target, src, visible.Min, draw.Over)
}

func (e *Extractor) filter() draw.Interpolator {
	if e.Filter == nil {
		return kernelFrom(imaging.Lanczos)
	}
	return e.Filter
}

func (e *Extractor) background() color.Color {
	if e.Background == nil {
		return DefaultBackground
	}
	return e.Background
}
