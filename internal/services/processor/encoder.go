package processor

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"math"
	"strings"

	"github.com/disintegration/imaging"
)

const (
	DefaultFormat  = "jpeg"
	DefaultQuality = 0.9
)

// Output is an encoded crop ready to hand to the save callback.
type Output struct {
	Data        []byte
	Format      string
	ContentType string
	Width       int
	Height      int
}

// ImageEncoder turns an extracted crop into its output payload.
type ImageEncoder interface {
	Encode(ctx context.Context, img image.Image) (*Output, error)
}

// Encoder compresses images into a single format.
type Encoder struct {
	Format string
	// Quality in (0,1]; only used by lossy formats.
	Quality float64
}

func NewEncoder() *Encoder {
	return &Encoder{Format: DefaultFormat, Quality: DefaultQuality}
}

// Encode compresses img. On error nothing is returned, so callers never see
// a partial payload.
func (e *Encoder) Encode(ctx context.Context, img image.Image) (*Output, error) {
	format, err := ParseFormat(e.Format)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncode, err)
	}

	buffer := &bytes.Buffer{}
	if err := imaging.Encode(buffer, img, format, imaging.JPEGQuality(e.jpegQuality())); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncode, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	return &Output{
		Data:        buffer.Bytes(),
		Format:      strings.ToLower(format.String()),
		ContentType: ContentType(format),
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
	}, nil
}

func (e *Encoder) jpegQuality() int {
	q := e.Quality
	if !(q > 0) {
		q = DefaultQuality
	}
	return min(100, max(1, int(math.Round(q*100))))
}

// ParseFormat accepts format names and file extensions ("jpg", ".png").
func ParseFormat(name string) (imaging.Format, error) {
	if name == "" {
		name = DefaultFormat
	}
	if !strings.HasPrefix(name, ".") {
		name = "." + name
	}
	return imaging.FormatFromExtension(name)
}

func ContentType(f imaging.Format) string {
	switch f {
	case imaging.JPEG:
		return "image/jpeg"
	case imaging.PNG:
		return "image/png"
	case imaging.GIF:
		return "image/gif"
	case imaging.TIFF:
		return "image/tiff"
	case imaging.BMP:
		return "image/bmp"
	default:
		return "application/octet-stream"
	}
}
