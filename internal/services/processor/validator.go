package processor

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
)

const (
	DefaultMaxFileSize = 10 << 20 // 10MB

	// DefaultMaxPixels bounds the decoded buffer to about 200MB of NRGBA.
	DefaultMaxPixels = 50_000_000
)

// Decoder turns raw bytes into a pixel-addressable image.
type Decoder interface {
	Decode(ctx context.Context, r io.Reader) (image.Image, error)
}

// ImagingDecoder decodes with EXIF auto-orientation. Files over MaxFileSize
// bytes or whose header declares more than MaxPixels are rejected before
// any pixel buffer is allocated.
type ImagingDecoder struct {
	MaxFileSize int64
	MaxPixels   int64
}

func NewImagingDecoder(maxFileSize int64) *ImagingDecoder {
	return &ImagingDecoder{MaxFileSize: maxFileSize, MaxPixels: DefaultMaxPixels}
}

type decodeResult struct {
	img image.Image
	err error
}

// Decode runs on its own goroutine so a cancelled ctx returns immediately;
// the late result is dropped.
func (d *ImagingDecoder) Decode(ctx context.Context, r io.Reader) (image.Image, error) {
	limit := d.MaxFileSize
	if limit <= 0 {
		limit = DefaultMaxFileSize
	}

	done := make(chan decodeResult, 1)
	go func() {
		img, err := d.decode(r, limit)
		done <- decodeResult{img: img, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-done:
		return res.img, res.err
	}
}

func (d *ImagingDecoder) decode(r io.Reader, limit int64) (image.Image, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: file size exceeds maximum allowed size %d", ErrDecode, limit)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: image has no pixels", ErrDecode)
	}
	if maxPixels := d.maxPixels(); int64(cfg.Width)*int64(cfg.Height) > maxPixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrDecode, cfg.Width, cfg.Height, maxPixels)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	if b := img.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: image has no pixels", ErrDecode)
	}
	return img, nil
}

func (d *ImagingDecoder) maxPixels() int64 {
	if d.MaxPixels <= 0 {
		return DefaultMaxPixels
	}
	return d.MaxPixels
}
