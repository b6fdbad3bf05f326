package processor

import (
	"context"
	"image"
)

// ImageProcessor bundles the crop engine settings shared by sessions.
type ImageProcessor struct {
	Geometry   Geometry
	Gestures   GestureOptions
	Compositor *Compositor
	Extractor  *Extractor
	Encoder    ImageEncoder
	Decoder    Decoder
}

func NewImageProcessor() *ImageProcessor {
	return &ImageProcessor{
		Geometry:   DefaultGeometry(),
		Gestures:   DefaultGestureOptions(),
		Compositor: NewCompositor(),
		Extractor:  NewExtractor(),
		Encoder:    NewEncoder(),
		Decoder:    NewImagingDecoder(DefaultMaxFileSize),
	}
}

// WithAspectRatio returns a shallow copy using a different crop ratio.
func (p *ImageProcessor) WithAspectRatio(aspectRatio float64) *ImageProcessor {
	cp := *p
	cp.Geometry.AspectRatio = aspectRatio
	return &cp
}

// Controller returns a gesture controller for an image of the given size.
func (p *ImageProcessor) Controller(imgWidth, imgHeight int) *GestureController {
	return NewGestureController(p.Gestures, p.Geometry, imgWidth, imgHeight)
}

// Render draws the preview for src under t.
func (p *ImageProcessor) Render(src image.Image, t Transform) *image.RGBA {
	return p.Compositor.Render(src, t, p.Geometry)
}

// Crop extracts the crop window of src under t and encodes it.
func (p *ImageProcessor) Crop(ctx context.Context, src image.Image, t Transform) (*Output, error) {
	img, err := p.Extractor.Extract(src, t, p.Geometry)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return p.Encoder.Encode(ctx, img)
}
