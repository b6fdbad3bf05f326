package processor

import (
	"bytes"
	"context"
	"errors"
	"image"
	"testing"

	"github.com/disintegration/imaging"
)

func TestEncode(t *testing.T) {
	img := imaging.New(120, 80, red)

	tests := []struct {
		name        string
		format      string
		contentType string
		wantFormat  string
	}{
		{"default is jpeg", "", "image/jpeg", "jpeg"},
		{"jpg alias", "jpg", "image/jpeg", "jpeg"},
		{"png", "png", "image/png", "png"},
		{"extension form", ".gif", "image/gif", "gif"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEncoder()
			e.Format = tt.format

			out, err := e.Encode(context.Background(), img)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			if out.ContentType != tt.contentType || out.Format != tt.wantFormat {
				t.Errorf("got %s (%s), want %s (%s)", out.Format, out.ContentType, tt.wantFormat, tt.contentType)
			}
			if out.Width != 120 || out.Height != 80 {
				t.Errorf("size = %dx%d, want 120x80", out.Width, out.Height)
			}

			decoded, err := imaging.Decode(bytes.NewReader(out.Data))
			if err != nil {
				t.Fatalf("encoded data does not decode: %v", err)
			}
			if decoded.Bounds() != image.Rect(0, 0, 120, 80) {
				t.Errorf("decoded bounds = %v", decoded.Bounds())
			}
		})
	}
}

func TestEncodeQuality(t *testing.T) {
	img := gradient(256, 256)

	low := &Encoder{Format: "jpeg", Quality: 0.1}
	high := &Encoder{Format: "jpeg", Quality: 1}

	small, err := low.Encode(context.Background(), img)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	large, err := high.Encode(context.Background(), img)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	if len(small.Data) >= len(large.Data) {
		t.Errorf("quality 0.1 produced %d bytes, quality 1 produced %d", len(small.Data), len(large.Data))
	}
}

func TestEncodeErrors(t *testing.T) {
	t.Run("unknown format", func(t *testing.T) {
		e := &Encoder{Format: "webp"}
		out, err := e.Encode(context.Background(), imaging.New(4, 4, red))
		if !errors.Is(err, ErrEncode) {
			t.Errorf("Encode() error = %v, want ErrEncode", err)
		}
		if out != nil {
			t.Error("Encode() returned output alongside an error")
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		out, err := NewEncoder().Encode(ctx, imaging.New(4, 4, red))
		if !errors.Is(err, context.Canceled) || out != nil {
			t.Errorf("Encode() = %v, %v; want context.Canceled", out, err)
		}
	})
}

func TestJPEGQuality(t *testing.T) {
	tests := []struct {
		quality float64
		want    int
	}{
		{0.9, 90},
		{1, 100},
		{0.001, 1},
		{0, 90},
		{-1, 90},
		{7, 100},
	}

	for _, tt := range tests {
		e := &Encoder{Quality: tt.quality}
		if got := e.jpegQuality(); got != tt.want {
			t.Errorf("jpegQuality(%v) = %d, want %d", tt.quality, got, tt.want)
		}
	}
}
