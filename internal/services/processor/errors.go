package processor

import "errors"

var (
	// ErrDecode is returned when the source bytes cannot be turned into an image.
	ErrDecode = errors.New("failed to decode image")
	// ErrDegenerateTransform is returned when the transform cannot map the crop
	// window onto a non-empty source region.
	ErrDegenerateTransform = errors.New("degenerate transform")
	// ErrEncode is returned when the extracted image cannot be compressed.
	ErrEncode = errors.New("failed to encode image")
	// ErrInvalidGeometry is returned for viewport or aspect settings that
	// cannot produce a crop window.
	ErrInvalidGeometry = errors.New("invalid crop geometry")
)
