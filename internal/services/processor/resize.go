package processor

import (
	"fmt"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
)

const (
	FilterLanczos    = "lanczos"
	FilterCatmullRom = "catmullrom"
	FilterLinear     = "linear"
	FilterNearest    = "nearest"
)

// ResampleFilter returns the interpolator for name. The kernels are the
// imaging filters driven through x/image/draw so they can sample a
// sub-pixel source rectangle.
func ResampleFilter(name string) (draw.Interpolator, error) {
	switch strings.ToLower(name) {
	case "", FilterLanczos:
		return kernelFrom(imaging.Lanczos), nil
	case FilterCatmullRom:
		return kernelFrom(imaging.CatmullRom), nil
	case FilterLinear, "bilinear":
		return kernelFrom(imaging.Linear), nil
	case FilterNearest:
		return draw.NearestNeighbor, nil
	default:
		return nil, fmt.Errorf("unknown resample filter %q", name)
	}
}

func kernelFrom(f imaging.ResampleFilter) *draw.Kernel {
	return &draw.Kernel{Support: f.Support, At: f.Kernel}
}
