package processor

import (
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const hintPadding = 8

// drawHint writes text centered along the bottom edge of img.
func drawHint(img *image.RGBA, text string) {
	bounds := img.Bounds()
	face := basicfont.Face7x13

	width := font.MeasureString(face, text).Ceil()
	x := bounds.Min.X + (bounds.Dx()-width)/2
	if x < bounds.Min.X+hintPadding {
		x = bounds.Min.X + hintPadding
	}
	y := bounds.Max.Y - hintPadding

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.RGBA{230, 230, 230, 230}),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}
