package render

import (
	"image/color"

	"github.com/chewxy/math32"
)

// goldenRatio spreads consecutive label hues around the color wheel.
const goldenRatio float32 = 0.618033988749895

// Color returns the box color for a class label. The same label always maps
// to the same color.
func Color(label int) color.RGBA {
	if label < 0 {
		label = -label
	}
	hue := math32.Mod(float32(label)*goldenRatio, 1)
	return hsv(hue, 0.85, 0.95)
}

// hsv converts a hue in [0,1) with saturation s and value v to RGB.
func hsv(h, s, v float32) color.RGBA {
	h6 := h * 6
	c := v * s
	x := c * (1 - math32.Abs(math32.Mod(h6, 2)-1))
	m := v - c

	var r, g, b float32
	switch int(math32.Floor(h6)) % 6 {
	case 0:
		r, g, b = c, x, 0
	case 1:
		r, g, b = x, c, 0
	case 2:
		r, g, b = 0, c, x
	case 3:
		r, g, b = 0, x, c
	case 4:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}

	return color.RGBA{
		R: uint8((r+m)*255 + 0.5),
		G: uint8((g+m)*255 + 0.5),
		B: uint8((b+m)*255 + 0.5),
		A: 0xff,
	}
}
