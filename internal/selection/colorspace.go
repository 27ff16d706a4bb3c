package selection

import (
	"fmt"
	"image/color"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// grayEpsilon is the channel spread below which a pixel is treated as gray.
const grayEpsilon = 1e-5

// NoHue is the hue value reported when a pixel carries no hue information.
// It lies outside [0, 100) so it can never match a hue window by accident.
const NoHue = -1.0

// HSL is a pixel converted to the 0-100 hue/saturation/luminance scale.
type HSL struct {
	H float64 `json:"h"` // Hue: [0,100) fraction of a rotation, or NoHue
	S float64 `json:"s"` // Saturation: 0-100
	L float64 `json:"l"` // Luminance (max channel): 0-100

	// HueDefined is false only when the converter could not derive a hue.
	HueDefined bool `json:"hue_defined"`
}

// Convert maps normalized RGB components to the 0-100 HSL scale.
//
// Inputs are nominally in [0, 1]. Values above 1 are tolerated: luminance
// clamps at 100 while saturation and hue are computed from the raw values.
//
// Near-gray pixels (channel spread below 1e-5) return H=0 and S=0. Ties for
// the largest channel resolve red first, then green, then blue.
func Convert(r, g, b float64) HSL {
	minC := min(r, g, b)
	maxC := max(r, g, b)

	out := HSL{HueDefined: true}
	if maxC >= 1.0 {
		out.L = 100
	} else {
		out.L = 100 * maxC
	}

	delta := maxC - minC
	if delta < grayEpsilon {
		return out
	}

	if maxC <= 0 {
		// Only reachable with negative channel values.
		out.H = NoHue
		out.HueDefined = false
		return out
	}
	out.S = 100 * delta / maxC

	var h float64
	switch {
	case r >= maxC:
		h = (g - b) / delta // between yellow and magenta
	case g >= maxC:
		h = 2 + (b-r)/delta // between cyan and yellow
	default:
		h = 4 + (r-g)/delta // between magenta and cyan
	}

	h *= 100.0 / 6.0
	if h < 0 {
		h += 100
	}
	out.H = h
	return out
}

// Normalize scales a fixed-point sample with the given maximum to [0, 1].
// A zero maximum yields 0.
func Normalize(sample uint32, maxValue uint32) float64 {
	if maxValue == 0 {
		return 0
	}
	return float64(sample) / float64(maxValue)
}

// FromColor converts any color.Color. Premultiplied colors are converted to
// straight alpha first so partially transparent pixels keep their hue.
func FromColor(c color.Color) HSL {
	n := color.NRGBA64Model.Convert(c).(color.NRGBA64)
	return Convert(
		Normalize(uint32(n.R), 0xffff),
		Normalize(uint32(n.G), 0xffff),
		Normalize(uint32(n.B), 0xffff),
	)
}

// HueOfHex returns the hue (0-100) of a hex key color such as "#ff8800".
//
// Returns an error if the string is not a valid hex color or if the color is
// gray and therefore has no meaningful hue.
func HueOfHex(hex string) (float64, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return 0, fmt.Errorf("invalid key color %q: %w", hex, err)
	}
	hsl := Convert(c.R, c.G, c.B)
	if !hsl.HueDefined || hsl.S == 0 {
		return 0, fmt.Errorf("key color %q is gray and has no hue", hex)
	}
	return hsl.H, nil
}
