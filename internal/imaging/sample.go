package imaging

import (
	"fmt"
	"image"
	"image/color"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/hsl-matte-mcp/internal/selection"
)

// RGBAColor is a straight-alpha color with 8-bit components.
type RGBAColor struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
	A uint8 `json:"a"` // 0 = fully transparent, 255 = fully opaque
}

// HSLSample is one pixel scored against a selection.
type HSLSample struct {
	Label string    `json:"label,omitempty"`
	X     int       `json:"x"`
	Y     int       `json:"y"`
	Hex   string    `json:"hex"` // "#rrggbb", alpha excluded
	RGBA  RGBAColor `json:"rgba"`

	// HSL is the pixel on the 0-100 matte scale.
	HSL selection.HSL `json:"hsl"`

	Multipliers selection.Multipliers `json:"multipliers"`
	Weight      float64               `json:"weight"`
}

// SampleHSL converts the pixel at (x, y) and scores it against sel.
//
// Returns an error if the coordinates are outside the image bounds. Unlike a
// render, sampling is an explicit lookup, so a missing pixel is reported to
// the caller instead of being treated as transparent black.
func SampleHSL(img image.Image, x, y int, sel selection.Selection) (*HSLSample, error) {
	if !(image.Point{x, y}).In(img.Bounds()) {
		return nil, fmt.Errorf("coordinates (%d,%d) outside image bounds", x, y)
	}

	c := img.At(x, y)
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	hsl := selection.FromColor(c)
	m := sel.Multipliers(hsl)

	var hex string
	if cf, ok := colorful.MakeColor(c); ok {
		hex = cf.Hex()
	} else {
		// MakeColor refuses fully transparent colors; report the stored RGB.
		hex = fmt.Sprintf("#%02x%02x%02x", n.R, n.G, n.B)
	}

	return &HSLSample{
		X:           x,
		Y:           y,
		Hex:         hex,
		RGBA:        RGBAColor{R: n.R, G: n.G, B: n.B, A: n.A},
		HSL:         hsl,
		Multipliers: m,
		Weight:      m.Weight(),
	}, nil
}

// LabeledPoint is a pixel coordinate with an optional descriptive label.
type LabeledPoint struct {
	X     int
	Y     int
	Label string
}

// SampleHSLMulti samples several points against the same selection. Results
// are in input order. On error no partial results are returned.
func SampleHSLMulti(img image.Image, points []LabeledPoint, sel selection.Selection) ([]HSLSample, error) {
	results := make([]HSLSample, 0, len(points))
	for _, p := range points {
		s, err := SampleHSL(img, p.X, p.Y, sel)
		if err != nil {
			return nil, fmt.Errorf("failed to sample point (%d,%d): %w", p.X, p.Y, err)
		}
		s.Label = p.Label
		results = append(results, *s)
	}
	return results, nil
}
