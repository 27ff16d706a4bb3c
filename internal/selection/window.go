package selection

// hueTurn is the length of one full hue rotation on the 0-100 scale.
const hueTurn = 100.0

// HueWindow selects a band of the circular hue axis.
//
// The hard band is [Center-Width/2, Center+Width/2]. Softness extends a
// linear ramp of that width on both sides. The window is not validated: a
// negative Width gives an empty band.
type HueWindow struct {
	Enabled  bool    `json:"enabled"`
	Center   float64 `json:"center"`
	Width    float64 `json:"width"`
	Softness float64 `json:"softness"`
}

// RangeWindow selects an interval of a non-circular axis (saturation or
// luminance). Low and high sides have independent softness.
type RangeWindow struct {
	Enabled      bool    `json:"enabled"`
	Low          float64 `json:"low"`
	High         float64 `json:"high"`
	SoftnessLow  float64 `json:"softness_low"`
	SoftnessHigh float64 `json:"softness_high"`
}

// Selection is the full axis-window configuration for one render call.
type Selection struct {
	Hue        HueWindow   `json:"hue"`
	Saturation RangeWindow `json:"saturation"`
	Luminance  RangeWindow `json:"luminance"`
}

// Multipliers is the per-axis breakdown of a selection weight.
type Multipliers struct {
	Hue        float64 `json:"hue"`
	Saturation float64 `json:"saturation"`
	Luminance  float64 `json:"luminance"`
}

// Weight is the product of the three axis multipliers.
func (m Multipliers) Weight() float64 {
	return m.Hue * m.Saturation * m.Luminance
}

// IsIdentity reports whether the selection leaves images untouched, which is
// the case when no axis is enabled.
func (s Selection) IsIdentity() bool {
	return !s.Hue.Enabled && !s.Saturation.Enabled && !s.Luminance.Enabled
}

// Multipliers scores a converted pixel on each axis.
func (s Selection) Multipliers(p HSL) Multipliers {
	m := Multipliers{
		Hue:        1,
		Saturation: s.Saturation.Multiplier(p.S),
		Luminance:  s.Luminance.Multiplier(p.L),
	}
	if s.Hue.Enabled {
		if p.HueDefined {
			m.Hue = s.Hue.Multiplier(p.H)
		} else {
			m.Hue = 0
		}
	}
	return m
}

// Weight returns the selection weight of a converted pixel in [0, 1].
func (s Selection) Weight(p HSL) float64 {
	return s.Multipliers(p).Weight()
}

// WeightRGB converts and scores a normalized RGB triple.
func (s Selection) WeightRGB(r, g, b float64) float64 {
	return s.Weight(Convert(r, g, b))
}

// Multiplier scores hue h against the window. A disabled window returns 1.
//
// Hue wraps at 100, so h is also tested shifted by one turn in each
// direction. Without the shifted tests a window near the seam would cut off
// hard on the far side of 0/100.
func (w HueWindow) Multiplier(h float64) float64 {
	if !w.Enabled {
		return 1
	}

	minHue := w.Center - 0.5*w.Width
	maxHue := w.Center + 0.5*w.Width
	lowThresh := minHue - w.Softness
	highThresh := maxHue + w.Softness

	shifted := [3]float64{h, h - hueTurn, h + hueTurn}

	for _, v := range shifted {
		if v >= minHue && v <= maxHue {
			return 1
		}
	}
	if w.Softness <= 0 {
		return 0
	}
	for _, v := range shifted {
		if v > lowThresh && v < minHue {
			return (v - lowThresh) / w.Softness
		}
	}
	for _, v := range shifted {
		if v > maxHue && v <= highThresh {
			return (highThresh - v) / w.Softness
		}
	}
	return 0
}

// Multiplier scores v against the window. A disabled window returns 1.
func (w RangeWindow) Multiplier(v float64) float64 {
	if !w.Enabled {
		return 1
	}

	switch {
	case v >= w.Low && v <= w.High:
		return 1
	case v < w.Low && w.SoftnessLow > 0 && v > w.Low-w.SoftnessLow:
		return (v - (w.Low - w.SoftnessLow)) / w.SoftnessLow
	case v > w.High && w.SoftnessHigh > 0 && v < w.High+w.SoftnessHigh:
		return 1 - (v-w.High)/w.SoftnessHigh
	default:
		return 0
	}
}
