// Package selection turns RGB pixels into soft selection weights.
//
// The package has two layers. The converter maps an RGB triple to an HSL-like
// triple where every axis runs from 0 to 100. The window layer scores a
// converted pixel against three independently configurable axis windows and
// multiplies the per-axis scores into one weight in [0, 1].
//
// # Scale
//
// Hue is a fraction of one full rotation on [0, 100), not degrees:
//   - 0 = red
//   - 33.3 = green
//   - 66.7 = blue
//
// Saturation is delta/max scaled to [0, 100]. Luminance is the largest channel
// scaled to [0, 100] and clamped at 100 for over-range input.
//
// # Windows
//
// The hue window is circular: a window centered near 0 or 100 selects pixels
// on both sides of the seam. Saturation and luminance windows are plain
// intervals. Every window has a linear falloff (softness) outside its hard
// bounds; a softness of 0 gives a hard edge.
//
// # Thread Safety
//
// Everything in this package is a pure function of its arguments. Selection
// values are small structs passed by value and can be shared freely between
// goroutines as long as nobody mutates them during a render.
package selection
