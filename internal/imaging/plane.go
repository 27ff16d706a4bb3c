package imaging

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// Sample is the set of channel sample types a Plane can hold.
//
//   - uint8: 8-bit fixed point, maximum 255
//   - uint16: 16-bit fixed point, maximum 65535
//   - float32: normalized floating point, nominally [0,1] but over-range
//     values are kept as they are
type Sample interface {
	uint8 | uint16 | float32
}

// Depth names a sample type. It is chosen once per render call.
type Depth string

const (
	Depth8     Depth = "8"
	Depth16    Depth = "16"
	DepthFloat Depth = "float"
)

// ParseDepth parses a depth name. An empty string selects Depth8.
func ParseDepth(s string) (Depth, error) {
	switch s {
	case "", "8", "8-bit":
		return Depth8, nil
	case "16", "16-bit":
		return Depth16, nil
	case "float", "32f", "float32":
		return DepthFloat, nil
	}
	return "", fmt.Errorf("unknown sample depth: %s", s)
}

// Plane is an interleaved pixel buffer with declared bounds and a row stride.
//
// Pixel (x, y) starts at Pix[(y-Rect.Min.Y)*Stride + (x-Rect.Min.X)*Channels].
// Channels is 3 (RGB) or 4 (RGBA). The layout mirrors image.NRGBA: color
// samples are never premultiplied.
type Plane[T Sample] struct {
	Pix      []T
	Stride   int // samples between vertically adjacent pixels
	Channels int
	Rect     image.Rectangle
}

// NewPlane allocates a zeroed plane with the given bounds and channel count.
func NewPlane[T Sample](r image.Rectangle, channels int) *Plane[T] {
	stride := r.Dx() * channels
	return &Plane[T]{
		Pix:      make([]T, stride*r.Dy()),
		Stride:   stride,
		Channels: channels,
		Rect:     r,
	}
}

// Bounds returns the declared bounds of the plane.
func (p *Plane[T]) Bounds() image.Rectangle {
	return p.Rect
}

// PixOffset returns the index of the first sample of pixel (x, y), and false
// if the pixel lies outside the declared bounds or the plane is nil.
func (p *Plane[T]) PixOffset(x, y int) (int, bool) {
	if p == nil || !(image.Point{x, y}).In(p.Rect) {
		return 0, false
	}
	return (y-p.Rect.Min.Y)*p.Stride + (x-p.Rect.Min.X)*p.Channels, true
}

// validate checks that every pixel inside Rect can be addressed in Pix.
func (p *Plane[T]) validate() error {
	if p.Channels != 3 && p.Channels != 4 {
		return fmt.Errorf("%w: %d channels, want 3 or 4", ErrLayout, p.Channels)
	}
	w, h := p.Rect.Dx(), p.Rect.Dy()
	if w == 0 || h == 0 {
		return nil
	}
	if p.Stride < w*p.Channels {
		return fmt.Errorf("%w: stride %d shorter than a row of %d samples", ErrLayout, p.Stride, w*p.Channels)
	}
	if need := (h-1)*p.Stride + w*p.Channels; len(p.Pix) < need {
		return fmt.Errorf("%w: %d samples, need %d", ErrLayout, len(p.Pix), need)
	}
	return nil
}

// format describes how a sample type maps to the normalized [0,1] range.
type format struct {
	max   float64
	float bool
}

func formatOf[T Sample]() format {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return format{max: 0xff}
	case uint16:
		return format{max: 0xffff}
	default:
		return format{max: 1, float: true}
	}
}

func (f format) normalize(v float64) float64 {
	if f.float {
		return v
	}
	return v / f.max
}

// quantize converts a weight in [0,1] to a sample. Fixed-point samples are
// rounded to the nearest step.
func quantize[T Sample](f format, w float64) T {
	if f.float {
		return T(w)
	}
	v := math.Round(w * f.max)
	if v < 0 {
		v = 0
	} else if v > f.max {
		v = f.max
	}
	return T(v)
}

// opaque returns the sample value for a fully opaque alpha.
func opaque[T Sample](f format) T {
	return T(f.max)
}

// Plane8FromImage converts any image to an 8-bit RGBA plane with the same
// bounds.
func Plane8FromImage(img image.Image) *Plane[uint8] {
	// Clone always returns a tightly packed NRGBA anchored at (0,0), which
	// has the same row layout as the source bounds.
	n := imaging.Clone(img)
	return &Plane[uint8]{
		Pix:      n.Pix,
		Stride:   n.Stride,
		Channels: 4,
		Rect:     img.Bounds(),
	}
}

// Plane16FromImage converts any image to a 16-bit RGBA plane with the same
// bounds. 8-bit sources are widened exactly (v*257).
func Plane16FromImage(img image.Image) *Plane[uint16] {
	b := img.Bounds()
	p := NewPlane[uint16](b, 4)

	if n, ok := img.(*image.NRGBA64); ok {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			row := n.Pix[n.PixOffset(b.Min.X, y):]
			i, _ := p.PixOffset(b.Min.X, y)
			for k := 0; k < b.Dx()*4; k++ {
				p.Pix[i+k] = binary.BigEndian.Uint16(row[2*k:])
			}
		}
		return p
	}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		i, _ := p.PixOffset(b.Min.X, y)
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBA64Model.Convert(img.At(x, y)).(color.NRGBA64)
			p.Pix[i+0] = c.R
			p.Pix[i+1] = c.G
			p.Pix[i+2] = c.B
			p.Pix[i+3] = c.A
			i += 4
		}
	}
	return p
}

// PlaneFloatFromImage converts any image to a normalized float RGBA plane.
func PlaneFloatFromImage(img image.Image) *Plane[float32] {
	p16 := Plane16FromImage(img)
	p := &Plane[float32]{
		Pix:      make([]float32, len(p16.Pix)),
		Stride:   p16.Stride,
		Channels: 4,
		Rect:     p16.Rect,
	}
	for i, v := range p16.Pix {
		p.Pix[i] = float32(v) / 0xffff
	}
	return p
}

// to16 widens or quantizes one sample to 16 bits. Float samples are clamped
// to [0,1].
func to16[T Sample](f format, v T) uint16 {
	switch {
	case f.float:
		x := float64(v)
		if x <= 0 {
			return 0
		}
		if x >= 1 {
			return 0xffff
		}
		return uint16(math.Round(x * 0xffff))
	case f.max == 0xff:
		return uint16(v) * 257
	default:
		return uint16(v)
	}
}

// Image returns a copy of the plane as a standard image. 8-bit planes become
// *image.NRGBA, 16-bit and float planes become *image.NRGBA64. Planes with
// three channels come out fully opaque.
func (p *Plane[T]) Image() image.Image {
	f := formatOf[T]()
	b := p.Rect

	if f.max == 0xff && !f.float {
		out := image.NewNRGBA(b)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			i, _ := p.PixOffset(b.Min.X, y)
			o := out.PixOffset(b.Min.X, y)
			for x := b.Min.X; x < b.Max.X; x++ {
				out.Pix[o+0] = uint8(p.Pix[i+0])
				out.Pix[o+1] = uint8(p.Pix[i+1])
				out.Pix[o+2] = uint8(p.Pix[i+2])
				out.Pix[o+3] = 0xff
				if p.Channels == 4 {
					out.Pix[o+3] = uint8(p.Pix[i+3])
				}
				i += p.Channels
				o += 4
			}
		}
		return out
	}

	out := image.NewNRGBA64(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		i, _ := p.PixOffset(b.Min.X, y)
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBA64{
				R: to16(f, p.Pix[i+0]),
				G: to16(f, p.Pix[i+1]),
				B: to16(f, p.Pix[i+2]),
				A: 0xffff,
			}
			if p.Channels == 4 {
				c.A = to16(f, p.Pix[i+3])
			}
			out.SetNRGBA64(x, y, c)
			i += p.Channels
		}
	}
	return out
}

// AlphaImage returns the alpha channel as a 16-bit grayscale image, which is
// the matte on its own. Three-channel planes yield a solid white image.
func (p *Plane[T]) AlphaImage() *image.Gray16 {
	f := formatOf[T]()
	b := p.Rect
	out := image.NewGray16(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		i, _ := p.PixOffset(b.Min.X, y)
		for x := b.Min.X; x < b.Max.X; x++ {
			a := uint16(0xffff)
			if p.Channels == 4 {
				a = to16(f, p.Pix[i+3])
			}
			out.SetGray16(x, y, color.Gray16{Y: a})
			i += p.Channels
		}
	}
	return out
}
