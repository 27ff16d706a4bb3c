package imaging

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/hsl-matte-mcp/internal/selection"
)

// Coverage describes how much of a render region a matte selects.
type Coverage struct {
	MeanWeight       float64 `json:"mean_weight"`       // Average alpha, 0-1
	SelectedFraction float64 `json:"selected_fraction"` // Share of pixels with alpha > 0
	FullFraction     float64 `json:"full_fraction"`     // Share of pixels with alpha == 1
}

// MeasureCoverage computes coverage over region of a 4-channel plane.
func MeasureCoverage[T Sample](p *Plane[T], region image.Rectangle) Coverage {
	region = region.Intersect(p.Rect)
	if region.Empty() || p.Channels != 4 {
		return Coverage{}
	}
	f := formatOf[T]()
	full := f.normalize(float64(opaque[T](f)))

	var sum float64
	var selected, fully int
	for y := region.Min.Y; y < region.Max.Y; y++ {
		i, _ := p.PixOffset(region.Min.X, y)
		for x := region.Min.X; x < region.Max.X; x++ {
			a := f.normalize(float64(p.Pix[i+3]))
			sum += a
			if a > 0 {
				selected++
			}
			if a >= full {
				fully++
			}
			i += 4
		}
	}

	n := float64(region.Dx() * region.Dy())
	return Coverage{
		MeanWeight:       sum / n,
		SelectedFraction: float64(selected) / n,
		FullFraction:     float64(fully) / n,
	}
}

// MatteOptions controls how a rendered matte is returned.
type MatteOptions struct {
	// Region is the render window. An empty rectangle renders the whole image.
	Region image.Rectangle

	// AlphaOnly returns the matte as a grayscale image instead of RGBA.
	AlphaOnly bool

	// Crop trims the encoded image to Region.
	Crop bool

	// Scale resizes the encoded image (Lanczos). 0 and 1 keep the size.
	// Scaled output is always 8-bit.
	Scale float64
}

// MatteResult contains a rendered selection matte encoded as base64 PNG.
type MatteResult struct {
	Width       int      `json:"width"`
	Height      int      `json:"height"`
	ImageBase64 string   `json:"image_base64"`
	MimeType    string   `json:"mime_type"`
	Depth       Depth    `json:"depth"`
	Identity    bool     `json:"identity"`
	Stats       Stats    `json:"stats"`
	Coverage    Coverage `json:"coverage"`
}

// RenderMatte renders the matte of src and encodes it for transport.
//
// Parameters:
//   - ctx: Cancels the render between rows.
//   - src: Source plane at any sample depth.
//   - sel: Axis windows for this call.
//   - opts: Region, encoding and scaling options.
//
// Returns:
//   - *MatteResult: Encoded PNG plus render stats and coverage.
//   - error: Non-nil on layout errors, cancellation or encoding failure.
func RenderMatte[T Sample](ctx context.Context, src *Plane[T], sel selection.Selection, opts MatteOptions) (*MatteResult, error) {
	if src == nil {
		return nil, ErrNilBuffer
	}
	region := opts.Region
	if region.Empty() {
		region = src.Rect
	}

	dst, st, err := Render(ctx, src, region, sel)
	if err != nil {
		return nil, err
	}

	var out image.Image
	if opts.AlphaOnly {
		out = dst.AlphaImage()
	} else {
		out = dst.Image()
	}
	if opts.Crop {
		out = subImage(out, region)
	}
	if opts.Scale != 1.0 && opts.Scale > 0 {
		w := int(float64(out.Bounds().Dx()) * opts.Scale)
		h := int(float64(out.Bounds().Dy()) * opts.Scale)
		if w < 1 || h < 1 {
			return nil, fmt.Errorf("scale %v produces an empty image", opts.Scale)
		}
		out = imaging.Resize(out, w, h, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("failed to encode matte: %w", err)
	}

	return &MatteResult{
		Width:       out.Bounds().Dx(),
		Height:      out.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
		Depth:       depthOf[T](),
		Identity:    sel.IsIdentity(),
		Stats:       st,
		Coverage:    MeasureCoverage(dst, region),
	}, nil
}

// RenderImage converts img to the requested sample depth and renders its
// matte. The depth applies uniformly to input and output for this call.
func RenderImage(ctx context.Context, img image.Image, depth Depth, sel selection.Selection, opts MatteOptions) (*MatteResult, error) {
	switch depth {
	case Depth8:
		return RenderMatte(ctx, Plane8FromImage(img), sel, opts)
	case Depth16:
		return RenderMatte(ctx, Plane16FromImage(img), sel, opts)
	case DepthFloat:
		return RenderMatte(ctx, PlaneFloatFromImage(img), sel, opts)
	}
	return nil, fmt.Errorf("unknown sample depth: %s", depth)
}

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

// subImage crops without dropping sample depth. Images that cannot share
// their pixels are cropped through imaging.Crop.
func subImage(img image.Image, r image.Rectangle) image.Image {
	if s, ok := img.(subImager); ok {
		return s.SubImage(r)
	}
	return imaging.Crop(img, r)
}

func depthOf[T Sample]() Depth {
	f := formatOf[T]()
	switch {
	case f.float:
		return DepthFloat
	case f.max == 0xffff:
		return Depth16
	default:
		return Depth8
	}
}
