package imaging

import (
	"errors"
	"fmt"
	"image"

	"github.com/ironsheep/hsl-matte-mcp/internal/selection"
)

var (
	// ErrNilBuffer is returned when the output plane is missing.
	ErrNilBuffer = errors.New("imaging: nil pixel buffer")

	// ErrLayout is returned when a plane cannot hold the pixels it declares,
	// or when the output cannot receive the render region.
	ErrLayout = errors.New("imaging: inconsistent buffer layout")
)

// Stats summarizes one Process call.
type Stats struct {
	Rows    int  `json:"rows"`           // Rows fully written
	Pixels  int  `json:"pixels"`         // Pixels written, missing ones included
	Missing int  `json:"missing_pixels"` // Pixels with no source data
	Aborted bool `json:"aborted"`        // Stopped early on the abort signal
}

// Add merges the stats of another band into s.
func (s *Stats) Add(o Stats) {
	s.Rows += o.Rows
	s.Pixels += o.Pixels
	s.Missing += o.Missing
	s.Aborted = s.Aborted || o.Aborted
}

// checkLayout validates the planes for a render of region before any pixel
// is touched.
func checkLayout[T Sample](dst, src *Plane[T], region image.Rectangle) error {
	if dst == nil {
		return ErrNilBuffer
	}
	if dst.Channels != 4 {
		return fmt.Errorf("%w: output has %d channels, want 4", ErrLayout, dst.Channels)
	}
	if err := dst.validate(); err != nil {
		return fmt.Errorf("output: %w", err)
	}
	if !region.In(dst.Rect) {
		return fmt.Errorf("%w: region %v outside output bounds %v", ErrLayout, region, dst.Rect)
	}
	if src != nil {
		if err := src.validate(); err != nil {
			return fmt.Errorf("input: %w", err)
		}
	}
	return nil
}

// Process writes the selection matte for every pixel of region into dst.
//
// For each pixel the source RGB is copied to dst unchanged and the selection
// weight of that color is written to the alpha channel. Pixels outside the
// declared bounds of src (or every pixel, if src is nil) are written as
// transparent black.
//
// Parameters:
//   - dst: Output plane. Must have 4 channels and contain region.
//   - src: Input plane with 3 or 4 channels. Its bounds may differ from region.
//   - region: Render window, in the coordinate space shared by both planes.
//   - sel: Axis windows, captured by value for the whole call.
//   - abort: Polled before each row; nil never aborts.
//
// Returns:
//   - Stats: Rows and pixels written. Stats.Aborted is set when the abort
//     signal stopped the traversal; the rows already written stay in dst.
//   - error: ErrNilBuffer or ErrLayout, returned before anything is written.
//
// # Concurrency
//
// Rows are independent. Calls on disjoint regions of the same dst may run
// concurrently with a shared src and Aborter.
func Process[T Sample](dst, src *Plane[T], region image.Rectangle, sel selection.Selection, abort Aborter) (Stats, error) {
	if err := checkLayout(dst, src, region); err != nil {
		return Stats{}, err
	}
	return process(dst, src, region, sel, abort), nil
}

// process is Process without the layout checks.
func process[T Sample](dst, src *Plane[T], region image.Rectangle, sel selection.Selection, abort Aborter) Stats {
	var st Stats
	if region.Empty() {
		return st
	}
	f := formatOf[T]()

	for y := region.Min.Y; y < region.Max.Y; y++ {
		if abort != nil && abort.Aborted() {
			st.Aborted = true
			break
		}

		d, _ := dst.PixOffset(region.Min.X, y)
		for x := region.Min.X; x < region.Max.X; x++ {
			s, ok := src.PixOffset(x, y)
			if !ok {
				dst.Pix[d+0] = 0
				dst.Pix[d+1] = 0
				dst.Pix[d+2] = 0
				dst.Pix[d+3] = 0
				st.Missing++
				d += 4
				continue
			}

			r, g, b := src.Pix[s+0], src.Pix[s+1], src.Pix[s+2]
			w := sel.WeightRGB(
				f.normalize(float64(r)),
				f.normalize(float64(g)),
				f.normalize(float64(b)),
			)

			dst.Pix[d+0] = r
			dst.Pix[d+1] = g
			dst.Pix[d+2] = b
			dst.Pix[d+3] = quantize[T](f, w)
			d += 4
		}
		st.Rows++
		st.Pixels += region.Dx()
	}
	return st
}

// passThrough copies region from src to dst unchanged. A three-channel
// source is given an opaque alpha.
func passThrough[T Sample](dst, src *Plane[T], region image.Rectangle) Stats {
	var st Stats
	f := formatOf[T]()
	for y := region.Min.Y; y < region.Max.Y; y++ {
		d, _ := dst.PixOffset(region.Min.X, y)
		for x := region.Min.X; x < region.Max.X; x++ {
			s, ok := src.PixOffset(x, y)
			if !ok {
				copy(dst.Pix[d:d+4], []T{0, 0, 0, 0})
				st.Missing++
				d += 4
				continue
			}
			copy(dst.Pix[d:d+3], src.Pix[s:s+3])
			if src.Channels == 4 {
				dst.Pix[d+3] = src.Pix[s+3]
			} else {
				dst.Pix[d+3] = opaque[T](f)
			}
			d += 4
		}
		st.Rows++
		st.Pixels += region.Dx()
	}
	return st
}
