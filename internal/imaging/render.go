package imaging

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/anthonynsimon/bild/parallel"

	"github.com/ironsheep/hsl-matte-mcp/internal/selection"
)

// ErrAborted is returned by Render when the context ended mid-render.
var ErrAborted = errors.New("render aborted")

// Render computes the selection matte of src over region.
//
// The output plane has the bounds of src and always 4 channels. Pixels of the
// output outside region are left transparent black. The region is split into
// horizontal bands that run on parallel workers; the selection is copied once
// and shared read-only by every band.
//
// A selection with every axis disabled is an identity: the source is passed
// through with its own alpha and no weights are computed.
//
// When ctx ends, workers stop before their next row. Render then returns the
// partial output together with an error wrapping ErrAborted and ctx.Err().
func Render[T Sample](ctx context.Context, src *Plane[T], region image.Rectangle, sel selection.Selection) (*Plane[T], Stats, error) {
	if src == nil {
		return nil, Stats{}, ErrNilBuffer
	}
	if err := src.validate(); err != nil {
		return nil, Stats{}, fmt.Errorf("input: %w", err)
	}

	dst := NewPlane[T](src.Rect, 4)
	if err := checkLayout(dst, src, region); err != nil {
		return nil, Stats{}, err
	}
	if sel.IsIdentity() {
		return dst, passThrough(dst, src, region), nil
	}

	abort := ContextAborter(ctx)

	var (
		mu    sync.Mutex
		total Stats
	)
	parallel.Line(region.Dy(), func(start, end int) {
		band := image.Rect(region.Min.X, region.Min.Y+start, region.Max.X, region.Min.Y+end)
		st := process(dst, src, band, sel, abort)
		mu.Lock()
		total.Add(st)
		mu.Unlock()
	})

	if total.Aborted {
		return dst, total, fmt.Errorf("%w: %w", ErrAborted, ctx.Err())
	}
	return dst, total, nil
}
