// Package imaging applies HSL selection mattes to whole images.
//
// The package holds the pixel buffers, the scanline traversal that writes a
// matte into the alpha channel, the host-side scheduler that splits a render
// across workers, and the loading and encoding helpers used by the server.
//
// # Coordinate System
//
// Pixel coordinates follow image.Rectangle conventions:
//   - (0,0) is the top-left corner for decoded files; planes may have any origin
//   - Min is inclusive, Max is exclusive
//   - The render region and both planes share one coordinate space
//
// # Buffers
//
// A Plane holds interleaved samples of one type: uint8, uint16 or float32.
// The sample type is chosen once per render and applies to input and output
// alike. Input planes have 3 or 4 channels; output planes always have 4, with
// the source RGB copied unchanged and the selection weight in alpha.
//
// # Missing Pixels
//
// A render region may be larger than the source. Pixels outside the source's
// declared bounds are written as transparent black (0,0,0,0). This is not an
// error.
//
// # Thread Safety
//
// Process holds no state between calls. Concurrent calls on disjoint regions
// of one output plane need no locking; the source plane, the selection and the
// Aborter are shared read-only. Render does this partitioning itself. The
// ImageCache type is safe for concurrent use.
//
// # Error Handling
//
// Only buffer layout problems are errors (ErrNilBuffer, ErrLayout), and they
// are reported before any pixel is written. Cancellation is reported through
// Stats.Aborted by Process and as ErrAborted by Render.
package imaging
