// Package server implements the MCP (Model Context Protocol) server for
// hue/saturation/luminance selection mattes.
//
// The server speaks JSON-RPC 2.0 over stdio, one request per line. Supported
// methods are initialize, tools/list, tools/call and ping.
//
// # Available Tools
//
// Basic Image Information:
//   - image_load: Load image and get metadata
//   - image_dimensions: Get width and height
//   - image_cache_evict: Drop cached decodes so files are reread
//
// Matte Operations:
//   - image_hsl_matte: Render a soft selection matte into the alpha channel
//   - image_sample_hsl: Convert one pixel and score it against the windows
//   - image_sample_hsl_multi: Same for several labeled points
//
// Every window value is on a 0-100 scale. Hue wraps at 100. A window object
// left out of the arguments disables that axis; with all three disabled the
// image is passed through unchanged.
//
// # Cancellation
//
// The context given to Run reaches every render. When it ends, a render in
// progress stops before its next row and the call fails with "render aborted".
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
package server
