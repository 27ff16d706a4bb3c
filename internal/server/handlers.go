package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/ironsheep/hsl-matte-mcp/internal/imaging"
	"github.com/ironsheep/hsl-matte-mcp/internal/selection"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "image_hsl_matte").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	start := time.Now()
	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.log.Warn().Err(err).Str("tool", params.Name).Dur("elapsed", time.Since(start)).Msg("tool failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}
	s.log.Debug().Str("tool", params.Name).Dur("elapsed", time.Since(start)).Msg("tool done")

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Basic Image Information
	case "image_load":
		return s.handleImageLoad(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)
	case "image_cache_evict":
		return s.handleImageCacheEvict(args)

	// Matte Operations
	case "image_hsl_matte":
		return s.handleImageHSLMatte(ctx, args)
	case "image_sample_hsl":
		return s.handleImageSampleHSL(args)
	case "image_sample_hsl_multi":
		return s.handleImageSampleHSLMulti(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Selection Arguments ===

type hueArgs struct {
	Enabled  *bool   `json:"enabled"`
	Center   float64 `json:"center"`
	Width    float64 `json:"width"`
	Softness float64 `json:"softness"`
	KeyColor string  `json:"key_color"`
}

type rangeArgs struct {
	Enabled      *bool    `json:"enabled"`
	Low          float64  `json:"low"`
	High         *float64 `json:"high"`
	SoftnessLow  float64  `json:"softness_low"`
	SoftnessHigh float64  `json:"softness_high"`
}

// selectionArgs is shared by every tool that scores pixels. An absent axis
// object leaves that axis disabled.
type selectionArgs struct {
	Hue        *hueArgs   `json:"hue"`
	Saturation *rangeArgs `json:"saturation"`
	Luminance  *rangeArgs `json:"luminance"`
}

func enabled(p *bool) bool {
	return p == nil || *p
}

func checkScale(name string, v float64) error {
	if v < 0 || v > 100 {
		return fmt.Errorf("%s must be within 0-100, got %v", name, v)
	}
	return nil
}

func (a *hueArgs) build() (selection.HueWindow, error) {
	if a == nil || !enabled(a.Enabled) {
		return selection.HueWindow{}, nil
	}
	w := selection.HueWindow{
		Enabled:  true,
		Center:   a.Center,
		Width:    a.Width,
		Softness: a.Softness,
	}
	if a.KeyColor != "" {
		h, err := selection.HueOfHex(a.KeyColor)
		if err != nil {
			return w, err
		}
		w.Center = h
	}
	for _, c := range []struct {
		name string
		v    float64
	}{
		{"hue.center", w.Center},
		{"hue.width", w.Width},
		{"hue.softness", w.Softness},
	} {
		if err := checkScale(c.name, c.v); err != nil {
			return w, err
		}
	}
	return w, nil
}

func (a *rangeArgs) build(axis string) (selection.RangeWindow, error) {
	if a == nil || !enabled(a.Enabled) {
		return selection.RangeWindow{}, nil
	}
	w := selection.RangeWindow{
		Enabled:      true,
		Low:          a.Low,
		High:         100,
		SoftnessLow:  a.SoftnessLow,
		SoftnessHigh: a.SoftnessHigh,
	}
	if a.High != nil {
		w.High = *a.High
	}
	for _, c := range []struct {
		name string
		v    float64
	}{
		{axis + ".low", w.Low},
		{axis + ".high", w.High},
		{axis + ".softness_low", w.SoftnessLow},
		{axis + ".softness_high", w.SoftnessHigh},
	} {
		if err := checkScale(c.name, c.v); err != nil {
			return w, err
		}
	}
	if w.Low > w.High {
		return w, fmt.Errorf("%s.low (%v) is greater than %s.high (%v)", axis, w.Low, axis, w.High)
	}
	return w, nil
}

func (a selectionArgs) build() (selection.Selection, error) {
	var (
		sel selection.Selection
		err error
	)
	if sel.Hue, err = a.Hue.build(); err != nil {
		return sel, err
	}
	if sel.Saturation, err = a.Saturation.build("saturation"); err != nil {
		return sel, err
	}
	if sel.Luminance, err = a.Luminance.build("luminance"); err != nil {
		return sel, err
	}
	return sel, nil
}

// === Basic Image Information Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.GetDimensions(s.cache, a.Path)
}

// CacheEvictResult reports what image_cache_evict dropped.
type CacheEvictResult struct {
	Evicted      string `json:"evicted"` // The path, or "all"
	CachedImages int    `json:"cached_images"`
}

type imageCacheEvictArgs struct {
	Path string `json:"path"`
}

// handleImageCacheEvict drops a cached decode so the next call rereads the
// file from disk. An empty path clears the whole cache.
func (s *Server) handleImageCacheEvict(args json.RawMessage) (interface{}, error) {
	var a imageCacheEvictArgs
	if len(args) > 0 {
		if err := json.Unmarshal(args, &a); err != nil {
			return nil, err
		}
	}

	res := &CacheEvictResult{Evicted: a.Path}
	if a.Path == "" {
		s.cache.Clear()
		res.Evicted = "all"
	} else {
		s.cache.Evict(a.Path)
	}
	res.CachedImages = s.cache.Len()
	s.log.Debug().Str("evicted", res.Evicted).Int("cached", res.CachedImages).Msg("image cache evict")
	return res, nil
}

// === Matte Handlers ===

type regionArgs struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

type imageHSLMatteArgs struct {
	selectionArgs
	Path      string      `json:"path"`
	Depth     string      `json:"depth"`
	Region    *regionArgs `json:"region"`
	AlphaOnly bool        `json:"alpha_only"`
	Crop      bool        `json:"crop"`
	Scale     float64     `json:"scale"`
}

func (s *Server) handleImageHSLMatte(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageHSLMatteArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	if a.Scale < 0 {
		return nil, fmt.Errorf("scale must be positive, got %v", a.Scale)
	}
	depth, err := imaging.ParseDepth(a.Depth)
	if err != nil {
		return nil, err
	}
	sel, err := a.selectionArgs.build()
	if err != nil {
		return nil, err
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	opts := imaging.MatteOptions{
		AlphaOnly: a.AlphaOnly,
		Crop:      a.Crop,
		Scale:     a.Scale,
	}
	if a.Region != nil {
		r := image.Rect(a.Region.X1, a.Region.Y1, a.Region.X2, a.Region.Y2)
		if r.Empty() || !r.In(img.Bounds()) {
			return nil, fmt.Errorf("region %v is empty or outside image bounds %v", r, img.Bounds())
		}
		opts.Region = r
	}

	res, err := imaging.RenderImage(ctx, img, depth, sel, opts)
	if err != nil {
		if errors.Is(err, imaging.ErrAborted) {
			s.log.Info().Str("path", a.Path).Msg("matte render canceled")
		}
		return nil, err
	}
	s.log.Debug().
		Str("path", a.Path).
		Str("depth", string(res.Depth)).
		Bool("identity", res.Identity).
		Int("rows", res.Stats.Rows).
		Int("pixels", res.Stats.Pixels).
		Float64("mean_weight", res.Coverage.MeanWeight).
		Msg("matte rendered")
	return res, nil
}

type imageSampleHSLArgs struct {
	selectionArgs
	Path string `json:"path"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

func (s *Server) handleImageSampleHSL(args json.RawMessage) (interface{}, error) {
	var a imageSampleHSLArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	sel, err := a.selectionArgs.build()
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.SampleHSL(img, a.X, a.Y, sel)
}

type imageSampleHSLMultiArgs struct {
	selectionArgs
	Path   string `json:"path"`
	Points []struct {
		X     int    `json:"x"`
		Y     int    `json:"y"`
		Label string `json:"label"`
	} `json:"points"`
}

func (s *Server) handleImageSampleHSLMulti(args json.RawMessage) (interface{}, error) {
	var a imageSampleHSLMultiArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if len(a.Points) == 0 {
		return nil, fmt.Errorf("points must not be empty")
	}
	sel, err := a.selectionArgs.build()
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	points := make([]imaging.LabeledPoint, len(a.Points))
	for i, p := range a.Points {
		points[i] = imaging.LabeledPoint{X: p.X, Y: p.Y, Label: p.Label}
	}
	samples, err := imaging.SampleHSLMulti(img, points, sel)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"samples": samples,
	}, nil
}
