package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// createTestImageFile writes a solid-color PNG and returns its path
func createTestImageFile(t *testing.T, width, height int, c color.Color) string {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return writeTestPNG(t, img)
}

// createSplitImageFile writes a PNG whose left half is left and right half is right
func createSplitImageFile(t *testing.T, width, height int, left, right color.Color) string {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if x < width/2 {
				img.Set(x, y, left)
			} else {
				img.Set(x, y, right)
			}
		}
	}
	return writeTestPNG(t, img)
}

func writeTestPNG(t *testing.T, img image.Image) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "handler-test.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

// callTool issues a tools/call request and returns the raw response
func callTool(t *testing.T, ctx context.Context, s *Server, name string, args map[string]interface{}) *MCPResponse {
	t.Helper()

	params := map[string]interface{}{
		"name":      name,
		"arguments": args,
	}
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		t.Fatalf("failed to marshal params: %v", err)
	}

	resp := s.handleRequest(ctx, &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  paramsJSON,
	})
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	return resp
}

// decodeToolResult unpacks the JSON text content of a successful tool call into v
func decodeToolResult(t *testing.T, resp *MCPResponse, v interface{}) {
	t.Helper()

	if resp.Error != nil {
		t.Fatalf("Unexpected error: %+v", resp.Error)
	}
	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	content, ok := result["content"].([]map[string]interface{})
	if !ok || len(content) != 1 {
		t.Fatalf("content should hold one entry, got %#v", result["content"])
	}
	if content[0]["type"] != "text" {
		t.Errorf("content type: got %v, want text", content[0]["type"])
	}
	text, _ := content[0]["text"].(string)
	if err := json.Unmarshal([]byte(text), v); err != nil {
		t.Fatalf("failed to decode tool result %q: %v", text, err)
	}
}

func expectToolError(t *testing.T, resp *MCPResponse, substr string) {
	t.Helper()

	if resp.Error == nil {
		t.Fatalf("expected tool error containing %q, got result %v", substr, resp.Result)
	}
	if resp.Error.Code != -32000 {
		t.Errorf("Error code: got %d, want -32000", resp.Error.Code)
	}
	data, _ := resp.Error.Data.(string)
	if !strings.Contains(data, substr) {
		t.Errorf("error data %q does not contain %q", data, substr)
	}
}

var (
	red   = color.NRGBA{255, 0, 0, 255}
	green = color.NRGBA{0, 255, 0, 255}
	blue  = color.NRGBA{0, 0, 255, 255}
)

type matteResponse struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
	Depth       string `json:"depth"`
	Identity    bool   `json:"identity"`
	Stats       struct {
		Rows    int  `json:"rows"`
		Pixels  int  `json:"pixels"`
		Missing int  `json:"missing_pixels"`
		Aborted bool `json:"aborted"`
	} `json:"stats"`
	Coverage struct {
		MeanWeight       float64 `json:"mean_weight"`
		SelectedFraction float64 `json:"selected_fraction"`
		FullFraction     float64 `json:"full_fraction"`
	} `json:"coverage"`
}

func (m matteResponse) decode(t *testing.T) image.Image {
	t.Helper()

	data, err := base64.StdEncoding.DecodeString(m.ImageBase64)
	if err != nil {
		t.Fatalf("invalid base64: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("invalid PNG: %v", err)
	}
	return img
}

func redHue() map[string]interface{} {
	return map[string]interface{}{"center": 0, "width": 10}
}

func TestHandleToolsCall_ImageLoad(t *testing.T) {
	s := New()
	imgPath := createTestImageFile(t, 100, 80, red)

	var info struct {
		Width          int    `json:"width"`
		Height         int    `json:"height"`
		Format         string `json:"format"`
		SuggestedDepth string `json:"suggested_depth"`
	}
	decodeToolResult(t, callTool(t, context.Background(), s, "image_load", map[string]interface{}{
		"path": imgPath,
	}), &info)

	if info.Width != 100 || info.Height != 80 {
		t.Errorf("dimensions: got %dx%d, want 100x80", info.Width, info.Height)
	}
	if info.Format != "png" {
		t.Errorf("format: got %q, want png", info.Format)
	}
	if info.SuggestedDepth != "8" {
		t.Errorf("suggested_depth: got %q, want 8", info.SuggestedDepth)
	}
}

func TestHandleToolsCall_ImageDimensions(t *testing.T) {
	s := New()
	imgPath := createTestImageFile(t, 200, 150, green)

	var dims struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	}
	decodeToolResult(t, callTool(t, context.Background(), s, "image_dimensions", map[string]interface{}{
		"path": imgPath,
	}), &dims)

	if dims.Width != 200 || dims.Height != 150 {
		t.Errorf("dimensions: got %dx%d, want 200x150", dims.Width, dims.Height)
	}
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := New()
	resp := s.handleRequest(context.Background(), &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  json.RawMessage(`"not an object"`),
	})

	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Fatalf("expected -32602 invalid params, got %+v", resp.Error)
	}
}

func TestHandleToolsCall_UnknownTool(t *testing.T) {
	s := New()
	resp := callTool(t, context.Background(), s, "image_crop", map[string]interface{}{})
	expectToolError(t, resp, "unknown tool: image_crop")
}

func TestHandleToolsCall_FileNotFound(t *testing.T) {
	s := New()
	resp := callTool(t, context.Background(), s, "image_hsl_matte", map[string]interface{}{
		"path": filepath.Join(t.TempDir(), "missing.png"),
		"hue":  redHue(),
	})
	expectToolError(t, resp, "missing.png")
}

func TestHandleImageHSLMatte_HueWindow(t *testing.T) {
	s := New()
	imgPath := createSplitImageFile(t, 8, 4, red, blue)

	for _, depth := range []string{"8", "16", "float"} {
		t.Run(depth, func(t *testing.T) {
			var m matteResponse
			decodeToolResult(t, callTool(t, context.Background(), s, "image_hsl_matte", map[string]interface{}{
				"path":  imgPath,
				"depth": depth,
				"hue":   redHue(),
			}), &m)

			if m.Width != 8 || m.Height != 4 {
				t.Errorf("dimensions: got %dx%d, want 8x4", m.Width, m.Height)
			}
			if m.Depth != depth {
				t.Errorf("depth: got %q, want %q", m.Depth, depth)
			}
			if m.Identity {
				t.Error("hue window should not be an identity")
			}
			if m.MimeType != "image/png" {
				t.Errorf("mime_type: got %q", m.MimeType)
			}
			if m.Stats.Rows != 4 || m.Stats.Pixels != 32 || m.Stats.Missing != 0 || m.Stats.Aborted {
				t.Errorf("stats: got %+v", m.Stats)
			}
			want := struct{ Mean, Selected, Full float64 }{0.5, 0.5, 0.5}
			got := struct{ Mean, Selected, Full float64 }{
				m.Coverage.MeanWeight, m.Coverage.SelectedFraction, m.Coverage.FullFraction,
			}
			if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
				t.Errorf("coverage mismatch (-want +got):\n%s", diff)
			}

			img := m.decode(t)
			_, _, _, a := img.At(0, 0).RGBA()
			if a != 0xffff {
				t.Errorf("red pixel alpha: got %#x, want 0xffff", a)
			}
			_, _, b, a := img.At(7, 0).RGBA()
			if a != 0 {
				t.Errorf("blue pixel alpha: got %#x, want 0", a)
			}
			if nrgba, ok := img.(*image.NRGBA); ok && nrgba.NRGBAAt(7, 0).B != 255 {
				t.Errorf("blue pixel RGB should be kept under zero alpha, got %v (b=%d)", nrgba.NRGBAAt(7, 0), b)
			}
		})
	}
}

func TestHandleImageHSLMatte_KeyColor(t *testing.T) {
	s := New()
	imgPath := createSplitImageFile(t, 4, 2, red, green)

	var m matteResponse
	decodeToolResult(t, callTool(t, context.Background(), s, "image_hsl_matte", map[string]interface{}{
		"path": imgPath,
		"hue": map[string]interface{}{
			"key_color": "#00ff00",
			"width":     10,
		},
	}), &m)

	img := m.decode(t)
	if _, _, _, a := img.At(0, 0).RGBA(); a != 0 {
		t.Errorf("red pixel alpha: got %#x, want 0", a)
	}
	if _, _, _, a := img.At(3, 0).RGBA(); a != 0xffff {
		t.Errorf("green pixel alpha: got %#x, want 0xffff", a)
	}
}

func TestHandleImageHSLMatte_Identity(t *testing.T) {
	s := New()
	imgPath := createSplitImageFile(t, 4, 2, red, blue)

	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{"no windows", map[string]interface{}{}},
		{"all disabled", map[string]interface{}{
			"hue":        map[string]interface{}{"enabled": false, "width": 10},
			"saturation": map[string]interface{}{"enabled": false},
			"luminance":  map[string]interface{}{"enabled": false},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.args["path"] = imgPath
			var m matteResponse
			decodeToolResult(t, callTool(t, context.Background(), s, "image_hsl_matte", tt.args), &m)

			if !m.Identity {
				t.Error("expected identity render")
			}
			if m.Coverage.FullFraction != 1 {
				t.Errorf("opaque source should pass through fully opaque, got %+v", m.Coverage)
			}
		})
	}
}

func TestHandleImageHSLMatte_SaturationWindow(t *testing.T) {
	s := New()
	// Saturated red against mid gray.
	imgPath := createSplitImageFile(t, 4, 2, red, color.NRGBA{128, 128, 128, 255})

	var m matteResponse
	decodeToolResult(t, callTool(t, context.Background(), s, "image_hsl_matte", map[string]interface{}{
		"path":       imgPath,
		"saturation": map[string]interface{}{"low": 50},
	}), &m)

	if m.Coverage.FullFraction != 0.5 || m.Coverage.SelectedFraction != 0.5 {
		t.Errorf("coverage: got %+v, want half selected", m.Coverage)
	}
}

func TestHandleImageHSLMatte_RegionCropScale(t *testing.T) {
	s := New()
	imgPath := createSplitImageFile(t, 8, 4, red, blue)

	var m matteResponse
	decodeToolResult(t, callTool(t, context.Background(), s, "image_hsl_matte", map[string]interface{}{
		"path":       imgPath,
		"hue":        redHue(),
		"region":     map[string]interface{}{"x1": 0, "y1": 0, "x2": 4, "y2": 4},
		"crop":       true,
		"alpha_only": true,
		"scale":      0.5,
	}), &m)

	if m.Width != 2 || m.Height != 2 {
		t.Errorf("dimensions: got %dx%d, want 2x2", m.Width, m.Height)
	}
	if m.Stats.Rows != 4 || m.Stats.Pixels != 16 {
		t.Errorf("stats should cover the region only, got %+v", m.Stats)
	}
	if m.Coverage.MeanWeight != 1 {
		t.Errorf("red region coverage: got %v, want 1", m.Coverage.MeanWeight)
	}
}

func TestHandleImageHSLMatte_Validation(t *testing.T) {
	s := New()
	imgPath := createTestImageFile(t, 4, 4, red)

	tests := []struct {
		name    string
		args    map[string]interface{}
		wantErr string
	}{
		{
			"hue center above range",
			map[string]interface{}{"hue": map[string]interface{}{"center": 120}},
			"hue.center must be within 0-100",
		},
		{
			"negative softness",
			map[string]interface{}{"luminance": map[string]interface{}{"softness_low": -1}},
			"luminance.softness_low must be within 0-100",
		},
		{
			"low above high",
			map[string]interface{}{"saturation": map[string]interface{}{"low": 80, "high": 20}},
			"saturation.low (80) is greater than saturation.high (20)",
		},
		{
			"gray key color",
			map[string]interface{}{"hue": map[string]interface{}{"key_color": "#808080"}},
			"has no hue",
		},
		{
			"bad key color",
			map[string]interface{}{"hue": map[string]interface{}{"key_color": "green"}},
			"invalid key color",
		},
		{
			"bad depth",
			map[string]interface{}{"depth": "12"},
			"unknown sample depth",
		},
		{
			"region outside image",
			map[string]interface{}{"region": map[string]interface{}{"x1": 0, "y1": 0, "x2": 10, "y2": 2}},
			"outside image bounds",
		},
		{
			"negative scale",
			map[string]interface{}{"scale": -2},
			"scale must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.args["path"] = imgPath
			expectToolError(t, callTool(t, context.Background(), s, "image_hsl_matte", tt.args), tt.wantErr)
		})
	}
}

func TestHandleImageHSLMatte_Canceled(t *testing.T) {
	s := New()
	imgPath := createTestImageFile(t, 16, 16, red)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resp := callTool(t, ctx, s, "image_hsl_matte", map[string]interface{}{
		"path": imgPath,
		"hue":  redHue(),
	})
	expectToolError(t, resp, "render aborted")
}

func TestHandleImageSampleHSL(t *testing.T) {
	s := New()
	imgPath := createSplitImageFile(t, 4, 2, red, blue)

	type sample struct {
		Hex string `json:"hex"`
		HSL struct {
			H          float64 `json:"h"`
			S          float64 `json:"s"`
			L          float64 `json:"l"`
			HueDefined bool    `json:"hue_defined"`
		} `json:"hsl"`
		Multipliers struct {
			Hue        float64 `json:"hue"`
			Saturation float64 `json:"saturation"`
			Luminance  float64 `json:"luminance"`
		} `json:"multipliers"`
		Weight float64 `json:"weight"`
	}

	var got sample
	decodeToolResult(t, callTool(t, context.Background(), s, "image_sample_hsl", map[string]interface{}{
		"path": imgPath,
		"x":    3,
		"y":    1,
		"hue":  redHue(),
	}), &got)

	want := sample{Hex: "#0000ff"}
	want.HSL.H = 200.0 / 3
	want.HSL.S = 100
	want.HSL.L = 100
	want.HSL.HueDefined = true
	want.Multipliers.Hue = 0
	want.Multipliers.Saturation = 1
	want.Multipliers.Luminance = 1
	want.Weight = 0

	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("sample mismatch (-want +got):\n%s", diff)
	}
}

func TestHandleImageSampleHSL_OutOfBounds(t *testing.T) {
	s := New()
	imgPath := createTestImageFile(t, 4, 4, red)

	resp := callTool(t, context.Background(), s, "image_sample_hsl", map[string]interface{}{
		"path": imgPath,
		"x":    4,
		"y":    0,
	})
	expectToolError(t, resp, "outside image bounds")
}

func TestHandleImageSampleHSLMulti(t *testing.T) {
	s := New()
	imgPath := createSplitImageFile(t, 4, 2, red, blue)

	var got struct {
		Samples []struct {
			Label  string  `json:"label"`
			X      int     `json:"x"`
			Weight float64 `json:"weight"`
		} `json:"samples"`
	}
	decodeToolResult(t, callTool(t, context.Background(), s, "image_sample_hsl_multi", map[string]interface{}{
		"path": imgPath,
		"hue":  redHue(),
		"points": []map[string]interface{}{
			{"x": 0, "y": 0, "label": "left"},
			{"x": 3, "y": 1, "label": "right"},
		},
	}), &got)

	if len(got.Samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(got.Samples))
	}
	if got.Samples[0].Label != "left" || got.Samples[0].Weight != 1 {
		t.Errorf("left sample: got %+v, want weight 1", got.Samples[0])
	}
	if got.Samples[1].Label != "right" || got.Samples[1].Weight != 0 {
		t.Errorf("right sample: got %+v, want weight 0", got.Samples[1])
	}
}

func TestHandleImageSampleHSLMulti_NoPoints(t *testing.T) {
	s := New()
	imgPath := createTestImageFile(t, 4, 4, red)

	resp := callTool(t, context.Background(), s, "image_sample_hsl_multi", map[string]interface{}{
		"path":   imgPath,
		"points": []map[string]interface{}{},
	})
	expectToolError(t, resp, "points must not be empty")
}

func TestSelectionArgs_Build(t *testing.T) {
	high := 60.0
	off := false

	a := selectionArgs{
		Hue:        &hueArgs{Center: 50, Width: 20, Softness: 5},
		Saturation: &rangeArgs{Low: 10, SoftnessHigh: 3},
		Luminance:  &rangeArgs{Enabled: &off, Low: 10, High: &high},
	}
	sel, err := a.build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	if !sel.Hue.Enabled || sel.Hue.Center != 50 || sel.Hue.Width != 20 || sel.Hue.Softness != 5 {
		t.Errorf("hue window: got %+v", sel.Hue)
	}
	if !sel.Saturation.Enabled || sel.Saturation.Low != 10 || sel.Saturation.High != 100 || sel.Saturation.SoftnessHigh != 3 {
		t.Errorf("saturation window should default high to 100, got %+v", sel.Saturation)
	}
	if sel.Luminance.Enabled {
		t.Errorf("luminance should be disabled, got %+v", sel.Luminance)
	}

	empty, err := selectionArgs{}.build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if !empty.IsIdentity() {
		t.Errorf("no windows should build an identity selection, got %+v", empty)
	}
}

func TestHandleImageCacheEvict(t *testing.T) {
	s := New()
	imgPath := createTestImageFile(t, 2, 2, red)

	sampleHex := func() string {
		t.Helper()
		var got struct {
			Hex string `json:"hex"`
		}
		decodeToolResult(t, callTool(t, context.Background(), s, "image_sample_hsl", map[string]interface{}{
			"path": imgPath, "x": 0, "y": 0,
		}), &got)
		return got.Hex
	}

	if hex := sampleHex(); hex != "#ff0000" {
		t.Fatalf("first sample: got %s, want #ff0000", hex)
	}

	// Re-render the file on disk; the cached decode still answers.
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for i := 0; i < 4; i++ {
		img.Set(i%2, i/2, blue)
	}
	f, err := os.Create(imgPath)
	if err != nil {
		t.Fatalf("failed to rewrite image: %v", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		t.Fatalf("failed to encode image: %v", err)
	}
	f.Close()

	if hex := sampleHex(); hex != "#ff0000" {
		t.Errorf("cached sample: got %s, want #ff0000", hex)
	}

	var res CacheEvictResult
	decodeToolResult(t, callTool(t, context.Background(), s, "image_cache_evict", map[string]interface{}{
		"path": imgPath,
	}), &res)
	if res.Evicted != imgPath || res.CachedImages != 0 {
		t.Errorf("evict result: got %+v", res)
	}

	if hex := sampleHex(); hex != "#0000ff" {
		t.Errorf("sample after evict: got %s, want #0000ff", hex)
	}
}

func TestHandleImageCacheEvict_All(t *testing.T) {
	s := New()
	for _, c := range []color.Color{red, green} {
		decodeToolResult(t, callTool(t, context.Background(), s, "image_dimensions", map[string]interface{}{
			"path": createTestImageFile(t, 3, 3, c),
		}), &struct{}{})
	}
	if n := s.cache.Len(); n != 2 {
		t.Fatalf("cache size: got %d, want 2", n)
	}

	var res CacheEvictResult
	decodeToolResult(t, callTool(t, context.Background(), s, "image_cache_evict", map[string]interface{}{}), &res)
	if res.Evicted != "all" || res.CachedImages != 0 {
		t.Errorf("evict result: got %+v, want all/0", res)
	}
}
