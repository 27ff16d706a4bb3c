package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the image file",
	}
}

func numberProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "number",
		"minimum":     0,
		"maximum":     100,
		"description": description,
	}
}

func enabledProperty(axis string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "boolean",
		"description": "Select by " + axis + ". Defaults to true when the object is present.",
		"default":     true,
	}
}

// selectionProperties describes the three axis windows. All values are on a
// 0-100 scale; hue is a fraction of a full turn, not degrees.
func selectionProperties() map[string]interface{} {
	rangeWindow := func(axis string) map[string]interface{} {
		return map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"enabled":       enabledProperty(axis),
				"low":           numberProperty("Lower bound of the fully selected range (0-100)"),
				"high":          numberProperty("Upper bound of the fully selected range (0-100, default 100)"),
				"softness_low":  numberProperty("Width of the falloff below low (0 = hard edge)"),
				"softness_high": numberProperty("Width of the falloff above high (0 = hard edge)"),
			},
			"description": "Optional " + axis + " window. Omit to ignore " + axis + ".",
		}
	}

	return map[string]interface{}{
		"hue": map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"enabled":  enabledProperty("hue"),
				"center":   numberProperty("Hue at the window center (0-100; 0=red, 33.3=green, 66.7=blue)"),
				"width":    numberProperty("Width of the fully selected hue band"),
				"softness": numberProperty("Width of the falloff on each side of the band"),
				"key_color": map[string]interface{}{
					"type":        "string",
					"description": "Optional hex color (e.g. \"#3fa34d\"); its hue replaces center",
				},
			},
			"description": "Optional hue window. Wraps around at 0/100. Omit to ignore hue.",
		},
		"saturation": rangeWindow("saturation"),
		"luminance":  rangeWindow("luminance"),
	}
}

func regionProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"x1": map[string]interface{}{"type": "integer", "description": "Left edge (inclusive)"},
			"y1": map[string]interface{}{"type": "integer", "description": "Top edge (inclusive)"},
			"x2": map[string]interface{}{"type": "integer", "description": "Right edge (exclusive)"},
			"y2": map[string]interface{}{"type": "integer", "description": "Bottom edge (exclusive)"},
		},
		"required":    []string{"x1", "y1", "x2", "y2"},
		"description": description,
	}
}

func withProperties(base map[string]interface{}, extra map[string]interface{}) map[string]interface{} {
	for k, v := range extra {
		base[k] = v
	}
	return base
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Basic Image Information
		{
			Name:        "image_load",
			Description: "Load an image file (PNG, JPEG, GIF, TIFF, BMP, WebP) and return its dimensions, format and bit depth.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of an image file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},

		{
			Name:        "image_cache_evict",
			Description: "Drop a cached image so the next call rereads it from disk (e.g. after a frame is re-rendered). Omit path to clear the whole cache.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path of the image to evict. If omitted, every cached image is dropped.",
					},
				},
				"required": []string{},
			},
		},

		// Matte Operations
		{
			Name: "image_hsl_matte",
			Description: "Build a soft selection matte from hue, saturation and luminance windows. " +
				"Returns the image as base64 PNG with RGB unchanged and the selection weight in alpha, " +
				"plus coverage statistics. With no window given the image is passed through.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withProperties(map[string]interface{}{
					"path": pathProperty(),
					"depth": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"8", "16", "float"},
						"description": "Sample depth used for the render (default 8)",
						"default":     "8",
					},
					"region": regionProperty("Optional render window. If omitted, renders the entire image."),
					"alpha_only": map[string]interface{}{
						"type":        "boolean",
						"description": "Return only the matte as a grayscale image",
						"default":     false,
					},
					"crop": map[string]interface{}{
						"type":        "boolean",
						"description": "Trim the returned image to the render window",
						"default":     false,
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor for the returned image. Default 1.0",
						"default":     1.0,
					},
				}, selectionProperties()),
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_sample_hsl",
			Description: "Get the 0-100 hue/saturation/luminance of a pixel and, if windows are given, its selection weight per axis.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withProperties(map[string]interface{}{
					"path": pathProperty(),
					"x": map[string]interface{}{
						"type":        "integer",
						"description": "X coordinate (0-based, from left)",
					},
					"y": map[string]interface{}{
						"type":        "integer",
						"description": "Y coordinate (0-based, from top)",
					},
				}, selectionProperties()),
				"required": []string{"path", "x", "y"},
			},
		},
		{
			Name:        "image_sample_hsl_multi",
			Description: "Sample hue/saturation/luminance and selection weight at multiple pixel coordinates in a single call.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withProperties(map[string]interface{}{
					"path": pathProperty(),
					"points": map[string]interface{}{
						"type": "array",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"x":     map[string]interface{}{"type": "integer"},
								"y":     map[string]interface{}{"type": "integer"},
								"label": map[string]interface{}{"type": "string", "description": "Optional label for this point"},
							},
							"required": []string{"x", "y"},
						},
						"description": "Array of points to sample",
					},
				}, selectionProperties()),
				"required": []string{"path", "points"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
