package imaging

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"testing"

	"github.com/ironsheep/hsl-matte-mcp/internal/selection"
)

// createInMemoryImage creates an in-memory test image
func createInMemoryImage(width, height int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// createPatternImage creates an image with different colors in each quadrant
func createPatternImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var c color.Color
			if x < width/2 && y < height/2 {
				c = color.NRGBA{255, 0, 0, 255} // Red top-left
			} else if x >= width/2 && y < height/2 {
				c = color.NRGBA{0, 255, 0, 255} // Green top-right
			} else if x < width/2 && y >= height/2 {
				c = color.NRGBA{0, 0, 255, 255} // Blue bottom-left
			} else {
				c = color.NRGBA{255, 255, 255, 255} // White bottom-right
			}
			img.Set(x, y, c)
		}
	}
	return img
}

// createNoiseImage fills an image with a deterministic pseudo-random pattern.
func createNoiseImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	seed := uint32(2463534242)
	for i := range img.Pix {
		seed ^= seed << 13
		seed ^= seed >> 17
		seed ^= seed << 5
		img.Pix[i] = uint8(seed)
	}
	return img
}

// createTestImage writes a solid PNG and returns its path.
// The file is removed when the test ends.
func createTestImage(t *testing.T, width, height int, c color.Color) string {
	t.Helper()
	return writePNG(t, createInMemoryImage(width, height, c))
}

func writePNG(t *testing.T, img image.Image) string {
	t.Helper()
	tmpFile, err := os.CreateTemp(t.TempDir(), "test-image-*.png")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer tmpFile.Close()

	if err := png.Encode(tmpFile, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return tmpFile.Name()
}

// redSelection selects hues within 5 of pure red, hard edged.
func redSelection() selection.Selection {
	return selection.Selection{
		Hue: selection.HueWindow{Enabled: true, Center: 0, Width: 10},
	}
}

// fillPlane sets every sample of p to v.
func fillPlane[T Sample](p *Plane[T], v T) {
	for i := range p.Pix {
		p.Pix[i] = v
	}
}
