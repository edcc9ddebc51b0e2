package capture

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

// grayFrame builds a w x h RGBA frame whose pixel brightness is fill(x, y).
func grayFrame(w, h int, fill func(x, y int) uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := fill(x, y)
			img.SetRGBA(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

func checkerboard(a, b uint8) func(x, y int) uint8 {
	return func(x, y int) uint8 {
		if (x+y)%2 == 0 {
			return a
		}
		return b
	}
}

func uniform(v uint8) func(x, y int) uint8 {
	return func(int, int) uint8 { return v }
}

func TestAnalyzePresence(t *testing.T) {
	tests := []struct {
		name    string
		frame   image.Image
		present bool
		check   func(t *testing.T, sig PresenceSignal)
	}{
		{
			name:    "uniform gray has no variation",
			frame:   grayFrame(200, 200, uniform(128)),
			present: false,
			check: func(t *testing.T, sig PresenceSignal) {
				assert.Equal(t, 0.0, sig.VariationRatio)
				assert.InDelta(t, 128.0, sig.AvgBrightness, 1e-9)
				assert.Equal(t, 0.0, sig.DarkRatio)
			},
		},
		{
			name:    "checkerboard 50/200 meets all three conditions",
			frame:   grayFrame(200, 200, checkerboard(50, 200)),
			present: true,
			check: func(t *testing.T, sig PresenceSignal) {
				assert.InDelta(t, 125.0, sig.AvgBrightness, 2)
				assert.InDelta(t, 0.5, sig.DarkRatio, 0.02)
				assert.Greater(t, sig.VariationRatio, 0.9)
			},
		},
		{
			name: "too bright on average",
			frame: grayFrame(200, 200, func(x, _ int) uint8 {
				if x%6 == 0 {
					return 99
				}
				return 255
			}),
			present: false,
			check: func(t *testing.T, sig PresenceSignal) {
				assert.GreaterOrEqual(t, sig.AvgBrightness, 220.0)
				assert.Greater(t, sig.VariationRatio, 0.10)
				assert.Greater(t, sig.DarkRatio, 0.10)
				assert.Less(t, sig.DarkRatio, 0.70)
			},
		},
		{
			name: "split halves vary only at the seam",
			frame: grayFrame(200, 200, func(x, _ int) uint8 {
				if x < 100 {
					return 50
				}
				return 200
			}),
			present: false,
			check: func(t *testing.T, sig PresenceSignal) {
				assert.LessOrEqual(t, sig.VariationRatio, 0.10)
				assert.Greater(t, sig.DarkRatio, 0.10)
				assert.Less(t, sig.DarkRatio, 0.70)
				assert.Greater(t, sig.AvgBrightness, 30.0)
			},
		},
		{
			name:    "no dark pixels",
			frame:   grayFrame(200, 200, checkerboard(120, 200)),
			present: false,
			check: func(t *testing.T, sig PresenceSignal) {
				assert.Equal(t, 0.0, sig.DarkRatio)
				assert.Greater(t, sig.VariationRatio, 0.10)
			},
		},
		{
			name:    "too many dark pixels",
			frame:   grayFrame(200, 200, checkerboard(0, 99)),
			present: false,
			check: func(t *testing.T, sig PresenceSignal) {
				assert.Equal(t, 1.0, sig.DarkRatio)
				assert.Greater(t, sig.AvgBrightness, 30.0)
				assert.Greater(t, sig.VariationRatio, 0.10)
			},
		},
		{
			name: "texture outside the center circle is ignored",
			frame: grayFrame(200, 200, func(x, y int) uint8 {
				if x > 60 && x < 140 && y > 60 && y < 140 {
					return 128
				}
				return checkerboard(50, 200)(x, y)
			}),
			present: false,
		},
		{
			name:    "gray image model",
			frame:   grayModelFrame(160, 120, checkerboard(50, 200)),
			present: true,
		},
		{
			name:    "degenerate frame has no sampled pixels",
			frame:   grayFrame(1, 1, uniform(128)),
			present: false,
			check: func(t *testing.T, sig PresenceSignal) {
				assert.Equal(t, 0, sig.Pixels)
			},
		},
		{
			name:    "empty frame",
			frame:   image.NewRGBA(image.Rectangle{}),
			present: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := AnalyzePresence(tt.frame)

			assert.Equal(t, tt.present, sig.Present)
			if tt.check != nil {
				tt.check(t, sig)
			}
		})
	}
}

func TestAnalyzePresence_Nil(t *testing.T) {
	assert.False(t, AnalyzePresence(nil).Present)
}

func TestAnalyzePresence_RegionSize(t *testing.T) {
	// radius = 0.15 * 100 = 15, so roughly pi * 15^2 pixels
	sig := AnalyzePresence(grayFrame(100, 300, uniform(128)))

	assert.InDelta(t, 707, sig.Pixels, 40)
}

func grayModelFrame(w, h int, fill func(x, y int) uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: fill(x, y)})
		}
	}
	return img
}
