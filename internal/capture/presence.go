package capture

import (
	"image"
	"math"
)

// Presence thresholds. This is a pixel-statistics heuristic for "something
// textured, neither blown out nor black, fills the center of the frame". It
// is not face detection.
const (
	regionRadiusRatio = 0.15
	darkBrightness    = 100
	variationDelta    = 15
	minAvgBrightness  = 30
	maxAvgBrightness  = 220
	minVariationRatio = 0.10
	minDarkRatio      = 0.10
	maxDarkRatio      = 0.70
)

// PresenceSignal is the per-frame heuristic result with its diagnostics.
type PresenceSignal struct {
	Present        bool    `json:"present"`
	AvgBrightness  float64 `json:"avg_brightness"`
	VariationRatio float64 `json:"variation_ratio"`
	DarkRatio      float64 `json:"dark_ratio"`
	Pixels         int     `json:"pixels"`
}

// AnalyzePresence samples the circle centered on the frame with radius
// 0.15 * min(width, height).
func AnalyzePresence(img image.Image) PresenceSignal {
	if img == nil {
		return PresenceSignal{}
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return PresenceSignal{}
	}

	cx := float64(b.Min.X) + float64(w)/2
	cy := float64(b.Min.Y) + float64(h)/2
	radius := regionRadiusRatio * math.Min(float64(w), float64(h))

	minX := max(b.Min.X, int(math.Ceil(cx-radius)))
	maxX := min(b.Max.X-1, int(math.Floor(cx+radius)))
	minY := max(b.Min.Y, int(math.Ceil(cy-radius)))
	maxY := min(b.Max.Y-1, int(math.Floor(cy+radius)))

	var (
		total, dark, variation int
		sum                    float64
	)

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			dx, dy := float64(x)-cx, float64(y)-cy
			if math.Sqrt(dx*dx+dy*dy) > radius {
				continue
			}

			v := brightness(img, x, y)
			sum += v
			total++

			if v < darkBrightness {
				dark++
			}
			// leftmost column of the region has no left neighbor
			if x > minX && math.Abs(v-brightness(img, x-1, y)) > variationDelta {
				variation++
			}
		}
	}

	if total == 0 {
		return PresenceSignal{}
	}

	sig := PresenceSignal{
		AvgBrightness:  sum / float64(total),
		VariationRatio: float64(variation) / float64(total),
		DarkRatio:      float64(dark) / float64(total),
		Pixels:         total,
	}
	sig.Present = sig.AvgBrightness > minAvgBrightness && sig.AvgBrightness < maxAvgBrightness &&
		sig.VariationRatio > minVariationRatio &&
		sig.DarkRatio > minDarkRatio && sig.DarkRatio < maxDarkRatio
	return sig
}

// brightness is (R+G+B)/3 on 8-bit channels.
func brightness(img image.Image, x, y int) float64 {
	if rgba, ok := img.(*image.RGBA); ok {
		i := rgba.PixOffset(x, y)
		p := rgba.Pix[i : i+3 : i+3]
		return (float64(p[0]) + float64(p[1]) + float64(p[2])) / 3
	}
	r, g, b, _ := img.At(x, y).RGBA()
	return (float64(r>>8) + float64(g>>8) + float64(b>>8)) / 3
}
