package flowviz

import(
	"image"
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/abworrall/synthburst/pkg/emath"
	"github.com/abworrall/synthburst/pkg/flow"
)

// FlowToImage colours each flow vector on the usual colour wheel: the
// hue is its direction, the saturation its length relative to maxRad.
// A zero vector is white. If maxRad is not positive, the longest vector
// in the field is used.
func FlowToImage(f flow.Field, maxRad float64) image.Image {
	if maxRad <= 0 {
		for j:=0; j<f.H; j++ {
			for i:=0; i<f.W; i++ {
				maxRad = math.Max(maxRad, math.Hypot(f.At(i, j, 0), f.At(i, j, 1)))
			}
		}
	}
	if maxRad <= 0 {
		maxRad = 1
	}

	img := image.NewRGBA(image.Rect(0, 0, f.W, f.H))
	for j:=0; j<f.H; j++ {
		for i:=0; i<f.W; i++ {
			img.Set(i, j, flowColor(f.At(i, j, 0), f.At(i, j, 1), maxRad))
		}
	}
	return img
}

func flowColor(u, v, maxRad float64) colorful.Color {
	hue := math.Atan2(v, u) * 180 / math.Pi
	if hue < 0 {
		hue += 360
	}
	sat := emath.Clamp(math.Hypot(u, v) / maxRad, 0, 1)
	return colorful.Hsv(hue, sat, 1).Clamped()
}
