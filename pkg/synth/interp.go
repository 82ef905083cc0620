package synth

import(
	"fmt"
	"math"

	"golang.org/x/image/draw"
)

var(
	// Lanczos4 is the 8-tap windowed sinc that OpenCV calls INTER_LANCZOS4.
	Lanczos4 = &draw.Kernel{Support: 4, At: func(t float64) float64 {
		if t < 1e-12 { return 1 }
		pt := math.Pi * t
		return 4 * math.Sin(pt) * math.Sin(pt/4) / (pt * pt)
	}}

	Interpolations = []string{"bilinear", "lanczos"}
)

// GetKernel maps an interpolation name onto the kernel used by every
// resampling step (affine warp and downsampling, pixels and grids).
func GetKernel(name string) (*draw.Kernel, error) {
	switch name {
	case "bilinear", "linear":    return draw.BiLinear, nil
	case "lanczos", "lanczos4":   return Lanczos4, nil
	default:
		return nil, fmt.Errorf("no interpolation named '%s', wanted one of %v", name, Interpolations)
	}
}

// taps fills in the integer sample positions and normalized weights
// needed to interpolate at x. The slices are reused between calls.
func taps(k *draw.Kernel, x float64, idx []int, w []float64) ([]int, []float64) {
	idx, w = idx[:0], w[:0]
	support := int(math.Ceil(k.Support))
	x0 := int(math.Floor(x))

	sum := 0.0
	for i := x0 - support + 1; i <= x0 + support; i++ {
		// The kernel is only defined on [0, Support)
		t := math.Abs(x - float64(i))
		if t >= k.Support { continue }
		wt := k.At(t)
		if wt == 0 { continue }
		idx = append(idx, i)
		w = append(w, wt)
		sum += wt
	}
	if sum != 0 && sum != 1 {
		for i := range w {
			w[i] /= sum
		}
	}
	return idx, w
}
