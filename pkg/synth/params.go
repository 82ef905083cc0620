package synth

import(
	"math"
	"math/rand"
)

// translationThreshold is the max_translation below which frames get
// the anchor's centering shift instead of a random translation.
const translationThreshold = 0.01

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + (hi-lo)*rng.Float64()
}

// SampleParams draws the random distortion for one non-anchor frame.
// Draws happen in a fixed order (tx, ty, theta, shx, shy, ar, scale),
// so a seeded rng always yields the same sequence.
func SampleParams(rng *rand.Rand, b TransformBounds, downsampleFactor int) TransformParams {
	p := TransformParams{}

	if b.MaxTranslation <= translationThreshold {
		p.Translation = AnchorParams(downsampleFactor).Translation
	} else {
		p.Translation[0] = uniform(rng, -b.MaxTranslation, b.MaxTranslation)
		p.Translation[1] = uniform(rng, -b.MaxTranslation, b.MaxTranslation)
	}

	p.Theta = uniform(rng, -b.MaxRotation, b.MaxRotation)

	p.Shear[0] = uniform(rng, -b.MaxShear, b.MaxShear)
	p.Shear[1] = uniform(rng, -b.MaxShear, b.MaxShear)

	ar := math.Exp(uniform(rng, -b.MaxArFactor, b.MaxArFactor))
	s  := math.Exp(uniform(rng, -b.MaxScale, b.MaxScale))
	p.Scale = [2]float64{s, s * ar}

	return p
}

// SampleBurstParams pre-draws the parameters for a whole burst, frame
// 0 being the anchor. Drawing everything up front keeps the results
// independent of how the frames are later scheduled.
func SampleBurstParams(rng *rand.Rand, cfg Config) []TransformParams {
	params := make([]TransformParams, cfg.BurstSize)
	params[0] = AnchorParams(cfg.DownsampleFactor)
	for i:=1; i<cfg.BurstSize; i++ {
		params[i] = SampleParams(rng, cfg.Transform, cfg.DownsampleFactor)
	}
	return params
}
