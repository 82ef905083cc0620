package synth

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abworrall/synthburst/pkg/emath"
)

// gradientImage is w x h with every channel equal to scale*x
func gradientImage(w, h int, scale float64) emath.Field {
	img := emath.NewField(w, h, 3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for c := 0; c < 3; c++ {
				img.Set(x, y, c, scale*float64(x))
			}
		}
	}
	return img
}

func randomImage(w, h int, rng *rand.Rand) emath.Field {
	img := emath.NewField(w, h, 3)
	for i := range img.Pix {
		img.Pix[i] = 255 * rng.Float64()
	}
	return img
}

func newTestSynthesizer(t *testing.T, n, factor int, bounds TransformBounds) *Synthesizer {
	cfg := NewConfig()
	cfg.BurstSize = n
	cfg.DownsampleFactor = factor
	cfg.Transform = bounds
	s, err := NewSynthesizer(cfg)
	require.NoError(t, err)
	return s
}

func TestConfigErrors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"unknown interpolation", func(c *Config) { c.Interpolation = "nearest" }},
		{"zero downsample", func(c *Config) { c.DownsampleFactor = 0 }},
		{"negative downsample", func(c *Config) { c.DownsampleFactor = -2 }},
		{"empty burst", func(c *Config) { c.BurstSize = 0 }},
		{"negative crop", func(c *Config) { n := -1; c.Transform.BorderCrop = &n }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.modify(&cfg)
			_, err := NewSynthesizer(cfg)
			assert.Error(t, err)
		})
	}
}

func TestConfigFromYaml(t *testing.T) {
	cfg, err := NewConfigFromYaml([]byte("burst_size: 3\ndownsample_factor: 1\ninterpolation: lanczos\ntransform:\n  max_translation: 2\n  border_crop: 1\n"))
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.BurstSize)
	assert.Equal(t, 1, cfg.DownsampleFactor)
	assert.Equal(t, 2.0, cfg.Transform.MaxTranslation)
	assert.Equal(t, 1, cfg.GetBorderCrop())
	assert.Equal(t, Lanczos4, cfg.Kernel)

	_, err = NewConfigFromYaml([]byte("interpolation: cubic\n"))
	assert.Error(t, err)
}

func TestAnchorFrameIsSource(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	src := randomImage(12, 10, rng)
	s := newTestSynthesizer(t, 3, 1, TransformBounds{MaxTranslation: 2, MaxRotation: 3})

	b, err := s.Synthesize(src, rng)
	require.NoError(t, err)
	require.Len(t, b.Frames, 3)

	assert.InDeltaSlice(t, src.Pix, b.Frames[0].Pix, 1e-9)
	for y := 0; y < 10; y++ {
		for x := 0; x < 12; x++ {
			assert.InDelta(t, float64(x), b.InverseGrids[0].At(x, y, 0), 1e-9)
			assert.InDelta(t, float64(y), b.InverseGrids[0].At(x, y, 1), 1e-9)
		}
	}
}

func TestAnchorGridIsOutputGridAfterDownsampling(t *testing.T) {
	src := gradientImage(16, 12, 10)
	s := newTestSynthesizer(t, 1, 2, TransformBounds{})

	b, err := s.Synthesize(src, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	grid := b.InverseGrids[0]
	require.Equal(t, 8, grid.W)
	require.Equal(t, 6, grid.H)
	for y := 0; y < grid.H; y++ {
		for x := 0; x < grid.W; x++ {
			assert.InDelta(t, float64(x), grid.At(x, y, 0), 1e-9)
			assert.InDelta(t, float64(y), grid.At(x, y, 1), 1e-9)
		}
	}
}

func TestTranslatedFrame(t *testing.T) {
	src := gradientImage(8, 8, 10)
	s := newTestSynthesizer(t, 2, 1, TransformBounds{MaxTranslation: 2})

	params := []TransformParams{
		AnchorParams(1),
		{Translation: [2]float64{1.3, -0.7}, Scale: [2]float64{1, 1}},
	}
	b, err := s.SynthesizeWithParams(src, params)
	require.NoError(t, err)

	// Frame 1 is frame 0 shifted by (1.3,-0.7), wherever the shift stays in bounds
	for y := 0; y <= 6; y++ {
		for x := 2; x < 8; x++ {
			assert.InDelta(t, 10*(float64(x)-1.3), b.Frames[1].At(x, y, 0), 1e-9, "(%d,%d)", x, y)
		}
	}

	flows, err := b.GroundTruthFlow()
	require.NoError(t, err)
	require.Len(t, flows, 1)
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			assert.InDelta(t, 1.3, flows[0].At(x, y, 0), 1e-9)
			assert.InDelta(t, -0.7, flows[0].At(x, y, 1), 1e-9)
		}
	}

	// Warping frame 1 by +flow lands back on the reference
	plane := b.Frames[1].Channel(0)
	ref := b.Frames[0].Channel(0)
	for y := 1; y <= 6; y++ {
		for x := 1; x <= 5; x++ {
			fx, fy := flows[0].At(x, y, 0), flows[0].At(x, y, 1)
			got := plane.Bilinear(float64(x)+fx, float64(y)+fy)
			assert.InDelta(t, ref.Get(x, y), got, 1e-9, "(%d,%d)", x, y)
		}
	}
}

func TestPureTranslationFlowIsConstant(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	src := randomImage(32, 24, rng)
	s := newTestSynthesizer(t, 4, 2, TransformBounds{MaxTranslation: 3})

	b, err := s.Synthesize(src, rng)
	require.NoError(t, err)

	flows, err := b.GroundTruthFlow()
	require.NoError(t, err)
	require.Len(t, flows, 3)

	shift := AnchorParams(2).Translation[0]
	for i, f := range flows {
		tr := b.Params[i+1].Translation
		for y := 0; y < f.H; y++ {
			for x := 0; x < f.W; x++ {
				assert.InDelta(t, (tr[0]-shift)/2, f.At(x, y, 0), 1e-9)
				assert.InDelta(t, (tr[1]-shift)/2, f.At(x, y, 1), 1e-9)
			}
		}
	}
}

func TestSynthesisIsDeterministicWhenParallel(t *testing.T) {
	src := randomImage(20, 16, rand.New(rand.NewSource(3)))
	bounds := TransformBounds{MaxTranslation: 2, MaxRotation: 4, MaxShear: 0.02, MaxArFactor: 0.02, MaxScale: 0.05}

	serial := newTestSynthesizer(t, 5, 2, bounds)
	parallel := newTestSynthesizer(t, 5, 2, bounds)
	parallel.Parallelism = 4

	b1, err := serial.Synthesize(src, rand.New(rand.NewSource(11)))
	require.NoError(t, err)
	b2, err := parallel.Synthesize(src, rand.New(rand.NewSource(11)))
	require.NoError(t, err)

	assert.Equal(t, b1.Params, b2.Params)
	for i := range b1.Frames {
		assert.Equal(t, b1.Frames[i].Pix, b2.Frames[i].Pix)
		assert.Equal(t, b1.InverseGrids[i].Pix, b2.InverseGrids[i].Pix)
	}
}

func TestBorderCropAndDownsampleShapes(t *testing.T) {
	crop := 2
	src := randomImage(20, 16, rand.New(rand.NewSource(5)))
	s := newTestSynthesizer(t, 2, 2, TransformBounds{MaxTranslation: 1, BorderCrop: &crop})

	b, err := s.Synthesize(src, rand.New(rand.NewSource(5)))
	require.NoError(t, err)

	for i := range b.Frames {
		assert.Equal(t, 8, b.Frames[i].W)
		assert.Equal(t, 6, b.Frames[i].H)
		assert.Equal(t, 3, b.Frames[i].C)
		assert.True(t, b.Frames[i].SameShape(b.Frames[0]))
		assert.Equal(t, 8, b.InverseGrids[i].W)
		assert.Equal(t, 6, b.InverseGrids[i].H)
		assert.Equal(t, 2, b.InverseGrids[i].C)
	}
}

func TestNormalizedRangeRoundTrips(t *testing.T) {
	src := gradientImage(10, 10, 0.1)
	s := newTestSynthesizer(t, 2, 1, TransformBounds{})

	b, err := s.Synthesize(src, rand.New(rand.NewSource(8)))
	require.NoError(t, err)
	assert.True(t, b.Normalized)
	assert.InDeltaSlice(t, src.Pix, b.Frames[0].Pix, 1e-9)
	assert.LessOrEqual(t, b.Frames[1].Max(), 1.0)

	b, err = s.Synthesize(gradientImage(10, 10, 20), rand.New(rand.NewSource(8)))
	require.NoError(t, err)
	assert.False(t, b.Normalized)
}

func TestSynthesizeRejectsBadInput(t *testing.T) {
	s := newTestSynthesizer(t, 2, 1, TransformBounds{})

	_, err := s.SynthesizeWithParams(emath.NewField(4, 4, 1), []TransformParams{AnchorParams(1)})
	assert.Error(t, err)

	_, err = s.SynthesizeWithParams(gradientImage(4, 4, 1), []TransformParams{AnchorParams(1), {}})
	assert.Error(t, err, "zero scale is not invertible")
}

func TestLanczosAnchorMatchesSource(t *testing.T) {
	cfg := NewConfig()
	cfg.BurstSize = 1
	cfg.DownsampleFactor = 1
	cfg.Interpolation = "lanczos"
	s, err := NewSynthesizer(cfg)
	require.NoError(t, err)

	src := randomImage(9, 7, rand.New(rand.NewSource(4)))
	b, err := s.Synthesize(src, rand.New(rand.NewSource(4)))
	require.NoError(t, err)
	assert.InDeltaSlice(t, src.Pix, b.Frames[0].Pix, 1e-6)
}
