package estimators

import(
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abworrall/synthburst/pkg/emath"
	"github.com/abworrall/synthburst/pkg/flow"
)

func smooth(x, y float64) float64 {
	return math.Sin(x/3.0) + math.Cos(y/4.0) + math.Sin((x+y)/5.0)
}

// smoothPair gives a reference and a frame where frame(p+shift) = ref(p)
func smoothPair(w, h int, sx, sy float64) (emath.FloatGrid, emath.FloatGrid) {
	ref, frame := emath.NewFloatGrid(w, h), emath.NewFloatGrid(w, h)
	for y:=0; y<h; y++ {
		for x:=0; x<w; x++ {
			ref.Set(x, y, smooth(float64(x), float64(y)))
			frame.Set(x, y, smooth(float64(x)-sx, float64(y)-sy))
		}
	}
	return ref, frame
}

func noisePair(w, h, sx, sy int) (emath.FloatGrid, emath.FloatGrid) {
	rng := rand.New(rand.NewSource(5))
	ref := emath.NewFloatGrid(w, h)
	for y:=0; y<h; y++ {
		for x:=0; x<w; x++ {
			ref.Set(x, y, rng.Float64())
		}
	}
	frame := ref.NewFromThis()
	for y:=0; y<h; y++ {
		for x:=0; x<w; x++ {
			frame.Set(x, y, ref.GetClamped(x-sx, y-sy))
		}
	}
	return ref, frame
}

func TestConfigValidation(t *testing.T) {
	assert.NoError(t, NewBlockMatcherConfig().Validate())
	assert.NoError(t, NewLucasKanadeConfig().Validate())
	assert.NoError(t, NewHornSchunckConfig().Validate())

	_, err := NewBlockMatcher(BlockMatcherConfig{TileSize: 8})
	assert.Error(t, err)
	_, err = NewBlockMatcher(BlockMatcherConfig{TileSize: 8, Factors: []int{1, 0}})
	assert.Error(t, err)
	_, err = NewLucasKanade(LucasKanadeConfig{})
	assert.Error(t, err)
	_, err = NewHornSchunck(HornSchunckConfig{Iterations: 10})
	assert.Error(t, err)
}

func TestBlockMatcherIntegerShift(t *testing.T) {
	ref, frame := noisePair(64, 64, 2, -1)

	bm, err := NewBlockMatcher(BlockMatcherConfig{TileSize: 8, Factors: []int{1, 2}, SearchRadius: 2})
	require.NoError(t, err)
	require.NoError(t, bm.SetReference(ref))

	levels, err := bm.Align(frame)
	require.NoError(t, err)
	require.Equal(t, 2, len(levels))

	// coarsest first
	assert.Equal(t, 4, levels[0].W)
	fine := levels[1]
	assert.Equal(t, flow.PerTile, fine.Kind)
	assert.Equal(t, 8, fine.W)
	assert.Equal(t, 8, fine.TileSize)

	for j:=1; j<fine.H-1; j++ {
		for i:=1; i<fine.W-1; i++ {
			assert.Equal(t, 2.0, fine.At(i, j, 0), "tile %d,%d", i, j)
			assert.Equal(t, -1.0, fine.At(i, j, 1), "tile %d,%d", i, j)
		}
	}
}

func TestBlockMatcherErrors(t *testing.T) {
	bm, err := NewBlockMatcher(NewBlockMatcherConfig())
	require.NoError(t, err)

	g := emath.NewFloatGrid(32, 32)
	_, err = bm.Align(g)
	assert.Error(t, err, "no reference")

	// 32/16 = 2 at the coarsest level, so one more halving is fine but 8x is not
	tiny := emath.NewFloatGrid(8, 8)
	assert.Error(t, bm.SetReference(tiny))

	require.NoError(t, bm.SetReference(emath.NewFloatGrid(64, 64)))
	_, err = bm.Align(emath.NewFloatGrid(48, 64))
	assert.Error(t, err)
}

func TestLucasKanadeSubpixel(t *testing.T) {
	ref, frame := smoothPair(48, 48, 0.6, -0.3)

	lk, err := NewLucasKanade(LucasKanadeConfig{Iterations: 10})
	require.NoError(t, err)
	require.NoError(t, lk.SetReference(ref))

	seed := flow.NewPerTile(emath.NewField(6, 6, 2), 8, 8)
	iters, err := lk.Refine(frame, seed)
	require.NoError(t, err)
	require.Equal(t, 11, len(iters))

	// the seed comes back untouched as the first element
	assert.Equal(t, 0.0, iters[0].Max())

	last := iters[len(iters)-1]
	for j:=1; j<last.H-1; j++ {
		for i:=1; i<last.W-1; i++ {
			assert.InDelta(t, 0.6, last.At(i, j, 0), 0.1, "tile %d,%d", i, j)
			assert.InDelta(t, -0.3, last.At(i, j, 1), 0.1, "tile %d,%d", i, j)
		}
	}
}

func TestLucasKanadeChecks(t *testing.T) {
	lk, err := NewLucasKanade(NewLucasKanadeConfig())
	require.NoError(t, err)

	g := emath.NewFloatGrid(16, 16)
	seed := flow.NewPerTile(emath.NewField(2, 2, 2), 8, 8)
	_, err = lk.Refine(g, seed)
	assert.Error(t, err, "no reference")

	require.NoError(t, lk.SetReference(g))
	_, err = lk.Refine(g, flow.NewPerPixel(emath.NewField(16, 16, 2)))
	assert.Error(t, err, "per-pixel seed")

	// a flat image has nothing to lock on to, seeds pass through
	seed.Set(1, 1, 0, 3.0)
	iters, err := lk.Refine(g, seed)
	require.NoError(t, err)
	assert.Equal(t, 3.0, iters[len(iters)-1].At(1, 1, 0))
}

func TestHornSchunckStill(t *testing.T) {
	ref, _ := smoothPair(24, 24, 0, 0)
	hs, err := NewHornSchunck(NewHornSchunckConfig())
	require.NoError(t, err)
	require.NoError(t, hs.SetReference(ref))

	f, err := hs.Estimate(ref)
	require.NoError(t, err)
	assert.Equal(t, flow.PerPixel, f.Kind)
	for _, v := range f.Pix {
		assert.Equal(t, 0.0, v)
	}
}

func TestHornSchunckShift(t *testing.T) {
	ref, frame := smoothPair(32, 32, 0.4, 0)
	hs, err := NewHornSchunck(HornSchunckConfig{Alpha: 0.1, Iterations: 500})
	require.NoError(t, err)
	require.NoError(t, hs.SetReference(ref))

	f, err := hs.Estimate(frame)
	require.NoError(t, err)

	su, sv, n := 0.0, 0.0, 0.0
	for y:=4; y<28; y++ {
		for x:=4; x<28; x++ {
			su += f.At(x, y, 0)
			sv += f.At(x, y, 1)
			n++
		}
	}
	assert.InDelta(t, 0.4, su/n, 0.15)
	assert.InDelta(t, 0.0, sv/n, 0.15)

	_, err = hs.Estimate(emath.NewFloatGrid(8, 8))
	assert.Error(t, err)
}
