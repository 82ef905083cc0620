package mosaic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abworrall/synthburst/pkg/emath"
)

// channelFrame has the constant value vals[c] in channel c
func channelFrame(w, h int, vals [3]float64) emath.Field {
	f := emath.NewField(w, h, 3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for c := 0; c < 3; c++ {
				f.Set(x, y, c, vals[c])
			}
		}
	}
	return f
}

func TestDecimatePhases(t *testing.T) {
	m, err := DefaultCFA.Decimate(channelFrame(4, 4, [3]float64{10, 20, 30}))
	require.NoError(t, err)

	assert.Equal(t, 30.0, m.Get(0, 0), "B")
	assert.Equal(t, 20.0, m.Get(1, 0), "G")
	assert.Equal(t, 20.0, m.Get(0, 1), "G")
	assert.Equal(t, 10.0, m.Get(1, 1), "R")
	assert.Equal(t, 30.0, m.Get(2, 2))
	assert.Equal(t, 10.0, m.Get(3, 3))
}

func TestDecimateOddSizes(t *testing.T) {
	tests := []struct {
		name         string
		w, h         int
		wantW, wantH int
	}{
		{"even", 6, 4, 6, 4},
		{"odd width", 7, 4, 6, 4},
		{"odd height", 6, 5, 6, 4},
		{"both odd", 7, 5, 6, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := DefaultCFA.Decimate(channelFrame(tt.w, tt.h, [3]float64{1, 2, 3}))
			require.NoError(t, err)
			assert.Equal(t, tt.wantW, m.Dx())
			assert.Equal(t, tt.wantH, m.Dy())
		})
	}
}

func TestDecimateBurst(t *testing.T) {
	frames := []emath.Field{channelFrame(4, 2, [3]float64{1, 2, 3}), channelFrame(4, 2, [3]float64{4, 5, 6})}
	ms, err := DefaultCFA.DecimateBurst(frames)
	require.NoError(t, err)
	require.Len(t, ms, 2)
	assert.Equal(t, 4.0, ms[1].Get(1, 1))

	_, err = CFA{{3, 1}, {1, 0}}.DecimateBurst(frames)
	assert.Error(t, err)

	_, err = DefaultCFA.DecimateBurst([]emath.Field{emath.NewField(2, 2, 1)})
	assert.Error(t, err)
}

func TestToGreyRemovesPattern(t *testing.T) {
	m, err := DefaultCFA.Decimate(channelFrame(16, 8, [3]float64{10, 20, 30}))
	require.NoError(t, err)
	want := (10.0 + 2*20.0 + 30.0) / 4

	for _, method := range GreyMethods {
		t.Run(method, func(t *testing.T) {
			g, factor, err := ToGrey(m, method)
			require.NoError(t, err)

			f, err := GreyScaleFactor(method)
			require.NoError(t, err)
			assert.Equal(t, f, factor)
			assert.Equal(t, 16/factor, g.Dx())
			assert.Equal(t, 8/factor, g.Dy())

			// the blur replicates edges, which leaks the pattern into the outer ring
			lo := 0
			if method == "gauss" {
				lo = 1
			}
			for y := lo; y < g.Dy()-lo; y++ {
				for x := lo; x < g.Dx()-lo; x++ {
					assert.InDelta(t, want, g.Get(x, y), 1e-9, "(%d,%d)", x, y)
				}
			}
		})
	}

	_, _, err = ToGrey(m, "median")
	assert.Error(t, err)
}
