package evaluate

import(
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abworrall/synthburst/pkg/emath"
	"github.com/abworrall/synthburst/pkg/flow"
)

var sqrt5 = math.Sqrt(5)

func constField(w, h int, u, v float64) emath.Field {
	f := emath.NewField(w, h, 2)
	for y:=0; y<h; y++ {
		for x:=0; x<w; x++ {
			f.Set(x, y, 0, u)
			f.Set(x, y, 1, v)
		}
	}
	return f
}

func groundTruth(frames int) []emath.Field {
	gt := []emath.Field{}
	for i:=0; i<frames; i++ {
		gt = append(gt, constField(8, 8, 2, -1))
	}
	return gt
}

func evaluator(t *testing.T, c Config) *Evaluator {
	e, err := NewEvaluator(c)
	require.NoError(t, err)
	return e
}

func TestPyramidExact(t *testing.T) {
	gt := groundTruth(2)
	coarse := flow.NewPerTile(constField(2, 2, 0.5, -0.25), 2, 2)
	fine := flow.NewPerTile(constField(4, 4, 1, -0.5), 2, 2)
	est := [][]flow.Field{{coarse, coarse}, {fine, fine}}

	scores, err := evaluator(t, NewConfig()).EvaluatePyramid(est, gt, []float64{2, 2})
	require.NoError(t, err)
	require.Equal(t, 2, len(scores))

	assert.Equal(t, -1, scores[0].Level)
	assert.Equal(t, 2.0, scores[0].Factor)
	assert.Equal(t, 32, scores[0].Samples)
	assert.Equal(t, -2, scores[1].Level)
	assert.Equal(t, 4.0, scores[1].Factor)
	assert.Equal(t, 8, scores[1].Samples)

	for _, s := range scores {
		assert.InDelta(t, 0.0, s.MeanError, 1e-12)
		assert.InDelta(t, sqrt5, s.MeanNorm, 1e-12)
		assert.Equal(t, 0.0, s.P99)
	}
}

func TestPyramidResiduals(t *testing.T) {
	gt := groundTruth(1)
	zero := flow.NewPerPixel(constField(8, 8, 0, 0))

	scores, err := evaluator(t, NewConfig()).EvaluatePyramid([][]flow.Field{{zero}}, gt, []float64{1})
	require.NoError(t, err)
	assert.InDelta(t, sqrt5, scores[0].MeanError, 1e-12)
	assert.InDelta(t, 0.0, scores[0].MeanNorm, 1e-12)
	assert.InDelta(t, sqrt5, scores[0].P50, 0.01)
	assert.InDelta(t, sqrt5, scores[0].P99, 0.01)
}

func TestPyramidErrors(t *testing.T) {
	e := evaluator(t, NewConfig())
	f := flow.NewPerPixel(constField(8, 8, 0, 0))

	_, err := e.EvaluatePyramid([][]flow.Field{{f}}, groundTruth(1), []float64{1, 2})
	assert.Error(t, err, "factor count")

	_, err = e.EvaluatePyramid([][]flow.Field{{f}}, groundTruth(2), []float64{1})
	assert.Error(t, err, "frame count")

	// a per-pixel estimate bigger than the ground truth can't be compared
	_, err = e.EvaluatePyramid([][]flow.Field{{f}}, groundTruth(1), []float64{2})
	assert.Error(t, err)

	_, err = NewEvaluator(Config{})
	assert.Error(t, err)
}

func TestIterations(t *testing.T) {
	gt := groundTruth(2)
	mk := func(u, v float64) []flow.Field {
		f := flow.NewPerPixel(constField(8, 8, u, v))
		return []flow.Field{f, f}
	}
	est := [][]flow.Field{mk(0, 0), mk(1, -0.5), mk(2, -1)}

	scores, steps, err := evaluator(t, NewConfig()).EvaluateIterations(est, gt, 1)
	require.NoError(t, err)
	require.Equal(t, 3, len(scores))
	assert.InDelta(t, sqrt5, scores[0].MeanError, 1e-12)
	assert.InDelta(t, sqrt5/2, scores[1].MeanError, 1e-12)
	assert.InDelta(t, 0.0, scores[2].MeanError, 1e-12)
	assert.InDelta(t, sqrt5, scores[2].MeanNorm, 1e-12)
	assert.Equal(t, 2, scores[2].Level)

	require.Equal(t, 2, len(steps))
	assert.InDelta(t, sqrt5, steps[0], 1e-12)
	assert.InDelta(t, sqrt5, steps[1], 1e-12)

	c := NewConfig()
	c.StepMultiplier = 1
	_, steps, err = evaluator(t, c).EvaluateIterations(est, gt, 1)
	require.NoError(t, err)
	assert.InDelta(t, sqrt5/2, steps[0], 1e-12)
}

func TestIterationsRejectBadScale(t *testing.T) {
	f := flow.NewPerPixel(constField(8, 8, 0, 0))
	est := [][]flow.Field{{f}}
	for _, scale := range []float64{0, -2} {
		_, _, err := evaluator(t, NewConfig()).EvaluateIterations(est, groundTruth(1), scale)
		assert.Error(t, err, "scale %g", scale)
	}
}

func TestParallelMatchesSerial(t *testing.T) {
	gt := []emath.Field{}
	fields := []flow.Field{}
	for i:=0; i<5; i++ {
		gt = append(gt, constField(8, 8, float64(i), 1))
		fields = append(fields, flow.NewPerPixel(constField(8, 8, 0.5, 0.5)))
	}

	c := NewConfig()
	serial, err := evaluator(t, c).EvaluatePyramid([][]flow.Field{fields}, gt, []float64{1})
	require.NoError(t, err)

	c.Parallelism = 4
	parallel, err := evaluator(t, c).EvaluatePyramid([][]flow.Field{fields}, gt, []float64{1})
	require.NoError(t, err)

	assert.Equal(t, serial, parallel)
}

func TestReportYaml(t *testing.T) {
	r := Report{Pyramid: []Score{{Level: -1, Factor: 2, MeanError: 0.5}}, Steps: []float64{0.1}}
	y := r.AsYaml()
	assert.Contains(t, y, "level: -1")
	assert.Contains(t, y, "mean_error: 0.5")
	assert.NotContains(t, y, "dense")
}
