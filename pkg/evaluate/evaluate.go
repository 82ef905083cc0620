// Package evaluate scores alignment estimates against ground truth
// flow, per pyramid level or per refinement iteration.
package evaluate

import(
	"fmt"
	"log"
	"math"

	"github.com/codahale/hdrhistogram"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v2"

	"github.com/abworrall/synthburst/pkg/emath"
	"github.com/abworrall/synthburst/pkg/flow"
)

const(
	// Residuals go into the histogram in thousandths of a pixel
	histUnitsPerPixel = 1000
	histMaxPixels     = 100000
)

type Config struct {
	Verbosity      int     `yaml:"verbosity"`
	StepMultiplier float64 `yaml:"step_multiplier"`
	Parallelism    int     `yaml:"parallelism"`
}

func NewConfig() Config {
	return Config{StepMultiplier: 2}
}

func (c Config)Validate() error {
	if c.StepMultiplier <= 0 {
		return fmt.Errorf("step_multiplier must be positive, got %g", c.StepMultiplier)
	}
	return nil
}

// A Score summarizes one level or iteration, over every frame and
// every sample position.
type Score struct {
	Level     int     `yaml:"level"`      // -1 is the finest pyramid level; iterations count up from 0
	Factor    float64 `yaml:"factor"`     // what the estimate was multiplied by
	MeanError float64 `yaml:"mean_error"` // mean |estimate*factor - ground truth|
	MeanNorm  float64 `yaml:"mean_norm"`  // mean |estimate*factor|
	P50       float64 `yaml:"p50"`
	P90       float64 `yaml:"p90"`
	P99       float64 `yaml:"p99"`
	Samples   int     `yaml:"samples"`
}

func (s Score)String() string {
	return fmt.Sprintf("level %3d (x%-4g): err %8.4f  norm %8.4f  [p50 %.3f, p90 %.3f, p99 %.3f] over %d",
		s.Level, s.Factor, s.MeanError, s.MeanNorm, s.P50, s.P90, s.P99, s.Samples)
}

type Evaluator struct {
	Config
}

func NewEvaluator(c Config) (*Evaluator, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &Evaluator{Config: c}, nil
}

// compareFrames runs CompareTo for each frame, maybe concurrently,
// and pools the results.
func (e *Evaluator)compareFrames(fields []flow.Field, gt []emath.Field, factor float64) (flow.Comparison, error) {
	if len(fields) != len(gt) {
		return flow.Comparison{}, errors.Errorf("%d estimated frames but %d ground truth frames", len(fields), len(gt))
	}

	perFrame := make([]flow.Comparison, len(fields))
	g := errgroup.Group{}
	if e.Parallelism > 1 {
		g.SetLimit(e.Parallelism)
	} else {
		g.SetLimit(1)
	}
	for i := range fields {
		i := i
		g.Go(func() error {
			c, err := fields[i].CompareTo(gt[i], factor)
			if err != nil {
				return errors.Wrapf(err, "frame %d", i+1)
			}
			perFrame[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return flow.Comparison{}, err
	}

	all := flow.Comparison{}
	for _, c := range perFrame {
		all.Residuals = append(all.Residuals, c.Residuals...)
		all.Norms = append(all.Norms, c.Norms...)
	}
	return all, nil
}

func score(c flow.Comparison, level int, factor float64) Score {
	s := Score{Level: level, Factor: factor, Samples: len(c.Residuals)}
	if len(c.Residuals) == 0 {
		return s
	}
	s.MeanError = stat.Mean(c.Residuals, nil)
	s.MeanNorm = stat.Mean(c.Norms, nil)

	const top = int64(histMaxPixels * histUnitsPerPixel)
	h := hdrhistogram.New(1, top, 3)
	for _, r := range c.Residuals {
		v := int64(math.Round(r * histUnitsPerPixel))
		if v > top || math.IsNaN(r) { v = top }
		h.RecordValue(v)
	}
	s.P50 = float64(h.ValueAtQuantile(50)) / histUnitsPerPixel
	s.P90 = float64(h.ValueAtQuantile(90)) / histUnitsPerPixel
	s.P99 = float64(h.ValueAtQuantile(99)) / histUnitsPerPixel
	return s
}

// EvaluatePyramid scores a coarse to fine sequence of levels, est being
// [level][frame] with the coarsest level first. factors are the
// per-level downsampling factors, finest first; each level is scaled by
// the product of its own and all finer factors. Scores come back finest
// first, with levels numbered -1, -2, ...
func (e *Evaluator)EvaluatePyramid(est [][]flow.Field, gt []emath.Field, factors []float64) ([]Score, error) {
	if len(factors) != len(est) {
		return nil, errors.Errorf("%d levels but %d factors", len(est), len(factors))
	}

	scores := []Score{}
	cumulative := 1.0
	for k:=0; k<len(est); k++ {
		cumulative *= factors[k]
		level := est[len(est)-1-k]

		c, err := e.compareFrames(level, gt, cumulative)
		if err != nil {
			return nil, errors.Wrapf(err, "level %d", -1-k)
		}
		s := score(c, -1-k, cumulative)
		if e.Verbosity > 0 {
			log.Printf(" -- %s\n", s)
		}
		scores = append(scores, s)
	}

	return scores, nil
}

// EvaluateIterations scores each iteration of a refinement, est being
// [iteration][frame]. Every iteration is scaled by the same factor,
// which is 1 when the estimator ran at ground truth resolution. The steps are
// the mean of |m*flow[t+1] - m*flow[t]| for each consecutive pair, m
// being the configured step multiplier.
func (e *Evaluator)EvaluateIterations(est [][]flow.Field, gt []emath.Field, scale float64) ([]Score, []float64, error) {
	if scale <= 0 {
		return nil, nil, errors.Errorf("non-positive iteration scale %g", scale)
	}

	scores := []Score{}
	for t := range est {
		c, err := e.compareFrames(est[t], gt, scale)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "iteration %d", t)
		}
		s := score(c, t, scale)
		if e.Verbosity > 0 {
			log.Printf(" -- %s\n", s)
		}
		scores = append(scores, s)
	}

	steps := []float64{}
	for t:=0; t+1<len(est); t++ {
		if len(est[t]) != len(est[t+1]) {
			return nil, nil, errors.Errorf("iteration %d has %d frames, iteration %d has %d", t, len(est[t]), t+1, len(est[t+1]))
		}
		norms := []float64{}
		for i := range est[t] {
			n, err := est[t][i].StepNorms(est[t+1][i], e.StepMultiplier)
			if err != nil {
				return nil, nil, errors.Wrapf(err, "iteration %d frame %d", t, i+1)
			}
			norms = append(norms, n...)
		}
		m := 0.0
		if len(norms) > 0 {
			m = stat.Mean(norms, nil)
		}
		steps = append(steps, m)
	}

	return scores, steps, nil
}

// A Report collects every curve for one run.
type Report struct {
	Pyramid    []Score   `yaml:"pyramid,omitempty"`
	Iterations []Score   `yaml:"iterations,omitempty"`
	Steps      []float64 `yaml:"steps,omitempty"`
	Dense      []Score   `yaml:"dense,omitempty"`
}

func (r Report)AsYaml() string {
	b, err := yaml.Marshal(r)
	if err != nil {
		log.Fatalf("Can't marshal report yaml: %v\n", err)
	}
	return string(b)
}
