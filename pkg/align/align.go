// Package align runs pluggable motion estimators over a mosaic burst,
// all against frame 0, and hands back their outputs in one standard
// shape: [level or iteration][frame].
package align

import(
	"log"

	"github.com/pkg/errors"

	"github.com/abworrall/synthburst/pkg/emath"
	"github.com/abworrall/synthburst/pkg/flow"
	"github.com/abworrall/synthburst/pkg/mosaic"
)

// A PyramidMatcher estimates per-tile flow coarse to fine. Align
// returns one field per pyramid level, coarsest first, each in the
// pixel units of its own level.
type PyramidMatcher interface {
	SetReference(ref emath.FloatGrid) error
	Align(frame emath.FloatGrid) ([]flow.Field, error)

	// Factors are the downsampling factors between successive levels,
	// finest first; the first is relative to the input image.
	Factors() []int
}

// An IterativeRefiner improves a seed flow. Refine returns one field
// per iteration, the first being the seed itself.
type IterativeRefiner interface {
	SetReference(ref emath.FloatGrid) error
	Refine(frame emath.FloatGrid, seed flow.Field) ([]flow.Field, error)
}

// A DenseEstimator produces one per-pixel field per frame, in one go.
type DenseEstimator interface {
	SetReference(ref emath.FloatGrid) error
	Estimate(frame emath.FloatGrid) (flow.Field, error)
}

type Config struct {
	Verbosity   int        `yaml:"verbosity"`
	CFA         mosaic.CFA `yaml:"cfa"`
	MatcherGrey string     `yaml:"matcher_grey"`
	RefinerGrey string     `yaml:"refiner_grey"`
	DenseGrey   string     `yaml:"dense_grey"`
}

func NewConfig() Config {
	return Config{
		CFA:         mosaic.DefaultCFA,
		MatcherGrey: "fft",
		RefinerGrey: "fft",
		DenseGrey:   "fft",
	}
}

func (c Config)Finalize() error {
	if err := c.CFA.Validate(); err != nil {
		return err
	}
	mf, err := mosaic.GreyScaleFactor(c.MatcherGrey)
	if err != nil {
		return errors.Wrap(err, "matcher")
	}
	rf, err := mosaic.GreyScaleFactor(c.RefinerGrey)
	if err != nil {
		return errors.Wrap(err, "refiner")
	}
	if _, err := mosaic.GreyScaleFactor(c.DenseGrey); err != nil {
		return errors.Wrap(err, "dense")
	}
	if mf != rf {
		return errors.Errorf("matcher grey '%s' and refiner grey '%s' differ in resolution", c.MatcherGrey, c.RefinerGrey)
	}
	return nil
}

// Estimates holds everything the estimators produced. Every inner
// slice has one field per non-reference frame.
type Estimates struct {
	Pyramid        [][]flow.Field // [level][frame], coarsest level first
	PyramidFactors []float64      // finest first, including the grey downscale
	Iterations     [][]flow.Field // [iteration][frame], seed first
	IterationScale float64        // grey downscale of the refiner's fields
	Dense          [][]flow.Field // [1][frame], upscaled to mosaic resolution
}

// A Harness runs whichever estimators are set. The refiner needs the
// matcher, since it is seeded from the matcher's finest level.
type Harness struct {
	Config
	Matcher PyramidMatcher
	Refiner IterativeRefiner
	Dense   DenseEstimator
}

func (h *Harness)Run(mosaics []emath.FloatGrid) (Estimates, error) {
	est := Estimates{}

	if err := h.Config.Finalize(); err != nil {
		return est, err
	}
	if len(mosaics) < 2 {
		return est, errors.Errorf("need a reference and at least one frame, got %d mosaics", len(mosaics))
	}
	if h.Refiner != nil && h.Matcher == nil {
		return est, errors.New("refiner needs a matcher to seed it")
	}

	if h.Matcher != nil {
		if err := h.runMatcher(mosaics, &est); err != nil {
			return est, err
		}
	}
	if h.Refiner != nil {
		if err := h.runRefiner(mosaics, &est); err != nil {
			return est, err
		}
	}
	if h.Dense != nil {
		if err := h.runDense(mosaics, &est); err != nil {
			return est, err
		}
	}

	return est, nil
}

// greys converts every mosaic with one method.
func greys(mosaics []emath.FloatGrid, method string) ([]emath.FloatGrid, int, error) {
	out := make([]emath.FloatGrid, len(mosaics))
	scale := 1
	for i := range mosaics {
		g, s, err := mosaic.ToGrey(mosaics[i], method)
		if err != nil {
			return nil, 0, errors.Wrapf(err, "frame %d", i)
		}
		out[i], scale = g, s
	}
	return out, scale, nil
}

func (h *Harness)runMatcher(mosaics []emath.FloatGrid, est *Estimates) error {
	log.Printf("Block matching %d frames (grey %s)\n", len(mosaics)-1, h.MatcherGrey)

	grey, scale, err := greys(mosaics, h.MatcherGrey)
	if err != nil {
		return errors.Wrap(err, "matcher grey")
	}
	if err := h.Matcher.SetReference(grey[0]); err != nil {
		return errors.Wrap(err, "matcher reference")
	}

	perFrame := make([][]flow.Field, 0, len(grey)-1)
	for i:=1; i<len(grey); i++ {
		levels, err := h.Matcher.Align(grey[i])
		if err != nil {
			return errors.Wrapf(err, "matcher frame %d", i)
		}
		if len(levels) == 0 {
			return errors.Errorf("matcher frame %d: no levels returned", i)
		}
		if h.Verbosity > 0 {
			log.Printf(" -- matcher frame %02d: %d levels, finest %s\n", i, len(levels), levels[len(levels)-1])
		}
		perFrame = append(perFrame, levels)
	}

	pyr, err := transpose(perFrame, "matcher")
	if err != nil {
		return err
	}

	factors := h.Matcher.Factors()
	if len(factors) != len(pyr) {
		return errors.Errorf("matcher has %d levels but %d factors", len(pyr), len(factors))
	}
	est.PyramidFactors = make([]float64, len(factors))
	for i, f := range factors {
		est.PyramidFactors[i] = float64(f)
	}
	est.PyramidFactors[0] *= float64(scale)
	est.Pyramid = pyr

	return nil
}

func (h *Harness)runRefiner(mosaics []emath.FloatGrid, est *Estimates) error {
	log.Printf("Refining %d frames (grey %s)\n", len(mosaics)-1, h.RefinerGrey)

	if len(est.Pyramid) == 0 {
		return errors.New("no matcher output to seed the refiner")
	}
	grey, scale, err := greys(mosaics, h.RefinerGrey)
	if err != nil {
		return errors.Wrap(err, "refiner grey")
	}
	if err := h.Refiner.SetReference(grey[0]); err != nil {
		return errors.Wrap(err, "refiner reference")
	}

	// The matcher's finest level is in the units of its level 0, which
	// may itself be downsampled from the grey image
	finest := est.Pyramid[len(est.Pyramid)-1]
	seedScale := est.PyramidFactors[0] / float64(scale)

	perFrame := make([][]flow.Field, 0, len(grey)-1)
	for i:=1; i<len(grey); i++ {
		seed := finest[i-1]
		if seedScale != 1 {
			seed = seed.Scaled(seedScale)
			seed.TileSize *= int(seedScale)
			seed.Step *= int(seedScale)
		}

		iters, err := h.Refiner.Refine(grey[i], seed)
		if err != nil {
			return errors.Wrapf(err, "refiner frame %d", i)
		}
		if len(iters) == 0 {
			return errors.Errorf("refiner frame %d: no iterations returned", i)
		}
		perFrame = append(perFrame, iters)
	}

	its, err := transpose(perFrame, "refiner")
	if err != nil {
		return err
	}
	est.Iterations = its
	est.IterationScale = float64(scale)

	return nil
}

func (h *Harness)runDense(mosaics []emath.FloatGrid, est *Estimates) error {
	log.Printf("Dense flow over %d frames (grey %s)\n", len(mosaics)-1, h.DenseGrey)

	grey, scale, err := greys(mosaics, h.DenseGrey)
	if err != nil {
		return errors.Wrap(err, "dense grey")
	}
	if err := h.Dense.SetReference(grey[0]); err != nil {
		return errors.Wrap(err, "dense reference")
	}

	w, hh := mosaics[0].Dx(), mosaics[0].Dy()
	fields := make([]flow.Field, 0, len(grey)-1)
	for i:=1; i<len(grey); i++ {
		f, err := h.Dense.Estimate(grey[i])
		if err != nil {
			return errors.Wrapf(err, "dense frame %d", i)
		}
		if f.Kind != flow.PerPixel {
			return errors.Errorf("dense frame %d: estimator returned %s", i, f)
		}
		fields = append(fields, f.Upsampled(scale, w, hh))
	}

	est.Dense = [][]flow.Field{fields}
	return nil
}

// transpose turns [frame][step] into [step][frame]; every frame must
// have produced the same number of steps.
func transpose(perFrame [][]flow.Field, who string) ([][]flow.Field, error) {
	if len(perFrame) == 0 {
		return nil, nil
	}

	n := len(perFrame[0])
	out := make([][]flow.Field, n)
	for s:=0; s<n; s++ {
		out[s] = make([]flow.Field, len(perFrame))
	}

	for f, steps := range perFrame {
		if len(steps) != n {
			return nil, errors.Errorf("%s frame %d: %d steps, frame 1 had %d", who, f+1, len(steps), n)
		}
		for s := range steps {
			out[s][f] = steps[s]
		}
	}
	return out, nil
}
