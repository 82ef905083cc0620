// Package experiment ties the stages together: it loads source images
// and config, synthesizes a burst from each source, mosaics it, runs
// the estimators over the mosaics, and scores them against the exact
// flow.
package experiment

import(
	"fmt"
	"log"
	"math/rand"

	"github.com/abworrall/synthburst/pkg/align"
	"github.com/abworrall/synthburst/pkg/emath"
	"github.com/abworrall/synthburst/pkg/evaluate"
	"github.com/abworrall/synthburst/pkg/synth"
)

type Experiment struct {
	Config
	Sources []Source
}

func NewExperiment() Experiment {
	return Experiment{Config: NewConfig()}
}

func (e Experiment)String() string {
	str := fmt.Sprintf("Experiment[%d sources]\n", len(e.Sources))
	for i, s := range e.Sources {
		str += fmt.Sprintf("  %02d: %s\n", i, s)
	}
	return str
}

func (e *Experiment)AddSource(s Source) {
	e.Sources = append(e.Sources, s)
}

// A Result is everything produced from one source.
type Result struct {
	Source      Source
	Burst       synth.Burst
	GroundTruth []emath.Field      // one per non-anchor frame
	Mosaics     []emath.FloatGrid  // in [0,1]
	Estimates   align.Estimates
	Report      evaluate.Report
}

// Run does the whole pipeline for each source in turn. The rng is
// shared, so the sources' bursts depend on their order.
func (e *Experiment)Run(rng *rand.Rand) ([]Result, error) {
	if err := e.Config.Finalize(); err != nil {
		return nil, err
	}
	if len(e.Sources) == 0 {
		return nil, fmt.Errorf("no source images")
	}

	results := []Result{}
	for _, s := range e.Sources {
		log.Printf("Source %s\n", s)
		r, err := e.RunSource(s, rng)
		if err != nil {
			return nil, fmt.Errorf("source %s: %v", s.LoadFilename, err)
		}
		results = append(results, r)
	}
	return results, nil
}

// RunSource assumes the config has been finalized.
func (e *Experiment)RunSource(s Source, rng *rand.Rand) (Result, error) {
	r := Result{Source: s}

	synthesizer, err := synth.NewSynthesizer(e.Synth)
	if err != nil {
		return r, err
	}
	log.Printf("Synthesizing %d frames\n", e.Synth.BurstSize)
	if r.Burst, err = synthesizer.Synthesize(s.Image, rng); err != nil {
		return r, err
	}
	if e.Verbosity > 0 {
		log.Printf("%s\n", r.Burst)
	}
	if r.GroundTruth, err = r.Burst.GroundTruthFlow(); err != nil {
		return r, err
	}

	// The estimators expect [0,1]
	frames := r.Burst.Frames
	if !r.Burst.Normalized {
		frames = make([]emath.Field, len(r.Burst.Frames))
		for i := range r.Burst.Frames {
			frames[i] = r.Burst.Frames[i].Scale(1.0 / 255.0)
		}
	}
	if r.Mosaics, err = e.Align.CFA.DecimateBurst(frames); err != nil {
		return r, err
	}

	if len(r.Mosaics) < 2 {
		log.Printf("Burst of %d has nothing to align\n", len(r.Mosaics))
		return r, nil
	}

	h, err := e.Config.Harness()
	if err != nil {
		return r, err
	}
	if r.Estimates, err = h.Run(r.Mosaics); err != nil {
		return r, err
	}

	rep, err := e.Evaluate(r.Estimates, r.GroundTruth)
	if err != nil {
		return r, err
	}
	r.Report = rep

	return r, nil
}

// Evaluate scores every kind of estimate that is present.
func (e *Experiment)Evaluate(est align.Estimates, gt []emath.Field) (evaluate.Report, error) {
	rep := evaluate.Report{}
	ev, err := evaluate.NewEvaluator(e.Evaluation)
	if err != nil {
		return rep, err
	}

	if len(est.Pyramid) > 0 {
		log.Printf("Evaluating %d pyramid levels\n", len(est.Pyramid))
		if rep.Pyramid, err = ev.EvaluatePyramid(est.Pyramid, gt, est.PyramidFactors); err != nil {
			return rep, fmt.Errorf("pyramid: %v", err)
		}
	}
	if len(est.Iterations) > 0 {
		log.Printf("Evaluating %d iterations\n", len(est.Iterations))
		if rep.Iterations, rep.Steps, err = ev.EvaluateIterations(est.Iterations, gt, est.IterationScale); err != nil {
			return rep, fmt.Errorf("iterations: %v", err)
		}
	}
	if len(est.Dense) > 0 {
		log.Printf("Evaluating dense flow\n")
		if rep.Dense, err = ev.EvaluatePyramid(est.Dense, gt, []float64{1}); err != nil {
			return rep, fmt.Errorf("dense: %v", err)
		}
	}

	return rep, nil
}
