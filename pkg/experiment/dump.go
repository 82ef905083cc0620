package experiment

import(
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/abworrall/synthburst/pkg/flow"
	"github.com/abworrall/synthburst/pkg/flowviz"
)

// Dump writes images of a result into dir: each frame as .hdr and
// tonemapped .png, each mosaic, colour wheel pictures of the ground
// truth and finest estimates, and the error curves.
func (r Result)Dump(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("dump dir '%s': %v", dir, err)
	}
	name := func(format string, args ...interface{}) string {
		return filepath.Join(dir, fmt.Sprintf(format, args...))
	}

	for i, f := range r.Burst.Frames {
		fi, err := flowviz.NewFrameImage(f, r.Burst.Normalized)
		if err != nil {
			return err
		}
		if err := fi.WriteHDR(name("frame-%02d.hdr", i)); err != nil {
			return err
		}
		if err := fi.WritePNG(name("frame-%02d.png", i)); err != nil {
			return err
		}
	}

	for i := range r.Mosaics {
		if err := r.Mosaics[i].ToImg(fmt.Sprintf("mosaic %d", i), name("mosaic-%02d.png", i)); err != nil {
			return err
		}
	}

	for i, gt := range r.GroundTruth {
		if err := flowviz.WritePNG(flowviz.FlowToImage(flow.NewPerPixel(gt), 0), name("flow-gt-%02d.png", i+1)); err != nil {
			return err
		}
	}

	finest := func(steps [][]flow.Field, kind string) error {
		if len(steps) == 0 {
			return nil
		}
		for i, f := range steps[len(steps)-1] {
			if err := flowviz.WritePNG(flowviz.FlowToImage(f, 0), name("flow-%s-%02d.png", kind, i+1)); err != nil {
				return err
			}
		}
		return nil
	}
	if err := finest(r.Estimates.Pyramid, "bm"); err != nil {
		return err
	}
	if err := finest(r.Estimates.Iterations, "lk"); err != nil {
		return err
	}
	if err := finest(r.Estimates.Dense, "dense"); err != nil {
		return err
	}

	if len(r.Report.Iterations) > 0 {
		errs, norms := []float64{}, []float64{}
		for _, s := range r.Report.Iterations {
			errs = append(errs, s.MeanError)
			norms = append(norms, s.MeanNorm)
		}
		curves := []flowviz.Curve{
			{Name: "error", Values: errs, R: 0.8},
			{Name: "norm", Values: norms, B: 0.8},
			{Name: "step", Values: r.Report.Steps, G: 0.6},
		}
		if err := flowviz.PlotCurves("refinement", curves, name("curve-iterations.png")); err != nil {
			return err
		}
	}
	if len(r.Report.Pyramid) > 0 {
		errs := []float64{}
		for _, s := range r.Report.Pyramid {
			errs = append(errs, s.MeanError)
		}
		curves := []flowviz.Curve{{Name: "error, finest first", Values: errs, R: 0.8}}
		if err := flowviz.PlotCurves("pyramid", curves, name("curve-pyramid.png")); err != nil {
			return err
		}
	}

	log.Printf("Dumped images into %s\n", dir)
	return nil
}
