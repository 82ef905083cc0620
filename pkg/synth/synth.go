package synth

import(
	"fmt"
	"log"
	"math/rand"

	"golang.org/x/sync/errgroup"

	"github.com/abworrall/synthburst/pkg/emath"
)

// normalizedMaxValue is the max-value heuristic: any image whose
// largest sample is below this is taken to be in [0,1].
const normalizedMaxValue = 2.0

// A Burst is a stack of frames synthesized from one source image. Frame
// 0 is the anchor; InverseGrids[i] says, for every pixel of frame i,
// where in the source image (in output pixel units) it came from.
type Burst struct {
	Frames       []emath.Field     // N frames of W' x H' x 3
	InverseGrids []emath.Field     // N grids of W' x H' x 2
	Params       []TransformParams // What was applied to each frame
	Normalized   bool              // Frames are in [0,1] rather than [0,255]
}

func (b Burst)String() string {
	str := fmt.Sprintf("Burst[%d frames", len(b.Frames))
	if len(b.Frames) > 0 {
		str += fmt.Sprintf(", %dx%d", b.Frames[0].W, b.Frames[0].H)
	}
	str += "\n"
	for i, p := range b.Params {
		str += fmt.Sprintf("  %02d: %s\n", i, p)
	}
	return str + "]"
}

// A Synthesizer turns one source image into a burst.
type Synthesizer struct {
	Config
	Resampler
}

func NewSynthesizer(cfg Config) (*Synthesizer, error) {
	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return &Synthesizer{Config: cfg, Resampler: Resampler{Kernel: cfg.Kernel}}, nil
}

// Synthesize draws the per-frame distortions from rng, then builds the
// burst. The rng is only consumed here, in frame order.
func (s *Synthesizer)Synthesize(src emath.Field, rng *rand.Rand) (Burst, error) {
	return s.SynthesizeWithParams(src, SampleBurstParams(rng, s.Config))
}

// SynthesizeWithParams builds a burst with the given per-frame
// parameters; params[0] should be the anchor's.
func (s *Synthesizer)SynthesizeWithParams(src emath.Field, params []TransformParams) (Burst, error) {
	if src.C != 3 {
		return Burst{}, fmt.Errorf("source image must have 3 channels, got %s", src)
	}
	if len(params) == 0 {
		return Burst{}, fmt.Errorf("no frames requested")
	}

	work, normalized := toWorkingRange(src)
	sampleGrid := NewSampleGrid(src.W, src.H)

	b := Burst{
		Frames:       make([]emath.Field, len(params)),
		InverseGrids: make([]emath.Field, len(params)),
		Params:       params,
		Normalized:   normalized,
	}

	var g errgroup.Group
	if s.Parallelism > 1 {
		g.SetLimit(s.Parallelism)
	} else {
		g.SetLimit(1)
	}

	for i := range params {
		i := i
		g.Go(func() error {
			frame, grid, err := s.synthesizeFrame(work, sampleGrid, params[i])
			if err != nil {
				return fmt.Errorf("frame %d: %v", i, err)
			}
			if normalized {
				frame = frame.Scale(1.0 / 255.0)
			}
			b.Frames[i], b.InverseGrids[i] = frame, grid

			if s.Verbosity > 0 {
				log.Printf(" -- frame %02d: %s\n", i, params[i])
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Burst{}, err
	}

	return b, nil
}

func (s *Synthesizer)synthesizeFrame(src, sampleGrid emath.Field, p TransformParams) (emath.Field, emath.Field, error) {
	xform, err := NewTransform(p, src.W, src.H)
	if err != nil {
		return emath.Field{}, emath.Field{}, err
	}

	warped := s.Warp(src, xform.Inv)
	grid := InverseGrid(xform, sampleGrid)

	crop := s.GetBorderCrop()
	if warped, err = s.GeometricResample(warped, crop, s.DownsampleFactor, false); err != nil {
		return emath.Field{}, emath.Field{}, err
	}
	if grid, err = s.GeometricResample(grid, crop, s.DownsampleFactor, true); err != nil {
		return emath.Field{}, emath.Field{}, err
	}

	return warped, grid, nil
}

// toWorkingRange returns the image in [0,255], and whether it had to be
// scaled up to get there.
func toWorkingRange(img emath.Field) (emath.Field, bool) {
	if img.Max() < normalizedMaxValue {
		return img.Scale(255.0), true
	}
	return img, false
}
