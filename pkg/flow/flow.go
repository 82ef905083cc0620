// Package flow models displacement fields as produced by alignment
// estimators, which may be sampled per pixel or per tile, and compares
// them against an exact per-pixel ground truth.
package flow

import(
	"fmt"
	"math"

	"github.com/abworrall/synthburst/pkg/emath"
)

type Kind int

const(
	PerPixel Kind = iota
	PerTile
)

func (k Kind)String() string {
	switch k {
	case PerPixel: return "per-pixel"
	case PerTile:  return "per-tile"
	default:       return fmt.Sprintf("kind(%d)", int(k))
	}
}

// A Field is a 2 channel displacement field, channel 0 being X. For
// PerTile fields, sample [i,j] describes the TileSize x TileSize block
// whose top left pixel is [i*Step, j*Step].
type Field struct {
	emath.Field
	Kind     Kind
	TileSize int
	Step     int
}

func NewPerPixel(f emath.Field) Field {
	return Field{Field: f, Kind: PerPixel, TileSize: 1, Step: 1}
}

// NewPerTile wraps a tile grid; a step of 0 means tiles don't overlap.
func NewPerTile(f emath.Field, tileSize, step int) Field {
	if step <= 0 { step = tileSize }
	return Field{Field: f, Kind: PerTile, TileSize: tileSize, Step: step}
}

func (f Field)String() string {
	if f.Kind == PerTile {
		return fmt.Sprintf("flow[%s %dx%d tiles, size %d step %d]", f.Kind, f.W, f.H, f.TileSize, f.Step)
	}
	return fmt.Sprintf("flow[%s %dx%d]", f.Kind, f.W, f.H)
}

// Scaled multiplies every vector by s; the geometry is unchanged.
func (f Field)Scaled(s float64) Field {
	g := f
	g.Field = f.Field.Scale(s)
	return g
}

// Center is the pixel location, in the field's own resolution, that
// sample [i,j] stands for.
func (f Field)Center(i, j int) (float64, float64) {
	half := float64(f.TileSize - 1) / 2.0
	return float64(i*f.Step) + half, float64(j*f.Step) + half
}

// A Comparison holds, for every sample of an estimate, the length of
// the residual against the ground truth and the length of the
// (scaled) estimate itself.
type Comparison struct {
	Residuals []float64
	Norms     []float64
}

func (c Comparison)MeanResidual() float64 { return mean(c.Residuals) }
func (c Comparison)MeanNorm() float64     { return mean(c.Norms) }

func mean(vals []float64) float64 {
	if len(vals) == 0 { return 0 }
	sum := 0.0
	for _, v := range vals { sum += v }
	return sum / float64(len(vals))
}

// CompareTo scales the estimate by `factor` and compares each sample with
// the ground truth at the nearest corresponding pixel. The factor is how
// many ground truth pixels one estimate pixel spans, so it applies both
// to the vectors and to the sample positions. Ground truth is picked,
// never interpolated or averaged over a tile. Tiles whose center falls
// past the image edge use the nearest edge pixel; a per-pixel estimate
// that doesn't fit within the ground truth is an error.
func (f Field)CompareTo(gt emath.Field, factor float64) (Comparison, error) {
	if f.C != 2 || gt.C != 2 {
		return Comparison{}, fmt.Errorf("flow fields need 2 channels, got %s vs ground truth %s", f, gt)
	}
	if factor <= 0 {
		return Comparison{}, fmt.Errorf("non-positive scale factor %g", factor)
	}

	n := f.W * f.H
	c := Comparison{Residuals: make([]float64, 0, n), Norms: make([]float64, 0, n)}

	for j:=0; j<f.H; j++ {
		for i:=0; i<f.W; i++ {
			cx, cy := f.Center(i, j)
			gx := int(math.Round((cx+0.5)*factor - 0.5))
			gy := int(math.Round((cy+0.5)*factor - 0.5))

			if gx < 0 || gy < 0 || gx >= gt.W || gy >= gt.H {
				if f.Kind == PerPixel {
					return Comparison{}, fmt.Errorf("%s sample (%d,%d) maps outside ground truth %s", f, i, j, gt)
				}
				gx = emath.ClampInt(gx, 0, gt.W-1)
				gy = emath.ClampInt(gy, 0, gt.H-1)
			}

			ex, ey := f.At(i, j, 0)*factor, f.At(i, j, 1)*factor
			c.Norms = append(c.Norms, emath.Norm2(ex, ey))
			c.Residuals = append(c.Residuals, emath.Norm2(ex - gt.At(gx, gy, 0), ey - gt.At(gx, gy, 1)))
		}
	}

	return c, nil
}

// StepNorms gives |mult*next - mult*f| for every sample: how far the
// estimate moved between two iterations.
func (f Field)StepNorms(next Field, mult float64) ([]float64, error) {
	if !f.SameShape(next.Field) {
		return nil, fmt.Errorf("can't step from %s to %s", f, next)
	}

	out := make([]float64, 0, f.W*f.H)
	for j:=0; j<f.H; j++ {
		for i:=0; i<f.W; i++ {
			dx := mult*next.At(i, j, 0) - mult*f.At(i, j, 0)
			dy := mult*next.At(i, j, 1) - mult*f.At(i, j, 1)
			out = append(out, emath.Norm2(dx, dy))
		}
	}
	return out, nil
}

// Upsampled repeats each sample of a per-pixel field over a factor x
// factor block of a w x h field, multiplying the vectors by factor to
// keep them in the new pixel units.
func (f Field)Upsampled(factor, w, h int) Field {
	if factor == 1 && w == f.W && h == f.H {
		return f
	}

	planes := []emath.FloatGrid{}
	for c:=0; c<2; c++ {
		src := f.Channel(c)
		dst := emath.NewFloatGrid(w, h)
		src.UpSampleByInto(factor, &dst)
		planes = append(planes, dst)
	}
	out := emath.NewFieldFromPlanes(planes...)
	return NewPerPixel(out.Scale(float64(factor)))
}
