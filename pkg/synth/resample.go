package synth

import(
	"fmt"
	"math"

	"golang.org/x/image/draw"

	"github.com/abworrall/synthburst/pkg/emath"
)

type BorderMode int

const(
	BorderConstant BorderMode = iota // out of bounds samples read as a constant
	BorderReplicate                  // out of bounds samples read the nearest edge sample
)

// A Resampler interpolates emath.Fields with one kernel. The same
// resampler is used for the pixels and for the inverse grids, so the
// two can't drift apart.
type Resampler struct {
	Kernel      *draw.Kernel
	BorderValue float64
}

// sampleAt interpolates all channels of src at the fractional
// location [x,y], writing them into out.
func (r Resampler)sampleAt(src *emath.Field, x, y float64, mode BorderMode, out []float64, sc *scratch) {
	sc.xi, sc.xw = taps(r.Kernel, x, sc.xi, sc.xw)
	sc.yi, sc.yw = taps(r.Kernel, y, sc.yi, sc.yw)

	for c := range out { out[c] = 0 }

	for j, yy := range sc.yi {
		for i, xx := range sc.xi {
			wt := sc.yw[j] * sc.xw[i]
			sx, sy := xx, yy

			if sx < 0 || sy < 0 || sx >= src.W || sy >= src.H {
				if mode == BorderConstant {
					for c := range out { out[c] += wt * r.BorderValue }
					continue
				}
				sx = emath.ClampInt(sx, 0, src.W-1)
				sy = emath.ClampInt(sy, 0, src.H-1)
			}

			v := src.Vec(sx, sy)
			for c := range out { out[c] += wt * v[c] }
		}
	}
}

type scratch struct {
	xi, yi []int
	xw, yw []float64
}

func newScratch() *scratch {
	return &scratch{
		xi: make([]int, 0, 8), yi: make([]int, 0, 8),
		xw: make([]float64, 0, 8), yw: make([]float64, 0, 8),
	}
}

// Warp resamples src onto a canvas of the same size. `inv` maps each
// destination pixel back to the source location it reads from, so for
// a forward transform M this is dst(p) = src(inv(M)·p). Samples falling
// outside src take the border value.
func (r Resampler)Warp(src emath.Field, inv emath.Aff3) emath.Field {
	dst := emath.NewField(src.W, src.H, src.C)
	sc := newScratch()

	for y:=0; y<dst.H; y++ {
		for x:=0; x<dst.W; x++ {
			sx, sy := inv.Apply(float64(x), float64(y))
			r.sampleAt(&src, sx, sy, BorderConstant, dst.Vec(x, y), sc)
		}
	}
	return dst
}

// ResizedDim is the size of a dimension after downsampling by
// `factor`, rounded half to even like OpenCV's resize does.
func ResizedDim(n, factor int) int {
	d := int(math.RoundToEven(float64(n) / float64(factor)))
	if d < 1 { d = 1 }
	return d
}

// Downsample shrinks src by an integer factor. Output pixel [x,y] is
// interpolated at ((x+0.5)*f - 0.5, (y+0.5)*f - 0.5), so the output
// pixel centers sit on the centers of the input blocks.
func (r Resampler)Downsample(src emath.Field, factor int) emath.Field {
	if factor == 1 {
		return src.Copy()
	}

	dst := emath.NewField(ResizedDim(src.W, factor), ResizedDim(src.H, factor), src.C)
	sc := newScratch()
	f := float64(factor)

	for y:=0; y<dst.H; y++ {
		for x:=0; x<dst.W; x++ {
			sx := (float64(x)+0.5)*f - 0.5
			sy := (float64(y)+0.5)*f - 0.5
			r.sampleAt(&src, sx, sy, BorderReplicate, dst.Vec(x, y), sc)
		}
	}
	return dst
}

// GeometricResample is the crop -> downsample chain shared by frame
// pixels and inverse grids. Coordinate fields are additionally divided
// by the factor, to stay in output pixel units.
func (r Resampler)GeometricResample(f emath.Field, borderCrop, factor int, isCoords bool) (emath.Field, error) {
	if factor < 1 {
		return emath.Field{}, fmt.Errorf("downsample factor must be >= 1, got %d", factor)
	}

	cropped, err := f.Crop(borderCrop)
	if err != nil {
		return emath.Field{}, err
	}

	out := r.Downsample(cropped, factor)
	if isCoords && factor != 1 {
		out = out.Scale(1.0 / float64(factor))
	}
	return out, nil
}
