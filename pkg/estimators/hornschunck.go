package estimators

import(
	"fmt"

	"github.com/abworrall/synthburst/pkg/emath"
	"github.com/abworrall/synthburst/pkg/flow"
)

// HornSchunck computes dense flow with a global smoothness term,
// solved by Jacobi iteration.
type HornSchunck struct {
	HornSchunckConfig
	ref emath.FloatGrid
}

func NewHornSchunck(c HornSchunckConfig) (*HornSchunck, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &HornSchunck{HornSchunckConfig: c}, nil
}

func (hs *HornSchunck)SetReference(ref emath.FloatGrid) error {
	if ref.Dx() < 1 || ref.Dy() < 1 {
		return fmt.Errorf("empty reference")
	}
	hs.ref = ref
	return nil
}

// derivatives averages the spatial differences of both images; fz is
// the temporal difference.
func (hs *HornSchunck)derivatives(f2 *emath.FloatGrid) (fx, fy, fz emath.FloatGrid) {
	f1 := &hs.ref
	fx, fy, fz = f1.NewFromThis(), f1.NewFromThis(), f1.NewFromThis()

	for y:=0; y<f1.Dy(); y++ {
		for x:=0; x<f1.Dx(); x++ {
			fx.Set(x, y, (f1.GetClamped(x+1,y) - f1.GetClamped(x-1,y) + f2.GetClamped(x+1,y) - f2.GetClamped(x-1,y)) / 4.0)
			fy.Set(x, y, (f1.GetClamped(x,y+1) - f1.GetClamped(x,y-1) + f2.GetClamped(x,y+1) - f2.GetClamped(x,y-1)) / 4.0)
			fz.Set(x, y, f2.Get(x,y) - f1.Get(x,y))
		}
	}
	return
}

func (hs *HornSchunck)Estimate(frame emath.FloatGrid) (flow.Field, error) {
	if hs.ref.Dx() == 0 {
		return flow.Field{}, fmt.Errorf("horn-schunck has no reference")
	}
	if frame.Dx() != hs.ref.Dx() || frame.Dy() != hs.ref.Dy() {
		return flow.Field{}, fmt.Errorf("frame %s vs reference %s", frame.Stats(), hs.ref.Stats())
	}

	fx, fy, fz := hs.derivatives(&frame)
	w, h := frame.Dx(), frame.Dy()
	help := 1.0 / hs.Alpha

	old := emath.NewField(w, h, 2)
	uv  := emath.NewField(w, h, 2)

	for k:=0; k<hs.Iterations; k++ {
		for y:=0; y<h; y++ {
			for x:=0; x<w; x++ {
				nn := 0.0
				uSum, vSum := 0.0, 0.0
				if x > 0   { nn++; uSum += old.At(x-1, y, 0); vSum += old.At(x-1, y, 1) }
				if x < w-1 { nn++; uSum += old.At(x+1, y, 0); vSum += old.At(x+1, y, 1) }
				if y > 0   { nn++; uSum += old.At(x, y-1, 0); vSum += old.At(x, y-1, 1) }
				if y < h-1 { nn++; uSum += old.At(x, y+1, 0); vSum += old.At(x, y+1, 1) }

				dx, dy, dz := fx.Get(x,y), fy.Get(x,y), fz.Get(x,y)
				u, v := old.At(x, y, 0), old.At(x, y, 1)

				uSum -= help * dx * (dy*v + dz)
				vSum -= help * dy * (dx*u + dz)
				if nn == 0 {
					// 1x1 image, only the data term is left
					uv.Set(x, y, 0, 0)
					uv.Set(x, y, 1, 0)
					continue
				}
				uv.Set(x, y, 0, uSum / (nn + help*dx*dx))
				uv.Set(x, y, 1, vSum / (nn + help*dy*dy))
			}
		}
		copy(old.Pix, uv.Pix)
	}

	return flow.NewPerPixel(uv), nil
}
