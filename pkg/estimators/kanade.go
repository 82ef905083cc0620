package estimators

import(
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/abworrall/synthburst/pkg/emath"
	"github.com/abworrall/synthburst/pkg/flow"
)

// LucasKanade refines a per-tile flow with inverse compositional
// Lucas-Kanade: each tile is treated as a pure translation, and the
// Hessian only depends on the reference, so it is built once per tile.
type LucasKanade struct {
	LucasKanadeConfig
	ref    emath.FloatGrid
	gx, gy emath.FloatGrid
}

func NewLucasKanade(c LucasKanadeConfig) (*LucasKanade, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &LucasKanade{LucasKanadeConfig: c}, nil
}

func (lk *LucasKanade)SetReference(ref emath.FloatGrid) error {
	if ref.Dx() < 2 || ref.Dy() < 2 {
		return fmt.Errorf("reference %s too small for gradients", ref.Stats())
	}
	lk.ref = ref
	lk.gx, lk.gy = ref.Gradients()
	return nil
}

type tileBox struct {
	x0, y0, x1, y1 int
	hess           *mat.SymDense
	ok             bool
}

func (lk *LucasKanade)tileBoxes(seed flow.Field) []tileBox {
	boxes := make([]tileBox, seed.W*seed.H)
	for j:=0; j<seed.H; j++ {
		for i:=0; i<seed.W; i++ {
			b := tileBox{
				x0: i*seed.Step, y0: j*seed.Step,
				x1: emath.ClampInt(i*seed.Step + seed.TileSize, 0, lk.ref.Dx()),
				y1: emath.ClampInt(j*seed.Step + seed.TileSize, 0, lk.ref.Dy()),
			}

			var a, bb, c float64
			for y:=b.y0; y<b.y1; y++ {
				for x:=b.x0; x<b.x1; x++ {
					gx, gy := lk.gx.Get(x, y), lk.gy.Get(x, y)
					a += gx*gx
					bb += gx*gy
					c += gy*gy
				}
			}
			b.hess = mat.NewSymDense(2, []float64{a, bb, bb, c})
			// Flat or edge-only tiles can't be solved; they keep their seed
			b.ok = math.Abs(a*c - bb*bb) > 1e-9 * (a*c + 1e-12)
			boxes[j*seed.W+i] = b
		}
	}
	return boxes
}

// Refine returns the seed, followed by the flow after each iteration.
func (lk *LucasKanade)Refine(frame emath.FloatGrid, seed flow.Field) ([]flow.Field, error) {
	if lk.gx.Dx() == 0 {
		return nil, fmt.Errorf("lucas-kanade has no reference")
	}
	if frame.Dx() != lk.ref.Dx() || frame.Dy() != lk.ref.Dy() {
		return nil, fmt.Errorf("frame %s vs reference %s", frame.Stats(), lk.ref.Stats())
	}
	if seed.Kind != flow.PerTile || seed.C != 2 {
		return nil, fmt.Errorf("lucas-kanade needs a per-tile seed, got %s", seed)
	}

	boxes := lk.tileBoxes(seed)
	out := []flow.Field{seed}
	curr := seed

	for it:=0; it<lk.Iterations; it++ {
		next := curr
		next.Field = curr.Field.Copy()

		for j:=0; j<seed.H; j++ {
			for i:=0; i<seed.W; i++ {
				b := &boxes[j*seed.W+i]
				if !b.ok {
					continue
				}
				u, v := curr.At(i, j, 0), curr.At(i, j, 1)

				var r0, r1 float64
				for y:=b.y0; y<b.y1; y++ {
					for x:=b.x0; x<b.x1; x++ {
						r := frame.Bilinear(float64(x)+u, float64(y)+v) - lk.ref.Get(x, y)
						r0 += lk.gx.Get(x, y) * r
						r1 += lk.gy.Get(x, y) * r
					}
				}

				var delta mat.VecDense
				if err := delta.SolveVec(b.hess, mat.NewVecDense(2, []float64{r0, r1})); err != nil {
					continue
				}
				next.Set(i, j, 0, u - delta.AtVec(0))
				next.Set(i, j, 1, v - delta.AtVec(1))
			}
		}

		out = append(out, next)
		curr = next
	}

	return out, nil
}
