package estimators

import(
	"fmt"
	"math"

	"github.com/abworrall/synthburst/pkg/emath"
	"github.com/abworrall/synthburst/pkg/flow"
)

// BlockMatcher finds, for each non-overlapping tile of the reference,
// the integer offset into the frame with the least squared difference.
// It works coarse to fine over a box pyramid; each level searches
// around twice (or whatever the factor is) the coarser level's answer.
type BlockMatcher struct {
	BlockMatcherConfig
	ref []emath.FloatGrid // finest first
}

func NewBlockMatcher(c BlockMatcherConfig) (*BlockMatcher, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &BlockMatcher{BlockMatcherConfig: c}, nil
}

func (bm *BlockMatcher)Factors() []int { return bm.BlockMatcherConfig.Factors }

func (bm *BlockMatcher)pyramid(g emath.FloatGrid) ([]emath.FloatGrid, error) {
	pyr := make([]emath.FloatGrid, len(bm.BlockMatcherConfig.Factors))
	curr := g
	for i, f := range bm.BlockMatcherConfig.Factors {
		curr = curr.DownSampleBy(f)
		if curr.Dx() < 1 || curr.Dy() < 1 {
			return nil, fmt.Errorf("pyramid level %d: %dx%d image is too small for factors %v", i, g.Dx(), g.Dy(), bm.BlockMatcherConfig.Factors)
		}
		pyr[i] = curr
	}
	return pyr, nil
}

func (bm *BlockMatcher)SetReference(ref emath.FloatGrid) error {
	pyr, err := bm.pyramid(ref)
	if err != nil {
		return err
	}
	bm.ref = pyr
	return nil
}

func (bm *BlockMatcher)Align(frame emath.FloatGrid) ([]flow.Field, error) {
	if bm.ref == nil {
		return nil, fmt.Errorf("block matcher has no reference")
	}
	pyr, err := bm.pyramid(frame)
	if err != nil {
		return nil, err
	}
	for i := range pyr {
		if pyr[i].Dx() != bm.ref[i].Dx() || pyr[i].Dy() != bm.ref[i].Dy() {
			return nil, fmt.Errorf("level %d: frame %s vs reference %s", i, pyr[i].Stats(), bm.ref[i].Stats())
		}
	}

	n := len(pyr)
	out := make([]flow.Field, 0, n)
	var coarser *flow.Field
	for l:=n-1; l>=0; l-- {
		f := bm.matchLevel(&bm.ref[l], &pyr[l], coarser, l)
		out = append(out, f)
		coarser = &out[len(out)-1]
	}

	return out, nil
}

func tileCount(n, size int) int {
	return (n + size - 1) / size
}

// prior is the coarser level's flow for the tile containing this
// tile's center, in this level's pixels.
func (bm *BlockMatcher)prior(coarser *flow.Field, l, i, j int) (float64, float64) {
	if coarser == nil {
		return 0, 0
	}
	up := float64(bm.BlockMatcherConfig.Factors[l+1])
	cx, cy := float64(i*bm.TileSize) + float64(bm.TileSize)/2, float64(j*bm.TileSize) + float64(bm.TileSize)/2
	ci := emath.ClampInt(int(cx / up) / bm.TileSize, 0, coarser.W-1)
	cj := emath.ClampInt(int(cy / up) / bm.TileSize, 0, coarser.H-1)
	return coarser.At(ci, cj, 0) * up, coarser.At(ci, cj, 1) * up
}

func (bm *BlockMatcher)matchLevel(ref, frame *emath.FloatGrid, coarser *flow.Field, l int) flow.Field {
	T := bm.TileSize
	nx, ny := tileCount(ref.Dx(), T), tileCount(ref.Dy(), T)
	f := emath.NewField(nx, ny, 2)

	for j:=0; j<ny; j++ {
		for i:=0; i<nx; i++ {
			px, py := bm.prior(coarser, l, i, j)
			gx, gy := int(math.Round(px)), int(math.Round(py))

			best, bestDx, bestDy := math.MaxFloat64, gx, gy
			for dy := gy - bm.SearchRadius; dy <= gy + bm.SearchRadius; dy++ {
				for dx := gx - bm.SearchRadius; dx <= gx + bm.SearchRadius; dx++ {
					cost := tileCost(ref, frame, i*T, j*T, T, dx, dy, best)
					// Ties go to the smaller displacement
					if cost < best || (cost == best && abs(dx)+abs(dy) < abs(bestDx)+abs(bestDy)) {
						best, bestDx, bestDy = cost, dx, dy
					}
				}
			}

			f.Set(i, j, 0, float64(bestDx))
			f.Set(i, j, 1, float64(bestDy))
		}
	}

	return flow.NewPerTile(f, T, T)
}

// tileCost is the sum of squared differences between the reference
// tile at [x0,y0] and the frame moved by [dx,dy]. It gives up once it
// passes `bail`.
func tileCost(ref, frame *emath.FloatGrid, x0, y0, T, dx, dy int, bail float64) float64 {
	cost := 0.0
	xmax, ymax := emath.ClampInt(x0+T, 0, ref.Dx()), emath.ClampInt(y0+T, 0, ref.Dy())
	for y:=y0; y<ymax; y++ {
		for x:=x0; x<xmax; x++ {
			d := ref.Get(x, y) - frame.GetClamped(x+dx, y+dy)
			cost += d*d
		}
		if cost > bail {
			return cost
		}
	}
	return cost
}

func abs(v int) int {
	if v < 0 { return -v }
	return v
}
