package synth

import(
	"fmt"

	"github.com/abworrall/synthburst/pkg/emath"
)

// GroundTruthFlow derives the exact displacement field for every
// non-anchor frame: flow_i = -(grid_i - grid_0). Adding flow_i to a
// reference pixel location lands on the matching location in frame i.
// The result has len(grids)-1 entries; entry k is for frame k+1.
func GroundTruthFlow(grids []emath.Field) ([]emath.Field, error) {
	if len(grids) == 0 {
		return nil, fmt.Errorf("no inverse grids")
	}

	ref := grids[0]
	flows := make([]emath.Field, 0, len(grids)-1)

	for i:=1; i<len(grids); i++ {
		diff, err := grids[i].Sub(ref)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %v", i, err)
		}
		flows = append(flows, diff.Scale(-1))
	}
	return flows, nil
}

func (b Burst)GroundTruthFlow() ([]emath.Field, error) {
	return GroundTruthFlow(b.InverseGrids)
}
