package synth

import(
	"github.com/abworrall/synthburst/pkg/emath"
)

// NewSampleGrid enumerates every pixel of a w x h frame as the
// homogeneous coordinate (col, row, 1).
func NewSampleGrid(w, h int) emath.Field {
	g := emath.NewField(w, h, 3)
	for y:=0; y<h; y++ {
		for x:=0; x<w; x++ {
			v := g.Vec(x, y)
			v[0], v[1], v[2] = float64(x), float64(y), 1
		}
	}
	return g
}

// InverseGrid maps the sample grid through the frame's inverse
// transform, giving for each reference pixel the source image
// coordinate that produced it. The homogeneous coordinate is dropped.
func InverseGrid(t Transform, sampleGrid emath.Field) emath.Field {
	inv := t.Inv.ToMat3()
	out := emath.NewField(sampleGrid.W, sampleGrid.H, 2)

	for y:=0; y<sampleGrid.H; y++ {
		for x:=0; x<sampleGrid.W; x++ {
			p := sampleGrid.Vec(x, y)
			q := inv.Apply(emath.Vec3{p[0], p[1], p[2]})
			out.Set(x, y, 0, q[0])
			out.Set(x, y, 1, q[1])
		}
	}
	return out
}
