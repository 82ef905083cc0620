package synth

import(
	"fmt"

	"github.com/abworrall/synthburst/pkg/emath"
)

// TransformParams are the primitive parameters of one frame's
// distortion.
type TransformParams struct {
	Translation [2]float64 `yaml:"translation"` // [tx, ty] pixels
	Theta       float64    `yaml:"theta"`       // degrees
	Shear       [2]float64 `yaml:"shear"`       // [sx, sy]
	Scale       [2]float64 `yaml:"scale"`       // [scx, scy]
}

// AnchorParams is the only distortion frame 0 carries: a shift that
// centres the sampling grid within each downsampled block.
func AnchorParams(downsampleFactor int) TransformParams {
	shift := float64(downsampleFactor)/2.0 - 0.5
	return TransformParams{
		Translation: [2]float64{shift, shift},
		Scale:       [2]float64{1, 1},
	}
}

func (p TransformParams)String() string {
	return fmt.Sprintf("xform[t(%6.3f,%6.3f), %6.3fdeg, sh(%5.3f,%5.3f), sc(%5.3f,%5.3f)]",
		p.Translation[0], p.Translation[1], p.Theta, p.Shear[0], p.Shear[1], p.Scale[0], p.Scale[1])
}

// A Transform is the composed affine matrix for one frame, along with
// its inverse, which is computed once here and then reused.
type Transform struct {
	Params TransformParams
	M      emath.Aff3
	Inv    emath.Aff3
}

// NewTransform composes M = Scale · Rotation · Shear · Translation
// for an image of size w x h. Rotation and shear are about the image
// center.
func NewTransform(p TransformParams, w, h int) (Transform, error) {
	if p.Scale[0] <= 0 || p.Scale[1] <= 0 {
		return Transform{}, fmt.Errorf("scale must be positive, got (%g,%g)", p.Scale[0], p.Scale[1])
	}

	cx, cy := float64(w) * 0.5, float64(h) * 0.5

	m := emath.Scaling(p.Scale[0], p.Scale[1]).
		Mult(emath.ImageRotation(p.Theta, cx, cy)).
		Mult(emath.ShearAbout(p.Shear[0], p.Shear[1], cx, cy)).
		Mult(emath.Translation(p.Translation[0], p.Translation[1]))

	inv, err := m.Invert()
	if err != nil {
		return Transform{}, fmt.Errorf("%s: %v", p, err)
	}

	return Transform{Params: p, M: m, Inv: inv}, nil
}
