package emath

// Some basic affine transformations, used to distort burst frames and
// to map sampling grids back through those distortions.

import(
	"fmt"
	"math"

	"golang.org/x/image/math/f64"  // Will be "image/math/f64" at some point, hopefully make this file redundant
	"gonum.org/v1/gonum/mat"
)

// Use a local type so we can hang methods off it. The six values are
// the top two rows of a 3x3 homogeneous matrix; the bottom row is
// always [0 0 1].
type Aff3 f64.Aff3

// Cut-n-pasted from image@0.7.0/draw/scale:matMul
func (p Aff3)Mult(q Aff3) Aff3 {
	return Aff3{
		p[3*0+0]*q[3*0+0] + p[3*0+1]*q[3*1+0],
		p[3*0+0]*q[3*0+1] + p[3*0+1]*q[3*1+1],
		p[3*0+0]*q[3*0+2] + p[3*0+1]*q[3*1+2] + p[3*0+2],
		p[3*1+0]*q[3*0+0] + p[3*1+1]*q[3*1+0],
		p[3*1+0]*q[3*0+1] + p[3*1+1]*q[3*1+1],
		p[3*1+0]*q[3*0+2] + p[3*1+1]*q[3*1+2] + p[3*1+2],
	}
}

func Identity() Aff3 {
	return Aff3{1, 0, 0,   0, 1, 0}
}

func Translation(tx, ty float64) Aff3 {
	return Aff3{1, 0, tx,   0, 1, ty}
}

func (m1 Aff3)Translate(tx, ty float64) Aff3 {
	return m1.Mult(Translation(tx, ty))
}

func (m1 Aff3)Rotate(thetaDeg float64) Aff3 {
	cosTheta := math.Cos(thetaDeg * math.Pi / 180.0)
	sinTheta := math.Sin(thetaDeg * math.Pi / 180.0)
	return m1.Mult(Aff3{cosTheta, -1*sinTheta, 0,    sinTheta, cosTheta, 0})
}

func RotateAbout(thetaDeg, x, y float64) Aff3 {
	// Remember they compose back to front - rightmost operations performed first
	return Identity().Translate(x, y).Rotate(thetaDeg).Translate(-1*x, -1*y)
}

// ImageRotation rotates counter-clockwise as seen on screen (where the
// Y axis points down) by thetaDeg, about the point [x,y]. This is the
// same matrix as OpenCV's getRotationMatrix2D with unit scale.
func ImageRotation(thetaDeg, x, y float64) Aff3 {
	return RotateAbout(-1*thetaDeg, x, y)
}

// ShearAbout shears along both axes, offset so that the point [x,y]
// stays put: x' = x + shx*(y-cy), y' = y + shy*(x-cx)
func ShearAbout(shx, shy, x, y float64) Aff3 {
	return Aff3{
		1,   shx, -1*shx*y,
		shy, 1,   -1*shy*x,
	}
}

// Scaling is about the origin, not the image center.
func Scaling(sx, sy float64) Aff3 {
	return Aff3{sx, 0, 0,   0, sy, 0}
}

func (m Aff3)Apply(x, y float64) (float64, float64) {
	return m[0]*x + m[1]*y + m[2],   m[3]*x + m[4]*y + m[5]
}

func (m Aff3)Det() float64 {
	return m[0]*m[4] - m[1]*m[3]
}

// ToMat3 gives the full 3x3 homogeneous form.
func (m Aff3)ToMat3() Mat3 {
	return Mat3{
		m[0], m[1], m[2],
		m[3], m[4], m[5],
		0,    0,    1,
	}
}

func (m Aff3)String() string {
	return m.ToMat3().String()
}

// Invert returns the inverse transform. A transform whose linear part
// is singular (or numerically so) is an error; there is no fallback.
func (m Aff3)Invert() (Aff3, error) {
	if d := m.Det(); math.Abs(d) < 1e-12 || math.IsNaN(d) {
		return Aff3{}, fmt.Errorf("affine transform is singular (det=%g)", d)
	}

	h := m.ToMat3()
	var inv mat.Dense
	if err := inv.Inverse(mat.NewDense(3, 3, h[:])); err != nil {
		return Aff3{}, fmt.Errorf("affine inverse: %v", err)
	}

	out := Aff3{
		inv.At(0, 0), inv.At(0, 1), inv.At(0, 2),
		inv.At(1, 0), inv.At(1, 1), inv.At(1, 2),
	}
	if d := h.Mult(out.ToMat3()).MaxAbsDiff(Identity().ToMat3()); d > 1e-6 {
		return Aff3{}, fmt.Errorf("affine inverse is off by %g", d)
	}
	return out, nil
}

// Actual 3x3 matrixes, used to check homogeneous products
type Vec3 f64.Vec3
type Mat3 f64.Mat3

func (a Mat3)Mult(b Mat3) Mat3 {
	return Mat3{
		a[3*0+0]*b[3*0+0] + a[3*0+1]*b[3*1+0] + a[3*0+2]*b[3*2+0],
		a[3*0+0]*b[3*0+1] + a[3*0+1]*b[3*1+1] + a[3*0+2]*b[3*2+1],
		a[3*0+0]*b[3*0+2] + a[3*0+1]*b[3*1+2] + a[3*0+2]*b[3*2+2],

		a[3*1+0]*b[3*0+0] + a[3*1+1]*b[3*1+0] + a[3*1+2]*b[3*2+0],
		a[3*1+0]*b[3*0+1] + a[3*1+1]*b[3*1+1] + a[3*1+2]*b[3*2+1],
		a[3*1+0]*b[3*0+2] + a[3*1+1]*b[3*1+2] + a[3*1+2]*b[3*2+2],

		a[3*2+0]*b[3*0+0] + a[3*2+1]*b[3*1+0] + a[3*2+2]*b[3*2+0],
		a[3*2+0]*b[3*0+1] + a[3*2+1]*b[3*1+1] + a[3*2+2]*b[3*2+1],
		a[3*2+0]*b[3*0+2] + a[3*2+1]*b[3*1+2] + a[3*2+2]*b[3*2+2],
	}
}

func (m Mat3)Apply(v Vec3) Vec3 {
	return Vec3{
		(m[3*0+0]*v[0] + m[3*0+1]*v[1] + m[3*0+2]*v[2]),
	  (m[3*1+0]*v[0] + m[3*1+1]*v[1] + m[3*1+2]*v[2]),
	  (m[3*2+0]*v[0] + m[3*2+1]*v[1] + m[3*2+2]*v[2]),
	}
}

// MaxAbsDiff is the largest elementwise difference between two matrices.
func (a Mat3)MaxAbsDiff(b Mat3) float64 {
	max := 0.0
	for i:=0; i<9; i++ {
		if d := math.Abs(a[i] - b[i]); d > max { max = d }
	}
	return max
}

func (m Mat3)String() string {
	str := fmt.Sprintf("[%10f, %10f, %10f]\n", m[3*0+0], m[3*0+1], m[3*0+2])
	str += fmt.Sprintf("[%10f, %10f, %10f]\n", m[3*1+0], m[3*1+1], m[3*1+2])
	str += fmt.Sprintf("[%10f, %10f, %10f]\n", m[3*2+0], m[3*2+1], m[3*2+2])
	return str
}
