package emath

import(
	"fmt"
	"math"
)

// A Field is a W x H raster with C interleaved float channels. Colour
// images use C=3; coordinate grids and flow fields use C=2, with
// channel 0 the X (column) component and channel 1 the Y (row)
// component.
type Field struct {
	W, H, C int
	Pix     []float64
}

func NewField(w, h, c int) Field {
	return Field{W: w, H: h, C: c, Pix: make([]float64, w*h*c)}
}

func (f *Field)offset(x, y int) int          { return (y*f.W + x) * f.C }
func (f *Field)At(x, y, c int) float64        { return f.Pix[f.offset(x,y) + c] }
func (f *Field)Set(x, y, c int, v float64)    { f.Pix[f.offset(x,y) + c] = v }
func (f *Field)Vec(x, y int) []float64        { o := f.offset(x,y); return f.Pix[o:o+f.C] }
func (f *Field)SameShape(g Field) bool        { return f.W == g.W && f.H == g.H && f.C == g.C }

func (f Field)String() string {
	return fmt.Sprintf("field[%dx%dx%d]", f.W, f.H, f.C)
}

func (f *Field)Copy() Field {
	g := Field{W: f.W, H: f.H, C: f.C, Pix: make([]float64, len(f.Pix))}
	copy(g.Pix, f.Pix)
	return g
}

// Crop trims `border` pixels from every edge.
func (f *Field)Crop(border int) (Field, error) {
	if border <= 0 {
		return f.Copy(), nil
	}
	if 2*border >= f.W || 2*border >= f.H {
		return Field{}, fmt.Errorf("border crop %d leaves nothing of %s", border, f)
	}

	g := NewField(f.W - 2*border, f.H - 2*border, f.C)
	for y:=0; y<g.H; y++ {
		src := f.offset(border, y+border)
		copy(g.Pix[g.offset(0,y):g.offset(0,y)+g.W*g.C], f.Pix[src:src+g.W*g.C])
	}
	return g, nil
}

// Scale multiplies every sample by s.
func (f *Field)Scale(s float64) Field {
	g := f.Copy()
	for i := range g.Pix {
		g.Pix[i] *= s
	}
	return g
}

// Sub returns f - g; the shapes must match.
func (f *Field)Sub(g Field) (Field, error) {
	if !f.SameShape(g) {
		return Field{}, fmt.Errorf("shape mismatch %s vs %s", *f, g)
	}
	h := f.Copy()
	for i := range h.Pix {
		h.Pix[i] -= g.Pix[i]
	}
	return h, nil
}

func (f *Field)Max() float64 {
	max := -1.0 * math.MaxFloat64
	for _, v := range f.Pix {
		if v > max { max = v }
	}
	return max
}

// Channel pulls out a single plane.
func (f *Field)Channel(c int) FloatGrid {
	g := NewFloatGrid(f.W, f.H)
	for y:=0; y<f.H; y++ {
		for x:=0; x<f.W; x++ {
			g.Set(x, y, f.At(x, y, c))
		}
	}
	return g
}

// NewFieldFromPlanes interleaves equally sized planes into a Field.
func NewFieldFromPlanes(planes ...FloatGrid) Field {
	if len(planes) == 0 {
		return Field{}
	}
	f := NewField(planes[0].Dx(), planes[0].Dy(), len(planes))
	for c := range planes {
		for y:=0; y<f.H; y++ {
			for x:=0; x<f.W; x++ {
				f.Set(x, y, c, planes[c].Get(x, y))
			}
		}
	}
	return f
}
