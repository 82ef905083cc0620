package emath

import(
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg" // Move to https://pkg.go.dev/golang.org/x/image/font#Drawer sometime
)

// A FloatGrid is a single plane of floats, with some operations. It
// holds mosaics, grey images and the levels of a matching pyramid.
type FloatGrid struct {
	stride int
	values []float64
}

func NewFloatGrid(w, h int) FloatGrid {
	return FloatGrid{
		stride: w,
		values: make([]float64, w*h),
	}
}

func (g1 *FloatGrid)NewFromThis() FloatGrid  { return NewFloatGrid(g1.Dx(), g1.Dy()) }
func (fg *FloatGrid)Set(x, y int, v float64) { fg.values[fg.stride*y + x] = v }
func (fg *FloatGrid)Get(x, y int) float64    { return fg.values[fg.stride*y + x] }
func (fg *FloatGrid)Dx() int                 { return fg.stride }
func (fg *FloatGrid)Dy() int {
	if fg.stride == 0 { return 0 }
	return len(fg.values) / fg.stride
}

// GetClamped reads with replicated borders.
func (fg *FloatGrid)GetClamped(x, y int) float64 {
	return fg.Get(ClampInt(x, 0, fg.Dx()-1), ClampInt(y, 0, fg.Dy()-1))
}

func (g1 *FloatGrid)Copy() *FloatGrid {
	g2 := FloatGrid{stride: g1.stride, values:make([]float64, len(g1.values))}
	copy(g2.values, g1.values)
	return &g2
}

// Bilinear samples the grid at a fractional location, with replicated
// borders.
func (fg *FloatGrid)Bilinear(x, y float64) float64 {
	x0, y0 := math.Floor(x), math.Floor(y)
	fx, fy := x - x0, y - y0
	ix, iy := int(x0), int(y0)

	top := (1-fx)*fg.GetClamped(ix, iy)   + fx*fg.GetClamped(ix+1, iy)
	bot := (1-fx)*fg.GetClamped(ix, iy+1) + fx*fg.GetClamped(ix+1, iy+1)
	return (1-fy)*top + fy*bot
}

func (g1 FloatGrid)GaussianBlur() FloatGrid {
	width := g1.Dx()
	height := g1.Dy()
	g2 := g1.NewFromThis()
	if width < 2 || height < 2 {
		copy(g2.values, g1.values)
		return g2
	}

	T  := g1.NewFromThis()

	//--- X blur, build up in T
	for y:=0; y<height; y++ {
		for x:=1; x<width-1; x++ {
			t := 2.0*g1.Get(x,y)
			t += g1.Get(x-1,y)
			t += g1.Get(x+1,y)
			T.Set(x, y, t/4.0)
		}
		T.Set(0, y,       (3.0*g1.Get(0,      y) + g1.Get(1,      y)) / 4.0)
		T.Set(width-1, y, (3.0*g1.Get(width-1,y) + g1.Get(width-2,y)) / 4.0)
	}

	//--- Y blur, read from T and generate output
	for x:=0; x<width; x++ {
		for y:=1; y<height-1; y++ {
			t := 2.0*T.Get(x,y)
			t += T.Get(x,y-1)
			t += T.Get(x,y+1)
			g2.Set(x, y, t/4.0)
		}
		g2.Set(x, 0,        (3.0*T.Get(x,       0) + T.Get(x,       1)) / 4.0)
		g2.Set(x, height-1, (3.0*T.Get(x,height-1) + T.Get(x,height-2)) / 4.0)
	}

	return g2
}

// Gradients returns the horizontal and vertical central differences,
// with one-sided differences along the edges.
func (H *FloatGrid)Gradients() (FloatGrid, FloatGrid) {
	gx := H.NewFromThis()
	gy := H.NewFromThis()

	width := H.Dx()
	height := H.Dy()

	for y:=0; y<height; y++ {
		for x:=0; x<width; x++ {
			w, e := x-1, x+1
			n, s := y-1, y+1
			if x == 0        { w = 0 }
			if x == width-1  { e = x }
			if y == 0        { n = 0 }
			if y == height-1 { s = y }

			if e > w { gx.Set(x, y, (H.Get(e,y) - H.Get(w,y)) / float64(e-w)) }
			if s > n { gy.Set(x, y, (H.Get(x,s) - H.Get(x,n)) / float64(s-n)) }
		}
	}

	return gx, gy
}

// DownSample returns a grid that is 1/4 of the size, averaging the values from the
// original.
func (g1 *FloatGrid)DownSample() FloatGrid {
	return g1.DownSampleBy(2)
}

// DownSampleBy averages each f*f block into one value. Trailing rows
// and columns that don't fill a whole block are dropped.
func (g1 *FloatGrid)DownSampleBy(f int) FloatGrid {
	if f <= 1 {
		return *g1.Copy()
	}
	width := g1.Dx() / f
	height := g1.Dy() / f
	g2 := NewFloatGrid(width, height)
	norm := float64(f*f)

	for y:=0; y<height; y++ {
		for x:=0; x<width; x++ {
			p := 0.0
			for j:=0; j<f; j++ {
				for i:=0; i<f; i++ {
					p += g1.Get(f*x+i, f*y+j)
				}
			}
			g2.Set(x, y, p/norm)
		}
	}

	return g2
}

// UpSampleByInto populates a grid `B`, which is assumed be f times as
// big, by simply copying each value from `A` into an f x f block of
// values in `B`. Any of `B` past the end of `A` repeats its last row
// or column.
func (A *FloatGrid)UpSampleByInto(f int, B *FloatGrid) {
	awidth  := A.Dx()
	aheight := A.Dy()
	width   := B.Dx()
	height  := B.Dy()

	for y:=0; y<height; y++ {
		for x:=0; x<width; x++ {
			ax := x/f
			ay := y/f
			if ax >= awidth  { ax = awidth-1 }
			if ay >= aheight { ay = aheight-1 }
			B.Set(x, y, A.Get(ax, ay))
		}
	}
}

func (fg *FloatGrid)MinMax() (float64, float64) {
	min := math.MaxFloat64
	max := -1.0  * min

	for i:=0 ; i<len(fg.values) ; i++ {
		if fg.values[i] > max { max = fg.values[i] }
		if fg.values[i] < min { min = fg.values[i] }
	}
	return min, max
}

func (fg *FloatGrid)Stats() string {
	min, max := fg.MinMax()
	return fmt.Sprintf("fg[%dx%d, vals{%f,%f}]", fg.Dx(), fg.Dy(), min, max)
}

// ToImg saves a simple grayscale, based on the range of values in the grid, and gamma scaling the
// gray to look normal for human vision
func (fg *FloatGrid)ToImg(title, filename string) error {
	min, max := fg.MinMax()
	if max <= min { max = min + 1 }

	img := image.NewRGBA64(image.Rectangle{Max:image.Point{fg.Dx(), fg.Dy()}})
	for x:=0; x<fg.Dx(); x++ {
		for y:=0; y<fg.Dy(); y++ {
			lum := fg.Get(x,y)
			gray := GammaExpand_F64 ((lum - min) / (max - min))
			col := color.RGBA64{uint16(gray * 65535.0), uint16(gray * 65535.0), uint16(gray * 65535.0), 0xFFFF}
			img.Set(x, y, col)
		}
	}

	dc := gg.NewContextForImage(img)
	dc.SetRGB(1,0,0)
	dc.DrawString(title, 10, 20)
	return dc.SavePNG(filename)
}
