package flowviz

import(
	"fmt"
	"math"

	"github.com/fogleman/gg"
)

// A Curve is one line on an error plot.
type Curve struct {
	Name   string
	Values []float64
	R,G,B  float64
}

var(
	plotW, plotH = 640, 400
	plotMargin   = 40.0
)

// PlotCurves draws the curves against their index, all sharing one
// Y axis that starts at zero.
func PlotCurves(title string, curves []Curve, filename string) error {
	maxN, maxV := 0, 0.0
	for _, c := range curves {
		if len(c.Values) > maxN { maxN = len(c.Values) }
		for _, v := range c.Values {
			if !math.IsNaN(v) && v > maxV { maxV = v }
		}
	}
	if maxN < 2 { maxN = 2 }
	if maxV <= 0 { maxV = 1 }

	dc := gg.NewContext(plotW, plotH)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	x0, y0 := plotMargin, float64(plotH) - plotMargin
	xs := (float64(plotW) - 2*plotMargin) / float64(maxN-1)
	ys := (float64(plotH) - 2*plotMargin) / maxV

	// Axes
	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(1)
	dc.DrawLine(x0, y0, float64(plotW)-plotMargin, y0)
	dc.DrawLine(x0, y0, x0, plotMargin)
	dc.Stroke()
	dc.DrawString(title, x0, 20)
	dc.DrawString(fmt.Sprintf("%.3f", maxV), 2, plotMargin)
	dc.DrawString("0", 2, y0)

	for n, c := range curves {
		dc.SetRGB(c.R, c.G, c.B)
		dc.SetLineWidth(2)
		for i, v := range c.Values {
			x, y := x0 + float64(i)*xs, y0 - v*ys
			if i == 0 {
				dc.MoveTo(x, y)
			} else {
				dc.LineTo(x, y)
			}
		}
		dc.Stroke()
		dc.DrawString(c.Name, float64(plotW)-plotMargin-100, plotMargin + float64(n+1)*16)
	}

	return dc.SavePNG(filename)
}
