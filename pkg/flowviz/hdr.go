package flowviz

import(
	"fmt"
	"image"
	"image/color"
	"os"

	"github.com/mdouchement/hdr/codec/rgbe"
	"github.com/mdouchement/hdr/hdrcolor"
	"github.com/mdouchement/hdr/tmo"

	"github.com/abworrall/synthburst/pkg/emath"
)

// FrameImage presents a 3 channel burst frame as an HDR image. Colour
// values are divided by Max, so a [0,255] frame reads as [0,1].
type FrameImage struct {
	emath.Field
	Max float64
}

func NewFrameImage(f emath.Field, normalized bool) (FrameImage, error) {
	if f.C != 3 {
		return FrameImage{}, fmt.Errorf("frame image needs 3 channels, got %s", f)
	}
	fi := FrameImage{Field: f, Max: 255}
	if normalized {
		fi.Max = 1
	}
	return fi, nil
}

func (fi FrameImage)ColorModel() color.Model       { return hdrcolor.RGBModel }
func (fi FrameImage)Bounds() image.Rectangle       { return image.Rect(0, 0, fi.W, fi.H) }
func (fi FrameImage)At(x, y int) color.Color       { return fi.HDRAt(x,y) }
func (fi FrameImage)Size() int                     { return fi.W * fi.H }
func (fi FrameImage)HDRAt(x, y int) hdrcolor.Color {
	v := fi.Vec(x, y)
	return hdrcolor.RGB{R: v[0]/fi.Max, G: v[1]/fi.Max, B: v[2]/fi.Max}
}

// WriteHDR outputs a Radiance RGBE image.
func (fi FrameImage)WriteHDR(filename string) error {
	writer, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("WriteHDR, open+w '%s': %v", filename, err)
	}
	defer writer.Close()

	if err := rgbe.Encode(writer, fi); err != nil {
		return fmt.Errorf("WriteHDR, encoding RGBE file '%s': %v", filename, err)
	}
	return nil
}

// WritePNG tonemaps linearly down to 8 bits.
func (fi FrameImage)WritePNG(filename string) error {
	return WritePNG(tmo.NewLinear(fi).Perform(), filename)
}
