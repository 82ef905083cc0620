package mosaic

import(
	"fmt"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/abworrall/synthburst/pkg/emath"
)

var(
	GreyMethods = []string{"decimating", "gauss", "fft"}
)

// ToGrey removes the color filter pattern from a mosaic, so that it can
// be matched as luminance. It also returns how much smaller than the
// mosaic the grey image is; flows measured on it must be scaled up by
// that factor.
//
//  decimating: each 2x2 block averaged into one pixel (half size)
//  gauss:      3x3 binomial blur, then 2x2 block average (half size)
//  fft:        frequencies from a quarter of the sample rate upwards zeroed (full size)
func ToGrey(m emath.FloatGrid, method string) (emath.FloatGrid, int, error) {
	switch method {
	case "decimating": return m.DownSample(), 2, nil
	case "gauss":      blurred := m.GaussianBlur(); return blurred.DownSample(), 2, nil
	case "fft":        return lowPassFFT(m), 1, nil
	default:
		return emath.FloatGrid{}, 0, fmt.Errorf("no grey method named '%s', wanted one of %v", method, GreyMethods)
	}
}

// GreyScaleFactor is the factor ToGrey would return, without doing the
// work.
func GreyScaleFactor(method string) (int, error) {
	switch method {
	case "decimating", "gauss": return 2, nil
	case "fft":                 return 1, nil
	default:
		return 0, fmt.Errorf("no grey method named '%s', wanted one of %v", method, GreyMethods)
	}
}

// signedFreq maps an FFT bin onto a signed frequency in [-n/2, n/2).
func signedFreq(k, n int) int {
	if k >= (n+1)/2 { return k - n }
	return k
}

func lowPassFFT(m emath.FloatGrid) emath.FloatGrid {
	w, h := m.Dx(), m.Dy()
	data := make([]complex128, w*h)
	for y:=0; y<h; y++ {
		for x:=0; x<w; x++ {
			data[y*w + x] = complex(m.Get(x, y), 0)
		}
	}

	fft2(data, w, h, false)

	for y:=0; y<h; y++ {
		fy := signedFreq(y, h)
		for x:=0; x<w; x++ {
			fx := signedFreq(x, w)
			if 4*abs(fx) >= w || 4*abs(fy) >= h {
				data[y*w + x] = 0
			}
		}
	}

	fft2(data, w, h, true)

	out := m.NewFromThis()
	for y:=0; y<h; y++ {
		for x:=0; x<w; x++ {
			out.Set(x, y, real(data[y*w + x]))
		}
	}
	return out
}

// fft2 transforms row major data in place. The inverse is done with the
// conjugate trick, so only the forward transform is needed.
func fft2(data []complex128, w, h int, inverse bool) {
	rowFFT := fourier.NewCmplxFFT(w)
	colFFT := fourier.NewCmplxFFT(h)

	in := make([]complex128, w)
	out := make([]complex128, w)
	for y:=0; y<h; y++ {
		copy(in, data[y*w:(y+1)*w])
		transform1(rowFFT, in, out, inverse)
		copy(data[y*w:(y+1)*w], out)
	}

	in = make([]complex128, h)
	out = make([]complex128, h)
	for x:=0; x<w; x++ {
		for y:=0; y<h; y++ { in[y] = data[y*w + x] }
		transform1(colFFT, in, out, inverse)
		for y:=0; y<h; y++ { data[y*w + x] = out[y] }
	}
}

func transform1(t *fourier.CmplxFFT, in, out []complex128, inverse bool) {
	if !inverse {
		t.Coefficients(out, in)
		return
	}

	n := float64(len(in))
	for i := range in { in[i] = cmplx.Conj(in[i]) }
	t.Coefficients(out, in)
	for i := range out { out[i] = cmplx.Conj(out[i]) / complex(n, 0) }
}

func abs(v int) int {
	if v < 0 { return -v }
	return v
}
