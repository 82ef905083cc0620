package mosaic

import(
	"fmt"

	"github.com/abworrall/synthburst/pkg/emath"
)

// A CFA says which colour channel (0=R, 1=G, 2=B) is sampled at each
// phase of the 2x2 color filter array, indexed as [row%2][col%2].
type CFA [2][2]int

// DefaultCFA is a BGGR Bayer layout; the two diagonal phases share green.
var DefaultCFA = CFA{{2, 1}, {1, 0}}

func (cfa CFA)Validate() error {
	for _, row := range cfa {
		for _, c := range row {
			if c < 0 || c > 2 {
				return fmt.Errorf("CFA %v: channel %d out of range", cfa, c)
			}
		}
	}
	return nil
}

func (cfa CFA)ChannelAt(x, y int) int { return cfa[y%2][x%2] }

// Decimate turns a full color frame into a single channel mosaic. An
// odd last row or column is dropped first, so every 2x2 block is whole.
func (cfa CFA)Decimate(frame emath.Field) (emath.FloatGrid, error) {
	if frame.C != 3 {
		return emath.FloatGrid{}, fmt.Errorf("mosaic needs a 3 channel frame, got %s", frame)
	}

	w, h := frame.W & ^1, frame.H & ^1   // ignore last column and row in odd-sized images
	m := emath.NewFloatGrid(w, h)

	for y:=0; y<h; y++ {
		for x:=0; x<w; x++ {
			m.Set(x, y, frame.At(x, y, cfa.ChannelAt(x, y)))
		}
	}
	return m, nil
}

// DecimateBurst mosaics every frame in the stack.
func (cfa CFA)DecimateBurst(frames []emath.Field) ([]emath.FloatGrid, error) {
	if err := cfa.Validate(); err != nil {
		return nil, err
	}

	out := make([]emath.FloatGrid, len(frames))
	for i := range frames {
		m, err := cfa.Decimate(frames[i])
		if err != nil {
			return nil, fmt.Errorf("frame %d: %v", i, err)
		}
		out[i] = m
	}
	return out, nil
}
