package transform

import (
	"fmt"
	"math"
)

// Wavelet is an orthogonal wavelet described by its scaling (low-pass)
// filter. The wavelet (high-pass) filter is derived as the quadrature mirror.
type Wavelet struct {
	Name string
	Lo   []float64
}

var (
	// Haar is the Haar wavelet.
	Haar = Wavelet{
		Name: "haar",
		Lo:   []float64{1 / math.Sqrt2, 1 / math.Sqrt2},
	}

	// DB4 is the Daubechies wavelet with four vanishing moments (eight taps).
	DB4 = Wavelet{
		Name: "db4",
		Lo: []float64{
			0.23037781330885523,
			0.7148465705525415,
			0.6308807679295904,
			-0.02798376941698385,
			-0.18703481171888114,
			0.030841381835986965,
			0.032883011666982945,
			-0.010597401784997278,
		},
	}
)

// WaveletByName returns the wavelet registered under name.
func WaveletByName(name string) (Wavelet, error) {
	switch name {
	case "", Haar.Name:
		return Haar, nil
	case DB4.Name:
		return DB4, nil
	default:
		return Wavelet{}, fmt.Errorf("unknown wavelet %q", name)
	}
}

// hi returns the high-pass filter g[k] = (-1)^k * h[L-1-k].
func (w Wavelet) hi() []float64 {
	n := len(w.Lo)
	g := make([]float64, n)
	for k := range n {
		g[k] = w.Lo[n-1-k]
		if k%2 == 1 {
			g[k] = -g[k]
		}
	}
	return g
}

// forwardStep performs one periodized analysis step on src (even length) and
// writes approximation coefficients to dst[:n/2] and details to dst[n/2:].
func (w Wavelet) forwardStep(dst, src []float64, g []float64) {
	n := len(src)
	half := n / 2
	for i := range half {
		var a, d float64
		for k, h := range w.Lo {
			x := src[(2*i+k)%n]
			a += h * x
			d += g[k] * x
		}
		dst[i] = a
		dst[half+i] = d
	}
}

// inverseStep undoes forwardStep: src holds approximations followed by
// details, dst receives the reconstructed signal.
func (w Wavelet) inverseStep(dst, src []float64, g []float64) {
	n := len(src)
	half := n / 2
	for i := range dst {
		dst[i] = 0
	}
	for i := range half {
		a, d := src[i], src[half+i]
		for k, h := range w.Lo {
			dst[(2*i+k)%n] += h*a + g[k]*d
		}
	}
}

// Decompose1D runs a levels-deep periodized wavelet decomposition of x. The
// result holds the coarsest approximation first, followed by the detail
// coefficients from coarsest to finest.
func Decompose1D(x []float64, w Wavelet, levels int) ([]float64, error) {
	if err := checkLevels(len(x), levels); err != nil {
		return nil, err
	}
	g := w.hi()
	out := make([]float64, len(x))
	copy(out, x)
	tmp := make([]float64, len(x))
	for n := len(x); levels > 0; n, levels = n/2, levels-1 {
		w.forwardStep(tmp[:n], out[:n], g)
		copy(out[:n], tmp[:n])
	}
	return out, nil
}

// Decompose2D runs a levels-deep two-dimensional wavelet decomposition of m.
// After each level the approximation (LL) block occupies the top-left corner
// of the current block and the detail bands fill the remaining quadrants.
func Decompose2D(m Matrix, w Wavelet, levels int) (Matrix, error) {
	if err := checkLevels(m.Rows, levels); err != nil {
		return Matrix{}, err
	}
	if err := checkLevels(m.Cols, levels); err != nil {
		return Matrix{}, err
	}
	g := w.hi()
	out := m.Clone()
	rowBuf := make([]float64, m.Cols)
	colIn := make([]float64, m.Rows)
	colOut := make([]float64, m.Rows)

	rows, cols := m.Rows, m.Cols
	for level := 0; level < levels; level++ {
		for r := range rows {
			row := out.Data[r*out.Cols : r*out.Cols+cols]
			w.forwardStep(rowBuf[:cols], row, g)
			copy(row, rowBuf[:cols])
		}
		for c := range cols {
			for r := range rows {
				colIn[r] = out.Data[r*out.Cols+c]
			}
			w.forwardStep(colOut[:rows], colIn[:rows], g)
			for r := range rows {
				out.Data[r*out.Cols+c] = colOut[r]
			}
		}
		rows, cols = rows/2, cols/2
	}
	return out, nil
}

// Reconstruct2D inverts Decompose2D for the same wavelet and level count.
func Reconstruct2D(m Matrix, w Wavelet, levels int) (Matrix, error) {
	if err := checkLevels(m.Rows, levels); err != nil {
		return Matrix{}, err
	}
	if err := checkLevels(m.Cols, levels); err != nil {
		return Matrix{}, err
	}
	g := w.hi()
	out := m.Clone()
	rowBuf := make([]float64, m.Cols)
	colIn := make([]float64, m.Rows)
	colOut := make([]float64, m.Rows)

	for level := levels - 1; level >= 0; level-- {
		rows, cols := m.Rows>>level, m.Cols>>level
		for c := range cols {
			for r := range rows {
				colIn[r] = out.Data[r*out.Cols+c]
			}
			w.inverseStep(colOut[:rows], colIn[:rows], g)
			for r := range rows {
				out.Data[r*out.Cols+c] = colOut[r]
			}
		}
		for r := range rows {
			row := out.Data[r*out.Cols : r*out.Cols+cols]
			w.inverseStep(rowBuf[:cols], row, g)
			copy(row, rowBuf[:cols])
		}
	}
	return out, nil
}

// LowPass returns the approximation block left in the top-left corner of a
// levels-deep decomposition.
func LowPass(m Matrix, levels int) (Matrix, error) {
	return m.Sub(0, 0, m.Rows>>levels, m.Cols>>levels)
}

// MaxLevel returns the deepest decomposition level supported by a signal of
// length n, i.e. the number of times n can be halved down to 1.
func MaxLevel(n int) int {
	level := 0
	for n > 1 && n%2 == 0 {
		n /= 2
		level++
	}
	return level
}

func checkLevels(n, levels int) error {
	if levels < 0 {
		return fmt.Errorf("negative decomposition level %d", levels)
	}
	if levels > MaxLevel(n) {
		return fmt.Errorf("length %d does not support %d decomposition levels", n, levels)
	}
	return nil
}
