package transform

import (
	"gonum.org/v1/gonum/dsp/fourier"
)

// The quarter-wave inverse transform (FFTPACK cosqb) is an unnormalized
// DCT-II: coefficient k is 4·Σ x[n]·cos(πk(2n+1)/2N). The common factor does
// not move any coefficient across a median or mean threshold.

// DCTRows applies a one-dimensional DCT-II to every row of m and returns the
// result as a new matrix.
func DCTRows(m Matrix) Matrix {
	out := NewMatrix(m.Rows, m.Cols)
	if m.Cols == 0 {
		return out
	}
	dct := fourier.NewQuarterWaveFFT(m.Cols)
	for r := range m.Rows {
		dct.CosSequence(out.Data[r*m.Cols:(r+1)*m.Cols], m.Data[r*m.Cols:(r+1)*m.Cols])
	}
	return out
}

// DCTColumns applies a one-dimensional DCT-II to every column of m and
// returns the result as a new matrix.
func DCTColumns(m Matrix) Matrix {
	out := NewMatrix(m.Rows, m.Cols)
	if m.Rows == 0 {
		return out
	}
	dct := fourier.NewQuarterWaveFFT(m.Rows)
	column := make([]float64, m.Rows)
	for c := range m.Cols {
		for r := range m.Rows {
			column[r] = m.Data[r*m.Cols+c]
		}
		dct.CosSequence(column, column)
		for r := range m.Rows {
			out.Data[r*m.Cols+c] = column[r]
		}
	}
	return out
}

// DCT2D computes the separable two-dimensional DCT-II of m, columns first.
// The coefficient at (0,0) is the DC term.
func DCT2D(m Matrix) Matrix {
	return DCTRows(DCTColumns(m))
}
