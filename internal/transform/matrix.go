/*
Package transform provides the numeric transforms used by the hash algorithms:
a two-dimensional DCT-II and a multi-level two-dimensional discrete wavelet
transform over row-major float matrices.
*/
package transform

import (
	"fmt"
	"math"
	"sort"
)

// Matrix is a two-dimensional grid of float64 values. The value at (row, col)
// is stored at Data[row*Cols+col].
type Matrix struct {
	Data []float64

	// The number of rows in the matrix.
	Rows int

	// The number of columns in the matrix.
	Cols int
}

// NewMatrix returns a zero-filled matrix of the given shape.
func NewMatrix(rows, cols int) Matrix {
	return Matrix{
		Data: make([]float64, rows*cols),
		Rows: rows,
		Cols: cols,
	}
}

// At returns the value at (row, col).
func (m Matrix) At(row, col int) float64 {
	return m.Data[row*m.Cols+col]
}

// Set sets the value at (row, col).
func (m Matrix) Set(row, col int, value float64) {
	m.Data[row*m.Cols+col] = value
}

// Clone returns a deep copy of the matrix.
func (m Matrix) Clone() Matrix {
	data := make([]float64, len(m.Data))
	copy(data, m.Data)
	return Matrix{Data: data, Rows: m.Rows, Cols: m.Cols}
}

// Sub returns a copy of the rows×cols block starting at (row, col).
func (m Matrix) Sub(row, col, rows, cols int) (Matrix, error) {
	if row < 0 || col < 0 || row+rows > m.Rows || col+cols > m.Cols {
		return Matrix{}, fmt.Errorf("block %dx%d at (%d,%d) outside %dx%d matrix", rows, cols, row, col, m.Rows, m.Cols)
	}
	out := NewMatrix(rows, cols)
	for r := range rows {
		copy(out.Data[r*cols:(r+1)*cols], m.Data[(row+r)*m.Cols+col:(row+r)*m.Cols+col+cols])
	}
	return out, nil
}

// Scale multiplies every value by factor, in place.
func (m Matrix) Scale(factor float64) {
	for i := range m.Data {
		m.Data[i] *= factor
	}
}

// Mean returns the arithmetic mean of all values.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Median returns the median value from a slice.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}

// Standardize rescales values in place to zero mean and unit standard
// deviation. Values are left untouched when the standard deviation is zero.
func Standardize(values []float64) {
	mean := Mean(values)
	var variance float64
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	if len(values) > 0 {
		variance /= float64(len(values))
	}
	std := math.Sqrt(variance)
	if std == 0 {
		return
	}
	for i := range values {
		values[i] = (values[i] - mean) / std
	}
}
