/*
Package fingerprint computes perceptual image fingerprints: compact bit grids
for which visually similar images produce a small Hamming distance.

Available algorithms are the average, difference, perceptual (DCT), wavelet
and colour hashes, plus a crop-resistant hash that fingerprints every large
region of an image separately.

Every function in this package is pure: fingerprints are immutable once
built and may be shared between goroutines.
*/
package fingerprint

import (
	"fmt"
	"math/big"
	"math/bits"
	"strings"
)

// Shape is the number of rows and columns of a fingerprint grid.
type Shape struct {
	Rows, Cols int
}

func (s Shape) String() string {
	return fmt.Sprintf("%dx%d", s.Rows, s.Cols)
}

// Fingerprint is a fixed-shape grid of bits stored in row-major order.
type Fingerprint struct {
	bits []bool
	rows int
	cols int
}

// New builds a fingerprint from row-major bits.
func New(rows, cols int, bits []bool) (*Fingerprint, error) {
	if rows <= 0 || cols <= 0 {
		return nil, configError("shape", "%dx%d is not a valid fingerprint shape", rows, cols)
	}
	if len(bits) != rows*cols {
		return nil, configError("shape", "%d bits do not fill a %dx%d grid", len(bits), rows, cols)
	}
	fp := newFingerprint(rows, cols)
	copy(fp.bits, bits)
	return fp, nil
}

// FromBools builds a fingerprint from a rectangular grid.
func FromBools(grid [][]bool) (*Fingerprint, error) {
	if len(grid) == 0 || len(grid[0]) == 0 {
		return nil, configError("shape", "empty grid")
	}
	fp := newFingerprint(len(grid), len(grid[0]))
	for r, row := range grid {
		if len(row) != fp.cols {
			return nil, configError("shape", "row %d has %d columns, expected %d", r, len(row), fp.cols)
		}
		copy(fp.bits[r*fp.cols:], row)
	}
	return fp, nil
}

func newFingerprint(rows, cols int) *Fingerprint {
	return &Fingerprint{
		bits: make([]bool, rows*cols),
		rows: rows,
		cols: cols,
	}
}

// Rows returns the number of rows.
func (f *Fingerprint) Rows() int { return f.rows }

// Cols returns the number of columns.
func (f *Fingerprint) Cols() int { return f.cols }

// Shape returns the grid shape.
func (f *Fingerprint) Shape() Shape { return Shape{Rows: f.rows, Cols: f.cols} }

// Len returns the number of bits.
func (f *Fingerprint) Len() int { return len(f.bits) }

// Bit returns the bit at (row, col).
func (f *Fingerprint) Bit(row, col int) bool {
	return f.bits[row*f.cols+col]
}

// Bools returns a copy of the grid.
func (f *Fingerprint) Bools() [][]bool {
	grid := make([][]bool, f.rows)
	for r := range grid {
		grid[r] = make([]bool, f.cols)
		copy(grid[r], f.bits[r*f.cols:(r+1)*f.cols])
	}
	return grid
}

// Distance returns the Hamming distance between two fingerprints of the same
// shape.
func (f *Fingerprint) Distance(other *Fingerprint) (int, error) {
	if err := f.checkShape(other); err != nil {
		return 0, err
	}
	distance := 0
	for start := 0; start < len(f.bits); start += 64 {
		end := min(start+64, len(f.bits))
		distance += HammingDistance(packWord(f.bits[start:end]), packWord(other.bits[start:end]))
	}
	return distance, nil
}

// packWord packs up to 64 bits into a word, first bit most significant.
func packWord(bits []bool) uint64 {
	var w uint64
	for _, b := range bits {
		w <<= 1
		if b {
			w |= 1
		}
	}
	return w
}

// Equal reports whether both fingerprints hold the same bits. Fingerprints of
// different shape cannot be compared.
func (f *Fingerprint) Equal(other *Fingerprint) (bool, error) {
	distance, err := f.Distance(other)
	if err != nil {
		return false, err
	}
	return distance == 0, nil
}

// SameAs is Equal without the error: fingerprints of different shape are
// simply not the same.
func (f *Fingerprint) SameAs(other *Fingerprint) bool {
	equal, err := f.Equal(other)
	return err == nil && equal
}

// IsNonZero reports whether any bit is set.
func (f *Fingerprint) IsNonZero() bool {
	for _, b := range f.bits {
		if b {
			return true
		}
	}
	return false
}

// OnesCount returns the number of set bits.
func (f *Fingerprint) OnesCount() int {
	n := 0
	for _, b := range f.bits {
		if b {
			n++
		}
	}
	return n
}

// BitVariance returns 4p(1-p) where p is the fraction of set bits: 1 for a
// balanced fingerprint, 0 for a constant one.
func (f *Fingerprint) BitVariance() float64 {
	if len(f.bits) == 0 {
		return 0
	}
	p := float64(f.OnesCount()) / float64(len(f.bits))
	return 4 * p * (1 - p)
}

// BigInt returns the row-major bits as an integer, the first bit being the
// most significant.
func (f *Fingerprint) BigInt() *big.Int {
	n := new(big.Int)
	for _, b := range f.bits {
		n.Lsh(n, 1)
		if b {
			n.SetBit(n, 0, 1)
		}
	}
	return n
}

// Uint64 is BigInt for fingerprints of at most 64 bits.
func (f *Fingerprint) Uint64() (uint64, error) {
	if len(f.bits) > 64 {
		return 0, fmt.Errorf("fingerprint has %d bits, more than fit in a uint64", len(f.bits))
	}
	return packWord(f.bits), nil
}

// String returns the hex form of the fingerprint.
func (f *Fingerprint) String() string {
	return f.Hex()
}

// GoString renders the grid as rows of 0 and 1.
func (f *Fingerprint) GoString() string {
	var sb strings.Builder
	for r := range f.rows {
		for c := range f.cols {
			if f.Bit(r, c) {
				sb.WriteByte('1')
			} else {
				sb.WriteByte('0')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// MarshalText implements encoding.TextMarshaler.
func (f *Fingerprint) MarshalText() ([]byte, error) {
	return []byte(f.Hex()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler for square fingerprints.
func (f *Fingerprint) UnmarshalText(text []byte) error {
	parsed, err := FromHex(string(text))
	if err != nil {
		return err
	}
	*f = *parsed
	return nil
}

func (f *Fingerprint) checkShape(other *Fingerprint) error {
	if other == nil {
		return configError("fingerprint", "other fingerprint must not be nil")
	}
	if f.rows != other.rows || f.cols != other.cols {
		return &ShapeMismatchError{A: f.Shape(), B: other.Shape()}
	}
	return nil
}

// HammingDistance counts the differing bits of two 64-bit words.
func HammingDistance(hash1, hash2 uint64) int {
	return bits.OnesCount64(hash1 ^ hash2)
}

// Similar returns true if two fingerprints are within the given threshold.
// A threshold of 10 is typically used for near-duplicate detection on 64-bit
// fingerprints.
func Similar(a, b *Fingerprint, threshold int) (bool, error) {
	distance, err := a.Distance(b)
	if err != nil {
		return false, err
	}
	return distance <= threshold, nil
}

// fromThreshold builds a rows×cols fingerprint whose bit i is set when
// values[i] > threshold.
func fromThreshold(rows, cols int, values []float64, threshold float64) *Fingerprint {
	fp := newFingerprint(rows, cols)
	for i, v := range values {
		fp.bits[i] = v > threshold
	}
	return fp
}
