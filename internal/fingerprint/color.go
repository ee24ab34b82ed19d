package fingerprint

import (
	"image"

	"github.com/kozaktomas/imagehash/internal/imageio"
)

const (
	// DefaultBinBits is the number of bits per colour hash value.
	DefaultBinBits = 3

	maxBinBits = 16

	hueBins = 6

	// colorValues is black, gray, then hueBins faint and hueBins bright
	// colour fractions.
	colorValues = 2 + 2*hueBins

	blackLuma       = 256 / 8
	graySaturation  = 256 / 3
	faintSaturation = 256 * 2 / 3
)

// ColorOptions configures ColorHash.
type ColorOptions struct {
	// BinBits is the precision of every value. Defaults to DefaultBinBits.
	BinBits int
}

// ColorFingerprint is a fixed-length vector of quantized colour fractions:
// the share of black and of gray pixels, then the hue histogram of faintly
// and of strongly saturated pixels.
type ColorFingerprint struct {
	values  []int
	binBits int
}

// ColorHash summarizes the colour distribution of img. Pixels darker than
// luma 32 are black, pixels with saturation below 85 are gray and the rest
// are binned by hue into six buckets, separately for faint and bright
// saturation.
func ColorHash(img image.Image, opts ColorOptions) (*ColorFingerprint, error) {
	binBits := opts.BinBits
	if binBits == 0 {
		binBits = DefaultBinBits
	}
	if err := validateBinBits(binBits); err != nil {
		return nil, err
	}
	if img == nil {
		return nil, formatError("", "nil image")
	}
	if b := img.Bounds(); b.Empty() {
		return nil, &SizeError{Width: b.Dx(), Height: b.Dy(), Required: 1}
	}

	planes := imageio.ToHSV(img)
	var black, gray, colored int
	var faint, bright [hueBins]int
	for i := range planes.Len() {
		s := planes.S[i]
		switch {
		case planes.Luma[i] < blackLuma:
			black++
		case s < graySaturation:
			gray++
		default:
			colored++
			bin := min(int(float64(planes.H[i])*hueBins/255), hueBins-1)
			if s < faintSaturation {
				faint[bin]++
			} else if s > faintSaturation {
				bright[bin]++
			}
		}
	}

	maxValue := 1 << binBits
	quantize := func(count, total int) int {
		return min(maxValue-1, count*maxValue/total)
	}

	n := planes.Len()
	colored = max(1, colored)
	values := make([]int, 0, colorValues)
	values = append(values, quantize(black, n), quantize(gray, n))
	for _, c := range faint {
		values = append(values, quantize(c, colored))
	}
	for _, c := range bright {
		values = append(values, quantize(c, colored))
	}
	return &ColorFingerprint{values: values, binBits: binBits}, nil
}

func validateBinBits(binBits int) error {
	if binBits < 1 || binBits > maxBinBits {
		return configError("binbits", "must be between 1 and %d, got %d", maxBinBits, binBits)
	}
	return nil
}

// BinBits returns the precision the fingerprint was computed with.
func (c *ColorFingerprint) BinBits() int { return c.binBits }

// Len returns the number of values.
func (c *ColorFingerprint) Len() int { return len(c.values) }

// Values returns a copy of the quantized values.
func (c *ColorFingerprint) Values() []int {
	out := make([]int, len(c.values))
	copy(out, c.values)
	return out
}

// Distance returns the sum of absolute differences between the values.
func (c *ColorFingerprint) Distance(other *ColorFingerprint) (int, error) {
	if err := c.checkShape(other); err != nil {
		return 0, err
	}
	d := 0
	for i, v := range c.values {
		d += abs(v - other.values[i])
	}
	return d, nil
}

// WeightedDistance is Distance with the black and gray values scaled by
// toneWeight and the hue values by hueWeight.
func (c *ColorFingerprint) WeightedDistance(other *ColorFingerprint, hueWeight, toneWeight float64) (float64, error) {
	if err := c.checkShape(other); err != nil {
		return 0, err
	}
	var d float64
	for i, v := range c.values {
		w := hueWeight
		if i < 2 {
			w = toneWeight
		}
		d += w * float64(abs(v-other.values[i]))
	}
	return d, nil
}

// BitDistance returns the Hamming distance between the packed values.
func (c *ColorFingerprint) BitDistance(other *ColorFingerprint) (int, error) {
	if err := c.checkShape(other); err != nil {
		return 0, err
	}
	return c.Fingerprint().Distance(other.Fingerprint())
}

// Equal reports whether both fingerprints hold the same values.
func (c *ColorFingerprint) Equal(other *ColorFingerprint) (bool, error) {
	d, err := c.Distance(other)
	if err != nil {
		return false, err
	}
	return d == 0, nil
}

// IsNonZero reports whether any value is set.
func (c *ColorFingerprint) IsNonZero() bool {
	for _, v := range c.values {
		if v != 0 {
			return true
		}
	}
	return false
}

// Fingerprint returns the values as a grid with one row per value, each row
// holding the value's bits most significant first.
func (c *ColorFingerprint) Fingerprint() *Fingerprint {
	fp := newFingerprint(len(c.values), c.binBits)
	for i, v := range c.values {
		for j := range c.binBits {
			fp.bits[i*c.binBits+j] = v&(1<<(c.binBits-1-j)) != 0
		}
	}
	return fp
}

// String returns the hex form of the fingerprint.
func (c *ColorFingerprint) String() string {
	return c.Hex()
}

func (c *ColorFingerprint) checkShape(other *ColorFingerprint) error {
	if other == nil {
		return configError("fingerprint", "other fingerprint must not be nil")
	}
	if c.binBits != other.binBits || len(c.values) != len(other.values) {
		return &ShapeMismatchError{
			A: Shape{Rows: len(c.values), Cols: c.binBits},
			B: Shape{Rows: len(other.values), Cols: other.binBits},
		}
	}
	return nil
}

func colorFromFingerprint(fp *Fingerprint) *ColorFingerprint {
	values := make([]int, fp.rows)
	for i := range values {
		for j := range fp.cols {
			values[i] <<= 1
			if fp.bits[i*fp.cols+j] {
				values[i] |= 1
			}
		}
	}
	return &ColorFingerprint{values: values, binBits: fp.cols}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
