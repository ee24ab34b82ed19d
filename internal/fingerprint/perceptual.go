package fingerprint

import (
	"image"

	"github.com/kozaktomas/imagehash/internal/transform"
)

// DefaultHighFreqFactor is the oversampling applied before the DCT.
const DefaultHighFreqFactor = 4

// PerceptualOptions configures PerceptualHash and PerceptualHashSimple.
type PerceptualOptions struct {
	Size int

	// HighFreqFactor scales the sample grid to Size*HighFreqFactor before
	// the transform. Defaults to DefaultHighFreqFactor.
	HighFreqFactor int

	// ZTransform standardizes the low-frequency block before thresholding.
	ZTransform bool
}

func (o PerceptualOptions) resolve() (size, factor int, err error) {
	size, err = sizeOrDefault("size", o.Size)
	if err != nil {
		return 0, 0, err
	}
	factor = o.HighFreqFactor
	switch {
	case factor == 0:
		factor = DefaultHighFreqFactor
	case factor < 1:
		return 0, 0, configError("high frequency factor", "must be at least 1, got %d", factor)
	}
	return size, factor, nil
}

// PerceptualHash thresholds the low-frequency block of the 2D DCT of the
// image at its median. The DC coefficient tracks overall brightness, so it
// is left out of the median and its bit is always zero.
func PerceptualHash(img image.Image, opts PerceptualOptions) (*Fingerprint, error) {
	size, factor, err := opts.resolve()
	if err != nil {
		return nil, err
	}

	samples, err := graySamples(img, size*factor, size*factor)
	if err != nil {
		return nil, err
	}
	low, err := transform.DCT2D(samples).Sub(0, 0, size, size)
	if err != nil {
		return nil, err
	}

	ac := low.Data[1:]
	if opts.ZTransform {
		transform.Standardize(ac)
	}
	fp := fromThreshold(size, size, low.Data, transform.Median(ac))
	fp.bits[0] = false
	return fp, nil
}

// PerceptualHashSimple applies the DCT along rows only, keeps the block next
// to the DC column and thresholds it at its mean.
func PerceptualHashSimple(img image.Image, opts PerceptualOptions) (*Fingerprint, error) {
	size, factor, err := opts.resolve()
	if err != nil {
		return nil, err
	}
	if factor < 2 {
		return nil, configError("high frequency factor", "the simple hash needs at least 2, got %d", factor)
	}

	samples, err := graySamples(img, size*factor, size*factor)
	if err != nil {
		return nil, err
	}
	low, err := transform.DCTRows(samples).Sub(0, 1, size, size)
	if err != nil {
		return nil, err
	}
	return fromThreshold(size, size, low.Data, transform.Mean(low.Data)), nil
}
