package fingerprint

import (
	"image"

	"github.com/kozaktomas/imagehash/internal/transform"
)

// AverageOptions configures AverageHash. The zero value selects an 8x8 grid
// thresholded at the arithmetic mean.
type AverageOptions struct {
	Size int

	// Normalize z-scores the samples before thresholding. It is skipped for
	// uniform images.
	Normalize bool

	// Mean computes the threshold from the samples. Defaults to the
	// arithmetic mean; transform.Median is a common alternative.
	Mean func([]float64) float64
}

// AverageHash sets a bit for every sample of the resized grayscale image that
// is strictly brighter than the mean, so a uniform image hashes to all zeros.
func AverageHash(img image.Image, opts AverageOptions) (*Fingerprint, error) {
	size, err := sizeOrDefault("size", opts.Size)
	if err != nil {
		return nil, err
	}
	mean := opts.Mean
	if mean == nil {
		mean = transform.Mean
	}

	samples, err := graySamples(img, size, size)
	if err != nil {
		return nil, err
	}
	if opts.Normalize {
		transform.Standardize(samples.Data)
	}

	return fromThreshold(size, size, samples.Data, mean(samples.Data)), nil
}
