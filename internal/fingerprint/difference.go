package fingerprint

import (
	"fmt"
	"image"
)

// Orientation selects the axis along which the difference hash compares
// neighbouring samples.
type Orientation int

const (
	// Horizontal compares each sample with its right neighbour.
	Horizontal Orientation = iota

	// Vertical compares each sample with the one below it. Fingerprints
	// produced by older releases used this axis.
	Vertical
)

func (o Orientation) String() string {
	switch o {
	case Horizontal:
		return "horizontal"
	case Vertical:
		return "vertical"
	default:
		return fmt.Sprintf("Orientation(%d)", int(o))
	}
}

// DifferenceOptions configures DifferenceHash.
type DifferenceOptions struct {
	Size        int
	Orientation Orientation
}

// DifferenceHashVertical is DifferenceHash along the vertical axis.
func DifferenceHashVertical(img image.Image, opts DifferenceOptions) (*Fingerprint, error) {
	opts.Orientation = Vertical
	return DifferenceHash(img, opts)
}

// DifferenceHash resizes img to one extra sample along the chosen axis and
// sets a bit wherever a sample is brighter than its successor. The zero
// options compare horizontally on an 8x8 grid.
func DifferenceHash(img image.Image, opts DifferenceOptions) (*Fingerprint, error) {
	size, err := sizeOrDefault("size", opts.Size)
	if err != nil {
		return nil, err
	}

	fp := newFingerprint(size, size)
	switch opts.Orientation {
	case Horizontal:
		samples, err := graySamples(img, size+1, size)
		if err != nil {
			return nil, err
		}
		for r := range size {
			for c := range size {
				fp.bits[r*size+c] = samples.At(r, c) > samples.At(r, c+1)
			}
		}
	case Vertical:
		samples, err := graySamples(img, size, size+1)
		if err != nil {
			return nil, err
		}
		for r := range size {
			for c := range size {
				fp.bits[r*size+c] = samples.At(r, c) > samples.At(r+1, c)
			}
		}
	default:
		return nil, configError("orientation", "unknown %s", opts.Orientation)
	}
	return fp, nil
}
