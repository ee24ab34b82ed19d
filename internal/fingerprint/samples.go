package fingerprint

import (
	"image"

	"github.com/kozaktomas/imagehash/internal/imageio"
	"github.com/kozaktomas/imagehash/internal/transform"
)

// DefaultSize is the side of the fingerprint grid when an option leaves it
// unset.
const DefaultSize = 8

// HashFunc computes a single fingerprint of an image.
type HashFunc func(img image.Image) (*Fingerprint, error)

// graySamples resizes img to a width×height grayscale grid.
func graySamples(img image.Image, width, height int) (transform.Matrix, error) {
	if img == nil {
		return transform.Matrix{}, formatError("", "nil image")
	}
	b := img.Bounds()
	if b.Empty() {
		return transform.Matrix{}, &SizeError{Width: b.Dx(), Height: b.Dy(), Required: 1}
	}
	m, err := imageio.GraySamples(img, width, height)
	if err != nil {
		return transform.Matrix{}, &FormatError{Err: err}
	}
	return m, nil
}

// sizeOrDefault resolves a hash side option: zero selects DefaultSize and
// anything below 2 is rejected.
func sizeOrDefault(param string, size int) (int, error) {
	if size == 0 {
		return DefaultSize, nil
	}
	if size < 2 {
		return 0, configError(param, "must be at least 2, got %d", size)
	}
	return size, nil
}
