package fingerprint

import (
	"image"
	"math/bits"

	"github.com/kozaktomas/imagehash/internal/transform"
)

// WaveletOptions configures WaveletHash. The zero value hashes to 8x8 with
// the Haar wavelet at the deepest level the image supports.
type WaveletOptions struct {
	// Size is the side of the fingerprint, a power of two.
	Size int

	// ImageScale is the side the image is resized to before the transform,
	// a power of two no smaller than Size. When zero it is derived from
	// Depth or from the image itself.
	ImageScale int

	// Depth is the number of decomposition levels. Zero decomposes as far
	// as ImageScale allows.
	Depth int

	// Mode names the wavelet: "haar" (default) or "db4".
	Mode string

	// KeepMaxLL skips removing the coarsest Haar approximation coefficient,
	// which otherwise strips the overall brightness before hashing.
	KeepMaxLL bool
}

// WaveletHash thresholds the approximation subband of a discrete wavelet
// decomposition at its median.
func WaveletHash(img image.Image, opts WaveletOptions) (*Fingerprint, error) {
	size, err := sizeOrDefault("size", opts.Size)
	if err != nil {
		return nil, err
	}
	if !isPowerOfTwo(size) {
		return nil, configError("size", "wavelet hash size must be a power of two, got %d", size)
	}
	wavelet, err := transform.WaveletByName(opts.Mode)
	if err != nil {
		return nil, configError("mode", "%v", err)
	}
	if img == nil {
		return nil, formatError("", "nil image")
	}

	b := img.Bounds()
	shortSide := min(b.Dx(), b.Dy())
	scale, required, err := waveletScale(size, shortSide, opts)
	if err != nil {
		return nil, err
	}
	if shortSide < required {
		return nil, &SizeError{Width: b.Dx(), Height: b.Dy(), Required: required}
	}

	pixels, err := graySamples(img, scale, scale)
	if err != nil {
		return nil, err
	}
	pixels.Scale(1.0 / 255)

	maxLevel := log2(scale)
	if !opts.KeepMaxLL {
		coeffs, err := transform.Decompose2D(pixels, transform.Haar, maxLevel)
		if err != nil {
			return nil, err
		}
		coeffs.Set(0, 0, 0)
		if pixels, err = transform.Reconstruct2D(coeffs, transform.Haar, maxLevel); err != nil {
			return nil, err
		}
	}

	level := maxLevel - log2(size)
	coeffs, err := transform.Decompose2D(pixels, wavelet, level)
	if err != nil {
		return nil, err
	}
	ll, err := transform.LowPass(coeffs, level)
	if err != nil {
		return nil, err
	}
	return fromThreshold(size, size, ll.Data, transform.Median(ll.Data)), nil
}

// waveletScale picks the side the image is resized to and the smallest
// source side that still supports it.
func waveletScale(size, shortSide int, opts WaveletOptions) (scale, required int, err error) {
	if opts.Depth < 0 {
		return 0, 0, configError("depth", "must not be negative, got %d", opts.Depth)
	}
	if opts.ImageScale < 0 {
		return 0, 0, configError("image scale", "must not be negative, got %d", opts.ImageScale)
	}

	switch {
	case opts.ImageScale > 0:
		scale = opts.ImageScale
		if !isPowerOfTwo(scale) {
			return 0, 0, configError("image scale", "must be a power of two, got %d", scale)
		}
		if scale < size {
			return 0, 0, configError("image scale", "%d is smaller than the hash size %d", scale, size)
		}
		if opts.Depth > 0 && scale != size<<opts.Depth {
			return 0, 0, configError("depth", "%d levels from %d do not reach hash size %d", opts.Depth, scale, size)
		}
		return scale, size, nil
	case opts.Depth > 0:
		scale = size << opts.Depth
		return scale, scale, nil
	default:
		scale = size
		if shortSide > 0 {
			scale = max(1<<log2(shortSide), size)
		}
		return scale, size, nil
	}
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// log2 returns floor(log2(n)) for n > 0.
func log2(n int) int {
	return bits.Len(uint(n)) - 1
}
