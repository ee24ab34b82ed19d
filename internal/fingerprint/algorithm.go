package fingerprint

import (
	"fmt"
	"image"
	"slices"
	"strings"
)

// Algorithm names a fingerprint algorithm in the CLI and HTTP API.
type Algorithm string

const (
	AlgorithmAverage            Algorithm = "ahash"
	AlgorithmDifference         Algorithm = "dhash"
	AlgorithmDifferenceVertical Algorithm = "dhash-vertical"
	AlgorithmPerceptual         Algorithm = "phash"
	AlgorithmPerceptualSimple   Algorithm = "phash-simple"
	AlgorithmWavelet            Algorithm = "whash"
	AlgorithmColor              Algorithm = "colorhash"
	AlgorithmCropResistant      Algorithm = "crop-resistant"
)

// Algorithms lists every supported algorithm.
var Algorithms = []Algorithm{
	AlgorithmAverage,
	AlgorithmDifference,
	AlgorithmDifferenceVertical,
	AlgorithmPerceptual,
	AlgorithmPerceptualSimple,
	AlgorithmWavelet,
	AlgorithmColor,
	AlgorithmCropResistant,
}

// ParseAlgorithm resolves an algorithm name, case-insensitively.
func ParseAlgorithm(name string) (Algorithm, error) {
	alg := Algorithm(strings.ToLower(strings.TrimSpace(name)))
	if !slices.Contains(Algorithms, alg) {
		return "", configError("algorithm", "unknown algorithm %q", name)
	}
	return alg, nil
}

// Options groups the options of every algorithm.
type Options struct {
	Average    AverageOptions
	Difference DifferenceOptions
	Perceptual PerceptualOptions
	Wavelet    WaveletOptions
	Color      ColorOptions
	Crop       CropOptions
	Match      MatchOptions
}

// Result is the textual outcome of hashing one image.
type Result struct {
	Algorithm Algorithm `json:"algorithm" yaml:"algorithm"`
	Hash      string    `json:"hash" yaml:"hash"`
	Rows      int       `json:"rows,omitempty" yaml:"rows,omitempty"`
	Cols      int       `json:"cols,omitempty" yaml:"cols,omitempty"`
	Segments  int       `json:"segments,omitempty" yaml:"segments,omitempty"`
}

// Compute hashes img with alg.
func Compute(img image.Image, alg Algorithm, opts Options) (*Result, error) {
	var fp *Fingerprint
	var err error

	switch alg {
	case AlgorithmAverage:
		fp, err = AverageHash(img, opts.Average)
	case AlgorithmDifference:
		d := opts.Difference
		d.Orientation = Horizontal
		fp, err = DifferenceHash(img, d)
	case AlgorithmDifferenceVertical:
		fp, err = DifferenceHashVertical(img, opts.Difference)
	case AlgorithmPerceptual:
		fp, err = PerceptualHash(img, opts.Perceptual)
	case AlgorithmPerceptualSimple:
		fp, err = PerceptualHashSimple(img, opts.Perceptual)
	case AlgorithmWavelet:
		fp, err = WaveletHash(img, opts.Wavelet)
	case AlgorithmColor:
		c, err := ColorHash(img, opts.Color)
		if err != nil {
			return nil, err
		}
		return &Result{Algorithm: alg, Hash: c.Hex(), Rows: c.Len(), Cols: c.BinBits()}, nil
	case AlgorithmCropResistant:
		m, err := CropResistantHash(img, opts.Crop)
		if err != nil {
			return nil, err
		}
		return &Result{Algorithm: alg, Hash: m.Hex(), Segments: m.Len()}, nil
	default:
		return nil, configError("algorithm", "unknown algorithm %q", alg)
	}
	if err != nil {
		return nil, err
	}
	return &Result{Algorithm: alg, Hash: fp.Hex(), Rows: fp.Rows(), Cols: fp.Cols()}, nil
}

// Comparison is the outcome of comparing two textual fingerprints.
type Comparison struct {
	Algorithm Algorithm    `json:"algorithm" yaml:"algorithm"`
	Distance  float64      `json:"distance" yaml:"distance"`
	Bits      int          `json:"bits,omitempty" yaml:"bits,omitempty"`
	Match     *MatchResult `json:"match,omitempty" yaml:"match,omitempty"`
}

// CompareHex parses two fingerprints produced by alg and compares them. Grid
// fingerprints report their Hamming distance, colour fingerprints the
// distance between their values and crop-resistant fingerprints their
// Difference along with the segment matching.
func CompareHex(alg Algorithm, a, b string, opts Options) (*Comparison, error) {
	switch alg {
	case AlgorithmColor:
		binBits := opts.Color.BinBits
		if binBits == 0 {
			binBits = DefaultBinBits
		}
		ca, err := ColorFromHex(a, binBits)
		if err != nil {
			return nil, fmt.Errorf("first fingerprint: %w", err)
		}
		cb, err := ColorFromHex(b, binBits)
		if err != nil {
			return nil, fmt.Errorf("second fingerprint: %w", err)
		}
		d, err := ca.Distance(cb)
		if err != nil {
			return nil, err
		}
		return &Comparison{Algorithm: alg, Distance: float64(d)}, nil
	case AlgorithmCropResistant:
		ma, err := MultiFromHex(a)
		if err != nil {
			return nil, fmt.Errorf("first fingerprint: %w", err)
		}
		mb, err := MultiFromHex(b)
		if err != nil {
			return nil, fmt.Errorf("second fingerprint: %w", err)
		}
		return CompareMulti(ma, mb, opts.Match)
	}

	if _, err := ParseAlgorithm(string(alg)); err != nil {
		return nil, err
	}
	fa, err := FromHex(a)
	if err != nil {
		return nil, fmt.Errorf("first fingerprint: %w", err)
	}
	fb, err := FromHex(b)
	if err != nil {
		return nil, fmt.Errorf("second fingerprint: %w", err)
	}
	return CompareFingerprints(alg, fa, fb)
}

// CompareFingerprints reports the Hamming distance between two grid
// fingerprints.
func CompareFingerprints(alg Algorithm, a, b *Fingerprint) (*Comparison, error) {
	d, err := a.Distance(b)
	if err != nil {
		return nil, err
	}
	return &Comparison{Algorithm: alg, Distance: float64(d), Bits: a.Len()}, nil
}

// CompareMulti matches two crop-resistant fingerprints.
func CompareMulti(a, b *MultiFingerprint, opts MatchOptions) (*Comparison, error) {
	match, err := a.Match(b, opts)
	if err != nil {
		return nil, err
	}
	diff, err := a.Difference(b, opts)
	if err != nil {
		return nil, err
	}
	return &Comparison{
		Algorithm: AlgorithmCropResistant,
		Distance:  diff,
		Bits:      a.SegmentBits(),
		Match:     match,
	}, nil
}

// Similar reports whether the compared fingerprints describe the same image.
// Crop-resistant comparisons need at least regionCutoff matched segments,
// the others a distance of at most threshold.
func (c *Comparison) Similar(threshold, regionCutoff int) bool {
	if c.Match != nil {
		return c.Match.Count >= max(regionCutoff, 1)
	}
	return c.Distance <= float64(threshold)
}
