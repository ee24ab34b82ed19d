package fingerprint

import (
	"cmp"
	"image"
	"math"
	"slices"
)

// DefaultBitErrorRate is the share of a segment's bits that may differ for
// two segments to still match.
const DefaultBitErrorRate = 0.25

// Segment is the fingerprint of one region of an image.
type Segment struct {
	Fingerprint *Fingerprint

	// Bounds is the region's bounding box in source image coordinates.
	Bounds image.Rectangle

	// Area is the number of pixels of the region in the segmentation grid.
	Area int

	// Weight is the bit variance of Fingerprint. Near-constant fingerprints
	// carry little information and count less when matching.
	Weight float64
}

// SegmentationParams records how the segments of a MultiFingerprint were
// found.
type SegmentationParams struct {
	Threshold        float64 `json:"threshold" yaml:"threshold"`
	MinSegmentSize   int     `json:"min_segment_size" yaml:"min_segment_size"`
	SegmentationSize int     `json:"segmentation_size" yaml:"segmentation_size"`
}

// MultiFingerprint is the set of segment fingerprints of one image. Segment
// order carries no meaning: two MultiFingerprints are compared by matching
// segments, never by position or exact equality.
type MultiFingerprint struct {
	segments []Segment
	params   SegmentationParams
}

// NewMulti assembles a MultiFingerprint. Every segment must have a
// fingerprint and all fingerprints must share a bit length. Weights are
// derived from the fingerprints.
func NewMulti(segments []Segment, params SegmentationParams) (*MultiFingerprint, error) {
	out := make([]Segment, len(segments))
	for i, s := range segments {
		if s.Fingerprint == nil {
			return nil, configError("segments", "segment %d has no fingerprint", i)
		}
		if i > 0 && s.Fingerprint.Len() != out[0].Fingerprint.Len() {
			return nil, &ShapeMismatchError{A: out[0].Fingerprint.Shape(), B: s.Fingerprint.Shape()}
		}
		s.Weight = s.Fingerprint.BitVariance()
		out[i] = s
	}
	return &MultiFingerprint{segments: out, params: params}, nil
}

// Len returns the number of segments.
func (m *MultiFingerprint) Len() int { return len(m.segments) }

// Segments returns a copy of the segments.
func (m *MultiFingerprint) Segments() []Segment {
	return slices.Clone(m.segments)
}

// Params returns the segmentation parameters used to build m.
func (m *MultiFingerprint) Params() SegmentationParams { return m.params }

// SegmentBits returns the bit length shared by all segments, or 0 when m is
// empty.
func (m *MultiFingerprint) SegmentBits() int {
	if len(m.segments) == 0 {
		return 0
	}
	return m.segments[0].Fingerprint.Len()
}

// String returns the textual form of m.
func (m *MultiFingerprint) String() string {
	return m.Hex()
}

// MarshalText implements encoding.TextMarshaler.
func (m *MultiFingerprint) MarshalText() ([]byte, error) {
	return []byte(m.Hex()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *MultiFingerprint) UnmarshalText(text []byte) error {
	parsed, err := MultiFromHex(string(text))
	if err != nil {
		return err
	}
	*m = *parsed
	return nil
}

// MatchMode selects how a match score is reported.
type MatchMode int

const (
	// Normalized divides the weighted match count by the size of the
	// smaller segment set, giving a score in [0, 1].
	Normalized MatchMode = iota

	// Unnormalized reports the number of matched segment pairs.
	Unnormalized
)

// MatchOptions configures segment matching.
type MatchOptions struct {
	// HammingCutoff, when positive, is the largest distance at which two
	// segments match. It takes precedence over BitErrorRate.
	HammingCutoff int

	// BitErrorRate sets the cutoff as a share of the segment bit length.
	// Defaults to DefaultBitErrorRate.
	BitErrorRate float64

	// Exact matches identical segments only. A zero HammingCutoff or
	// BitErrorRate means the default, so this is the way to ask for a
	// cutoff of 0.
	Exact bool

	Mode MatchMode
}

func (o MatchOptions) cutoff(bits int) (float64, error) {
	if o.HammingCutoff < 0 {
		return 0, configError("hamming cutoff", "must not be negative, got %d", o.HammingCutoff)
	}
	if o.Exact {
		return 0, nil
	}
	if o.HammingCutoff > 0 {
		return float64(o.HammingCutoff), nil
	}
	rate := o.BitErrorRate
	if rate == 0 {
		rate = DefaultBitErrorRate
	}
	if rate < 0 || rate > 1 || math.IsNaN(rate) {
		return 0, configError("bit error rate", "must be within [0, 1], got %v", rate)
	}
	return rate * float64(bits), nil
}

// Pair is a matched segment pair.
type Pair struct {
	A        int `json:"a"`
	B        int `json:"b"`
	Distance int `json:"distance"`
}

// MatchResult reports how two MultiFingerprints matched.
type MatchResult struct {
	Pairs       []Pair  `json:"pairs"`
	Count       int     `json:"count"`
	Weighted    float64 `json:"weighted"`
	DistanceSum int     `json:"distance_sum"`
	Score       float64 `json:"score"`
}

// Match pairs segments of m and other whose distance is within the cutoff.
// Candidates are accepted greedily by ascending distance, ties broken by
// segment index in m and then in other, and each segment is used at most
// once.
func (m *MultiFingerprint) Match(other *MultiFingerprint, opts MatchOptions) (*MatchResult, error) {
	if other == nil {
		return nil, configError("fingerprint", "other fingerprint must not be nil")
	}
	result := &MatchResult{}
	if m.Len() == 0 || other.Len() == 0 {
		return result, nil
	}
	cutoff, err := opts.cutoff(m.SegmentBits())
	if err != nil {
		return nil, err
	}

	var candidates []Pair
	for i, a := range m.segments {
		for j, b := range other.segments {
			d, err := a.Fingerprint.Distance(b.Fingerprint)
			if err != nil {
				return nil, err
			}
			if float64(d) <= cutoff {
				candidates = append(candidates, Pair{A: i, B: j, Distance: d})
			}
		}
	}
	slices.SortFunc(candidates, func(x, y Pair) int {
		return cmp.Or(
			cmp.Compare(x.Distance, y.Distance),
			cmp.Compare(x.A, y.A),
			cmp.Compare(x.B, y.B),
		)
	})

	usedA := make([]bool, m.Len())
	usedB := make([]bool, other.Len())
	for _, p := range candidates {
		if usedA[p.A] || usedB[p.B] {
			continue
		}
		usedA[p.A], usedB[p.B] = true, true
		result.Pairs = append(result.Pairs, p)
		result.Count++
		result.DistanceSum += p.Distance
		result.Weighted += min(m.segments[p.A].Weight, other.segments[p.B].Weight)
	}

	switch opts.Mode {
	case Normalized:
		result.Score = result.Weighted / float64(min(m.Len(), other.Len()))
	case Unnormalized:
		result.Score = float64(result.Count)
	default:
		return nil, configError("mode", "unknown match mode %d", opts.Mode)
	}
	return result, nil
}

// HashDiff finds, for every segment of m, the closest segment of other and
// returns how many of those distances are within the cutoff and their sum.
func (m *MultiFingerprint) HashDiff(other *MultiFingerprint, opts MatchOptions) (matches, distanceSum int, err error) {
	if other == nil {
		return 0, 0, configError("fingerprint", "other fingerprint must not be nil")
	}
	if m.Len() == 0 || other.Len() == 0 {
		return 0, 0, nil
	}
	cutoff, err := opts.cutoff(m.SegmentBits())
	if err != nil {
		return 0, 0, err
	}

	for _, a := range m.segments {
		lowest := math.MaxInt
		for _, b := range other.segments {
			d, err := a.Fingerprint.Distance(b.Fingerprint)
			if err != nil {
				return 0, 0, err
			}
			lowest = min(lowest, d)
		}
		if float64(lowest) <= cutoff {
			matches++
			distanceSum += lowest
		}
	}
	return matches, distanceSum, nil
}

// Matches reports whether at least regionCutoff segments of m have a match
// in other.
func (m *MultiFingerprint) Matches(other *MultiFingerprint, regionCutoff int, opts MatchOptions) (bool, error) {
	matches, _, err := m.HashDiff(other, opts)
	if err != nil {
		return false, err
	}
	return matches >= max(regionCutoff, 1), nil
}

// Difference scores how far other is from m: the segment count of m minus
// the number of matching segments, where closer matches subtract slightly
// more. Identical sets score 0 and sets without matches score m.Len().
func (m *MultiFingerprint) Difference(other *MultiFingerprint, opts MatchOptions) (float64, error) {
	matches, distanceSum, err := m.HashDiff(other, opts)
	if err != nil {
		return 0, err
	}
	if matches == 0 {
		return float64(m.Len()), nil
	}
	maxDistance := float64(matches * m.SegmentBits())
	score := float64(matches) - float64(distanceSum)/maxDistance
	return float64(m.Len()) - score, nil
}

// BestMatch returns the index of the candidate with the lowest Difference
// from m and that difference. The first candidate wins ties. It returns -1
// when there are no candidates.
func (m *MultiFingerprint) BestMatch(candidates []*MultiFingerprint, opts MatchOptions) (int, float64, error) {
	best, bestDiff := -1, math.Inf(1)
	for i, c := range candidates {
		d, err := m.Difference(c, opts)
		if err != nil {
			return -1, 0, err
		}
		if d < bestDiff {
			best, bestDiff = i, d
		}
	}
	if best < 0 {
		return -1, 0, nil
	}
	return best, bestDiff, nil
}
