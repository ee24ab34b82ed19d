package fingerprint

import (
	"encoding/hex"
	"fmt"
	"math"
	"strings"
)

const hexDigits = "0123456789abcdef"

// MultiSeparator joins segment fingerprints in the textual form of a
// MultiFingerprint.
const MultiSeparator = ","

// Hex returns the row-major bits as lowercase hex, left-padded with zero bits
// to a multiple of four.
func (f *Fingerprint) Hex() string {
	return bitsToHex(f.bits)
}

// FromHex parses a square fingerprint, inferring its side from the length of
// s. Both fingerprints of the default size 8 (16 characters) and larger
// grids round-trip.
func FromHex(s string) (*Fingerprint, error) {
	if s == "" {
		return nil, formatError(s, "empty fingerprint")
	}
	size := int(math.Sqrt(float64(len(s) * 4)))
	if size == 0 || hexLen(size*size) != len(s) {
		return nil, formatError(s, "%d hex characters do not encode a square grid", len(s))
	}
	return FromHexShape(s, size, size)
}

// FromHexShape parses a fingerprint of the declared shape.
func FromHexShape(s string, rows, cols int) (*Fingerprint, error) {
	if rows <= 0 || cols <= 0 {
		return nil, configError("shape", "%dx%d is not a valid fingerprint shape", rows, cols)
	}
	bits, err := hexToBits(s, rows*cols)
	if err != nil {
		return nil, err
	}
	return &Fingerprint{bits: bits, rows: rows, cols: cols}, nil
}

// FromFlatHex parses a one-row fingerprint of n bits, such as the packed
// form of a colour fingerprint.
func FromFlatHex(s string, n int) (*Fingerprint, error) {
	return FromHexShape(s, 1, n)
}

// Hex returns the comma-separated hex of every segment.
func (m *MultiFingerprint) Hex() string {
	parts := make([]string, len(m.segments))
	for i, s := range m.segments {
		parts[i] = s.Fingerprint.Hex()
	}
	return strings.Join(parts, MultiSeparator)
}

// MultiFromHex parses the textual form produced by MultiFingerprint.Hex. Each
// segment must encode a square grid. Segment bounds and segmentation
// parameters are not part of the textual form.
func MultiFromHex(s string) (*MultiFingerprint, error) {
	if s == "" {
		return &MultiFingerprint{}, nil
	}
	parts := strings.Split(s, MultiSeparator)
	segments := make([]Segment, 0, len(parts))
	for i, part := range parts {
		fp, err := FromHex(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("segment %d: %w", i, err)
		}
		segments = append(segments, Segment{Fingerprint: fp})
	}
	return NewMulti(segments, SegmentationParams{})
}

// Hex returns the packed values of the colour fingerprint as hex.
func (c *ColorFingerprint) Hex() string {
	return c.Fingerprint().Hex()
}

// ColorFromHex parses a colour fingerprint encoded with binBits bits per
// value.
func ColorFromHex(s string, binBits int) (*ColorFingerprint, error) {
	if err := validateBinBits(binBits); err != nil {
		return nil, err
	}
	fp, err := FromHexShape(s, colorValues, binBits)
	if err != nil {
		return nil, err
	}
	return colorFromFingerprint(fp), nil
}

// LegacyHex encodes the fingerprint in the pre-hex format: every group of
// eight row-major bits becomes one byte whose bit i holds the i-th bit of the
// group, written as two hex digits.
func (f *Fingerprint) LegacyHex() (string, error) {
	if len(f.bits)%8 != 0 {
		return "", configError("fingerprint", "legacy encoding needs a multiple of 8 bits, have %d", len(f.bits))
	}
	buf := make([]byte, len(f.bits)/8)
	for i := range buf {
		for j, b := range f.bits[i*8 : i*8+8] {
			if b {
				buf[i] |= 1 << j
			}
		}
	}
	return hex.EncodeToString(buf), nil
}

// FromLegacyHex parses a size×size fingerprint stored in the pre-hex format.
func FromLegacyHex(s string, size int) (*Fingerprint, error) {
	if size < 4 || size%4 != 0 {
		return nil, configError("size", "legacy fingerprints need a multiple of 4, got %d", size)
	}
	if want := size * size / 4; len(s) != want {
		return nil, formatError(s, "legacy %dx%d fingerprint needs %d hex characters, got %d", size, size, want, len(s))
	}
	buf, err := hex.DecodeString(s)
	if err != nil {
		return nil, &FormatError{Input: s, Err: err}
	}
	fp := newFingerprint(size, size)
	for i, v := range buf {
		for j := range 8 {
			fp.bits[i*8+j] = v&(1<<j) != 0
		}
	}
	return fp, nil
}

// MigrateLegacyHex rewrites a legacy fingerprint in the current hex format.
func MigrateLegacyHex(s string, size int) (string, error) {
	fp, err := FromLegacyHex(s, size)
	if err != nil {
		return "", err
	}
	return fp.Hex(), nil
}

func hexLen(bits int) int {
	return (bits + 3) / 4
}

func bitsToHex(bits []bool) string {
	pad := (4 - len(bits)%4) % 4
	out := make([]byte, hexLen(len(bits)))
	for i := range out {
		var nibble byte
		for j := range 4 {
			nibble <<= 1
			if idx := i*4 + j - pad; idx >= 0 && bits[idx] {
				nibble |= 1
			}
		}
		out[i] = hexDigits[nibble]
	}
	return string(out)
}

func hexToBits(s string, n int) ([]bool, error) {
	if len(s) != hexLen(n) {
		return nil, formatError(s, "%d bits need %d hex characters, got %d", n, hexLen(n), len(s))
	}
	pad := len(s)*4 - n
	bits := make([]bool, n)
	for i := range len(s) {
		nibble, ok := hexValue(s[i])
		if !ok {
			return nil, formatError(s, "invalid hex digit %q at %d", s[i], i)
		}
		for j := range 4 {
			set := nibble&(8>>j) != 0
			idx := i*4 + j - pad
			if idx < 0 {
				if set {
					return nil, formatError(s, "padding bits must be zero")
				}
				continue
			}
			bits[idx] = set
		}
	}
	return bits, nil
}

func hexValue(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
