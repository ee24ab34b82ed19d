package fingerprint

import (
	"errors"
	"image"
	"image/color"
	"math/rand"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/kozaktomas/imagehash/internal/segment"
	"github.com/kozaktomas/imagehash/internal/transform"
)

// fixedSegmenter returns preset regions regardless of the input.
type fixedSegmenter struct {
	regions []segment.Region
	err     error
}

func (s *fixedSegmenter) Segment(transform.Matrix) ([]segment.Region, error) {
	return s.regions, s.err
}

// regionOfArea returns a region with the given number of pixels inside
// bounds.
func regionOfArea(bounds image.Rectangle, area int) segment.Region {
	pixels := make([]image.Point, area)
	for i := range pixels {
		pixels[i] = image.Pt(bounds.Min.X+i%bounds.Dx(), bounds.Min.Y+i/bounds.Dx())
	}
	return segment.Region{Pixels: pixels, Bounds: bounds, Hill: true}
}

// blockTexture is a 5x5 grid of seeded bright levels. Blocks of different
// brightness spread a blob's energy over many low frequencies, as in a
// photograph, instead of the few a smooth gradient has.
func blockTexture(seed int64) [5][5]uint8 {
	rng := rand.New(rand.NewSource(seed))
	var levels [5][5]uint8
	for r := range levels {
		for c := range levels[r] {
			levels[r][c] = uint8(150 + rng.Intn(100))
		}
	}
	return levels
}

// createBlobImage draws two bright blobs with different block textures on a
// dark background.
func createBlobImage() *image.RGBA {
	first, second := blockTexture(3), blockTexture(11)
	img := image.NewRGBA(image.Rect(0, 0, 400, 400))
	for x := 0; x < 400; x++ {
		for y := 0; y < 400; y++ {
			v := uint8(30 + (x+y)%20)
			switch {
			case x >= 60 && x < 180 && y >= 80 && y < 220:
				v = first[(y-80)*5/140][(x-60)*5/120]
			case x >= 220 && x < 340 && y >= 200 && y < 330:
				v = second[(y-200)*5/130][(x-220)*5/120]
			}
			img.Set(x, y, color.RGBA{v, v, v, 255})
		}
	}
	return img
}

// createNoiseImage fills an image with seeded random gray levels.
func createNoiseImage(size int) *image.RGBA {
	rng := rand.New(rand.NewSource(7))
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for x := 0; x < size; x++ {
		for y := 0; y < size; y++ {
			v := uint8(rng.Intn(256))
			img.Set(x, y, color.RGBA{v, v, v, 255})
		}
	}
	return img
}

func TestCropResistantHashSegments(t *testing.T) {
	m, err := CropResistantHash(createBlobImage(), CropOptions{})
	if err != nil {
		t.Fatalf("CropResistantHash failed: %v", err)
	}
	// Two bright blobs and the surrounding background.
	if m.Len() != 3 {
		t.Fatalf("found %d segments; want 3", m.Len())
	}
	segments := m.Segments()
	if !segments[0].Bounds.Overlaps(image.Rect(60, 80, 180, 220)) {
		t.Errorf("first segment %v should cover the first blob", segments[0].Bounds)
	}
	for i, s := range segments {
		if s.Weight != s.Fingerprint.BitVariance() {
			t.Errorf("segment %d weight %v; want bit variance %v", i, s.Weight, s.Fingerprint.BitVariance())
		}
		if s.Fingerprint.Len() != 64 {
			t.Errorf("segment %d has %d bits; want 64", i, s.Fingerprint.Len())
		}
	}
	params := m.Params()
	if params.Threshold != 128 || params.MinSegmentSize != 500 || params.SegmentationSize != 300 {
		t.Errorf("unexpected params %+v", params)
	}
}

func TestCropResistance(t *testing.T) {
	original := createBlobImage()
	cropped := imaging.Crop(original, image.Rect(20, 20, 380, 380))
	unrelated := createNoiseImage(400)

	hash := func(img image.Image) *MultiFingerprint {
		m, err := CropResistantHash(img, CropOptions{})
		if err != nil {
			t.Fatalf("CropResistantHash failed: %v", err)
		}
		return m
	}
	base := hash(original)

	cropMatch, err := base.Match(hash(cropped), MatchOptions{})
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	unrelatedMatch, err := base.Match(hash(unrelated), MatchOptions{})
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}

	// Both blobs survive the crop; the background box does not have to.
	if cropMatch.Count < 2 || cropMatch.Score < 0.5 {
		t.Errorf("cropped copy matched %d segments, score %v; want at least 2 and 0.5", cropMatch.Count, cropMatch.Score)
	}
	if unrelatedMatch.Score > 0.1 {
		t.Errorf("unrelated image scored %v; want near zero", unrelatedMatch.Score)
	}
}

func TestCropResistantHashDeterministic(t *testing.T) {
	img := createBlobImage()
	first, err := CropResistantHash(img, CropOptions{})
	if err != nil {
		t.Fatalf("CropResistantHash failed: %v", err)
	}
	second, err := CropResistantHash(img, CropOptions{})
	if err != nil {
		t.Fatalf("CropResistantHash failed: %v", err)
	}
	if first.Hex() != second.Hex() {
		t.Errorf("repeated runs differ: %s vs %s", first, second)
	}
}

func TestCropResistantHashNoSegments(t *testing.T) {
	img := createTestImage(100, 100, color.RGBA{40, 40, 40, 255})

	m, err := CropResistantHash(img, CropOptions{MinSegmentSize: 300 * 300})
	if err != nil {
		t.Fatalf("an image without segments must not fail: %v", err)
	}
	if m.Len() != 0 || m.Hex() != "" {
		t.Errorf("expected an empty fingerprint, got %q", m.Hex())
	}
}

func TestCropResistantHashBoundsMapping(t *testing.T) {
	img := createTestImage(600, 300, color.White)
	var sizes []image.Point
	opts := CropOptions{
		Segmenter: &fixedSegmenter{regions: []segment.Region{
			regionOfArea(image.Rect(10, 20, 50, 60), 40*40),
		}},
		HashFunc: func(img image.Image) (*Fingerprint, error) {
			sizes = append(sizes, img.Bounds().Size())
			return AverageHash(img, AverageOptions{})
		},
	}

	m, err := CropResistantHash(img, opts)
	if err != nil {
		t.Fatalf("CropResistantHash failed: %v", err)
	}
	if m.Len() != 1 {
		t.Fatalf("got %d segments; want 1", m.Len())
	}
	// The 300x300 grid is stretched 2x horizontally onto the image.
	if got := m.Segments()[0].Bounds; got != image.Rect(20, 20, 100, 60) {
		t.Errorf("bounds = %v; want (20,20)-(100,60)", got)
	}
	if len(sizes) != 1 || sizes[0] != image.Pt(80, 40) {
		t.Errorf("hashed crops of size %v; want [(80,40)]", sizes)
	}
}

func TestCropResistantHashLimitSegments(t *testing.T) {
	img := createTestImage(300, 300, color.White)
	opts := CropOptions{
		LimitSegments: 2,
		Segmenter: &fixedSegmenter{regions: []segment.Region{
			regionOfArea(image.Rect(0, 0, 10, 10), 10),
			regionOfArea(image.Rect(20, 20, 40, 40), 30),
			regionOfArea(image.Rect(50, 50, 70, 70), 20),
		}},
	}

	m, err := CropResistantHash(img, opts)
	if err != nil {
		t.Fatalf("CropResistantHash failed: %v", err)
	}
	segments := m.Segments()
	if len(segments) != 2 || segments[0].Area != 30 || segments[1].Area != 20 {
		t.Errorf("kept areas %v; want the largest two, 30 and 20", segmentAreas(segments))
	}
}

func TestCropResistantHashMask(t *testing.T) {
	img := createTestImage(300, 300, color.White)
	var hashed image.Image
	region := segment.Region{
		Pixels: []image.Point{{0, 0}, {1, 0}, {2, 0}, {3, 0}, {0, 1}},
		Bounds: image.Rect(0, 0, 4, 2),
	}
	opts := CropOptions{
		Mask:      true,
		Segmenter: &fixedSegmenter{regions: []segment.Region{region}},
		HashFunc: func(img image.Image) (*Fingerprint, error) {
			hashed = img
			return AverageHash(img, AverageOptions{Size: 2})
		},
	}

	if _, err := CropResistantHash(img, opts); err != nil {
		t.Fatalf("CropResistantHash failed: %v", err)
	}
	if hashed.Bounds().Dx() != 4 || hashed.Bounds().Dy() != 2 {
		t.Fatalf("hashed crop %v; want 4x2", hashed.Bounds())
	}
	inside := color.GrayModel.Convert(hashed.At(0, 0)).(color.Gray)
	outside := color.GrayModel.Convert(hashed.At(3, 1)).(color.Gray)
	if inside.Y != 255 || outside.Y != 128 {
		t.Errorf("inside %d, outside %d; want 255 and 128", inside.Y, outside.Y)
	}
}

func TestCropResistantHashErrors(t *testing.T) {
	img := createTestImage(50, 50, color.White)
	segmentErr := errors.New("unsupported mode")

	_, err := CropResistantHash(img, CropOptions{Segmenter: &fixedSegmenter{err: segmentErr}})
	if !errors.Is(err, ErrFormat) || !errors.Is(err, segmentErr) {
		t.Errorf("expected a FormatError wrapping the segmenter error, got %v", err)
	}

	tests := []struct {
		name string
		opts CropOptions
	}{
		{"negative limit", CropOptions{LimitSegments: -1}},
		{"negative min size", CropOptions{MinSegmentSize: -5}},
		{"negative segmentation size", CropOptions{SegmentationSize: -300}},
		{"threshold above 255", CropOptions{SegmentThreshold: 300}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := CropResistantHash(img, tc.opts); !errors.Is(err, ErrConfiguration) {
				t.Errorf("expected ErrConfiguration, got %v", err)
			}
		})
	}

	if _, err := CropResistantHash(image.NewRGBA(image.Rectangle{}), CropOptions{}); !errors.Is(err, ErrSize) {
		t.Errorf("expected ErrSize for an empty image, got %v", err)
	}
}

func segmentAreas(segments []Segment) []int {
	areas := make([]int, len(segments))
	for i, s := range segments {
		areas[i] = s.Area
	}
	return areas
}
