package fingerprint

import (
	"cmp"
	"image"
	"image/color"
	"math"
	"slices"

	"github.com/kozaktomas/imagehash/internal/imageio"
	"github.com/kozaktomas/imagehash/internal/segment"
)

// DefaultSegmentationSize is the side of the square grid the image is
// segmented on.
const DefaultSegmentationSize = 300

// maskFill replaces pixels outside a region when masking is enabled.
var maskFill = color.Gray{Y: 128}

// fringeFraction drops bounding box rows and columns holding less than 5% of
// a region's fullest row or column.
const fringeFraction = 0.05

// CropOptions configures CropResistantHash. The zero value segments a
// 300x300 copy of the image at brightness 128, keeps regions larger than 500
// pixels and fingerprints each with an 8x8 perceptual hash.
type CropOptions struct {
	// HashFunc fingerprints each region. Defaults to PerceptualHash.
	HashFunc HashFunc

	// LimitSegments keeps only the largest regions. Zero keeps all.
	LimitSegments int

	// SegmentThreshold separates bright from dark regions.
	SegmentThreshold float64

	// MinSegmentSize is the number of segmentation pixels a region must
	// exceed.
	MinSegmentSize int

	// SegmentationSize is the side of the segmentation grid.
	SegmentationSize int

	// Mask fills the pixels of a region's bounding box that lie outside
	// the region with neutral gray before hashing.
	Mask bool

	// Segmenter replaces the default threshold segmentation. When set,
	// SegmentThreshold and MinSegmentSize are not used.
	Segmenter segment.Segmenter
}

func (o CropOptions) withDefaults() (CropOptions, error) {
	if o.HashFunc == nil {
		o.HashFunc = func(img image.Image) (*Fingerprint, error) {
			return PerceptualHash(img, PerceptualOptions{})
		}
	}
	if o.SegmentThreshold == 0 {
		o.SegmentThreshold = segment.DefaultThreshold
	}
	if o.MinSegmentSize == 0 {
		o.MinSegmentSize = segment.DefaultMinSize
	}
	if o.SegmentationSize == 0 {
		o.SegmentationSize = DefaultSegmentationSize
	}

	switch {
	case o.LimitSegments < 0:
		return o, configError("limit segments", "must not be negative, got %d", o.LimitSegments)
	case o.MinSegmentSize < 0:
		return o, configError("min segment size", "must not be negative, got %d", o.MinSegmentSize)
	case o.SegmentationSize < 1:
		return o, configError("segmentation size", "must be positive, got %d", o.SegmentationSize)
	case o.SegmentThreshold < 0 || o.SegmentThreshold > 255:
		return o, configError("segment threshold", "must be within [0, 255], got %v", o.SegmentThreshold)
	}

	if o.Segmenter == nil {
		o.Segmenter = &segment.Threshold{
			Threshold: o.SegmentThreshold,
			MinSize:   o.MinSegmentSize,
		}
	}
	return o, nil
}

// CropResistantHash segments img into connected bright and dark regions and
// fingerprints each region's bounding box separately, so that a cropped copy
// still shares most of its segments with the original. An image without any
// large enough region yields an empty MultiFingerprint.
func CropResistantHash(img image.Image, opts CropOptions) (*MultiFingerprint, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}
	if img == nil {
		return nil, formatError("", "nil image")
	}
	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, &SizeError{Width: bounds.Dx(), Height: bounds.Dy(), Required: 1}
	}

	params := SegmentationParams{
		Threshold:        opts.SegmentThreshold,
		MinSegmentSize:   opts.MinSegmentSize,
		SegmentationSize: opts.SegmentationSize,
	}

	grid, err := segment.Prefilter(img, opts.SegmentationSize)
	if err != nil {
		return nil, &FormatError{Err: err}
	}
	regions, err := opts.Segmenter.Segment(grid)
	if err != nil {
		return nil, &FormatError{Err: err}
	}

	if opts.LimitSegments > 0 && len(regions) > opts.LimitSegments {
		slices.SortStableFunc(regions, func(a, b segment.Region) int {
			return cmp.Compare(b.Area(), a.Area())
		})
		regions = regions[:opts.LimitSegments]
	}

	scaleX := float64(bounds.Dx()) / float64(grid.Cols)
	scaleY := float64(bounds.Dy()) / float64(grid.Rows)

	segments := make([]Segment, 0, len(regions))
	for _, region := range regions {
		core := region.CoreBounds(fringeFraction)
		rect := image.Rect(
			int(math.Floor(float64(core.Min.X)*scaleX)),
			int(math.Floor(float64(core.Min.Y)*scaleY)),
			int(math.Ceil(float64(core.Max.X)*scaleX)),
			int(math.Ceil(float64(core.Max.Y)*scaleY)),
		)

		var crop image.Image = imageio.Crop(img, rect.Add(bounds.Min))
		if opts.Mask {
			crop = maskRegion(crop, rect.Min, region, grid.Cols, scaleX, scaleY)
		}

		fp, err := opts.HashFunc(crop)
		if err != nil {
			return nil, err
		}
		segments = append(segments, Segment{
			Fingerprint: fp,
			Bounds:      rect.Add(bounds.Min),
			Area:        region.Area(),
		})
	}
	return NewMulti(segments, params)
}

// maskRegion grays out the pixels of crop, located at origin in the source
// image, whose segmentation cell is not part of region.
func maskRegion(crop image.Image, origin image.Point, region segment.Region, cols int, scaleX, scaleY float64) image.Image {
	member := make(map[int]struct{}, region.Area())
	for _, p := range region.Pixels {
		member[p.Y*cols+p.X] = struct{}{}
	}
	return imageio.MaskOutside(crop, maskFill, func(x, y int) bool {
		gx := int(float64(origin.X+x) / scaleX)
		gy := int(float64(origin.Y+y) / scaleY)
		_, ok := member[gy*cols+gx]
		return ok
	})
}
