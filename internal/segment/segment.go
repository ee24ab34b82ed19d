/*
Package segment partitions a grayscale image into connected bright ("hill")
and dark ("valley") regions. It is the segmentation step of the
crop-resistant hash.
*/
package segment

import (
	"errors"
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
	"github.com/kozaktomas/imagehash/internal/imageio"
	"github.com/kozaktomas/imagehash/internal/transform"
)

const (
	// DefaultThreshold is the brightness separating hills from valleys.
	DefaultThreshold = 128

	// DefaultMinSize is the number of pixels a region must exceed to be kept.
	DefaultMinSize = 500

	// blurSigma matches a Gaussian blur of radius 2.
	blurSigma = 2.0

	// medianRadius gives a 3x3 median window.
	medianRadius = 1.0
)

// ErrEmptyImage is returned when there are no pixels to segment.
var ErrEmptyImage = errors.New("empty segmentation input")

// Region is a connected set of pixels in the segmentation grid.
type Region struct {
	// Pixels lists the region's pixels, X being the column and Y the row.
	Pixels []image.Point

	// Bounds is the smallest rectangle containing every pixel (Max exclusive).
	Bounds image.Rectangle

	// Hill is true for regions brighter than the threshold.
	Hill bool
}

// Area returns the number of pixels in the region.
func (r Region) Area() int {
	return len(r.Pixels)
}

// CoreBounds is Bounds without the sparse fringe: outer rows and columns
// holding fewer than fraction times the pixels of the fullest row or column
// are dropped. Where a threshold crossing is jagged, a few stray cells on
// one side otherwise widen the box by a whole cell.
func (r Region) CoreBounds(fraction float64) image.Rectangle {
	b := r.Bounds
	if fraction <= 0 || len(r.Pixels) == 0 || b.Empty() {
		return b
	}

	cols := make([]int, b.Dx())
	rows := make([]int, b.Dy())
	for _, p := range r.Pixels {
		if !p.In(b) {
			continue
		}
		cols[p.X-b.Min.X]++
		rows[p.Y-b.Min.Y]++
	}

	lo, hi := trimSparse(cols, fraction)
	top, bottom := trimSparse(rows, fraction)
	return image.Rect(b.Min.X+lo, b.Min.Y+top, b.Min.X+hi, b.Min.Y+bottom)
}

// trimSparse returns the [lo, hi) range of counts left after dropping the
// leading and trailing entries below fraction of the largest one.
func trimSparse(counts []int, fraction float64) (lo, hi int) {
	peak := 0
	for _, c := range counts {
		peak = max(peak, c)
	}
	limit := fraction * float64(peak)

	lo, hi = 0, len(counts)
	for lo < hi && float64(counts[lo]) < limit {
		lo++
	}
	for hi > lo && float64(counts[hi-1]) < limit {
		hi--
	}
	return lo, hi
}

// Segmenter splits a grid of grayscale samples into regions.
type Segmenter interface {
	Segment(pixels transform.Matrix) ([]Region, error)
}

// Prefilter converts img to grayscale, resizes it to size×size and smooths it
// with a Gaussian blur followed by a 3x3 median filter.
func Prefilter(img image.Image, size int) (transform.Matrix, error) {
	if size <= 0 {
		return transform.Matrix{}, fmt.Errorf("invalid segmentation size %d", size)
	}
	if img.Bounds().Empty() {
		return transform.Matrix{}, ErrEmptyImage
	}

	gray := imaging.Grayscale(img)
	resized := imaging.Resize(gray, size, size, imaging.Lanczos)
	blurred := imaging.Blur(resized, blurSigma)
	filtered := effect.Median(blurred, medianRadius)

	return imageio.Luma(filtered), nil
}

// Threshold segments by brightness: pixels above Threshold form hills, the
// rest form valleys, and every 4-connected component larger than MinSize
// becomes a region. Hills are reported before valleys, each in row-major
// order of their first pixel.
type Threshold struct {
	Threshold float64
	MinSize   int
}

// NewThreshold returns a threshold segmenter with the default parameters.
func NewThreshold() *Threshold {
	return &Threshold{
		Threshold: DefaultThreshold,
		MinSize:   DefaultMinSize,
	}
}

// Segment implements Segmenter.
func (s *Threshold) Segment(pixels transform.Matrix) ([]Region, error) {
	if pixels.Rows == 0 || pixels.Cols == 0 {
		return nil, ErrEmptyImage
	}
	if len(pixels.Data) != pixels.Rows*pixels.Cols {
		return nil, fmt.Errorf("malformed pixel grid: %d values for %dx%d", len(pixels.Data), pixels.Rows, pixels.Cols)
	}

	bright := make([]bool, len(pixels.Data))
	for i, v := range pixels.Data {
		bright[i] = v > s.Threshold
	}

	assigned := make([]bool, len(pixels.Data))
	var regions []Region
	for _, hill := range []bool{true, false} {
		for start := range pixels.Data {
			if assigned[start] || bright[start] != hill {
				continue
			}
			region := floodFill(pixels.Rows, pixels.Cols, start, bright, assigned)
			region.Hill = hill
			if region.Area() > s.MinSize {
				regions = append(regions, region)
			}
		}
	}
	return regions, nil
}

// floodFill collects the 4-connected component containing start whose pixels
// share start's brightness class, marking them as assigned.
func floodFill(rows, cols, start int, bright, assigned []bool) Region {
	class := bright[start]
	stack := []int{start}
	assigned[start] = true

	minX, minY := cols, rows
	maxX, maxY := -1, -1
	var pixels []image.Point

	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		x, y := idx%cols, idx/cols
		pixels = append(pixels, image.Pt(x, y))
		minX, maxX = min(minX, x), max(maxX, x)
		minY, maxY = min(minY, y), max(maxY, y)

		neighbours := [4][2]int{{x - 1, y}, {x + 1, y}, {x, y - 1}, {x, y + 1}}
		for _, n := range neighbours {
			nx, ny := n[0], n[1]
			if nx < 0 || ny < 0 || nx >= cols || ny >= rows {
				continue
			}
			next := ny*cols + nx
			if assigned[next] || bright[next] != class {
				continue
			}
			assigned[next] = true
			stack = append(stack, next)
		}
	}

	return Region{
		Pixels: pixels,
		Bounds: image.Rect(minX, minY, maxX+1, maxY+1),
	}
}
