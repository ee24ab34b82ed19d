package segment

import (
	"image"
	"image/color"
	"testing"

	"github.com/kozaktomas/imagehash/internal/transform"
)

// gridFromRows builds a matrix from rows of values.
func gridFromRows(rows [][]float64) transform.Matrix {
	m := transform.NewMatrix(len(rows), len(rows[0]))
	for r, row := range rows {
		copy(m.Data[r*m.Cols:], row)
	}
	return m
}

func TestThresholdSegmentsHillsThenValleys(t *testing.T) {
	grid := gridFromRows([][]float64{
		{200, 200, 0, 0, 0},
		{200, 200, 0, 0, 0},
		{0, 0, 0, 200, 200},
		{0, 0, 0, 200, 200},
	})
	s := &Threshold{Threshold: 128, MinSize: 0}

	regions, err := s.Segment(grid)
	if err != nil {
		t.Fatalf("Segment failed: %v", err)
	}
	if len(regions) != 3 {
		t.Fatalf("expected 3 regions, got %d", len(regions))
	}

	if !regions[0].Hill || regions[0].Bounds != image.Rect(0, 0, 2, 2) {
		t.Errorf("first region = hill:%v %v; want top-left hill", regions[0].Hill, regions[0].Bounds)
	}
	if !regions[1].Hill || regions[1].Bounds != image.Rect(3, 2, 5, 4) {
		t.Errorf("second region = hill:%v %v; want bottom-right hill", regions[1].Hill, regions[1].Bounds)
	}
	if regions[2].Hill || regions[2].Area() != 12 {
		t.Errorf("third region = hill:%v area %d; want valley with 12 pixels", regions[2].Hill, regions[2].Area())
	}
	if regions[2].Bounds != image.Rect(0, 0, 5, 4) {
		t.Errorf("valley bounds = %v; want whole grid", regions[2].Bounds)
	}
}

func TestThresholdDiscardsSmallRegions(t *testing.T) {
	grid := gridFromRows([][]float64{
		{200, 0, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 200, 200},
		{0, 0, 200, 200},
	})
	s := &Threshold{Threshold: 128, MinSize: 3}

	regions, err := s.Segment(grid)
	if err != nil {
		t.Fatalf("Segment failed: %v", err)
	}
	// The single bright pixel (1) and the 2x2 hill (4 > 3) differ; valley has 11.
	if len(regions) != 2 {
		t.Fatalf("expected 2 regions, got %d", len(regions))
	}
	if regions[0].Area() != 4 || regions[1].Area() != 11 {
		t.Errorf("areas = %d, %d; want 4, 11", regions[0].Area(), regions[1].Area())
	}
}

func TestThresholdMinSizeIsExclusive(t *testing.T) {
	grid := gridFromRows([][]float64{
		{200, 200},
		{200, 200},
	})
	s := &Threshold{Threshold: 128, MinSize: 4}

	regions, err := s.Segment(grid)
	if err != nil {
		t.Fatalf("Segment failed: %v", err)
	}
	if len(regions) != 0 {
		t.Errorf("region with exactly MinSize pixels should be discarded, got %d regions", len(regions))
	}
}

func TestThresholdDiagonalNotConnected(t *testing.T) {
	grid := gridFromRows([][]float64{
		{200, 0},
		{0, 200},
	})
	s := &Threshold{Threshold: 128}

	regions, err := s.Segment(grid)
	if err != nil {
		t.Fatalf("Segment failed: %v", err)
	}
	if len(regions) != 4 {
		t.Errorf("expected 4 single-pixel regions with 4-connectivity, got %d", len(regions))
	}
}

func TestThresholdEmpty(t *testing.T) {
	if _, err := NewThreshold().Segment(transform.Matrix{}); err == nil {
		t.Error("expected error for empty grid")
	}
}

func TestPrefilter(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 120, 80))
	for y := range 80 {
		for x := range 120 {
			v := uint8(30)
			if x > 40 && x < 80 && y > 20 && y < 60 {
				v = 220
			}
			img.Set(x, y, color.RGBA{v, v, v, 255})
		}
	}

	grid, err := Prefilter(img, 60)
	if err != nil {
		t.Fatalf("Prefilter failed: %v", err)
	}
	if grid.Rows != 60 || grid.Cols != 60 {
		t.Fatalf("grid = %dx%d; want 60x60", grid.Rows, grid.Cols)
	}
	if grid.At(30, 30) < 128 {
		t.Errorf("centre of bright square = %f; want bright", grid.At(30, 30))
	}
	if grid.At(2, 2) > 128 {
		t.Errorf("corner = %f; want dark", grid.At(2, 2))
	}
}

func TestPrefilterInvalid(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	if _, err := Prefilter(img, 0); err == nil {
		t.Error("expected error for zero size")
	}
	if _, err := Prefilter(image.NewRGBA(image.Rectangle{}), 10); err == nil {
		t.Error("expected error for empty image")
	}
}

// squareRegion returns a full square region of the given side at origin.
func squareRegion(origin image.Point, side int) Region {
	var pixels []image.Point
	for y := range side {
		for x := range side {
			pixels = append(pixels, origin.Add(image.Pt(x, y)))
		}
	}
	return Region{Pixels: pixels, Bounds: image.Rectangle{Min: origin, Max: origin.Add(image.Pt(side, side))}}
}

func TestCoreBounds(t *testing.T) {
	square := squareRegion(image.Pt(10, 10), 40)

	fringed := squareRegion(image.Pt(10, 10), 40)
	fringed.Pixels = append(fringed.Pixels, image.Pt(50, 30), image.Pt(30, 9))
	fringed.Bounds = image.Rect(10, 9, 51, 50)

	corner := Region{
		Pixels: []image.Point{{0, 0}, {1, 0}, {2, 0}, {3, 0}, {0, 1}},
		Bounds: image.Rect(0, 0, 4, 2),
	}

	tests := []struct {
		name     string
		region   Region
		fraction float64
		want     image.Rectangle
	}{
		{"full square", square, 0.05, image.Rect(10, 10, 50, 50)},
		{"stray cells trimmed", fringed, 0.05, image.Rect(10, 10, 50, 50)},
		{"trimming disabled", fringed, 0, image.Rect(10, 9, 51, 50)},
		{"small region kept", corner, 0.05, image.Rect(0, 0, 4, 2)},
		{"empty region", Region{}, 0.05, image.Rectangle{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.region.CoreBounds(tc.fraction); got != tc.want {
				t.Errorf("CoreBounds = %v; want %v", got, tc.want)
			}
		})
	}
}
