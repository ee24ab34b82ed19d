// Package imageio decodes images and converts them into the sample grids the
// hash algorithms operate on.
package imageio

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	"github.com/disintegration/imaging"
	"github.com/kozaktomas/imagehash/internal/transform"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrUnsupportedFormat is returned when the input cannot be decoded by any
// registered codec.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Decode reads an image from r, applying EXIF orientation when present.
func Decode(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, fmt.Errorf("%w: %w", ErrUnsupportedFormat, err)
		}
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// DecodeBytes decodes an in-memory image.
func DecodeBytes(data []byte) (image.Image, error) {
	return Decode(bytes.NewReader(data))
}

// Open decodes the image stored at path.
func Open(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// GraySamples converts img to grayscale, resizes it to width×height with a
// Lanczos filter and returns the luma samples (0-255) as a matrix with height
// rows and width columns.
func GraySamples(img image.Image, width, height int) (transform.Matrix, error) {
	if width <= 0 || height <= 0 {
		return transform.Matrix{}, fmt.Errorf("invalid sample grid %dx%d", width, height)
	}
	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return transform.Matrix{}, errors.New("empty image")
	}

	gray := imaging.Grayscale(img)
	resized := imaging.Resize(gray, width, height, imaging.Lanczos)
	return lumaMatrix(resized), nil
}

// Luma returns the grayscale intensity (0-255) of every pixel of img.
func Luma(img image.Image) transform.Matrix {
	return lumaMatrix(imaging.Grayscale(img))
}

// lumaMatrix reads the first channel of an already grayscale NRGBA image.
func lumaMatrix(img *image.NRGBA) transform.Matrix {
	bounds := img.Bounds()
	m := transform.NewMatrix(bounds.Dy(), bounds.Dx())
	for y := range bounds.Dy() {
		row := img.Pix[y*img.Stride:]
		for x := range bounds.Dx() {
			m.Data[y*m.Cols+x] = float64(row[x*4])
		}
	}
	return m
}

// Luminance returns the ITU-R 601-2 luma of an 8-bit RGB triple.
func Luminance(r, g, b uint8) uint8 {
	return uint8((uint32(r)*299 + uint32(g)*587 + uint32(b)*114) / 1000)
}

// Resize scales img to exactly width×height with a Lanczos filter.
func Resize(img image.Image, width, height int) *image.NRGBA {
	return imaging.Resize(img, width, height, imaging.Lanczos)
}

// Crop returns the part of img inside rect, clipped to the image bounds.
func Crop(img image.Image, rect image.Rectangle) *image.NRGBA {
	return imaging.Crop(img, rect)
}

// MaskOutside returns a copy of img in which every pixel for which inside
// reports false is replaced by fill. Coordinates passed to inside are
// relative to the image origin.
func MaskOutside(img image.Image, fill color.Color, inside func(x, y int) bool) *image.NRGBA {
	bounds := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(out, out.Bounds(), img, bounds.Min, draw.Src)
	fillColor := color.NRGBAModel.Convert(fill).(color.NRGBA)
	for y := range bounds.Dy() {
		for x := range bounds.Dx() {
			if !inside(x, y) {
				out.SetNRGBA(x, y, fillColor)
			}
		}
	}
	return out
}
