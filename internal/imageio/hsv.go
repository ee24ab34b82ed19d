package imageio

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// HSVPlanes holds per-pixel hue, saturation, value and luma, each scaled to
// 0-255, in row-major order.
type HSVPlanes struct {
	H, S, V []uint8
	Luma    []uint8
	Width   int
	Height  int
}

// Len returns the number of pixels.
func (p *HSVPlanes) Len() int {
	return len(p.H)
}

// ToHSV converts every pixel of img to hue/saturation/value and luma.
func ToHSV(img image.Image) *HSVPlanes {
	src := imaging.Clone(img)
	bounds := src.Bounds()
	n := bounds.Dx() * bounds.Dy()
	planes := &HSVPlanes{
		H:      make([]uint8, n),
		S:      make([]uint8, n),
		V:      make([]uint8, n),
		Luma:   make([]uint8, n),
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}

	i := 0
	for y := range bounds.Dy() {
		row := src.Pix[y*src.Stride:]
		for x := range bounds.Dx() {
			r, g, b := row[x*4], row[x*4+1], row[x*4+2]
			planes.H[i], planes.S[i], planes.V[i] = RGBToHSV(r, g, b)
			planes.Luma[i] = Luminance(r, g, b)
			i++
		}
	}
	return planes
}

// RGBToHSV converts an 8-bit RGB triple to hue, saturation and value, each
// scaled to 0-255 and truncated.
func RGBToHSV(r, g, b uint8) (h, s, v uint8) {
	maxc := max(r, g, b)
	minc := min(r, g, b)
	v = maxc
	if maxc == minc {
		return 0, 0, v
	}

	cr := float64(maxc - minc)
	sat := cr / float64(maxc)
	rc := float64(maxc-r) / cr
	gc := float64(maxc-g) / cr
	bc := float64(maxc-b) / cr

	var hue float64
	switch maxc {
	case r:
		hue = bc - gc
	case g:
		hue = 2 + rc - bc
	default:
		hue = 4 + gc - rc
	}
	hue = math.Mod(hue/6+1, 1)

	return clip8(hue * 255), clip8(sat * 255), v
}

func clip8(f float64) uint8 {
	n := int(f)
	if n < 0 {
		return 0
	}
	if n > 255 {
		return 255
	}
	return uint8(n)
}
