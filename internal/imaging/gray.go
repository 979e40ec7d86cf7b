package imaging

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
)

// GrayMode selects how color pixels are reduced to one intensity channel.
type GrayMode string

const (
	// GrayLuma uses ITU-R BT.601 luma weights.
	GrayLuma GrayMode = "luma"

	// GrayLightness uses the CIE L* component, which tracks perceived
	// brightness more closely for colored markup on scanned drawings.
	GrayLightness GrayMode = "lightness"
)

// ParseGrayMode validates a configured grayscale mode. The empty string maps
// to GrayLuma.
func ParseGrayMode(s string) (GrayMode, error) {
	switch GrayMode(s) {
	case "", GrayLuma:
		return GrayLuma, nil
	case GrayLightness:
		return GrayLightness, nil
	default:
		return "", fmt.Errorf("unknown grayscale mode %q", s)
	}
}

// ToGray converts img to a single-channel image with bounds starting at (0,0).
func ToGray(img image.Image, mode GrayMode) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Bounds().Min == (image.Point{}) {
		return g
	}
	if mode == GrayLightness {
		return lightness(img)
	}

	// imaging.Grayscale returns NRGBA with equal channels.
	src := imaging.Grayscale(img)
	b := src.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		row := src.Pix[y*src.Stride:]
		for x := 0; x < b.Dx(); x++ {
			out.Pix[y*out.Stride+x] = row[x*4]
		}
	}
	return out
}

func lightness(img image.Image) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c, ok := colorful.MakeColor(img.At(x+b.Min.X, y+b.Min.Y))
			if !ok {
				// Fully transparent pixel: treat as paper.
				out.SetGray(x, y, color.Gray{Y: 255})
				continue
			}
			l, _, _ := c.Lab()
			out.SetGray(x, y, color.Gray{Y: uint8(math.Round(clampFloat(l, 0, 1) * 255))})
		}
	}
	return out
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
