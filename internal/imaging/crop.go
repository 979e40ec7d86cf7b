package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
)

// Crop extracts the rectangle r (relative to the image's top-left corner)
// from img. The result has bounds starting at (0,0).
//
// r is intersected with the image; an empty intersection is an error.
func Crop(img image.Image, r image.Rectangle) (*image.NRGBA, error) {
	bounds := img.Bounds()
	abs := r.Add(bounds.Min).Intersect(bounds)
	if abs.Empty() {
		return nil, fmt.Errorf("crop region %v outside image bounds %v", r, bounds)
	}
	return imaging.Crop(img, abs), nil
}

// Downscale shrinks img so that its longer side is at most maxDim pixels,
// preserving aspect ratio. Images already within the limit, and maxDim <= 0,
// return img unchanged. The returned scale factor maps output coordinates
// back to input coordinates (input = output * scale).
func Downscale(img image.Image, maxDim int) (image.Image, float64) {
	b := img.Bounds()
	longest := max(b.Dx(), b.Dy())
	if maxDim <= 0 || longest <= maxDim {
		return img, 1
	}

	scale := float64(longest) / float64(maxDim)
	w := max(int(float64(b.Dx())/scale), 1)
	h := max(int(float64(b.Dy())/scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst, scale
}
