package imaging

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"

	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// ErrUnreadableImage is returned when a drawing path cannot be opened or
// decoded. It is a fatal input error: no partial result is produced.
var ErrUnreadableImage = errors.New("unreadable image")

// Load opens and decodes the raster image at path.
//
// Supported formats are PNG, JPEG, GIF, BMP, TIFF and WebP. Any failure is
// wrapped with ErrUnreadableImage so callers can detect it with errors.Is.
func Load(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadableImage, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrUnreadableImage, path, err)
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("%w: %s has no pixels", ErrUnreadableImage, path)
	}
	return img, nil
}

// Channels reports the number of color channels the decoded image carries:
// 1 for grayscale, 4 when any pixel is translucent, 3 otherwise.
func Channels(img image.Image) int {
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		return 1
	}
	if o, ok := img.(interface{ Opaque() bool }); ok && !o.Opaque() {
		return 4
	}
	return 3
}

// Shape returns [height, width, channels] for img.
func Shape(img image.Image) [3]int {
	b := img.Bounds()
	return [3]int{b.Dy(), b.Dx(), Channels(img)}
}
