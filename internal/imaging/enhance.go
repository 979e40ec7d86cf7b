package imaging

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/histogram"
	"github.com/anthonynsimon/bild/segment"
)

// EqualizeOptions configures contrast-limited adaptive histogram equalization.
type EqualizeOptions struct {
	// ClipLimit bounds each histogram bin at ClipLimit times the mean bin
	// height before redistribution. Values <= 0 default to 2.0.
	ClipLimit float64

	// TileGrid is the number of tiles along each axis. Values <= 0 default to 8.
	TileGrid int
}

func (o EqualizeOptions) withDefaults() EqualizeOptions {
	if o.ClipLimit <= 0 {
		o.ClipLimit = 2.0
	}
	if o.TileGrid <= 0 {
		o.TileGrid = 8
	}
	return o
}

// Equalize performs contrast-limited adaptive histogram equalization on a
// grayscale image.
//
// # Algorithm
//
//  1. Split the image into TileGrid x TileGrid tiles.
//  2. Histogram each tile and clip bins at ClipLimit * pixels / 256,
//     spreading the clipped excess evenly over all bins.
//  3. Build a per-tile lookup table from the clipped cumulative histogram.
//  4. Map each pixel by bilinearly interpolating the lookup tables of the
//     four nearest tile centers.
func Equalize(gray *image.Gray, opts EqualizeOptions) *image.Gray {
	opts = opts.withDefaults()
	b := gray.Bounds()
	width, height := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, width, height))
	if width == 0 || height == 0 {
		return out
	}

	tilesX := min(opts.TileGrid, width)
	tilesY := min(opts.TileGrid, height)
	tileW := (width + tilesX - 1) / tilesX
	tileH := (height + tilesY - 1) / tilesY

	luts := make([][]uint8, tilesX*tilesY)
	for ty := 0; ty < tilesY; ty++ {
		for tx := 0; tx < tilesX; tx++ {
			r := image.Rect(tx*tileW, ty*tileH, min((tx+1)*tileW, width), min((ty+1)*tileH, height)).Add(b.Min)
			luts[ty*tilesX+tx] = tileLUT(gray.SubImage(r), r.Dx()*r.Dy(), opts.ClipLimit)
		}
	}

	for y := 0; y < height; y++ {
		// Position relative to tile centers.
		fy := (float64(y)+0.5)/float64(tileH) - 0.5
		y0 := clamp(int(math.Floor(fy)), 0, tilesY-1)
		y1 := clamp(y0+1, 0, tilesY-1)
		wy := clampFloat(fy-float64(y0), 0, 1)

		for x := 0; x < width; x++ {
			fx := (float64(x)+0.5)/float64(tileW) - 0.5
			x0 := clamp(int(math.Floor(fx)), 0, tilesX-1)
			x1 := clamp(x0+1, 0, tilesX-1)
			wx := clampFloat(fx-float64(x0), 0, 1)

			v := gray.Pix[gray.PixOffset(x+b.Min.X, y+b.Min.Y)]
			top := (1-wx)*float64(luts[y0*tilesX+x0][v]) + wx*float64(luts[y0*tilesX+x1][v])
			bottom := (1-wx)*float64(luts[y1*tilesX+x0][v]) + wx*float64(luts[y1*tilesX+x1][v])
			out.Pix[y*out.Stride+x] = uint8(math.Round((1-wy)*top + wy*bottom))
		}
	}
	return out
}

// tileLUT builds the clipped equalization table for one tile.
func tileLUT(tile image.Image, pixels int, clipLimit float64) []uint8 {
	lut := make([]uint8, 256)
	if pixels == 0 {
		for i := range lut {
			lut[i] = uint8(i)
		}
		return lut
	}

	// For gray input the red channel carries the intensity.
	bins := append([]int(nil), histogram.NewRGBAHistogram(tile).R.Bins...)

	limit := max(int(clipLimit*float64(pixels)/256), 1)
	excess := 0
	for i, n := range bins {
		if n > limit {
			excess += n - limit
			bins[i] = limit
		}
	}
	share, rest := excess/256, excess%256
	for i := range bins {
		bins[i] += share
		if i < rest {
			bins[i]++
		}
	}

	scale := 255.0 / float64(pixels)
	sum := 0
	for i, n := range bins {
		sum += n
		lut[i] = uint8(math.Min(255, math.Round(float64(sum)*scale)))
	}
	return lut
}

// OtsuLevel returns the threshold t that maximizes between-class variance
// when pixels <= t are background and pixels > t are foreground.
func OtsuLevel(gray image.Image) uint8 {
	bins := histogram.NewRGBAHistogram(gray).R.Bins
	total := 0
	weighted := 0.0
	for i, n := range bins {
		total += n
		weighted += float64(i * n)
	}
	if total == 0 {
		return 0
	}

	var (
		best     uint8
		bestVar  = -1.0
		bgCount  int
		bgWeight float64
	)
	for t := 0; t < 256; t++ {
		bgCount += bins[t]
		if bgCount == 0 {
			continue
		}
		fgCount := total - bgCount
		if fgCount == 0 {
			break
		}
		bgWeight += float64(t * bins[t])
		meanBG := bgWeight / float64(bgCount)
		meanFG := (weighted - bgWeight) / float64(fgCount)
		between := float64(bgCount) * float64(fgCount) * (meanBG - meanFG) * (meanBG - meanFG)
		if between > bestVar {
			bestVar = between
			best = uint8(t)
		}
	}
	return best
}

// TextMask highlights dense linework and lettering: a 3x3 morphological close
// (dilate then erode) followed by Otsu binarization. Pixels above the Otsu
// level are white (255), the rest black.
func TextMask(gray *image.Gray) *image.Gray {
	closed := effect.Erode(effect.Dilate(gray, 1), 1)

	level := OtsuLevel(closed)
	if level == 255 {
		return segment.Threshold(closed, 255)
	}
	// segment.Threshold keeps values >= level.
	return segment.Threshold(closed, level+1)
}

// Coverage returns the fraction of non-zero pixels in a binary mask.
func Coverage(mask *image.Gray) float64 {
	b := mask.Bounds()
	total := b.Dx() * b.Dy()
	if total == 0 {
		return 0
	}
	set := 0
	for y := 0; y < b.Dy(); y++ {
		row := mask.Pix[y*mask.Stride : y*mask.Stride+b.Dx()]
		for _, v := range row {
			if v != 0 {
				set++
			}
		}
	}
	return float64(set) / float64(total)
}
