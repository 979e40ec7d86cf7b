package detection

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/segment"

	"github.com/raylirui-self/mech-drawing-analyzer/internal/imaging"
	"github.com/raylirui-self/mech-drawing-analyzer/internal/model"
)

// Default detector settings.
const (
	DefaultMinArea  = 5000
	DefaultEdgeLow  = 50
	DefaultEdgeHigh = 150
)

// Detector finds and classifies layout regions in a grayscale drawing.
//
// The zero value is not usable; construct with NewDetector or fill every field.
type Detector struct {
	// EdgeLow and EdgeHigh are the Canny hysteresis thresholds (0-255).
	EdgeLow  int
	EdgeHigh int

	// MinArea is the minimum enclosed contour area, in square pixels, for a
	// contour to become a region.
	MinArea float64
}

// NewDetector returns a Detector with the default thresholds.
func NewDetector() *Detector {
	return &Detector{
		EdgeLow:  DefaultEdgeLow,
		EdgeHigh: DefaultEdgeHigh,
		MinArea:  DefaultMinArea,
	}
}

// Detect runs edge detection on gray and returns the classified regions of
// its external contours. Contours whose enclosed area is below MinArea are
// discarded. The result is ordered by the raster position of each contour's
// first pixel; callers must not rely on any particular order.
func (d *Detector) Detect(gray image.Image) []model.Region {
	edges := imaging.Canny(gray, d.EdgeLow, d.EdgeHigh)
	return d.Regions(closeGaps(edges))
}

// closeGaps dilates the edge map by one pixel so that corners thinned apart by
// non-maximum suppression still form closed contours.
func closeGaps(edges *image.Gray) *image.Gray {
	return segment.Threshold(effect.Dilate(edges, 1), 128)
}

// Regions classifies the external contours of a precomputed edge map.
func (d *Detector) Regions(edges *image.Gray) []model.Region {
	imgW, imgH := edges.Bounds().Dx(), edges.Bounds().Dy()

	regions := make([]model.Region, 0)
	for _, c := range FindExternalContours(edges) {
		if c.Area < d.MinArea {
			continue
		}
		x, y := c.Bounds.Min.X, c.Bounds.Min.Y
		w, h := c.Bounds.Dx(), c.Bounds.Dy()
		regions = append(regions, model.Region{
			Type: ClassifyRegion(x, y, w, h, imgW, imgH),
			BBox: model.BoundingBox{X: x, Y: y, W: w, H: h},
			Area: c.Area,
		})
	}
	return regions
}

// ClassifyRegion assigns a region type to the bounding box (x, y, w, h) inside
// an image of imgW x imgH pixels. The first matching rule wins:
//
//  1. x > 60% of width and y > 70% of height: title block
//  2. aspect ratio w/h in (0.3, 3) and w > 20% of width: table
//  3. w > 25% of width or h > 25% of height: drawing view
//  4. otherwise: detail
//
// A zero height has an infinite aspect ratio and never classifies as a table.
func ClassifyRegion(x, y, w, h, imgW, imgH int) model.RegionType {
	fw, fh := float64(imgW), float64(imgH)

	if float64(x) > 0.6*fw && float64(y) > 0.7*fh {
		return model.RegionTitleBlock
	}

	aspect := math.Inf(1)
	if h > 0 {
		aspect = float64(w) / float64(h)
	}
	if aspect > 0.3 && aspect < 3 && float64(w) > 0.2*fw {
		return model.RegionTable
	}

	if float64(w) > 0.25*fw || float64(h) > 0.25*fh {
		return model.RegionDrawingView
	}

	return model.RegionDetail
}

// RegionTypes returns the distinct types present in regions, sorted.
func RegionTypes(regions []model.Region) []model.RegionType {
	seen := make(map[model.RegionType]bool, 4)
	for _, r := range regions {
		seen[r.Type] = true
	}
	types := make([]model.RegionType, 0, len(seen))
	for _, t := range []model.RegionType{
		model.RegionDetail,
		model.RegionDrawingView,
		model.RegionTable,
		model.RegionTitleBlock,
	} {
		if seen[t] {
			types = append(types, t)
		}
	}
	return types
}
