package model

// RegionType is the coarse category assigned to a detected drawing region.
type RegionType string

const (
	RegionTitleBlock  RegionType = "title_block"
	RegionTable       RegionType = "table"
	RegionDrawingView RegionType = "drawing_view"
	RegionDetail      RegionType = "detail"
)

// BoundingBox is an axis-aligned box in pixel coordinates. (X, Y) is the
// top-left corner; W and H are the extent.
type BoundingBox struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Region is a classified bounding box found by contour detection.
type Region struct {
	Type RegionType  `json:"type"`
	BBox BoundingBox `json:"bbox"`

	// Area is the area enclosed by the region's contour in square pixels.
	Area float64 `json:"area"`
}
