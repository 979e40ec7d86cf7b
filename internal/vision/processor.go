package vision

import (
	"context"
	"fmt"
	"image"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/raylirui-self/mech-drawing-analyzer/internal/detection"
	"github.com/raylirui-self/mech-drawing-analyzer/internal/imaging"
	"github.com/raylirui-self/mech-drawing-analyzer/internal/model"
	"github.com/raylirui-self/mech-drawing-analyzer/internal/ocr"
)

// Options configures the preprocessing pipeline.
type Options struct {
	// MinRegionArea is the smallest enclosed contour area kept as a region.
	MinRegionArea float64

	// EdgeLow and EdgeHigh are the Canny thresholds (0-255).
	EdgeLow  int
	EdgeHigh int

	// ClipLimit and TileGrid configure contrast enhancement.
	ClipLimit float64
	TileGrid  int

	// MaxImageDimension downscales the working copy used for detection when
	// the longer side exceeds it. Regions and MinRegionArea stay in original
	// coordinates. 0 disables downscaling.
	MaxImageDimension int

	// GrayMode selects the grayscale conversion.
	GrayMode imaging.GrayMode
}

// DefaultOptions returns the standard preprocessing settings.
func DefaultOptions() Options {
	return Options{
		MinRegionArea: detection.DefaultMinArea,
		EdgeLow:       detection.DefaultEdgeLow,
		EdgeHigh:      detection.DefaultEdgeHigh,
		ClipLimit:     2.0,
		TileGrid:      8,
		GrayMode:      imaging.GrayLuma,
	}
}

// EncodedRegion is a detected region with its crop of the original image.
type EncodedRegion struct {
	Type  model.RegionType  `json:"type"`
	BBox  model.BoundingBox `json:"bbox"`
	Image string            `json:"image"`
}

// ImageSet holds the encoded images sent to the vision model.
type ImageSet struct {
	// Full is the original drawing.
	Full string `json:"full"`

	// Enhanced is the contrast-enhanced grayscale drawing.
	Enhanced string `json:"enhanced"`

	// Regions holds one crop per detected region, in detection order.
	Regions []EncodedRegion `json:"regions"`
}

// RegionsOfType returns the encoded crops whose type is t.
func (s ImageSet) RegionsOfType(t model.RegionType) []string {
	images := make([]string, 0)
	for _, r := range s.Regions {
		if r.Type == t {
			images = append(images, r.Image)
		}
	}
	return images
}

// Result is the output of ProcessDrawing.
type Result struct {
	Images   ImageSet         `json:"-"`
	Regions  []model.Region   `json:"regions"`
	Metadata model.CVMetadata `json:"metadata"`

	// TextMask is the binarized text-enhancement mask of the working image.
	TextMask *image.Gray `json:"-"`
}

// Option customizes a Processor.
type Option func(*Processor)

// WithOCR enables title-block OCR with the given reader.
func WithOCR(r ocr.Reader) Option {
	return func(p *Processor) {
		p.ocr = r
	}
}

// Processor loads a drawing, detects its layout regions and prepares the
// encoded images for extraction. It holds no per-drawing state and is safe
// for concurrent use.
type Processor struct {
	opts     Options
	detector *detection.Detector
	ocr      ocr.Reader
	logger   *zap.Logger
}

// NewProcessor returns a Processor. A nil logger discards logs.
func NewProcessor(opts Options, logger *zap.Logger, options ...Option) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Processor{
		opts: opts,
		detector: &detection.Detector{
			EdgeLow:  opts.EdgeLow,
			EdgeHigh: opts.EdgeHigh,
			MinArea:  opts.MinRegionArea,
		},
		logger: logger.Named("vision"),
	}
	for _, o := range options {
		o(p)
	}
	return p
}

// ProcessDrawing runs the preprocessing pipeline on the drawing at path:
// load, grayscale, contrast enhancement, region detection, text masking and
// encoding.
//
// An unreadable path returns an error wrapping imaging.ErrUnreadableImage and
// no partial result. OCR failures are logged and leave TitleBlockText empty.
func (p *Processor) ProcessDrawing(ctx context.Context, path string) (*Result, error) {
	start := time.Now()

	img, err := imaging.Load(path)
	if err != nil {
		return nil, err
	}

	work, scale := imaging.Downscale(img, p.opts.MaxImageDimension)
	gray := imaging.ToGray(work, p.opts.GrayMode)
	enhanced := imaging.Equalize(gray, imaging.EqualizeOptions{
		ClipLimit: p.opts.ClipLimit,
		TileGrid:  p.opts.TileGrid,
	})

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	regions := p.detectorFor(scale).Detect(enhanced)
	if scale != 1 {
		regions = rescaleRegions(regions, scale, img.Bounds())
	}

	mask := imaging.TextMask(enhanced)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	images, err := encodeImages(img, enhanced, regions)
	if err != nil {
		return nil, err
	}

	meta := model.CVMetadata{
		TotalRegions:     len(regions),
		ImageShape:       imaging.Shape(img),
		RegionTypes:      detection.RegionTypes(regions),
		TextMaskCoverage: imaging.Coverage(mask),
	}

	if p.ocr != nil {
		text, err := ocr.TitleBlockText(p.ocr, img, regions)
		if err != nil {
			p.logger.Warn("title block OCR failed", zap.String("path", path), zap.Error(err))
		}
		meta.TitleBlockText = text
	}

	p.logger.Debug("drawing processed",
		zap.String("path", path),
		zap.Int("regions", len(regions)),
		zap.Any("region_types", meta.RegionTypes),
		zap.Duration("elapsed", time.Since(start)),
	)

	return &Result{
		Images:   images,
		Regions:  regions,
		Metadata: meta,
		TextMask: mask,
	}, nil
}

// detectorFor returns the detector to run on a working copy shrunk by scale.
// MinRegionArea is measured in original drawing pixels, so the area cutoff
// shrinks with the square of the scale.
func (p *Processor) detectorFor(scale float64) *detection.Detector {
	if scale == 1 {
		return p.detector
	}
	d := *p.detector
	d.MinArea = p.opts.MinRegionArea / (scale * scale)
	return &d
}

func encodeImages(img, enhanced image.Image, regions []model.Region) (ImageSet, error) {
	full, err := imaging.EncodeDataURL(img)
	if err != nil {
		return ImageSet{}, fmt.Errorf("encode drawing: %w", err)
	}
	enc, err := imaging.EncodeDataURL(enhanced)
	if err != nil {
		return ImageSet{}, fmt.Errorf("encode enhanced drawing: %w", err)
	}

	set := ImageSet{Full: full, Enhanced: enc, Regions: make([]EncodedRegion, 0, len(regions))}
	for _, r := range regions {
		b := r.BBox
		crop, err := imaging.Crop(img, image.Rect(b.X, b.Y, b.X+b.W, b.Y+b.H))
		if err != nil {
			return ImageSet{}, fmt.Errorf("crop %s region: %w", r.Type, err)
		}
		url, err := imaging.EncodeDataURL(crop)
		if err != nil {
			return ImageSet{}, fmt.Errorf("encode %s region: %w", r.Type, err)
		}
		set.Regions = append(set.Regions, EncodedRegion{Type: r.Type, BBox: b, Image: url})
	}
	return set, nil
}

// rescaleRegions maps boxes found on a downscaled copy back onto the
// original image, clipped to its bounds.
func rescaleRegions(regions []model.Region, scale float64, bounds image.Rectangle) []model.Region {
	out := make([]model.Region, len(regions))
	for i, r := range regions {
		x0 := int(math.Floor(float64(r.BBox.X) * scale))
		y0 := int(math.Floor(float64(r.BBox.Y) * scale))
		x1 := min(int(math.Ceil(float64(r.BBox.X+r.BBox.W)*scale)), bounds.Dx())
		y1 := min(int(math.Ceil(float64(r.BBox.Y+r.BBox.H)*scale)), bounds.Dy())
		out[i] = model.Region{
			Type: r.Type,
			BBox: model.BoundingBox{X: x0, Y: y0, W: x1 - x0, H: y1 - y0},
			Area: r.Area * scale * scale,
		}
	}
	return out
}
