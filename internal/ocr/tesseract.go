package ocr

import (
	"fmt"
	"image"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/raylirui-self/mech-drawing-analyzer/internal/imaging"
	"github.com/raylirui-self/mech-drawing-analyzer/internal/model"
)

// DefaultLanguage is the Tesseract language code used when none is configured.
const DefaultLanguage = "eng"

// Reader recognizes text in an in-memory image.
type Reader interface {
	ReadText(img image.Image) (string, error)
}

// Tesseract is a Reader backed by the Tesseract engine.
//
// A new engine client is created per call, so a Tesseract value is safe for
// concurrent use.
type Tesseract struct {
	// Language is a Tesseract language code such as "eng" or "deu".
	Language string
}

// NewTesseract returns a Tesseract reader for language. An empty language
// selects DefaultLanguage.
func NewTesseract(language string) *Tesseract {
	if language == "" {
		language = DefaultLanguage
	}
	return &Tesseract{Language: language}
}

// ReadText performs OCR on img and returns the recognized text with
// surrounding whitespace trimmed.
//
// The image is handed to Tesseract as PNG bytes; no temporary file is written.
func (t *Tesseract) ReadText(img image.Image) (string, error) {
	data, err := imaging.EncodePNG(img)
	if err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(t.Language); err != nil {
		return "", fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// TitleBlockText reads every title-block region of img and joins the
// non-empty results with newlines, in region order.
//
// Regions of other types are ignored. A drawing without a title block yields
// "" and no error.
func TitleBlockText(r Reader, img image.Image, regions []model.Region) (string, error) {
	parts := make([]string, 0)
	for _, region := range regions {
		if region.Type != model.RegionTitleBlock {
			continue
		}
		b := region.BBox
		crop, err := imaging.Crop(img, image.Rect(b.X, b.Y, b.X+b.W, b.Y+b.H))
		if err != nil {
			return "", fmt.Errorf("crop title block %+v: %w", b, err)
		}
		text, err := r.ReadText(crop)
		if err != nil {
			return "", fmt.Errorf("read title block %+v: %w", b, err)
		}
		if text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n"), nil
}
