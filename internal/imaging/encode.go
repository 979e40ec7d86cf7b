package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"strings"
)

// MimeTypePNG is the media type of every encoded image.
const MimeTypePNG = "image/png"

const dataURLPrefix = "data:" + MimeTypePNG + ";base64,"

// ErrInvalidDataURL is returned when a string is not a base64 PNG data URL.
var ErrInvalidDataURL = errors.New("invalid image data URL")

// EncodePNG losslessly encodes img as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeDataURL encodes img as a self-describing PNG data URL of the form
// "data:image/png;base64,<payload>", suitable as a vision-model image
// reference. Decoding the result with DecodeDataURL yields a pixel-identical
// image.
func EncodeDataURL(img image.Image) (string, error) {
	data, err := EncodePNG(img)
	if err != nil {
		return "", err
	}
	return dataURLPrefix + base64.StdEncoding.EncodeToString(data), nil
}

// DecodeDataURLBytes returns the raw PNG bytes carried by a data URL.
func DecodeDataURLBytes(url string) ([]byte, error) {
	payload, ok := strings.CutPrefix(url, dataURLPrefix)
	if !ok {
		return nil, fmt.Errorf("%w: missing %q prefix", ErrInvalidDataURL, dataURLPrefix)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDataURL, err)
	}
	return data, nil
}

// DecodeDataURL decodes a data URL produced by EncodeDataURL.
func DecodeDataURL(url string) (image.Image, error) {
	data, err := DecodeDataURLBytes(url)
	if err != nil {
		return nil, err
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDataURL, err)
	}
	return img, nil
}
