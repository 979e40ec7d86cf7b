package imaging

import (
	"image"
	"image/color"
	"testing"
)

func TestCrop(t *testing.T) {
	img := createFilledImage(100, 100, color.RGBA{255, 0, 0, 255})

	result, err := Crop(img, image.Rect(10, 20, 50, 80))
	if err != nil {
		t.Fatalf("Crop failed: %v", err)
	}

	if result.Bounds().Dx() != 40 || result.Bounds().Dy() != 60 {
		t.Errorf("dimensions: got %dx%d, want 40x60", result.Bounds().Dx(), result.Bounds().Dy())
	}
	if result.Bounds().Min != (image.Point{}) {
		t.Errorf("crop should start at origin, got %v", result.Bounds().Min)
	}
}

func TestCrop_ClipsToBounds(t *testing.T) {
	img := createFilledImage(50, 50, color.White)

	result, err := Crop(img, image.Rect(40, 40, 80, 80))
	if err != nil {
		t.Fatalf("Crop failed: %v", err)
	}
	if result.Bounds().Dx() != 10 || result.Bounds().Dy() != 10 {
		t.Errorf("dimensions: got %dx%d, want 10x10", result.Bounds().Dx(), result.Bounds().Dy())
	}
}

func TestCrop_OutOfBounds(t *testing.T) {
	img := createFilledImage(50, 50, color.White)

	tests := []struct {
		name string
		r    image.Rectangle
	}{
		{"entirely right", image.Rect(60, 0, 70, 10)},
		{"entirely below", image.Rect(0, 60, 10, 70)},
		{"empty", image.Rect(10, 10, 10, 10)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Crop(img, tt.r); err == nil {
				t.Error("expected error for region outside image")
			}
		})
	}
}

func TestCrop_VerifyContent(t *testing.T) {
	img := createFilledImage(20, 20, color.White)
	img.Set(12, 7, color.RGBA{0, 0, 255, 255})

	result, err := Crop(img, image.Rect(10, 5, 15, 10))
	if err != nil {
		t.Fatalf("Crop failed: %v", err)
	}

	r, g, b, _ := result.At(2, 2).RGBA()
	if r>>8 != 0 || g>>8 != 0 || b>>8 != 255 {
		t.Errorf("pixel (2,2): got (%d,%d,%d), want blue", r>>8, g>>8, b>>8)
	}
}

func TestCrop_OffsetSource(t *testing.T) {
	base := createFilledImage(40, 40, color.White)
	base.Set(25, 25, color.Black)
	sub := base.SubImage(image.Rect(20, 20, 40, 40))

	result, err := Crop(sub, image.Rect(0, 0, 10, 10))
	if err != nil {
		t.Fatalf("Crop failed: %v", err)
	}

	r, _, _, _ := result.At(5, 5).RGBA()
	if r != 0 {
		t.Error("crop coordinates should be relative to the source's top-left corner")
	}
}

func TestDownscale(t *testing.T) {
	img := createFilledImage(400, 200, color.White)

	tests := []struct {
		name      string
		maxDim    int
		wantW     int
		wantH     int
		wantScale float64
	}{
		{"disabled", 0, 400, 200, 1},
		{"within limit", 500, 400, 200, 1},
		{"halved", 200, 200, 100, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, scale := Downscale(img, tt.maxDim)
			if out.Bounds().Dx() != tt.wantW || out.Bounds().Dy() != tt.wantH {
				t.Errorf("dimensions: got %dx%d, want %dx%d",
					out.Bounds().Dx(), out.Bounds().Dy(), tt.wantW, tt.wantH)
			}
			if scale != tt.wantScale {
				t.Errorf("scale: got %f, want %f", scale, tt.wantScale)
			}
		})
	}
}
