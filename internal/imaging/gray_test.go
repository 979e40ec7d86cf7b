package imaging

import (
	"image"
	"image/color"
	"testing"
)

func TestToGray_Luma(t *testing.T) {
	img := createFilledImage(4, 4, color.White)
	img.Set(1, 1, color.Black)

	gray := ToGray(img, GrayLuma)

	if gray.GrayAt(0, 0).Y != 255 {
		t.Errorf("white pixel: got %d, want 255", gray.GrayAt(0, 0).Y)
	}
	if gray.GrayAt(1, 1).Y != 0 {
		t.Errorf("black pixel: got %d, want 0", gray.GrayAt(1, 1).Y)
	}
}

func TestToGray_Lightness(t *testing.T) {
	img := createFilledImage(4, 4, color.White)
	img.Set(2, 2, color.Black)
	img.Set(3, 3, color.RGBA{0, 0, 255, 255})

	gray := ToGray(img, GrayLightness)

	if gray.GrayAt(0, 0).Y < 254 {
		t.Errorf("white pixel: got %d, want ~255", gray.GrayAt(0, 0).Y)
	}
	if gray.GrayAt(2, 2).Y != 0 {
		t.Errorf("black pixel: got %d, want 0", gray.GrayAt(2, 2).Y)
	}
	// Pure blue has L* of roughly 32.
	if v := gray.GrayAt(3, 3).Y; v < 70 || v > 90 {
		t.Errorf("blue pixel lightness: got %d, want ~82", v)
	}
}

func TestToGray_PassThrough(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 5, 5))
	if ToGray(g, GrayLuma) != g {
		t.Error("gray input at origin should be returned unchanged")
	}
}

func TestParseGrayMode(t *testing.T) {
	tests := []struct {
		in      string
		want    GrayMode
		wantErr bool
	}{
		{"", GrayLuma, false},
		{"luma", GrayLuma, false},
		{"lightness", GrayLightness, false},
		{"hsv", "", true},
	}

	for _, tt := range tests {
		got, err := ParseGrayMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseGrayMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseGrayMode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
