package imaging

import (
	"image"
	"image/color"
	"testing"
)

func TestCanny(t *testing.T) {
	img := createEdgeTestImage(100, 100)

	edges := Canny(img, 50, 150)

	if edges.Bounds().Dx() != 100 || edges.Bounds().Dy() != 100 {
		t.Errorf("dimensions: got %dx%d, want 100x100", edges.Bounds().Dx(), edges.Bounds().Dy())
	}

	if countSet(edges) == 0 {
		t.Error("expected edge pixels around the rectangle")
	}

	// Deep inside the rectangle and the background there is no gradient.
	if edges.GrayAt(50, 50).Y != 0 {
		t.Error("center of rectangle should not be an edge")
	}
	if edges.GrayAt(5, 5).Y != 0 {
		t.Error("background corner should not be an edge")
	}
}

func TestCanny_DifferentThresholds(t *testing.T) {
	img := createEdgeTestImage(50, 50)

	tests := []struct {
		name      string
		low, high int
	}{
		{"low thresholds", 10, 50},
		{"medium thresholds", 50, 150},
		{"high thresholds", 100, 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			edges := Canny(img, tt.low, tt.high)
			if edges.Bounds().Dx() != 50 {
				t.Errorf("width: got %d, want 50", edges.Bounds().Dx())
			}
		})
	}
}

func TestCanny_UniformImage(t *testing.T) {
	img := createFilledImage(40, 40, color.RGBA{128, 128, 128, 255})

	edges := Canny(img, 50, 150)

	if n := countSet(edges); n != 0 {
		t.Errorf("uniform image should have 0 edges, got %d", n)
	}
}

func TestCanny_OffsetBounds(t *testing.T) {
	base := createEdgeTestImage(80, 80)
	sub := base.(*image.RGBA).SubImage(image.Rect(10, 10, 70, 70))

	edges := Canny(sub, 50, 150)

	if edges.Bounds().Min != (image.Point{}) {
		t.Errorf("edge map should start at origin, got %v", edges.Bounds().Min)
	}
	if edges.Bounds().Dx() != 60 {
		t.Errorf("width: got %d, want 60", edges.Bounds().Dx())
	}
}

func TestCanny_Empty(t *testing.T) {
	edges := Canny(image.NewRGBA(image.Rect(0, 0, 0, 0)), 50, 150)
	if !edges.Bounds().Empty() {
		t.Error("expected empty edge map")
	}
}

func TestGaussianBlur(t *testing.T) {
	input := make([][]float64, 10)
	for y := range input {
		input[y] = make([]float64, 10)
		for x := range input[y] {
			input[y][x] = 0.5
		}
	}

	result := gaussianBlur(input, 10, 10)

	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			if absFloat(result[y][x]-0.5) > 1e-9 {
				t.Fatalf("blur of uniform input changed value at (%d,%d): %f", x, y, result[y][x])
			}
		}
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		val, lo, hi, want int
	}{
		{5, 0, 10, 5},
		{-1, 0, 10, 0},
		{11, 0, 10, 10},
		{0, 0, 0, 0},
	}

	for _, tt := range tests {
		if got := clamp(tt.val, tt.lo, tt.hi); got != tt.want {
			t.Errorf("clamp(%d, %d, %d) = %d, want %d", tt.val, tt.lo, tt.hi, got, tt.want)
		}
	}
}

// createEdgeTestImage creates an image with a black rectangle on white background
// to create clear edges for testing
func createEdgeTestImage(width, height int) image.Image {
	img := createFilledImage(width, height, color.White)

	for y := height / 4; y < 3*height/4; y++ {
		for x := width / 4; x < 3*width/4; x++ {
			img.Set(x, y, color.Black)
		}
	}

	return img
}

func countSet(g *image.Gray) int {
	n := 0
	for _, v := range g.Pix {
		if v != 0 {
			n++
		}
	}
	return n
}

func absFloat(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
