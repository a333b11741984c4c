package placeholder

import (
	"image"
	"image/color"
	"testing"
)

func TestCreatePlaceholder(t *testing.T) {
	img, err := CreatePlaceholder(
		640, 360,
		color.RGBA{A: 255},
		color.RGBA{R: 255, G: 255, B: 255, A: 255},
		"Hello, World!",
		true,
	)
	if err != nil {
		t.Fatal(err)
	}

	if img.Bounds().Size() != (image.Point{X: 640, Y: 360}) {
		t.Fatalf("Expected 640x360, got %v", img.Bounds().Size())
	}

	r, g, b, _ := img.At(0, 0).RGBA()
	if r != 0 || g != 0 || b != 0 {
		t.Fatalf("Expected black background, got %d %d %d", r, g, b)
	}

	lit := false
	for x := 0; x < 640 && !lit; x++ {
		r, _, _, _ := img.At(x, 180).RGBA()
		lit = r > 0x8000
	}
	if !lit {
		t.Fatal("Expected text drawn across the middle row")
	}
}
