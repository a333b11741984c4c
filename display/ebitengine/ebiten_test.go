package ebitengine

import (
	"errors"
	"github.com/allape/delaycam/display"
	"github.com/allape/delaycam/video"
	"image"
	"image/color"
	"testing"
	"time"
)

func TestAspectFitTransform(t *testing.T) {
	scale, x, y := aspectFitTransform(1280, 720, 640, 480)
	if scale != 1.5 || x != 160 || y != 0 {
		t.Fatalf("Expected (1.5, 160, 0), got (%v, %v, %v)", scale, x, y)
	}

	scale, x, y = aspectFitTransform(400, 400, 800, 400)
	if scale != 0.5 || x != 0 || y != 100 {
		t.Fatalf("Expected (0.5, 0, 100), got (%v, %v, %v)", scale, x, y)
	}
}

func TestShowCopiesFrame(t *testing.T) {
	d := New("test", 0)
	if d.QuitKey != 'q' {
		t.Fatalf("Expected default quit key q, got %q", d.QuitKey)
	}

	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	frame := video.NewImageFrame(img)

	err := d.Show(frame)
	if err != nil {
		t.Fatal(err)
	}
	_ = frame.Close()

	d.mu.Lock()
	shown := d.frame
	d.mu.Unlock()
	if shown == nil || shown.RGBAAt(0, 0).R != 255 {
		t.Fatal("Expected the display to keep its own copy")
	}
}

func TestQuitAndClose(t *testing.T) {
	d := New("test", 'x')

	if d.PollQuit(time.Millisecond) {
		t.Fatal("Expected no quit request yet")
	}

	d.requestQuit()
	d.requestQuit()
	if !d.PollQuit(time.Second) {
		t.Fatal("Expected a quit request")
	}
	for range 200 {
		if !d.PollQuit(0) {
			t.Fatal("Expected a pending quit request to be seen without waiting")
		}
	}

	_ = d.Close()
	_ = d.Close()
	err := d.Show(video.NewImageFrame(image.NewRGBA(image.Rect(0, 0, 1, 1))))
	if !errors.Is(err, display.ErrClosed) {
		t.Fatalf("Expected ErrClosed, got %v", err)
	}
}
