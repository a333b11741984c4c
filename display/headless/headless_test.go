package headless

import (
	"errors"
	"github.com/allape/delaycam/display"
	"github.com/allape/delaycam/video"
	"image"
	"testing"
	"time"
)

func TestSink(t *testing.T) {
	sink := New(2)
	frame := video.NewImageFrame(image.NewRGBA(image.Rect(0, 0, 2, 2)))

	if err := sink.Show(frame); !errors.Is(err, display.ErrClosed) {
		t.Fatalf("Expected ErrClosed, got %v", err)
	}

	err := sink.Open()
	if err != nil {
		t.Fatal(err)
	}

	for range 3 {
		if err := sink.Show(frame); err != nil {
			t.Fatal(err)
		}
	}
	if sink.Shown() != 3 {
		t.Fatalf("Expected 3, got %d", sink.Shown())
	}

	start := time.Now()
	if sink.PollQuit(5 * time.Millisecond) {
		t.Fatal("Expected no quit request")
	}
	if time.Since(start) < 5*time.Millisecond {
		t.Fatal("Expected PollQuit to wait for the timeout")
	}

	if _, err := frame.Image(); err != nil {
		t.Fatal("Expected the sink to leave the frame open")
	}

	_ = sink.Close()
}
