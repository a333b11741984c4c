package shell

import (
	"bytes"
	"errors"
	"github.com/allape/delaycam/config"
	"github.com/allape/delaycam/video"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"os/exec"
	"path"
	"testing"
)

func encodeJPEG(t *testing.T, width, height int, c color.Color) []byte {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, c)
		}
	}
	buf := bytes.NewBuffer(nil)
	err := jpeg.Encode(buf, img, &jpeg.Options{Quality: 75})
	if err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDriver(t *testing.T) {
	if _, err := exec.LookPath("cat"); err != nil {
		t.Skip("cat is not available")
	}

	stream := bytes.NewBuffer(nil)
	stream.WriteString("ffmpeg banner noise")
	stream.Write(encodeJPEG(t, 32, 16, color.RGBA{R: 255, A: 255}))
	stream.Write(encodeJPEG(t, 64, 32, color.RGBA{B: 255, A: 255}))

	file := path.Join(t.TempDir(), "stream.mjpeg")
	err := os.WriteFile(file, stream.Bytes(), 0644)
	if err != nil {
		t.Fatal(err)
	}

	driver := NewDriver(config.VideoShellSrc{"cat", file}, &Options{
		Options: video.Options{FrameRate: 30},
	})

	err = driver.Open()
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		_ = driver.Close()
	}()

	if driver.GetFrameRate() != 30 {
		t.Fatalf("Expected 30, got %f", driver.GetFrameRate())
	}

	for _, size := range []image.Point{{X: 32, Y: 16}, {X: 64, Y: 32}} {
		frame, err := driver.Read()
		if err != nil {
			t.Fatal(err)
		}
		if frame.Size() != size {
			t.Fatalf("Expected %v, got %v", size, frame.Size())
		}
		_ = frame.Close()
	}

	_, err = driver.Read()
	if !errors.Is(err, video.ErrEndOfStream) {
		t.Fatalf("Expected ErrEndOfStream, got %v", err)
	}
}

func TestOpenEmptyCommand(t *testing.T) {
	driver := NewDriver(nil, nil)
	if err := driver.Open(); err == nil {
		t.Fatal("Expected an error for an empty command")
	}
	if _, err := driver.Read(); !errors.Is(err, video.ErrNotOpened) {
		t.Fatalf("Expected ErrNotOpened, got %v", err)
	}
}

func TestSetupCommandFailure(t *testing.T) {
	if _, err := exec.LookPath("false"); err != nil {
		t.Skip("false is not available")
	}

	driver := NewDriver(config.VideoShellSrc{"cat"}, &Options{
		Options: video.Options{
			SetupCommands: []config.SetupCommand{{"false"}},
		},
	})
	if err := driver.Open(); err == nil {
		_ = driver.Close()
		t.Fatal("Expected the failing setup command to abort Open")
	}
}
