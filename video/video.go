package video

import (
	"errors"
	"github.com/allape/delaycam/config"
	"image"
	"io"
)

var (
	ErrSourceUnavailable = errors.New("source unavailable")
	ErrEndOfStream       = errors.New("end of stream")
	ErrNotOpened         = errors.New("source is not opened")
)

// Frame is one captured picture. Whoever holds a Frame owns it until Close.
type Frame interface {
	io.Closer
	Image() (image.Image, error)
	Size() image.Point
}

// Source produces frames on demand.
type Source interface {
	io.Closer
	Open() error

	// GetFrameRate is the nominal rate in frames per second, 0 if unknown.
	GetFrameRate() float64

	// Read blocks until the next frame is captured.
	// It returns ErrEndOfStream once the source has nothing more to give.
	Read() (Frame, error)
}

type Options struct {
	Width         int
	Height        int
	FrameRate     float64
	FlipCode      config.FlipCode
	SetupCommands []config.SetupCommand
	Ext           config.TagString
}

// ImageFrame is a Frame backed by a Go image held in memory.
type ImageFrame struct {
	img image.Image
}

func NewImageFrame(img image.Image) *ImageFrame {
	return &ImageFrame{img: img}
}

func (f *ImageFrame) Image() (image.Image, error) {
	if f.img == nil {
		return nil, errors.New("frame is released")
	}
	return f.img, nil
}

func (f *ImageFrame) Size() image.Point {
	if f.img == nil {
		return image.Point{}
	}
	return f.img.Bounds().Size()
}

func (f *ImageFrame) Close() error {
	f.img = nil
	return nil
}
