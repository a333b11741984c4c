package v4l2

import (
	"bytes"
	"errors"
	"fmt"
	"github.com/allape/delaycam/video"
	"github.com/allape/gogger"
	"github.com/blackjack/webcam"
	"image/jpeg"
	"sync"
)

var l = gogger.New("video.v4l2")

// PixelFormatMJPEG is the V4L2 fourcc for Motion-JPEG.
const PixelFormatMJPEG webcam.PixelFormat = 0x47504A4D

const DefaultTimeout uint32 = 5

// Camera streams MJPEG frames from a V4L2 device such as /dev/video0.
type Camera struct {
	video.Source

	locker sync.Locker
	webcam *webcam.Webcam

	Device    string
	Width     int
	Height    int
	FrameRate float64
	// Timeout is how many seconds to wait for a frame before giving up
	Timeout uint32
}

func (c *Camera) Open() error {
	c.locker.Lock()
	defer c.locker.Unlock()

	if c.webcam != nil {
		return nil
	}

	cam, err := webcam.Open(c.Device)
	if err != nil {
		return err
	}

	formats := cam.GetSupportedFormats()
	if _, ok := formats[PixelFormatMJPEG]; !ok {
		_ = cam.Close()
		return fmt.Errorf("%s does not support Motion-JPEG", c.Device)
	}

	format, width, height, err := cam.SetImageFormat(PixelFormatMJPEG, uint32(c.Width), uint32(c.Height))
	if err != nil {
		_ = cam.Close()
		return err
	}
	l.Info().Printf("%s streaming %s at %dx%d", c.Device, formats[format], width, height)

	if c.FrameRate > 0 {
		if err := cam.SetFramerate(float32(c.FrameRate)); err != nil {
			l.Warn().Println("set frame rate:", err)
		}
	}

	err = cam.StartStreaming()
	if err != nil {
		_ = cam.Close()
		return err
	}

	c.webcam = cam

	return nil
}

func (c *Camera) Close() error {
	c.locker.Lock()
	defer c.locker.Unlock()

	if c.webcam == nil {
		return nil
	}

	err := c.webcam.StopStreaming()
	if err != nil {
		l.Warn().Println("stop streaming:", err)
	}
	err = c.webcam.Close()
	c.webcam = nil

	return err
}

func (c *Camera) GetFrameRate() float64 {
	c.locker.Lock()
	defer c.locker.Unlock()

	if c.webcam == nil {
		return c.FrameRate
	}

	fps, err := c.webcam.GetFramerate()
	if err != nil {
		l.Warn().Println("get frame rate:", err)
		return c.FrameRate
	}

	return float64(fps)
}

func (c *Camera) Read() (video.Frame, error) {
	c.locker.Lock()
	defer c.locker.Unlock()

	if c.webcam == nil {
		return nil, video.ErrNotOpened
	}

	for {
		err := c.webcam.WaitForFrame(c.Timeout)
		if err != nil {
			var timeout *webcam.Timeout
			if errors.As(err, &timeout) {
				return nil, fmt.Errorf("no frame within %d seconds: %w", c.Timeout, video.ErrEndOfStream)
			}
			return nil, err
		}

		buf, err := c.webcam.ReadFrame()
		if err != nil {
			return nil, err
		}
		if len(buf) == 0 {
			continue
		}

		// buf points into the driver's mapped memory, decode before the next read
		img, err := jpeg.Decode(bytes.NewReader(buf))
		if err != nil {
			return nil, err
		}

		return video.NewImageFrame(img), nil
	}
}

type Options struct {
	video.Options
}

func NewCamera(device string, options *Options) (*Camera, error) {
	if options == nil {
		options = &Options{}
	}

	if device == "" {
		device = "/dev/video0"
	}
	if options.Width == 0 {
		options.Width = 1280
	}
	if options.Height == 0 {
		options.Height = 720
	}

	timeout, err := options.Ext.GetInt("timeout", int(DefaultTimeout))
	if err != nil {
		return nil, err
	}
	if timeout < 1 {
		timeout = int(DefaultTimeout)
	}

	return &Camera{
		locker: &sync.Mutex{},

		Device:    device,
		Width:     options.Width,
		Height:    options.Height,
		FrameRate: options.FrameRate,
		Timeout:   uint32(timeout),
	}, nil
}
