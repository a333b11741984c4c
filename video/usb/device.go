package usb

import (
	"errors"
	"fmt"
	"github.com/allape/delaycam/config"
	"github.com/allape/delaycam/video"
	"github.com/allape/gogger"
	"gocv.io/x/gocv"
	"image"
	"strconv"
	"strings"
	"sync"
)

var l = gogger.New("video.usb")

// MatFrame is a Frame backed by an OpenCV Mat. Close frees the native memory.
type MatFrame struct {
	mat gocv.Mat
}

func (f *MatFrame) Mat() gocv.Mat {
	return f.mat
}

func (f *MatFrame) Image() (image.Image, error) {
	if f.mat.Empty() {
		return nil, errors.New("mat is empty")
	}
	return f.mat.ToImage()
}

func (f *MatFrame) Size() image.Point {
	if f.mat.Empty() {
		return image.Point{}
	}
	return image.Point{X: f.mat.Cols(), Y: f.mat.Rows()}
}

func (f *MatFrame) Close() error {
	return f.mat.Close()
}

// Device captures from a camera through OpenCV, the way cv2.VideoCapture does.
type Device struct {
	video.Source

	locker sync.Locker
	webcam *gocv.VideoCapture

	Src           string
	Width         int
	Height        int
	FrameRate     float64
	FlipCode      config.FlipCode
	SetupCommands []config.SetupCommand
}

func (d *Device) Open() error {
	d.locker.Lock()
	defer d.locker.Unlock()

	if d.webcam != nil {
		return nil
	}

	for _, command := range d.SetupCommands {
		cmd, err := command.ToCommand()
		if err != nil {
			return err
		} else if cmd == nil {
			continue
		}
		output, err := cmd.CombinedOutput()
		l.Verbose().Println("setup command:", strings.TrimSpace(string(output)))
		if err != nil {
			return err
		}
	}

	var device any = d.Src
	if index, err := strconv.Atoi(d.Src); err == nil {
		device = index
	}

	webcam, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return err
	}
	if !webcam.IsOpened() {
		_ = webcam.Close()
		return fmt.Errorf("cannot open camera %s", d.Src)
	}

	if d.Width > 0 && d.Height > 0 {
		webcam.Set(gocv.VideoCaptureFrameWidth, float64(d.Width))
		webcam.Set(gocv.VideoCaptureFrameHeight, float64(d.Height))
	}

	d.webcam = webcam

	l.Info().Printf("camera %s opened, reports %.2f fps", d.Src, webcam.Get(gocv.VideoCaptureFPS))

	return nil
}

func (d *Device) Close() error {
	d.locker.Lock()
	defer d.locker.Unlock()

	if d.webcam == nil {
		return nil
	}

	err := d.webcam.Close()
	d.webcam = nil
	return err
}

// GetFrameRate returns the configured rate if any, otherwise what the device reports.
// Many devices report 0 or an arbitrary default here.
func (d *Device) GetFrameRate() float64 {
	if d.FrameRate > 0 {
		return d.FrameRate
	}

	d.locker.Lock()
	defer d.locker.Unlock()

	if d.webcam == nil {
		return 0
	}
	return d.webcam.Get(gocv.VideoCaptureFPS)
}

func (d *Device) Read() (video.Frame, error) {
	d.locker.Lock()
	defer d.locker.Unlock()

	if d.webcam == nil {
		return nil, video.ErrNotOpened
	}

	mat := gocv.NewMat()

	if ok := d.webcam.Read(&mat); !ok {
		_ = mat.Close()
		return nil, video.ErrEndOfStream
	}
	if mat.Empty() {
		_ = mat.Close()
		return nil, errors.New("captured frame is empty")
	}

	if d.FlipCode != config.NoFlip {
		gocv.Flip(mat, &mat, int(d.FlipCode))
	}

	return &MatFrame{mat: mat}, nil
}

type Options struct {
	video.Options
}

func NewDevice(src string, options *Options) *Device {
	if options == nil {
		options = &Options{Options: video.Options{FlipCode: config.NoFlip}}
	}

	if src == "" {
		src = "0"
	}

	return &Device{
		locker: &sync.Mutex{},

		Src:           src,
		Width:         options.Width,
		Height:        options.Height,
		FrameRate:     options.FrameRate,
		FlipCode:      options.FlipCode,
		SetupCommands: options.SetupCommands,
	}
}
