package dummy

import (
	"fmt"
	"github.com/allape/delaycam/video"
	"github.com/allape/delaycam/video/placeholder"
	"github.com/allape/gogger"
	"image/color"
	"sync"
	"time"
)

var l = gogger.New("video.dummy")

// Driver renders numbered, time-stamped frames at FrameRate,
// which makes the delay visible without a camera.
type Driver struct {
	video.Source

	locker sync.Locker
	opened bool

	label    string
	count    int
	lastTime time.Time

	Width     int
	Height    int
	FrameRate float64
	// Limit ends the stream after this many frames, 0 means endless
	Limit int
}

func (d *Driver) Open() error {
	d.locker.Lock()
	defer d.locker.Unlock()

	d.opened = true
	d.count = 0
	d.lastTime = time.Time{}

	return nil
}

func (d *Driver) Close() error {
	d.locker.Lock()
	defer d.locker.Unlock()

	d.opened = false

	return nil
}

func (d *Driver) GetFrameRate() float64 {
	return d.FrameRate
}

func (d *Driver) Read() (video.Frame, error) {
	d.locker.Lock()
	defer d.locker.Unlock()

	if !d.opened {
		return nil, video.ErrNotOpened
	}

	if d.Limit > 0 && d.count >= d.Limit {
		return nil, video.ErrEndOfStream
	}

	if !d.lastTime.IsZero() && d.FrameRate > 0 {
		interval := time.Duration(float64(time.Second) / d.FrameRate)
		if wait := interval - time.Since(d.lastTime); wait > 0 {
			time.Sleep(wait)
		}
	}
	d.lastTime = time.Now()

	d.count++

	img, err := placeholder.CreatePlaceholder(
		d.Width, d.Height,
		color.RGBA{A: 255},
		color.RGBA{R: 255, G: 255, B: 255, A: 255},
		fmt.Sprintf("%s #%d", d.label, d.count),
		true,
	)
	if err != nil {
		return nil, err
	}

	l.Verbose().Println("rendered frame", d.count)

	return video.NewImageFrame(img), nil
}

type Options struct {
	video.Options
	Limit int
}

func NewDriver(label string, options *Options) *Driver {
	if options == nil {
		options = &Options{}
	}

	if options.Width == 0 {
		options.Width = 640
	}
	if options.Height == 0 {
		options.Height = 360
	}
	if options.FrameRate == 0 {
		options.FrameRate = 30
	}

	return &Driver{
		locker: &sync.Mutex{},

		label:     label,
		Width:     options.Width,
		Height:    options.Height,
		FrameRate: options.FrameRate,
		Limit:     options.Limit,
	}
}
