package shell

import (
	"bytes"
	"errors"
	"fmt"
	"github.com/allape/delaycam/config"
	"github.com/allape/delaycam/video"
	"github.com/allape/gogger"
	"image/jpeg"
	"io"
	"os"
	"os/exec"
	"sync"
)

var l = gogger.New("video.shell")

// Driver reads an MJPEG stream from the stdout of a command, e.g.
// ["ffmpeg", "-f", "v4l2", "-framerate", "30", "-i", "/dev/video0", "-f", "mjpeg", "-"]
type Driver struct {
	video.Source

	src           config.VideoShellSrc
	setupCommands []config.SetupCommand

	cmd    *exec.Cmd
	locker sync.Locker

	frames chan []byte
	done   chan struct{}
	err    error

	FrameRate   float64
	StartMarker []byte
	EndMarker   []byte
}

func (d *Driver) Open() error {
	d.locker.Lock()
	defer d.locker.Unlock()

	if d.cmd != nil {
		return nil
	}

	cmd, err := d.src.ToCommand()
	if err != nil {
		return err
	} else if cmd == nil {
		return errors.New("command is nil")
	}

	for _, command := range d.setupCommands {
		setup, err := command.ToCommand()
		if err != nil {
			return err
		} else if setup == nil {
			continue
		}
		l.Verbose().Println(setup.Path, setup.Args)
		output, err := setup.CombinedOutput()
		o := string(output)
		l.Verbose().Print("setup output:", o)
		if err != nil {
			return fmt.Errorf("setup command %v: %w: %s", setup.Args, err, o)
		}
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return err
	}

	l.Verbose().Println(cmd.Path, cmd.Args)

	err = cmd.Start()
	if err != nil {
		return err
	}

	d.cmd = cmd
	d.frames = make(chan []byte)
	d.done = make(chan struct{})
	d.err = nil

	go d.logStderr(stderr)
	go d.split(stdout, d.frames, d.done)

	return nil
}

func (d *Driver) logStderr(stderr io.Reader) {
	buf := make([]byte, 1024)
	for {
		n, err := stderr.Read(buf)
		if n > 0 {
			l.Verbose().Print(string(buf[:n]))
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				l.Error().Println(err)
			}
			return
		}
	}
}

// split cuts stdout into JPEG images between the start and end markers.
// It blocks while the consumer is not reading, which back-pressures the command.
func (d *Driver) split(stdout io.Reader, frames chan<- []byte, done <-chan struct{}) {
	defer close(frames)

	started := false

	var frameBuffer []byte
	buf := make([]byte, 32*1024)

	for {
		n, err := stdout.Read(buf)
		seg := buf[:n]

		for len(seg) > 0 {
			if !started {
				index := bytes.Index(seg, d.StartMarker)
				if index == -1 {
					break
				}
				started = true
				seg = seg[index:]
			}

			index := bytes.Index(seg, d.EndMarker)
			if index == -1 {
				frameBuffer = append(frameBuffer, seg...)
				break
			}

			index = index + len(d.EndMarker)
			frame := append(frameBuffer, seg[:index]...)
			frameBuffer = nil
			started = false
			seg = seg[index:]

			select {
			case frames <- frame:
			case <-done:
				return
			}
		}

		if err != nil {
			if !errors.Is(err, io.EOF) {
				d.locker.Lock()
				d.err = err
				d.locker.Unlock()
				l.Verbose().Println("read stdout:", err)
			}
			return
		}
	}
}

func (d *Driver) Close() error {
	d.locker.Lock()
	defer d.locker.Unlock()

	if d.cmd == nil {
		return nil
	}

	close(d.done)

	err := d.cmd.Process.Kill()
	if errors.Is(err, os.ErrProcessDone) {
		err = nil
	}
	_ = d.cmd.Wait()

	d.cmd = nil

	return err
}

func (d *Driver) GetFrameRate() float64 {
	return d.FrameRate
}

func (d *Driver) Read() (video.Frame, error) {
	d.locker.Lock()
	frames := d.frames
	d.locker.Unlock()

	if frames == nil {
		return nil, video.ErrNotOpened
	}

	buf, ok := <-frames
	if !ok {
		d.locker.Lock()
		err := d.err
		d.locker.Unlock()
		if err != nil {
			return nil, err
		}
		return nil, video.ErrEndOfStream
	}

	img, err := jpeg.Decode(bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}

	return video.NewImageFrame(img), nil
}

type Options struct {
	video.Options
}

func NewDriver(src config.VideoShellSrc, options *Options) *Driver {
	if options == nil {
		options = &Options{}
	}

	return &Driver{
		src:           src,
		setupCommands: options.SetupCommands,

		locker: &sync.Mutex{},

		FrameRate:   options.FrameRate,
		StartMarker: []byte{0xff, 0xd8},
		EndMarker:   []byte{0xff, 0xd9},
	}
}
