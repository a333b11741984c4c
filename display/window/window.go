package window

import (
	"github.com/allape/delaycam/display"
	"github.com/allape/delaycam/video"
	"github.com/allape/gogger"
	"gocv.io/x/gocv"
	"sync"
	"time"
)

var l = gogger.New("display.window")

const KeyEscape = 27

// Matter is implemented by frames that already hold an OpenCV Mat.
type Matter interface {
	Mat() gocv.Mat
}

// Window shows frames in an OpenCV HighGUI window and polls its keyboard.
// OpenCV wants HighGUI calls on the thread that created the window,
// so Open, Show and PollQuit must run on the same goroutine.
type Window struct {
	display.Sink

	locker sync.Locker
	window *gocv.Window

	Title   string
	QuitKey byte
}

func (w *Window) Open() error {
	w.locker.Lock()
	defer w.locker.Unlock()

	if w.window != nil {
		return nil
	}

	w.window = gocv.NewWindow(w.Title)
	l.Verbose().Println("window opened:", w.Title)

	return nil
}

func (w *Window) Close() error {
	w.locker.Lock()
	defer w.locker.Unlock()

	if w.window == nil {
		return nil
	}

	err := w.window.Close()
	w.window = nil
	return err
}

func (w *Window) Show(frame video.Frame) error {
	w.locker.Lock()
	defer w.locker.Unlock()

	if w.window == nil {
		return display.ErrClosed
	}

	if m, ok := frame.(Matter); ok {
		w.window.IMShow(m.Mat())
		return nil
	}

	img, err := frame.Image()
	if err != nil {
		return err
	}
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return err
	}
	defer func() {
		_ = mat.Close()
	}()

	w.window.IMShow(mat)

	return nil
}

// PollQuit waits for a key press, at least 1ms, like cv2.waitKey(1).
// The quit key or Escape ends the session, and so does closing the window.
func (w *Window) PollQuit(timeout time.Duration) bool {
	w.locker.Lock()
	defer w.locker.Unlock()

	if w.window == nil {
		return true
	}

	ms := int(timeout.Milliseconds())
	if ms < 1 {
		ms = 1
	}

	key := w.window.WaitKey(ms)
	if key >= 0 {
		key &= 0xff
		if key == int(w.QuitKey) || key == KeyEscape {
			l.Info().Println("quit key pressed")
			return true
		}
	}

	if w.window.GetWindowProperty(gocv.WindowPropertyVisible) < 1 {
		l.Info().Println("window closed")
		return true
	}

	return false
}

func New(title string, quitKey byte) *Window {
	if quitKey == 0 {
		quitKey = 'q'
	}
	return &Window{
		locker:  &sync.Mutex{},
		Title:   title,
		QuitKey: quitKey,
	}
}
