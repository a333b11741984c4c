package ebitengine

import (
	"errors"
	"github.com/allape/delaycam/display"
	"github.com/allape/delaycam/video"
	"github.com/allape/gogger"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"image"
	"math"
	"sync"
	"time"
)

var l = gogger.New("display.ebiten")

// Display renders frames with Ebitengine.
// Run must be called from the main goroutine (macOS requirement), while Show
// and PollQuit are called from the loop goroutine.
type Display struct {
	display.Sink

	mu          sync.Mutex
	frame       *image.RGBA
	ebitenImage *ebiten.Image

	quit      chan struct{}
	quitOnce  sync.Once
	closed    chan struct{}
	closeOnce sync.Once

	chars []rune

	Title   string
	QuitKey rune
	Width   int
	Height  int
}

func (d *Display) Open() error {
	ebiten.SetWindowSize(d.Width, d.Height)
	ebiten.SetWindowTitle(d.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	return nil
}

func (d *Display) Close() error {
	d.closeOnce.Do(func() {
		close(d.closed)
	})
	return nil
}

func (d *Display) requestQuit() {
	d.quitOnce.Do(func() {
		close(d.quit)
	})
}

// Show copies the frame, the display keeps it until the next one arrives.
func (d *Display) Show(frame video.Frame) error {
	select {
	case <-d.closed:
		return display.ErrClosed
	default:
	}

	rgba, err := video.ToRGBA(frame)
	if err != nil {
		return err
	}

	d.mu.Lock()
	d.frame = rgba
	d.mu.Unlock()

	return nil
}

func (d *Display) PollQuit(timeout time.Duration) bool {
	// a pending quit wins over an expired timeout
	select {
	case <-d.quit:
		return true
	default:
	}

	select {
	case <-d.quit:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Run starts the Ebitengine game loop and returns once the window is closed.
func (d *Display) Run() error {
	defer d.requestQuit()

	err := ebiten.RunGame(d)
	if err != nil && !errors.Is(err, ebiten.Termination) {
		return err
	}

	l.Info().Println("window closed")

	return nil
}

// --- ebiten.Game interface ---

func (d *Display) Update() error {
	select {
	case <-d.closed:
		return ebiten.Termination
	default:
	}

	d.chars = ebiten.AppendInputChars(d.chars[:0])
	for _, c := range d.chars {
		if c == d.QuitKey {
			l.Info().Println("quit key pressed")
			d.requestQuit()
			return ebiten.Termination
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		d.requestQuit()
		return ebiten.Termination
	}

	return nil
}

func (d *Display) Draw(screen *ebiten.Image) {
	d.mu.Lock()
	frame := d.frame
	d.mu.Unlock()

	if frame == nil {
		return
	}

	if d.ebitenImage == nil ||
		d.ebitenImage.Bounds().Dx() != frame.Bounds().Dx() ||
		d.ebitenImage.Bounds().Dy() != frame.Bounds().Dy() {
		d.ebitenImage = ebiten.NewImage(frame.Bounds().Dx(), frame.Bounds().Dy())
	}
	d.ebitenImage.WritePixels(frame.Pix)

	sw, sh := screen.Bounds().Dx(), screen.Bounds().Dy()
	fw, fh := float64(frame.Bounds().Dx()), float64(frame.Bounds().Dy())
	scale, offsetX, offsetY := aspectFitTransform(float64(sw), float64(sh), fw, fh)

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate(offsetX, offsetY)
	screen.DrawImage(d.ebitenImage, op)
}

func (d *Display) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}

// aspectFitTransform returns scale and offsets to fit frame into view with letterboxing.
func aspectFitTransform(viewW, viewH, frameW, frameH float64) (scale, offsetX, offsetY float64) {
	scale = math.Min(viewW/frameW, viewH/frameH)
	offsetX = (viewW - frameW*scale) / 2
	offsetY = (viewH - frameH*scale) / 2
	return
}

func New(title string, quitKey rune) *Display {
	if quitKey == 0 {
		quitKey = 'q'
	}
	return &Display{
		quit:   make(chan struct{}),
		closed: make(chan struct{}),

		Title:   title,
		QuitKey: quitKey,
		Width:   1280,
		Height:  720,
	}
}
