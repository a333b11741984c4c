package display

import (
	"errors"
	"github.com/allape/delaycam/video"
	"io"
	"time"
)

var (
	ErrClosed      = errors.New("display is closed")
	ErrUnavailable = errors.New("display unavailable")
)

// Sink presents frames and reports whether the user asked to quit.
type Sink interface {
	io.Closer
	Open() error

	// Show presents frame. The frame is borrowed: a sink that keeps it past
	// Show must copy it, and must never close it.
	Show(frame video.Frame) error

	// PollQuit waits up to timeout for a quit request.
	PollQuit(timeout time.Duration) bool
}

// Runner is implemented by sinks whose event loop must own the main goroutine.
// Run blocks until the sink is closed or the user quits.
type Runner interface {
	Run() error
}
