package headless

import (
	"github.com/allape/delaycam/display"
	"github.com/allape/delaycam/video"
	"github.com/allape/gogger"
	"sync"
	"time"
)

var l = gogger.New("display.headless")

// Sink shows nothing. It paces the loop by sleeping in PollQuit and logs
// progress, which is what a server without a screen needs.
type Sink struct {
	display.Sink

	locker sync.Locker
	opened bool
	shown  uint64

	LogEvery uint64
}

func (s *Sink) Open() error {
	s.locker.Lock()
	defer s.locker.Unlock()
	s.opened = true
	return nil
}

func (s *Sink) Close() error {
	s.locker.Lock()
	defer s.locker.Unlock()
	s.opened = false
	return nil
}

func (s *Sink) Show(frame video.Frame) error {
	s.locker.Lock()
	defer s.locker.Unlock()

	if !s.opened {
		return display.ErrClosed
	}

	s.shown++
	if s.LogEvery > 0 && s.shown%s.LogEvery == 0 {
		size := frame.Size()
		l.Info().Printf("shown %d frames, last %dx%d", s.shown, size.X, size.Y)
	}

	return nil
}

func (s *Sink) Shown() uint64 {
	s.locker.Lock()
	defer s.locker.Unlock()
	return s.shown
}

func (s *Sink) PollQuit(timeout time.Duration) bool {
	time.Sleep(timeout)
	return false
}

func New(logEvery uint64) *Sink {
	return &Sink{
		locker:   &sync.Mutex{},
		LogEvery: logEvery,
	}
}
