package quit

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
)

type Signal struct {
	Trigger

	locker   sync.Locker
	sigs     chan os.Signal
	stop     chan struct{}
	done     chan struct{}
	doneOnce sync.Once

	Signals []os.Signal
}

func (s *Signal) Name() string {
	return "signal"
}

func (s *Signal) Done() <-chan struct{} {
	return s.done
}

func (s *Signal) Open() error {
	s.locker.Lock()
	defer s.locker.Unlock()

	if s.sigs != nil {
		return nil
	}

	s.sigs = make(chan os.Signal, 1)
	s.stop = make(chan struct{})
	signal.Notify(s.sigs, s.Signals...)

	go func(sigs chan os.Signal, stop chan struct{}) {
		select {
		case sig := <-sigs:
			l.Info().Println("received", sig)
			s.doneOnce.Do(func() {
				close(s.done)
			})
		case <-stop:
		}
	}(s.sigs, s.stop)

	return nil
}

func (s *Signal) Close() error {
	s.locker.Lock()
	defer s.locker.Unlock()

	if s.sigs == nil {
		return nil
	}

	signal.Stop(s.sigs)
	close(s.stop)
	s.sigs = nil
	s.stop = nil

	return nil
}

// NewSignal watches SIGINT and SIGTERM when no signals are given.
func NewSignal(signals ...os.Signal) *Signal {
	if len(signals) == 0 {
		signals = []os.Signal{syscall.SIGINT, syscall.SIGTERM}
	}
	return &Signal{
		locker:  &sync.Mutex{},
		done:    make(chan struct{}),
		Signals: signals,
	}
}
