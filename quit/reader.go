package quit

import (
	"bytes"
	"errors"
	"io"
	"sync"
)

var ErrNoSource = errors.New("no source to read from")

// Reader fires when Key shows up in the bytes read from Source.
// It does not own Source, closing Source is what stops the read loop.
type Reader struct {
	Trigger

	locker   sync.Locker
	opened   bool
	closed   bool
	done     chan struct{}
	doneOnce sync.Once

	Label  string
	Key    byte
	Source io.Reader
}

func (r *Reader) Name() string {
	return r.Label
}

func (r *Reader) Done() <-chan struct{} {
	return r.done
}

func (r *Reader) Open() error {
	r.locker.Lock()
	defer r.locker.Unlock()

	if r.opened {
		return nil
	}
	if r.Source == nil {
		return ErrNoSource
	}
	r.opened = true

	go r.read(r.Source)

	return nil
}

func (r *Reader) read(source io.Reader) {
	buf := make([]byte, 64)
	for {
		n, err := source.Read(buf)
		if n > 0 && bytes.IndexByte(buf[:n], r.Key) >= 0 {
			r.doneOnce.Do(func() {
				close(r.done)
			})
			return
		}
		if err != nil || n == 0 {
			if !r.isClosed() && !errors.Is(err, io.EOF) {
				l.Warn().Println(r.Label, "read error:", err)
			}
			return
		}
	}
}

func (r *Reader) isClosed() bool {
	r.locker.Lock()
	defer r.locker.Unlock()
	return r.closed
}

func (r *Reader) Close() error {
	r.locker.Lock()
	defer r.locker.Unlock()
	r.closed = true
	return nil
}

func NewReader(label string, key byte, source io.Reader) *Reader {
	return &Reader{
		locker: &sync.Mutex{},
		done:   make(chan struct{}),
		Label:  label,
		Key:    key,
		Source: source,
	}
}
