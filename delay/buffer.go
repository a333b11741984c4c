package delay

import (
	"github.com/allape/gogger"
	"io"
)

var l = gogger.New("delay")

// State of a Buffer. A buffer starts Filling and moves to Steady exactly once.
type State int

const (
	Filling State = iota
	Steady
)

func (s State) String() string {
	switch s {
	case Filling:
		return "filling"
	case Steady:
		return "steady"
	}
	return "unknown"
}

// Policy decides which frame a full buffer hands out for display.
type Policy string

const (
	// PolicyRetained shows the oldest frame still held, so the lag is capacity-1 frames.
	PolicyRetained Policy = "retained"
	// PolicyDisplaced shows the frame pushed out by the latest push, so the lag is
	// exactly capacity frames. The displaced frame stays owned by the buffer until
	// the next push or Close.
	PolicyDisplaced Policy = "displaced"
)

func (p Policy) Valid() bool {
	return p == PolicyRetained || p == PolicyDisplaced
}

type Stats struct {
	Pushed  uint64
	Evicted uint64
}

type Option[T any] func(*Buffer[T])

// WithRelease sets the function called once for every frame leaving the buffer.
func WithRelease[T any](release func(T)) Option[T] {
	return func(b *Buffer[T]) {
		b.release = release
	}
}

func WithPolicy[T any](policy Policy) Option[T] {
	return func(b *Buffer[T]) {
		if policy.Valid() {
			b.policy = policy
		}
	}
}

// WithTransition registers a callback fired when the buffer leaves Filling.
func WithTransition[T any](fn func(State)) Option[T] {
	return func(b *Buffer[T]) {
		b.onTransition = fn
	}
}

// Buffer is a fixed-capacity FIFO of frames. It is not safe for concurrent use:
// a single loop owns it.
type Buffer[T any] struct {
	frames []T
	head   int
	length int
	state  State
	policy Policy

	displaced    T
	hasDisplaced bool

	release      func(T)
	onTransition func(State)

	stats Stats
}

func New[T any](capacity int, opts ...Option[T]) *Buffer[T] {
	if capacity < 1 {
		capacity = 1
	}

	b := &Buffer[T]{
		frames: make([]T, capacity),
		state:  Filling,
		policy: PolicyRetained,
	}

	for _, opt := range opts {
		opt(b)
	}

	if b.release == nil {
		b.release = closeIfCloser[T]
	}

	return b
}

func closeIfCloser[T any](frame T) {
	c, ok := any(frame).(io.Closer)
	if !ok || c == nil {
		return
	}
	if err := c.Close(); err != nil {
		l.Warn().Println("release frame:", err)
	}
}

func (b *Buffer[T]) Cap() int {
	return len(b.frames)
}

func (b *Buffer[T]) Len() int {
	return b.length
}

func (b *Buffer[T]) State() State {
	return b.state
}

func (b *Buffer[T]) Policy() Policy {
	return b.policy
}

func (b *Buffer[T]) Stats() Stats {
	return b.stats
}

// Push inserts frame as the newest entry, evicting the oldest one when full.
func (b *Buffer[T]) Push(frame T) {
	b.stats.Pushed++

	capacity := len(b.frames)

	if b.length < capacity {
		b.frames[(b.head+b.length)%capacity] = frame
		b.length++
		if b.length == capacity && b.policy == PolicyRetained {
			b.transition()
		}
		return
	}

	oldest := b.frames[b.head]
	b.frames[b.head] = frame
	b.head = (b.head + 1) % capacity
	b.stats.Evicted++

	if b.policy == PolicyDisplaced {
		if b.hasDisplaced {
			b.release(b.displaced)
		}
		b.displaced = oldest
		b.hasDisplaced = true
		b.transition()
		return
	}

	b.release(oldest)
}

func (b *Buffer[T]) transition() {
	if b.state == Steady {
		return
	}
	b.state = Steady
	l.Verbose().Printf("buffer steady with %d frames", len(b.frames))
	if b.onTransition != nil {
		b.onTransition(b.state)
	}
}

// Candidate returns the frame to show now without mutating the buffer.
// While filling it is the newest frame; once steady it is the delayed one.
// The frame stays owned by the buffer.
func (b *Buffer[T]) Candidate() (T, bool) {
	var zero T

	if b.length == 0 {
		return zero, false
	}

	if b.state == Steady {
		if b.policy == PolicyDisplaced {
			return b.displaced, true
		}
		return b.frames[b.head], true
	}

	return b.frames[(b.head+b.length-1)%len(b.frames)], true
}

// Frames returns the held frames from oldest to newest.
func (b *Buffer[T]) Frames() []T {
	frames := make([]T, 0, b.length)
	for i := 0; i < b.length; i++ {
		frames = append(frames, b.frames[(b.head+i)%len(b.frames)])
	}
	return frames
}

// Close releases every frame still held. The buffer is empty afterwards and keeps
// its capacity and state.
func (b *Buffer[T]) Close() {
	var zero T

	for i := 0; i < b.length; i++ {
		index := (b.head + i) % len(b.frames)
		b.release(b.frames[index])
		b.frames[index] = zero
	}
	b.head = 0
	b.length = 0

	if b.hasDisplaced {
		b.release(b.displaced)
		b.displaced = zero
		b.hasDisplaced = false
	}
}
