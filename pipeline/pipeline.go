package pipeline

import (
	"context"
	"errors"
	"fmt"
	"github.com/allape/delaycam/delay"
	"github.com/allape/delaycam/display"
	"github.com/allape/delaycam/video"
	"github.com/allape/gogger"
	"sync"
	"time"
)

var l = gogger.New("pipeline")

const DefaultPollTimeout = time.Millisecond

var (
	ErrSourceReadFault = errors.New("cannot retrieve frame")
	ErrSinkFault       = errors.New("cannot show frame")
)

type Options struct {
	Delay             float64 // seconds
	FallbackFrameRate float64
	MaxFrames         int
	Policy            delay.Policy
	PollTimeout       time.Duration
}

type Stats struct {
	Read       uint64
	Shown      uint64
	Evicted    uint64
	Capacity   int
	State      delay.State
	Degenerate bool
}

// Pipeline moves frames from a source through a delay buffer to a sink,
// one frame per iteration.
type Pipeline struct {
	source video.Source
	sink   display.Sink

	locker sync.Locker
	stats  Stats

	Options Options
}

func (p *Pipeline) Stats() Stats {
	p.locker.Lock()
	defer p.locker.Unlock()
	return p.stats
}

func (p *Pipeline) update(fn func(s *Stats)) {
	p.locker.Lock()
	defer p.locker.Unlock()
	fn(&p.stats)
}

// Run loops until the sink asks to quit, ctx is done, or a collaborator fails.
// ctx is only checked between iterations, a blocking Read is not interrupted.
// Every frame still buffered is released before Run returns.
func (p *Pipeline) Run(ctx context.Context) error {
	capacity, err := delay.ComputeCapacity(
		p.source.GetFrameRate(),
		p.Options.Delay,
		p.Options.FallbackFrameRate,
		p.Options.MaxFrames,
	)
	if err != nil {
		return err
	}

	l.Info().Printf(
		"delay %.3fs at %.2f fps, buffering %d frames (%s policy)",
		p.Options.Delay, capacity.FrameRate, capacity.Frames, p.Options.Policy,
	)

	buffer := delay.New[video.Frame](
		capacity.Frames,
		delay.WithPolicy[video.Frame](p.Options.Policy),
		delay.WithTransition[video.Frame](func(state delay.State) {
			l.Info().Println("buffer is", state, "after", capacity.Delay())
			p.update(func(s *Stats) {
				s.State = state
			})
		}),
	)
	defer buffer.Close()

	p.update(func(s *Stats) {
		s.Capacity = capacity.Frames
		s.Degenerate = capacity.Degenerate
		s.State = buffer.State()
	})

	for {
		select {
		case <-ctx.Done():
			l.Info().Println("canceled:", context.Cause(ctx))
			return nil
		default:
		}

		frame, err := p.source.Read()
		if err != nil {
			if frame != nil {
				_ = frame.Close()
			}
			return fmt.Errorf("%w: %w", ErrSourceReadFault, err)
		}

		buffer.Push(frame)
		evicted := buffer.Stats().Evicted
		p.update(func(s *Stats) {
			s.Read++
			s.Evicted = evicted
		})

		candidate, ok := buffer.Candidate()
		if ok {
			err = p.sink.Show(candidate)
			if err != nil {
				return fmt.Errorf("%w: %w", ErrSinkFault, err)
			}
			p.update(func(s *Stats) {
				s.Shown++
			})
		}

		if p.sink.PollQuit(p.Options.PollTimeout) {
			l.Info().Println("quit requested by display")
			return nil
		}
	}
}

func New(source video.Source, sink display.Sink, options Options) *Pipeline {
	if !options.Policy.Valid() {
		options.Policy = delay.PolicyRetained
	}
	if options.PollTimeout <= 0 {
		options.PollTimeout = DefaultPollTimeout
	}
	return &Pipeline{
		source:  source,
		sink:    sink,
		locker:  &sync.Mutex{},
		Options: options,
	}
}
