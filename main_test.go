package main

import (
	"context"
	"errors"
	"fmt"
	"github.com/allape/delaycam/config"
	"github.com/allape/delaycam/display"
	"github.com/allape/delaycam/pipeline"
	"github.com/allape/delaycam/video"
	"image"
	"sync"
	"testing"
	"time"
)

type limitedSource struct {
	video.Source

	limit int
	read  int
}

func (s *limitedSource) GetFrameRate() float64 {
	return 30
}

func (s *limitedSource) Read() (video.Frame, error) {
	if s.limit > 0 && s.read >= s.limit {
		return nil, video.ErrEndOfStream
	}
	s.read++
	return video.NewImageFrame(image.NewGray(image.Rect(0, 0, 2, 2))), nil
}

// runnerSink mimics a sink whose event loop owns the main goroutine:
// Run blocks until the sink is closed, or fails right away with runErr.
type runnerSink struct {
	display.Sink

	closed    chan struct{}
	closeOnce sync.Once
	runErr    error
}

func (s *runnerSink) Show(video.Frame) error {
	return nil
}

func (s *runnerSink) PollQuit(timeout time.Duration) bool {
	time.Sleep(timeout)
	return false
}

func (s *runnerSink) Close() error {
	s.closeOnce.Do(func() {
		close(s.closed)
	})
	return nil
}

func (s *runnerSink) Run() error {
	if s.runErr != nil {
		return s.runErr
	}
	<-s.closed
	return nil
}

func runRunner(t *testing.T, source video.Source, sink *runnerSink) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := pipeline.New(source, sink, pipeline.Options{Delay: 0.1})

	done := make(chan error, 1)
	go func() {
		done <- runWithRunner(ctx, cancel, p, sink, sink)
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for the runner to return")
	}
	return nil
}

func TestExitCode(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{nil, ExitOK},
		{fmt.Errorf("%w: delay.seconds", config.ErrInvalidConfig), ExitConfig},
		{fmt.Errorf("%w: no camera", video.ErrSourceUnavailable), ExitSourceUnavailable},
		{fmt.Errorf("%w: %w", pipeline.ErrSourceReadFault, video.ErrEndOfStream), ExitSourceReadFault},
		{fmt.Errorf("%w: gone", pipeline.ErrSinkFault), ExitSinkFault},
		{fmt.Errorf("%w: no window", display.ErrUnavailable), ExitSinkFault},
		{errors.Join(pipeline.ErrSinkFault, errors.New("ebiten")), ExitSinkFault},
	}

	for _, c := range cases {
		if code := ExitCode(c.err); code != c.code {
			t.Fatalf("%v: expected %d, got %d", c.err, c.code, code)
		}
	}
}

func TestRunnerEndsWhenPipelineEnds(t *testing.T) {
	source := &limitedSource{limit: 5}
	sink := &runnerSink{closed: make(chan struct{})}

	err := runRunner(t, source, sink)
	if !errors.Is(err, pipeline.ErrSourceReadFault) || !errors.Is(err, video.ErrEndOfStream) {
		t.Fatalf("Expected a read fault at end of stream, got %v", err)
	}
	if code := ExitCode(err); code != ExitSourceReadFault {
		t.Fatalf("Expected exit code %d, got %d", ExitSourceReadFault, code)
	}
	if source.read != 5 {
		t.Fatalf("Expected 5 frames read, got %d", source.read)
	}
	select {
	case <-sink.closed:
	default:
		t.Fatal("Expected the sink to be closed once the pipeline ended")
	}
}

func TestRunnerFailureStopsPipeline(t *testing.T) {
	runErr := errors.New("no graphics device")
	sink := &runnerSink{closed: make(chan struct{}), runErr: runErr}

	err := runRunner(t, &limitedSource{}, sink)
	if !errors.Is(err, pipeline.ErrSinkFault) || !errors.Is(err, runErr) {
		t.Fatalf("Expected ErrSinkFault joined with the runner error, got %v", err)
	}
	if code := ExitCode(err); code != ExitSinkFault {
		t.Fatalf("Expected exit code %d, got %d", ExitSinkFault, code)
	}
}
