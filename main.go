package main

import (
	"context"
	"errors"
	"github.com/allape/delaycam/config"
	"github.com/allape/delaycam/delay"
	"github.com/allape/delaycam/display"
	"github.com/allape/delaycam/factory"
	"github.com/allape/delaycam/pipeline"
	"github.com/allape/delaycam/quit"
	"github.com/allape/delaycam/video"
	"github.com/allape/gogger"
	"os"
	"time"
)

var l = gogger.New("main")

const (
	ExitOK = iota
	ExitConfig
	ExitSourceUnavailable
	ExitSourceReadFault
	ExitSinkFault
)

func main() {
	os.Exit(run())
}

// ExitCode maps the error that ended a session to the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, config.ErrInvalidConfig), errors.Is(err, delay.ErrInvalidDelay):
		return ExitConfig
	case errors.Is(err, video.ErrSourceUnavailable):
		return ExitSourceUnavailable
	case errors.Is(err, pipeline.ErrSourceReadFault):
		return ExitSourceReadFault
	case errors.Is(err, pipeline.ErrSinkFault), errors.Is(err, display.ErrUnavailable):
		return ExitSinkFault
	}
	return ExitConfig
}

func run() int {
	conf, err := config.GetConfig()
	if err != nil {
		l.Error().Println("get config:", err)
		return ExitConfig
	}

	source, err := factory.SourceFromConfig(conf)
	if err != nil {
		l.Error().Println("Error: Cannot open camera!", err)
		return ExitCode(err)
	}
	defer func() {
		_ = source.Close()
	}()

	sink, err := factory.SinkFromConfig(conf)
	if err != nil {
		l.Error().Println("Error: Cannot open display!", err)
		return ExitCode(err)
	}
	defer func() {
		_ = sink.Close()
	}()

	triggers, err := factory.QuitTriggersFromConfig(conf)
	if err != nil {
		l.Error().Println("quit triggers from config:", err)
		return ExitConfig
	}
	defer func() {
		for _, t := range triggers {
			_ = t.Close()
		}
	}()

	ctx, cancel := quit.Watch(context.Background(), triggers...)
	defer cancel()

	p := pipeline.New(source, sink, pipeline.Options{
		Delay:             conf.Delay.Seconds,
		FallbackFrameRate: conf.Delay.FallbackFrameRate,
		MaxFrames:         conf.Delay.MaxFrames,
		Policy:            delay.Policy(conf.Delay.Policy),
		PollTimeout:       time.Duration(conf.Display.PollTimeoutMS) * time.Millisecond,
	})

	l.Info().Println("started")

	if runner, ok := sink.(display.Runner); ok {
		err = runWithRunner(ctx, cancel, p, sink, runner)
	} else {
		err = p.Run(ctx)
	}

	stats := p.Stats()
	l.Info().Printf(
		"read %d frames, shown %d, evicted %d, buffer %d frames (%s)",
		stats.Read, stats.Shown, stats.Evicted, stats.Capacity, stats.State,
	)

	if err != nil {
		if errors.Is(err, pipeline.ErrSourceReadFault) {
			l.Error().Println("Error: Cannot retrieve frame!", err)
		} else {
			l.Error().Println(err)
		}
	}

	return ExitCode(err)
}

// runWithRunner gives the main goroutine to the sink's event loop and runs
// the pipeline beside it. Whichever ends first stops the other.
func runWithRunner(ctx context.Context, cancel context.CancelFunc, p *pipeline.Pipeline, sink display.Sink, runner display.Runner) error {
	errs := make(chan error, 1)
	go func() {
		errs <- p.Run(ctx)
		_ = sink.Close()
	}()

	err := runner.Run()
	cancel()
	if err != nil {
		<-errs
		return errors.Join(pipeline.ErrSinkFault, err)
	}

	return <-errs
}
