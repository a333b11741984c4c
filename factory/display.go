package factory

import (
	"fmt"
	"github.com/allape/delaycam/config"
	"github.com/allape/delaycam/display"
	"github.com/allape/delaycam/display/ebitengine"
	"github.com/allape/delaycam/display/headless"
	"github.com/allape/delaycam/display/web"
	"github.com/allape/delaycam/display/window"
)

const HeadlessLogEvery = 300

// DisplayFromConfig builds the configured sink without opening it.
func DisplayFromConfig(conf config.Config) (dd display.Sink, err error) {
	quitKey := conf.Display.QuitKey[0]

	switch conf.Display.Type {
	case config.DisplayWindow:
		l.Info().Println("display is window:", conf.Display.Title)
		dd = window.New(conf.Display.Title, quitKey)
	case config.DisplayEbiten:
		l.Info().Println("display is ebiten window:", conf.Display.Title)
		dd = ebitengine.New(conf.Display.Title, rune(quitKey))
	case config.DisplayWeb:
		l.Info().Println("display is web viewer:", conf.Web.Addr)
		dd = web.New(&web.Options{
			Addr:    conf.Web.Addr,
			Path:    conf.Web.Path,
			Cors:    conf.Web.Cors,
			Quality: conf.Web.Quality,
		})
	case config.DisplayHeadless:
		l.Info().Println("display is headless")
		dd = headless.New(HeadlessLogEvery)
	default:
		return nil, fmt.Errorf("unknown display driver: %s", conf.Display.Type)
	}

	return dd, nil
}

// SinkFromConfig builds and opens the configured sink.
// Any failure to bring it up is reported as display.ErrUnavailable.
func SinkFromConfig(conf config.Config) (display.Sink, error) {
	dd, err := DisplayFromConfig(conf)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", display.ErrUnavailable, err)
	}

	err = dd.Open()
	if err != nil {
		_ = dd.Close()
		return nil, fmt.Errorf("%w: %w", display.ErrUnavailable, err)
	}

	return dd, nil
}
