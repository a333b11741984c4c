package factory

import (
	"fmt"
	"github.com/allape/delaycam/config"
	"github.com/allape/delaycam/video"
	"github.com/allape/delaycam/video/dummy"
	"github.com/allape/delaycam/video/shell"
	"github.com/allape/delaycam/video/usb"
	"github.com/allape/delaycam/video/v4l2"
)

// VideoFromConfig builds the configured source without opening it.
func VideoFromConfig(conf config.Config) (vd video.Source, err error) {
	vos := video.Options{
		Width:         conf.Video.Width,
		Height:        conf.Video.Height,
		FrameRate:     conf.Video.FrameRate,
		FlipCode:      conf.Video.FlipCode,
		SetupCommands: conf.Video.SetupCommands,
		Ext:           conf.Video.Ext,
	}

	src := ""
	if !conf.Video.Src.Empty() {
		src = conf.Video.Src[0]
	}

	switch conf.Video.Type {
	case config.VideoUSBDevice:
		l.Info().Println("video source is usb device:", src)
		vd = usb.NewDevice(src, &usb.Options{
			Options: vos,
		})
	case config.VideoV4L2Device:
		l.Info().Println("video source is v4l2 device:", src)
		vd, err = v4l2.NewCamera(src, &v4l2.Options{
			Options: vos,
		})
		if err != nil {
			return nil, err
		}
	case config.VideoShellDevice:
		shellSrc := config.VideoShellSrc(conf.Video.Src)
		if shellSrc.Empty() {
			return nil, fmt.Errorf("video source is empty")
		}
		l.Info().Println("video source is shell:", conf.Video.Src)
		vd = shell.NewDriver(shellSrc, &shell.Options{
			Options: vos,
		})
	case config.VideoDummyDevice:
		if src == "" {
			return nil, fmt.Errorf("video source is empty")
		}
		limit, err := conf.Video.Ext.GetInt("frames", 0)
		if err != nil {
			return nil, fmt.Errorf("video ext frames: %w", err)
		}
		l.Info().Println("video source is dummy:", src)
		vd = dummy.NewDriver(src, &dummy.Options{
			Options: vos,
			Limit:   limit,
		})
	default:
		return nil, fmt.Errorf("unknown video driver: %s", conf.Video.Type)
	}

	return vd, nil
}

// SourceFromConfig builds and opens the configured source.
// Any failure to bring it up is reported as video.ErrSourceUnavailable.
func SourceFromConfig(conf config.Config) (video.Source, error) {
	vd, err := VideoFromConfig(conf)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", video.ErrSourceUnavailable, err)
	}

	err = vd.Open()
	if err != nil {
		_ = vd.Close()
		return nil, fmt.Errorf("%w: %w", video.ErrSourceUnavailable, err)
	}

	return vd, nil
}
