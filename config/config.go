package config

import (
	"errors"
	"fmt"
	"github.com/allape/delaycam/envar"
	"github.com/allape/gogger"
	"github.com/pelletier/go-toml/v2"
	"os"
	"strconv"
	"strings"
)

var l = gogger.New("config")

const (
	DefaultConfigPath = "delaycam.toml"
	MaxDelaySeconds   = 3600
)

var ErrInvalidConfig = errors.New("invalid config")

type VideoDriverType string

const (
	VideoUSBDevice   VideoDriverType = "usb"
	VideoV4L2Device  VideoDriverType = "v4l2"
	VideoShellDevice VideoDriverType = "shell"
	VideoDummyDevice VideoDriverType = "dummy"
)

type DisplayDriverType string

const (
	DisplayWindow   DisplayDriverType = "window"
	DisplayEbiten   DisplayDriverType = "ebiten"
	DisplayWeb      DisplayDriverType = "web"
	DisplayHeadless DisplayDriverType = "headless"
)

type QuitDriverType string

const (
	QuitNone       QuitDriverType = "none"
	QuitSerialPort QuitDriverType = "serialport"
)

type Delay struct {
	Seconds           float64 `toml:"seconds"`
	FallbackFrameRate float64 `toml:"fallback_frame_rate"`
	MaxFrames         int     `toml:"max_frames"`
	// Policy is "retained" (lag of capacity-1 frames) or "displaced" (lag of capacity frames)
	Policy string `toml:"policy"`
}

type Video struct {
	Type          VideoDriverType `toml:"type"`
	Src           VideoSrc        `toml:"src"`
	Width         int             `toml:"width"`
	Height        int             `toml:"height"`
	FrameRate     float64         `toml:"frame_rate"`
	FlipCode      FlipCode        `toml:"flip_code"`
	SetupCommands []SetupCommand  `toml:"setup_commands"`
	Ext           TagString       `toml:"ext"`
}

type Display struct {
	Type          DisplayDriverType `toml:"type"`
	Title         string            `toml:"title"`
	QuitKey       string            `toml:"quit_key"`
	PollTimeoutMS int               `toml:"poll_timeout_ms"`
}

type Web struct {
	Addr    string `toml:"addr"`
	Path    string `toml:"path"`
	Cors    bool   `toml:"cors"`
	Quality int    `toml:"quality"`
}

type Quit struct {
	Type QuitDriverType `toml:"type"`
	Src  string         `toml:"src"`
	Key  string         `toml:"key"`
	Ext  TagString      `toml:"ext"`
}

type Config struct {
	Delay   Delay   `toml:"delay"`
	Video   Video   `toml:"video"`
	Display Display `toml:"display"`
	Web     Web     `toml:"web"`
	Quit    Quit    `toml:"quit"`
}

func Default() Config {
	return Config{
		Delay: Delay{
			Seconds:           3,
			FallbackFrameRate: 30,
			Policy:            "retained",
		},
		Video: Video{
			Type:     VideoUSBDevice,
			Src:      VideoSrc{"0"},
			FlipCode: NoFlip,
		},
		Display: Display{
			Type:          DisplayWindow,
			Title:         "Time-Shifted Live Camera",
			QuitKey:       "q",
			PollTimeoutMS: 1,
		},
		Web: Web{
			Addr:    ":8080",
			Path:    "/ws",
			Quality: 75,
		},
		Quit: Quit{
			Type: QuitNone,
			Key:  "q",
		},
	}
}

// GetConfig reads the file named by the first argument, or DefaultConfigPath.
// A missing default file is not an error, the defaults are used instead.
func GetConfig() (Config, error) {
	configFile := DefaultConfigPath
	explicit := false
	if len(os.Args) > 1 {
		configFile = os.Args[1]
		explicit = true
	}
	return Load(configFile, explicit)
}

func Load(configFile string, required bool) (Config, error) {
	config := Default()

	_, err := os.Stat(configFile)
	if err != nil {
		if required || !errors.Is(err, os.ErrNotExist) {
			return config, err
		}
		l.Warn().Println("config file not found, using defaults:", configFile)
	} else {
		l.Info().Println("reading config file:", configFile)

		configData, err := os.ReadFile(configFile)
		if err != nil {
			return config, err
		}

		err = toml.Unmarshal(configData, &config)
		if err != nil {
			return config, err
		}
	}

	if v := envar.Getenv(envar.DelaycamDelay, ""); v != "" {
		seconds, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return config, fmt.Errorf("%w: %s=%q: %w", ErrInvalidConfig, envar.DelaycamDelay, v, err)
		}
		config.Delay.Seconds = seconds
	}

	err = config.Validate()
	if err != nil {
		return config, err
	}

	l.Verbose().Printf("use config: %+v", config)

	return config, nil
}

func (c Config) Validate() error {
	if !(c.Delay.Seconds >= 0 && c.Delay.Seconds <= MaxDelaySeconds) {
		return fmt.Errorf("%w: delay.seconds must be between 0 and %d, got %v", ErrInvalidConfig, MaxDelaySeconds, c.Delay.Seconds)
	}
	if c.Delay.MaxFrames < 0 {
		return fmt.Errorf("%w: delay.max_frames must not be negative, got %d", ErrInvalidConfig, c.Delay.MaxFrames)
	}
	if c.Delay.Policy != "retained" && c.Delay.Policy != "displaced" {
		return fmt.Errorf("%w: unknown delay.policy %q", ErrInvalidConfig, c.Delay.Policy)
	}
	if c.Display.PollTimeoutMS < 1 {
		return fmt.Errorf("%w: display.poll_timeout_ms must be at least 1, got %d", ErrInvalidConfig, c.Display.PollTimeoutMS)
	}
	if len(c.Display.QuitKey) != 1 {
		return fmt.Errorf("%w: display.quit_key must be a single character, got %q", ErrInvalidConfig, c.Display.QuitKey)
	}
	if c.Display.Type == DisplayWeb {
		switch strings.TrimSuffix(c.Web.Path, "/") {
		case "", "/status", "/quit":
			return fmt.Errorf("%w: web.path %q is taken", ErrInvalidConfig, c.Web.Path)
		}
	}
	if c.Quit.Type == QuitSerialPort && len(c.Quit.Key) != 1 {
		return fmt.Errorf("%w: quit.key must be a single character, got %q", ErrInvalidConfig, c.Quit.Key)
	}
	return nil
}
