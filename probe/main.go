package main

import (
	"github.com/allape/delaycam/config"
	"github.com/allape/delaycam/delay"
	"github.com/allape/delaycam/factory"
	"github.com/allape/gogger"
	"os"
	"strconv"
	"time"
)

// probe reads frames from the configured source and compares the frame rate
// the device reports with the one it actually delivers.
//
// usage: probe [config.toml] [frames]

var l = gogger.New("probe")

const DefaultFrames = 90

// MeasureRate returns the frame rate implied by capture timestamps, 0 when
// there are not enough of them.
func MeasureRate(stamps []time.Time) float64 {
	if len(stamps) < 2 {
		return 0
	}
	elapsed := stamps[len(stamps)-1].Sub(stamps[0])
	if elapsed <= 0 {
		return 0
	}
	return float64(len(stamps)-1) / elapsed.Seconds()
}

func main() {
	os.Exit(run())
}

func run() int {
	frames := DefaultFrames
	if len(os.Args) > 2 {
		n, err := strconv.Atoi(os.Args[2])
		if err != nil || n < 2 {
			l.Error().Println("frames must be a number not less than 2:", os.Args[2])
			return 1
		}
		frames = n
	}

	conf, err := config.GetConfig()
	if err != nil {
		l.Error().Println("get config:", err)
		return 1
	}

	source, err := factory.SourceFromConfig(conf)
	if err != nil {
		l.Error().Println("Error: Cannot open camera!", err)
		return 2
	}
	defer func() {
		_ = source.Close()
	}()

	reported := source.GetFrameRate()
	l.Info().Printf("reading %d frames, reported rate %.2f fps", frames, reported)

	stamps := make([]time.Time, 0, frames)
	for range frames {
		frame, err := source.Read()
		if err != nil {
			l.Error().Println("Error: Cannot retrieve frame!", err)
			break
		}
		stamps = append(stamps, time.Now())
		_ = frame.Close()
	}

	measured := MeasureRate(stamps)

	for _, r := range []struct {
		name string
		fps  float64
	}{
		{"reported", reported},
		{"measured", measured},
	} {
		c, err := delay.ComputeCapacity(r.fps, conf.Delay.Seconds, conf.Delay.FallbackFrameRate, conf.Delay.MaxFrames)
		if err != nil {
			l.Error().Println(r.name, err)
			continue
		}
		l.Info().Printf(
			"%s: %.2f fps -> %d frames, %v delay (degenerate=%v clamped=%v)",
			r.name, r.fps, c.Frames, c.Delay(), c.Degenerate, c.Clamped,
		)
	}

	if reported > 0 && measured > 0 {
		l.Info().Printf("a %.1fs delay will actually last %.2fs", conf.Delay.Seconds, conf.Delay.Seconds*reported/measured)
	}

	return 0
}
