package delay

import (
	"errors"
	"fmt"
	"math"
	"time"
)

const DefaultFrameRate float64 = 30

// MaxFrames bounds every buffer, whatever the caller asks for.
// One hour at 60 fps.
const MaxFrames = 60 * 60 * 60

var ErrInvalidDelay = errors.New("invalid delay")

// Capacity is the outcome of sizing a buffer from a source's reported rate.
type Capacity struct {
	Frames    int
	FrameRate float64 // the rate actually used for sizing

	// Degenerate is set when the reported rate was unusable and a fallback was used.
	Degenerate bool
	// Clamped is set when the computed frame count was raised to 1 or cut to the maximum.
	Clamped bool
}

// Delay is the wall-clock delay the buffer produces if frames arrive at FrameRate.
func (c Capacity) Delay() time.Duration {
	if c.FrameRate <= 0 {
		return 0
	}
	return time.Duration(float64(c.Frames) / c.FrameRate * float64(time.Second))
}

func usableRate(fps float64) bool {
	return fps > 0 && !math.IsNaN(fps) && !math.IsInf(fps, 0)
}

// ComputeCapacity returns round(fps * seconds) clamped to [1, maxFrames].
// maxFrames <= 0, or above MaxFrames, means MaxFrames. A reported rate that
// is zero, negative or not finite is replaced by fallbackFPS, or
// DefaultFrameRate when that is unusable too.
func ComputeCapacity(fps, seconds, fallbackFPS float64, maxFrames int) (Capacity, error) {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return Capacity{}, fmt.Errorf("%w: %v seconds", ErrInvalidDelay, seconds)
	}

	c := Capacity{FrameRate: fps}

	if !usableRate(fps) {
		c.Degenerate = true
		c.FrameRate = fallbackFPS
		if !usableRate(fallbackFPS) {
			c.FrameRate = DefaultFrameRate
		}
		l.Warn().Printf("reported frame rate %v is unusable, falling back to %v", fps, c.FrameRate)
	}

	if maxFrames <= 0 || maxFrames > MaxFrames {
		maxFrames = MaxFrames
	}

	frames := math.Round(c.FrameRate * seconds)

	switch {
	case frames < 1:
		c.Frames = 1
		c.Clamped = true
	case frames > float64(maxFrames):
		c.Frames = maxFrames
		c.Clamped = true
		l.Warn().Printf("%v frames exceed the limit, buffer capped at %d", frames, maxFrames)
	default:
		c.Frames = int(frames)
	}

	return c, nil
}
