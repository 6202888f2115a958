package led

import "time"

// Clock is the fixed-rate timing source that paces animation playback.
type Clock struct {
	FPS int
}

// NewClock returns a clock at fps frames per second, or DefaultFPS if fps is not positive.
func NewClock(fps int) Clock {
	if fps <= 0 {
		fps = DefaultFPS
	}
	return Clock{FPS: fps}
}

// Step is the duration of one frame slot.
func (c Clock) Step() time.Duration {
	return time.Second / time.Duration(c.FPS)
}

// Ticker returns a ticker firing once per frame slot.
func (c Clock) Ticker() *time.Ticker {
	return time.NewTicker(c.Step())
}
