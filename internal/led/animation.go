package led

import (
	"iter"
	"math"
	"time"
)

// DefaultFPS is the frame rate used when none is configured.
const DefaultFPS = 25

// Forever repeats an animation until it is stopped or preempted.
const Forever = 0

// Frame holds one brightness value per LED, index-aligned with the controller.
type Frame []float64

// Blend decides how a frame value combines with what the LED currently shows.
type Blend int

const (
	// BlendReplace writes every value as-is.
	BlendReplace Blend = iota
	// BlendRaise only writes values brighter than the LED's current value.
	BlendRaise
)

// Animation is a lazy, restartable sequence of frames.
// Generators are pure: ranging over Frames twice yields the same frames.
type Animation struct {
	Name   string
	Frames iter.Seq[Frame]
	Blend  Blend
}

// Swish sweeps a single bead of light from the first LED to the last and back.
// The peak moves linearly from 0 to 1 over duration/2 and returns toward 0
// over the other half; each LED is lit by max(0, 1 - |peak - pos| / width).
func Swish(leds, fps int, duration time.Duration, width float64) Animation {
	positions := ledPositions(leds)

	return Animation{
		Name: "swish",
		Frames: func(yield func(Frame) bool) {
			for peak := range swishPeaks(fps, duration) {
				frame := make(Frame, leds)
				for i, pos := range positions {
					frame[i] = math.Max(0, 1-math.Abs(peak-pos)/width)
				}
				if !yield(frame) {
					return
				}
			}
		},
	}
}

// swishPeaks yields the peak position per frame. The peak hits exactly 1 once
// and the sequence stops one step short of 0, so looping restarts seamlessly.
func swishPeaks(fps int, duration time.Duration) iter.Seq[float64] {
	half := max(int(math.Round(duration.Seconds()*float64(fps)/2)), 1)

	return func(yield func(float64) bool) {
		for i := range 2 * half {
			step := i
			if i > half {
				step = 2*half - i
			}
			if !yield(float64(step) / float64(half)) {
				return
			}
		}
	}
}

// FadeIn raises every LED from dark to full at a uniform rate over duration.
// It blends with BlendRaise, so LEDs already brighter than the current level
// are left alone, and finishes with an all-ones frame.
func FadeIn(leds, fps int, duration time.Duration) Animation {
	steps := max(int(math.Round(duration.Seconds()*float64(fps))), 1)

	return Animation{
		Name:  "fade_in",
		Blend: BlendRaise,
		Frames: func(yield func(Frame) bool) {
			for i := range steps {
				if !yield(uniform(leds, float64(i)/float64(steps))) {
					return
				}
			}
			yield(uniform(leds, 1))
		},
	}
}

// BlinkOff holds every LED dark for duration and then emits a single
// full-brightness frame. Used as the acknowledgment flash for button actions.
func BlinkOff(leds, fps int, duration time.Duration) Animation {
	dark := max(int(math.Ceil(duration.Seconds()*float64(fps)-1e-9)), 0)

	return Animation{
		Name: "blink_off",
		Frames: func(yield func(Frame) bool) {
			for range dark {
				if !yield(uniform(leds, 0)) {
					return
				}
			}
			yield(uniform(leds, 1))
		},
	}
}

// Solid is a single frame with every LED at the same brightness.
func Solid(leds int, brightness float64) Animation {
	return Animation{
		Name: "solid",
		Frames: func(yield func(Frame) bool) {
			yield(uniform(leds, brightness))
		},
	}
}

func uniform(leds int, v float64) Frame {
	frame := make(Frame, leds)
	for i := range frame {
		frame[i] = v
	}
	return frame
}

// ledPositions maps LED indices onto [0, 1].
func ledPositions(leds int) []float64 {
	positions := make([]float64, leds)
	if leds < 2 {
		return positions
	}
	for i := range positions {
		positions[i] = float64(i) / float64(leds-1)
	}
	return positions
}
