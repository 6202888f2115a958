package led

// Controller abstracts the physical LED outputs of the board.
// LEDs are addressed by index in a fixed order; index 0 is the first
// configured output.
type Controller interface {
	// Write sets one LED's brightness. Values outside [0, 1] are clamped.
	// An error means the output device failed and is not retried.
	Write(index int, brightness float64) error

	// Len returns the number of LEDs on the board.
	Len() int

	// Close releases the outputs.
	Close() error
}

// clamp limits a brightness value to [0, 1].
func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
