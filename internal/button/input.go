package button

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/stianeikeland/go-rpio/v4"

	"github.com/smazurov/ledbuttons/internal/gpio"
)

// Input samples the raw state of the board's buttons.
type Input interface {
	// Pressed reports whether button index is held down right now.
	Pressed(index int) (bool, error)

	// Len returns the number of button inputs.
	Len() int

	// Close releases the inputs.
	Close() error
}

// Driver names accepted by NewInput.
const (
	DriverAuto = "auto"
	DriverRPIO = "rpio"
	DriverNoop = "noop"
)

// InputConfig selects and configures the button input backend.
type InputConfig struct {
	Driver string
	Pins   []int // BCM pin numbers, wired to ground when pressed
}

// NewInput creates the configured input backend. The auto driver uses GPIO
// on Raspberry Pi boards and falls back to no-op elsewhere.
func NewInput(cfg InputConfig, logger *slog.Logger) (Input, error) {
	driver := cfg.Driver
	if driver == "" || driver == DriverAuto {
		boardModel := gpio.Board()
		logger.Info("Detecting board for button input", "board_model", boardModel)

		if gpio.IsRaspberryPi(boardModel) {
			driver = DriverRPIO
		} else {
			driver = DriverNoop
		}
	}

	switch driver {
	case DriverRPIO:
		logger.Info("Using GPIO button input", "pins", cfg.Pins)
		return newRPIOInput(cfg.Pins)

	case DriverNoop:
		logger.Info("No button support, using no-op input", "buttons", len(cfg.Pins))
		return &noopInput{count: len(cfg.Pins)}, nil

	default:
		return nil, fmt.Errorf("unknown button driver %q", driver)
	}
}

// rpioInput reads buttons on pull-up GPIO pins, active low.
type rpioInput struct {
	pins   []rpio.Pin
	closed atomic.Bool
}

func newRPIOInput(pins []int) (*rpioInput, error) {
	if err := gpio.Open(); err != nil {
		return nil, err
	}

	in := &rpioInput{pins: make([]rpio.Pin, len(pins))}
	for i, bcm := range pins {
		pin := rpio.Pin(bcm)
		pin.Input()
		pin.PullUp()
		in.pins[i] = pin
	}
	return in, nil
}

func (in *rpioInput) Pressed(index int) (bool, error) {
	if in.closed.Load() {
		return false, fmt.Errorf("button input closed")
	}
	if index < 0 || index >= len(in.pins) {
		return false, fmt.Errorf("button index %d out of range [0, %d)", index, len(in.pins))
	}
	return in.pins[index].Read() == rpio.Low, nil
}

func (in *rpioInput) Len() int {
	return len(in.pins)
}

func (in *rpioInput) Close() error {
	if !in.closed.CompareAndSwap(false, true) {
		return nil
	}
	for _, pin := range in.pins {
		pin.PullOff()
	}
	return gpio.Close()
}

// noopInput reports every button as released.
type noopInput struct {
	count int
}

func (n *noopInput) Pressed(index int) (bool, error) {
	if index < 0 || index >= n.count {
		return false, fmt.Errorf("button index %d out of range [0, %d)", index, n.count)
	}
	return false, nil
}

func (n *noopInput) Len() int {
	return n.count
}

func (n *noopInput) Close() error {
	return nil
}
