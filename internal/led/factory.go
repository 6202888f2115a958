package led

import (
	"fmt"
	"log/slog"

	"github.com/smazurov/ledbuttons/internal/gpio"
)

// Driver names accepted by New.
const (
	DriverAuto  = "auto"
	DriverRPIO  = "rpio"
	DriverSysfs = "sysfs"
	DriverNoop  = "noop"
)

// Config selects and configures the LED output backend.
type Config struct {
	Driver string
	Pins   []int    // BCM pin numbers for the rpio driver
	Names  []string // LED class names for the sysfs driver
}

// count is the LED count implied by the configuration.
func (c Config) count() int {
	if len(c.Names) > 0 && c.Driver == DriverSysfs {
		return len(c.Names)
	}
	return len(c.Pins)
}

// New creates an LED controller for the configured driver.
// The auto driver uses GPIO on Raspberry Pi boards and falls back to no-op elsewhere.
func New(cfg Config, logger *slog.Logger) (Controller, error) {
	driver := cfg.Driver
	if driver == "" || driver == DriverAuto {
		boardModel := gpio.Board()
		logger.Info("Detecting board for LED control", "board_model", boardModel)

		if gpio.IsRaspberryPi(boardModel) {
			driver = DriverRPIO
		} else {
			driver = DriverNoop
		}
	}

	switch driver {
	case DriverRPIO:
		logger.Info("Using GPIO software PWM LED controller", "pins", cfg.Pins)
		return newRPIO(cfg.Pins)

	case DriverSysfs:
		logger.Info("Using sysfs LED controller", "leds", cfg.Names)
		return newSysfs(sysfsLEDPath, cfg.Names)

	case DriverNoop:
		logger.Info("No LED support, using no-op controller", "leds", cfg.count())
		return newNoop(cfg.count(), logger), nil

	default:
		return nil, fmt.Errorf("unknown LED driver %q", driver)
	}
}
