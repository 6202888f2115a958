// Package gpio shares the go-rpio register mapping between the LED and button drivers.
//
// rpio.Open maps /dev/gpiomem for the whole process, so both drivers acquire it
// through Open/Close here and the mapping is released with the last user.
package gpio

import (
	"fmt"
	"sync"

	"github.com/stianeikeland/go-rpio/v4"
)

var (
	mu    sync.Mutex
	users int
)

// Open maps the GPIO registers, or increments the user count if already mapped.
func Open() error {
	mu.Lock()
	defer mu.Unlock()

	if users == 0 {
		if err := rpio.Open(); err != nil {
			return fmt.Errorf("failed to open gpio memory: %w", err)
		}
	}
	users++
	return nil
}

// Close releases one user; the mapping is removed when no users remain.
func Close() error {
	mu.Lock()
	defer mu.Unlock()

	if users == 0 {
		return nil
	}
	users--
	if users > 0 {
		return nil
	}
	if err := rpio.Close(); err != nil {
		return fmt.Errorf("failed to close gpio memory: %w", err)
	}
	return nil
}
