package led

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/stianeikeland/go-rpio/v4"

	"github.com/smazurov/ledbuttons/internal/gpio"
)

// softPWMPeriod is the software PWM cycle. 100 Hz is flicker-free for indicator LEDs.
const softPWMPeriod = 10 * time.Millisecond

// rpioController drives LEDs on BCM GPIO pins with software PWM.
// Each pin gets a goroutine that toggles it according to its duty cycle.
type rpioController struct {
	pins   []rpio.Pin
	duty   []atomic.Uint32 // duty cycle in 1/1000 steps
	stop   chan struct{}
	wg     sync.WaitGroup
	closed atomic.Bool
}

// newRPIO claims the given BCM pins as outputs and starts their PWM loops.
func newRPIO(pins []int) (*rpioController, error) {
	if err := gpio.Open(); err != nil {
		return nil, err
	}

	c := &rpioController{
		pins: make([]rpio.Pin, len(pins)),
		duty: make([]atomic.Uint32, len(pins)),
		stop: make(chan struct{}),
	}

	for i, bcm := range pins {
		pin := rpio.Pin(bcm)
		pin.Output()
		pin.Low()
		c.pins[i] = pin
	}

	for i := range c.pins {
		c.wg.Add(1)
		go c.pwm(i)
	}

	return c, nil
}

// Write updates the duty cycle used by the pin's PWM loop.
func (c *rpioController) Write(index int, brightness float64) error {
	if c.closed.Load() {
		return fmt.Errorf("LED controller closed")
	}
	if index < 0 || index >= len(c.pins) {
		return fmt.Errorf("LED index %d out of range [0, %d)", index, len(c.pins))
	}
	c.duty[index].Store(uint32(math.Round(clamp(brightness) * 1000)))
	return nil
}

// Len returns the number of pins under control.
func (c *rpioController) Len() int {
	return len(c.pins)
}

// Close stops the PWM loops, drives the pins low and releases the GPIO mapping.
func (c *rpioController) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(c.stop)
	c.wg.Wait()
	for _, pin := range c.pins {
		pin.Low()
	}
	return gpio.Close()
}

func (c *rpioController) pwm(index int) {
	defer c.wg.Done()

	pin := c.pins[index]
	for {
		duty := c.duty[index].Load()
		on := softPWMPeriod * time.Duration(duty) / 1000

		switch {
		case duty == 0:
			pin.Low()
			if !c.sleep(softPWMPeriod) {
				return
			}
		case duty >= 1000:
			pin.High()
			if !c.sleep(softPWMPeriod) {
				return
			}
		default:
			pin.High()
			if !c.sleep(on) {
				return
			}
			pin.Low()
			if !c.sleep(softPWMPeriod - on) {
				return
			}
		}
	}
}

// sleep waits for d and reports false if the controller was closed meanwhile.
func (c *rpioController) sleep(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-c.stop:
		return false
	case <-timer.C:
		return true
	}
}
