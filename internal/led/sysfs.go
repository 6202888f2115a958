package led

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const sysfsLEDPath = "/sys/class/leds"

// sysfs implements Controller using the Linux LED class interface.
// PWM-backed LEDs (leds-pwm, leds-gpio with brightness > 1) expose
// max_brightness, and brightness is scaled to that range.
type sysfs struct {
	paths []string // per-LED sysfs directory, index-aligned
	max   []int    // per-LED max_brightness
}

// newSysfs opens the named LEDs under root and disables their kernel triggers
// so the daemon has manual control.
func newSysfs(root string, names []string) (*sysfs, error) {
	s := &sysfs{
		paths: make([]string, len(names)),
		max:   make([]int, len(names)),
	}

	for i, name := range names {
		ledPath := filepath.Join(root, name)

		if _, err := os.Stat(ledPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("LED %q not found at %s", name, ledPath)
		}

		maxBrightness, err := readInt(filepath.Join(ledPath, "max_brightness"))
		if err != nil || maxBrightness <= 0 {
			maxBrightness = 1
		}

		triggerPath := filepath.Join(ledPath, "trigger")
		if err := os.WriteFile(triggerPath, []byte("none"), 0o644); err != nil {
			return nil, fmt.Errorf("failed to set LED %q trigger to none: %w", name, err)
		}

		s.paths[i] = ledPath
		s.max[i] = maxBrightness
	}

	return s, nil
}

// Write scales brightness to max_brightness and writes it.
func (s *sysfs) Write(index int, brightness float64) error {
	if index < 0 || index >= len(s.paths) {
		return fmt.Errorf("LED index %d out of range [0, %d)", index, len(s.paths))
	}

	value := int(math.Round(clamp(brightness) * float64(s.max[index])))
	brightnessPath := filepath.Join(s.paths[index], "brightness")

	if err := os.WriteFile(brightnessPath, []byte(strconv.Itoa(value)), 0o644); err != nil {
		return fmt.Errorf("failed to set LED brightness: %w", err)
	}

	return nil
}

// Len returns the number of LEDs under control.
func (s *sysfs) Len() int {
	return len(s.paths)
}

// Close turns every LED off.
func (s *sysfs) Close() error {
	var firstErr error
	for i := range s.paths {
		if err := s.Write(i, 0); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func readInt(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}
