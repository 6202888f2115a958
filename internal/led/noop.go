package led

import (
	"fmt"
	"log/slog"
)

// noop implements Controller for systems without LED outputs.
// It keeps the requested LED count so animations still run.
type noop struct {
	logger *slog.Logger
	count  int
}

// newNoop creates a new no-op LED controller
func newNoop(count int, logger *slog.Logger) *noop {
	return &noop{
		logger: logger,
		count:  count,
	}
}

// Write validates the index and discards the value.
func (n *noop) Write(index int, brightness float64) error {
	if index < 0 || index >= n.count {
		return fmt.Errorf("LED index %d out of range [0, %d)", index, n.count)
	}
	return nil
}

// Len returns the configured LED count.
func (n *noop) Len() int {
	return n.count
}

// Close logs and returns.
func (n *noop) Close() error {
	n.logger.Debug("LED control not available (no-op), nothing to close")
	return nil
}
