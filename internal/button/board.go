package button

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// DefaultPollInterval is the input sampling period.
const DefaultPollInterval = 5 * time.Millisecond

// Board samples an Input and feeds each button's edges.
type Board struct {
	input    Input
	buttons  []*Button
	interval time.Duration
	logger   *slog.Logger
}

// NewBoard creates one Button per config, bound to the input of the same index.
func NewBoard(input Input, configs []Config, interval time.Duration, logger *slog.Logger) (*Board, error) {
	if len(configs) > input.Len() {
		return nil, fmt.Errorf("%d buttons configured but input has %d", len(configs), input.Len())
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if logger == nil {
		logger = slog.Default()
	}

	b := &Board{
		input:    input,
		buttons:  make([]*Button, len(configs)),
		interval: interval,
		logger:   logger,
	}
	for i, cfg := range configs {
		b.buttons[i] = New(cfg, logger)
	}
	return b, nil
}

// Button returns the button at index.
func (b *Board) Button(index int) *Button {
	return b.buttons[index]
}

// Len returns the number of buttons.
func (b *Board) Len() int {
	return len(b.buttons)
}

// Run samples the input until ctx is done. An input failure ends Run with
// the error.
func (b *Board) Run(ctx context.Context) error {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	b.logger.Info("Polling buttons", "buttons", len(b.buttons), "interval", b.interval)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		now := time.Now()
		for i, btn := range b.buttons {
			pressed, err := b.input.Pressed(i)
			if err != nil {
				return fmt.Errorf("read button %s: %w", btn.Name(), err)
			}
			btn.Edge(pressed, now)
		}
	}
}

// Close stops every button and releases the input.
func (b *Board) Close() error {
	for _, btn := range b.buttons {
		btn.Close()
	}
	if err := b.input.Close(); err != nil {
		return fmt.Errorf("close button input: %w", err)
	}
	return nil
}
