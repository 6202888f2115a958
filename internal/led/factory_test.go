package led

import (
	"log/slog"
	"os"
	"testing"
)

func TestNew(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	ctrl, err := New(Config{Driver: DriverNoop, Pins: []int{26, 16, 12, 5, 7}}, logger)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if ctrl == nil {
		t.Fatal("New() returned nil")
	}

	if got := ctrl.Len(); got != 5 {
		t.Errorf("Len() = %d, want 5", got)
	}

	// Write should not fail on the no-op backend
	if err := ctrl.Write(4, 0.5); err != nil {
		t.Errorf("Write() error: %v", err)
	}
}

func TestNew_UnknownDriver(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if _, err := New(Config{Driver: "fadecandy"}, logger); err == nil {
		t.Error("New() with unknown driver should return error")
	}
}
