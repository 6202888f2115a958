package led

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNoopController(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	ctrl := newNoop(5, logger)

	if err := ctrl.Write(0, 1); err != nil {
		t.Errorf("Write() returned error: %v", err)
	}

	if err := ctrl.Write(5, 1); err == nil {
		t.Error("Write() with out-of-range index should return error")
	}

	if got := ctrl.Len(); got != 5 {
		t.Errorf("Len() = %d, want 5", got)
	}

	if err := ctrl.Close(); err != nil {
		t.Errorf("Close() returned error: %v", err)
	}
}

// fakeLEDClass creates an LED class directory tree under a temp dir.
func fakeLEDClass(t *testing.T, leds map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, maxBrightness := range leds {
		dir := filepath.Join(root, name)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
		files := map[string]string{
			"max_brightness": maxBrightness + "\n",
			"brightness":     "0\n",
			"trigger":        "[none] heartbeat default-on\n",
		}
		for file, content := range files {
			if err := os.WriteFile(filepath.Join(dir, file), []byte(content), 0o644); err != nil {
				t.Fatal(err)
			}
		}
	}
	return root
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return strings.TrimSpace(string(data))
}

func TestSysfsController_Write(t *testing.T) {
	tests := []struct {
		name       string
		max        string
		brightness float64
		want       string
	}{
		{"full on pwm led", "255", 1, "255"},
		{"half pwm led", "255", 0.5, "128"},
		{"off", "255", 0, "0"},
		{"clamped above", "100", 1.7, "100"},
		{"clamped below", "100", -0.3, "0"},
		{"gpio led rounds up", "1", 0.6, "1"},
		{"gpio led rounds down", "1", 0.4, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := fakeLEDClass(t, map[string]string{"play": tt.max})
			ctrl, err := newSysfs(root, []string{"play"})
			if err != nil {
				t.Fatalf("newSysfs() error: %v", err)
			}

			if writeErr := ctrl.Write(0, tt.brightness); writeErr != nil {
				t.Fatalf("Write() error: %v", writeErr)
			}

			if got := readFile(t, filepath.Join(root, "play", "brightness")); got != tt.want {
				t.Errorf("brightness = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSysfsController_DisablesTrigger(t *testing.T) {
	root := fakeLEDClass(t, map[string]string{"play": "255", "next": "255"})

	ctrl, err := newSysfs(root, []string{"play", "next"})
	if err != nil {
		t.Fatalf("newSysfs() error: %v", err)
	}

	if ctrl.Len() != 2 {
		t.Errorf("Len() = %d, want 2", ctrl.Len())
	}

	for _, name := range []string{"play", "next"} {
		if got := readFile(t, filepath.Join(root, name, "trigger")); got != "none" {
			t.Errorf("%s trigger = %q, want none", name, got)
		}
	}
}

func TestSysfsController_MissingLED(t *testing.T) {
	root := fakeLEDClass(t, map[string]string{"play": "255"})

	if _, err := newSysfs(root, []string{"play", "missing"}); err == nil {
		t.Error("newSysfs() with missing LED should return error")
	}
}

func TestSysfsController_InvalidIndex(t *testing.T) {
	root := fakeLEDClass(t, map[string]string{"play": "255"})
	ctrl, err := newSysfs(root, []string{"play"})
	if err != nil {
		t.Fatal(err)
	}

	if err := ctrl.Write(3, 1); err == nil {
		t.Error("Write() with invalid index should return error")
	}
}

func TestSysfsController_CloseTurnsOff(t *testing.T) {
	root := fakeLEDClass(t, map[string]string{"play": "255"})
	ctrl, err := newSysfs(root, []string{"play"})
	if err != nil {
		t.Fatal(err)
	}

	if err := ctrl.Write(0, 1); err != nil {
		t.Fatal(err)
	}
	if err := ctrl.Close(); err != nil {
		t.Fatal(err)
	}

	if got := readFile(t, filepath.Join(root, "play", "brightness")); got != "0" {
		t.Errorf("brightness after Close() = %q, want 0", got)
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{-1, 0},
		{0, 0},
		{0.25, 0.25},
		{1, 1},
		{3, 1},
	}
	for _, tt := range tests {
		if got := clamp(tt.in); got != tt.want {
			t.Errorf("clamp(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
