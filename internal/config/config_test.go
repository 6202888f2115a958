package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/spf13/cobra"
)

// TestConfig mirrors the shape of the daemon Options struct.
type TestConfig struct {
	Config string `help:"Config file path"`

	MPDAddress    string   `toml:"mpd.address" env:"MPD_ADDRESS"`
	LEDsPins      []int    `toml:"leds.pins" env:"LEDS_PINS"`
	LEDsNames     []string `toml:"leds.names" env:"LEDS_NAMES"`
	ButtonsRepeat float64  `toml:"buttons.repeat" env:"BUTTONS_REPEAT"`
	VolumeStep    int      `toml:"volume.step" env:"VOLUME_STEP"`
	MetricsOn     bool     `toml:"metrics.enabled" env:"METRICS_ENABLED"`
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestLoadConfigFromTOML(t *testing.T) {
	path := writeFile(t, "config.toml", `
[mpd]
address = "/run/mpd/socket"

[leds]
pins = [26, 16, 12, 5, 7]
names = ["led0", "led1"]

[buttons]
repeat = 0.25

[volume]
step = 3

[metrics]
enabled = true
`)

	config := &TestConfig{Config: path}
	if err := LoadConfig(config, nil); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.MPDAddress != "/run/mpd/socket" {
		t.Errorf("MPDAddress = %q", config.MPDAddress)
	}
	if !reflect.DeepEqual(config.LEDsPins, []int{26, 16, 12, 5, 7}) {
		t.Errorf("LEDsPins = %v", config.LEDsPins)
	}
	if !reflect.DeepEqual(config.LEDsNames, []string{"led0", "led1"}) {
		t.Errorf("LEDsNames = %v", config.LEDsNames)
	}
	if config.ButtonsRepeat != 0.25 {
		t.Errorf("ButtonsRepeat = %v, want 0.25", config.ButtonsRepeat)
	}
	if config.VolumeStep != 3 {
		t.Errorf("VolumeStep = %d, want 3", config.VolumeStep)
	}
	if !config.MetricsOn {
		t.Error("MetricsOn = false, want true")
	}
}

func TestLoadConfigFromEnvVars(t *testing.T) {
	t.Setenv("LEDBUTTONS_MPD_ADDRESS", "localhost:6600")
	t.Setenv("LEDBUTTONS_LEDS_PINS", "1, 2,3")
	t.Setenv("LEDBUTTONS_BUTTONS_REPEAT", "0.5")
	t.Setenv("LEDBUTTONS_VOLUME_STEP", "7")
	t.Setenv("LEDBUTTONS_METRICS_ENABLED", "true")

	config := &TestConfig{}
	if err := LoadConfig(config, nil); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.MPDAddress != "localhost:6600" {
		t.Errorf("MPDAddress = %q", config.MPDAddress)
	}
	if !reflect.DeepEqual(config.LEDsPins, []int{1, 2, 3}) {
		t.Errorf("LEDsPins = %v", config.LEDsPins)
	}
	if config.ButtonsRepeat != 0.5 {
		t.Errorf("ButtonsRepeat = %v", config.ButtonsRepeat)
	}
	if config.VolumeStep != 7 {
		t.Errorf("VolumeStep = %d", config.VolumeStep)
	}
	if !config.MetricsOn {
		t.Error("MetricsOn = false")
	}
}

func TestLoadConfigPrecedence(t *testing.T) {
	path := writeFile(t, "config.toml", `
[mpd]
address = "from-toml"

[volume]
step = 2
`)
	t.Setenv("LEDBUTTONS_MPD_ADDRESS", "from-env")
	t.Setenv("LEDBUTTONS_VOLUME_STEP", "4")

	config := &TestConfig{Config: path, VolumeStep: 9}

	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().Int("volume-step", 5, "")
	if err := cmd.Flags().Set("volume-step", "9"); err != nil {
		t.Fatal(err)
	}

	if err := LoadConfig(config, cmd); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.MPDAddress != "from-env" {
		t.Errorf("MPDAddress = %q, env should override TOML", config.MPDAddress)
	}
	if config.VolumeStep != 9 {
		t.Errorf("VolumeStep = %d, CLI flag should win", config.VolumeStep)
	}
}

func TestFieldNameToFlag(t *testing.T) {
	tests := map[string]string{
		"Port":            "port",
		"LoggingLevel":    "logging-level",
		"MPDAddress":      "mpd-address",
		"LEDPins":         "led-pins",
		"MetricsListen":   "metrics-listen",
		"ButtonsHoldTime": "buttons-hold-time",
	}
	for in, want := range tests {
		if got := fieldNameToFlag(in); got != want {
			t.Errorf("fieldNameToFlag(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestGetNestedValue(t *testing.T) {
	data := map[string]any{
		"level1": map[string]any{
			"level2": map[string]any{
				"value": "nested_value",
			},
			"simple": "simple_value",
		},
		"root": "root_value",
	}

	tests := []struct {
		path     string
		expected any
	}{
		{"root", "root_value"},
		{"level1.simple", "simple_value"},
		{"level1.level2.value", "nested_value"},
		{"nonexistent", nil},
		{"level1.nonexistent", nil},
		{"root.deeper", nil},
	}

	for _, test := range tests {
		result := getNestedValue(data, test.path)
		if result != test.expected {
			t.Errorf("getNestedValue(%q) = %v, expected %v", test.path, result, test.expected)
		}
	}
}

func TestSetFieldValue(t *testing.T) {
	type TestStruct struct {
		FloatField  float64
		IntSlice    []int
		IntField    int
		StringField string
	}

	s := &TestStruct{}
	v := reflect.ValueOf(s).Elem()

	setFieldValue(v.FieldByName("FloatField"), 1.5)
	if s.FloatField != 1.5 {
		t.Errorf("FloatField = %v, want 1.5", s.FloatField)
	}

	// TOML integers decode as int64
	setFieldValue(v.FieldByName("FloatField"), int64(2))
	if s.FloatField != 2 {
		t.Errorf("FloatField = %v, want 2", s.FloatField)
	}

	setFieldValue(v.FieldByName("IntSlice"), []any{int64(17), int64(27)})
	if !reflect.DeepEqual(s.IntSlice, []int{17, 27}) {
		t.Errorf("IntSlice = %v", s.IntSlice)
	}

	setFieldValue(v.FieldByName("StringField"), 1.5)
	if s.StringField != "1.5" {
		t.Errorf("StringField = %q, want 1.5", s.StringField)
	}

	setFieldValue(v.FieldByName("StringField"), []any{int64(26), int64(16)})
	if s.StringField != "26,16" {
		t.Errorf("StringField = %q, want 26,16", s.StringField)
	}

	// Mismatched types are ignored
	setFieldValue(v.FieldByName("IntField"), "not a number")
	if s.IntField != 0 {
		t.Errorf("IntField = %d, want 0", s.IntField)
	}
}

func TestSetFieldValueFromString(t *testing.T) {
	type TestStruct struct {
		FloatField float64
		IntSlice   []int
		SliceField []string
	}

	s := &TestStruct{}
	v := reflect.ValueOf(s).Elem()

	setFieldValueFromString(v.FieldByName("FloatField"), "0.3")
	if s.FloatField != 0.3 {
		t.Errorf("FloatField = %v, want 0.3", s.FloatField)
	}

	setFieldValueFromString(v.FieldByName("IntSlice"), "26,16,12")
	if !reflect.DeepEqual(s.IntSlice, []int{26, 16, 12}) {
		t.Errorf("IntSlice = %v", s.IntSlice)
	}

	// Invalid list leaves the field alone
	setFieldValueFromString(v.FieldByName("IntSlice"), "26,x")
	if !reflect.DeepEqual(s.IntSlice, []int{26, 16, 12}) {
		t.Errorf("IntSlice changed on invalid input: %v", s.IntSlice)
	}

	setFieldValueFromString(v.FieldByName("SliceField"), " a , b , c ")
	if !reflect.DeepEqual(s.SliceField, []string{"a", "b", "c"}) {
		t.Errorf("SliceField = %v", s.SliceField)
	}
}

func TestParseInts(t *testing.T) {
	tests := []struct {
		input   string
		want    []int
		wantErr bool
	}{
		{"26,16,12,5,7", []int{26, 16, 12, 5, 7}, false},
		{" 17 , 27 ", []int{17, 27}, false},
		{"", nil, false},
		{"17,,27", nil, true},
		{"gpio17", nil, true},
	}

	for _, tt := range tests {
		got, err := ParseInts(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseInts(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ParseInts(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input string
		want  time.Duration
	}{
		{"1.5s", 1500 * time.Millisecond},
		{"250ms", 250 * time.Millisecond},
		{"0.5", 500 * time.Millisecond},
		{"", time.Second},
		{"soon", time.Second},
	}

	for _, tt := range tests {
		if got := ParseDuration(tt.input, time.Second); got != tt.want {
			t.Errorf("ParseDuration(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := writeFile(t, "ledbuttons.env", "LEDBUTTONS_TEST_ENVFILE=from-file\nLEDBUTTONS_TEST_KEEP=from-file\n")
	t.Setenv("LEDBUTTONS_TEST_KEEP", "from-env")
	t.Cleanup(func() { os.Unsetenv("LEDBUTTONS_TEST_ENVFILE") })

	if err := LoadEnvFile(path); err != nil {
		t.Fatalf("LoadEnvFile failed: %v", err)
	}

	if got := os.Getenv("LEDBUTTONS_TEST_ENVFILE"); got != "from-file" {
		t.Errorf("LEDBUTTONS_TEST_ENVFILE = %q", got)
	}
	if got := os.Getenv("LEDBUTTONS_TEST_KEEP"); got != "from-env" {
		t.Errorf("existing variable overwritten: %q", got)
	}
}

func TestLoadEnvFileMissing(t *testing.T) {
	if err := LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("LoadEnvFile should ignore a missing file: %v", err)
	}
	if err := LoadEnvFile(""); err != nil {
		t.Errorf("LoadEnvFile(\"\") = %v", err)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	config := &TestConfig{Config: "nonexistent_file.toml"}

	// Should not fail when file doesn't exist
	if err := LoadConfig(config, nil); err != nil {
		t.Fatalf("LoadConfig should not fail for missing file: %v", err)
	}
}

func TestLoadRuntime(t *testing.T) {
	path := writeFile(t, "config.toml", `
[logging]
level = "warn"
format = "json"
mpd = "debug"
led = "error"

[volume]
step = 8
`)

	cfg, err := LoadRuntime(path)
	if err != nil {
		t.Fatalf("LoadRuntime failed: %v", err)
	}

	if cfg.Logging.Level != "warn" {
		t.Errorf("Level = %q, want warn", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Format = %q, want json", cfg.Logging.Format)
	}
	want := map[string]string{"mpd": "debug", "led": "error"}
	if !reflect.DeepEqual(cfg.Logging.Modules, want) {
		t.Errorf("Modules = %v, want %v", cfg.Logging.Modules, want)
	}
	if cfg.VolumeStep != 8 {
		t.Errorf("VolumeStep = %d, want 8", cfg.VolumeStep)
	}
}

func TestLoadRuntimeErrors(t *testing.T) {
	if _, err := LoadRuntime(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("LoadRuntime should fail for a missing file")
	}

	path := writeFile(t, "bad.toml", "[logging\nlevel = ")
	if _, err := LoadRuntime(path); err == nil {
		t.Error("LoadRuntime should fail for invalid TOML")
	}
}

func TestLoadConfigInvalidTOML(t *testing.T) {
	path := writeFile(t, "invalid.toml", `
[mpd
invalid toml syntax
`)

	config := &TestConfig{Config: path}

	// Should fail with invalid TOML
	if err := LoadConfig(config, nil); err == nil {
		t.Fatalf("LoadConfig should fail for invalid TOML")
	}
}
