package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Config represents logging configuration.
type Config struct {
	Level   string            `toml:"level"`
	Format  string            `toml:"format"`
	Modules map[string]string `toml:"modules"`
}

// module is one named logger. The LevelVar outlives handler rebuilds so
// loggers handed out earlier follow level changes.
type module struct {
	level  *slog.LevelVar
	logger *slog.Logger
}

// registry holds every module logger of the process.
type registry struct {
	mu          sync.Mutex
	cfg         Config
	initialized bool
	global      slog.LevelVar
	modules     map[string]*module

	// sinks builds the output handlers; replaced in tests.
	sinks func(format string, level slog.Leveler) slog.Handler
}

var std = newRegistry()

func newRegistry() *registry {
	return &registry{
		modules: make(map[string]*module),
		sinks:   defaultSinks,
	}
}

// Initialize applies config and rebuilds the handlers of every logger
// created so far, which were running on the text fallback.
func Initialize(config Config) {
	std.initialize(config)
}

// SetLevels applies new global and per-module levels. The output format is
// left alone.
func SetLevels(config Config) {
	std.setLevels(config)
}

// GetLogger returns the logger for module, creating it on first use.
// Every record carries a module attribute.
func GetLogger(name string) *slog.Logger {
	return std.get(name)
}

func (r *registry) initialize(config Config) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cfg = config
	r.initialized = true
	r.applyLevelsLocked()

	for name, m := range r.modules {
		m.logger = r.newLogger(name, m.level)
	}
	slog.SetDefault(slog.New(r.sinks(config.Format, &r.global)))
}

func (r *registry) setLevels(config Config) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cfg.Level = config.Level
	r.cfg.Modules = config.Modules
	r.applyLevelsLocked()
}

func (r *registry) get(name string) *slog.Logger {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m, ok := r.modules[name]; ok {
		return m.logger
	}
	m := &module{level: new(slog.LevelVar)}
	m.level.Set(r.levelFor(name))
	m.logger = r.newLogger(name, m.level)
	r.modules[name] = m
	return m.logger
}

func (r *registry) applyLevelsLocked() {
	r.global.Set(parseLevel(r.cfg.Level, slog.LevelInfo))
	for name, m := range r.modules {
		m.level.Set(r.levelFor(name))
	}
}

// levelFor returns the module override when valid, otherwise the global level.
func (r *registry) levelFor(name string) slog.Level {
	global := parseLevel(r.cfg.Level, slog.LevelInfo)
	if lvl, ok := r.cfg.Modules[name]; ok {
		return parseLevel(lvl, global)
	}
	return global
}

func (r *registry) newLogger(name string, level slog.Leveler) *slog.Logger {
	format := "text"
	if r.initialized {
		format = r.cfg.Format
	}
	return slog.New(r.sinks(format, level)).With("module", name)
}

// defaultSinks writes to stdout when something reads it and to the journal
// when the process runs under systemd.
func defaultSinks(format string, level slog.Leveler) slog.Handler {
	stdout := streamHandler(os.Stdout, format, level)

	var sinks []slog.Handler
	if stdoutAttached() {
		sinks = append(sinks, stdout)
	}
	if JournalAvailable() {
		sinks = append(sinks, NewJournalHandler(level))
	}

	switch len(sinks) {
	case 0:
		return stdout
	case 1:
		return sinks[0]
	default:
		return NewMultiHandler(sinks...)
	}
}

func streamHandler(w io.Writer, format string, level slog.Leveler) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(format, "json") {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// stdoutAttached is false when stdout is /dev/null, as under a systemd unit
// with StandardOutput=null.
func stdoutAttached() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	if null, err := os.Stat(os.DevNull); err == nil && os.SameFile(fi, null) {
		return false
	}
	return true
}

func parseLevel(level string, fallback slog.Level) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return fallback
	}
}
