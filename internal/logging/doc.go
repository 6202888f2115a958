// Package logging provides structured logging with per-module log level configuration.
//
// # Overview
//
// The logging system uses Go's slog package with automatic output routing:
//   - Logs to systemd journal when available (the daemon normally runs as a unit)
//   - Logs to stdout when a terminal, pipe, or file is connected
//   - Logs to both when both are available
//
// # Usage
//
// Initialize the logging system once at startup:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",
//		Format: "text",
//		Modules: map[string]string{
//			"mpd": "debug",
//			"led": "warn",
//		},
//	})
//
// Get a logger for your module:
//
//	logger := logging.GetLogger("buttons")
//	logger.Info("Button pressed", "button", "play")
//
// Levels can be changed at runtime with [SetLevels]; loggers already handed
// out observe the change because each module owns a [slog.LevelVar].
//
// # Viewing Logs
//
//	journalctl -t ledbuttons -f
//	journalctl -t ledbuttons MODULE=mpd
//
// Journal availability is checked via [github.com/coreos/go-systemd/v22/journal.Enabled].
package logging
