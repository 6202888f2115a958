// Package systemd reports service state to the supervising systemd manager.
package systemd

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
)

// NotifyFunc sends one sd_notify state string. It reports false when no
// notification socket is configured.
type NotifyFunc func(state string) (bool, error)

// Notifier sends readiness, status and watchdog notifications.
type Notifier struct {
	notify   NotifyFunc
	watchdog func() (time.Duration, error)
	logger   *slog.Logger

	readyOnce sync.Once
}

// NewNotifier creates a notifier backed by $NOTIFY_SOCKET.
func NewNotifier(logger *slog.Logger) *Notifier {
	return &Notifier{
		notify: func(state string) (bool, error) {
			return daemon.SdNotify(false, state)
		},
		watchdog: func() (time.Duration, error) {
			return daemon.SdWatchdogEnabled(false)
		},
		logger: logger,
	}
}

// Ready sends READY=1. Only the first call has an effect.
func (n *Notifier) Ready() {
	n.readyOnce.Do(func() {
		n.send(daemon.SdNotifyReady)
	})
}

// Stopping sends STOPPING=1.
func (n *Notifier) Stopping() {
	n.send(daemon.SdNotifyStopping)
}

// Status sets the free-form status line shown by systemctl status.
func (n *Notifier) Status(msg string) {
	n.send("STATUS=" + msg)
}

// RunWatchdog pings the watchdog at half the configured timeout until ctx
// is done. It returns immediately when the unit has no watchdog.
func (n *Notifier) RunWatchdog(ctx context.Context) {
	interval, err := n.watchdog()
	if err != nil {
		n.logger.Warn("Failed to read watchdog settings", "error", err)
		return
	}
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval / 2)
	defer ticker.Stop()

	n.logger.Debug("Watchdog enabled", "timeout", interval)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n.send(daemon.SdNotifyWatchdog)
		}
	}
}

func (n *Notifier) send(state string) {
	sent, err := n.notify(state)
	switch {
	case err != nil:
		n.logger.Warn("Failed to notify systemd", "state", state, "error", err)
	case !sent:
		n.logger.Debug("systemd notification socket not set", "state", state)
	}
}
