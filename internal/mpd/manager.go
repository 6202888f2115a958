package mpd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// State is the connection state owned by Manager.
type State string

// Connection states.
const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
)

// DefaultRetryInterval is the fixed backoff between connection attempts.
const DefaultRetryInterval = 500 * time.Millisecond

// Options configures a Manager.
type Options struct {
	Endpoint      Endpoint
	RetryInterval time.Duration

	// OnStateChange is called on every state transition, with the manager lock held.
	OnStateChange func(previous, current State)

	// OnStatus is called with every status fetched from the service.
	OnStatus func(Status)

	Logger *slog.Logger
}

// Manager owns the single MPD connection. Calls are serialized; a call that
// fails on a broken connection reconnects and retries once.
type Manager struct {
	service Service
	opts    Options
	logger  *slog.Logger

	mu      sync.Mutex // serializes calls and reconnects
	stateMu sync.RWMutex
	state   State
	status  Status
}

// NewManager creates a manager in the disconnected state.
func NewManager(service Service, opts Options) *Manager {
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = DefaultRetryInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		service: service,
		opts:    opts,
		logger:  logger,
		state:   StateDisconnected,
	}
}

// State returns the current connection state.
func (m *Manager) State() State {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.state
}

// LastStatus returns the most recently fetched status.
func (m *Manager) LastStatus() Status {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.status
}

// AwaitConnection blocks until a connection is open and the playback state
// has been fetched, retrying at the fixed backoff. It returns early only
// when ctx is done.
func (m *Manager) AwaitConnection(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.awaitLocked(ctx)
}

// Call runs op against the connection. If op fails with a transient error
// the connection is dropped, re-established and op is retried exactly once.
func (m *Manager) Call(ctx context.Context, name string, op func(Service) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.State() != StateConnected {
		if err := m.awaitLocked(ctx); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	err := op(m.service)
	switch Classify(err) {
	case Success:
		return nil
	case PermanentFailure:
		return fmt.Errorf("%s: %w", name, err)
	}

	m.logger.Warn("MPD call failed, reconnecting", "call", name, "error", err)
	m.dropLocked()

	if err := m.awaitLocked(ctx); err != nil {
		return fmt.Errorf("%s: reconnect: %w", name, err)
	}

	if err := op(m.service); err != nil {
		if Classify(err) == TransientFailure {
			m.dropLocked()
		}
		return fmt.Errorf("%s failed after reconnect: %w", name, err)
	}
	return nil
}

// Refresh fetches the playback state and reports it through OnStatus.
func (m *Manager) Refresh(ctx context.Context) (Status, error) {
	var status Status
	err := m.Call(ctx, "status", func(s Service) error {
		var err error
		status, err = s.Status()
		return err
	})
	if err != nil {
		return Status{}, err
	}
	m.setStatus(status)
	return status, nil
}

// KeepAlive refreshes the status every interval until ctx is done, so a
// dropped connection is noticed without waiting for a button press.
func (m *Manager) KeepAlive(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := m.Refresh(ctx); err != nil && ctx.Err() == nil {
				m.logger.Warn("Status refresh failed", "error", err)
			}
		}
	}
}

// Close disconnects from the service.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	err := m.service.Disconnect()
	m.setState(StateDisconnected)
	if err != nil && !errors.Is(err, ErrNotConnected) {
		return fmt.Errorf("disconnect: %w", err)
	}
	return nil
}

func (m *Manager) awaitLocked(ctx context.Context) error {
	m.setState(StateConnecting)

	for attempt := 1; ; attempt++ {
		err := m.connectLocked()
		if err == nil {
			m.setState(StateConnected)
			m.logger.Info("Connected to MPD", "address", m.opts.Endpoint.Address, "attempts", attempt)
			return nil
		}

		if attempt == 1 {
			m.logger.Warn("MPD not reachable, retrying", "address", m.opts.Endpoint.Address, "error", err)
		} else {
			m.logger.Debug("MPD connection attempt failed", "attempt", attempt, "error", err)
		}

		timer := time.NewTimer(m.opts.RetryInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			m.setState(StateDisconnected)
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (m *Manager) connectLocked() error {
	if err := m.service.Connect(m.opts.Endpoint); err != nil {
		return err
	}
	status, err := m.service.Status()
	if err != nil {
		_ = m.service.Disconnect()
		return err
	}
	m.setStatus(status)
	return nil
}

// dropLocked marks the connection lost and force-closes it.
func (m *Manager) dropLocked() {
	m.setState(StateDisconnected)
	if err := m.service.Disconnect(); err != nil && !errors.Is(err, ErrNotConnected) {
		m.logger.Debug("Disconnect after failure", "error", err)
	}
}

func (m *Manager) setState(next State) {
	m.stateMu.Lock()
	prev := m.state
	m.state = next
	m.stateMu.Unlock()

	if prev == next {
		return
	}
	m.logger.Debug("Connection state changed", "previous", prev, "state", next)
	if m.opts.OnStateChange != nil {
		m.opts.OnStateChange(prev, next)
	}
}

func (m *Manager) setStatus(status Status) {
	m.stateMu.Lock()
	m.status = status
	m.stateMu.Unlock()

	if m.opts.OnStatus != nil {
		m.opts.OnStatus(status)
	}
}
