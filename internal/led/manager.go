package led

import (
	"log/slog"
	"sync"
	"time"

	"github.com/smazurov/ledbuttons/internal/events"
)

// Connection states as published on the event bus.
const (
	stateConnecting = "connecting"
	stateConnected  = "connected"
)

// ManagerOptions holds the animation parameters used by Manager.
type ManagerOptions struct {
	LoadingDuration time.Duration
	LoadingWidth    float64
	FadeDuration    time.Duration
	AckDuration     time.Duration
}

// DefaultManagerOptions returns the stock animation parameters.
func DefaultManagerOptions() ManagerOptions {
	return ManagerOptions{
		LoadingDuration: 1500 * time.Millisecond,
		LoadingWidth:    0.3,
		FadeDuration:    time.Second,
		AckDuration:     200 * time.Millisecond,
	}
}

// Manager maps daemon status onto animations. It plays the loading sweep
// while the service is unreachable, the fade-in once it is ready, and the
// acknowledgment flash for button actions.
type Manager struct {
	engine      *Engine
	eventBus    *events.Bus
	unsubscribe func()
	logger      *slog.Logger
	opts        ManagerOptions

	mu           sync.Mutex
	ready        bool
	reconnecting bool
}

// NewManager creates a new LED manager that reacts to connection state changes
func NewManager(engine *Engine, eventBus *events.Bus, opts ManagerOptions, logger *slog.Logger) *Manager {
	return &Manager{
		engine:   engine,
		eventBus: eventBus,
		logger:   logger,
		opts:     opts,
	}
}

// Start begins listening for connection state change events
func (m *Manager) Start() {
	m.unsubscribe = m.eventBus.Subscribe(func(e events.ConnectionStateChangedEvent) {
		m.handleEvent(e)
	})
	m.logger.Info("LED manager started")
}

// Stop unsubscribes from events. Playback is left to the engine owner.
func (m *Manager) Stop() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	m.logger.Info("LED manager stopped")
}

// Close stops listening and turns every LED off.
func (m *Manager) Close() error {
	m.Stop()
	return m.engine.Close()
}

// Loading plays the sweep animation until something else preempts it.
func (m *Manager) Loading() {
	m.logger.Info("Start loading animation")
	m.engine.Play(Swish(m.engine.Len(), m.engine.FPS(), m.opts.LoadingDuration, m.opts.LoadingWidth), Forever)
}

// Ready stops the loading animation and fades every LED up to full.
// Connection events drive the LEDs only after Ready has been called.
func (m *Manager) Ready() {
	m.mu.Lock()
	m.ready = true
	m.reconnecting = false
	m.mu.Unlock()

	m.engine.Stop()
	m.engine.Play(FadeIn(m.engine.Len(), m.engine.FPS(), m.opts.FadeDuration), 1)
}

// Ack plays the acknowledgment flash. A zero duration uses the configured default.
func (m *Manager) Ack(duration time.Duration) {
	if duration <= 0 {
		duration = m.opts.AckDuration
	}
	m.engine.Play(BlinkOff(m.engine.Len(), m.engine.FPS(), duration), 1)
}

// handleEvent processes a single connection state change.
func (m *Manager) handleEvent(event events.ConnectionStateChangedEvent) {
	m.mu.Lock()
	if !m.ready {
		m.mu.Unlock()
		return
	}

	var loading, recovered bool
	switch event.State {
	case stateConnecting:
		loading = !m.reconnecting
		m.reconnecting = true
	case stateConnected:
		recovered = m.reconnecting
		m.reconnecting = false
	}
	m.mu.Unlock()

	m.logger.Debug("Connection state changed", "previous", event.Previous, "state", event.State)

	switch {
	case loading:
		m.Loading()
	case recovered:
		m.logger.Info("Connection recovered, restoring LEDs")
		m.engine.Play(FadeIn(m.engine.Len(), m.engine.FPS(), m.opts.FadeDuration), 1)
	}
}
