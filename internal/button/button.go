package button

import (
	"log/slog"
	"sync"
	"time"
)

// Signal is a low-level button signal.
type Signal int

const (
	Pressed Signal = iota
	Released
	Held
)

func (s Signal) String() string {
	switch s {
	case Pressed:
		return "pressed"
	case Released:
		return "released"
	case Held:
		return "held"
	default:
		return "unknown"
	}
}

// queueSize bounds the presses waiting for a busy handler. Released is
// always queued and at most one Held is pending at a time.
const queueSize = 8

// event is a queued signal tagged with the press it belongs to.
type event struct {
	sig   Signal
	press uint64
}

// Config describes one button.
type Config struct {
	Name string

	// HoldTime is how long the button must stay down before Held fires.
	// Zero disables Held.
	HoldTime time.Duration

	// HoldRepeat re-fires Held every RepeatInterval while still pressed.
	HoldRepeat     bool
	RepeatInterval time.Duration

	// Debounce drops edges closer than this to the previous accepted edge.
	Debounce time.Duration
}

// Button turns debounced edges into Pressed, Released and Held signals.
// Handlers run on a dedicated goroutine per button, one signal at a time.
type Button struct {
	cfg    Config
	logger *slog.Logger

	mu          sync.Mutex
	pressed     bool
	press       uint64 // incremented on every accepted press
	lastEdge    time.Time
	holdStop    chan struct{}
	handlers    map[Signal]func()
	pending     []event
	heldPending uint64 // press of the queued Held, zero when none
	closed      bool

	wake chan struct{}
	wg   sync.WaitGroup
}

// New creates a button and starts its handler goroutine.
func New(cfg Config, logger *slog.Logger) *Button {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Button{
		cfg:      cfg,
		logger:   logger.With("button", cfg.Name),
		handlers: make(map[Signal]func()),
		wake:     make(chan struct{}, 1),
	}
	b.wg.Add(1)
	go b.dispatch()
	return b
}

// Name returns the configured button name.
func (b *Button) Name() string {
	return b.cfg.Name
}

// OnPressed sets the handler for Pressed.
func (b *Button) OnPressed(fn func()) { b.on(Pressed, fn) }

// OnReleased sets the handler for Released.
func (b *Button) OnReleased(fn func()) { b.on(Released, fn) }

// OnHeld sets the handler for Held.
func (b *Button) OnHeld(fn func()) { b.on(Held, fn) }

func (b *Button) on(sig Signal, fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if fn == nil {
		delete(b.handlers, sig)
		return
	}
	b.handlers[sig] = fn
}

// IsPressed reports the debounced button state.
func (b *Button) IsPressed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pressed
}

// Edge feeds a raw input sample taken at the given time.
func (b *Button) Edge(pressed bool, at time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed || pressed == b.pressed {
		return
	}
	if !b.lastEdge.IsZero() && at.Sub(b.lastEdge) < b.cfg.Debounce {
		return
	}
	b.lastEdge = at
	b.pressed = pressed

	if pressed {
		b.press++
		b.enqueueLocked(Pressed)
		if b.cfg.HoldTime > 0 {
			b.holdStop = make(chan struct{})
			b.wg.Add(1)
			go b.hold(b.holdStop)
		}
		return
	}

	b.stopHoldLocked()
	b.enqueueLocked(Released)
}

// Close stops hold timers and the handler goroutine. Queued signals are
// still delivered.
func (b *Button) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.stopHoldLocked()
	b.notifyLocked()
	b.mu.Unlock()

	b.wg.Wait()
}

func (b *Button) stopHoldLocked() {
	if b.holdStop != nil {
		close(b.holdStop)
		b.holdStop = nil
	}
}

// enqueueLocked hands a signal to the handler goroutine. Presses are
// dropped while the queue is full so a stuck handler cannot build a backlog
// of actions; releases are never dropped.
func (b *Button) enqueueLocked(sig Signal) {
	if sig == Pressed && len(b.pending) >= queueSize {
		b.logger.Warn("Button handler busy, dropping signal", "signal", sig)
		return
	}
	b.pending = append(b.pending, event{sig: sig, press: b.press})
	b.notifyLocked()
}

func (b *Button) notifyLocked() {
	select {
	case b.wake <- struct{}{}:
	default:
	}
}

func (b *Button) hold(stop <-chan struct{}) {
	defer b.wg.Done()

	timer := time.NewTimer(b.cfg.HoldTime)
	defer timer.Stop()

	select {
	case <-stop:
		return
	case <-timer.C:
	}
	if !b.emitHeld(stop) {
		return
	}

	if !b.cfg.HoldRepeat || b.cfg.RepeatInterval <= 0 {
		return
	}

	ticker := time.NewTicker(b.cfg.RepeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !b.emitHeld(stop) {
				return
			}
		}
	}
}

// emitHeld queues Held unless the press that started this timer has ended.
// A tick is skipped while the previous Held is still waiting for the handler.
func (b *Button) emitHeld(stop <-chan struct{}) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	select {
	case <-stop:
		return false
	default:
	}
	if b.heldPending == b.press {
		return true
	}
	b.heldPending = b.press
	b.enqueueLocked(Held)
	return true
}

// next blocks until a signal is queued. It returns false once the button is
// closed and the queue is drained.
func (b *Button) next() (event, func(), bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for {
		for len(b.pending) == 0 {
			if b.closed {
				return event{}, nil, false
			}
			b.mu.Unlock()
			<-b.wake
			b.mu.Lock()
		}

		ev := b.pending[0]
		b.pending = b.pending[1:]
		if ev.sig == Held {
			if b.heldPending == ev.press {
				b.heldPending = 0
			}
			// Held is only delivered while its press is still down
			if !b.pressed || ev.press != b.press {
				continue
			}
		}
		return ev, b.handlers[ev.sig], true
	}
}

func (b *Button) dispatch() {
	defer b.wg.Done()

	for {
		ev, fn, ok := b.next()
		if !ok {
			return
		}
		b.logger.Debug("Button signal", "signal", ev.sig)
		if fn != nil {
			fn()
		}
	}
}
