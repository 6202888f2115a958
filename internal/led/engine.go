package led

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// EngineOptions configures an Engine.
type EngineOptions struct {
	// FPS is the frame rate. Defaults to DefaultFPS.
	FPS int

	// OnError is called once when an LED write fails. Device errors are fatal
	// to the session that hit them and are never retried.
	OnError func(error)

	// OnFrame is called after every frame written, with the animation name.
	OnFrame func(animation string)

	// Logger for engine operations. If nil, uses slog.Default().
	Logger *slog.Logger
}

// session is one playing animation. It owns the LEDs whose owner slot holds
// its id and ends when its context is cancelled.
type session struct {
	id     uint64
	name   string
	ctx    context.Context
	cancel context.CancelFunc
}

// Engine plays animations on a Controller. At most one session is live;
// Play preempts the previous one and takes over its LEDs before the new
// session writes anything.
type Engine struct {
	controller Controller
	clock      Clock
	logger     *slog.Logger
	onError    func(error)
	onFrame    func(string)

	mu      sync.Mutex
	owners  []uint64  // per-LED session id, 0 = unclaimed
	values  []float64 // last value written per LED
	current *session
	nextID  uint64

	wg sync.WaitGroup
}

// NewEngine creates an engine driving controller.
func NewEngine(controller Controller, opts EngineOptions) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	n := controller.Len()
	return &Engine{
		controller: controller,
		clock:      NewClock(opts.FPS),
		logger:     logger,
		onError:    opts.OnError,
		onFrame:    opts.OnFrame,
		owners:     make([]uint64, n),
		values:     make([]float64, n),
	}
}

// Len returns the number of LEDs driven by the engine.
func (e *Engine) Len() int {
	return len(e.owners)
}

// FPS returns the engine frame rate.
func (e *Engine) FPS() int {
	return e.clock.FPS
}

// Play starts anim, repeated repeat times (Forever for unbounded), and returns
// immediately. Any running animation is cancelled and its LED claims move to
// the new session atomically.
func (e *Engine) Play(anim Animation, repeat int) {
	e.mu.Lock()
	e.stopLocked()

	e.nextID++
	ctx, cancel := context.WithCancel(context.Background())
	s := &session{
		id:     e.nextID,
		name:   anim.Name,
		ctx:    ctx,
		cancel: cancel,
	}
	for i := range e.owners {
		e.owners[i] = s.id
	}
	e.current = s
	e.wg.Add(1)
	e.mu.Unlock()

	e.logger.Debug("Animation started", "animation", anim.Name, "session", s.id, "repeat", repeat)
	go e.run(s, anim, repeat)
}

// Stop ends the active session after its current frame. Safe to call when idle.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLocked()
}

// Wait blocks until every session goroutine has exited.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// playing returns the name of the active animation, if any.
func (e *Engine) playing() (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil {
		return "", false
	}
	return e.current.name, true
}

// lastFrame returns a copy of the last brightness written to each LED.
func (e *Engine) lastFrame() Frame {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(Frame, len(e.values))
	copy(out, e.values)
	return out
}

// Close stops playback, turns every LED off and closes the controller.
func (e *Engine) Close() error {
	e.Stop()
	e.Wait()

	e.mu.Lock()
	var errs []error
	for i := range e.values {
		if err := e.controller.Write(i, 0); err != nil {
			errs = append(errs, err)
			continue
		}
		e.values[i] = 0
	}
	e.mu.Unlock()

	if err := e.controller.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// stopLocked cancels the current session and releases its LEDs (must hold lock).
func (e *Engine) stopLocked() {
	if e.current == nil {
		return
	}
	e.current.cancel()
	e.releaseLocked(e.current.id)
	e.current = nil
}

func (e *Engine) releaseLocked(id uint64) {
	for i, owner := range e.owners {
		if owner == id {
			e.owners[i] = 0
		}
	}
}

// finish clears the session if it is still current (natural end of playback).
func (e *Engine) finish(s *session) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.releaseLocked(s.id)
	if e.current == s {
		e.current = nil
	}
}

func (e *Engine) run(s *session, anim Animation, repeat int) {
	defer e.wg.Done()
	defer s.cancel()
	defer e.finish(s)

	ticker := e.clock.Ticker()
	defer ticker.Stop()

	for pass := 0; repeat == Forever || pass < repeat; pass++ {
		emitted := 0
		for frame := range anim.Frames {
			owned, err := e.write(s, anim.Blend, frame)
			if err != nil {
				e.logger.Error("LED write failed", "animation", s.name, "session", s.id, "error", err)
				if e.onError != nil {
					e.onError(err)
				}
				return
			}
			if !owned {
				return
			}
			emitted++
			if e.onFrame != nil {
				e.onFrame(s.name)
			}

			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
			}
		}
		if emitted == 0 {
			return
		}
	}

	e.logger.Debug("Animation finished", "animation", s.name, "session", s.id)
}

// write applies one frame to the LEDs the session still owns. It reports
// false once the session is cancelled or owns nothing.
func (e *Engine) write(s *session, blend Blend, frame Frame) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if s.ctx.Err() != nil {
		return false, nil
	}

	owned := false
	for i, v := range frame {
		if i >= len(e.owners) {
			break
		}
		if e.owners[i] != s.id {
			continue
		}
		owned = true

		v = clamp(v)
		if blend == BlendRaise && v <= e.values[i] {
			continue
		}
		if err := e.controller.Write(i, v); err != nil {
			return false, fmt.Errorf("write LED %d: %w", i, err)
		}
		e.values[i] = v
	}
	return owned, nil
}
