// Package daemon wires buttons, LEDs and the MPD connection together.
//
// Startup plays the loading sweep, blocks until MPD answers, fades the LEDs
// in and reports readiness to systemd. From then on every button action is
// relayed to MPD and acknowledged with a short LED flash.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/smazurov/ledbuttons/internal/button"
	"github.com/smazurov/ledbuttons/internal/events"
	"github.com/smazurov/ledbuttons/internal/mpd"
)

// Button indices in board order.
const (
	ButtonPlay = iota
	ButtonNext
	ButtonVolumeDown
	ButtonVolumeUp

	ButtonCount
)

// Action names used in logs, events and metrics.
const (
	ActionPlay       = "play"
	ActionPause      = "pause"
	ActionNext       = "next"
	ActionVolumeDown = "volume_down"
	ActionVolumeUp   = "volume_up"
)

// Defaults for Options.
const (
	DefaultVolumeStep      = 5
	DefaultAckDuration     = 200 * time.Millisecond
	DefaultVolumeDownAck   = 100 * time.Millisecond
	DefaultRefreshInterval = 30 * time.Second
)

// Animator drives the LEDs.
type Animator interface {
	Loading()
	Ready()
	Ack(duration time.Duration)
	Close() error
}

// Connection is the resilient MPD connection.
type Connection interface {
	AwaitConnection(ctx context.Context) error
	Call(ctx context.Context, name string, op func(mpd.Service) error) error
	Refresh(ctx context.Context) (mpd.Status, error)
	KeepAlive(ctx context.Context, interval time.Duration)
	LastStatus() mpd.Status
	Close() error
}

// Buttons is the polled button board.
type Buttons interface {
	Button(index int) *button.Button
	Len() int
	Run(ctx context.Context) error
	Close() error
}

// Notifier reports service state to the supervisor.
type Notifier interface {
	Ready()
	Stopping()
	Status(msg string)
	RunWatchdog(ctx context.Context)
}

// Options tunes the daemon behavior.
type Options struct {
	VolumeStep      int
	AckDuration     time.Duration
	VolumeDownAck   time.Duration
	RefreshInterval time.Duration // zero disables the keepalive refresh
}

// DefaultOptions returns the stock behavior.
func DefaultOptions() Options {
	return Options{
		VolumeStep:      DefaultVolumeStep,
		AckDuration:     DefaultAckDuration,
		VolumeDownAck:   DefaultVolumeDownAck,
		RefreshInterval: DefaultRefreshInterval,
	}
}

// Daemon owns every component and the button bindings.
type Daemon struct {
	leds     Animator
	conn     Connection
	buttons  Buttons
	notifier Notifier
	bus      *events.Bus
	logger   *slog.Logger
	opts     Options

	playing    atomic.Bool
	volumeStep atomic.Int64
	fatal      chan error

	runCtx context.Context
	wg     sync.WaitGroup
}

// New creates the daemon and binds the button actions.
func New(leds Animator, conn Connection, buttons Buttons, notifier Notifier, bus *events.Bus, opts Options, logger *slog.Logger) (*Daemon, error) {
	if buttons.Len() < ButtonCount {
		return nil, fmt.Errorf("need %d buttons, board has %d", ButtonCount, buttons.Len())
	}
	if opts.VolumeStep <= 0 {
		opts.VolumeStep = DefaultVolumeStep
	}
	if opts.AckDuration <= 0 {
		opts.AckDuration = DefaultAckDuration
	}
	if opts.VolumeDownAck <= 0 {
		opts.VolumeDownAck = DefaultVolumeDownAck
	}
	if logger == nil {
		logger = slog.Default()
	}

	d := &Daemon{
		leds:     leds,
		conn:     conn,
		buttons:  buttons,
		notifier: notifier,
		bus:      bus,
		logger:   logger,
		opts:     opts,
		fatal:    make(chan error, 1),
		runCtx:   context.Background(),
	}
	d.volumeStep.Store(int64(opts.VolumeStep))
	d.bind()
	return d, nil
}

// SetVolumeStep changes the volume step at runtime.
func (d *Daemon) SetVolumeStep(step int) {
	if step <= 0 {
		return
	}
	if old := d.volumeStep.Swap(int64(step)); old != int64(step) {
		d.logger.Info("Volume step changed", "old", old, "new", step)
	}
}

// Playing returns the cached playback state.
func (d *Daemon) Playing() bool {
	return d.playing.Load()
}

// Fail reports a fatal device error. Run stops and returns it.
func (d *Daemon) Fail(device string, err error) {
	d.logger.Error("Device failure", "device", device, "error", err)
	d.bus.Publish(events.DeviceErrorEvent{
		Device:    device,
		Error:     err.Error(),
		Timestamp: time.Now().Format(time.RFC3339),
	})
	select {
	case d.fatal <- fmt.Errorf("%s: %w", device, err):
	default:
	}
}

// Run performs the startup sequence and dispatches button actions until ctx
// is done or a device fails. It returns nil on a normal shutdown.
func (d *Daemon) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	go func() {
		select {
		case err := <-d.fatal:
			cancel(err)
		case <-ctx.Done():
		}
	}()

	unsubscribe := d.bus.Subscribe(func(e events.PlaybackStateChangedEvent) {
		d.playing.Store(e.Playing)
	})
	defer unsubscribe()

	d.runCtx = ctx

	d.notifier.Status("Waiting for MPD")
	d.leds.Loading()

	if err := d.conn.AwaitConnection(ctx); err != nil {
		return d.shutdown(ctx)
	}
	d.playing.Store(d.conn.LastStatus().Playing())

	d.logger.Info("Start normal operation")
	d.leds.Ready()
	d.notifier.Ready()
	d.notifier.Status("Ready")

	d.spawn(func() { d.notifier.RunWatchdog(ctx) })
	if d.opts.RefreshInterval > 0 {
		d.spawn(func() { d.conn.KeepAlive(ctx, d.opts.RefreshInterval) })
	}
	d.spawn(func() {
		if err := d.buttons.Run(ctx); err != nil {
			d.Fail("buttons", err)
		}
	})

	<-ctx.Done()
	return d.shutdown(ctx)
}

func (d *Daemon) spawn(fn func()) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		fn()
	}()
}

// shutdown releases every component. The returned error is the fatal cause,
// if any.
func (d *Daemon) shutdown(ctx context.Context) error {
	d.notifier.Stopping()
	d.wg.Wait()

	var errs []error
	if err := d.buttons.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := d.conn.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := d.leds.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		d.logger.Warn("Shutdown incomplete", "error", err)
	}

	cause := context.Cause(ctx)
	if errors.Is(cause, context.Canceled) || errors.Is(cause, context.DeadlineExceeded) {
		d.logger.Info("Daemon stopped")
		return nil
	}
	return cause
}
