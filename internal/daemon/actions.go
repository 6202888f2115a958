package daemon

import (
	"errors"
	"time"

	"github.com/smazurov/ledbuttons/internal/button"
	"github.com/smazurov/ledbuttons/internal/events"
	"github.com/smazurov/ledbuttons/internal/metrics"
	"github.com/smazurov/ledbuttons/internal/mpd"
)

func (d *Daemon) bind() {
	play := d.buttons.Button(ButtonPlay)
	play.OnPressed(func() { d.toggle(play.Name()) })

	next := d.buttons.Button(ButtonNext)
	next.OnPressed(func() { d.next(next.Name()) })

	down := d.buttons.Button(ButtonVolumeDown)
	down.OnPressed(func() { d.volume(down.Name(), button.Pressed, -1) })
	down.OnHeld(func() { d.volume(down.Name(), button.Held, -2) })

	up := d.buttons.Button(ButtonVolumeUp)
	up.OnPressed(func() { d.volume(up.Name(), button.Pressed, 1) })
	up.OnHeld(func() { d.volume(up.Name(), button.Held, 2) })
}

// toggle pauses when the cached state says playing and plays otherwise.
func (d *Daemon) toggle(name string) {
	action, op := ActionPlay, mpd.Service.Play
	if d.playing.Load() {
		action, op = ActionPause, mpd.Service.Pause
	}
	d.logger.Info("Play/Pause pressed", "action", action)

	err := d.conn.Call(d.runCtx, action, op)
	d.report(name, button.Pressed, action, err)
	d.leds.Ack(d.opts.AckDuration)
	d.refresh()
}

func (d *Daemon) next(name string) {
	d.logger.Info("Next song pressed")

	err := d.conn.Call(d.runCtx, ActionNext, mpd.Service.Next)
	if errors.Is(err, mpd.ErrNotPlaying) {
		d.logger.Info("Not playing, nothing to skip")
		err = nil
	}
	d.report(name, button.Pressed, ActionNext, err)
	d.leds.Ack(d.opts.AckDuration)
	d.refresh()
}

// volume changes the volume by steps times the configured step. Volume
// changes leave the playback state alone, so there is no refresh.
func (d *Daemon) volume(name string, sig button.Signal, steps int) {
	action, ack := ActionVolumeUp, d.opts.AckDuration
	if steps < 0 {
		action, ack = ActionVolumeDown, d.opts.VolumeDownAck
	}
	delta := steps * int(d.volumeStep.Load())
	d.logger.Info("Volume button", "signal", sig, "delta", delta)

	d.leds.Ack(ack)
	err := d.conn.Call(d.runCtx, action, func(s mpd.Service) error {
		return s.Volume(delta)
	})
	d.report(name, sig, action, err)
}

// refresh re-reads the playback state after a command.
func (d *Daemon) refresh() {
	status, err := d.conn.Refresh(d.runCtx)
	if err != nil {
		if d.runCtx.Err() == nil {
			d.logger.Warn("Failed to refresh playback state", "error", err)
		}
		return
	}
	d.playing.Store(status.Playing())
	d.logger.Debug("MPD status", "state", status.State)
}

// report logs a failed call and publishes the action.
func (d *Daemon) report(name string, sig button.Signal, action string, err error) {
	if err != nil && d.runCtx.Err() == nil {
		d.logger.Error("MPD call failed", "button", name, "action", action, "error", err)
		metrics.RecordCallError(action)
	}
	d.bus.Publish(events.ButtonActionEvent{
		Button:    name,
		Signal:    sig.String(),
		Action:    action,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}
