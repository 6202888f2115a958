package daemon

import (
	"sync"
	"time"

	"github.com/smazurov/ledbuttons/internal/events"
	"github.com/smazurov/ledbuttons/internal/mpd"
)

// ConnectionEvents returns an mpd.Options.OnStateChange callback that
// publishes every transition on the bus.
func ConnectionEvents(bus *events.Bus) func(previous, current mpd.State) {
	return func(previous, current mpd.State) {
		bus.Publish(events.ConnectionStateChangedEvent{
			Previous:  string(previous),
			State:     string(current),
			Timestamp: time.Now().Format(time.RFC3339),
		})
	}
}

// PlaybackEvents returns an mpd.Options.OnStatus callback that publishes
// the playback state whenever it differs from the last one seen.
func PlaybackEvents(bus *events.Bus) func(mpd.Status) {
	var (
		mu   sync.Mutex
		last mpd.PlaybackState
	)
	return func(status mpd.Status) {
		mu.Lock()
		changed := status.State != last
		last = status.State
		mu.Unlock()

		if !changed {
			return
		}
		bus.Publish(events.PlaybackStateChangedEvent{
			State:     string(status.State),
			Playing:   status.Playing(),
			Timestamp: time.Now().Format(time.RFC3339),
		})
	}
}
