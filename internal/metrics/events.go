package metrics

import "github.com/smazurov/ledbuttons/internal/events"

// Subscribe feeds bus events into the metrics. It returns the unsubscribe function.
func Subscribe(bus *events.Bus) func() {
	unsubs := []func(){
		bus.Subscribe(func(e events.ConnectionStateChangedEvent) {
			SetConnectionState(e.Previous, e.State)
		}),
		bus.Subscribe(func(e events.PlaybackStateChangedEvent) {
			SetPlaying(e.Playing)
		}),
		bus.Subscribe(func(e events.ButtonActionEvent) {
			RecordButtonAction(e.Button, e.Action)
		}),
		bus.Subscribe(func(e events.DeviceErrorEvent) {
			RecordDeviceError(e.Device)
		}),
	}
	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}
