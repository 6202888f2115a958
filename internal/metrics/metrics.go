// Package metrics provides Prometheus metrics for buttons, animations and the MPD connection.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var connectionStates = []string{"disconnected", "connecting", "connected"}

var (
	buttonActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledbuttons",
		Subsystem: "buttons",
		Name:      "actions_total",
		Help:      "Button actions dispatched",
	}, []string{"button", "action"})

	animationFrames = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledbuttons",
		Subsystem: "led",
		Name:      "frames_total",
		Help:      "Animation frames written to the LEDs",
	}, []string{"animation"})

	connectionState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "ledbuttons",
		Subsystem: "mpd",
		Name:      "connection_state",
		Help:      "1 for the current MPD connection state, 0 otherwise",
	}, []string{"state"})

	reconnects = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ledbuttons",
		Subsystem: "mpd",
		Name:      "reconnects_total",
		Help:      "Connection attempts started after a lost connection",
	})

	callErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledbuttons",
		Subsystem: "mpd",
		Name:      "call_errors_total",
		Help:      "MPD calls that failed after the retry",
	}, []string{"call"})

	playing = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "ledbuttons",
		Subsystem: "mpd",
		Name:      "playing",
		Help:      "1 while MPD reports playback",
	})

	deviceErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledbuttons",
		Name:      "device_errors_total",
		Help:      "Output or input device failures",
	}, []string{"device"})
)

// RecordButtonAction counts one dispatched action.
func RecordButtonAction(button, action string) {
	buttonActions.WithLabelValues(button, action).Inc()
}

// RecordAnimationFrame counts one written frame.
func RecordAnimationFrame(animation string) {
	animationFrames.WithLabelValues(animation).Inc()
}

// SetConnectionState marks state as the current connection state. Entering
// connecting after a lost connection counts as a reconnect.
func SetConnectionState(previous, state string) {
	for _, s := range connectionStates {
		v := 0.0
		if s == state {
			v = 1
		}
		connectionState.WithLabelValues(s).Set(v)
	}

	if previous == "disconnected" && state == "connecting" {
		reconnects.Inc()
	}
}

// SetPlaying records the playback state.
func SetPlaying(isPlaying bool) {
	v := 0.0
	if isPlaying {
		v = 1
	}
	playing.Set(v)
}

// RecordCallError counts a failed MPD call.
func RecordCallError(call string) {
	callErrors.WithLabelValues(call).Inc()
}

// RecordDeviceError counts a device failure.
func RecordDeviceError(device string) {
	deviceErrors.WithLabelValues(device).Inc()
}
