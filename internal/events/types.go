package events

// Event type constants for kelindar/event.
const (
	TypeConnectionStateChanged uint32 = iota + 1
	TypePlaybackStateChanged
	TypeButtonAction
	TypeDeviceError
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// ConnectionStateChangedEvent is published on every transition of the MPD connection.
type ConnectionStateChangedEvent struct {
	Previous  string `json:"previous"`
	State     string `json:"state"`
	Timestamp string `json:"timestamp"`
}

// Type returns the event type identifier for ConnectionStateChangedEvent.
func (e ConnectionStateChangedEvent) Type() uint32 { return TypeConnectionStateChanged }

// PlaybackStateChangedEvent is published when the cached play/pause state flips.
type PlaybackStateChangedEvent struct {
	State     string `json:"state"`
	Playing   bool   `json:"playing"`
	Timestamp string `json:"timestamp"`
}

// Type returns the event type identifier for PlaybackStateChangedEvent.
func (e PlaybackStateChangedEvent) Type() uint32 { return TypePlaybackStateChanged }

// ButtonActionEvent records a semantic action triggered by a button gesture.
type ButtonActionEvent struct {
	Button    string `json:"button"`
	Signal    string `json:"signal"`
	Action    string `json:"action"`
	Timestamp string `json:"timestamp"`
}

// Type returns the event type identifier for ButtonActionEvent.
func (e ButtonActionEvent) Type() uint32 { return TypeButtonAction }

// DeviceErrorEvent is published when an LED or button device fails.
// Device errors are fatal; the event exists so observers can record them before exit.
type DeviceErrorEvent struct {
	Device    string `json:"device"`
	Error     string `json:"error"`
	Timestamp string `json:"timestamp"`
}

// Type returns the event type identifier for DeviceErrorEvent.
func (e DeviceErrorEvent) Type() uint32 { return TypeDeviceError }
