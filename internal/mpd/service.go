package mpd

// Default endpoint of a local MPD install.
const (
	DefaultNetwork = "unix"
	DefaultAddress = "/var/run/mpd/socket"
)

// Endpoint locates the MPD server.
type Endpoint struct {
	Network  string // "unix" or "tcp"
	Address  string // socket path or host:port
	Password string
}

// PlaybackState is the player state reported by MPD.
type PlaybackState string

// Player states.
const (
	PlaybackPlay  PlaybackState = "play"
	PlaybackPause PlaybackState = "pause"
	PlaybackStop  PlaybackState = "stop"
)

// Status is the subset of the MPD status the daemon uses.
type Status struct {
	State  PlaybackState
	Volume int // -1 when MPD has no mixer
}

// Playing reports whether playback is running.
func (s Status) Playing() bool {
	return s.State == PlaybackPlay
}

// Service is a synchronous command/response connection to MPD.
// Implementations are not safe for concurrent use; Manager serializes calls.
type Service interface {
	// Connect opens a connection. Fails with ErrServiceUnreachable.
	Connect(Endpoint) error

	// Disconnect closes the connection. Fails with ErrNotConnected when
	// there is nothing to close.
	Disconnect() error

	Status() (Status, error)
	Play() error
	Pause() error

	// Next skips to the next song. Fails with ErrNotPlaying when stopped.
	Next() error

	// Volume changes the volume by delta, saturating at 0 and 100.
	Volume(delta int) error
}
