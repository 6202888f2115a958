package mpd

import (
	"context"
	"errors"
)

var (
	// ErrServiceUnreachable is returned when the endpoint is missing or refuses connections.
	ErrServiceUnreachable = errors.New("mpd unreachable")

	// ErrConnectionLost is returned when an established connection breaks.
	ErrConnectionLost = errors.New("mpd connection lost")

	// ErrMalformedResponse is returned for partial or unparsable replies.
	ErrMalformedResponse = errors.New("malformed mpd response")

	// ErrNotConnected is returned by calls made without a connection.
	ErrNotConnected = errors.New("not connected to mpd")

	// ErrNotPlaying is returned by Next when nothing is playing.
	ErrNotPlaying = errors.New("not playing")

	// ErrCommand wraps errors MPD reported for a valid command.
	ErrCommand = errors.New("mpd command failed")
)

// Outcome classifies the result of a service call.
type Outcome int

const (
	Success Outcome = iota
	TransientFailure
	PermanentFailure
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case TransientFailure:
		return "transient"
	default:
		return "permanent"
	}
}

// Classify maps a call error to its outcome. Transient failures are worth
// one reconnect and retry; anything else is returned to the caller as is.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return Success
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return PermanentFailure
	case errors.Is(err, ErrConnectionLost),
		errors.Is(err, ErrMalformedResponse),
		errors.Is(err, ErrNotConnected),
		errors.Is(err, ErrServiceUnreachable):
		return TransientFailure
	default:
		return PermanentFailure
	}
}
