package mpd

import (
	"errors"
	"fmt"
	"net/textproto"
	"strconv"
	"strings"

	"github.com/fhs/gompd/v2/mpd"
)

// Client implements Service on top of gompd.
type Client struct {
	conn *mpd.Client
}

// NewClient returns a disconnected client.
func NewClient() *Client {
	return &Client{}
}

// Connect dials the endpoint, authenticating when a password is set.
func (c *Client) Connect(ep Endpoint) error {
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}

	network := ep.Network
	if network == "" {
		network = DefaultNetwork
	}

	var (
		conn *mpd.Client
		err  error
	)
	if ep.Password != "" {
		conn, err = mpd.DialAuthenticated(network, ep.Address, ep.Password)
	} else {
		conn, err = mpd.Dial(network, ep.Address)
	}
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrServiceUnreachable, network, ep.Address, err)
	}
	c.conn = conn
	return nil
}

// Disconnect closes the connection.
func (c *Client) Disconnect() error {
	if c.conn == nil {
		return ErrNotConnected
	}
	err := c.conn.Close()
	c.conn = nil
	if err != nil {
		return mapError("close", err)
	}
	return nil
}

// Status fetches the player state and volume.
func (c *Client) Status() (Status, error) {
	if c.conn == nil {
		return Status{}, ErrNotConnected
	}
	attrs, err := c.conn.Status()
	if err != nil {
		return Status{}, mapError("status", err)
	}
	return parseStatus(attrs)
}

// Play resumes or starts playback at the current song.
func (c *Client) Play() error {
	if c.conn == nil {
		return ErrNotConnected
	}
	return mapError("play", c.conn.Play(-1))
}

// Pause pauses playback.
func (c *Client) Pause() error {
	if c.conn == nil {
		return ErrNotConnected
	}
	return mapError("pause", c.conn.Pause(true))
}

// Next skips to the next song.
func (c *Client) Next() error {
	if c.conn == nil {
		return ErrNotConnected
	}
	return mapError("next", c.conn.Next())
}

// Volume reads the current volume and sets it to volume+delta.
func (c *Client) Volume(delta int) error {
	status, err := c.Status()
	if err != nil {
		return err
	}
	if status.Volume < 0 {
		return fmt.Errorf("%w: volume: no mixer", ErrCommand)
	}
	volume := min(max(status.Volume+delta, 0), 100)
	return mapError("setvol", c.conn.SetVolume(volume))
}

func parseStatus(attrs mpd.Attrs) (Status, error) {
	state, ok := attrs["state"]
	if !ok {
		return Status{}, fmt.Errorf("%w: status without state", ErrMalformedResponse)
	}

	status := Status{State: PlaybackState(state), Volume: -1}
	switch status.State {
	case PlaybackPlay, PlaybackPause, PlaybackStop:
	default:
		return Status{}, fmt.Errorf("%w: unknown state %q", ErrMalformedResponse, state)
	}

	if v, ok := attrs["volume"]; ok {
		volume, err := strconv.Atoi(v)
		if err != nil {
			return Status{}, fmt.Errorf("%w: volume %q", ErrMalformedResponse, v)
		}
		status.Volume = volume
	}
	return status, nil
}

// mapError sorts gompd errors into the package error categories. Errors MPD
// reports with ACK are command errors; everything else means the connection
// is no longer usable.
func mapError(command string, err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(strings.ToLower(err.Error()), "not playing") {
		return fmt.Errorf("%w: %s", ErrNotPlaying, command)
	}

	var ack mpd.Error
	var ackPtr *mpd.Error
	switch {
	case errors.As(err, &ack):
		return fmt.Errorf("%w: %s: %s", ErrCommand, command, ack.Message)
	case errors.As(err, &ackPtr) && ackPtr != nil:
		return fmt.Errorf("%w: %s: %s", ErrCommand, command, ackPtr.Message)
	}

	var proto textproto.ProtocolError
	if errors.As(err, &proto) {
		if strings.Contains(string(proto), "ACK [") {
			return fmt.Errorf("%w: %s: %v", ErrCommand, command, err)
		}
		return fmt.Errorf("%w: %s: %v", ErrMalformedResponse, command, err)
	}
	return fmt.Errorf("%w: %s: %v", ErrConnectionLost, command, err)
}
