package hass

import "fmt"

// TransportError wraps a failed request or channel exchange with the
// upstream Home Assistant host.
type TransportError struct {
	Op     string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("hass: %s failed with status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("hass: %s failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// AuthError signals a rejected WebSocket authentication handshake. It is
// fatal for the channel it occurred on.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("hass: authentication failed: %s", e.Reason)
}
