package session

import "errors"

// Sentinel kinds for session controller errors.
var (
	// ErrClosed is returned when an operation reaches a session that
	// no longer accepts events.
	ErrClosed = errors.New("session closed")

	// ErrInvalidState is returned when an operation is not legal in
	// the session's current state.
	ErrInvalidState = errors.New("operation not valid in current session state")

	// ErrQueueFull is returned when the event queue rejects an event
	// under backpressure.
	ErrQueueFull = errors.New("session event queue full")
)
