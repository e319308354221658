package session

import (
	"time"

	"github.com/mockmate/rehearse/internal/adapters/transcribe"
	"github.com/mockmate/rehearse/pkg/logger"
)

// Option applies a configuration option to the Controller.
type Option func(*Controller)

// WithQueueSize bounds the session's event queue.
func WithQueueSize(size int) Option {
	return func(c *Controller) {
		if size > 0 {
			c.queueSize = size
		}
	}
}

// WithTickInterval overrides the one-second countdown interval.
// Shorter intervals are used by tests to compress time.
func WithTickInterval(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.tickInterval = d
		}
	}
}

// WithTranscriptionSource sets the transcription source for the
// session. Defaults to the unavailable source, which surfaces its
// absence once at activation without blocking typed input.
func WithTranscriptionSource(src transcribe.Source) Option {
	return func(c *Controller) {
		if src != nil {
			c.source = src
		}
	}
}

// WithLogger sets a custom logger for the controller.
func WithLogger(log logger.Logger) Option {
	return func(c *Controller) {
		if log != nil {
			c.log = log
		}
	}
}
