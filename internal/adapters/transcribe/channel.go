package transcribe

import (
	"context"
	"sync"
)

const defaultFragmentBuffer = 64

// ChannelSource is a Source fed externally through Push, typically by
// a websocket carrying fragments recognized on the client device.
type ChannelSource struct {
	mu      sync.Mutex
	running bool
	out     chan string
	buffer  int
}

// ChannelOption applies a configuration option to the ChannelSource.
type ChannelOption func(*ChannelSource)

// WithFragmentBuffer sets the fragment channel buffer size.
func WithFragmentBuffer(n int) ChannelOption {
	return func(s *ChannelSource) {
		if n > 0 {
			s.buffer = n
		}
	}
}

// NewChannelSource creates an inactive source.
func NewChannelSource(opts ...ChannelOption) *ChannelSource {
	s := &ChannelSource{buffer: defaultFragmentBuffer}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start activates the source.
func (s *ChannelSource) Start(ctx context.Context) (<-chan string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil, ErrAlreadyRunning
	}
	s.out = make(chan string, s.buffer)
	s.running = true
	return s.out, nil
}

// Stop deactivates the source and closes the fragment stream.
func (s *ChannelSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return ErrNotRunning
	}
	s.running = false
	close(s.out)
	s.out = nil
	return nil
}

// Push delivers a fragment to the stream. Fragments pushed while the
// source is inactive are dropped; the return value reports delivery.
func (s *ChannelSource) Push(fragment string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return false
	}
	select {
	case s.out <- fragment:
		return true
	default:
		return false
	}
}

// Unavailable is the Source used when the running platform has no
// transcription capability. Activation fails once with ErrUnavailable
// and never blocks typed input.
type Unavailable struct{}

// NewUnavailable returns the capability-absent source.
func NewUnavailable() Unavailable { return Unavailable{} }

// Start always fails with ErrUnavailable.
func (Unavailable) Start(ctx context.Context) (<-chan string, error) {
	return nil, ErrUnavailable
}

// Stop is a no-op reported as ErrNotRunning.
func (Unavailable) Stop() error { return ErrNotRunning }
