// Package transcribe abstracts the voice transcription capability: an
// asynchronous producer of recognized-speech text fragments. Fragments
// may overlap or repeat; consumers treat them as append-only and do no
// deduplication.
package transcribe

import "context"

// Source produces transcription fragments while active.
type Source interface {
	// Start activates the source and returns the fragment stream.
	// The channel closes when the source stops. Starting an already
	// running source fails with ErrAlreadyRunning; a platform without
	// the capability fails with ErrUnavailable.
	Start(ctx context.Context) (<-chan string, error)

	// Stop deactivates the source and closes the fragment stream.
	// Stopping an inactive source is a no-op reported as
	// ErrNotRunning.
	Stop() error
}
