package transcribe

import "errors"

// Sentinel kinds for transcription source errors.
var (
	ErrUnavailable    = errors.New("transcription capability unavailable")
	ErrAlreadyRunning = errors.New("transcription already running")
	ErrNotRunning     = errors.New("transcription not running")
)
