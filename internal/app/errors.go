package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted         = errors.New("service not started")
	ErrSessionNotFound    = errors.New("session not found")
	ErrNoEvaluationClient = errors.New("no evaluation client configured")
)
