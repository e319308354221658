package evaluation

import "errors"

// Sentinel kinds for evaluation boundary errors. Callers classify
// failures with errors.Is.
var (
	// ErrServiceUnavailable marks transport failures and server-side
	// errors. Recovered by a single automatic submit retry.
	ErrServiceUnavailable = errors.New("evaluation service unavailable")

	// ErrValidationRejected marks input the service refuses. Never
	// retried automatically.
	ErrValidationRejected = errors.New("evaluation service rejected input")
)
