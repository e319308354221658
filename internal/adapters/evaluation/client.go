// Package evaluation is the boundary to the external evaluation
// service. Question generation and answer scoring happen on the other
// side of this interface; the session controller only consumes the
// results.
package evaluation

import (
	"context"

	"github.com/mockmate/rehearse/internal/domain/model"
)

// Client exposes the three operations the session controller consumes.
type Client interface {
	// StartSession asks the service for the session's first question.
	// Fails with ErrServiceUnavailable when the service is
	// unreachable; the session stays Idle.
	StartSession(ctx context.Context, sessionID string) (model.Question, error)

	// SubmitAnswer submits a finalized answer and returns the score,
	// feedback, and the session progression outcome. Fails with
	// ErrServiceUnavailable or ErrValidationRejected.
	SubmitAnswer(ctx context.Context, sessionID, questionID, answerText string, elapsedSeconds int) (model.SubmissionResult, error)

	// SaveDraft mirrors a draft to the service. Best effort: callers
	// ignore failures beyond logging.
	SaveDraft(ctx context.Context, sessionID, questionID, text string) error
}
