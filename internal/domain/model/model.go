// Package model contains domain models passed between layers.
package model

import "time"

// Difficulty is the service-assigned tier of a question.
// Tiers are ordered: easy < medium < hard.
type Difficulty string

// Known difficulty tiers.
const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Rank returns the ordinal position of the tier, with unknown tiers
// sorting below easy.
func (d Difficulty) Rank() int {
	switch d {
	case DifficultyEasy:
		return 1
	case DifficultyMedium:
		return 2
	case DifficultyHard:
		return 3
	default:
		return 0
	}
}

// Question is a single interview question as issued by the evaluation
// service. Immutable once issued.
type Question struct {
	ID               string     `json:"id"`
	Text             string     `json:"question_text"`
	Difficulty       Difficulty `json:"difficulty"`
	AllocatedSeconds int        `json:"time_allocated"`
	Ordinal          int        `json:"question_number"`
}

// Outcome is the session progression decision returned by the
// evaluation service alongside the previous question's score.
type Outcome string

// Possible outcomes of a submission.
const (
	OutcomeNext       Outcome = "next"
	OutcomeTerminated Outcome = "terminated"
	OutcomeCompleted  Outcome = "completed"
)

// SubmissionResult is the evaluation service's response to a submitted
// answer. Created by the evaluation client, consumed once by the
// session controller to drive its transition.
type SubmissionResult struct {
	Score    float64   `json:"previous_score"`
	Feedback string    `json:"previous_feedback"`
	Outcome  Outcome   `json:"outcome"`
	Next     *Question `json:"question,omitempty"`
}

// Draft is a persisted snapshot of an answer in progress. At most one
// exists per question id; a newer save supersedes it and a successful
// submission removes it.
type Draft struct {
	QuestionID string    `json:"question_id"`
	Text       string    `json:"text"`
	Seq        uint64    `json:"seq"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// QuestionRecord is the retained record of an answered question.
type QuestionRecord struct {
	Question       Question `json:"question"`
	Answer         string   `json:"answer"`
	ElapsedSeconds int      `json:"elapsed_seconds"`
	Score          float64  `json:"score"`
	Feedback       string   `json:"feedback"`
}

// Status is the lifecycle state of a session.
type Status string

// Session lifecycle states.
const (
	StatusIdle             Status = "idle"
	StatusAwaitingQuestion Status = "awaiting_question"
	StatusActive           Status = "active"
	StatusSubmitting       Status = "submitting"
	StatusFeedback         Status = "feedback"
	StatusTerminated       Status = "terminated"
	StatusCompleted        Status = "completed"
)

// Terminal reports whether the session is closed for writes.
func (s Status) Terminal() bool {
	return s == StatusTerminated || s == StatusCompleted
}

// SubmitTrigger identifies what caused a submission.
type SubmitTrigger string

// Submission triggers.
const (
	TriggerManual   SubmitTrigger = "manual"
	TriggerDeadline SubmitTrigger = "deadline"
)

// Snapshot is the read-only view of a session published to the UI
// layer. The controller is the sole writer of the underlying state.
type Snapshot struct {
	SessionID        string            `json:"session_id"`
	Status           Status            `json:"status"`
	Question         *Question         `json:"question,omitempty"`
	RemainingSeconds int               `json:"remaining_seconds"`
	Answer           string            `json:"answer"`
	SubmitInFlight   bool              `json:"submit_in_flight"`
	Transcribing     bool              `json:"transcribing"`
	Result           *SubmissionResult `json:"result,omitempty"`
	LastError        string            `json:"last_error,omitempty"`
	AnsweredCount    int               `json:"answered_count"`
	MeanScore        float64           `json:"mean_score"`
}
