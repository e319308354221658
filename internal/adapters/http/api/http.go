// Package api exposes the session controller to the UI layer over
// HTTP: one route per user action plus websocket streams for state
// changes and transcription ingest.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	service "github.com/mockmate/rehearse/internal/app"
	"github.com/mockmate/rehearse/internal/adapters/evaluation"
	"github.com/mockmate/rehearse/internal/adapters/transcribe"
	"github.com/mockmate/rehearse/internal/session"
	"github.com/mockmate/rehearse/pkg/logger"
)

// Dependencies bundles what the handlers need from the service layer.
type Dependencies interface {
	CreateSession(ctx context.Context) (string, error)
	Session(id string) (*service.Session, error)
	RemoveSession(ctx context.Context, id string) error
	Stats() map[string]interface{}
}

// Server wires HTTP routes for the session API.
type Server struct {
	deps Dependencies
	log  logger.Logger
}

// NewServer creates the API server.
func NewServer(deps Dependencies) *Server {
	return &Server{
		deps: deps,
		log:  logger.Get().Named("api"),
	}
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", Metrics("healthz", s.handleHealth)).Methods(http.MethodGet)
	r.HandleFunc("/stats", Metrics("stats", s.handleStats)).Methods(http.MethodGet)

	r.HandleFunc("/sessions", Metrics("create_session", s.handleCreate)).Methods(http.MethodPost)
	r.HandleFunc("/sessions/{sessionID}", Metrics("get_session", s.handleSnapshot)).Methods(http.MethodGet)
	r.HandleFunc("/sessions/{sessionID}", Metrics("delete_session", s.handleDelete)).Methods(http.MethodDelete)
	r.HandleFunc("/sessions/{sessionID}/start", Metrics("start", s.handleStart)).Methods(http.MethodPost)
	r.HandleFunc("/sessions/{sessionID}/answer", Metrics("edit_answer", s.handleEditAnswer)).Methods(http.MethodPut)
	r.HandleFunc("/sessions/{sessionID}/transcription", Metrics("toggle_transcription", s.handleToggleTranscription)).Methods(http.MethodPost)
	r.HandleFunc("/sessions/{sessionID}/draft", Metrics("save_draft", s.handleDraftSave)).Methods(http.MethodPost)
	r.HandleFunc("/sessions/{sessionID}/submit", Metrics("submit", s.handleSubmit)).Methods(http.MethodPost)
	r.HandleFunc("/sessions/{sessionID}/feedback/ack", Metrics("feedback_ack", s.handleFeedbackAck)).Methods(http.MethodPost)
	r.HandleFunc("/sessions/{sessionID}/records", Metrics("records", s.handleRecords)).Methods(http.MethodGet)

	r.HandleFunc("/sessions/{sessionID}/events", s.handleEvents).Methods(http.MethodGet)
	r.HandleFunc("/sessions/{sessionID}/transcription/stream", s.handleTranscriptionStream).Methods(http.MethodGet)

	return r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// classify maps domain errors onto HTTP statuses.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		return http.StatusNotFound, "session_not_found"
	case errors.Is(err, session.ErrInvalidState):
		return http.StatusConflict, "invalid_state"
	case errors.Is(err, session.ErrClosed):
		return http.StatusGone, "session_closed"
	case errors.Is(err, session.ErrQueueFull):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, evaluation.ErrServiceUnavailable):
		return http.StatusBadGateway, "evaluation_unavailable"
	case errors.Is(err, evaluation.ErrValidationRejected):
		return http.StatusUnprocessableEntity, "validation_rejected"
	case errors.Is(err, transcribe.ErrUnavailable):
		return http.StatusNotImplemented, "transcription_unavailable"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
