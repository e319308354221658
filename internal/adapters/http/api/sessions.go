package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mockmate/rehearse/pkg/logger"
)

type createSessionResponse struct {
	SessionID string `json:"session_id"`
}

type editAnswerRequest struct {
	Text string `json:"text"`
}

type statusResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Stats())
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	id, err := s.deps.CreateSession(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	s.log.Info(r.Context(), "session created", logger.String("session_id", id))
	writeJSON(w, http.StatusCreated, createSessionResponse{SessionID: id})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	sess, err := s.deps.Session(mux.Vars(r)["sessionID"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Controller.Snapshot())
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["sessionID"]
	if err := s.deps.RemoveSession(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	s.log.Info(r.Context(), "session removed", logger.String("session_id", id))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	sess, err := s.deps.Session(mux.Vars(r)["sessionID"])
	if err != nil {
		writeError(w, err)
		return
	}
	if err := sess.Controller.Start(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Controller.Snapshot())
}

func (s *Server) handleEditAnswer(w http.ResponseWriter, r *http.Request) {
	sess, err := s.deps.Session(mux.Vars(r)["sessionID"])
	if err != nil {
		writeError(w, err)
		return
	}
	var req editAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Code: "bad_request", Message: "malformed body"})
		return
	}
	if err := sess.Controller.EditAnswer(r.Context(), req.Text); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleToggleTranscription(w http.ResponseWriter, r *http.Request) {
	sess, err := s.deps.Session(mux.Vars(r)["sessionID"])
	if err != nil {
		writeError(w, err)
		return
	}
	if err := sess.Controller.ToggleTranscription(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Controller.Snapshot())
}

func (s *Server) handleDraftSave(w http.ResponseWriter, r *http.Request) {
	sess, err := s.deps.Session(mux.Vars(r)["sessionID"])
	if err != nil {
		writeError(w, err)
		return
	}
	if err := sess.Controller.RequestDraftSave(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, statusResponse{Status: "saving"})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	sess, err := s.deps.Session(mux.Vars(r)["sessionID"])
	if err != nil {
		writeError(w, err)
		return
	}
	if err := sess.Controller.SubmitNow(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Controller.Snapshot())
}

func (s *Server) handleFeedbackAck(w http.ResponseWriter, r *http.Request) {
	sess, err := s.deps.Session(mux.Vars(r)["sessionID"])
	if err != nil {
		writeError(w, err)
		return
	}
	if err := sess.Controller.AcknowledgeFeedback(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Controller.Snapshot())
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	sess, err := s.deps.Session(mux.Vars(r)["sessionID"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Controller.Records())
}
