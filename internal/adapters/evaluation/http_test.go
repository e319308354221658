package evaluation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mockmate/rehearse/internal/domain/model"
)

func TestHTTPClient_StartSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/interviews/s1/start" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		_ = json.NewEncoder(w).Encode(model.Question{
			ID:               "q1",
			Text:             "Describe a cache invalidation strategy.",
			Difficulty:       model.DifficultyEasy,
			AllocatedSeconds: 60,
			Ordinal:          1,
		})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL)
	q, err := c.StartSession(context.Background(), "s1")
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if q.ID != "q1" || q.AllocatedSeconds != 60 || q.Difficulty != model.DifficultyEasy {
		t.Errorf("unexpected question: %+v", q)
	}
}

func TestHTTPClient_SubmitAnswer_Next(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/interviews/s1/questions/q1/answer" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req submitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.AnswerText != "caching" || req.TimeTaken != 42 {
			t.Errorf("unexpected request %+v", req)
		}
		_ = json.NewEncoder(w).Encode(submitResponse{
			Question:         &model.Question{ID: "q2", Ordinal: 2, AllocatedSeconds: 120},
			PreviousScore:    40,
			PreviousFeedback: "shallow but correct",
		})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL)
	res, err := c.SubmitAnswer(context.Background(), "s1", "q1", "caching", 42)
	if err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	if res.Outcome != model.OutcomeNext || res.Next == nil || res.Next.ID != "q2" {
		t.Errorf("unexpected result %+v", res)
	}
	if res.Score != 40 || res.Feedback != "shallow but correct" {
		t.Errorf("score/feedback not mapped: %+v", res)
	}
}

func TestHTTPClient_SubmitAnswer_TerminalFlags(t *testing.T) {
	cases := []struct {
		name string
		resp submitResponse
		want model.Outcome
	}{
		{"terminated", submitResponse{Terminated: true, PreviousScore: 10}, model.OutcomeTerminated},
		{"completed", submitResponse{Completed: true, PreviousScore: 80}, model.OutcomeCompleted},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(tc.resp)
			}))
			defer srv.Close()

			c := NewHTTPClient(srv.URL)
			res, err := c.SubmitAnswer(context.Background(), "s1", "q1", "x", 1)
			if err != nil {
				t.Fatalf("SubmitAnswer: %v", err)
			}
			if res.Outcome != tc.want {
				t.Errorf("outcome = %q, want %q", res.Outcome, tc.want)
			}
		})
	}
}

func TestHTTPClient_ErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		status int
		want   error
	}{
		{"server error", http.StatusInternalServerError, ErrServiceUnavailable},
		{"bad gateway", http.StatusBadGateway, ErrServiceUnavailable},
		{"unprocessable", http.StatusUnprocessableEntity, ErrValidationRejected},
		{"bad request", http.StatusBadRequest, ErrValidationRejected},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tc.status)
			}))
			defer srv.Close()

			c := NewHTTPClient(srv.URL)
			_, err := c.SubmitAnswer(context.Background(), "s1", "q1", "x", 1)
			if !errors.Is(err, tc.want) {
				t.Errorf("error = %v, want errors.Is(..., %v)", err, tc.want)
			}
		})
	}
}

func TestHTTPClient_TransportFailureIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse all connections

	c := NewHTTPClient(srv.URL)
	_, err := c.StartSession(context.Background(), "s1")
	if !errors.Is(err, ErrServiceUnavailable) {
		t.Errorf("error = %v, want ErrServiceUnavailable", err)
	}
}

func TestHTTPClient_SaveDraft(t *testing.T) {
	var got draftRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/interviews/s1/save-draft" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_ = json.NewEncoder(w).Encode(map[string]bool{"success": true})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL)
	if err := c.SaveDraft(context.Background(), "s1", "q1", "partial"); err != nil {
		t.Fatalf("SaveDraft: %v", err)
	}
	if got.QuestionID != "q1" || got.DraftAnswer != "partial" {
		t.Errorf("unexpected payload %+v", got)
	}
}
