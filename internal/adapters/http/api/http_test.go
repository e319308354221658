package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	service "github.com/mockmate/rehearse/internal/app"
	"github.com/mockmate/rehearse/internal/domain/model"
	"github.com/mockmate/rehearse/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type stubEval struct{}

func (stubEval) StartSession(context.Context, string) (model.Question, error) {
	return model.Question{
		ID:               "q-1",
		Text:             "Explain eventual consistency.",
		Difficulty:       model.DifficultyEasy,
		AllocatedSeconds: 300,
		Ordinal:          1,
	}, nil
}

func (stubEval) SubmitAnswer(context.Context, string, string, string, int) (model.SubmissionResult, error) {
	return model.SubmissionResult{
		Score:    72,
		Feedback: "solid",
		Outcome:  model.OutcomeCompleted,
	}, nil
}

func (stubEval) SaveDraft(context.Context, string, string, string) error { return nil }

func newTestServer(t *testing.T) (*httptest.Server, *service.Service) {
	t.Helper()
	svc := service.New(
		service.WithEvaluationClient(stubEval{}),
		service.WithDraftDir(t.TempDir()),
		service.WithTickInterval(time.Hour),
		service.WithTranscription(true),
	)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start service: %v", err)
	}
	srv := httptest.NewServer(NewServer(svc).Router())
	t.Cleanup(func() {
		srv.Close()
		svc.Stop()
	})
	return srv, svc
}

func createSession(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	resp, err := http.Post(srv.URL+"/sessions", "application/json", nil)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create session: got status %d", resp.StatusCode)
	}
	var body createSessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if body.SessionID == "" {
		t.Fatal("create session: empty session id")
	}
	return body.SessionID
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, []byte) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	var out bytes.Buffer
	_, _ = out.ReadFrom(resp.Body)
	return resp, out.Bytes()
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/healthz", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("got status %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), `"ok"`) {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestSessionFlow(t *testing.T) {
	srv, _ := newTestServer(t)
	id := createSession(t, srv)
	base := srv.URL + "/sessions/" + id

	resp, body := doJSON(t, http.MethodPost, base+"/start", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start: got status %d, body %s", resp.StatusCode, body)
	}
	var snap model.Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.Status != model.StatusActive {
		t.Fatalf("after start: status %q", snap.Status)
	}
	if snap.Question == nil || snap.Question.ID != "q-1" {
		t.Fatalf("after start: question %+v", snap.Question)
	}

	resp, _ = doJSON(t, http.MethodPut, base+"/answer", editAnswerRequest{Text: "Reads converge over time."})
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("edit answer: got status %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodPost, base+"/draft", nil)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("draft save: got status %d", resp.StatusCode)
	}

	resp, body = doJSON(t, http.MethodPost, base+"/submit", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("submit: got status %d, body %s", resp.StatusCode, body)
	}
	if err := json.Unmarshal(body, &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.Status != model.StatusFeedback {
		t.Fatalf("after submit: status %q", snap.Status)
	}
	if snap.Result == nil || snap.Result.Score != 72 {
		t.Fatalf("after submit: result %+v", snap.Result)
	}

	resp, body = doJSON(t, http.MethodPost, base+"/feedback/ack", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("ack: got status %d", resp.StatusCode)
	}
	if err := json.Unmarshal(body, &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.Status != model.StatusCompleted {
		t.Fatalf("after ack: status %q", snap.Status)
	}

	resp, body = doJSON(t, http.MethodGet, base+"/records", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("records: got status %d", resp.StatusCode)
	}
	var records []model.QuestionRecord
	if err := json.Unmarshal(body, &records); err != nil {
		t.Fatalf("decode records: %v", err)
	}
	if len(records) != 1 || records[0].Answer != "Reads converge over time." {
		t.Fatalf("records %+v", records)
	}
}

func TestErrorStatuses(t *testing.T) {
	srv, _ := newTestServer(t)
	id := createSession(t, srv)
	base := srv.URL + "/sessions/" + id

	for _, tc := range []struct {
		name   string
		method string
		url    string
		want   int
	}{
		{"unknown session", http.MethodGet, srv.URL + "/sessions/nope", http.StatusNotFound},
		{"submit before start", http.MethodPost, base + "/submit", http.StatusConflict},
		{"ack before feedback", http.MethodPost, base + "/feedback/ack", http.StatusConflict},
	} {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := doJSON(t, tc.method, tc.url, nil)
			if resp.StatusCode != tc.want {
				t.Fatalf("got status %d want %d, body %s", resp.StatusCode, tc.want, body)
			}
		})
	}
}

func TestDeleteSession(t *testing.T) {
	srv, _ := newTestServer(t)
	id := createSession(t, srv)

	resp, _ := doJSON(t, http.MethodDelete, srv.URL+"/sessions/"+id, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete: got status %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/sessions/"+id, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get after delete: got status %d", resp.StatusCode)
	}
}

func TestMalformedEditBody(t *testing.T) {
	srv, _ := newTestServer(t)
	id := createSession(t, srv)

	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/sessions/"+id+"/answer", strings.NewReader("{not json"))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("got status %d", resp.StatusCode)
	}
}

func TestEventStream(t *testing.T) {
	srv, _ := newTestServer(t)
	id := createSession(t, srv)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/sessions/" + id + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial events: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var snap model.Snapshot
	if err := conn.ReadJSON(&snap); err != nil {
		t.Fatalf("read initial snapshot: %v", err)
	}
	if snap.Status != model.StatusIdle {
		t.Fatalf("initial snapshot: status %q", snap.Status)
	}

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/sessions/"+id+"/start", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start: got status %d, body %s", resp.StatusCode, body)
	}

	// Start publishes AwaitingQuestion then Active; read until Active.
	for {
		if err := conn.ReadJSON(&snap); err != nil {
			t.Fatalf("read update: %v", err)
		}
		if snap.Status == model.StatusActive {
			break
		}
	}
	if snap.Question == nil {
		t.Fatal("active snapshot has no question")
	}
}

func TestTranscriptionStreamFeedsAnswer(t *testing.T) {
	srv, svc := newTestServer(t)
	id := createSession(t, srv)
	base := srv.URL + "/sessions/" + id

	if resp, body := doJSON(t, http.MethodPost, base+"/start", nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("start: got status %d, body %s", resp.StatusCode, body)
	}
	if resp, body := doJSON(t, http.MethodPost, base+"/transcription", nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("toggle transcription: got status %d, body %s", resp.StatusCode, body)
	}

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/sessions/" + id + "/transcription/stream"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial stream: %v", err)
	}
	defer conn.Close()

	for _, frag := range []string{"eventual consistency", "trades freshness for availability"} {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(frag)); err != nil {
			t.Fatalf("write fragment: %v", err)
		}
	}

	sess, err := svc.Session(id)
	if err != nil {
		t.Fatalf("lookup session: %v", err)
	}
	want := "eventual consistency trades freshness for availability"
	deadline := time.Now().Add(5 * time.Second)
	for {
		if sess.Controller.Snapshot().Answer == want {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("answer never reached %q, got %q", want, sess.Controller.Snapshot().Answer)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestStatsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	createSession(t, srv)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/stats", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("got status %d", resp.StatusCode)
	}
	var stats map[string]interface{}
	if err := json.Unmarshal(body, &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if fmt.Sprintf("%v", stats["sessions"]) != "1" {
		t.Fatalf("stats %+v", stats)
	}
}
