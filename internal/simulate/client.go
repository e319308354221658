package simulate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mockmate/rehearse/internal/domain/model"
)

// driver talks to a running rehearsed instance over its HTTP API.
type driver struct {
	client  *http.Client
	baseURL string
}

func newDriver(baseURL string, timeout time.Duration) *driver {
	return &driver{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

func (d *driver) do(method, path string, body, out interface{}) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	req, err := http.NewRequest(method, d.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, data)
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}
	return nil
}

func (d *driver) health() error {
	return d.do(http.MethodGet, "/healthz", nil, nil)
}

func (d *driver) createSession() (string, error) {
	var resp struct {
		SessionID string `json:"session_id"`
	}
	if err := d.do(http.MethodPost, "/sessions", nil, &resp); err != nil {
		return "", err
	}
	return resp.SessionID, nil
}

func (d *driver) start(id string) (model.Snapshot, error) {
	var snap model.Snapshot
	err := d.do(http.MethodPost, "/sessions/"+id+"/start", nil, &snap)
	return snap, err
}

func (d *driver) editAnswer(id, text string) error {
	body := struct {
		Text string `json:"text"`
	}{Text: text}
	return d.do(http.MethodPut, "/sessions/"+id+"/answer", body, nil)
}

func (d *driver) saveDraft(id string) error {
	return d.do(http.MethodPost, "/sessions/"+id+"/draft", nil, nil)
}

func (d *driver) submit(id string) (model.Snapshot, error) {
	var snap model.Snapshot
	err := d.do(http.MethodPost, "/sessions/"+id+"/submit", nil, &snap)
	return snap, err
}

func (d *driver) ackFeedback(id string) (model.Snapshot, error) {
	var snap model.Snapshot
	err := d.do(http.MethodPost, "/sessions/"+id+"/feedback/ack", nil, &snap)
	return snap, err
}

func (d *driver) records(id string) ([]model.QuestionRecord, error) {
	var recs []model.QuestionRecord
	err := d.do(http.MethodGet, "/sessions/"+id+"/records", nil, &recs)
	return recs, err
}
