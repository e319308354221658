package evaluation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/mockmate/rehearse/internal/domain/model"
)

const defaultTimeout = 30 * time.Second

// HTTPClient implements Client against the evaluation service's REST
// API.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// HTTPOption applies a configuration option to the HTTPClient.
type HTTPOption func(*HTTPClient)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) HTTPOption {
	return func(c *HTTPClient) {
		if d > 0 {
			c.client.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) HTTPOption {
	return func(c *HTTPClient) {
		if hc != nil {
			c.client = hc
		}
	}
}

// NewHTTPClient creates a client for the service at baseURL, e.g.
// "http://localhost:8001/api".
func NewHTTPClient(baseURL string, opts ...HTTPOption) *HTTPClient {
	c := &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// submitRequest mirrors the service's answer submission schema.
type submitRequest struct {
	AnswerText string `json:"answer_text"`
	TimeTaken  int    `json:"time_taken"`
}

// submitResponse mirrors the service's answer submission response.
type submitResponse struct {
	Question         *model.Question `json:"question"`
	PreviousScore    float64         `json:"previous_score"`
	PreviousFeedback string          `json:"previous_feedback"`
	Terminated       bool            `json:"terminated"`
	Completed        bool            `json:"completed"`
}

type draftRequest struct {
	QuestionID  string `json:"question_id"`
	DraftAnswer string `json:"draft_answer"`
}

// StartSession begins the interview and returns the first question.
func (c *HTTPClient) StartSession(ctx context.Context, sessionID string) (model.Question, error) {
	url := fmt.Sprintf("%s/interviews/%s/start", c.baseURL, sessionID)

	var q model.Question
	if err := c.post(ctx, url, nil, &q); err != nil {
		return model.Question{}, errors.Wrap(err, "start session")
	}
	return q, nil
}

// SubmitAnswer submits the finalized answer and maps the response to
// a SubmissionResult.
func (c *HTTPClient) SubmitAnswer(ctx context.Context, sessionID, questionID, answerText string, elapsedSeconds int) (model.SubmissionResult, error) {
	url := fmt.Sprintf("%s/interviews/%s/questions/%s/answer", c.baseURL, sessionID, questionID)
	req := submitRequest{AnswerText: answerText, TimeTaken: elapsedSeconds}

	var resp submitResponse
	if err := c.post(ctx, url, req, &resp); err != nil {
		return model.SubmissionResult{}, errors.Wrap(err, "submit answer")
	}

	result := model.SubmissionResult{
		Score:    resp.PreviousScore,
		Feedback: resp.PreviousFeedback,
	}
	switch {
	case resp.Terminated:
		result.Outcome = model.OutcomeTerminated
	case resp.Completed:
		result.Outcome = model.OutcomeCompleted
	case resp.Question != nil:
		result.Outcome = model.OutcomeNext
		result.Next = resp.Question
	default:
		return model.SubmissionResult{}, errors.Wrap(ErrValidationRejected, "response carries neither next question nor terminal flag")
	}
	return result, nil
}

// SaveDraft mirrors a draft to the service.
func (c *HTTPClient) SaveDraft(ctx context.Context, sessionID, questionID, text string) error {
	url := fmt.Sprintf("%s/interviews/%s/save-draft", c.baseURL, sessionID)
	req := draftRequest{QuestionID: questionID, DraftAnswer: text}

	if err := c.post(ctx, url, req, nil); err != nil {
		return errors.Wrap(err, "save draft")
	}
	return nil
}

// post sends a JSON request and decodes the JSON response into out.
// Transport failures and 5xx map to ErrServiceUnavailable, 4xx to
// ErrValidationRejected.
func (c *HTTPClient) post(ctx context.Context, url string, body, out interface{}) error {
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encode request")
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, payload)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return errors.Wrap(ErrServiceUnavailable, err.Error())
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return errors.Wrapf(ErrServiceUnavailable, "status %d", resp.StatusCode)
	case resp.StatusCode >= http.StatusBadRequest:
		return errors.Wrapf(ErrValidationRejected, "status %d: %s", resp.StatusCode, readBody(resp.Body))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(ErrServiceUnavailable, "decode response: "+err.Error())
	}
	return nil
}

func readBody(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 512))
	if err != nil {
		return ""
	}
	return string(data)
}
