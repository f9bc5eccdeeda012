package evaluator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"adaptive-quiz-service/internal/domain"
)

// Client talks to the evaluation service over HTTP. It satisfies the session
// client's Submitter interface, so the quiz-taking flow can be driven against
// a live service or a test double interchangeably.
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type startRequest struct {
	UserID    string `json:"user_id"`
	QuizID    string `json:"quiz_id"`
	QuizTitle string `json:"quiz_title"`
}

// StartQuiz asks the evaluation service to open an adaptive session and
// returns the handoff descriptor containing the first question.
func (c *Client) StartQuiz(ctx context.Context, userID, quizID, quizTitle string) (*domain.SessionDescriptor, error) {
	var descriptor domain.SessionDescriptor
	err := c.post(ctx, "/start_quiz", startRequest{
		UserID:    userID,
		QuizID:    quizID,
		QuizTitle: quizTitle,
	}, &descriptor)
	if err != nil {
		return nil, fmt.Errorf("start quiz: %w", err)
	}
	return &descriptor, nil
}

// SubmitAnswer relays one answer and returns the service's verdict.
func (c *Client) SubmitAnswer(ctx context.Context, req domain.SubmitRequest) (domain.SubmitResponse, error) {
	var resp domain.SubmitResponse
	if err := c.post(ctx, "/submit_answer", req, &resp); err != nil {
		return domain.SubmitResponse{}, err
	}
	return resp, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("evaluation service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.ErrSessionNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("evaluation service returned status %d: %s", resp.StatusCode, readError(resp.Body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	return nil
}

func readError(r io.Reader) string {
	var e struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(r).Decode(&e); err != nil {
		return "unreadable error body"
	}
	if e.Error != "" {
		return e.Error
	}
	return e.Detail
}
