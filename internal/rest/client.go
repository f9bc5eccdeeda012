package rest

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

// Scope names the credential a backend call must be made with. Every call
// declares its scope explicitly; the client never guesses from the URL.
type Scope string

const (
	ScopeStudent Scope = "student"
	ScopeAdmin   Scope = "admin"
)

// Tokens holds one bearer token per scope. Missing tokens fail the call
// before it reaches the wire.
type Tokens map[Scope]string

// Client talks to the main LMS backend. It covers the calls the quiz service
// needs: pulling quiz content and pushing the final submission.
type Client struct {
	baseURL string
	tokens  Tokens
	client  *http.Client
}

func NewClient(baseURL string, tokens Tokens) *Client {
	return &Client{
		baseURL: baseURL,
		tokens:  tokens,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// LoadQuiz fetches quiz content from the backend. Satisfies the quiz loader
// interfaces used by the caching repositories.
func (c *Client) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var quiz domain.Quiz
	err := c.do(ctx, ScopeStudent, http.MethodGet, "/quiz/"+quizID+"/questions", nil, &quiz)
	if err != nil {
		return domain.Quiz{}, err
	}
	if quiz.ID == "" {
		quiz.ID = quizID
	}
	return quiz, nil
}

type submissionPayload struct {
	SessionID  string             `json:"session_id"`
	UserID     string             `json:"user_id"`
	QuizID     string             `json:"quiz_id"`
	QuizTitle  string             `json:"quiz_title"`
	TotalMarks float64            `json:"total_marks"`
	MaxMarks   float64            `json:"max_marks"`
	Percentage float64            `json:"percentage"`
	Passed     bool               `json:"passed"`
	Answers    []submissionAnswer `json:"answers"`
}

type submissionAnswer struct {
	QuestionID string  `json:"question_id"`
	UserAnswer string  `json:"user_answer"`
	Marks      float64 `json:"marks"`
	Correct    bool    `json:"correct"`
	TimeTaken  float64 `json:"time_taken"`
}

// SyncSubmission pushes a completed session's results to the backend so the
// gradebook reflects the adaptive run. Implements the engine's SubmissionSyncer.
func (c *Client) SyncSubmission(ctx context.Context, state domain.SessionState, report domain.Report) error {
	answers := make([]submissionAnswer, 0, len(report.Results))
	for _, result := range report.Results {
		answers = append(answers, submissionAnswer{
			QuestionID: result.QuestionID,
			UserAnswer: result.UserAnswer,
			Marks:      result.Marks,
			Correct:    result.Correct,
			TimeTaken:  result.TimeTaken,
		})
	}

	payload := submissionPayload{
		SessionID:  state.SessionID,
		UserID:     state.UserID,
		QuizID:     state.QuizID,
		QuizTitle:  state.QuizTitle,
		TotalMarks: report.Analysis.TotalMarks,
		MaxMarks:   report.Analysis.MaxMarks,
		Percentage: report.Analysis.Percentage,
		Passed:     report.Analysis.Passed,
		Answers:    answers,
	}
	return c.do(ctx, ScopeStudent, http.MethodPost, "/quiz/"+state.QuizID+"/submit", payload, nil)
}

// DeleteQuiz removes a quiz from the backend. Admin-scoped.
func (c *Client) DeleteQuiz(ctx context.Context, quizID string) error {
	return c.do(ctx, ScopeAdmin, http.MethodDelete, "/admin/quizzes/"+quizID, nil, nil)
}

func (c *Client) do(ctx context.Context, scope Scope, method, path string, body, out interface{}) error {
	token, ok := c.tokens[scope]
	if !ok || token == "" {
		return fmt.Errorf("%s %s: no %s credential configured", method, path, scope)
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.ErrQuizNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("%s %s: backend returned %d", method, path, resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
