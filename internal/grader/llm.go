package grader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// LLMScorer rates free-text answers by calling an OpenAI-compatible chat
// completions endpoint (Ollama, LM Studio, vLLM). It implements the engine's
// AnswerScorer interface and returns a similarity on [0,1].
type LLMScorer struct {
	url    string
	model  string
	client *http.Client
}

const maxAttempts = 2

func NewLLMScorer(url, model string) *LLMScorer {
	return &LLMScorer{
		url:   url,
		model: model,
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// ScoreError distinguishes a bad grade from an unreachable model.
type ScoreError struct {
	Reason  string
	Wrapped error
}

func (e *ScoreError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("scoring failed: %s: %v", e.Reason, e.Wrapped)
	}
	return fmt.Sprintf("scoring failed: %s", e.Reason)
}

func (e *ScoreError) Unwrap() error {
	return e.Wrapped
}

type scoreResult struct {
	Similarity float64 `json:"similarity"`
}

// Similarity asks the model how closely the answer matches the expected one.
// Small models sometimes wrap the JSON in prose or fumble it entirely, so the
// call retries once on a parse failure.
func (s *LLMScorer) Similarity(ctx context.Context, questionText, expected, answer string) (float64, error) {
	prompt := buildPrompt(questionText, expected, answer)

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		raw, err := s.complete(ctx, prompt)
		if err != nil {
			lastErr = err
			continue
		}

		jsonStr := extractJSON(raw)
		if jsonStr == "" {
			lastErr = &ScoreError{Reason: "no JSON object in model response"}
			continue
		}

		var result scoreResult
		if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
			lastErr = &ScoreError{Reason: "invalid JSON from model", Wrapped: err}
			continue
		}

		return clamp01(result.Similarity), nil
	}

	return 0, &ScoreError{
		Reason:  fmt.Sprintf("failed after %d attempts", maxAttempts),
		Wrapped: lastErr,
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (s *LLMScorer) complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
		Temperature: 0,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url+"/v1/chat/completions", bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("model request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("model returned status %d", resp.StatusCode)
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode model response: %w", err)
	}
	if len(decoded.Choices) == 0 || decoded.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("model returned no content")
	}
	return decoded.Choices[0].Message.Content, nil
}

// buildPrompt keeps the task a single scalar judgment and ends with the schema
// so it is the last thing a small model sees.
func buildPrompt(question, expected, answer string) string {
	return fmt.Sprintf(`/no_think
You are grading a quiz answer. Rate how semantically close the student's answer is to the expected answer.

Rules:
- 1.0 means the same meaning, even with different wording.
- 0.0 means unrelated or wrong.
- Partial credit for partially correct answers.

QUESTION:
%s

EXPECTED ANSWER:
%s

STUDENT'S ANSWER:
%s

Respond with ONLY this JSON, no explanation, no markdown:
{"similarity": 0.0}`, question, expected, answer)
}

// extractJSON returns the outermost JSON object in s, skipping braces inside
// quoted strings.
func extractJSON(s string) string {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i, ch := range s {
		if escaped {
			escaped = false
			continue
		}
		if ch == '\\' && inString {
			escaped = true
			continue
		}
		if ch == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}

		switch ch {
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			depth--
			if depth == 0 && start != -1 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
