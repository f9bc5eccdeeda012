package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"adaptive-quiz-service/internal/app"
	"adaptive-quiz-service/internal/domain"
	"adaptive-quiz-service/internal/infra/memory"
)

func TestStartQuizEndpoint(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	descriptor := startSession(t, server)
	if descriptor.SessionID == "" || descriptor.TotalQuestions != 2 {
		t.Fatalf("unexpected descriptor %+v", descriptor)
	}
	if descriptor.NextQuestion == nil || descriptor.NextQuestion.CorrectAnswer != "" {
		t.Fatalf("expected redacted first question, got %+v", descriptor.NextQuestion)
	}
}

func TestStartQuizValidation(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	resp := postJSON(t, server.URL+"/start_quiz", map[string]string{"user_id": "u1"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body["error"] == "" {
		t.Fatal("expected error message in body")
	}
}

func TestStartQuizUnknownQuizReturns404(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	resp := postJSON(t, server.URL+"/start_quiz", map[string]string{"user_id": "u1", "quiz_id": "missing"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestSubmitAnswerFlow(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	descriptor := startSession(t, server)

	// Answer both questions through the wire.
	answers := map[string]string{"q1": "4", "q2": "8"}
	question := descriptor.NextQuestion
	var last domain.SubmitResponse
	for turn := 0; turn < 2; turn++ {
		resp := postJSON(t, server.URL+"/submit_answer", map[string]any{
			"session_id":  descriptor.SessionID,
			"question_id": question.ID,
			"user_answer": answers[question.ID],
			"time_taken":  3.5,
		})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("submit %d: status %d", turn+1, resp.StatusCode)
		}
		if err := json.NewDecoder(resp.Body).Decode(&last); err != nil {
			t.Fatalf("decode submit response: %v", err)
		}
		resp.Body.Close()
		if last.NextQuestion != nil {
			question = last.NextQuestion
		}
	}

	if !last.Completed || last.Report == nil {
		t.Fatalf("expected completed with report, got %+v", last)
	}
	if !last.Report.Analysis.Passed {
		t.Fatalf("expected passing report, got %+v", last.Report.Analysis)
	}
}

func TestSubmitAnswerUnknownSessionReturns404(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	resp := postJSON(t, server.URL+"/submit_answer", map[string]string{"session_id": "missing"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestSubmitAnswerMissingSessionReturns400(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	resp := postJSON(t, server.URL+"/submit_answer", map[string]string{"user_answer": "4"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestHealthz(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	resp, err := http.Get(server.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func newTestServer() *httptest.Server {
	store := memory.NewSessionStore()
	quizRepo := memory.NewQuizRepository(memory.NewStaticQuizLoader(sampleQuiz()), time.Minute)
	engine := app.NewEngine(store, quizRepo)
	return httptest.NewServer(NewHandler(engine).Router())
}

func startSession(t *testing.T, server *httptest.Server) domain.SessionDescriptor {
	t.Helper()
	resp := postJSON(t, server.URL+"/start_quiz", map[string]string{
		"user_id":    "u1",
		"quiz_id":    "quiz-1",
		"quiz_title": "Arithmetic",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start quiz: status %d", resp.StatusCode)
	}
	var descriptor domain.SessionDescriptor
	if err := json.NewDecoder(resp.Body).Decode(&descriptor); err != nil {
		t.Fatalf("decode descriptor: %v", err)
	}
	return descriptor
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	return resp
}

func sampleQuiz() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"quiz-1": {
			ID:    "quiz-1",
			Title: "Arithmetic",
			Questions: []domain.Question{
				{
					ID:            "q1",
					Text:          "What is 2 + 2?",
					Options:       []string{"3", "4", "5"},
					CorrectAnswer: "4",
					Points:        10,
				},
				{
					ID:            "q2",
					Text:          "What is 4 + 4?",
					Options:       []string{"6", "8", "10"},
					CorrectAnswer: "8",
					Points:        10,
				},
			},
		},
	}
}
