package grader

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSimilarityParsesModelResponse(t *testing.T) {
	server := newChatServer(t, `{"similarity": 0.85}`)
	defer server.Close()

	scorer := NewLLMScorer(server.URL, "test-model")
	got, err := scorer.Similarity(context.Background(), "q", "expected", "answer")
	if err != nil {
		t.Fatalf("similarity: %v", err)
	}
	if got != 0.85 {
		t.Fatalf("expected 0.85, got %v", got)
	}
}

func TestSimilarityExtractsJSONFromProse(t *testing.T) {
	server := newChatServer(t, "Sure! Here is the grade: {\"similarity\": 0.5} Hope that helps.")
	defer server.Close()

	scorer := NewLLMScorer(server.URL, "test-model")
	got, err := scorer.Similarity(context.Background(), "q", "expected", "answer")
	if err != nil {
		t.Fatalf("similarity: %v", err)
	}
	if got != 0.5 {
		t.Fatalf("expected 0.5, got %v", got)
	}
}

func TestSimilarityClampsOutOfRange(t *testing.T) {
	server := newChatServer(t, `{"similarity": 1.7}`)
	defer server.Close()

	scorer := NewLLMScorer(server.URL, "test-model")
	got, err := scorer.Similarity(context.Background(), "q", "expected", "answer")
	if err != nil {
		t.Fatalf("similarity: %v", err)
	}
	if got != 1 {
		t.Fatalf("expected clamp to 1, got %v", got)
	}
}

func TestSimilarityFailsAfterRetries(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		writeChatContent(w, "no json here")
	}))
	defer server.Close()

	scorer := NewLLMScorer(server.URL, "test-model")
	if _, err := scorer.Similarity(context.Background(), "q", "expected", "answer"); err == nil {
		t.Fatal("expected error for unparseable response")
	}
	if calls != maxAttempts {
		t.Fatalf("expected %d attempts, got %d", maxAttempts, calls)
	}
}

func TestExtractJSONSkipsBracesInStrings(t *testing.T) {
	got := extractJSON(`text {"note": "a { brace", "similarity": 1} tail`)
	want := `{"note": "a { brace", "similarity": 1}`
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func newChatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		writeChatContent(w, content)
	}))
}

func writeChatContent(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	})
}
