package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"adaptive-quiz-service/internal/app"
	"adaptive-quiz-service/internal/domain"
)

// Handler exposes the adaptive quiz protocol over HTTP. The two POST routes
// mirror the wire contract the session clients speak.
type Handler struct {
	engine *app.Engine
}

func NewHandler(engine *app.Engine) *Handler {
	return &Handler{engine: engine}
}

// Router assembles the service mux, including the websocket progress feed.
func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/start_quiz", h.startQuiz)
	mux.HandleFunc("/submit_answer", h.submitAnswer)
	mux.HandleFunc("/ws/sessions", NewWSHandler(h.engine).ServeWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return mux
}

type startQuizRequest struct {
	UserID    string `json:"user_id"`
	QuizID    string `json:"quiz_id"`
	QuizTitle string `json:"quiz_title"`
}

func (h *Handler) startQuiz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req startQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" || req.QuizID == "" {
		writeError(w, http.StatusBadRequest, "user_id and quiz_id are required")
		return
	}

	descriptor, err := h.engine.StartQuiz(r.Context(), req.UserID, req.QuizID, req.QuizTitle)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrQuizNotFound) {
			status = http.StatusNotFound
		}
		log.Printf("start quiz %s: %v", req.QuizID, err)
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, descriptor)
}

func (h *Handler) submitAnswer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req domain.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, domain.ErrMissingSession.Error())
		return
	}

	resp, err := h.engine.SubmitAnswer(r.Context(), req)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrSessionNotFound) {
			status = http.StatusNotFound
		}
		log.Printf("submit answer for session %s: %v", req.SessionID, err)
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
