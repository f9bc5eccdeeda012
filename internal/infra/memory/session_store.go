package memory

import (
	"context"
	"fmt"
	"sync"

	"adaptive-quiz-service/internal/domain"
)

// SessionStore is an in-memory implementation of app.SessionStore. Sessions
// live for the duration of the process; suitable for single-instance runs and
// tests.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.SessionState
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]domain.SessionState),
	}
}

func (s *SessionStore) Create(_ context.Context, state *domain.SessionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[state.SessionID]; ok {
		return fmt.Errorf("session %s already exists", state.SessionID)
	}
	s.sessions[state.SessionID] = *state
	return nil
}

func (s *SessionStore) Get(_ context.Context, sessionID string) (*domain.SessionState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.sessions[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return &state, nil
}

func (s *SessionStore) Update(_ context.Context, state *domain.SessionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[state.SessionID]; !ok {
		return domain.ErrSessionNotFound
	}
	s.sessions[state.SessionID] = *state
	return nil
}
