package app

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"adaptive-quiz-service/internal/domain"
)

// SessionStore abstracts how adaptive sessions are persisted (in-memory, Redis).
type SessionStore interface {
	Create(ctx context.Context, state *domain.SessionState) error
	Get(ctx context.Context, sessionID string) (*domain.SessionState, error)
	Update(ctx context.Context, state *domain.SessionState) error
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// AnswerScorer rates a free-text answer against the expected one on [0,1].
type AnswerScorer interface {
	Similarity(ctx context.Context, questionText, expected, answer string) (float64, error)
}

// SubmissionSyncer pushes the final submission to the main backend once a
// session completes. Sync failures never fail the completion response.
type SubmissionSyncer interface {
	SyncSubmission(ctx context.Context, state domain.SessionState, report domain.Report) error
}

// Engine owns the adaptive quiz use cases: opening a session with a shuffled
// question sequence and scoring one answer per turn until the sequence is
// exhausted. Session state is the single source of truth for ordering; the
// reported index always comes from the stored session, never the caller.
type Engine struct {
	sessions SessionStore
	quizzes  QuizRepository
	scorer   AnswerScorer
	syncer   SubmissionSyncer
	hub      *ProgressHub
	now      func() time.Time
	newID    func() string
	rnd      *rand.Rand
}

// Option configures an Engine.
type Option func(*Engine)

// WithScorer replaces the default token-overlap scorer (e.g. with an LLM-backed one).
func WithScorer(s AnswerScorer) Option {
	return func(e *Engine) { e.scorer = s }
}

// WithSyncer enables completion sync to the main backend.
func WithSyncer(s SubmissionSyncer) Option {
	return func(e *Engine) { e.syncer = s }
}

// WithClock is test-only for deterministic timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDFunc is test-only for deterministic session IDs.
func WithIDFunc(f func() string) Option {
	return func(e *Engine) { e.newID = f }
}

func NewEngine(sessions SessionStore, quizzes QuizRepository, opts ...Option) *Engine {
	e := &Engine{
		sessions: sessions,
		quizzes:  quizzes,
		scorer:   TokenOverlapScorer{},
		hub:      NewProgressHub(),
		now:      time.Now,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	e.newID = func() string {
		id, err := uuid.NewV7()
		if err != nil {
			return uuid.NewString()
		}
		return id.String()
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// StartQuiz opens an adaptive session: loads the quiz, shuffles its questions
// for this user, persists the session, and returns the handoff descriptor
// carrying the first question with the correct answer stripped.
func (e *Engine) StartQuiz(ctx context.Context, userID, quizID, quizTitle string) (*domain.SessionDescriptor, error) {
	quiz, err := e.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if len(quiz.Questions) == 0 {
		return nil, fmt.Errorf("quiz %s has no questions: %w", quizID, domain.ErrQuizNotFound)
	}
	if quizTitle == "" {
		quizTitle = quiz.Title
	}

	state := &domain.SessionState{
		SessionID:    e.newID(),
		UserID:       userID,
		QuizID:       quizID,
		QuizTitle:    quizTitle,
		Questions:    e.shuffle(quiz.Questions),
		CurrentIndex: 0,
		StartedAt:    e.now(),
	}
	if err := e.sessions.Create(ctx, state); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	first := state.Questions[0].Redacted()
	e.hub.Broadcast(e.progress(state, 0))
	return &domain.SessionDescriptor{
		SessionID:      state.SessionID,
		QuizID:         state.QuizID,
		QuizTitle:      state.QuizTitle,
		TotalQuestions: len(state.Questions),
		CurrentIndex:   0,
		NextQuestion:   &first,
	}, nil
}

// SubmitAnswer scores one answer for the session's current question and
// advances the sequence. The stored index is authoritative: a stale or
// mismatched question ID is logged and scored against the current question,
// matching the tolerant behavior the clients rely on.
func (e *Engine) SubmitAnswer(ctx context.Context, req domain.SubmitRequest) (domain.SubmitResponse, error) {
	state, err := e.sessions.Get(ctx, req.SessionID)
	if err != nil {
		return domain.SubmitResponse{}, err
	}

	current := state.CurrentQuestion()
	if state.Completed || current == nil {
		return domain.SubmitResponse{Completed: true}, nil
	}
	if req.QuestionID != "" && req.QuestionID != current.ID {
		log.Printf("session %s: question ID mismatch: expected %s, got %s", state.SessionID, current.ID, req.QuestionID)
	}

	if req.TimeTaken < 0 {
		req.TimeTaken = 0
	}

	verdict, err := e.score(ctx, *current, req)
	if err != nil {
		return domain.SubmitResponse{}, fmt.Errorf("score answer: %w", err)
	}

	state.Attempts = append(state.Attempts, domain.Attempt{
		QuestionID:    current.ID,
		QuestionText:  current.Text,
		UserAnswer:    req.UserAnswer,
		CorrectAnswer: current.CorrectAnswer,
		Similarity:    verdict.similarity,
		Marks:         verdict.marks,
		TimeTaken:     req.TimeTaken,
		Difficulty:    current.Difficulty,
		Topics:        current.Topics,
	})
	state.CurrentIndex++

	feedback := &domain.Feedback{Score: verdict.marks, Correct: verdict.correct}

	if state.CurrentIndex >= len(state.Questions) {
		state.Completed = true
		report := buildReport(state)
		if err := e.sessions.Update(ctx, state); err != nil {
			return domain.SubmitResponse{}, fmt.Errorf("update session: %w", err)
		}
		e.hub.Broadcast(e.progress(state, verdict.marks))
		if e.syncer != nil {
			if err := e.syncer.SyncSubmission(ctx, *state, *report); err != nil {
				log.Printf("session %s: backend sync failed: %v", state.SessionID, err)
			}
		}
		return domain.SubmitResponse{
			Completed: true,
			Feedback:  feedback,
			Report:    report,
		}, nil
	}

	if err := e.sessions.Update(ctx, state); err != nil {
		return domain.SubmitResponse{}, fmt.Errorf("update session: %w", err)
	}
	e.hub.Broadcast(e.progress(state, verdict.marks))

	next := state.Questions[state.CurrentIndex].Redacted()
	return domain.SubmitResponse{
		Completed:      false,
		CurrentIndex:   state.CurrentIndex,
		TotalQuestions: len(state.Questions),
		NextQuestion:   &next,
		Feedback:       feedback,
	}, nil
}

// Subscribe returns a channel of progress snapshots for a session. The caller
// must invoke the returned cancel function to avoid leaks.
func (e *Engine) Subscribe(ctx context.Context, sessionID string) (<-chan domain.Progress, func(), error) {
	state, err := e.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := e.hub.Subscribe(sessionID)
	ch <- e.progress(state, lastMarks(state))
	return ch, cancel, nil
}

func (e *Engine) progress(state *domain.SessionState, lastScore float64) domain.Progress {
	return domain.Progress{
		SessionID:      state.SessionID,
		QuizID:         state.QuizID,
		CurrentIndex:   state.CurrentIndex,
		TotalQuestions: len(state.Questions),
		LastScore:      lastScore,
		Completed:      state.Completed,
		UpdatedAt:      e.now(),
	}
}

func lastMarks(state *domain.SessionState) float64 {
	if len(state.Attempts) == 0 {
		return 0
	}
	return state.Attempts[len(state.Attempts)-1].Marks
}

// shuffle returns a copy of the questions in random order so repeat attempts
// don't see the stored sequence.
func (e *Engine) shuffle(questions []domain.Question) []domain.Question {
	shuffled := make([]domain.Question, len(questions))
	copy(shuffled, questions)
	e.rnd.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled
}
