package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"adaptive-quiz-service/internal/domain"
)

// State is the client's position in the quiz-taking exchange.
type State string

const (
	StateUninitialized  State = "uninitialized"
	StateAwaitingAnswer State = "awaiting_answer"
	StateSubmitting     State = "submitting"
	StateCompleted      State = "completed"
	StateErrored        State = "errored"
)

// Submitter sends one answer to the evaluation service and returns its verdict.
type Submitter interface {
	SubmitAnswer(ctx context.Context, req domain.SubmitRequest) (domain.SubmitResponse, error)
}

// Client drives a turn-based question/answer exchange with the evaluation
// service until a completion signal is received. It owns only the in-memory
// session/question/draft triple; the service owns ordering and scoring, so the
// displayed index is always the server's last-reported one.
//
// Submissions are serialized: at most one is in flight, and a second invocation
// while one is outstanding performs no network request. A failed submission
// preserves the draft and returns the client to an answerable state; nothing is
// retried automatically.
type Client struct {
	submitter Submitter
	now       func() time.Time

	mu          sync.Mutex
	state       State
	sessionID   string
	quizID      string
	quizTitle   string
	total       int
	index       int
	question    *domain.Question
	draft       string
	displayedAt time.Time
	feedback    *domain.Feedback
	report      *domain.Report
	lastErr     error
}

func New(submitter Submitter) *Client {
	return NewWithClock(submitter, time.Now)
}

// NewWithClock allows deterministic timestamps in tests.
func NewWithClock(submitter Submitter, now func() time.Time) *Client {
	return &Client{
		submitter: submitter,
		now:       now,
		state:     StateUninitialized,
	}
}

// Initialize consumes a started session descriptor handed off by the
// start-quiz step. A nil or malformed descriptor is fatal to the flow: the
// client enters StateErrored and the caller should route the user back to the
// quiz list. On success the first question is current and the display
// timestamp starts ticking.
func (c *Client) Initialize(d *domain.SessionDescriptor) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateUninitialized {
		return fmt.Errorf("initialize in state %s: %w", c.state, domain.ErrMissingSession)
	}
	if d == nil {
		c.state = StateErrored
		c.lastErr = domain.ErrMissingSession
		return c.lastErr
	}
	if d.SessionID == "" || d.TotalQuestions <= 0 || d.NextQuestion == nil || d.NextQuestion.Text == "" {
		c.state = StateErrored
		c.lastErr = fmt.Errorf("malformed session descriptor: %w", domain.ErrMissingSession)
		return c.lastErr
	}

	q := *d.NextQuestion
	c.sessionID = d.SessionID
	c.quizID = d.QuizID
	c.quizTitle = d.QuizTitle
	c.total = d.TotalQuestions
	c.index = d.CurrentIndex
	c.question = &q
	c.draft = ""
	c.displayedAt = c.now()
	c.state = StateAwaitingAnswer
	c.lastErr = nil
	return nil
}

// SetAnswer stores the draft answer for the current question. For
// multiple-choice this is the selected option text, otherwise free text.
func (c *Client) SetAnswer(value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateAwaitingAnswer {
		return
	}
	c.draft = value
}

// SubmitAnswer sends the draft answer for the current question. An empty draft
// is rejected locally without a round trip. Re-entry while a submission is
// outstanding returns ErrSubmissionInFlight and sends nothing.
func (c *Client) SubmitAnswer(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case StateSubmitting:
		c.mu.Unlock()
		return domain.ErrSubmissionInFlight
	case StateCompleted:
		c.mu.Unlock()
		return domain.ErrSessionCompleted
	case StateAwaitingAnswer:
	default:
		c.mu.Unlock()
		return domain.ErrMissingSession
	}
	if strings.TrimSpace(c.draft) == "" {
		c.mu.Unlock()
		return domain.ErrEmptyAnswer
	}

	req := domain.SubmitRequest{
		SessionID:  c.sessionID,
		QuestionID: c.question.ID,
		UserAnswer: c.draft,
		TimeTaken:  c.elapsedLocked(),
	}
	c.state = StateSubmitting
	c.mu.Unlock()

	resp, err := c.submitter.SubmitAnswer(ctx, req)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		// Recoverable: keep the draft so the user can re-submit without retyping.
		c.state = StateAwaitingAnswer
		c.lastErr = fmt.Errorf("submit answer: %w", err)
		return c.lastErr
	}
	return c.applyLocked(resp)
}

func (c *Client) applyLocked(resp domain.SubmitResponse) error {
	if resp.Completed {
		c.state = StateCompleted
		c.question = nil
		c.draft = ""
		c.feedback = resp.Feedback
		c.report = resp.Report
		c.lastErr = nil
		return nil
	}

	if resp.NextQuestion == nil || resp.NextQuestion.Text == "" {
		c.state = StateAwaitingAnswer
		c.lastErr = domain.ErrMalformedResponse
		return c.lastErr
	}

	q := *resp.NextQuestion
	c.question = &q
	c.index = resp.CurrentIndex
	if resp.TotalQuestions > 0 {
		c.total = resp.TotalQuestions
	}
	c.draft = ""
	c.displayedAt = c.now()
	c.feedback = resp.Feedback
	c.state = StateAwaitingAnswer
	c.lastErr = nil
	return nil
}

// elapsedLocked reports seconds since the current question was displayed.
// Advisory telemetry only; never used to gate or reject a submission.
func (c *Client) elapsedLocked() float64 {
	elapsed := c.now().Sub(c.displayedAt).Seconds()
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// State returns the client's current state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// CurrentQuestion returns a copy of the question awaiting an answer, or nil
// after completion or before initialization.
func (c *Client) CurrentQuestion() *domain.Question {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.question == nil {
		return nil
	}
	q := *c.question
	return &q
}

// Progress reports the server's last-reported index and the declared total.
func (c *Client) Progress() (index, total int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index, c.total
}

// Draft returns the not-yet-submitted answer for the current question.
func (c *Client) Draft() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// Completed reports whether the session reached its terminal state.
func (c *Client) Completed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == StateCompleted
}

// LastFeedback returns the scoring signal from the most recent submission.
func (c *Client) LastFeedback() *domain.Feedback {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.feedback
}

// Report returns the completion summary, or nil before completion.
func (c *Client) Report() *domain.Report {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.report
}

// Err returns the most recent surfaced error, cleared by the next success.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// SessionID returns the opaque session token from the descriptor.
func (c *Client) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// QuizTitle returns the quiz title from the descriptor.
func (c *Client) QuizTitle() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.quizTitle
}
