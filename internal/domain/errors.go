package domain

import "errors"

var (
	// ErrMissingSession is returned when the quiz-taking flow starts without a session descriptor.
	ErrMissingSession = errors.New("quiz session descriptor missing")
	// ErrSessionNotFound is returned when the referenced session does not exist on the server.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrSessionCompleted indicates the session already reached its terminal state.
	ErrSessionCompleted = errors.New("quiz session already completed")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrEmptyAnswer rejects a submission with no draft answer set.
	ErrEmptyAnswer = errors.New("answer is empty")
	// ErrSubmissionInFlight is returned when submit is invoked while a submission is outstanding.
	ErrSubmissionInFlight = errors.New("submission already in flight")
	// ErrMalformedResponse indicates the evaluation service returned a payload missing expected fields.
	ErrMalformedResponse = errors.New("malformed evaluation service response")
)
