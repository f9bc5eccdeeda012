package domain

import "time"

// Quiz is a loaded question set for one quiz.
type Quiz struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

// SessionDescriptor is the start-quiz handoff: session metadata plus the first
// question. The quiz-taking client consumes it as-is and never constructs one
// from a bare identifier.
type SessionDescriptor struct {
	SessionID      string    `json:"session_id"`
	QuizID         string    `json:"quiz_id"`
	QuizTitle      string    `json:"quiz_title"`
	TotalQuestions int       `json:"total_questions"`
	CurrentIndex   int       `json:"current_index"`
	NextQuestion   *Question `json:"next_question"`
}

// SubmitRequest carries one answer to the evaluation service.
type SubmitRequest struct {
	SessionID  string  `json:"session_id"`
	QuestionID string  `json:"question_id"`
	UserAnswer string  `json:"user_answer"`
	TimeTaken  float64 `json:"time_taken"`
}

// Feedback is the per-answer scoring signal returned with each submission.
type Feedback struct {
	Score   float64 `json:"score"`
	Correct bool    `json:"correct"`
}

// SubmitResponse is the evaluation service's verdict on a submission. When
// Completed is false, NextQuestion and CurrentIndex describe the next turn;
// the server is authoritative on ordering. When Completed is true the session
// is terminal and Report summarizes the attempt.
type SubmitResponse struct {
	Completed      bool      `json:"completed"`
	CurrentIndex   int       `json:"current_index,omitempty"`
	TotalQuestions int       `json:"total_questions,omitempty"`
	NextQuestion   *Question `json:"next_question,omitempty"`
	Feedback       *Feedback `json:"feedback,omitempty"`
	Report         *Report   `json:"report,omitempty"`
}

// Attempt records one answered question within a session.
type Attempt struct {
	QuestionID    string   `json:"question_id"`
	QuestionText  string   `json:"question_text"`
	UserAnswer    string   `json:"user_answer"`
	CorrectAnswer string   `json:"correct_answer"`
	Similarity    float64  `json:"similarity_score"`
	Marks         float64  `json:"marks_obtained"`
	TimeTaken     float64  `json:"time_taken"`
	Difficulty    float64  `json:"difficulty"`
	Topics        []string `json:"topics"`
}

// SessionState is the server-side record of one adaptive quiz attempt. It is
// the single source of truth for ordering and progress; clients only render it.
type SessionState struct {
	SessionID    string     `json:"session_id"`
	UserID       string     `json:"user_id"`
	QuizID       string     `json:"quiz_id"`
	QuizTitle    string     `json:"quiz_title"`
	Questions    []Question `json:"questions"`
	CurrentIndex int        `json:"current_index"`
	Attempts     []Attempt  `json:"questions_attempted"`
	Completed    bool       `json:"completed"`
	StartedAt    time.Time  `json:"start_time"`
}

// CurrentQuestion returns the question awaiting an answer, or nil once the
// session has run past its last question.
func (s *SessionState) CurrentQuestion() *Question {
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Questions) {
		return nil
	}
	return &s.Questions[s.CurrentIndex]
}

// Report is the completion summary produced when the last answer is scored.
type Report struct {
	SessionID string          `json:"session_id"`
	QuizID    string          `json:"quiz_id"`
	QuizTitle string          `json:"quiz_title"`
	Results   []AttemptResult `json:"results"`
	Analysis  ScoreAnalysis   `json:"total_score_analysis"`
}

// AttemptResult is the per-question view embedded in a report.
type AttemptResult struct {
	QuestionID string  `json:"question_id"`
	Question   string  `json:"question_text"`
	UserAnswer string  `json:"user_answer"`
	Marks      float64 `json:"marks_obtained"`
	Correct    bool    `json:"correct"`
	TimeTaken  float64 `json:"time_taken"`
}

// ScoreAnalysis totals a finished session.
type ScoreAnalysis struct {
	TotalMarks     float64 `json:"total_marks_obtained"`
	MaxMarks       float64 `json:"max_possible_marks"`
	Percentage     float64 `json:"percentage"`
	Passed         bool    `json:"passed"`
	CorrectAnswers int     `json:"correct_answers"`
	Summary        string  `json:"summary"`
}

// Progress is a monitoring snapshot of an in-flight session.
type Progress struct {
	SessionID      string    `json:"sessionId"`
	QuizID         string    `json:"quizId"`
	CurrentIndex   int       `json:"currentIndex"`
	TotalQuestions int       `json:"totalQuestions"`
	LastScore      float64   `json:"lastScore"`
	Completed      bool      `json:"completed"`
	UpdatedAt      time.Time `json:"updatedAt"`
}
