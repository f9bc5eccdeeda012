package domain

import "encoding/json"

// QuestionType distinguishes how an answer is collected and scored.
type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	FreeText       QuestionType = "free_text"
)

// DefaultPoints is the mark value of a question that does not declare one.
const DefaultPoints = 10

// Question is a normalized question as exchanged with the evaluation service.
// Upstream stores are inconsistent about field names, so unmarshalling accepts
// the known aliases and folds them into the canonical shape.
type Question struct {
	ID            string   `json:"id"`
	Text          string   `json:"question_text"`
	Options       []string `json:"options,omitempty"`
	Points        int      `json:"points,omitempty"`
	CorrectAnswer string   `json:"correct_answer,omitempty"`
	Difficulty    float64  `json:"difficulty,omitempty"`
	Topics        []string `json:"topics,omitempty"`
}

// Type classifies the question: a non-empty options list means multiple-choice,
// anything else is free-text.
func (q Question) Type() QuestionType {
	if len(q.Options) > 0 {
		return MultipleChoice
	}
	return FreeText
}

// PointsOrDefault returns the declared mark value, or DefaultPoints when unset.
func (q Question) PointsOrDefault() int {
	if q.Points > 0 {
		return q.Points
	}
	return DefaultPoints
}

// Redacted returns a copy safe to send to clients: the correct answer is stripped.
func (q Question) Redacted() Question {
	q.CorrectAnswer = ""
	return q
}

func (q *Question) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID            string          `json:"id"`
		MongoID       string          `json:"_id"`
		QuestionID    string          `json:"question_id"`
		Text          string          `json:"question_text"`
		AltText       string          `json:"text"`
		Options       []string        `json:"options"`
		Points        json.RawMessage `json:"points"`
		CorrectAnswer string          `json:"correct_answer"`
		Difficulty    float64         `json:"difficulty"`
		Topics        []string        `json:"topics"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	q.ID = firstNonEmpty(raw.ID, raw.MongoID, raw.QuestionID)
	q.Text = firstNonEmpty(raw.Text, raw.AltText)
	q.Options = raw.Options
	q.CorrectAnswer = raw.CorrectAnswer
	q.Difficulty = raw.Difficulty
	q.Topics = raw.Topics

	// Points occasionally arrive as a float from the upstream store.
	q.Points = 0
	if len(raw.Points) > 0 {
		var f float64
		if err := json.Unmarshal(raw.Points, &f); err == nil {
			q.Points = int(f)
		}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
