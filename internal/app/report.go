package app

import (
	"fmt"

	"github.com/shopspring/decimal"

	"adaptive-quiz-service/internal/domain"
)

// passPercentage is the overall score required to pass a quiz.
const passPercentage = 60

// buildReport totals a finished session. Decimal arithmetic keeps the
// percentage stable regardless of how many fractional marks accumulated.
func buildReport(state *domain.SessionState) *domain.Report {
	results := make([]domain.AttemptResult, 0, len(state.Attempts))
	total := decimal.Zero
	maxMarks := decimal.Zero
	correct := 0

	for i, attempt := range state.Attempts {
		marks := decimal.NewFromFloat(attempt.Marks)
		total = total.Add(marks)

		points := domain.DefaultPoints
		if i < len(state.Questions) {
			points = state.Questions[i].PointsOrDefault()
		}
		maxMarks = maxMarks.Add(decimal.NewFromInt(int64(points)))

		isCorrect := attempt.Similarity >= freeTextPassThreshold
		if isCorrect {
			correct++
		}
		results = append(results, domain.AttemptResult{
			QuestionID: attempt.QuestionID,
			Question:   attempt.QuestionText,
			UserAnswer: attempt.UserAnswer,
			Marks:      attempt.Marks,
			Correct:    isCorrect,
			TimeTaken:  attempt.TimeTaken,
		})
	}

	percentage := decimal.Zero
	if maxMarks.IsPositive() {
		percentage = total.Div(maxMarks).Mul(decimal.NewFromInt(100)).Round(2)
	}
	totalRounded := total.Round(2)

	return &domain.Report{
		SessionID: state.SessionID,
		QuizID:    state.QuizID,
		QuizTitle: state.QuizTitle,
		Results:   results,
		Analysis: domain.ScoreAnalysis{
			TotalMarks:     totalRounded.InexactFloat64(),
			MaxMarks:       maxMarks.InexactFloat64(),
			Percentage:     percentage.InexactFloat64(),
			Passed:         percentage.GreaterThanOrEqual(decimal.NewFromInt(passPercentage)),
			CorrectAnswers: correct,
			Summary:        fmt.Sprintf("Scored %s/%s (%s%%)", totalRounded, maxMarks, percentage),
		},
	}
}
