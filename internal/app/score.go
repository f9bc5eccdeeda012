package app

import (
	"context"
	"strings"

	"adaptive-quiz-service/internal/domain"
)

const (
	// freeTextPassThreshold is the similarity above which a free-text answer counts as correct.
	freeTextPassThreshold = 0.6
	// expectedAnswerSeconds is the pace under which a fast-answer bonus applies.
	expectedAnswerSeconds = 60.0
)

type verdict struct {
	similarity float64
	marks      float64
	correct    bool
}

// score rates one answer. Multiple-choice is an exact case-insensitive match
// against the correct option; free text goes through the configured scorer and
// earns a small bonus for a confident answer given faster than the expected
// pace. Marks scale the final score by the question's point value.
func (e *Engine) score(ctx context.Context, q domain.Question, req domain.SubmitRequest) (verdict, error) {
	points := float64(q.PointsOrDefault())

	if q.Type() == domain.MultipleChoice {
		if equalFold(req.UserAnswer, q.CorrectAnswer) {
			return verdict{similarity: 1, marks: points, correct: true}, nil
		}
		return verdict{}, nil
	}

	similarity, err := e.scorer.Similarity(ctx, q.Text, q.CorrectAnswer, req.UserAnswer)
	if err != nil {
		return verdict{}, err
	}

	final := similarity
	if req.TimeTaken < expectedAnswerSeconds && similarity > 0.4 {
		final += 0.05 * (1 - req.TimeTaken/expectedAnswerSeconds)
	}
	if final > 1 {
		final = 1
	}

	return verdict{
		similarity: similarity,
		marks:      final * points,
		correct:    similarity >= freeTextPassThreshold,
	}, nil
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// TokenOverlapScorer is the default free-text scorer: the fraction of the
// expected answer's tokens present in the user's answer. Crude next to an
// embedding model, but deterministic and dependency-free for local runs.
type TokenOverlapScorer struct{}

func (TokenOverlapScorer) Similarity(_ context.Context, _ string, expected, answer string) (float64, error) {
	want := tokenSet(expected)
	if len(want) == 0 {
		return 0, nil
	}
	got := tokenSet(answer)

	matched := 0
	for token := range want {
		if _, ok := got[token]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(want)), nil
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, token := range strings.Fields(strings.ToLower(s)) {
		token = strings.Trim(token, ".,;:!?\"'()")
		if len(token) > 2 {
			set[token] = struct{}{}
		}
	}
	return set
}
