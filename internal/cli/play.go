package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"adaptive-quiz-service/internal/domain"
	"adaptive-quiz-service/internal/evaluator"
	"adaptive-quiz-service/internal/session"
)

// NewPlayCmd runs a quiz interactively against a running server. Mostly a
// development aid: it drives the same session client the frontends embed.
func NewPlayCmd() *cobra.Command {
	var (
		serverURL string
		userID    string
		quizID    string
	)

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Take a quiz interactively in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd.Context(), serverURL, userID, quizID)
		},
	}
	cmd.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "quiz server base URL")
	cmd.Flags().StringVar(&userID, "user", "local", "user ID to start the session with")
	cmd.Flags().StringVar(&quizID, "quiz", "quiz-1", "quiz ID to play")
	return cmd
}

func runPlay(ctx context.Context, serverURL, userID, quizID string) error {
	eval := evaluator.NewClient(serverURL)

	descriptor, err := eval.StartQuiz(ctx, userID, quizID, "")
	if err != nil {
		return fmt.Errorf("start quiz: %w", err)
	}

	client := session.New(eval)
	if err := client.Initialize(descriptor); err != nil {
		return fmt.Errorf("initialize session: %w", err)
	}

	fmt.Printf("=== %s ===\n", client.QuizTitle())
	scanner := bufio.NewScanner(os.Stdin)

	for !client.Completed() {
		question := client.CurrentQuestion()
		if question == nil {
			break
		}
		index, total := client.Progress()
		fmt.Printf("\nQuestion %d/%d: %s\n", index+1, total, question.Text)
		for i, option := range question.Options {
			fmt.Printf("  %d) %s\n", i+1, option)
		}

		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		answer := resolveOption(question, strings.TrimSpace(scanner.Text()))

		client.SetAnswer(answer)
		if err := client.SubmitAnswer(ctx); err != nil {
			if errors.Is(err, domain.ErrEmptyAnswer) {
				fmt.Println("An answer is required.")
				continue
			}
			// Recoverable: the draft is kept, the next loop retries.
			fmt.Printf("Submission failed (%v), press enter to retry.\n", err)
			continue
		}

		if feedback := client.LastFeedback(); feedback != nil {
			if feedback.Correct {
				fmt.Printf("Correct! +%.1f marks\n", feedback.Score)
			} else {
				fmt.Printf("Not quite. +%.1f marks\n", feedback.Score)
			}
		}
	}

	report := client.Report()
	if report == nil {
		return fmt.Errorf("session finished without a report")
	}
	fmt.Printf("\n%s\n", report.Analysis.Summary)
	if report.Analysis.Passed {
		fmt.Println("Passed.")
	} else {
		fmt.Println("Failed.")
	}
	return nil
}

// resolveOption lets the user answer multiple-choice questions by number.
func resolveOption(q *domain.Question, input string) string {
	if q.Type() != domain.MultipleChoice {
		return input
	}
	for i, option := range q.Options {
		if input == fmt.Sprintf("%d", i+1) {
			return option
		}
	}
	return input
}
