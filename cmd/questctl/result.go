package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mind-engage/diagquest/internal/diagnostic"
	"github.com/mind-engage/diagquest/internal/resolution"
)

var resultCmd = &cobra.Command{
	Use:   "result <testID> <studentID>",
	Short: "Show a student's graded submission",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient(cmd)
		if err != nil {
			return err
		}
		res, err := resolution.FetchResult(cmd.Context(), c, args[0], args[1])
		if err != nil {
			return fmt.Errorf("%s", diagnostic.UserMessage(err))
		}
		printResult(cmd.OutOrStdout(), res)
		return nil
	},
}

func printResult(w io.Writer, res diagnostic.SubmissionResult) {
	fmt.Fprintf(w, "\nScore: %.2f\n", res.TotalScore)
	fmt.Fprintf(w, "Correct: %d of %d (%.0f%%)\n", res.CorrectAnswers, res.TotalExercises, res.Percent())
	if res.SubmittedAt != "" {
		fmt.Fprintf(w, "Submitted: %s\n", res.SubmittedAt)
	}
	for i, d := range res.Details {
		verdict := "wrong"
		if d.Correct {
			verdict = "right"
		}
		given := d.StudentAnswer.String()
		if d.StudentAnswer.IsNull() {
			given = "(no answer)"
		}
		fmt.Fprintf(w, "  Challenge %d: %s, answered %s, expected %s\n", i+1, verdict, given, d.CorrectAnswer)
	}
}
