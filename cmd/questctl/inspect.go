package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mind-engage/diagquest/internal/diagnostic"
	"github.com/mind-engage/diagquest/internal/wire"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.json>",
	Short: "Print a test file as students will see it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := readTestFile(args[0])
		if err != nil {
			return err
		}
		return inspect(cmd.OutOrStdout(), rec)
	},
}

func readTestFile(path string) (wire.TestRecord, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return wire.TestRecord{}, err
	}
	var rec wire.TestRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return wire.TestRecord{}, fmt.Errorf("%s: %w", path, err)
	}
	return rec, nil
}

// inspect prints the challenge sequence followed by any problems found.
// It returns an error only when the payload fails validation.
func inspect(w io.Writer, rec wire.TestRecord) error {
	t := wire.FromRecord(rec)
	fmt.Fprintf(w, "%s (%d competencies, %d challenges)\n", t.Title, len(t.Competencies), diagnostic.ExerciseCount(t))

	var warnings []string
	n := 0
	for _, c := range t.Competencies {
		fmt.Fprintf(w, "\n# %s\n", c.Name)
		if len(c.Exercises) == 0 {
			warnings = append(warnings, fmt.Sprintf("competency %q has no exercises", c.Name))
		}
		for _, e := range c.Exercises {
			n++
			fmt.Fprintf(w, "Challenge %d [%s] %s\n", n, e.Kind, e.Prompt)
			for i, o := range e.Options {
				mark := " "
				if o.Correct {
					mark = "*"
				}
				fmt.Fprintf(w, "  %s %d) %s\n", mark, i+1, o.Text)
			}
			if e.Prompt == "" {
				warnings = append(warnings, fmt.Sprintf("challenge %d has no prompt", n))
			}
			if e.CorrectIndex() < 0 {
				warnings = append(warnings, fmt.Sprintf("challenge %d has no correct option", n))
			}
		}
	}

	for _, msg := range warnings {
		fmt.Fprintf(w, "warning: %s\n", msg)
	}
	if err := wire.Validate(rec.TestPayload); err != nil {
		fmt.Fprintf(w, "invalid: %v\n", err)
		return err
	}
	return nil
}
