package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mind-engage/diagquest/internal/authoring"
	"github.com/mind-engage/diagquest/internal/diagnostic"
	"github.com/mind-engage/diagquest/internal/resolution"
)

var takeCmd = &cobra.Command{
	Use:   "take <testID>",
	Short: "Answer a test interactively",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient(cmd)
		if err != nil {
			return err
		}
		student, _ := cmd.Flags().GetString("student")
		if student == "" {
			me, err := c.Me(cmd.Context())
			if err != nil {
				return fmt.Errorf("%s", diagnostic.UserMessage(err))
			}
			student = me.AlunoID
		}
		policy, err := resolution.ParseSubmitPolicy(cfg.SubmitPolicy)
		if err != nil {
			return err
		}

		d, err := authoring.NewService(c).Load(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("%s", diagnostic.UserMessage(err))
		}
		s := resolution.NewSession(d.Test(), student, resolution.WithSubmitPolicy(policy))
		return take(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), s, c)
	},
}

func init() {
	takeCmd.Flags().String("student", "", "Student (aluno) ID; defaults to the signed-in student")
}

const takeHelp = "commands: <number> choose option, n next, p previous, g <number> go to challenge, s submit, q quit"

// take runs the question loop until the answers are submitted, the user
// quits or the input ends.
func take(ctx context.Context, in io.Reader, out io.Writer, s *resolution.Session, g resolution.Grader) error {
	if s.Len() == 0 {
		fmt.Fprintln(out, "This test has no challenges.")
		return nil
	}
	fmt.Fprintln(out, takeHelp)
	showChallenge(out, s)

	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !sc.Scan() {
			return sc.Err()
		}
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "q":
			return nil
		case line == "n":
			if !s.Next() {
				fmt.Fprintln(out, "This is the last challenge.")
				continue
			}
		case line == "p":
			if !s.Previous() {
				fmt.Fprintln(out, "This is the first challenge.")
				continue
			}
		case strings.HasPrefix(line, "g "):
			n, err := strconv.Atoi(strings.TrimSpace(line[2:]))
			if err != nil || !s.Jump(n-1) {
				fmt.Fprintf(out, "No challenge %q.\n", strings.TrimSpace(line[2:]))
				continue
			}
		case line == "s":
			res, err := s.Submit(ctx, g)
			if err != nil {
				fmt.Fprintln(out, diagnostic.UserMessage(err))
				continue
			}
			printResult(out, res)
			return nil
		default:
			n, err := strconv.Atoi(line)
			cur, _ := s.Current()
			if err != nil {
				fmt.Fprintln(out, takeHelp)
				continue
			}
			if n < 1 || n > len(cur.Options) {
				fmt.Fprintf(out, "Choose 1 to %d.\n", len(cur.Options))
				continue
			}
			if err := s.SelectAnswer(cur.ID, cur.Options[n-1].ID); err != nil {
				return err
			}
		}
		showChallenge(out, s)
	}
}

func showChallenge(w io.Writer, s *resolution.Session) {
	cur, ok := s.Current()
	if !ok {
		return
	}
	answer, answered := s.Answer(cur.ID)
	fmt.Fprintf(w, "\nChallenge %d/%d\n%s\n", s.Index()+1, s.Len(), cur.Prompt)
	for i, o := range cur.Options {
		mark := " "
		if answered && o.Text == answer {
			mark = "*"
		}
		fmt.Fprintf(w, " %s %d) %s\n", mark, i+1, o.Text)
	}
	if s.Index() == s.Len()-1 {
		fmt.Fprintln(w, "Last challenge: s to submit.")
	}
}
