package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mind-engage/diagquest/internal/authoring"
	"github.com/mind-engage/diagquest/internal/diagnostic"
	"github.com/mind-engage/diagquest/internal/wire"
)

var pushCmd = &cobra.Command{
	Use:   "push <file.json>",
	Short: "Create a test, or update it when the file carries an id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := readTestFile(args[0])
		if err != nil {
			return err
		}
		c, err := newClient(cmd)
		if err != nil {
			return err
		}
		me, err := c.Me(cmd.Context())
		if err != nil {
			return fmt.Errorf("%s", diagnostic.UserMessage(err))
		}

		saved, err := authoring.NewService(c, authoring.WithCatalog(c)).Save(cmd.Context(), diagnostic.DraftFrom(wire.FromRecord(rec)), me.ID)
		if err != nil {
			return fmt.Errorf("%s", diagnostic.UserMessage(err))
		}
		t := saved.Test()
		fmt.Fprintf(cmd.OutOrStdout(), "saved %s %q (%d challenges)\n", t.ID, t.Title, diagnostic.ExerciseCount(t))
		return nil
	},
}
