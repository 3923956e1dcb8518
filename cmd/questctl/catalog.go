package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mind-engage/diagquest/internal/authoring"
	"github.com/mind-engage/diagquest/internal/diagnostic"
	"github.com/mind-engage/diagquest/internal/wire"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List classes and the disciplines taught in each",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient(cmd)
		if err != nil {
			return err
		}
		svc := authoring.NewService(c, authoring.WithCatalog(c))
		classes, err := svc.Classes(cmd.Context())
		if err != nil {
			return fmt.Errorf("%s", diagnostic.UserMessage(err))
		}
		byClass := map[string][]wire.Discipline{}
		for _, cl := range classes {
			ds, err := svc.DisciplinesFor(cmd.Context(), cl.ID)
			if err != nil {
				return fmt.Errorf("%s", diagnostic.UserMessage(err))
			}
			byClass[cl.ID] = ds
		}
		printCatalog(cmd.OutOrStdout(), classes, byClass)
		return nil
	},
}

func printCatalog(w io.Writer, classes []wire.Class, byClass map[string][]wire.Discipline) {
	if len(classes) == 0 {
		fmt.Fprintln(w, "No classes.")
		return
	}
	for _, cl := range classes {
		fmt.Fprintf(w, "%s  %s\n", cl.ID, cl.Name)
		for _, d := range byClass[cl.ID] {
			fmt.Fprintf(w, "  %s  %s\n", d.ID, d.Name())
		}
	}
}
