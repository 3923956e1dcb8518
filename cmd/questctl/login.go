package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mind-engage/diagquest/internal/diagnostic"
)

var loginCmd = &cobra.Command{
	Use:   "login <email> <password> | login --codigo <code>",
	Short: "Sign in and print an access token for API_TOKEN",
	Args: func(cmd *cobra.Command, args []string) error {
		if codigo, _ := cmd.Flags().GetString("codigo"); codigo != "" {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(2)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient(cmd)
		if err != nil {
			return err
		}
		var token, who, role string
		if codigo, _ := cmd.Flags().GetString("codigo"); codigo != "" {
			lr, err := c.LoginStudent(cmd.Context(), codigo)
			if err != nil {
				return fmt.Errorf("%s", diagnostic.UserMessage(err))
			}
			token, who, role = lr.AccessToken, lr.Aluno.NomeCompleto, lr.User.Role
		} else {
			lr, err := c.Login(cmd.Context(), args[0], args[1])
			if err != nil {
				return fmt.Errorf("%s", diagnostic.UserMessage(err))
			}
			token, who, role = lr.AccessToken, lr.User.Email, lr.User.Role
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "signed in as %s (%s)\n", who, role)
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	loginCmd.Flags().String("codigo", "", "Student sign-in code")
}
