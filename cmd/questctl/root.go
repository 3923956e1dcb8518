package main

import (
	"github.com/spf13/cobra"

	"github.com/mind-engage/diagquest/internal/client"
	"github.com/mind-engage/diagquest/internal/config"
)

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:           "questctl",
	Short:         "Author, take and review diagnostic tests",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.FromEnv()
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().String("api", "", "API base URL (overrides API_BASE_URL)")
	rootCmd.PersistentFlags().String("token", "", "Bearer token (overrides API_TOKEN)")

	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(pushCmd)
	rootCmd.AddCommand(takeCmd)
	rootCmd.AddCommand(resultCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(catalogCmd)
}

// newClient builds an API client from the environment, with --api and
// --token taking priority.
func newClient(cmd *cobra.Command) (*client.Client, error) {
	cc := client.Config{BaseURL: cfg.APIBaseURL, Token: cfg.APIToken, Timeout: cfg.APITimeout}
	if v, _ := cmd.Flags().GetString("api"); v != "" {
		cc.BaseURL = v
	}
	if v, _ := cmd.Flags().GetString("token"); v != "" {
		cc.Token = v
	}
	return client.New(cc)
}
