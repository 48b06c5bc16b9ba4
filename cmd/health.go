package cmd

import (
	"github.com/spf13/cobra"
)

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the sync server is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			status, err := app.Client.Health(cmd.Context())
			if err != nil {
				return err
			}
			printSuccess(app.out, "%s: %s", app.Client.BaseURL(), status)
			return nil
		},
	}
}
