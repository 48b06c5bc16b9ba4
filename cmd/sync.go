package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Pull the server copy of the vault if it is newer",
		Long: `Pull the server copy of the vault if it is newer than the local one.

Sync is whole-vault last-writer-wins: every local change is uploaded as it
is saved, and the newer of the two copies wins on unlock and on sync.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withVault(cmd, func(ctx context.Context, app *App) error {
				stop := startSpinner("Syncing...")
				updated, err := app.Vault.Sync(ctx)
				stop()
				if err != nil {
					return err
				}

				if updated {
					printSuccess(app.out, "Vault updated from server")
				} else {
					fmt.Fprintln(app.out, "Already up to date")
				}
				return nil
			})
		},
	}
}
