package cmd

import (
	"context"
	"fmt"

	"github.com/cubsoftware/cubvault/internal/terminal"
	"github.com/spf13/cobra"
)

func newRmCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "rm <id> [id...]",
		Short: "Delete entries",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withVault(cmd, func(ctx context.Context, app *App) error {
				return Remove(ctx, app, args, force)
			})
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "do not ask for confirmation")
	return cmd
}

// Remove deletes entries by ID or title
func Remove(ctx context.Context, app *App, refs []string, force bool) error {
	for _, ref := range refs {
		e, err := findEntry(app, ref)
		if err != nil {
			return err
		}

		if !force {
			ok, err := terminal.Confirm(app.in, app.errOut, fmt.Sprintf("Delete %q?", e.Title))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintf(app.out, "skipped: %s\n", e.Title)
				continue
			}
		}

		if _, err := app.Vault.DeleteEntry(ctx, e.ID); err != nil {
			return err
		}
		printSuccess(app.out, "Deleted %s", e.Title)
	}
	return nil
}
