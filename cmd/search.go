package cmd

import (
	"context"
	"strings"

	"github.com/cubsoftware/cubvault/internal/vault"
	"github.com/spf13/cobra"
)

func newSearchCmd() *cobra.Command {
	var fuzzy bool

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Find entries by title, username, URL, notes, category or tag",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return withVault(cmd, func(ctx context.Context, app *App) error {
				var (
					entries []vault.PasswordEntry
					err     error
				)
				if fuzzy {
					entries, err = app.Vault.FuzzySearch(query)
				} else {
					entries, err = app.Vault.SearchEntries(query)
				}
				if err != nil {
					return err
				}
				printEntries(app.out, entries)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&fuzzy, "fuzzy", false, "fuzzy match title, username and URL, best match first")
	return cmd
}
