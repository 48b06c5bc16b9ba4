package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/cubsoftware/cubvault/internal/vault"
	"github.com/spf13/cobra"
)

func newLsCmd() *cobra.Command {
	var (
		category  string
		favorites bool
	)

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List entries",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withVault(cmd, func(ctx context.Context, app *App) error {
				var (
					entries []vault.PasswordEntry
					err     error
				)
				switch {
				case favorites:
					entries, err = app.Vault.GetFavorites()
				case category != "":
					entries, err = app.Vault.GetEntriesByCategory(category)
				default:
					entries, err = app.Vault.GetAllEntries()
				}
				if err != nil {
					return err
				}
				printEntries(app.out, entries)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "only entries in this category")
	cmd.Flags().BoolVarP(&favorites, "favorites", "f", false, "only favorite entries")
	return cmd
}

func printEntries(w io.Writer, entries []vault.PasswordEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No entries")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tUSERNAME\tCATEGORY\tTAGS")
	for _, e := range entries {
		title := e.Title
		if e.IsFavorite {
			title += " " + warnColor.Sprint("★")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.ID, title, e.Username, e.Category, strings.Join(e.Tags, ","))
	}
	tw.Flush()

	fmt.Fprintln(w, mutedColor.Sprintf("%d entries", len(entries)))
}
