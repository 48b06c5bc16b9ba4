package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/cubsoftware/cubvault/internal/vault"
	"github.com/spf13/cobra"
)

func newStatsCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show vault statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withVault(cmd, func(ctx context.Context, app *App) error {
				stats, err := app.Vault.GetStatistics()
				if err != nil {
					return err
				}

				w := app.out
				if jsonOutput {
					enc := json.NewEncoder(w)
					enc.SetIndent("", "  ")
					return enc.Encode(stats)
				}

				printStats(w, stats)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	return cmd
}

func printStats(w io.Writer, stats vault.Statistics) {
	fmt.Fprintf(w, "Entries:          %d\n", stats.TotalEntries)
	fmt.Fprintf(w, "Favorites:        %d\n", stats.Favorites)
	fmt.Fprintf(w, "Weak passwords:   %d\n", stats.WeakPasswords)
	fmt.Fprintf(w, "Reused passwords: %d groups\n", stats.ReusedPasswords)
	fmt.Fprintf(w, "Old passwords:    %d\n", stats.OldPasswords)

	if len(stats.Categories) == 0 {
		return
	}
	fmt.Fprintln(w, "Categories:")
	names := make([]string, 0, len(stats.Categories))
	for name := range stats.Categories {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-16s %d\n", name, stats.Categories[name])
	}
}
