package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/cubsoftware/cubvault/internal/vault"
	"github.com/spf13/cobra"
)

const mask = "********"

func newShowCmd() *cobra.Command {
	var reveal bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withVault(cmd, func(ctx context.Context, app *App) error {
				e, err := findEntry(app, args[0])
				if err != nil {
					return err
				}
				printEntry(app.out, e, reveal)
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&reveal, "reveal", "r", false, "show passwords and secret fields")
	return cmd
}

// findEntry looks up an entry by exact ID, then by unique case-insensitive title
func findEntry(app *App, ref string) (*vault.PasswordEntry, error) {
	e, err := app.Vault.GetEntry(ref)
	if err != nil || e != nil {
		return e, err
	}

	all, err := app.Vault.GetAllEntries()
	if err != nil {
		return nil, err
	}
	var matches []vault.PasswordEntry
	for _, candidate := range all {
		if strings.EqualFold(candidate.Title, ref) {
			matches = append(matches, candidate)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", vault.ErrEntryNotFound, ref)
	case 1:
		return &matches[0], nil
	default:
		return nil, fmt.Errorf("%d entries are titled %q, use the ID", len(matches), ref)
	}
}

func printEntry(w io.Writer, e *vault.PasswordEntry, reveal bool) {
	secret := func(s string) string {
		if reveal {
			return s
		}
		return mask
	}

	fmt.Fprintf(w, "%s %s\n", accentColor.Sprint(e.Title), mutedColor.Sprintf("(%s)", e.ID))
	fmt.Fprintf(w, "  Username: %s\n", e.Username)
	fmt.Fprintf(w, "  Password: %s\n", secret(e.Password))
	if e.URL != "" {
		fmt.Fprintf(w, "  URL:      %s\n", e.URL)
	}
	if e.Category != "" {
		fmt.Fprintf(w, "  Category: %s\n", e.Category)
	}
	if len(e.Tags) > 0 {
		fmt.Fprintf(w, "  Tags:     %s\n", strings.Join(e.Tags, ", "))
	}
	if e.IsFavorite {
		fmt.Fprintln(w, "  Favorite: yes")
	}
	for _, f := range e.CustomFields {
		value := f.Value
		if f.IsSecret {
			value = secret(value)
		}
		fmt.Fprintf(w, "  %s: %s\n", f.Label, value)
	}
	if e.Notes != "" {
		fmt.Fprintf(w, "  Notes:\n    %s\n", strings.ReplaceAll(e.Notes, "\n", "\n    "))
	}
	fmt.Fprintf(w, "  Created:  %s\n", formatMillis(e.CreatedAt))
	fmt.Fprintf(w, "  Updated:  %s\n", formatMillis(e.UpdatedAt))
	if n := len(e.PasswordHistory); n > 0 {
		fmt.Fprintf(w, "  History:  %d previous passwords\n", n)
		if reveal {
			for _, h := range e.PasswordHistory {
				fmt.Fprintf(w, "    %s  %s\n", formatMillis(h.ChangedAt), h.Password)
			}
		}
	}
}
