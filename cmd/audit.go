package cmd

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/cubsoftware/cubvault/internal/vault"
	"github.com/spf13/cobra"
)

func newAuditCmd() *cobra.Command {
	var months int

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Report weak, reused and old passwords",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withVault(cmd, func(ctx context.Context, app *App) error {
				return Audit(app, months)
			})
		},
	}

	cmd.Flags().IntVarP(&months, "months", "m", vault.DefaultOldPasswordMonths, "passwords unchanged for longer than this many months are old")
	return cmd
}

// Audit prints the password health report
func Audit(app *App, months int) error {
	weak, err := app.Vault.GetWeakPasswords()
	if err != nil {
		return err
	}
	reused, err := app.Vault.GetReusedPasswords()
	if err != nil {
		return err
	}
	old, err := app.Vault.GetOldPasswords(months)
	if err != nil {
		return err
	}

	w := app.out
	auditSection(w, fmt.Sprintf("Weak passwords (%d)", len(weak)), weak)

	// The map is keyed by password, so never print keys
	groups := make([][]vault.PasswordEntry, 0, len(reused))
	for _, group := range reused {
		groups = append(groups, group)
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i][0].Title < groups[j][0].Title
	})
	fmt.Fprintln(w, accentColor.Sprintf("Reused passwords (%d groups)", len(groups)))
	if len(groups) == 0 {
		fmt.Fprintln(w, "  none")
	}
	for i, group := range groups {
		fmt.Fprintf(w, "  group %d:\n", i+1)
		for _, e := range group {
			fmt.Fprintf(w, "    %s  %s\n", e.Title, mutedColor.Sprint(e.ID))
		}
	}

	auditSection(w, fmt.Sprintf("Passwords older than %d months (%d)", months, len(old)), old)

	if len(weak)+len(groups)+len(old) == 0 {
		printSuccess(w, "No problems found")
	}
	return nil
}

func auditSection(w io.Writer, title string, entries []vault.PasswordEntry) {
	fmt.Fprintln(w, accentColor.Sprint(title))
	if len(entries) == 0 {
		fmt.Fprintln(w, "  none")
		return
	}
	for _, e := range entries {
		fmt.Fprintf(w, "  %s  %s\n", e.Title, mutedColor.Sprint(e.ID))
	}
}
