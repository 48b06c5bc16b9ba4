package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newDiffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diff",
		Short: "Compare the local vault with the server copy",
		Long:  "Compare the local vault with the server copy. Passwords are redacted on both sides.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withVault(cmd, Diff)
		},
	}
}

// Diff prints a colored line diff of the local and server vaults
func Diff(ctx context.Context, app *App) error {
	diff, err := app.Vault.DiffWithServer(ctx)
	if err != nil {
		return err
	}
	if diff == "" {
		fmt.Fprintln(app.out, "No differences")
		return nil
	}

	for _, line := range strings.SplitAfter(diff, "\n") {
		switch {
		case strings.HasPrefix(line, "---"), strings.HasPrefix(line, "+++"):
			fmt.Fprint(app.out, accentColor.Sprint(line))
		case strings.HasPrefix(line, "-"):
			fmt.Fprint(app.out, errorColor.Sprint(line))
		case strings.HasPrefix(line, "+"):
			fmt.Fprint(app.out, successColor.Sprint(line))
		default:
			fmt.Fprint(app.out, line)
		}
	}
	return nil
}
