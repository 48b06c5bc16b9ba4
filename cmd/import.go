package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

func newImportCmd() *cobra.Command {
	var replace bool

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import entries from a JSON export",
		Long: `Import entries from a file written by 'cubvault export' ("-" reads stdin).

By default entries are merged: an entry whose URL and username match an
existing one is skipped, and imported entries get new IDs. With --replace
all current entries are replaced.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withVault(cmd, func(ctx context.Context, app *App) error {
				data, err := readUserFile(args[0], app.in)
				if err != nil {
					return err
				}

				n, err := app.Vault.ImportVault(ctx, string(data), replace)
				if err != nil {
					return err
				}
				printSuccess(app.out, "Imported %d entries", n)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&replace, "replace", false, "replace all entries instead of merging")
	return cmd
}
