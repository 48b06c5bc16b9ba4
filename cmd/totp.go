package cmd

import (
	"context"
	"fmt"

	"github.com/cubsoftware/cubvault/internal/vault"
	"github.com/spf13/cobra"
)

func newTOTPCmd() *cobra.Command {
	var (
		field  string
		toClip bool
	)

	cmd := &cobra.Command{
		Use:   "totp <id>",
		Short: "Print the current one-time code of an entry",
		Long: `Print the current TOTP code of an entry.

The secret is read from a custom field (default "totp") holding either an
otpauth:// URI or a base32 secret:

  cubvault edit GitHub --secret-field totp=JBSWY3DPEHPK3PXP`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withVault(cmd, func(ctx context.Context, app *App) error {
				e, err := findEntry(app, args[0])
				if err != nil {
					return err
				}
				code, err := app.Vault.EntryTOTP(e.ID, field)
				if err != nil {
					return err
				}

				if toClip {
					if err := clipboardWrite(code); err != nil {
						return fmt.Errorf("failed to copy to clipboard: %w", err)
					}
					printSuccess(app.out, "Copied code for %s", e.Title)
					return nil
				}
				fmt.Fprintln(app.out, code)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&field, "field", "f", vault.DefaultTOTPField, "custom field holding the secret")
	cmd.Flags().BoolVarP(&toClip, "copy", "c", false, "copy the code instead of printing it")
	return cmd
}
