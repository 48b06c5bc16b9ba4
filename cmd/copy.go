package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/cubsoftware/cubvault/internal/vault"
	"github.com/spf13/cobra"
)

// Clipboard access, replaced in tests
var (
	clipboardWrite = clipboard.WriteAll
	clipboardRead  = clipboard.ReadAll
)

func newCopyCmd() *cobra.Command {
	var (
		field    string
		username bool
		noClear  bool
	)

	cmd := &cobra.Command{
		Use:   "copy <id>",
		Short: "Copy a password to the clipboard",
		Long: `Copy an entry's password, username or custom field to the clipboard.

The clipboard is cleared after the vault's clipboard timeout unless it was
changed in the meantime. The command waits until then; press Ctrl-C to
clear it right away.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx := cmd.Context()
			if err := app.Unlock(ctx); err != nil {
				return err
			}

			e, err := findEntry(app, args[0])
			if err != nil {
				return err
			}
			value, what, err := pickValue(e, field, username)
			if err != nil {
				return err
			}
			settings, err := app.Vault.GetSettings()
			if err != nil {
				return err
			}

			// Nothing else needs the vault while we wait
			app.Vault.LockVault()

			if err := clipboardWrite(value); err != nil {
				return fmt.Errorf("failed to copy to clipboard: %w", err)
			}

			timeout := time.Duration(settings.ClipboardClearTimeout) * time.Second
			if noClear || timeout <= 0 {
				printSuccess(app.out, "Copied %s of %s", what, e.Title)
				return nil
			}

			printSuccess(app.out, "Copied %s of %s, clearing in %s", what, e.Title, timeout)
			clearClipboardAfter(ctx, value, timeout)
			return nil
		},
	}

	cmd.Flags().StringVarP(&field, "field", "f", "", "copy the custom field with this label")
	cmd.Flags().BoolVarP(&username, "username", "u", false, "copy the username")
	cmd.Flags().BoolVar(&noClear, "no-clear", false, "leave the value on the clipboard")
	return cmd
}

func pickValue(e *vault.PasswordEntry, field string, username bool) (value, what string, err error) {
	switch {
	case field != "":
		for _, f := range e.CustomFields {
			if strings.EqualFold(f.Label, field) {
				return f.Value, f.Label, nil
			}
		}
		return "", "", fmt.Errorf("%w: %s", vault.ErrFieldNotFound, field)
	case username:
		return e.Username, "username", nil
	default:
		return e.Password, "password", nil
	}
}

// clearClipboardAfter empties the clipboard after d, or when ctx ends, if
// it still holds value
func clearClipboardAfter(ctx context.Context, value string, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
	case <-ctx.Done():
	}

	if current, err := clipboardRead(); err == nil && current == value {
		_ = clipboardWrite("")
	}
}
