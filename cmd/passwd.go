package cmd

import (
	"fmt"

	"github.com/cubsoftware/cubvault/internal/crypto"
	"github.com/cubsoftware/cubvault/internal/keyring"
	"github.com/cubsoftware/cubvault/internal/storage"
	"github.com/cubsoftware/cubvault/internal/terminal"
	"github.com/spf13/cobra"
)

func newPasswdCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "passwd",
		Short: "Change the master password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return Passwd(cmd)
		},
	}
}

// Passwd re-encrypts the vault under a new master password
func Passwd(cmd *cobra.Command) error {
	app, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cmd.Context()
	currentPassword, err := app.unlock(ctx)
	if err != nil {
		return err
	}
	defer crypto.ClearBytes(currentPassword)

	newPassword, err := terminal.ReadPasswordConfirm("Enter new master password: ")
	if err != nil {
		return err
	}
	defer crypto.ClearBytes(newPassword)

	stop := startSpinner("Re-encrypting vault...")
	ok, err := app.Vault.ChangePassword(ctx, string(currentPassword), string(newPassword))
	stop()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("failed to change password")
	}

	// Keep the keyring in step when a password was stored there
	if vaultID, err := app.VaultID(ctx); err == nil && keyring.HasPassword(vaultID) {
		if err := keyring.SavePassword(vaultID, string(newPassword)); err == nil {
			fmt.Fprintln(app.out, "Keyring updated with new password")
		}
	}

	// The old ciphertext is still in free pages until compaction
	if bolt, ok := app.Store.(*storage.BoltStore); ok {
		if err := bolt.Compact(); err != nil {
			printWarn(app.errOut, "compaction failed: %s", err)
		}
	}

	printSuccess(app.out, "Master password changed")
	return nil
}
