package cmd

import (
	"fmt"

	"github.com/cubsoftware/cubvault/internal/crypto"
	"github.com/cubsoftware/cubvault/internal/keyring"
	"github.com/cubsoftware/cubvault/internal/terminal"
	"github.com/cubsoftware/cubvault/internal/vault"
	"github.com/spf13/cobra"
)

func newKeyringCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keyring",
		Short: "Manage the master password stored in the OS keyring",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "save",
			Short: "Store the master password in the OS keyring",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return KeyringSave(cmd)
			},
		},
		&cobra.Command{
			Use:   "delete",
			Short: "Remove the master password from the OS keyring",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return KeyringDelete(cmd)
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show whether the master password is stored",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return KeyringStatus(cmd)
			},
		},
	)
	return cmd
}

// KeyringSave verifies the master password and saves it to the OS keyring
func KeyringSave(cmd *cobra.Command) error {
	app, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cmd.Context()
	has, err := app.Vault.HasVault(ctx)
	if err != nil {
		return err
	}
	if !has {
		return vault.ErrNoVault
	}

	password, err := GetPassword("Enter master password: ")
	if err != nil {
		return err
	}
	defer crypto.ClearBytes(password)

	// Verify password is correct
	stop := startSpinner("Checking password...")
	err = app.Vault.Unlock(ctx, string(password))
	stop()
	if err != nil {
		return err
	}

	vaultID, err := app.VaultID(ctx)
	if err != nil {
		return err
	}
	if err := keyring.SavePassword(vaultID, string(password)); err != nil {
		return fmt.Errorf("failed to save to keyring: %w", err)
	}

	printSuccess(app.out, "Password saved to keyring")
	return nil
}

// KeyringDelete removes the master password from the OS keyring
func KeyringDelete(cmd *cobra.Command) error {
	app, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	vaultID, err := app.VaultID(cmd.Context())
	if err != nil {
		return err
	}
	if !keyring.HasPassword(vaultID) {
		fmt.Fprintln(app.out, "No password stored in keyring")
		return nil
	}

	ok, err := terminal.Confirm(app.in, app.errOut, "Remove the stored master password?")
	if err != nil || !ok {
		return err
	}
	if err := keyring.DeletePassword(vaultID); err != nil {
		return err
	}

	printSuccess(app.out, "Password removed from keyring")
	return nil
}

// KeyringStatus reports whether a master password is stored
func KeyringStatus(cmd *cobra.Command) error {
	app, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	vaultID, err := app.VaultID(cmd.Context())
	if err != nil {
		return err
	}
	if keyring.HasPassword(vaultID) {
		fmt.Fprintln(app.out, "Password: stored in keyring")
	} else {
		fmt.Fprintln(app.out, "Password: not stored")
	}
	return nil
}
