package cmd

import (
	"errors"
	"io/fs"
	"os"

	"github.com/cubsoftware/cubvault/internal/crypto"
	"github.com/spf13/cobra"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create a new vault",
		Long: `Create a new, empty vault protected by a master password.

The password is read from $CUBVAULT_PASSWORD or prompted for twice. If you
are logged in to a sync server the new vault is uploaded right away.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return Init(cmd)
		},
	}
}

// Init creates a new vault in the data directory
func Init(cmd *cobra.Command) error {
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
	if has {
		return ErrAlreadyExists
	}

	password, err := GetPasswordForInit("Enter master password: ")
	if err != nil {
		return err
	}
	defer crypto.ClearBytes(password)

	app.Vault.SetAccessToken(app.Token(ctx))

	stop := startSpinner("Creating vault...")
	err = app.Vault.Create(ctx, string(password))
	stop()
	if err != nil {
		return err
	}

	// Keep the chosen storage and server for later commands
	if _, err := os.Stat(app.Config.Path()); errors.Is(err, fs.ErrNotExist) {
		if err := app.Config.Save(); err != nil {
			printWarn(app.errOut, "failed to write %s: %s", app.Config.Path(), err)
		}
	}

	printSuccess(app.out, "Initialized vault in %s", app.Config.DataDir)
	return nil
}
