package cmd

import (
	"context"
	"fmt"

	"github.com/cubsoftware/cubvault/internal/crypto"
	"github.com/cubsoftware/cubvault/internal/keyring"
	"github.com/cubsoftware/cubvault/internal/remote"
	"github.com/cubsoftware/cubvault/internal/terminal"
	"github.com/spf13/cobra"
)

type authFlags struct {
	email         string
	passwordStdin bool
}

func (f *authFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.email, "email", "e", "", "account email (default: last used)")
	cmd.Flags().BoolVar(&f.passwordStdin, "password-stdin", false, "read the account password from stdin")
}

func newLoginCmd() *cobra.Command {
	var f authFlags
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the sync server",
		Long: `Log in to the sync server. The access token is kept in the OS keyring
and used to sync the vault on every later command.

The account password is separate from the master password; the server only
ever sees the encrypted vault.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return authenticate(cmd, &f, (*remote.Client).Login)
		},
	}
	f.bind(cmd)
	return cmd
}

func newRegisterCmd() *cobra.Command {
	var f authFlags
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account on the sync server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return authenticate(cmd, &f, (*remote.Client).Register)
		},
	}
	f.bind(cmd)
	return cmd
}

type authFunc func(c *remote.Client, ctx context.Context, email, password string) (*remote.AuthResponse, error)

func authenticate(cmd *cobra.Command, f *authFlags, auth authFunc) error {
	app, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cmd.Context()
	email := f.email
	if email == "" {
		email = app.Config.Email
	}
	if email == "" {
		if email, err = terminal.ReadLine(app.in, app.errOut, "Email: "); err != nil {
			return err
		}
	}
	if email == "" {
		return fmt.Errorf("email is required")
	}

	var password []byte
	if f.passwordStdin {
		line, err := terminal.ReadLine(app.in, app.errOut, "")
		if err != nil {
			return err
		}
		password = []byte(line)
	} else if password, err = terminal.ReadPassword("Account password: "); err != nil {
		return err
	}
	defer crypto.ClearBytes(password)

	stop := startSpinner("Contacting " + app.Client.BaseURL() + "...")
	resp, err := auth(app.Client, ctx, email, string(password))
	stop()
	if err != nil {
		return err
	}

	vaultID, err := app.VaultID(ctx)
	if err != nil {
		return err
	}
	if err := keyring.SaveToken(vaultID, resp.AccessToken); err != nil {
		return fmt.Errorf("failed to store session in keyring: %w", err)
	}

	app.Config.Email = resp.User.Email
	if err := app.Config.Save(); err != nil {
		printWarn(app.errOut, "failed to write %s: %s", app.Config.Path(), err)
	}

	printSuccess(app.out, "Logged in as %s", resp.User.Email)

	has, err := app.Vault.HasVault(ctx)
	if err == nil && !has {
		fmt.Fprintln(app.out, "Run 'cubvault ls' to download your vault, or 'cubvault init' to create one")
	}
	return nil
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the sync server session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			vaultID, err := app.VaultID(cmd.Context())
			if err != nil {
				return err
			}
			if err := keyring.DeleteToken(vaultID); err != nil {
				return err
			}
			printSuccess(app.out, "Logged out")
			return nil
		},
	}
}
