package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/cubsoftware/cubvault/internal/keyring"
	"github.com/cubsoftware/cubvault/internal/remote"
	"github.com/cubsoftware/cubvault/internal/storage"
	"github.com/cubsoftware/cubvault/internal/vault"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show vault, storage and sync state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return Status(cmd)
		},
	}
}

// Status shows the current state of cubvault. No password is required.
func Status(cmd *cobra.Command) error {
	app, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cmd.Context()
	w := app.out

	fmt.Fprintf(w, "Data directory: %s\n", app.Config.DataDir)
	fmt.Fprintf(w, "Storage:        %s\n", app.Config.Storage)

	has, err := app.Vault.HasVault(ctx)
	if err != nil {
		return err
	}
	if !has {
		fmt.Fprintln(w, "Vault:          none")
		fmt.Fprintln(w, "Run 'cubvault init' to create one")
	} else {
		modified := "unknown"
		if raw, err := app.Store.Get(ctx, vault.KeyLastModified); err == nil {
			if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
				modified = formatMillis(ms)
			}
		} else if !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		fmt.Fprintf(w, "Vault:          present (last modified: %s)\n", modified)
	}

	if bolt, ok := app.Store.(*storage.BoltStore); ok {
		if size, err := bolt.Size(); err == nil {
			fmt.Fprintf(w, "Database size:  %s\n", formatSize(size))
		}
	}

	fmt.Fprintf(w, "Sync server:    %s\n", app.Config.APIBaseURL)

	vaultID, err := app.VaultID(ctx)
	if err != nil {
		return err
	}
	token, err := keyring.GetToken(vaultID)
	switch {
	case err != nil:
		fmt.Fprintln(w, "Session:        keyring unavailable")
	case token == "":
		fmt.Fprintln(w, "Session:        not logged in")
	default:
		fmt.Fprintf(w, "Session:        %s\n", describeToken(token))
	}

	if keyring.HasPassword(vaultID) {
		fmt.Fprintln(w, "Password:       stored in keyring")
	} else {
		fmt.Fprintln(w, "Password:       not stored")
	}
	return nil
}

func describeToken(token string) string {
	exp, err := remote.TokenExpiry(token)
	switch {
	case errors.Is(err, remote.ErrNoExpiry):
		return "logged in"
	case err != nil:
		return "invalid token, run 'cubvault login'"
	case !time.Now().Before(exp):
		return "expired, run 'cubvault login'"
	default:
		return "logged in (expires " + exp.Local().Format("2006-01-02 15:04") + ")"
	}
}
