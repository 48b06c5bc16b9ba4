package cmd

import (
	"context"
	"fmt"

	"github.com/cubsoftware/cubvault/internal/vault"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func newEditCmd() *cobra.Command {
	var f entryFlags

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of an entry",
		Long: `Change fields of an entry. Only the flags you pass are changed.
A new password moves the old one into the entry's history.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withVault(cmd, func(ctx context.Context, app *App) error {
				return Edit(ctx, app, args[0], &f, cmd.Flags())
			})
		},
	}

	f.bind(cmd.Flags())
	return cmd
}

// Edit applies the changed flags to an entry
func Edit(ctx context.Context, app *App, ref string, f *entryFlags, flags *pflag.FlagSet) error {
	e, err := findEntry(app, ref)
	if err != nil {
		return err
	}

	var upd vault.EntryUpdate
	if flags.Changed("title") {
		upd.Title = &f.title
	}
	if flags.Changed("username") {
		upd.Username = &f.username
	}
	if flags.Changed("password") {
		upd.Password = &f.password
	}
	if flags.Changed("url") {
		upd.URL = &f.url
	}
	if flags.Changed("notes") {
		upd.Notes = &f.notes
	}
	if flags.Changed("category") {
		upd.Category = &f.category
	}
	if flags.Changed("tag") {
		upd.Tags = &f.tags
	}
	if flags.Changed("favorite") {
		upd.IsFavorite = &f.favorite
	}
	if flags.Changed("field") || flags.Changed("secret-field") {
		fields, err := f.customFields()
		if err != nil {
			return err
		}
		upd.CustomFields = &fields
	}
	if f.generate {
		password, err := generatePassword(app)
		if err != nil {
			return err
		}
		upd.Password = &password
	}

	if upd == (vault.EntryUpdate{}) {
		return fmt.Errorf("nothing to change, see 'cubvault edit --help'")
	}

	ok, err := app.Vault.UpdateEntry(ctx, e.ID, upd)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", vault.ErrEntryNotFound, ref)
	}

	printSuccess(app.out, "Updated %s", e.Title)
	return nil
}
