package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/cubsoftware/cubvault/internal/crypto"
	"github.com/cubsoftware/cubvault/internal/terminal"
	"github.com/cubsoftware/cubvault/internal/vault"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// entryFlags are the entry fields settable from the command line
type entryFlags struct {
	title    string
	username string
	password string
	url      string
	notes    string
	category string
	tags     []string
	fields   []string
	secrets  []string
	favorite bool
	generate bool
}

func (f *entryFlags) bind(fs *pflag.FlagSet) {
	fs.StringVarP(&f.title, "title", "t", "", "entry title")
	fs.StringVarP(&f.username, "username", "u", "", "username or email")
	fs.StringVarP(&f.password, "password", "p", "", "password (prompted for when omitted)")
	fs.StringVar(&f.url, "url", "", "website URL")
	fs.StringVar(&f.notes, "notes", "", "free-form notes")
	fs.StringVarP(&f.category, "category", "c", "", "category, e.g. "+strings.Join(vault.Categories, ", "))
	fs.StringSliceVar(&f.tags, "tag", nil, "tag (repeatable)")
	fs.StringArrayVar(&f.fields, "field", nil, "custom field label=value (repeatable)")
	fs.StringArrayVar(&f.secrets, "secret-field", nil, "secret custom field label=value, e.g. totp=BASE32 (repeatable)")
	fs.BoolVar(&f.favorite, "favorite", false, "mark as favorite")
	fs.BoolVarP(&f.generate, "generate", "g", false, "generate the password using the vault's generator settings")
}

func (f *entryFlags) customFields() ([]vault.CustomField, error) {
	var out []vault.CustomField
	for _, group := range []struct {
		values []string
		secret bool
	}{{f.fields, false}, {f.secrets, true}} {
		for _, kv := range group.values {
			label, value, ok := strings.Cut(kv, "=")
			if !ok || label == "" {
				return nil, fmt.Errorf("invalid field %q, expected label=value", kv)
			}
			out = append(out, vault.CustomField{Label: label, Value: value, IsSecret: group.secret})
		}
	}
	return out, nil
}

// generatePassword creates a password from the vault's generator settings
func generatePassword(app *App) (string, error) {
	settings, err := app.Vault.GetSettings()
	if err != nil {
		return "", err
	}
	return newEngine().GeneratePassword(settings.PasswordGenerator.Options())
}

func newAddCmd() *cobra.Command {
	var f entryFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an entry",
		Example: `  cubvault add -t GitHub -u octocat --url https://github.com -c Development
  cubvault add -t Bank -u me -g --secret-field totp=JBSWY3DPEHPK3PXP`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withVault(cmd, func(ctx context.Context, app *App) error {
				return Add(ctx, app, &f)
			})
		},
	}

	f.bind(cmd.Flags())
	return cmd
}

// Add creates an entry from flags, prompting for anything required that is missing
func Add(ctx context.Context, app *App, f *entryFlags) error {
	var err error
	if f.title == "" {
		if f.title, err = terminal.ReadLine(app.in, app.errOut, "Title: "); err != nil {
			return err
		}
		if f.title == "" {
			return fmt.Errorf("title is required")
		}
	}

	fields, err := f.customFields()
	if err != nil {
		return err
	}

	password := f.password
	switch {
	case f.generate:
		if password, err = generatePassword(app); err != nil {
			return err
		}
	case password == "":
		pw, err := terminal.ReadPassword("Entry password: ")
		if err != nil {
			return err
		}
		password = string(pw)
		crypto.ClearBytes(pw)
	}

	category := f.category
	if category == "" {
		category = vault.CategoryOther
	}

	id, err := app.Vault.AddEntry(ctx, vault.EntryInput{
		Title:        f.title,
		Username:     f.username,
		Password:     password,
		URL:          f.url,
		Notes:        f.notes,
		Category:     category,
		Tags:         f.tags,
		IsFavorite:   f.favorite,
		CustomFields: fields,
	})
	if err != nil {
		return err
	}

	printSuccess(app.out, "Added %s (%s)", f.title, id)
	if f.generate {
		fmt.Fprintln(app.out, "Run 'cubvault copy "+id+"' to copy the generated password")
	}
	return nil
}
