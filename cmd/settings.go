package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/cubsoftware/cubvault/internal/vault"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func newSettingsCmd() *cobra.Command {
	var (
		autoLock       int
		clipboardClear int
		length         int
		upper          bool
		lower          bool
		numbers        bool
		symbols        bool
		noAmbiguous    bool
		requireOnStart bool
		lockMinimize   bool
		lockScreen     bool
	)

	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change vault settings",
		Long: `Show the settings stored inside the vault, or change them with flags.

  cubvault settings --auto-lock 5 --clipboard-clear 15
  cubvault settings --length 24 --symbols=false`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			return withVault(cmd, func(ctx context.Context, app *App) error {
				current, err := app.Vault.GetSettings()
				if err != nil {
					return err
				}

				var upd vault.SettingsUpdate
				if flags.Changed("auto-lock") {
					upd.AutoLockTimeout = &autoLock
				}
				if flags.Changed("clipboard-clear") {
					upd.ClipboardClearTimeout = &clipboardClear
				}
				if anyChanged(flags, "length", "upper", "lower", "numbers", "symbols", "exclude-ambiguous") {
					gen := current.PasswordGenerator
					setIfChanged(flags, "length", &gen.DefaultLength, length)
					setIfChanged(flags, "upper", &gen.IncludeUppercase, upper)
					setIfChanged(flags, "lower", &gen.IncludeLowercase, lower)
					setIfChanged(flags, "numbers", &gen.IncludeNumbers, numbers)
					setIfChanged(flags, "symbols", &gen.IncludeSymbols, symbols)
					setIfChanged(flags, "exclude-ambiguous", &gen.ExcludeAmbiguous, noAmbiguous)
					upd.PasswordGenerator = &gen
				}
				if anyChanged(flags, "require-password", "lock-on-minimize", "lock-on-screen-lock") {
					sec := current.Security
					setIfChanged(flags, "require-password", &sec.RequireMasterPasswordOnStartup, requireOnStart)
					setIfChanged(flags, "lock-on-minimize", &sec.LockOnMinimize, lockMinimize)
					setIfChanged(flags, "lock-on-screen-lock", &sec.LockOnScreenLock, lockScreen)
					upd.Security = &sec
				}

				if upd == (vault.SettingsUpdate{}) {
					printSettings(app.out, current)
					return nil
				}

				if err := app.Vault.UpdateSettings(ctx, upd); err != nil {
					return err
				}
				updated, err := app.Vault.GetSettings()
				if err != nil {
					return err
				}
				printSettings(app.out, updated)
				printSuccess(app.out, "Settings saved")
				return nil
			})
		},
	}

	d := vault.DefaultSettings()
	fs := cmd.Flags()
	fs.IntVar(&autoLock, "auto-lock", d.AutoLockTimeout, "auto-lock timeout in minutes, 0 disables")
	fs.IntVar(&clipboardClear, "clipboard-clear", d.ClipboardClearTimeout, "seconds before a copied secret is cleared, 0 disables")
	fs.IntVar(&length, "length", d.PasswordGenerator.DefaultLength, "generated password length")
	fs.BoolVar(&upper, "upper", true, "generate with uppercase letters")
	fs.BoolVar(&lower, "lower", true, "generate with lowercase letters")
	fs.BoolVar(&numbers, "numbers", true, "generate with digits")
	fs.BoolVar(&symbols, "symbols", true, "generate with symbols")
	fs.BoolVar(&noAmbiguous, "exclude-ambiguous", true, "generate without ambiguous characters")
	fs.BoolVar(&requireOnStart, "require-password", true, "require the master password on startup")
	fs.BoolVar(&lockMinimize, "lock-on-minimize", false, "lock when the app is minimized")
	fs.BoolVar(&lockScreen, "lock-on-screen-lock", true, "lock when the screen locks")
	return cmd
}

func anyChanged(flags *pflag.FlagSet, names ...string) bool {
	for _, name := range names {
		if flags.Changed(name) {
			return true
		}
	}
	return false
}

func setIfChanged[T any](flags *pflag.FlagSet, name string, dst *T, v T) {
	if flags.Changed(name) {
		*dst = v
	}
}

func printSettings(w io.Writer, s vault.Settings) {
	g := s.PasswordGenerator
	fmt.Fprintf(w, "Auto-lock:         %d min\n", s.AutoLockTimeout)
	fmt.Fprintf(w, "Clipboard clear:   %d s\n", s.ClipboardClearTimeout)
	fmt.Fprintf(w, "Generator:         length %d, upper %t, lower %t, numbers %t, symbols %t, exclude ambiguous %t\n",
		g.DefaultLength, g.IncludeUppercase, g.IncludeLowercase, g.IncludeNumbers, g.IncludeSymbols, g.ExcludeAmbiguous)
	fmt.Fprintf(w, "Require password:  %t\n", s.Security.RequireMasterPasswordOnStartup)
	fmt.Fprintf(w, "Lock on minimize:  %t\n", s.Security.LockOnMinimize)
	fmt.Fprintf(w, "Lock on screen:    %t\n", s.Security.LockOnScreenLock)
}
