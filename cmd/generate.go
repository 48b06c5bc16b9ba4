package cmd

import (
	"fmt"

	"github.com/cubsoftware/cubvault/internal/vault"
	"github.com/spf13/cobra"
)

func newGenerateCmd() *cobra.Command {
	defaults := vault.DefaultSettings().PasswordGenerator
	var (
		length    int
		count     int
		noUpper   bool
		noLower   bool
		noNumbers bool
		noSymbols bool
		ambiguous bool
		quiet     bool
	)

	cmd := &cobra.Command{
		Use:     "generate",
		Aliases: []string{"gen"},
		Short:   "Generate random passwords",
		Long: `Generate random passwords. No vault is needed.

Ambiguous characters (I, l, O, 0, 1, i, o) are left out unless --ambiguous
is given. Deselecting every character class falls back to lowercase
letters and digits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := defaults.Options()
			opts.Length = length
			opts.IncludeUppercase = !noUpper
			opts.IncludeLowercase = !noLower
			opts.IncludeNumbers = !noNumbers
			opts.IncludeSymbols = !noSymbols
			opts.ExcludeAmbiguous = !ambiguous

			engine := newEngine()
			w := cmd.OutOrStdout()
			for i := 0; i < count; i++ {
				password, err := engine.GeneratePassword(opts)
				if err != nil {
					return err
				}
				if quiet {
					fmt.Fprintln(w, password)
					continue
				}
				strength := engine.CalculatePasswordStrength(password)
				fmt.Fprintf(w, "%s  %s\n", password, mutedColor.Sprintf("(%s, %d/100)", strength.Rating, strength.Score))
			}
			return nil
		},
	}

	fs := cmd.Flags()
	fs.IntVarP(&length, "length", "l", defaults.DefaultLength, "password length")
	fs.IntVarP(&count, "count", "n", 1, "number of passwords")
	fs.BoolVar(&noUpper, "no-upper", false, "leave out uppercase letters")
	fs.BoolVar(&noLower, "no-lower", false, "leave out lowercase letters")
	fs.BoolVar(&noNumbers, "no-numbers", false, "leave out digits")
	fs.BoolVar(&noSymbols, "no-symbols", false, "leave out symbols")
	fs.BoolVar(&ambiguous, "ambiguous", false, "allow ambiguous characters")
	fs.BoolVarP(&quiet, "quiet", "q", false, "print only the passwords")
	return cmd
}
