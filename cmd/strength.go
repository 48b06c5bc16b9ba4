package cmd

import (
	"fmt"
	"io"

	"github.com/cubsoftware/cubvault/internal/crypto"
	"github.com/cubsoftware/cubvault/internal/terminal"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newStrengthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "strength [password]",
		Short: "Rate a password",
		Long:  "Rate a password. It is prompted for without echo when not given.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var password string
			if len(args) == 1 {
				password = args[0]
			} else {
				pw, err := terminal.ReadPassword("Password: ")
				if err != nil {
					return err
				}
				password = string(pw)
				crypto.ClearBytes(pw)
			}

			printStrength(cmd.OutOrStdout(), crypto.CalculatePasswordStrength(password))
			return nil
		},
	}
}

func ratingColor(r string) *color.Color {
	switch r {
	case crypto.RatingVeryWeak, crypto.RatingWeak:
		return errorColor
	case crypto.RatingFair:
		return warnColor
	default:
		return successColor
	}
}

func printStrength(w io.Writer, s crypto.PasswordStrength) {
	fmt.Fprintf(w, "Score:      %d/100\n", s.Score)
	fmt.Fprintf(w, "Rating:     %s\n", ratingColor(s.Rating).Sprint(s.Rating))
	fmt.Fprintf(w, "Crack time: %s\n", s.EstimatedCrackTime)
	for _, f := range s.Feedback {
		fmt.Fprintf(w, "  - %s\n", f)
	}
}
