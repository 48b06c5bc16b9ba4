package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCompletionCmd(root *cobra.Command) *cobra.Command {
	return &cobra.Command{
		Use:   "completion <bash|zsh|fish>",
		Short: "Generate shell completions",
		Long: `Output the shell completion script for the given shell.

  # Bash - add to ~/.bashrc
  eval "$(cubvault completion bash)"

  # Zsh - add to ~/.zshrc
  eval "$(cubvault completion zsh)"

  # Fish - add to ~/.config/fish/config.fish
  cubvault completion fish | source`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"bash", "zsh", "fish"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(out, true)
			case "zsh":
				return root.GenZshCompletion(out)
			case "fish":
				return root.GenFishCompletion(out, true)
			default:
				return fmt.Errorf("unknown shell %q, supported: bash, zsh, fish", args[0])
			}
		},
	}
}
