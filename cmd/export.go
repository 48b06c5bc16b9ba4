package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cubsoftware/cubvault/internal/security"
	"github.com/spf13/cobra"
)

func newExportCmd() *cobra.Command {
	var (
		redact bool
		output string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the vault as JSON",
		Long: `Export the decrypted vault as JSON to stdout or a file.

The export contains your passwords in plain text unless --redact is given.
Files are written with mode 0600.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withVault(cmd, func(ctx context.Context, app *App) error {
				data, err := app.Vault.ExportVault(!redact)
				if err != nil {
					return err
				}

				if output == "" || output == "-" {
					_, err := fmt.Fprintln(app.out, data)
					return err
				}
				if err := writeUserFile(output, []byte(data+"\n")); err != nil {
					return err
				}
				printSuccess(app.errOut, "Exported vault to %s", output)
				if !redact {
					printWarn(app.errOut, "The file contains plain text passwords")
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&redact, "redact", false, "replace passwords with [REDACTED] and drop history")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	return cmd
}

// writeUserFile writes a private file, confined to the directory of path
func writeUserFile(path string, data []byte) error {
	root, err := security.Open(filepath.Dir(path))
	if err != nil {
		return err
	}
	defer root.Close()

	return root.WriteFile(filepath.Base(path), data, 0600)
}

// readUserFile reads path, or stdin when path is "-"
func readUserFile(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}

	dir := filepath.Dir(path)
	if _, err := os.Stat(dir); err != nil {
		return nil, err
	}
	root, err := security.Open(dir)
	if err != nil {
		return nil, err
	}
	defer root.Close()

	return root.ReadFile(filepath.Base(path))
}
