package cmd

import (
	"github.com/spf13/cobra"
)

type globalFlags struct {
	dataDir string
	storage string
	api     string
	verbose bool
	debug   bool
}

var globals globalFlags

// NewRootCmd builds the cubvault command tree
func NewRootCmd() *cobra.Command {
	globals = globalFlags{}

	root := &cobra.Command{
		Use:   "cubvault",
		Short: "CubVault - an encrypted password vault with optional sync",
		Long: `CubVault keeps your passwords in a single vault encrypted with your
master password (PBKDF2-SHA256 + AES-256-GCM). The vault lives in a local
data directory and can be synchronised with a CubVault server.

The master password is read from $CUBVAULT_PASSWORD, the OS keyring, or
prompted for.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&globals.dataDir, "data-dir", "", "data directory (default $CUBVAULT_DATA_DIR or ~/.cubvault)")
	pf.StringVar(&globals.storage, "storage", "", "storage backend: bolt, sqlite, file or memory")
	pf.StringVar(&globals.api, "api", "", "sync server base URL")
	pf.BoolVarP(&globals.verbose, "verbose", "v", false, "enable verbose output")
	pf.BoolVarP(&globals.debug, "debug", "d", false, "enable debug output")

	root.AddGroup(
		&cobra.Group{ID: "vault", Title: "Vault:"},
		&cobra.Group{ID: "entries", Title: "Entries:"},
		&cobra.Group{ID: "tools", Title: "Password tools:"},
		&cobra.Group{ID: "sync", Title: "Sync:"},
	)

	addToGroup(root, "vault",
		newInitCmd(), newStatusCmd(), newPasswdCmd(), newSettingsCmd(),
		newExportCmd(), newImportCmd(), newCompactCmd(), newKeyringCmd(), newShellCmd(),
	)
	addToGroup(root, "entries",
		newLsCmd(), newShowCmd(), newAddCmd(), newEditCmd(), newRmCmd(),
		newSearchCmd(), newCopyCmd(), newTOTPCmd(),
	)
	addToGroup(root, "tools",
		newGenerateCmd(), newStrengthCmd(), newAuditCmd(), newStatsCmd(),
	)
	addToGroup(root, "sync",
		newLoginCmd(), newRegisterCmd(), newLogoutCmd(), newSyncCmd(), newDiffCmd(), newHealthCmd(),
	)
	root.AddCommand(newCompletionCmd(root))

	return root
}

func addToGroup(root *cobra.Command, group string, cmds ...*cobra.Command) {
	for _, c := range cmds {
		c.GroupID = group
		root.AddCommand(c)
	}
}
