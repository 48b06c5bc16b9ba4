package cmd

import (
	"fmt"

	"github.com/cubsoftware/cubvault/internal/storage"
	"github.com/spf13/cobra"
)

func newCompactCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compact",
		Short: "Reclaim unused space in the bolt database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return Compact(cmd)
		},
	}
}

// Compact compacts the vault database to reclaim unused space
func Compact(cmd *cobra.Command) error {
	app, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	bolt, ok := app.Store.(*storage.BoltStore)
	if !ok {
		fmt.Fprintf(app.out, "Nothing to compact for %s storage\n", app.Config.Storage)
		return nil
	}

	sizeBefore, err := bolt.Size()
	if err != nil {
		return err
	}
	if err := bolt.Compact(); err != nil {
		return err
	}
	sizeAfter, err := bolt.Size()
	if err != nil {
		return err
	}

	fmt.Fprintf(app.out, "Compacted: %s -> %s\n", formatSize(sizeBefore), formatSize(sizeAfter))
	return nil
}
