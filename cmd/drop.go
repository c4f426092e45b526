package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var dropForce bool

// dropCmd deletes the zones database file.
var dropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Delete the zones database",
	Long:  "Permanently delete the SQLite zones database. Every imported dataset and recorded run is lost; re-import your files afterwards.",
	Args:  cobra.NoArgs,
	RunE:  runDrop,
}

func init() {
	dropCmd.Flags().BoolVarP(&dropForce, "force", "f", false, "skip confirmation prompt")
}

func runDrop(cmd *cobra.Command, args []string) error {
	if !dropForce {
		fmt.Fprintf(os.Stderr, "This will permanently delete: %s\n", cfg.DB)
		fmt.Fprintf(os.Stderr, "Re-run with --force to confirm.\n")
		return nil
	}
	removed := false
	for _, path := range []string{cfg.DB, cfg.DB + "-wal", cfg.DB + "-shm"} {
		if err := os.Remove(path); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("remove %s: %w", path, err)
		}
		removed = true
	}
	if !removed {
		fmt.Fprintln(os.Stdout, "Database does not exist, nothing to drop.")
		return nil
	}
	log.Info().Str("path", cfg.DB).Msg("database dropped")
	fmt.Fprintf(os.Stdout, "Deleted: %s\n", cfg.DB)
	return nil
}
