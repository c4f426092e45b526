package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-cs-zones/internal/report"
)

var runsCmd = &cobra.Command{
	Use:   "runs <id-prefix>",
	Short: "List recorded analysis runs for a dataset",
	Args:  cobra.ExactArgs(1),
	RunE:  runRuns,
}

func runRuns(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	ds, err := db.GetDatasetByPrefix(args[0])
	if err != nil {
		return fmt.Errorf("query dataset: %w", err)
	}
	if ds == nil {
		fmt.Fprintf(os.Stderr, "No dataset found with ID prefix %q\n", args[0])
		return nil
	}
	runs, err := db.ListRuns(ds.ID)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Fprintln(os.Stdout, "No runs recorded for this dataset yet.")
		return nil
	}
	report.PrintRunsTable(os.Stdout, runs)
	return nil
}
