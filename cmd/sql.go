package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pable/go-cs-zones/internal/report"
)

var sqlCmd = &cobra.Command{
	Use:   "sql <query>",
	Short: "Run a raw SQL query against the zones database",
	Long: `Run an arbitrary SQL query against the zones database and print results as a table.

Schema overview:
  datasets(id, name, map_name, source_path, sample_count, imported_at)
  samples(dataset_id, seq, team, side, player, x, y, z, area_name, seconds,
    is_alive, inventory JSON)
  analysis_runs(id, dataset_id, kind, team, side, area, result, err, created_at)

Example: cszones sql "SELECT area_name, COUNT(*) FROM samples GROUP BY area_name"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSQL,
}

func runSQL(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()
	return printQuery(db, strings.Join(args, " "))
}

type rawQuerier interface {
	QueryRaw(query string) ([]string, [][]string, error)
}

func printQuery(db rawQuerier, query string) error {
	cols, rows, err := db.QueryRaw(query)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println("(no rows)")
		return nil
	}
	report.PrintRawTable(os.Stdout, cols, rows)
	fmt.Fprintf(os.Stdout, "\n(%d rows)\n", len(rows))
	return nil
}
