package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-cs-zones/internal/report"
)

var dominanceCmd = &cobra.Command{
	Use:   "dominance <id-prefix>",
	Short: "Show which team/side most often holds the chokepoint",
	Long: `Count the distinct positions each (team, side) occupies inside the chokepoint
polygon, restricted to the roster z band, and report the leader. Ties go to the
lexicographically smallest team, then side.`,
	Args: cobra.ExactArgs(1),
	RunE: runDominance,
}

func runDominance(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	res, err := newService(db).Dominance(args[0])
	if err != nil {
		return err
	}
	report.PrintDominanceTable(os.Stdout, res.Counts)
	fmt.Fprintf(os.Stdout, "\nChokepoint held by %s\n", res.Winner)
	return nil
}
