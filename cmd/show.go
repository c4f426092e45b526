package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-cs-zones/internal/report"
)

var showCmd = &cobra.Command{
	Use:   "show <id-prefix>",
	Short: "Show a dataset's roster and area breakdown",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	l, err := newService(db).Load(args[0])
	if err != nil {
		return err
	}

	report.PrintDatasetSummary(os.Stdout, l.Dataset)
	a := l.Analyzer
	fmt.Fprintf(os.Stdout, "Chokepoint: %s\nEntry rows: side %s  |  Heatmap rows: side %s\n\n",
		a.Polygon().WKT(), a.EntrySide(), a.HeatmapSide())
	fmt.Fprintln(os.Stdout, "Roster (z band)")
	report.PrintRosterTable(os.Stdout, l.Analyzer.Roster())
	fmt.Fprintln(os.Stdout, "\nAreas")
	report.PrintAreaTable(os.Stdout, l.Frame.AreaCounts())
	return nil
}
