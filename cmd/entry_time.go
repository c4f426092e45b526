package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-cs-zones/internal/model"
	"github.com/pable/go-cs-zones/internal/report"
)

var entryFlags queryFlags

var entryTimeCmd = &cobra.Command{
	Use:   "entry-time <id-prefix>",
	Short: "Average second at which a team/side enters an area armed with rifles or SMGs",
	Long: `Extract each player's contiguous runs of seconds spent in the area with a
qualifying primary weapon, keep the runs that start before another run ends,
and average their start seconds (floor).

The side filter matches the configured entry side label (entry.side), which
defaults to T.`,
	Args: cobra.ExactArgs(1),
	RunE: runEntryTime,
}

func init() {
	entryFlags.register(entryTimeCmd, "Team2", model.SideT, "BombsiteB")
}

func runEntryTime(cmd *cobra.Command, args []string) error {
	q, err := entryFlags.query()
	if err != nil {
		return err
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	res, err := newService(db).EntryTime(args[0], q)
	if err != nil {
		return err
	}
	report.PrintEntryTable(os.Stdout, res.Detail)
	fmt.Fprintf(os.Stdout, "\n%s/%s enters %s at %d seconds on average\n", q.Team, q.Side, q.Area, res.Average)
	return nil
}
