package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-cs-zones/internal/model"
)

var heatmapFlags queryFlags

var heatmapCmd = &cobra.Command{
	Use:   "heatmap <id-prefix>",
	Short: "Floored centroid of a team/side's positions inside an area",
	Args:  cobra.ExactArgs(1),
	RunE:  runHeatmap,
}

func init() {
	heatmapFlags.register(heatmapCmd, "Team2", model.SideCT, "BombsiteB")
}

func runHeatmap(cmd *cobra.Command, args []string) error {
	q, err := heatmapFlags.query()
	if err != nil {
		return err
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	res, err := newService(db).Heatmap(args[0], q)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "%s/%s in %s: centroid %s over %d positions\n",
		q.Team, q.Side, q.Area, res.Centroid, res.Positions)
	return nil
}
