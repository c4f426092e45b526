package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pable/go-cs-zones/internal/analysis"
	"github.com/pable/go-cs-zones/internal/model"
)

// queryFlags holds the --team/--side/--area flags shared by the area commands.
type queryFlags struct {
	team, side, area string
}

func (f *queryFlags) register(cmd *cobra.Command, team string, side model.Side, area string) {
	cmd.Flags().StringVar(&f.team, "team", team, "team label")
	cmd.Flags().StringVar(&f.side, "side", side.String(), "side: T or CT")
	cmd.Flags().StringVar(&f.area, "area", area, "named area")
}

func (f *queryFlags) query() (analysis.Query, error) {
	side, err := model.ParseSide(f.side)
	if err != nil {
		return analysis.Query{}, fmt.Errorf("--side: %w", err)
	}
	return analysis.Query{Team: f.team, Side: side, Area: f.area}, nil
}
