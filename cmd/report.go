package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-cs-zones/internal/analysis"
	"github.com/pable/go-cs-zones/internal/model"
	"github.com/pable/go-cs-zones/internal/report"
)

var (
	reportTeam string
	reportArea string
)

var reportCmd = &cobra.Command{
	Use:   "report <id-prefix>",
	Short: "Answer the coaching questions for one team",
	Long: `Run dominance, T-side entry time and CT-side heatmap for one team and print
the answers as a coaching brief.`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportTeam, "team", "Team2", "team to brief on")
	reportCmd.Flags().StringVar(&reportArea, "area", "BombsiteB", "site used for entry time and heatmap")
}

func runReport(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	b, err := buildBrief(newService(db), args[0], reportTeam, reportArea)
	if err != nil {
		return err
	}
	report.PrintAnswers(os.Stdout, b.Answers)
	return nil
}

// brief is the coaching answers plus the raw results behind them.
type brief struct {
	DatasetID string                    `json:"dataset_id"`
	Answers   []report.Answer           `json:"answers"`
	Dominance *analysis.DominanceResult `json:"dominance,omitempty"`
	Entry     *analysis.EntryResult     `json:"entry_time,omitempty"`
	Heatmap   *analysis.HeatmapResult   `json:"heatmap,omitempty"`
}

// buildBrief answers the three coaching questions for team. Domain errors
// become "no answer" text; any other error aborts.
func buildBrief(svc *analysis.Service, prefix, team, area string) (*brief, error) {
	l, err := svc.Load(prefix)
	if err != nil {
		return nil, err
	}
	b := &brief{DatasetID: l.Dataset.ID}
	tKey := model.Key{Team: team, Side: model.SideT}

	q := fmt.Sprintf("Is entering via the chokepoint a common strategy used by %s on T side?", team)
	dom, err := svc.Dominance(l.Dataset.ID)
	switch {
	case err == nil:
		b.Dominance = dom
		b.Answers = append(b.Answers, report.Answer{Question: q, Answer: fmt.Sprintf(
			"%t, %s on %s side uses the chokepoint the most.", dom.Winner == tKey, dom.Winner.Team, dom.Winner.Side)})
	case analysis.IsDomainError(err):
		b.Answers = append(b.Answers, report.Answer{Question: q, Answer: "No answer: " + err.Error()})
	default:
		return nil, err
	}

	q = fmt.Sprintf("At what second does %s on T side enter %s with at least two rifles or SMGs?", team, area)
	entry, err := svc.EntryTime(l.Dataset.ID, analysis.Query{Team: team, Side: model.SideT, Area: area})
	switch {
	case err == nil:
		b.Entry = entry
		b.Answers = append(b.Answers, report.Answer{Question: q, Answer: fmt.Sprintf(
			"%d seconds on average, over %d intervals of which %d overlap another player's.",
			entry.Average, entry.Intervals, entry.WithPartner)})
	case analysis.IsDomainError(err):
		b.Answers = append(b.Answers, report.Answer{Question: q, Answer: "No answer: " + err.Error()})
	default:
		return nil, err
	}

	q = fmt.Sprintf("On CT side, where does %s wait inside %s?", team, area)
	heat, err := svc.Heatmap(l.Dataset.ID, analysis.Query{Team: team, Side: model.SideCT, Area: area})
	switch {
	case err == nil:
		b.Heatmap = heat
		b.Answers = append(b.Answers, report.Answer{Question: q, Answer: fmt.Sprintf(
			"Around %s, averaged over %d positions.", heat.Centroid, heat.Positions)})
	case analysis.IsDomainError(err):
		b.Answers = append(b.Answers, report.Answer{Question: q, Answer: "No answer: " + err.Error()})
	default:
		return nil, err
	}
	return b, nil
}
