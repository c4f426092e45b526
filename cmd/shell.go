package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pable/go-cs-zones/internal/analysis"
	"github.com/pable/go-cs-zones/internal/model"
	"github.com/pable/go-cs-zones/internal/report"
	"github.com/pable/go-cs-zones/internal/storage"
)

var (
	cPrompt   = color.New(color.FgCyan, color.Bold)
	cMuted    = color.New(color.Faint)
	cError    = color.New(color.FgRed, color.Bold)
	cWarn     = color.New(color.FgYellow)
	cHeader   = color.New(color.FgCyan, color.Bold)
	cCmd      = color.New(color.FgYellow, color.Bold)
	cGreeting = color.New(color.Bold)
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive REPL session",
	Long:  "Open a persistent session against the database. Loaded datasets stay cached between commands. Type 'help' for available commands.",
	Args:  cobra.NoArgs,
	RunE:  runShell,
}

// shell is one REPL session: a store and a service whose analyzer cache
// survives across commands.
type shell struct {
	db  *storage.DB
	svc *analysis.Service
}

func runShell(_ *cobra.Command, _ []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()
	sh := &shell{db: db, svc: newService(db)}

	cGreeting.Println("cszones shell")
	cMuted.Println("type 'help' or 'exit'")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		cPrompt.Print("cszones")
		cMuted.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		tokens := strings.Fields(line)
		cmd, args := tokens[0], tokens[1:]

		switch cmd {
		case "exit", "quit":
			return nil
		case "help":
			shellHelp()
		case "list":
			sh.list()
		case "show", "dominance", "entry", "heatmap", "report", "runs", "reload":
			if len(args) == 0 {
				cError.Fprintf(os.Stderr, "usage: %s <id-prefix>\n", cmd)
				continue
			}
			sh.dataset(cmd, args[0], args[1:])
		case "sql":
			if len(args) == 0 {
				cError.Fprintln(os.Stderr, "usage: sql <query>")
				continue
			}
			if err := printQuery(sh.db, strings.Join(args, " ")); err != nil {
				cError.Fprintf(os.Stderr, "error: %v\n", err)
			}
		default:
			cWarn.Fprintf(os.Stderr, "unknown command %q, type 'help'\n", cmd)
		}
	}
	return nil
}

func shellHelp() {
	fmt.Println()
	type entry struct{ cmd, desc string }
	rows := []entry{
		{"list", "list all stored datasets"},
		{"show <id-prefix>", "dataset summary, roster and areas"},
		{"dominance <id-prefix>", "chokepoint counts and winner"},
		{"entry <id-prefix> [team side area]", "average entry time (default Team2 T BombsiteB)"},
		{"heatmap <id-prefix> [team side area]", "heat centroid (default Team2 CT BombsiteB)"},
		{"report <id-prefix> [team area]", "coaching answers"},
		{"runs <id-prefix>", "recorded analysis runs"},
		{"reload <id-prefix>", "drop a cached dataset, e.g. after re-import"},
		{"sql <query>", "raw SQL against the store"},
		{"help", "show this message"},
		{"exit / quit", "close the session"},
	}
	for _, r := range rows {
		fmt.Print("  ")
		cCmd.Printf("%-38s", r.cmd)
		fmt.Println(r.desc)
	}
	fmt.Println()
}

func (sh *shell) list() {
	datasets, err := sh.db.ListDatasets()
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	if len(datasets) == 0 {
		cMuted.Println("No datasets stored yet.")
		return
	}
	report.PrintDatasetTable(os.Stdout, datasets)
}

func (sh *shell) dataset(cmd, prefix string, rest []string) {
	var err error
	switch cmd {
	case "show":
		err = sh.show(prefix)
	case "dominance":
		err = sh.dominance(prefix)
	case "entry":
		err = sh.entry(prefix, rest)
	case "heatmap":
		err = sh.heatmap(prefix, rest)
	case "report":
		err = sh.report(prefix, rest)
	case "runs":
		err = sh.runs(prefix)
	case "reload":
		err = sh.reload(prefix)
	}
	switch {
	case err == nil:
	case analysis.IsDomainError(err):
		cWarn.Fprintf(os.Stderr, "no answer: %v\n", err)
	default:
		cError.Fprintf(os.Stderr, "error: %v\n", err)
	}
}

func (sh *shell) show(prefix string) error {
	l, err := sh.svc.Load(prefix)
	if err != nil {
		return err
	}
	report.PrintDatasetSummary(os.Stdout, l.Dataset)
	cHeader.Println("--- Roster (z band) ---")
	report.PrintRosterTable(os.Stdout, l.Analyzer.Roster())
	cHeader.Println("--- Areas ---")
	report.PrintAreaTable(os.Stdout, l.Frame.AreaCounts())
	return nil
}

func (sh *shell) dominance(prefix string) error {
	res, err := sh.svc.Dominance(prefix)
	if err != nil {
		return err
	}
	report.PrintDominanceTable(os.Stdout, res.Counts)
	cHeader.Printf("held by %s\n", res.Winner)
	return nil
}

// shellQuery reads optional positional [team side area] overrides.
func shellQuery(rest []string, q analysis.Query) (analysis.Query, error) {
	if len(rest) > 0 {
		q.Team = rest[0]
	}
	if len(rest) > 1 {
		side, err := model.ParseSide(rest[1])
		if err != nil {
			return q, err
		}
		q.Side = side
	}
	if len(rest) > 2 {
		q.Area = rest[2]
	}
	return q, nil
}

func (sh *shell) entry(prefix string, rest []string) error {
	q, err := shellQuery(rest, analysis.Query{Team: "Team2", Side: model.SideT, Area: "BombsiteB"})
	if err != nil {
		return err
	}
	res, err := sh.svc.EntryTime(prefix, q)
	if err != nil {
		return err
	}
	report.PrintEntryTable(os.Stdout, res.Detail)
	cHeader.Printf("average entry: %d s\n", res.Average)
	return nil
}

func (sh *shell) heatmap(prefix string, rest []string) error {
	q, err := shellQuery(rest, analysis.Query{Team: "Team2", Side: model.SideCT, Area: "BombsiteB"})
	if err != nil {
		return err
	}
	res, err := sh.svc.Heatmap(prefix, q)
	if err != nil {
		return err
	}
	cHeader.Printf("centroid %s over %d positions\n", res.Centroid, res.Positions)
	return nil
}

func (sh *shell) report(prefix string, rest []string) error {
	team, area := "Team2", "BombsiteB"
	if len(rest) > 0 {
		team = rest[0]
	}
	if len(rest) > 1 {
		area = rest[1]
	}
	b, err := buildBrief(sh.svc, prefix, team, area)
	if err != nil {
		return err
	}
	fmt.Println()
	report.PrintAnswers(os.Stdout, b.Answers)
	return nil
}

func (sh *shell) runs(prefix string) error {
	ds, err := sh.db.GetDatasetByPrefix(prefix)
	if err != nil {
		return err
	}
	if ds == nil {
		return fmt.Errorf("%w: prefix %q", analysis.ErrDatasetNotFound, prefix)
	}
	runs, err := sh.db.ListRuns(ds.ID)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		cMuted.Println("No runs recorded yet.")
		return nil
	}
	report.PrintRunsTable(os.Stdout, runs)
	return nil
}

func (sh *shell) reload(prefix string) error {
	ds, err := sh.db.GetDatasetByPrefix(prefix)
	if err != nil {
		return err
	}
	if ds == nil {
		return fmt.Errorf("%w: prefix %q", analysis.ErrDatasetNotFound, prefix)
	}
	sh.svc.Evict(ds.ID)
	cMuted.Printf("dropped cached analyzer for %s\n", report.ShortID(ds.ID))
	return nil
}
