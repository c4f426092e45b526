// Package report renders datasets and zone analysis results as terminal tables.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/pable/go-cs-zones/internal/aggregator"
	"github.com/pable/go-cs-zones/internal/model"
	"github.com/pable/go-cs-zones/internal/telemetry"
)

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
}

// ShortID trims a dataset ID for display.
func ShortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

// PrintDatasetSummary prints a one-line summary header for the dataset.
func PrintDatasetSummary(w io.Writer, ds model.Dataset) {
	mapName := ds.MapName
	if mapName == "" {
		mapName = "—"
	}
	fmt.Fprintf(w, "\nDataset: %s  |  Map: %s  |  Samples: %d  |  Imported: %s  |  ID: %s\n\n",
		ds.Name, mapName, ds.SampleCount, ds.ImportedAt.Local().Format("2006-01-02 15:04"), ShortID(ds.ID))
}

// PrintDatasetTable lists stored datasets.
func PrintDatasetTable(w io.Writer, datasets []model.Dataset) {
	table := newTable(w)
	table.Header("ID", "NAME", "MAP", "SAMPLES", "IMPORTED")
	for _, ds := range datasets {
		table.Append(
			ShortID(ds.ID),
			ds.Name,
			ds.MapName,
			strconv.Itoa(ds.SampleCount),
			ds.ImportedAt.Local().Format("2006-01-02 15:04"),
		)
	}
	table.Render()
}

// PrintRosterTable prints every (team, side) with its in-band players.
func PrintRosterTable(w io.Writer, r *aggregator.Roster) {
	table := newTable(w)
	table.Header("TEAM", "SIDE", "N", "PLAYERS")
	for _, k := range r.Keys() {
		players := r.Players(k)
		table.Append(k.Team, k.Side.String(), strconv.Itoa(len(players)), strings.Join(players, ", "))
	}
	table.Render()
}

// PrintAreaTable prints sample counts per named area.
func PrintAreaTable(w io.Writer, areas []telemetry.AreaCount) {
	table := newTable(w)
	table.Header("AREA", "SAMPLES")
	for _, a := range areas {
		name := a.Area
		if name == "" {
			name = "(none)"
		}
		table.Append(name, strconv.Itoa(a.Samples))
	}
	table.Render()
}

// PrintDominanceTable prints distinct in-chokepoint points per key.
// The leading row, if any, is marked with ">".
func PrintDominanceTable(w io.Writer, counts []aggregator.KeyCount) {
	table := newTable(w)
	table.Header(" ", "TEAM", "SIDE", "POINTS")
	for i, c := range counts {
		marker := " "
		if i == 0 {
			marker = ">"
		}
		table.Append(marker, c.Key.Team, c.Key.Side.String(), strconv.Itoa(c.Count))
	}
	table.Render()
}

// PrintEntryTable prints each extracted interval with its owner and the
// number of pooled intervals that overlap it.
func PrintEntryTable(w io.Writer, d aggregator.EntryDetail) {
	table := newTable(w)
	table.Header("PLAYER", "START", "END", "LEN", "PARTNERS")
	for _, p := range d.Players {
		if len(p.Intervals) == 0 {
			table.Append(p.Player, "—", "—", "0", "—")
			continue
		}
		for _, iv := range p.Intervals {
			partners := "—"
			if d.Overlaps != nil && d.Overlaps.Has(iv) {
				partners = strconv.Itoa(len(d.Overlaps.Overlaps(iv)))
			}
			table.Append(
				p.Player,
				strconv.Itoa(iv.Start),
				strconv.Itoa(iv.End),
				strconv.Itoa(iv.End-iv.Start+1),
				partners,
			)
		}
	}
	table.Render()
	if d.Overlaps != nil {
		fmt.Fprintf(w, "distinct intervals: %d  |  with partner: %d  |  start sum: %d\n",
			d.Overlaps.Len(), d.Overlaps.WithPartner(), d.Overlaps.StartSum())
	}
}

// PrintRunsTable lists recorded analysis runs.
func PrintRunsTable(w io.Writer, runs []model.AnalysisRun) {
	table := newTable(w)
	table.Header("RUN", "KIND", "TEAM", "SIDE", "AREA", "RESULT", "AT")
	for _, r := range runs {
		result := r.Result
		if r.Err != "" {
			result = "error: " + r.Err
		}
		table.Append(
			ShortID(r.ID),
			r.Kind,
			dash(r.Team),
			dash(r.Side),
			dash(r.Area),
			result,
			r.CreatedAt.Local().Format(time.DateTime),
		)
	}
	table.Render()
}

// PrintRawTable prints arbitrary query output.
func PrintRawTable(w io.Writer, cols []string, rows [][]string) {
	table := newTable(w)
	colsAny := make([]any, len(cols))
	for i, c := range cols {
		colsAny[i] = c
	}
	table.Header(colsAny...)

	for _, row := range rows {
		rowAny := make([]any, len(row))
		for i, v := range row {
			rowAny[i] = v
		}
		table.Append(rowAny...)
	}
	table.Render()
}

// Answer is one coaching question with its computed answer.
type Answer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// PrintAnswers prints question/answer pairs as plain paragraphs.
func PrintAnswers(w io.Writer, answers []Answer) {
	for _, a := range answers {
		fmt.Fprintf(w, "%s\n%s\n\n", a.Question, a.Answer)
	}
}

func dash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}
