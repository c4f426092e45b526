// Package aggregator answers the three zone questions over a loaded sample
// set: chokepoint dominance, average site entry time, and heat centroid.
package aggregator

import (
	"math"
	"sort"

	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/pable/go-cs-zones/internal/geometry"
	"github.com/pable/go-cs-zones/internal/intervals"
	"github.com/pable/go-cs-zones/internal/model"
	"github.com/pable/go-cs-zones/internal/telemetry"
)

// Source is the read-only sample collection the analyzer queries.
type Source interface {
	WithinZ(zMin, zMax float64) []model.Sample
	Select(f telemetry.Filter) []model.Sample
}

// Analyzer holds the roster and polygon built once at construction. Every
// query recomputes its filtered view, so an Analyzer is safe for concurrent use.
type Analyzer struct {
	src       Source
	poly      geometry.Polygon
	cfg       settings
	banded    []model.Sample
	roster    *Roster
	qualifies intervals.Qualifier
}

// New builds an Analyzer over src with the given chokepoint polygon.
func New(src Source, poly geometry.Polygon, opts ...Option) *Analyzer {
	cfg := defaultSettings()
	for _, opt := range opts {
		opt(&cfg)
	}
	banded := src.WithinZ(cfg.zMin, cfg.zMax)
	return &Analyzer{
		src:       src,
		poly:      poly,
		cfg:       cfg,
		banded:    banded,
		roster:    NewRoster(banded),
		qualifies: intervals.WeaponClassIn(cfg.entryClasses...),
	}
}

// Roster returns the (team, side) player index.
func (a *Analyzer) Roster() *Roster { return a.roster }

// Polygon returns the chokepoint polygon.
func (a *Analyzer) Polygon() geometry.Polygon { return a.poly }

// EntrySide is the side label entry timing filters on.
func (a *Analyzer) EntrySide() model.Side { return a.cfg.entrySide }

// HeatmapSide is the side label the heat centroid filters on.
func (a *Analyzer) HeatmapSide() model.Side { return a.cfg.heatmapSide }

// ---- Dominance ----

// KeyCount is the number of distinct in-polygon points for one (team, side).
type KeyCount struct {
	Key   model.Key `json:"key"`
	Count int       `json:"count"`
}

// DominanceCounts counts distinct (x, y, team, side) points inside the
// polygon per key. Keys with no interior point are omitted. The result is
// ordered by count descending, then key ascending.
func (a *Analyzer) DominanceCounts() []KeyCount {
	type point struct {
		x, y float64
		key  model.Key
	}
	seen := make(map[point]struct{})
	counts := make(map[model.Key]int)
	for _, s := range a.banded {
		p := point{x: s.Pos.X, y: s.Pos.Y, key: model.Key{Team: s.Team, Side: s.Side}}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		if a.poly.Contains(geom.XY{X: p.x, Y: p.y}) {
			counts[p.key]++
		}
	}

	out := make([]KeyCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, KeyCount{Key: k, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key.Less(out[j].Key)
	})
	return out
}

// Dominance returns the key with the most distinct points inside the
// polygon. Ties go to the lexicographically smallest (team, side).
func (a *Analyzer) Dominance() (model.Key, error) {
	counts := a.DominanceCounts()
	if len(counts) == 0 {
		return model.Key{}, &EmptyResultError{Op: model.RunDominance}
	}
	a.cfg.log.Debug().Str("key", counts[0].Key.String()).Int("points", counts[0].Count).Msg("chokepoint dominance")
	return counts[0].Key, nil
}

// ---- Entry time ----

// PlayerIntervals is one roster member's qualifying intervals in an area.
type PlayerIntervals struct {
	Player    string           `json:"player"`
	Intervals []model.Interval `json:"intervals"`
}

// EntryDetail is the intermediate state behind AverageEntryTime.
type EntryDetail struct {
	Players  []PlayerIntervals
	Overlaps *intervals.OverlapMap
}

// EntryIntervals extracts each roster member's intervals in area while alive,
// carrying a qualifying weapon and labelled with the configured entry side,
// then relates the pooled intervals.
func (a *Analyzer) EntryIntervals(team string, side model.Side, area string) EntryDetail {
	var detail EntryDetail
	var pooled []model.Interval
	for _, player := range a.roster.Players(model.Key{Team: team, Side: side}) {
		rows := a.src.Select(telemetry.Filter{
			Team:      team,
			Side:      a.cfg.entrySide,
			Player:    player,
			Area:      area,
			AliveOnly: true,
			Exact:     true,
		})
		ivs := intervals.Extract(rows, a.qualifies)
		a.cfg.log.Debug().Str("player", player).Int("samples", len(rows)).Int("intervals", len(ivs)).Msg("entry intervals")
		detail.Players = append(detail.Players, PlayerIntervals{Player: player, Intervals: ivs})
		pooled = append(pooled, ivs...)
	}
	detail.Overlaps = intervals.GroupOverlaps(pooled)
	return detail
}

// EntryTime returns the interval detail together with its average: the
// start of every distinct interval summed and divided by the number of
// intervals that have at least one overlapping partner.
func (a *Analyzer) EntryTime(team string, side model.Side, area string) (EntryDetail, int, error) {
	d := a.EntryIntervals(team, side, area)
	denom := d.Overlaps.WithPartner()
	if denom == 0 {
		return d, 0, &NoQualifyingIntervalError{Team: team, Side: side, Area: area, Intervals: d.Overlaps.Len()}
	}
	return d, d.Overlaps.StartSum() / denom, nil
}

// AverageEntryTime is EntryTime without the detail.
func (a *Analyzer) AverageEntryTime(team string, side model.Side, area string) (int, error) {
	_, avg, err := a.EntryTime(team, side, area)
	return avg, err
}

// ---- Heat centroid ----

// HeatPositions returns each roster member's distinct alive positions in
// area under the configured heatmap side, pooled across players.
func (a *Analyzer) HeatPositions(team string, side model.Side, area string) []model.Position {
	var pooled []model.Position
	for _, player := range a.roster.Players(model.Key{Team: team, Side: side}) {
		rows := a.src.Select(telemetry.Filter{
			Team:      team,
			Side:      a.cfg.heatmapSide,
			Player:    player,
			Area:      area,
			AliveOnly: true,
			Exact:     true,
		})
		seen := make(map[model.Position]struct{}, len(rows))
		for _, s := range rows {
			if _, dup := seen[s.Pos]; dup {
				continue
			}
			seen[s.Pos] = struct{}{}
			pooled = append(pooled, s.Pos)
		}
	}
	return pooled
}

// HeatCentroid returns the floored per-coordinate mean of HeatPositions
// along with the positions it was computed from.
func (a *Analyzer) HeatCentroid(team string, side model.Side, area string) (model.Centroid, []model.Position, error) {
	positions := a.HeatPositions(team, side, area)
	if len(positions) == 0 {
		return model.Centroid{}, nil, &EmptyResultError{Op: model.RunHeatmap, Team: team, Side: side, Area: area}
	}
	var sx, sy, sz float64
	for _, p := range positions {
		sx += p.X
		sy += p.Y
		sz += p.Z
	}
	n := float64(len(positions))
	return model.Centroid{
		X: int(math.Floor(sx / n)),
		Y: int(math.Floor(sy / n)),
		Z: int(math.Floor(sz / n)),
	}, positions, nil
}

// Centroid is HeatCentroid without the positions.
func (a *Analyzer) Centroid(team string, side model.Side, area string) (model.Centroid, error) {
	c, _, err := a.HeatCentroid(team, side, area)
	return c, err
}
