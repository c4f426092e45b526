package aggregator_test

import (
	"errors"
	"reflect"
	"slices"
	"strings"
	"testing"

	"github.com/pable/go-cs-zones/internal/aggregator"
	"github.com/pable/go-cs-zones/internal/geometry"
	"github.com/pable/go-cs-zones/internal/model"
	"github.com/pable/go-cs-zones/internal/telemetry"
)

const playZ = 300 // inside the default [285, 421] band

// Points well inside the default chokepoint, and one outside it.
var (
	interior = []model.Position{
		{X: -2200, Y: 700, Z: playZ},
		{X: -2210, Y: 700, Z: playZ},
		{X: -2220, Y: 700, Z: playZ},
		{X: -2200, Y: 710, Z: playZ},
		{X: -2200, Y: 720, Z: playZ},
		{X: -2210, Y: 710, Z: playZ},
	}
	exterior = model.Position{X: -1000, Y: 700, Z: playZ}
)

func at(team string, side model.Side, player string, pos model.Position) model.Sample {
	return model.Sample{Team: team, Side: side, Player: player, Pos: pos, AreaName: "Mid", IsAlive: true}
}

func armed(team string, side model.Side, player, area string, seconds int, class string) model.Sample {
	return model.Sample{
		Team: team, Side: side, Player: player, AreaName: area,
		Pos: model.Position{X: -1500, Y: 200, Z: playZ}, Seconds: seconds, IsAlive: true,
		Inventory: []model.Item{{WeaponClass: class}},
	}
}

func analyzer(samples []model.Sample, opts ...aggregator.Option) *aggregator.Analyzer {
	return aggregator.New(telemetry.NewFrame(samples), geometry.MustDefault(), opts...)
}

func TestRoster(t *testing.T) {
	samples := []model.Sample{
		at("Team2", model.SideT, "P1", model.Position{Z: 300}),
		at("Team2", model.SideT, "P2", model.Position{Z: 285}),
		at("Team2", model.SideT, "P3", model.Position{Z: 421}),
		at("Team2", model.SideT, "Ghost", model.Position{Z: 500}),
		at("Team1", model.SideCT, "P4", model.Position{Z: 284.9}),
		at("Team1", model.SideT, "P5", model.Position{Z: 350}),
	}
	a := analyzer(samples)

	got := a.Roster().Players(model.Key{Team: "Team2", Side: model.SideT})
	if want := []string{"P1", "P2", "P3"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Team2/T players = %v, want %v", got, want)
	}
	if got := a.Roster().Players(model.Key{Team: "Team1", Side: model.SideCT}); got != nil {
		t.Errorf("out-of-band key should be absent, got %v", got)
	}
	wantKeys := []model.Key{{Team: "Team1", Side: model.SideT}, {Team: "Team2", Side: model.SideT}}
	if got := a.Roster().Keys(); !reflect.DeepEqual(got, wantKeys) {
		t.Errorf("Keys = %v, want %v", got, wantKeys)
	}
}

func TestRoster_WithZBand(t *testing.T) {
	samples := []model.Sample{
		at("Team2", model.SideT, "Ghost", model.Position{Z: 500}),
		at("Team1", model.SideCT, "P4", model.Position{Z: 284.9}),
	}
	wide := analyzer(samples, aggregator.WithZBand(0, 1000))
	if !slices.Contains(wide.Roster().Players(model.Key{Team: "Team2", Side: model.SideT}), "Ghost") {
		t.Error("widened band should include Ghost")
	}
	if got := wide.Roster().Players(model.Key{Team: "Team1", Side: model.SideCT}); !reflect.DeepEqual(got, []string{"P4"}) {
		t.Errorf("Team1/CT players = %v, want [P4]", got)
	}
}

func TestDominance(t *testing.T) {
	var samples []model.Sample
	for _, p := range interior {
		samples = append(samples, at("Team2", model.SideT, "P1", p))
	}
	for _, p := range interior[:3] {
		samples = append(samples, at("Team1", model.SideCT, "P7", p))
	}
	for _, p := range interior[:2] {
		samples = append(samples, at("Team1", model.SideT, "P8", p))
	}
	for i := 0; i < 10; i++ {
		samples = append(samples, at("Team2", model.SideCT, "P9", exterior))
	}
	a := analyzer(samples)

	key, err := a.Dominance()
	if err != nil {
		t.Fatalf("Dominance: %v", err)
	}
	if want := (model.Key{Team: "Team2", Side: model.SideT}); key != want {
		t.Errorf("Dominance = %v, want %v", key, want)
	}

	want := []aggregator.KeyCount{
		{Key: model.Key{Team: "Team2", Side: model.SideT}, Count: 6},
		{Key: model.Key{Team: "Team1", Side: model.SideCT}, Count: 3},
		{Key: model.Key{Team: "Team1", Side: model.SideT}, Count: 2},
	}
	if got := a.DominanceCounts(); !reflect.DeepEqual(got, want) {
		t.Errorf("DominanceCounts = %v, want %v", got, want)
	}
}

func TestDominance_DistinctPoints(t *testing.T) {
	var samples []model.Sample
	for i := 0; i < 20; i++ {
		samples = append(samples, at("Team1", model.SideCT, "P1", interior[0]))
	}
	samples = append(samples,
		at("Team2", model.SideT, "P2", interior[0]),
		at("Team2", model.SideT, "P3", interior[1]),
	)

	key, err := analyzer(samples).Dominance()
	if err != nil {
		t.Fatalf("Dominance: %v", err)
	}
	if want := (model.Key{Team: "Team2", Side: model.SideT}); key != want {
		t.Errorf("repeated points should count once: got %v, want %v", key, want)
	}
}

func TestDominance_IgnoresOutOfBand(t *testing.T) {
	samples := []model.Sample{at("Team2", model.SideT, "P1", interior[0])}
	for _, p := range interior {
		p.Z = 1000
		samples = append(samples, at("Team1", model.SideCT, "P2", p))
	}

	key, err := analyzer(samples).Dominance()
	if err != nil {
		t.Fatalf("Dominance: %v", err)
	}
	if want := (model.Key{Team: "Team2", Side: model.SideT}); key != want {
		t.Errorf("Dominance = %v, want %v", key, want)
	}
}

func TestDominance_TieGoesToSmallestKey(t *testing.T) {
	samples := []model.Sample{
		at("TeamB", model.SideT, "P1", interior[0]),
		at("TeamB", model.SideT, "P1", interior[1]),
		at("TeamA", model.SideT, "P2", interior[2]),
		at("TeamA", model.SideT, "P2", interior[3]),
		at("TeamA", model.SideCT, "P3", interior[4]),
		at("TeamA", model.SideCT, "P3", interior[5]),
	}

	key, err := analyzer(samples).Dominance()
	if err != nil {
		t.Fatalf("Dominance: %v", err)
	}
	if want := (model.Key{Team: "TeamA", Side: model.SideCT}); key != want {
		t.Errorf("Dominance = %v, want %v", key, want)
	}
}

func TestDominance_Empty(t *testing.T) {
	_, err := analyzer([]model.Sample{at("Team1", model.SideT, "P1", exterior)}).Dominance()
	if !errors.Is(err, aggregator.ErrEmptyResult) {
		t.Fatalf("expected ErrEmptyResult, got %v", err)
	}
	var ere *aggregator.EmptyResultError
	if !errors.As(err, &ere) || ere.Op != model.RunDominance {
		t.Errorf("expected EmptyResultError for %s, got %v", model.RunDominance, err)
	}
}

const site = "BombsiteB"

func TestAverageEntryTime(t *testing.T) {
	samples := []model.Sample{
		armed("Team2", model.SideT, "P1", site, 10, model.ClassRifle),
		armed("Team2", model.SideT, "P1", site, 11, model.ClassRifle),
		armed("Team2", model.SideT, "P1", site, 12, model.ClassRifle),
		armed("Team2", model.SideT, "P1", site, 20, model.ClassRifle),
		armed("Team2", model.SideT, "P2", site, 11, model.ClassSMG),
		armed("Team2", model.SideT, "P2", site, 12, model.ClassSMG),
		armed("Team2", model.SideT, "P2", site, 13, model.ClassSMG),
		armed("Team2", model.SideT, "P2", site, 14, model.ClassSMG),
		// Excluded: pistol, other area, dead.
		armed("Team2", model.SideT, "P2", site, 15, model.ClassPistol),
		armed("Team2", model.SideT, "P1", "Mid", 40, model.ClassRifle),
	}
	dead := armed("Team2", model.SideT, "P1", site, 30, model.ClassRifle)
	dead.IsAlive = false
	samples = append(samples, dead)
	a := analyzer(samples)

	d := a.EntryIntervals("Team2", model.SideT, site)
	wantPlayers := []aggregator.PlayerIntervals{
		{Player: "P1", Intervals: []model.Interval{{Start: 10, End: 12}, {Start: 20, End: 20}}},
		{Player: "P2", Intervals: []model.Interval{{Start: 11, End: 14}}},
	}
	if !reflect.DeepEqual(d.Players, wantPlayers) {
		t.Errorf("Players = %+v, want %+v", d.Players, wantPlayers)
	}
	if d.Overlaps.Len() != 3 || d.Overlaps.WithPartner() != 3 {
		t.Errorf("overlaps: %d intervals, %d with partner; want 3 and 3", d.Overlaps.Len(), d.Overlaps.WithPartner())
	}

	avg, err := a.AverageEntryTime("Team2", model.SideT, site)
	if err != nil {
		t.Fatalf("AverageEntryTime: %v", err)
	}
	if want := (10 + 20 + 11) / 3; avg != want {
		t.Errorf("AverageEntryTime = %d, want %d", avg, want)
	}
}

func TestEntryTime_DetailMatchesAverage(t *testing.T) {
	a := analyzer([]model.Sample{
		armed("Team2", model.SideT, "P1", site, 4, model.ClassRifle),
		armed("Team2", model.SideT, "P2", site, 5, model.ClassRifle),
	})

	d, avg, err := a.EntryTime("Team2", model.SideT, site)
	if err != nil {
		t.Fatalf("EntryTime: %v", err)
	}
	if d.Overlaps.Len() != 2 || d.Overlaps.WithPartner() != 1 {
		t.Errorf("overlaps: %d intervals, %d with partner; want 2 and 1", d.Overlaps.Len(), d.Overlaps.WithPartner())
	}
	if avg != 9 {
		t.Errorf("average = %d, want 9", avg)
	}

	// The detail is returned even when no interval has a partner.
	d, _, err = analyzer([]model.Sample{armed("Team2", model.SideT, "P1", site, 4, model.ClassRifle)}).
		EntryTime("Team2", model.SideT, site)
	if !errors.Is(err, aggregator.ErrNoQualifyingEntry) {
		t.Fatalf("expected ErrNoQualifyingEntry, got %v", err)
	}
	if len(d.Players) != 1 || d.Overlaps.Len() != 1 {
		t.Errorf("detail = %+v, want one player with one interval", d.Players)
	}
}

func TestAverageEntryTime_LoneInterval(t *testing.T) {
	a := analyzer([]model.Sample{armed("Team2", model.SideT, "P1", site, 5, model.ClassRifle)})

	_, err := a.AverageEntryTime("Team2", model.SideT, site)
	if !errors.Is(err, aggregator.ErrNoQualifyingEntry) {
		t.Fatalf("expected ErrNoQualifyingEntry, got %v", err)
	}
	var nqe *aggregator.NoQualifyingIntervalError
	if !errors.As(err, &nqe) {
		t.Fatalf("expected NoQualifyingIntervalError, got %T", err)
	}
	if nqe.Team != "Team2" || nqe.Area != site || nqe.Intervals != 1 {
		t.Errorf("unexpected error context %+v", nqe)
	}
}

func TestAverageEntryTime_UnknownTeam(t *testing.T) {
	a := analyzer([]model.Sample{armed("Team1", model.SideT, "P1", site, 5, model.ClassRifle)})
	if _, err := a.AverageEntryTime("Team9", model.SideT, "Nowhere"); !errors.Is(err, aggregator.ErrNoQualifyingEntry) {
		t.Errorf("expected ErrNoQualifyingEntry, got %v", err)
	}
}

func TestAverageEntryTime_EntrySide(t *testing.T) {
	samples := []model.Sample{
		armed("Team2", model.SideCT, "P1", site, 10, model.ClassRifle),
		armed("Team2", model.SideCT, "P1", site, 11, model.ClassRifle),
		armed("Team2", model.SideCT, "P2", site, 10, model.ClassRifle),
		armed("Team2", model.SideCT, "P2", site, 11, model.ClassRifle),
		armed("Team2", model.SideCT, "P2", site, 12, model.ClassRifle),
	}

	if _, err := analyzer(samples).AverageEntryTime("Team2", model.SideCT, site); !errors.Is(err, aggregator.ErrNoQualifyingEntry) {
		t.Errorf("default entry side T should find nothing, got %v", err)
	}

	a := analyzer(samples, aggregator.WithEntrySide(model.SideCT))
	if a.EntrySide() != model.SideCT {
		t.Errorf("EntrySide = %s, want CT", a.EntrySide())
	}
	avg, err := a.AverageEntryTime("Team2", model.SideCT, site)
	if err != nil {
		t.Fatalf("AverageEntryTime: %v", err)
	}
	// (10,11) and (10,12): each starts before the other ends.
	if want := (10 + 10) / 2; avg != want {
		t.Errorf("AverageEntryTime = %d, want %d", avg, want)
	}
}

func TestAverageEntryTime_CustomClasses(t *testing.T) {
	a := analyzer([]model.Sample{
		armed("Team2", model.SideT, "P1", site, 3, model.ClassHeavy),
		armed("Team2", model.SideT, "P2", site, 4, model.ClassHeavy),
	}, aggregator.WithEntryClasses(model.ClassHeavy))

	avg, err := a.AverageEntryTime("Team2", model.SideT, site)
	if err != nil {
		t.Fatalf("AverageEntryTime: %v", err)
	}
	// Only (4,4) gains a partner: 3 < 4 holds, 4 < 3 does not.
	if want := (3 + 4) / 1; avg != want {
		t.Errorf("AverageEntryTime = %d, want %d", avg, want)
	}
}

func TestAverageEntryTime_RoundStartReset(t *testing.T) {
	// P1's seconds start at 0, so the reset offset wraps to the last value:
	// 0,1,2 becomes 3,4,5. Only (3,5) gains a partner, from (1,2).
	a := analyzer([]model.Sample{
		armed("Team2", model.SideT, "P1", site, 0, model.ClassRifle),
		armed("Team2", model.SideT, "P1", site, 1, model.ClassRifle),
		armed("Team2", model.SideT, "P1", site, 2, model.ClassRifle),
		armed("Team2", model.SideT, "P2", site, 1, model.ClassRifle),
		armed("Team2", model.SideT, "P2", site, 2, model.ClassRifle),
	})

	d, avg, err := a.EntryTime("Team2", model.SideT, site)
	if err != nil {
		t.Fatalf("EntryTime: %v", err)
	}
	if got := d.Players[0].Intervals; !reflect.DeepEqual(got, []model.Interval{{Start: 3, End: 5}}) {
		t.Errorf("P1 intervals = %v, want [{3 5}]", got)
	}
	if want := (3 + 1) / 1; avg != want {
		t.Errorf("average = %d, want %d", avg, want)
	}
}

func TestAverageEntryTime_EmptyAreaMatchesOnlyUnnamed(t *testing.T) {
	a := analyzer([]model.Sample{
		armed("Team2", model.SideT, "P1", "Long", 5, model.ClassRifle),
		armed("Team2", model.SideT, "P1", "Long", 6, model.ClassRifle),
		armed("Team2", model.SideT, "P2", "Short", 4, model.ClassRifle),
		armed("Team2", model.SideT, "P2", "Short", 8, model.ClassRifle),
	})

	// Pooling Long and Short would give partners; an empty area must not.
	_, err := a.AverageEntryTime("Team2", model.SideT, "")
	var nqe *aggregator.NoQualifyingIntervalError
	if !errors.As(err, &nqe) {
		t.Fatalf("expected NoQualifyingIntervalError, got %v", err)
	}
	if nqe.Intervals != 0 {
		t.Errorf("empty area matched %d intervals, want 0", nqe.Intervals)
	}
}

func inSite(player string, x, y, z float64) model.Sample {
	return model.Sample{
		Team: "Team2", Side: model.SideCT, Player: player, AreaName: site,
		Pos: model.Position{X: x, Y: y, Z: z}, IsAlive: true,
	}
}

// anchor puts a player in the roster; its area is not queried.
func anchor(player string) model.Sample {
	return at("Team2", model.SideCT, player, model.Position{Z: playZ})
}

func TestCentroid(t *testing.T) {
	a := analyzer([]model.Sample{
		anchor("P1"), anchor("P2"),
		inSite("P1", 0, 0, 0),
		inSite("P1", 2, 0, 0),
		inSite("P2", 1, 3, 6),
	})

	c, err := a.Centroid("Team2", model.SideCT, site)
	if err != nil {
		t.Fatalf("Centroid: %v", err)
	}
	if want := (model.Centroid{X: 1, Y: 1, Z: 2}); c != want {
		t.Errorf("Centroid = %v, want %v", c, want)
	}
}

func TestCentroid_DedupePerPlayer(t *testing.T) {
	a := analyzer([]model.Sample{
		anchor("P1"), anchor("P2"),
		inSite("P1", 0, 0, 0),
		inSite("P1", 0, 0, 0),
		inSite("P1", 0, 0, 0),
		inSite("P1", 9, 0, 0),
		inSite("P2", 0, 0, 0),
	})

	if got := len(a.HeatPositions("Team2", model.SideCT, site)); got != 3 {
		t.Errorf("HeatPositions = %d, want 3", got)
	}
	c, positions, err := a.HeatCentroid("Team2", model.SideCT, site)
	if err != nil {
		t.Fatalf("HeatCentroid: %v", err)
	}
	if c.X != 3 {
		t.Errorf("X = %d, want 3", c.X)
	}
	if len(positions) != 3 {
		t.Errorf("HeatCentroid positions = %d, want 3", len(positions))
	}
}

func TestCentroid_FloorsNegative(t *testing.T) {
	a := analyzer([]model.Sample{
		anchor("P1"),
		inSite("P1", -1, -2, 0),
		inSite("P1", 0, -1, 1),
	})

	c, err := a.Centroid("Team2", model.SideCT, site)
	if err != nil {
		t.Fatalf("Centroid: %v", err)
	}
	if want := (model.Centroid{X: -1, Y: -2, Z: 0}); c != want {
		t.Errorf("Centroid = %v, want %v", c, want)
	}
}

func TestCentroid_DeadAndOtherSideExcluded(t *testing.T) {
	dead := inSite("P1", 100, 100, 100)
	dead.IsAlive = false
	tRow := inSite("P1", 200, 200, 200)
	tRow.Side = model.SideT
	a := analyzer([]model.Sample{anchor("P1"), dead, tRow})

	_, err := a.Centroid("Team2", model.SideCT, site)
	if !errors.Is(err, aggregator.ErrEmptyResult) {
		t.Fatalf("expected ErrEmptyResult, got %v", err)
	}
	var ere *aggregator.EmptyResultError
	if !errors.As(err, &ere) || ere.Op != model.RunHeatmap || ere.Area != site {
		t.Errorf("unexpected error context %v", err)
	}
	if !strings.Contains(err.Error(), "Team2/CT") {
		t.Errorf("error should name the query: %v", err)
	}
}

func TestCentroid_UnknownTeam(t *testing.T) {
	a := analyzer([]model.Sample{anchor("P1")})
	if _, err := a.Centroid("Team9", model.SideCT, site); !errors.Is(err, aggregator.ErrEmptyResult) {
		t.Errorf("expected ErrEmptyResult, got %v", err)
	}
}

func TestCentroid_EmptyAreaMatchesOnlyUnnamed(t *testing.T) {
	a := analyzer([]model.Sample{anchor("P1"), inSite("P1", 5, 5, 5)})

	// anchor rows carry "Mid" and inSite rows carry the site name.
	if _, err := a.Centroid("Team2", model.SideCT, ""); !errors.Is(err, aggregator.ErrEmptyResult) {
		t.Errorf("expected ErrEmptyResult for an empty area, got %v", err)
	}

	unnamed := inSite("P1", 7, 7, 7)
	unnamed.AreaName = ""
	c, err := analyzer([]model.Sample{anchor("P1"), inSite("P1", 5, 5, 5), unnamed}).Centroid("Team2", model.SideCT, "")
	if err != nil {
		t.Fatalf("Centroid: %v", err)
	}
	if want := (model.Centroid{X: 7, Y: 7, Z: 7}); c != want {
		t.Errorf("Centroid = %v, want %v", c, want)
	}
}

func TestCentroid_HeatmapSide(t *testing.T) {
	tRow := inSite("P1", 8, 8, 8)
	tRow.Side = model.SideT
	a := analyzer([]model.Sample{anchor("P1"), tRow}, aggregator.WithHeatmapSide(model.SideT))

	c, err := a.Centroid("Team2", model.SideCT, site)
	if err != nil {
		t.Fatalf("Centroid: %v", err)
	}
	if want := (model.Centroid{X: 8, Y: 8, Z: 8}); c != want {
		t.Errorf("T-labelled rows should count for the CT roster: got %v, want %v", c, want)
	}
}
