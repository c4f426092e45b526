package storage

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/pable/go-cs-zones/internal/model"
)

func openMemDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func fixtureSamples() []model.Sample {
	return []model.Sample{
		{
			Team: "Team2", Side: model.SideT, Player: "Player5",
			Pos: model.Position{X: -2200.5, Y: 700, Z: 300}, AreaName: "BombsiteB",
			Seconds: 12, IsAlive: true,
			Inventory: []model.Item{{WeaponClass: model.ClassRifle, WeaponName: "AK-47"}, {WeaponClass: model.ClassGrenade}},
		},
		{
			Team: "Team1", Side: model.SideCT, Player: "Player0",
			Pos: model.Position{X: -1000, Y: 200, Z: 500}, AreaName: "",
			Seconds: 0, IsAlive: false,
		},
	}
}

func TestDatasetInsertAndExists(t *testing.T) {
	db := openMemDB(t)

	ds := model.Dataset{ID: "abc123", Name: "scrim", MapName: "de_ancient", SourcePath: "/tmp/scrim.jsonl"}
	if err := db.InsertDataset(ds, fixtureSamples()); err != nil {
		t.Fatalf("InsertDataset: %v", err)
	}

	exists, err := db.DatasetExists("abc123")
	if err != nil {
		t.Fatalf("DatasetExists: %v", err)
	}
	if !exists {
		t.Error("expected dataset to exist after insert")
	}

	exists2, _ := db.DatasetExists("nonexistent")
	if exists2 {
		t.Error("expected non-existent dataset to not exist")
	}
}

func TestSamplesRoundTrip(t *testing.T) {
	db := openMemDB(t)

	in := fixtureSamples()
	if err := db.InsertDataset(model.Dataset{ID: "h1", Name: "one"}, in); err != nil {
		t.Fatalf("InsertDataset: %v", err)
	}
	out, err := db.LoadSamples("h1")
	if err != nil {
		t.Fatalf("LoadSamples: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("expected %d samples, got %d", len(in), len(out))
	}
	got := out[0]
	if got.Team != "Team2" || got.Side != model.SideT || got.Player != "Player5" || got.AreaName != "BombsiteB" {
		t.Errorf("identity mismatch: %+v", got)
	}
	if got.Pos != in[0].Pos || got.Seconds != 12 || !got.IsAlive {
		t.Errorf("state mismatch: %+v", got)
	}
	if len(got.Inventory) != 2 || got.PrimaryClass() != model.ClassRifle || got.Inventory[0].WeaponName != "AK-47" {
		t.Errorf("inventory mismatch: %+v", got.Inventory)
	}
	if out[1].IsAlive || out[1].Inventory != nil || out[1].Side != model.SideCT {
		t.Errorf("second sample mismatch: %+v", out[1])
	}
}

func TestReimportReplacesSamples(t *testing.T) {
	db := openMemDB(t)

	if err := db.InsertDataset(model.Dataset{ID: "h1", Name: "one"}, fixtureSamples()); err != nil {
		t.Fatalf("InsertDataset: %v", err)
	}
	if err := db.InsertDataset(model.Dataset{ID: "h1", Name: "one"}, fixtureSamples()[:1]); err != nil {
		t.Fatalf("re-InsertDataset: %v", err)
	}
	out, err := db.LoadSamples("h1")
	if err != nil {
		t.Fatalf("LoadSamples: %v", err)
	}
	if len(out) != 1 {
		t.Errorf("expected 1 sample after re-import, got %d", len(out))
	}
	ds, _ := db.GetDatasetByPrefix("h1")
	if ds == nil || ds.SampleCount != 1 {
		t.Errorf("expected sample_count 1, got %+v", ds)
	}
}

func TestListDatasets(t *testing.T) {
	db := openMemDB(t)

	old := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	datasets := []model.Dataset{
		{ID: "h1", Name: "first", ImportedAt: old},
		{ID: "h2", Name: "second", ImportedAt: old.Add(24 * time.Hour)},
	}
	for _, ds := range datasets {
		if err := db.InsertDataset(ds, nil); err != nil {
			t.Fatalf("InsertDataset: %v", err)
		}
	}

	list, err := db.ListDatasets()
	if err != nil {
		t.Fatalf("ListDatasets: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 datasets, got %d", len(list))
	}
	// Newest import first.
	if list[0].ID != "h2" {
		t.Errorf("expected h2 first (newest), got %s", list[0].ID)
	}
	if !list[1].ImportedAt.Equal(old) {
		t.Errorf("imported_at round trip: got %v", list[1].ImportedAt)
	}
}

func TestGetDatasetByPrefix(t *testing.T) {
	db := openMemDB(t)

	db.InsertDataset(model.Dataset{ID: "deadbeef1234", Name: "inferno", MapName: "de_inferno"}, nil)

	ds, err := db.GetDatasetByPrefix("deadb")
	if err != nil {
		t.Fatalf("GetDatasetByPrefix: %v", err)
	}
	if ds == nil {
		t.Fatal("expected match for prefix 'deadb'")
	}
	if ds.ID != "deadbeef1234" || ds.MapName != "de_inferno" {
		t.Errorf("unexpected dataset %+v", ds)
	}

	ds2, err := db.GetDatasetByPrefix("ffffffff")
	if err != nil {
		t.Fatalf("GetDatasetByPrefix no-match: %v", err)
	}
	if ds2 != nil {
		t.Error("expected nil for unknown prefix")
	}
}

func TestRunsRoundTrip(t *testing.T) {
	db := openMemDB(t)
	db.InsertDataset(model.Dataset{ID: "h1", Name: "one"}, nil)

	t0 := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	id1, err := db.InsertRun(model.AnalysisRun{DatasetID: "h1", Kind: model.RunDominance, Result: "Team2/T", CreatedAt: t0})
	if err != nil {
		t.Fatalf("InsertRun: %v", err)
	}
	if len(id1) != 36 {
		t.Errorf("expected generated UUID, got %q", id1)
	}
	_, err = db.InsertRun(model.AnalysisRun{
		ID: "fixed", DatasetID: "h1", Kind: model.RunEntryTime,
		Team: "Team2", Side: "T", Area: "BombsiteB",
		Err: "no qualifying entry", CreatedAt: t0.Add(time.Minute),
	})
	if err != nil {
		t.Fatalf("InsertRun fixed: %v", err)
	}

	runs, err := db.ListRuns("h1")
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != id1 || runs[0].Result != "Team2/T" || !runs[0].CreatedAt.Equal(t0) {
		t.Errorf("unexpected first run %+v", runs[0])
	}
	if runs[1].ID != "fixed" || runs[1].Area != "BombsiteB" || runs[1].Err == "" {
		t.Errorf("unexpected second run %+v", runs[1])
	}

	if other, _ := db.ListRuns("nope"); len(other) != 0 {
		t.Errorf("expected no runs for unknown dataset, got %d", len(other))
	}
}

func TestRunRequiresDataset(t *testing.T) {
	db := openMemDB(t)
	if _, err := db.InsertRun(model.AnalysisRun{DatasetID: "missing", Kind: model.RunHeatmap}); err == nil {
		t.Error("expected foreign key violation for unknown dataset")
	}
}

func TestQueryRaw(t *testing.T) {
	db := openMemDB(t)
	db.InsertDataset(model.Dataset{ID: "h1", Name: "one"}, fixtureSamples())

	cols, rows, err := db.QueryRaw("SELECT player, x, is_alive, NULL AS empty_col FROM samples ORDER BY seq")
	if err != nil {
		t.Fatalf("QueryRaw: %v", err)
	}
	if len(cols) != 4 || cols[0] != "player" || cols[3] != "empty_col" {
		t.Errorf("unexpected columns %v", cols)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "Player5" || rows[0][1] != "-2200.5" || rows[0][2] != "1" || rows[0][3] != "NULL" {
		t.Errorf("unexpected first row %v", rows[0])
	}

	if _, _, err := db.QueryRaw("SELECT * FROM nope"); err == nil {
		t.Error("expected error for unknown table")
	}
}

func TestOpen_SchemaVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zones.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	var v int
	if err := db.conn.QueryRow(`PRAGMA user_version`).Scan(&v); err != nil || v != schemaVersion {
		t.Fatalf("user_version = %d, %v", v, err)
	}
	// Reopening a current store is fine.
	db.Close()
	db, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if _, err := db.conn.Exec(`PRAGMA user_version = 99`); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	db.Close()

	if _, err := Open(path); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("want ErrSchemaMismatch, got %v", err)
	}
}
