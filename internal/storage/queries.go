package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pable/go-cs-zones/internal/model"
)

// Fixed-width UTC timestamps so text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// DatasetExists returns true if a dataset with the given ID is already stored.
func (db *DB) DatasetExists(id string) (bool, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(1) FROM datasets WHERE id = ?", id).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// InsertDataset stores a dataset and its samples in one transaction. Re-importing
// the same ID replaces the previous samples.
func (db *DB) InsertDataset(ds model.Dataset, samples []model.Sample) error {
	if ds.ImportedAt.IsZero() {
		ds.ImportedAt = time.Now().UTC()
	}
	ds.SampleCount = len(samples)

	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT OR REPLACE INTO datasets(id, name, map_name, source_path, sample_count, imported_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		ds.ID, ds.Name, ds.MapName, ds.SourcePath, ds.SampleCount, ds.ImportedAt.UTC().Format(timeLayout),
	); err != nil {
		return fmt.Errorf("insert dataset: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM samples WHERE dataset_id = ?", ds.ID); err != nil {
		return fmt.Errorf("clear samples: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO samples(
			dataset_id, seq, team, side, player, x, y, z,
			area_name, seconds, is_alive, inventory
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, s := range samples {
		inv, err := json.Marshal(inventoryOrEmpty(s.Inventory))
		if err != nil {
			return fmt.Errorf("encode inventory for sample %d: %w", i, err)
		}
		_, err = stmt.Exec(
			ds.ID, i, s.Team, s.Side.String(), s.Player,
			s.Pos.X, s.Pos.Y, s.Pos.Z,
			s.AreaName, s.Seconds, boolInt(s.IsAlive), string(inv),
		)
		if err != nil {
			return fmt.Errorf("insert sample %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// ListDatasets returns all stored datasets, newest import first.
func (db *DB) ListDatasets() ([]model.Dataset, error) {
	rows, err := db.conn.Query(`
		SELECT id, name, map_name, source_path, sample_count, imported_at
		FROM datasets ORDER BY imported_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Dataset
	for rows.Next() {
		ds, err := scanDataset(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ds)
	}
	return out, rows.Err()
}

// GetDatasetByPrefix finds the first dataset whose ID starts with the given
// prefix. It returns nil when nothing matches.
func (db *DB) GetDatasetByPrefix(prefix string) (*model.Dataset, error) {
	row := db.conn.QueryRow(`
		SELECT id, name, map_name, source_path, sample_count, imported_at
		FROM datasets WHERE id LIKE ? ORDER BY id LIMIT 1`, prefix+"%")
	ds, err := scanDataset(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ds, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDataset(r scanner) (model.Dataset, error) {
	var ds model.Dataset
	var imported string
	if err := r.Scan(&ds.ID, &ds.Name, &ds.MapName, &ds.SourcePath, &ds.SampleCount, &imported); err != nil {
		return ds, err
	}
	t, err := time.Parse(timeLayout, imported)
	if err != nil {
		return ds, fmt.Errorf("parse imported_at %q: %w", imported, err)
	}
	ds.ImportedAt = t
	return ds, nil
}

// LoadSamples returns a dataset's samples in import order.
func (db *DB) LoadSamples(datasetID string) ([]model.Sample, error) {
	rows, err := db.conn.Query(`
		SELECT team, side, player, x, y, z, area_name, seconds, is_alive, inventory
		FROM samples WHERE dataset_id = ? ORDER BY seq`, datasetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Sample
	for rows.Next() {
		var s model.Sample
		var side, inv string
		var alive int
		if err := rows.Scan(&s.Team, &side, &s.Player, &s.Pos.X, &s.Pos.Y, &s.Pos.Z,
			&s.AreaName, &s.Seconds, &alive, &inv); err != nil {
			return nil, err
		}
		s.Side = model.Side(side)
		s.IsAlive = alive != 0
		if err := json.Unmarshal([]byte(inv), &s.Inventory); err != nil {
			return nil, fmt.Errorf("decode inventory: %w", err)
		}
		if len(s.Inventory) == 0 {
			s.Inventory = nil
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// InsertRun records one analysis result. An empty ID is filled with a new UUID,
// which is returned.
func (db *DB) InsertRun(run model.AnalysisRun) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	_, err := db.conn.Exec(`
		INSERT INTO analysis_runs(id, dataset_id, kind, team, side, area, result, err, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.DatasetID, run.Kind, run.Team, run.Side, run.Area,
		run.Result, run.Err, run.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return run.ID, nil
}

// ListRuns returns a dataset's recorded runs, oldest first.
func (db *DB) ListRuns(datasetID string) ([]model.AnalysisRun, error) {
	rows, err := db.conn.Query(`
		SELECT id, dataset_id, kind, team, side, area, result, err, created_at
		FROM analysis_runs WHERE dataset_id = ? ORDER BY created_at, id`, datasetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.AnalysisRun
	for rows.Next() {
		var r model.AnalysisRun
		var created string
		if err := rows.Scan(&r.ID, &r.DatasetID, &r.Kind, &r.Team, &r.Side, &r.Area,
			&r.Result, &r.Err, &created); err != nil {
			return nil, err
		}
		if r.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			return nil, fmt.Errorf("parse created_at %q: %w", created, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// QueryRaw runs an arbitrary query and returns column names and stringified rows.
func (db *DB) QueryRaw(query string) ([]string, [][]string, error) {
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}
	var out [][]string
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		row := make([]string, len(cols))
		for i, v := range vals {
			row[i] = cellString(v)
		}
		out = append(out, row)
	}
	return cols, out, rows.Err()
}

func cellString(v any) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(t)
	case float64:
		return fmt.Sprintf("%g", t)
	default:
		return fmt.Sprint(t)
	}
}

func inventoryOrEmpty(items []model.Item) []model.Item {
	if items == nil {
		return []model.Item{}
	}
	return items
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
