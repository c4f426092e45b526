// Package storage persists telemetry datasets and analysis runs in SQLite.
package storage

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is stamped into PRAGMA user_version on first open.
const schemaVersion = 1

// ErrSchemaMismatch is returned when the file holds a different schema version.
var ErrSchemaMismatch = errors.New("unsupported database schema")

// DB is the dataset store.
type DB struct {
	conn *sql.DB
}

// Open opens or creates the dataset store at path. ":memory:" gives a
// private in-memory store.
func Open(path string) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", path)
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One connection: ":memory:" is per connection, and SQLite serializes writers anyway.
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

func (db *DB) migrate() error {
	var version int
	if err := db.conn.QueryRow(`PRAGMA user_version`).Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	switch version {
	case 0, schemaVersion:
	default:
		return fmt.Errorf("%w: found v%d, want v%d", ErrSchemaMismatch, version, schemaVersion)
	}
	if _, err := db.conn.Exec(schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	if _, err := db.conn.Exec(fmt.Sprintf(`PRAGMA user_version = %d`, schemaVersion)); err != nil {
		return fmt.Errorf("stamp schema version: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
