package store

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// ErrNotFound is returned when a batch id is unknown.
var ErrNotFound = errors.New("not found")

// ErrBatchExists is returned when a run is saved under a batch id that is
// already stored.
var ErrBatchExists = errors.New("batch already exists")

// migration upgrades a database from version-1 to version. schema.sql
// always describes the latest shape, so every statement must be a no-op
// on a fresh database.
type migration struct {
	version int
	stmt    string
}

// migrations in ascending version order. The last version is the current
// schema version.
var migrations = []migration{
	// v1: per-type synapse reads for LoadSynapses.
	{1, `CREATE INDEX IF NOT EXISTS idx_synapses_type ON synapses(batch_id, type, seq)`},
}

var currentSchemaVersion = migrations[len(migrations)-1].version

// Store persists batch runs and per-tenant density in SQLite.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at path, then applies pragmas, the
// schema and any pending migrations. Reopening an existing file is safe.
//
// The connection pool is capped at one: SQLite has a single writer, and
// ":memory:" gives each connection its own database, so one connection
// keeps an in-memory store alive for the life of the Store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := configure(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func configure(db *sql.DB) error {
	// WAL lets report reads proceed while a run is being saved.
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("failed to apply pragma %q: %w", p, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return migrate(db)
}

// migrate runs every migration newer than the stored user_version.
func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	for _, m := range migrations {
		if m.version <= version {
			continue
		}
		if _, err := db.Exec(m.stmt); err != nil {
			return fmt.Errorf("migrate to v%d: %w", m.version, err)
		}
	}
	if version == currentSchemaVersion {
		return nil
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
