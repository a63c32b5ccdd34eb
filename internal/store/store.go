// Package store implements the index store: a single-file SQLite database
// holding specs, snapshots, sections, refs, and the two version-check
// caches. Follows a connection-setup idiom (WAL journal mode, busy_timeout,
// single-writer SetMaxOpenConns(1)) with an FTS5 virtual-table
// registration for full-text search.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"specindex/internal/logging"
)

// Store owns the single SQLite connection backing the index. The database
// handle is owned by one writer at a time; mu serializes writes while
// SetMaxOpenConns(1) keeps the driver from interleaving concurrent
// statements on it.
type Store struct {
	db     *sql.DB
	mu     sync.Mutex
	dbPath string
}

// Open creates (or reuses) the SQLite database at path, ensuring its
// directory exists, and runs the schema migration.
func Open(path string) (*Store, error) {
	timer := logging.StartTimer(logging.CategoryStore, "Open")
	defer timer.Stop()

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.StoreDebug("failed to set busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.StoreDebug("failed to set journal_mode=WAL: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		logging.StoreDebug("failed to enable foreign_keys: %v", err)
	}

	s := &Store{db: db, dbPath: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS specs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE COLLATE NOCASE,
	base_url TEXT NOT NULL,
	provider TEXT NOT NULL,
	repo_id TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS snapshots (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	spec_id INTEGER NOT NULL REFERENCES specs(id) ON DELETE CASCADE,
	sha TEXT NOT NULL,
	commit_date DATETIME NOT NULL,
	indexed_at DATETIME NOT NULL,
	UNIQUE(spec_id, sha)
);
CREATE INDEX IF NOT EXISTS idx_snapshots_spec ON snapshots(spec_id);

CREATE TABLE IF NOT EXISTS sections (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	snapshot_id INTEGER NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
	anchor TEXT NOT NULL,
	title TEXT,
	content TEXT,
	kind TEXT NOT NULL,
	parent_anchor TEXT,
	prev_anchor TEXT,
	next_anchor TEXT,
	depth INTEGER,
	UNIQUE(snapshot_id, anchor)
);
CREATE INDEX IF NOT EXISTS idx_sections_snapshot ON sections(snapshot_id);
CREATE INDEX IF NOT EXISTS idx_sections_parent ON sections(snapshot_id, parent_anchor);

CREATE TABLE IF NOT EXISTS refs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	snapshot_id INTEGER NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
	from_anchor TEXT NOT NULL,
	to_spec TEXT NOT NULL,
	to_anchor TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_refs_from ON refs(snapshot_id, from_anchor);
CREATE INDEX IF NOT EXISTS idx_refs_to ON refs(snapshot_id, to_spec, to_anchor);

CREATE TABLE IF NOT EXISTS update_checks (
	spec_id INTEGER PRIMARY KEY REFERENCES specs(id) ON DELETE CASCADE,
	last_checked DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS repo_version_cache (
	repo TEXT PRIMARY KEY,
	sha TEXT NOT NULL,
	commit_date DATETIME NOT NULL,
	checked_at DATETIME NOT NULL
);
`

// migrate creates the base schema, then the FTS5 virtual table and its sync
// triggers (sections_fts is created lazily/separately since not every
// SQLite build carries FTS5, mirroring a vec0 detect-then-wire
// pattern for optional virtual tables).
func (s *Store) migrate() error {
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return s.migrateFTS()
}

func (s *Store) migrateFTS() error {
	const createFTS = `
CREATE VIRTUAL TABLE IF NOT EXISTS sections_fts USING fts5(
	title, content, anchor UNINDEXED,
	content='sections', content_rowid='id',
	tokenize = 'porter unicode61'
);`
	if _, err := s.db.Exec(createFTS); err != nil {
		logging.Get(logging.CategoryStore).Warn("FTS5 unavailable, full-text search disabled: %v", err)
		return nil
	}

	triggers := []string{
		`CREATE TRIGGER IF NOT EXISTS sections_ai AFTER INSERT ON sections BEGIN
			INSERT INTO sections_fts(rowid, title, content, anchor)
			VALUES (new.id, new.title, new.content, new.anchor);
		END;`,
		`CREATE TRIGGER IF NOT EXISTS sections_ad AFTER DELETE ON sections BEGIN
			INSERT INTO sections_fts(sections_fts, rowid, title, content, anchor)
			VALUES ('delete', old.id, old.title, old.content, old.anchor);
		END;`,
		`CREATE TRIGGER IF NOT EXISTS sections_au AFTER UPDATE ON sections BEGIN
			INSERT INTO sections_fts(sections_fts, rowid, title, content, anchor)
			VALUES ('delete', old.id, old.title, old.content, old.anchor);
			INSERT INTO sections_fts(rowid, title, content, anchor)
			VALUES (new.id, new.title, new.content, new.anchor);
		END;`,
	}
	for _, t := range triggers {
		if _, err := s.db.Exec(t); err != nil {
			return fmt.Errorf("creating fts trigger: %w", err)
		}
	}
	return nil
}
