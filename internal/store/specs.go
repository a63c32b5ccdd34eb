package store

import (
	"database/sql"
	"fmt"
	"time"

	"specindex/internal/model"
	"specindex/internal/specerr"
)

// UpsertSpec inserts or updates a spec's static descriptor. Name matching is
// case-insensitive (UNIQUE COLLATE NOCASE).
func (s *Store) UpsertSpec(spec model.SpecInfo) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.Exec(`
		INSERT INTO specs(name, base_url, provider, repo_id) VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET base_url=excluded.base_url, provider=excluded.provider, repo_id=excluded.repo_id
	`, spec.Name, spec.BaseURL, spec.Provider, spec.RepoID)
	if err != nil {
		return 0, fmt.Errorf("%w: upserting spec %s: %v", specerr.ErrIntegrity, spec.Name, err)
	}
	if id, err := res.LastInsertId(); err == nil && id != 0 {
		return id, nil
	}
	return s.specIDByName(spec.Name)
}

func (s *Store) specIDByName(name string) (int64, error) {
	var id int64
	err := s.db.QueryRow(`SELECT id FROM specs WHERE name = ? COLLATE NOCASE`, name).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("%w: spec %s", specerr.ErrNotFound, name)
	}
	if err != nil {
		return 0, err
	}
	return id, nil
}

// SpecByName looks up a spec's descriptor case-insensitively.
func (s *Store) SpecByName(name string) (model.SpecInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var info model.SpecInfo
	err := s.db.QueryRow(`
		SELECT id, name, base_url, provider, repo_id FROM specs WHERE name = ? COLLATE NOCASE
	`, name).Scan(&info.ID, &info.Name, &info.BaseURL, &info.Provider, &info.RepoID)
	if err == sql.ErrNoRows {
		return model.SpecInfo{}, fmt.Errorf("%w: spec %s", specerr.ErrNotFound, name)
	}
	return info, err
}

// ListSpecs returns every registered spec, ordered by name.
func (s *Store) ListSpecs() ([]model.SpecInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.Query(`SELECT id, name, base_url, provider, repo_id FROM specs ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var specs []model.SpecInfo
	for rows.Next() {
		var info model.SpecInfo
		if err := rows.Scan(&info.ID, &info.Name, &info.BaseURL, &info.Provider, &info.RepoID); err != nil {
			return nil, err
		}
		specs = append(specs, info)
	}
	return specs, rows.Err()
}

// CurrentSnapshot returns the single snapshot currently indexed for a spec,
// if any.
func (s *Store) CurrentSnapshot(specID int64) (model.Snapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var snap model.Snapshot
	err := s.db.QueryRow(`
		SELECT id, spec_id, sha, commit_date, indexed_at FROM snapshots WHERE spec_id = ?
	`, specID).Scan(&snap.ID, &snap.SpecID, &snap.SHA, &snap.CommitDate, &snap.IndexedAt)
	if err == sql.ErrNoRows {
		return model.Snapshot{}, false, nil
	}
	return snap, err == nil, err
}

// ReplaceSnapshot atomically deletes any prior snapshot for specID (which
// cascades to its sections and refs) and inserts the new one plus its
// sections and refs. At most one snapshot per spec exists at any time.
func (s *Store) ReplaceSnapshot(specID int64, sha string, commitDate, indexedAt time.Time, sections []model.Section, refs []model.Reference) (snapshotID int64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.Exec(`DELETE FROM snapshots WHERE spec_id = ?`, specID); err != nil {
		return 0, fmt.Errorf("%w: deleting prior snapshot: %v", specerr.ErrIntegrity, err)
	}

	res, err := tx.Exec(`
		INSERT INTO snapshots(spec_id, sha, commit_date, indexed_at) VALUES (?, ?, ?, ?)
	`, specID, sha, commitDate, indexedAt)
	if err != nil {
		return 0, fmt.Errorf("%w: inserting snapshot: %v", specerr.ErrIntegrity, err)
	}
	snapshotID, err = res.LastInsertId()
	if err != nil {
		return 0, err
	}

	sectionStmt, err := tx.Prepare(`
		INSERT INTO sections(snapshot_id, anchor, title, content, kind, parent_anchor, prev_anchor, next_anchor, depth)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, err
	}
	defer sectionStmt.Close()

	seenAnchors := make(map[string]bool, len(sections))
	for _, sec := range sections {
		if seenAnchors[sec.Anchor] {
			return 0, fmt.Errorf("%w: duplicate anchor %q in snapshot", specerr.ErrIntegrity, sec.Anchor)
		}
		seenAnchors[sec.Anchor] = true
		depth := sql.NullInt64{Int64: int64(sec.Depth), Valid: sec.Depth != 0}
		parent := nullableString(sec.ParentAnchor)
		prev := nullableString(sec.PrevAnchor)
		next := nullableString(sec.NextAnchor)
		if _, err = sectionStmt.Exec(snapshotID, sec.Anchor, sec.Title, sec.Content, string(sec.Kind), parent, prev, next, depth); err != nil {
			return 0, fmt.Errorf("%w: inserting section %q: %v", specerr.ErrIntegrity, sec.Anchor, err)
		}
	}

	refStmt, err := tx.Prepare(`
		INSERT INTO refs(snapshot_id, from_anchor, to_spec, to_anchor) VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return 0, err
	}
	defer refStmt.Close()

	for _, r := range refs {
		if _, err = refStmt.Exec(snapshotID, r.FromAnchor, r.ToSpec, r.ToAnchor); err != nil {
			return 0, fmt.Errorf("%w: inserting ref from %q: %v", specerr.ErrIntegrity, r.FromAnchor, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return snapshotID, nil
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// LastChecked returns the last update-check time recorded for a spec.
func (s *Store) LastChecked(specID int64) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var t time.Time
	err := s.db.QueryRow(`SELECT last_checked FROM update_checks WHERE spec_id = ?`, specID).Scan(&t)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	return t, err == nil, err
}

// RecordCheck upserts the last-checked timestamp for a spec.
func (s *Store) RecordCheck(specID int64, checkedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`
		INSERT INTO update_checks(spec_id, last_checked) VALUES (?, ?)
		ON CONFLICT(spec_id) DO UPDATE SET last_checked = excluded.last_checked
	`, specID, checkedAt)
	return err
}

// RepoVersionCache returns the cached version-check entry for a repository.
func (s *Store) RepoVersionCache(repoID string) (model.RepoVersionCacheEntry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var e model.RepoVersionCacheEntry
	err := s.db.QueryRow(`
		SELECT repo, sha, commit_date, checked_at FROM repo_version_cache WHERE repo = ?
	`, repoID).Scan(&e.RepoID, &e.SHA, &e.CommitDate, &e.CheckedAt)
	if err == sql.ErrNoRows {
		return model.RepoVersionCacheEntry{}, false, nil
	}
	return e, err == nil, err
}

// UpsertRepoVersionCache updates the shared per-repository version cache;
// specs sharing a monorepo (e.g. w3c/csswg-drafts) share one entry.
func (s *Store) UpsertRepoVersionCache(e model.RepoVersionCacheEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`
		INSERT INTO repo_version_cache(repo, sha, commit_date, checked_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(repo) DO UPDATE SET sha=excluded.sha, commit_date=excluded.commit_date, checked_at=excluded.checked_at
	`, e.RepoID, e.SHA, e.CommitDate, e.CheckedAt)
	return err
}

// ClearAll truncates every table, backing the `clear-db` subcommand.
// Deleting specs cascades to snapshots, sections, refs, and update_checks
// via ON DELETE CASCADE.
func (s *Store) ClearAll() (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()
	for _, stmt := range []string{
		`DELETE FROM specs`,
		`DELETE FROM repo_version_cache`,
	} {
		if _, err = tx.Exec(stmt); err != nil {
			return fmt.Errorf("%w: clearing database: %v", specerr.ErrIntegrity, err)
		}
	}
	return tx.Commit()
}
