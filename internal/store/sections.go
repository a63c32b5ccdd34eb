package store

import (
	"database/sql"
	"fmt"
	"strings"

	"specindex/internal/model"
	"specindex/internal/specerr"
)

func scanSection(row interface{ Scan(...any) error }) (model.Section, error) {
	var sec model.Section
	var title, content, parent, prev, next sql.NullString
	var depth sql.NullInt64
	var kind string
	if err := row.Scan(&sec.SnapshotID, &sec.Anchor, &title, &content, &kind, &parent, &prev, &next, &depth); err != nil {
		return model.Section{}, err
	}
	sec.Title = title.String
	sec.Content = content.String
	sec.Kind = model.SectionKind(kind)
	sec.ParentAnchor = parent.String
	sec.PrevAnchor = prev.String
	sec.NextAnchor = next.String
	sec.Depth = int(depth.Int64)
	return sec, nil
}

const sectionColumns = `snapshot_id, anchor, title, content, kind, parent_anchor, prev_anchor, next_anchor, depth`

// Section looks up one section by (snapshot_id, anchor).
func (s *Store) Section(snapshotID int64, anchor string) (model.Section, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row := s.db.QueryRow(`SELECT `+sectionColumns+` FROM sections WHERE snapshot_id = ? AND anchor = ?`, snapshotID, anchor)
	sec, err := scanSection(row)
	if err == sql.ErrNoRows {
		return model.Section{}, fmt.Errorf("%w: anchor %q", specerr.ErrNotFound, anchor)
	}
	return sec, err
}

// Children returns every section whose parent_anchor is parent, in
// document order (by id).
func (s *Store) Children(snapshotID int64, parent string) ([]model.Section, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.Query(`
		SELECT `+sectionColumns+` FROM sections WHERE snapshot_id = ? AND parent_anchor = ? ORDER BY id
	`, snapshotID, parent)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Section
	for rows.Next() {
		sec, err := scanSection(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sec)
	}
	return out, rows.Err()
}

// AnchorsMatching translates a glob pattern ('*' as SQL-style wildcard) and
// returns every matching anchor in a snapshot.
func (s *Store) AnchorsMatching(snapshotID int64, glob string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pattern := globToLike(glob)
	rows, err := s.db.Query(`
		SELECT anchor FROM sections WHERE snapshot_id = ? AND anchor LIKE ? ESCAPE '\' ORDER BY anchor
	`, snapshotID, pattern)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// globToLike translates a '*'-glob into a SQL LIKE pattern, escaping LIKE
// metacharacters already present in the input.
func globToLike(glob string) string {
	var sb strings.Builder
	for _, r := range glob {
		switch r {
		case '*':
			sb.WriteRune('%')
		case '%', '_', '\\':
			sb.WriteRune('\\')
			sb.WriteRune(r)
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// OutgoingRefs returns every reference recorded from a section anchor.
func (s *Store) OutgoingRefs(snapshotID int64, fromAnchor string) ([]model.Reference, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.Query(`
		SELECT snapshot_id, from_anchor, to_spec, to_anchor FROM refs WHERE snapshot_id = ? AND from_anchor = ?
	`, snapshotID, fromAnchor)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRefs(rows)
}

// IncomingRefs returns every reference pointing at (toSpec, toAnchor)
// across all snapshots currently indexed.
func (s *Store) IncomingRefs(toSpec, toAnchor string) ([]model.Reference, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.Query(`
		SELECT snapshot_id, from_anchor, to_spec, to_anchor FROM refs WHERE to_spec = ? AND to_anchor = ?
	`, toSpec, toAnchor)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRefs(rows)
}

func scanRefs(rows *sql.Rows) ([]model.Reference, error) {
	var out []model.Reference
	for rows.Next() {
		var r model.Reference
		if err := rows.Scan(&r.SnapshotID, &r.FromAnchor, &r.ToSpec, &r.ToAnchor); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SearchResult is one full-text search hit.
type SearchResult struct {
	Spec    string
	Anchor  string
	Title   string
	Kind    model.SectionKind
	Snippet string
}

// Search runs an FTS5 query over sections, optionally scoped to one spec,
// returning a <mark>-delimited snippet with a 64-token window.
func (s *Store) Search(query, specName string, limit int) ([]SearchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	args := []any{query}
	specFilter := ""
	if specName != "" {
		specFilter = "AND sp.name = ? COLLATE NOCASE"
		args = append(args, specName)
	}
	args = append(args, limit)

	sqlText := fmt.Sprintf(`
		SELECT sp.name, sec.anchor, sec.title, sec.kind,
			snippet(sections_fts, -1, '<mark>', '</mark>', '...', 64) AS snip
		FROM sections_fts
		JOIN sections sec ON sec.id = sections_fts.rowid
		JOIN snapshots sn ON sn.id = sec.snapshot_id
		JOIN specs sp ON sp.id = sn.spec_id
		WHERE sections_fts MATCH ? %s
		ORDER BY rank
		LIMIT ?
	`, specFilter)

	rows, err := s.db.Query(sqlText, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: running search query: %v", specerr.ErrParse, err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		var kind string
		var title sql.NullString
		if err := rows.Scan(&r.Spec, &r.Anchor, &title, &kind, &r.Snippet); err != nil {
			return nil, err
		}
		r.Title = title.String
		r.Kind = model.SectionKind(kind)
		out = append(out, r)
	}
	return out, rows.Err()
}
