// Package model defines the persistent data model shared by the index
// store, the fetch orchestrator, and the LSP backend: specs, snapshots,
// sections, references, and the repo-level version cache.
package model

import "time"

// SectionKind classifies a Section. Depth is only meaningful for Heading.
type SectionKind string

const (
	KindHeading   SectionKind = "heading"
	KindAlgorithm SectionKind = "algorithm"
	KindDefinition SectionKind = "definition"
	KindIdl       SectionKind = "idl"
	KindProse     SectionKind = "prose"
)

// SpecInfo is an immutable descriptor of one tracked specification. Name is
// case-insensitive unique across all providers.
type SpecInfo struct {
	ID       int64
	Name     string
	BaseURL  string
	Provider string
	RepoID   string
}

// Snapshot is one indexed version of a spec, identified by its source sha.
// Exactly one snapshot exists per spec at any time.
type Snapshot struct {
	ID         int64
	SpecID     int64
	SHA        string
	CommitDate time.Time
	IndexedAt  time.Time
}

// Section describes a heading, definition, algorithm, or IDL block
// extracted from a snapshot.
type Section struct {
	SnapshotID  int64
	Anchor      string
	Title       string
	Content     string
	Kind        SectionKind
	ParentAnchor string // empty if none
	PrevAnchor   string
	NextAnchor   string
	Depth        int // 0 means unset; valid range for Heading is 2..6
}

// HasParent reports whether the section has a recorded parent anchor.
func (s Section) HasParent() bool { return s.ParentAnchor != "" }

// IsScopeForming reports whether a section can own references: a heading
// or algorithm anchor that a reference's enclosing scope resolves to.
func (s Section) IsScopeForming() bool {
	return s.Kind == KindHeading || s.Kind == KindAlgorithm
}

// Reference records a cross-reference from one scope-forming section to an
// anchor in the same or another spec.
type Reference struct {
	SnapshotID int64
	FromAnchor string
	ToSpec     string // "self" resolves to the owning snapshot's spec
	ToAnchor   string
}

// RepoVersionCacheEntry caches the latest known sha for a repository so
// multiple specs sharing a monorepo share one version check.
type RepoVersionCacheEntry struct {
	RepoID     string
	SHA        string
	CommitDate time.Time
	CheckedAt  time.Time
}

// Fresh reports whether the cache entry is still within ttl of now.
func (e RepoVersionCacheEntry) Fresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.CheckedAt) < ttl
}

// SelfSpec is the sentinel ToSpec value meaning "this snapshot's own spec".
const SelfSpec = "self"
