package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"specindex/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestUpsertAndLookupSpec(t *testing.T) {
	s := newTestStore(t)
	id, err := s.UpsertSpec(model.SpecInfo{Name: "HTML", BaseURL: "https://html.spec.whatwg.org", Provider: "whatwg", RepoID: "whatwg/html"})
	require.NoError(t, err)
	assert.NotZero(t, id)

	got, err := s.SpecByName("html")
	require.NoError(t, err, "SpecByName is case-insensitive")
	assert.Equal(t, "HTML", got.Name)
	assert.Equal(t, "whatwg/html", got.RepoID)
}

func TestReplaceSnapshotAtomicAndTreeQueries(t *testing.T) {
	s := newTestStore(t)
	specID, err := s.UpsertSpec(model.SpecInfo{Name: "DOM", BaseURL: "https://dom.spec.whatwg.org", Provider: "whatwg", RepoID: "whatwg/dom"})
	require.NoError(t, err)

	sections := []model.Section{
		{Anchor: "s1", Title: "Intro", Content: "intro text", Kind: model.KindHeading, Depth: 2},
		{Anchor: "s1a", Title: "Sub", Content: "sub text", Kind: model.KindHeading, Depth: 3, ParentAnchor: "s1"},
	}
	refs := []model.Reference{{FromAnchor: "s1", ToSpec: model.SelfSpec, ToAnchor: "s1a"}}

	snapID, err := s.ReplaceSnapshot(specID, "abc123", time.Now(), time.Now(), sections, refs)
	require.NoError(t, err)

	got, err := s.Section(snapID, "s1a")
	require.NoError(t, err)
	assert.Equal(t, "s1", got.ParentAnchor)

	children, err := s.Children(snapID, "s1")
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "s1a", children[0].Anchor)

	outgoing, err := s.OutgoingRefs(snapID, "s1")
	require.NoError(t, err)
	require.Len(t, outgoing, 1)
	assert.Equal(t, "s1a", outgoing[0].ToAnchor)

	incoming, err := s.IncomingRefs(model.SelfSpec, "s1a")
	require.NoError(t, err)
	assert.Len(t, incoming, 1)

	// Replacing again must remove the prior snapshot's sections/refs.
	newSections := []model.Section{{Anchor: "s2", Title: "Only", Content: "x", Kind: model.KindHeading, Depth: 2}}
	newSnapID, err := s.ReplaceSnapshot(specID, "def456", time.Now(), time.Now(), newSections, nil)
	require.NoError(t, err)
	_, err = s.Section(newSnapID, "s1")
	assert.Error(t, err, "old snapshot's sections should be gone")
}

func TestAnchorGlob(t *testing.T) {
	s := newTestStore(t)
	specID, err := s.UpsertSpec(model.SpecInfo{Name: "URL", BaseURL: "https://url.spec.whatwg.org", Provider: "whatwg", RepoID: "whatwg/url"})
	require.NoError(t, err)
	sections := []model.Section{
		{Anchor: "dom-url-href", Kind: model.KindDefinition, Title: "href"},
		{Anchor: "dom-url-search", Kind: model.KindDefinition, Title: "search"},
		{Anchor: "concept-url-parser", Kind: model.KindAlgorithm, Title: "parser"},
	}
	snapID, err := s.ReplaceSnapshot(specID, "sha1", time.Now(), time.Now(), sections, nil)
	require.NoError(t, err)
	got, err := s.AnchorsMatching(snapID, "dom-url-*")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestRepoVersionCacheSharedAcrossSpecs(t *testing.T) {
	s := newTestStore(t)
	now := time.Now()
	err := s.UpsertRepoVersionCache(model.RepoVersionCacheEntry{RepoID: "w3c/csswg-drafts", SHA: "abc", CommitDate: now, CheckedAt: now})
	require.NoError(t, err)

	entry, ok, err := s.RepoVersionCache("w3c/csswg-drafts")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "abc", entry.SHA)
	assert.True(t, entry.Fresh(now.Add(time.Hour), 24*time.Hour), "expected entry to be fresh within TTL")
	assert.False(t, entry.Fresh(now.Add(48*time.Hour), 24*time.Hour), "expected entry to be stale past TTL")
}
