package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"specindex/internal/config"
	"specindex/internal/fetch"
	"specindex/internal/provider"
	"specindex/internal/specerr"
	"specindex/internal/store"
)

type fakeProvider struct {
	html     string
	sha      string
	commitAt time.Time
}

func (f *fakeProvider) Name() provider.Kind { return provider.WHATWG }
func (f *fakeProvider) FetchHTML(ctx context.Context, spec config.SpecEntry, sha string) (string, error) {
	return f.html, nil
}
func (f *fakeProvider) FetchLatest(ctx context.Context, spec config.SpecEntry) (string, time.Time, error) {
	return f.sha, f.commitAt, nil
}

func testService(t *testing.T) *Service {
	t.Helper()
	s, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	spec := config.SpecEntry{Name: "HTML", BaseURL: "https://html.spec.whatwg.org", Provider: config.ProviderWHATWG, RepoID: "whatwg/html"}
	fp := &fakeProvider{html: `<h2 id="intro">Intro</h2><p>Hello.</p>`, sha: "sha1", commitAt: time.Now()}
	registry := provider.NewRegistryWithProviders([]config.SpecEntry{spec}, map[provider.Kind]provider.Provider{provider.WHATWG: fp})
	orch := fetch.New(s, registry)

	cfg := config.DefaultConfig()
	cfg.Specs = []config.SpecEntry{spec}

	return New(cfg, s, orch)
}

func TestQueryResolvesAndLazilyIndexes(t *testing.T) {
	svc := testService(t)
	res, err := svc.Query(context.Background(), "HTML#intro")
	require.NoError(t, err)
	assert.Equal(t, "HTML", res.Spec)
	assert.Equal(t, "Intro", res.Section.Title)
}

func TestQueryUsageErrorWithoutAnchor(t *testing.T) {
	svc := testService(t)
	_, err := svc.Query(context.Background(), "HTML")
	assert.True(t, specerr.Is(err, specerr.ErrUsage), "expected ErrUsage, got %v", err)
}

func TestExistsTrueAndFalse(t *testing.T) {
	svc := testService(t)
	res, err := svc.Exists(context.Background(), "HTML#intro")
	require.NoError(t, err)
	assert.True(t, res.Exists)

	res, err = svc.Exists(context.Background(), "HTML#nope")
	require.NoError(t, err)
	assert.False(t, res.Exists)
}

func TestAnchorsGlob(t *testing.T) {
	svc := testService(t)
	res, err := svc.Anchors(context.Background(), "HTML", "int*")
	require.NoError(t, err)
	require.Len(t, res.Anchors, 1)
	assert.Equal(t, "intro", res.Anchors[0])
}

func TestListAndUpdateAll(t *testing.T) {
	svc := testService(t)
	_, err := svc.Query(context.Background(), "HTML#intro")
	require.NoError(t, err, "seed Query")

	entries, err := svc.List()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "HTML", entries[0].Spec)

	results := svc.UpdateAll(context.Background(), false)
	require.Len(t, results, 1)
	assert.Equal(t, "HTML", results[0].Spec)
	assert.NoError(t, results[0].Err)
}

func TestClearDB(t *testing.T) {
	svc := testService(t)
	_, err := svc.Query(context.Background(), "HTML#intro")
	require.NoError(t, err, "seed Query")

	require.NoError(t, svc.ClearDB())

	entries, err := svc.List()
	require.NoError(t, err)
	assert.Empty(t, entries, "expected empty index after ClearDB")
}
