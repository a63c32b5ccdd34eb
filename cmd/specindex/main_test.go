package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"specindex/internal/config"
	"specindex/internal/fetch"
	"specindex/internal/provider"
	"specindex/internal/query"
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

// setupTestCLI wires the package-level globals the same way
// PersistentPreRunE does, against an in-memory store and a fake provider,
// so subcommand RunE funcs can be driven directly without exec'ing a
// binary or touching the network.
func setupTestCLI(t *testing.T) {
	t.Helper()
	logger = zap.NewNop()
	format = "json"
	pendingExitCode = 0

	s, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	spec := config.SpecEntry{Name: "HTML", BaseURL: "https://html.spec.whatwg.org", Provider: config.ProviderWHATWG, RepoID: "whatwg/html"}
	fp := &fakeProvider{html: `<h2 id="intro">Intro</h2><p>Hello.</p>`, sha: "sha1", commitAt: time.Now()}
	registry := provider.NewRegistryWithProviders([]config.SpecEntry{spec}, map[provider.Kind]provider.Provider{provider.WHATWG: fp})
	orch := fetch.New(s, registry)

	cfg = config.DefaultConfig()
	cfg.Specs = []config.SpecEntry{spec}
	db = s
	svc = query.New(cfg, s, orch)
}

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w
	fn()
	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	io.Copy(&buf, r)
	return buf.String()
}

func TestQueryCmdResolvesSection(t *testing.T) {
	setupTestCLI(t)
	out := captureStdout(t, func() {
		require.NoError(t, queryCmd.RunE(queryCmd, []string{"HTML#intro"}))
	})
	assert.NotEmpty(t, out, "expected query output")
}

func TestExistsCmdSetsPendingExitCodeOnMiss(t *testing.T) {
	setupTestCLI(t)
	captureStdout(t, func() {
		require.NoError(t, existsCmd.RunE(existsCmd, []string{"HTML#nope"}))
	})
	assert.Equal(t, 1, pendingExitCode)
}

func TestExistsCmdNoExitCodeOnHit(t *testing.T) {
	setupTestCLI(t)
	captureStdout(t, func() {
		require.NoError(t, existsCmd.RunE(existsCmd, []string{"HTML#intro"}))
	})
	assert.Equal(t, 0, pendingExitCode)
}

func TestListCmdAfterSeedingIndex(t *testing.T) {
	setupTestCLI(t)
	_, err := svc.Query(context.Background(), "HTML#intro")
	require.NoError(t, err, "seed query")

	out := captureStdout(t, func() {
		require.NoError(t, listCmd.RunE(listCmd, nil))
	})
	assert.NotEmpty(t, out, "expected list output")
}

func TestClearDBCmd(t *testing.T) {
	setupTestCLI(t)
	_, err := svc.Query(context.Background(), "HTML#intro")
	require.NoError(t, err, "seed query")

	captureStdout(t, func() {
		require.NoError(t, clearDBCmd.RunE(clearDBCmd, nil))
	})
	entries, err := svc.List()
	require.NoError(t, err)
	assert.Empty(t, entries, "expected empty index after clear-db")
}

func TestErrorChainReturnsWrappedMessage(t *testing.T) {
	err := fmt.Errorf("outer: %w", errors.New("inner"))
	assert.Equal(t, "outer: inner", errorChain(err))
}
