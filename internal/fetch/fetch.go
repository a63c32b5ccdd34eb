// Package fetch implements the fetch orchestrator: version checking, HTML
// retrieval, parsing, and transactional snapshot replacement, gated by a
// 24-hour version cache. Follows an orchestration-with-timer-and-cache
// idiom built on internal/logging.StartTimer instrumentation.
package fetch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/net/html"

	"specindex/internal/config"
	"specindex/internal/logging"
	"specindex/internal/model"
	"specindex/internal/parse"
	"specindex/internal/provider"
	"specindex/internal/specerr"
	"specindex/internal/store"
)

// CacheTTL is how long a repo_version_cache entry stays fresh before
// get_latest_sha calls the provider again.
const CacheTTL = 24 * time.Hour

// Orchestrator wires the store, the provider registry, and the section/
// reference parser together to keep one spec's snapshot current.
type Orchestrator struct {
	Store    *store.Store
	Registry *provider.Registry
}

// New builds an Orchestrator.
func New(s *store.Store, registry *provider.Registry) *Orchestrator {
	return &Orchestrator{Store: s, Registry: registry}
}

// GetLatestSHA implements get_latest_sha: within TTL and not forced, it
// returns the cached repo-level entry; otherwise it calls the provider and
// upserts the cache. The cache key is the repository id, so specs sharing a
// monorepo share one check.
func (o *Orchestrator) GetLatestSHA(ctx context.Context, spec config.SpecEntry, force bool) (sha string, commitDate time.Time, err error) {
	if !force {
		if entry, ok, err := o.Store.RepoVersionCache(spec.RepoID); err == nil && ok && entry.Fresh(now(), CacheTTL) {
			return entry.SHA, entry.CommitDate, nil
		}
	}

	p := o.Registry.For(spec)
	if p == nil {
		return "", time.Time{}, fmt.Errorf("%w: no provider registered for %q", specerr.ErrUsage, spec.Provider)
	}
	sha, commitDate, err = p.FetchLatest(ctx, spec)
	if err != nil {
		return "", time.Time{}, err
	}
	checkedAt := now()
	if err := o.Store.UpsertRepoVersionCache(model.RepoVersionCacheEntry{
		RepoID: spec.RepoID, SHA: sha, CommitDate: commitDate, CheckedAt: checkedAt,
	}); err != nil {
		logging.FetchDebug("failed to persist repo version cache for %s: %v", spec.RepoID, err)
	}
	return sha, commitDate, nil
}

func now() time.Time { return time.Now() }

// EnsureIndexed implements ensure_indexed: resolves the latest sha, and
// reuses the existing snapshot if it already matches; otherwise fetches,
// parses, and replaces.
func (o *Orchestrator) EnsureIndexed(ctx context.Context, spec config.SpecEntry) (snapshotID int64, err error) {
	timer := logging.StartTimer(logging.CategoryFetch, "EnsureIndexed:"+spec.Name)
	defer timer.Stop()

	specID, err := o.Store.UpsertSpec(model.SpecInfo{
		Name: spec.Name, BaseURL: spec.BaseURL, Provider: string(spec.Provider), RepoID: spec.RepoID,
	})
	if err != nil {
		return 0, err
	}

	sha, commitDate, err := o.GetLatestSHA(ctx, spec, false)
	if err != nil {
		return 0, err
	}

	if current, ok, err := o.Store.CurrentSnapshot(specID); err == nil && ok && current.SHA == sha {
		return current.ID, nil
	}

	return o.reindex(ctx, spec, specID, sha, commitDate)
}

// UpdateResult reports whether update_if_needed actually replaced the
// snapshot.
type UpdateResult struct {
	Changed    bool
	SnapshotID int64
	SHA        string
}

// UpdateIfNeeded implements update_if_needed: identical to EnsureIndexed,
// but reports "unchanged" explicitly when the sha matches the current
// snapshot rather than silently reusing it.
func (o *Orchestrator) UpdateIfNeeded(ctx context.Context, spec config.SpecEntry, force bool) (UpdateResult, error) {
	specID, err := o.Store.UpsertSpec(model.SpecInfo{
		Name: spec.Name, BaseURL: spec.BaseURL, Provider: string(spec.Provider), RepoID: spec.RepoID,
	})
	if err != nil {
		return UpdateResult{}, err
	}

	sha, commitDate, err := o.GetLatestSHA(ctx, spec, force)
	if err != nil {
		return UpdateResult{}, err
	}

	if current, ok, err := o.Store.CurrentSnapshot(specID); err == nil && ok && current.SHA == sha {
		return UpdateResult{Changed: false, SnapshotID: current.ID, SHA: sha}, nil
	}

	snapshotID, err := o.reindex(ctx, spec, specID, sha, commitDate)
	if err != nil {
		return UpdateResult{}, err
	}
	return UpdateResult{Changed: true, SnapshotID: snapshotID, SHA: sha}, nil
}

// reindex fetches, parses, and replaces the snapshot for spec. Any network
// or parse error aborts only this spec; the existing snapshot is left
// intact because the replace is transactional.
func (o *Orchestrator) reindex(ctx context.Context, spec config.SpecEntry, specID int64, sha string, commitDate time.Time) (int64, error) {
	p := o.Registry.For(spec)
	if p == nil {
		return 0, fmt.Errorf("%w: no provider registered for %q", specerr.ErrUsage, spec.Provider)
	}

	body, err := p.FetchHTML(ctx, spec, sha)
	if err != nil {
		return 0, err
	}

	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("%w: parsing HTML for %s: %v", specerr.ErrParse, spec.Name, err)
	}

	sections := parse.BuildTree(parse.ParseSections(doc, spec.BaseURL))
	refs := parse.ExtractReferences(doc, sections, o.Registry)

	logging.Fetch("reindexing %s at %s: %d sections, %d refs", spec.Name, sha, len(sections), len(refs))

	return o.Store.ReplaceSnapshot(specID, sha, commitDate, now(), sections, refs)
}
