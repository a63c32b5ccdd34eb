// Package query is the shared lookup layer sitting on top of the index
// store and fetch orchestrator: it resolves a "spec#anchor" or "spec"
// argument against the index, lazily ensuring the spec is indexed first,
// and shapes the results callers need (QueryResult, ExistsResult,
// AnchorsResult, ListEntry, RefsResult, UpdateEntry). Both the CLI and the
// LSP's query-result cache sit on this package rather than talking to the
// store and orchestrator directly.
package query

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"specindex/internal/config"
	"specindex/internal/fetch"
	"specindex/internal/model"
	"specindex/internal/specerr"
	"specindex/internal/store"
)

// Service wires a store, a fetch orchestrator, and the configured spec
// registry together.
type Service struct {
	Store  *store.Store
	Fetch  *fetch.Orchestrator
	Config *config.Config
}

// New builds a Service.
func New(cfg *config.Config, s *store.Store, o *fetch.Orchestrator) *Service {
	return &Service{Store: s, Fetch: o, Config: cfg}
}

// QueryResult is one resolved section.
type QueryResult struct {
	Spec    string
	Section model.Section
}

// SplitRef splits a "spec#anchor" or bare "spec" argument.
func SplitRef(ref string) (spec, anchor string) {
	i := strings.IndexByte(ref, '#')
	if i < 0 {
		return ref, ""
	}
	return ref[:i], ref[i+1:]
}

// resolveSnapshot ensures specName is indexed and returns its spec entry and
// current snapshot id.
func (s *Service) resolveSnapshot(ctx context.Context, specName string) (config.SpecEntry, int64, error) {
	entry, ok := s.Config.FindSpec(specName)
	if !ok {
		return config.SpecEntry{}, 0, fmt.Errorf("%w: unknown spec %q", specerr.ErrNotFound, specName)
	}
	snapshotID, err := s.Fetch.EnsureIndexed(ctx, entry)
	if err != nil {
		return entry, 0, err
	}
	return entry, snapshotID, nil
}

// Query implements the `query` operation: resolve "spec#anchor" to a
// QueryResult.
func (s *Service) Query(ctx context.Context, ref string) (QueryResult, error) {
	specName, anchor := SplitRef(ref)
	if anchor == "" {
		return QueryResult{}, fmt.Errorf("%w: expected spec#anchor, got %q", specerr.ErrUsage, ref)
	}
	entry, snapshotID, err := s.resolveSnapshot(ctx, specName)
	if err != nil {
		return QueryResult{}, err
	}
	sec, err := s.Store.Section(snapshotID, anchor)
	if err != nil {
		return QueryResult{}, err
	}
	return QueryResult{Spec: entry.Name, Section: sec}, nil
}

// ExistsResult reports whether a spec#anchor resolves.
type ExistsResult struct {
	Ref    string
	Exists bool
}

// Exists implements the `exists` operation.
func (s *Service) Exists(ctx context.Context, ref string) (ExistsResult, error) {
	_, err := s.Query(ctx, ref)
	if err == nil {
		return ExistsResult{Ref: ref, Exists: true}, nil
	}
	if specerr.Is(err, specerr.ErrNotFound) {
		return ExistsResult{Ref: ref, Exists: false}, nil
	}
	return ExistsResult{}, err
}

// AnchorsResult is the result of a glob lookup.
type AnchorsResult struct {
	Spec    string
	Anchors []string
}

// Anchors implements the `anchors` operation: glob match over one spec's
// anchors.
func (s *Service) Anchors(ctx context.Context, specName, glob string) (AnchorsResult, error) {
	entry, snapshotID, err := s.resolveSnapshot(ctx, specName)
	if err != nil {
		return AnchorsResult{}, err
	}
	anchors, err := s.Store.AnchorsMatching(snapshotID, glob)
	if err != nil {
		return AnchorsResult{}, err
	}
	return AnchorsResult{Spec: entry.Name, Anchors: anchors}, nil
}

// ListEntry summarizes one indexed spec as a
// "<spec> (<n> sections, updated <date>)" line.
type ListEntry struct {
	Spec      string
	Sections  int
	UpdatedAt time.Time
}

// Summary renders the ListEntry line.
func (e ListEntry) Summary() string {
	return fmt.Sprintf("%s (%d sections, updated %s)", e.Spec, e.Sections, e.UpdatedAt.Format("2006-01-02"))
}

// List implements the `list` operation: every currently indexed spec.
func (s *Service) List() ([]ListEntry, error) {
	specs, err := s.Store.ListSpecs()
	if err != nil {
		return nil, err
	}
	var out []ListEntry
	for _, sp := range specs {
		snap, ok, err := s.Store.CurrentSnapshot(sp.ID)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		anchors, err := s.Store.AnchorsMatching(snap.ID, "*")
		if err != nil {
			return nil, err
		}
		out = append(out, ListEntry{Spec: sp.Name, Sections: len(anchors), UpdatedAt: snap.IndexedAt})
	}
	return out, nil
}

// Direction selects which side of a reference to traverse.
type Direction string

const (
	DirectionOut Direction = "out"
	DirectionIn  Direction = "in"
)

// RefsResult is the result of a refs lookup in either direction.
type RefsResult struct {
	Ref       string
	Direction Direction
	Refs      []model.Reference
}

// Refs implements the `refs` operation.
func (s *Service) Refs(ctx context.Context, ref string, dir Direction) (RefsResult, error) {
	specName, anchor := SplitRef(ref)
	if anchor == "" {
		return RefsResult{}, fmt.Errorf("%w: expected spec#anchor, got %q", specerr.ErrUsage, ref)
	}
	switch dir {
	case DirectionOut:
		_, snapshotID, err := s.resolveSnapshot(ctx, specName)
		if err != nil {
			return RefsResult{}, err
		}
		refs, err := s.Store.OutgoingRefs(snapshotID, anchor)
		if err != nil {
			return RefsResult{}, err
		}
		return RefsResult{Ref: ref, Direction: dir, Refs: refs}, nil
	case DirectionIn:
		refs, err := s.Store.IncomingRefs(specName, anchor)
		if err != nil {
			return RefsResult{}, err
		}
		return RefsResult{Ref: ref, Direction: dir, Refs: refs}, nil
	default:
		return RefsResult{}, fmt.Errorf("%w: unknown direction %q", specerr.ErrUsage, dir)
	}
}

// Search implements the `search` operation, a thin pass-through to the
// index store's FTS query.
func (s *Service) Search(query, specName string, limit int) ([]store.SearchResult, error) {
	return s.Store.Search(query, specName, limit)
}

// UpdateEntry reports one spec's update_if_needed outcome, used by
// update_all_specs, which records a per-spec result and continues.
type UpdateEntry struct {
	Spec    string
	Changed bool
	SHA     string
	Err     error
}

// Update implements the `update` operation for one spec.
func (s *Service) Update(ctx context.Context, specName string, force bool) (UpdateEntry, error) {
	entry, ok := s.Config.FindSpec(specName)
	if !ok {
		return UpdateEntry{}, fmt.Errorf("%w: unknown spec %q", specerr.ErrNotFound, specName)
	}
	res, err := s.Fetch.UpdateIfNeeded(ctx, entry, force)
	if err != nil {
		return UpdateEntry{Spec: entry.Name, Err: err}, err
	}
	return UpdateEntry{Spec: entry.Name, Changed: res.Changed, SHA: res.SHA}, nil
}

// updateConcurrency bounds how many specs are fetched at once; the store
// itself serializes writes at the connection-pool level (SetMaxOpenConns(1)).
const updateConcurrency = 4

// UpdateAll implements update_all_specs: every configured spec is updated
// independently and concurrently, bounded by updateConcurrency; a per-spec
// failure is recorded but does not stop the rest, following the same
// errgroup-with-controlled-concurrency gathering idiom used elsewhere in
// this codebase.
func (s *Service) UpdateAll(ctx context.Context, force bool) []UpdateEntry {
	entries := make([]UpdateEntry, len(s.Config.Specs))
	var mu sync.Mutex

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(updateConcurrency)

	for i, sp := range s.Config.Specs {
		i, sp := i, sp
		eg.Go(func() error {
			res, err := s.Update(egCtx, sp.Name, force)
			if err != nil && res.Spec == "" {
				res = UpdateEntry{Spec: sp.Name, Err: err}
			}
			mu.Lock()
			entries[i] = res
			mu.Unlock()
			return nil // never abort the group: one spec's failure is recorded, not fatal
		})
	}
	eg.Wait()
	return entries
}

// ClearDB truncates every table, backing the `clear-db` CLI subcommand.
func (s *Service) ClearDB() error {
	return s.Store.ClearAll()
}
