package lsp

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"specindex/internal/logging"
	"specindex/internal/query"
)

// CacheWatcher watches a workspace directory for source-file changes and
// invalidates the server's query-result cache so stale section content
// isn't served after an external edit (e.g. a vendored spec snapshot
// refreshed on disk). Disabled by default: callers opt in with Start.
type CacheWatcher struct {
	mu      sync.Mutex
	watcher *fsnotify.Watcher
	server  *Server
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewCacheWatcher builds a watcher bound to server's cache. It does not
// start watching until Start is called.
func NewCacheWatcher(server *Server) (*CacheWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &CacheWatcher{watcher: w, server: server}, nil
}

// Start begins watching dir for changes, non-blocking. Calling Start twice
// on an already-running watcher is a no-op.
func (cw *CacheWatcher) Start(ctx context.Context, dir string) error {
	cw.mu.Lock()
	if cw.running {
		cw.mu.Unlock()
		return nil
	}
	cw.running = true
	cw.stopCh = make(chan struct{})
	cw.doneCh = make(chan struct{})
	cw.mu.Unlock()

	if err := cw.watcher.Add(dir); err != nil {
		logging.LSP("cache watcher: failed to watch %s: %v", dir, err)
	}

	go cw.run(ctx)
	return nil
}

// Stop stops the watcher and waits for its goroutine to exit.
func (cw *CacheWatcher) Stop() {
	cw.mu.Lock()
	if !cw.running {
		cw.mu.Unlock()
		return
	}
	cw.running = false
	stopCh := cw.stopCh
	doneCh := cw.doneCh
	cw.mu.Unlock()

	close(stopCh)
	<-doneCh
	cw.watcher.Close()
}

func (cw *CacheWatcher) run(ctx context.Context) {
	defer close(cw.doneCh)
	for {
		select {
		case <-ctx.Done():
			return
		case <-cw.stopCh:
			return
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			cw.handleEvent(event)
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			logging.LSP("cache watcher error: %v", err)
		}
	}
}

// handleEvent drops the whole unversioned query-result cache on any write,
// create or remove under the watched tree; invalidation is coarse-grained since
// the cache has no per-ref mtime to compare against.
func (cw *CacheWatcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Remove|fsnotify.Create) == 0 {
		return
	}
	logging.LSPDebug("cache watcher: %s changed, invalidating query-result cache", filepath.Base(event.Name))

	s := cw.server
	s.cacheMu.Lock()
	s.cache = make(map[string]query.QueryResult)
	s.cacheMu.Unlock()
}
