package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"specindex/internal/config"
)

// WhatwgProvider fetches WHATWG living standards, which publish an
// immutable commit-snapshot for every historical sha.
type WhatwgProvider struct {
	http *httpClient
}

func NewWhatwgProvider() *WhatwgProvider {
	return &WhatwgProvider{http: newHTTPClient(30 * time.Second)}
}

func (p *WhatwgProvider) Name() Kind { return WHATWG }

func (p *WhatwgProvider) FetchHTML(ctx context.Context, spec config.SpecEntry, sha string) (string, error) {
	url := fmt.Sprintf("%s/commit-snapshots/%s/", strings.TrimRight(spec.BaseURL, "/"), sha)
	body, err := p.http.get(ctx, url)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (p *WhatwgProvider) FetchLatest(ctx context.Context, spec config.SpecEntry) (string, time.Time, error) {
	return p.http.fetchLatestCommit(ctx, spec.RepoID)
}
