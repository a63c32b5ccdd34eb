package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"specindex/internal/config"
)

// W3cProvider fetches W3C/CSSWG drafts, which are always served from the
// live editor's draft at base_url (no per-sha snapshot URL exists, so sha is
// used only for cache bookkeeping).
type W3cProvider struct {
	http *httpClient
}

func NewW3cProvider() *W3cProvider {
	return &W3cProvider{http: newHTTPClient(30 * time.Second)}
}

func (p *W3cProvider) Name() Kind { return W3C }

func (p *W3cProvider) FetchHTML(ctx context.Context, spec config.SpecEntry, _ string) (string, error) {
	url := fmt.Sprintf("%s/", strings.TrimRight(spec.BaseURL, "/"))
	body, err := p.http.get(ctx, url)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (p *W3cProvider) FetchLatest(ctx context.Context, spec config.SpecEntry) (string, time.Time, error) {
	return p.http.fetchLatestCommit(ctx, spec.RepoID)
}
