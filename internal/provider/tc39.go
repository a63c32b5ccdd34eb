package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"specindex/internal/config"
)

// Tc39Provider fetches ecmarkup-rendered proposal/spec pages served at
// tc39.es.
type Tc39Provider struct {
	http *httpClient
}

func NewTc39Provider() *Tc39Provider {
	return &Tc39Provider{http: newHTTPClient(30 * time.Second)}
}

func (p *Tc39Provider) Name() Kind { return TC39 }

func (p *Tc39Provider) FetchHTML(ctx context.Context, spec config.SpecEntry, _ string) (string, error) {
	url := fmt.Sprintf("%s/", strings.TrimRight(spec.BaseURL, "/"))
	body, err := p.http.get(ctx, url)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (p *Tc39Provider) FetchLatest(ctx context.Context, spec config.SpecEntry) (string, time.Time, error) {
	return p.http.fetchLatestCommit(ctx, spec.RepoID)
}
