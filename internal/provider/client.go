package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"specindex/internal/config"
	"specindex/internal/specerr"
)

// userAgent labels every outbound request with a stable identifying string.
const userAgent = "specindex/0.1 (+https://github.com/specindex)"

// Provider fetches spec HTML and version metadata for one hosting scheme.
// FetchHTML and FetchLatest are the two provider operations a fetch can run
// concurrently across specs; URL-to-anchor resolution is not part of this
// interface and lives in Registry.Resolve.
type Provider interface {
	Name() Kind
	FetchHTML(ctx context.Context, spec config.SpecEntry, sha string) (string, error)
	FetchLatest(ctx context.Context, spec config.SpecEntry) (sha string, commitDate time.Time, err error)
}

// httpClient is shared by every provider implementation, grounded on the
// an HTTP-client-with-timeout pattern.
type httpClient struct {
	client *http.Client
}

func newHTTPClient(timeout time.Duration) *httpClient {
	return &httpClient{client: &http.Client{Timeout: timeout}}
}

func (c *httpClient) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", specerr.ErrNetwork, err)
	}
	req.Header.Set("User-Agent", userAgent)
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", specerr.ErrNetwork, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", specerr.ErrNetwork, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: GET %s: HTTP %d", specerr.ErrNetwork, url, resp.StatusCode)
	}
	return body, nil
}

// githubCommit mirrors the fields read from GitHub's commits API response.
type githubCommit struct {
	SHA    string `json:"sha"`
	Commit struct {
		Committer struct {
			Date time.Time `json:"date"`
		} `json:"committer"`
	} `json:"commit"`
}

func (c *httpClient) fetchLatestCommit(ctx context.Context, repoID string) (string, time.Time, error) {
	url := fmt.Sprintf("https://api.github.com/repos/%s/commits?per_page=1", repoID)
	body, err := c.get(ctx, url)
	if err != nil {
		return "", time.Time{}, err
	}
	var commits []githubCommit
	if err := json.Unmarshal(body, &commits); err != nil {
		return "", time.Time{}, fmt.Errorf("%w: decoding commits for %s: %v", specerr.ErrParse, repoID, err)
	}
	if len(commits) == 0 {
		return "", time.Time{}, fmt.Errorf("%w: no commits found for %s", specerr.ErrNotFound, repoID)
	}
	return commits[0].SHA, commits[0].Commit.Committer.Date, nil
}
