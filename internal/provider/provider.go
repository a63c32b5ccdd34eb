// Package provider implements the URL resolver: per-spec matching rules that
// recognize an absolute spec URL and split it into a spec name and anchor.
// Follows a registry-of-named-things
// pattern (internal/config.DefaultConfig's []SpecEntry) generalized from
// configuration data into resolution behavior.
package provider

import (
	"net/url"
	"strings"

	"specindex/internal/config"
)

// Kind identifies which matching rules a spec's provider uses.
type Kind string

const (
	WHATWG Kind = "whatwg"
	W3C    Kind = "w3c"
	TC39   Kind = "tc39"
)

// Registry resolves absolute URLs to (spec name, anchor) pairs across every
// configured spec, implementing parse.URLResolver, and dispatches fetch
// operations to the right Provider by kind.
type Registry struct {
	specs     []config.SpecEntry
	providers map[Kind]Provider
}

// NewRegistry builds a Registry from the configured spec list, wiring up the
// three built-in providers.
func NewRegistry(specs []config.SpecEntry) *Registry {
	return &Registry{
		specs: specs,
		providers: map[Kind]Provider{
			WHATWG: NewWhatwgProvider(),
			W3C:    NewW3cProvider(),
			TC39:   NewTc39Provider(),
		},
	}
}

// For returns the Provider registered for a spec's configured kind, or nil
// if unknown.
func (r *Registry) For(spec config.SpecEntry) Provider {
	return r.providers[Kind(spec.Provider)]
}

// NewRegistryWithProviders builds a Registry from explicit providers,
// bypassing the built-in HTTP-backed ones. Used by tests that need a fake
// Provider.
func NewRegistryWithProviders(specs []config.SpecEntry, providers map[Kind]Provider) *Registry {
	return &Registry{specs: specs, providers: providers}
}

// Resolve implements parse.URLResolver. It tries every configured spec's
// provider rule and returns the first match.
func (r *Registry) Resolve(rawURL string) (spec, anchor string, ok bool) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Fragment == "" {
		return "", "", false
	}
	for _, s := range r.specs {
		if matches(Kind(s.Provider), s.BaseURL, u) {
			return s.Name, u.Fragment, true
		}
	}
	return "", "", false
}

func matches(kind Kind, baseURL string, u *url.URL) bool {
	base, err := url.Parse(baseURL)
	if err != nil {
		return false
	}
	switch kind {
	case WHATWG:
		return u.Host == base.Host
	case W3C:
		return w3cMatches(base, u)
	case TC39:
		return u.Host == "tc39.es" && strings.HasPrefix(u.Path, base.Path)
	default:
		return false
	}
}

// w3cMatches handles the two W3C hosting shapes: drafts.csswg.org/<dir> and
// w3c.github.io/<repo>.
func w3cMatches(base, u *url.URL) bool {
	if u.Host != base.Host {
		return false
	}
	baseDir := firstPathSegment(base.Path)
	return baseDir != "" && firstPathSegment(u.Path) == baseDir
}

func firstPathSegment(p string) string {
	p = strings.TrimPrefix(p, "/")
	if i := strings.Index(p, "/"); i >= 0 {
		return p[:i]
	}
	return p
}
