// Package config loads specindex's configuration: the fixed registry of
// known specifications, the index store location, and ambient logging
// settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"specindex/internal/logging"
)

// Provider names a spec-hosting ecosystem; dispatch in package provider is
// keyed on this tag.
type Provider string

const (
	ProviderWHATWG Provider = "whatwg"
	ProviderW3C    Provider = "w3c"
	ProviderTC39   Provider = "tc39"
)

// SpecEntry is one row of the spec registry: configuration data with a
// fixed shape, listing the specs indexed by default.
type SpecEntry struct {
	Name     string   `yaml:"name"`
	BaseURL  string   `yaml:"base_url"`
	Provider Provider `yaml:"provider"`
	RepoID   string   `yaml:"repo_id"`
}

// LoggingConfig configures the categorized file logger.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Level      string          `yaml:"level"` // debug, info, warn, error
	JSONFormat bool            `yaml:"json_format"`
	Categories map[string]bool `yaml:"categories"`
}

// Config holds all specindex configuration.
type Config struct {
	// DBPath is the on-disk path of the single-file index store.
	DBPath string `yaml:"db_path"`

	// FuzzyThreshold is the default Jaro-Winkler threshold used by the step
	// matcher when an LSP client does not override it via
	// initializationOptions.
	FuzzyThreshold float64 `yaml:"fuzzy_threshold"`

	// CacheTTL is the configured repo-version-cache lifetime (24h by
	// default). The fetch orchestrator does not read this field; it uses its
	// own fixed fetch.CacheTTL of 24h.
	CacheTTL time.Duration `yaml:"cache_ttl"`

	// DebounceInterval is the LSP didChange debounce window (300ms by
	// default).
	DebounceInterval time.Duration `yaml:"debounce_interval"`

	Logging LoggingConfig `yaml:"logging"`

	Specs []SpecEntry `yaml:"specs"`
}

// DefaultConfig returns the default configuration, including the built-in
// registry of well-known specs.
func DefaultConfig() *Config {
	return &Config{
		DBPath:           defaultDBPath(),
		FuzzyThreshold:   0.85,
		CacheTTL:         24 * time.Hour,
		DebounceInterval: 300 * time.Millisecond,
		Logging: LoggingConfig{
			Level: "info",
		},
		Specs: []SpecEntry{
			{Name: "html", BaseURL: "https://html.spec.whatwg.org/multipage/", Provider: ProviderWHATWG, RepoID: "whatwg/html"},
			{Name: "dom", BaseURL: "https://dom.spec.whatwg.org/", Provider: ProviderWHATWG, RepoID: "whatwg/dom"},
			{Name: "fetch", BaseURL: "https://fetch.spec.whatwg.org/", Provider: ProviderWHATWG, RepoID: "whatwg/fetch"},
			{Name: "url", BaseURL: "https://url.spec.whatwg.org/", Provider: ProviderWHATWG, RepoID: "whatwg/url"},
			{Name: "css-position-3", BaseURL: "https://drafts.csswg.org/css-position-3/", Provider: ProviderW3C, RepoID: "w3c/csswg-drafts"},
			{Name: "css-flexbox-1", BaseURL: "https://drafts.csswg.org/css-flexbox-1/", Provider: ProviderW3C, RepoID: "w3c/csswg-drafts"},
			{Name: "webidl", BaseURL: "https://webidl.spec.whatwg.org/", Provider: ProviderWHATWG, RepoID: "whatwg/webidl"},
			{Name: "ecma262", BaseURL: "https://tc39.es/ecma262/", Provider: ProviderTC39, RepoID: "tc39/ecma262"},
		},
	}
}

func defaultDBPath() string {
	if p := os.Getenv("SPECINDEX_DB_PATH"); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "specindex", "index.db")
}

// Load loads configuration from a YAML file, falling back to defaults for
// any field the file doesn't set and for the file not existing at all.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

func (c *Config) applyEnvOverrides() {
	if path := os.Getenv("SPECINDEX_DB_PATH"); path != "" {
		c.DBPath = path
	}
}

// LoggingInput converts the config's logging section into the input shape
// package logging accepts, keeping the two packages decoupled.
func (c *Config) LoggingInput() *logging.ConfigInput {
	return logging.NewConfigInput(c.Logging.DebugMode, c.Logging.Categories, c.Logging.Level, c.Logging.JSONFormat)
}

// FindSpec looks up a spec by case-insensitive name.
func (c *Config) FindSpec(name string) (SpecEntry, bool) {
	for _, s := range c.Specs {
		if equalFold(s.Name, name) {
			return s, true
		}
	}
	return SpecEntry{}, false
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}
