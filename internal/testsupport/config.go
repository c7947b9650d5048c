package testsupport

import (
	"path/filepath"
	"testing"

	"isbndate/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Pacing and retry delays are zeroed so tests never sleep.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.CacheFile = filepath.Join(base, "data", "isbn_index.json")
	cfgVal.Paths.HistoryDB = filepath.Join(base, "data", "history.db")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Resolution.PaceDelayMs = 0
	cfgVal.Resolution.PaceJitterMs = 0
	cfgVal.Providers.BaseDelayMs = 0
	cfgVal.Providers.MaxRetries = 1

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithProviderURL points every HTTP source at baseURL (usually an
// httptest server) under a per-source path prefix.
func WithProviderURL(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.GoogleBooks.BaseURL = baseURL + "/googlebooks"
		b.cfg.OpenLibrary.BaseURL = baseURL + "/openlibrary"
		b.cfg.WorldCat.BaseURL = baseURL + "/worldcat"
		b.cfg.WebSearch.BaseURL = baseURL + "/websearch"
	}
}

// WithProviders enables exactly the named sources, in order.
func WithProviders(names ...string) ConfigOption {
	return func(b *configBuilder) {
		enabled := make(map[string]bool, len(names))
		for _, name := range names {
			enabled[name] = true
		}
		b.cfg.Providers.Order = append([]string(nil), names...)
		b.cfg.GoogleBooks.Enabled = enabled[config.ProviderGoogleBooks]
		b.cfg.OpenLibrary.Enabled = enabled[config.ProviderOpenLibrary]
		b.cfg.WorldCat.Enabled = enabled[config.ProviderWorldCat]
		b.cfg.WebSearch.Enabled = enabled[config.ProviderWebSearch]
		b.cfg.Estimate.Enabled = enabled[config.ProviderEstimate]
	}
}

// WithChunkSize sets the resolution chunk size.
func WithChunkSize(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Resolution.ChunkSize = n
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.LogDir)
}
