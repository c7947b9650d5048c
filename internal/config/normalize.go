package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeResolution()
	c.normalizeProviders()
	c.normalizeSources()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv("ISBNDATE_CACHE_FILE"); ok && strings.TrimSpace(value) != "" {
		c.Paths.CacheFile = strings.TrimSpace(value)
	}
	var err error
	if c.Paths.CacheFile, err = expandPath(strings.TrimSpace(c.Paths.CacheFile)); err != nil {
		return fmt.Errorf("paths.cache_file: %w", err)
	}
	if c.Paths.HistoryDB, err = expandPath(strings.TrimSpace(c.Paths.HistoryDB)); err != nil {
		return fmt.Errorf("paths.history_db: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeResolution() {
	if c.Resolution.FlushEvery <= 0 {
		c.Resolution.FlushEvery = defaultFlushEvery
	}
	if c.Resolution.PaceDelayMs < 0 {
		c.Resolution.PaceDelayMs = 0
	}
	if c.Resolution.PaceJitterMs < 0 {
		c.Resolution.PaceJitterMs = 0
	}
	if c.Resolution.ChunkSize < 0 {
		c.Resolution.ChunkSize = 0
	}
	c.Resolution.DateColumn = strings.TrimSpace(c.Resolution.DateColumn)
	if c.Resolution.DateColumn == "" {
		c.Resolution.DateColumn = defaultDateColumn
	}
}

func (c *Config) normalizeProviders() {
	order := make([]string, 0, len(c.Providers.Order))
	seen := make(map[string]struct{}, len(c.Providers.Order))
	for _, name := range c.Providers.Order {
		normalized := strings.ToLower(strings.TrimSpace(name))
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		order = append(order, normalized)
	}
	if len(order) == 0 {
		order = DefaultProviderOrder()
	}
	c.Providers.Order = order

	c.Providers.UserAgent = strings.TrimSpace(c.Providers.UserAgent)
	if c.Providers.UserAgent == "" {
		c.Providers.UserAgent = defaultUserAgent
	}
	if c.Providers.MaxRetries <= 0 {
		c.Providers.MaxRetries = defaultMaxRetries
	}
	if c.Providers.BaseDelayMs < 0 {
		c.Providers.BaseDelayMs = 0
	}
	if c.Providers.TimeoutSeconds <= 0 {
		c.Providers.TimeoutSeconds = defaultTimeoutSeconds
	}
	if c.Providers.TimeoutGrowth < 1 {
		c.Providers.TimeoutGrowth = defaultTimeoutGrowth
	}
	if c.Providers.RequestsPerMinute < 0 {
		c.Providers.RequestsPerMinute = 0
	}
}

func (c *Config) normalizeSources() {
	c.GoogleBooks.BaseURL = trimURL(c.GoogleBooks.BaseURL, defaultGoogleBooksURL)
	c.OpenLibrary.BaseURL = trimURL(c.OpenLibrary.BaseURL, defaultOpenLibraryURL)
	c.WorldCat.BaseURL = trimURL(c.WorldCat.BaseURL, defaultWorldCatURL)
	c.WebSearch.BaseURL = trimURL(c.WebSearch.BaseURL, defaultWebSearchURL)

	markers := make([]string, 0, len(c.WorldCat.Markers))
	for _, marker := range c.WorldCat.Markers {
		if trimmed := strings.TrimSpace(marker); trimmed != "" {
			markers = append(markers, trimmed)
		}
	}
	if len(markers) == 0 {
		markers = DefaultWorldCatMarkers()
	}
	c.WorldCat.Markers = markers
}

func (c *Config) normalizeLogging() {
	if value, ok := os.LookupEnv("ISBNDATE_LOG_LEVEL"); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = value
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = normalizeLevel(c.Logging.Level)
}

// OverrideLogLevel replaces logging.level, for example from a command-line
// flag, and validates the result.
func (c *Config) OverrideLogLevel(level string) error {
	if strings.TrimSpace(level) == "" {
		return nil
	}
	c.Logging.Level = normalizeLevel(level)
	return c.validateLogging()
}

func normalizeLevel(level string) string {
	switch level = strings.ToLower(strings.TrimSpace(level)); level {
	case "":
		return defaultLogLevel
	case "warning":
		return "warn"
	default:
		return level
	}
}

func trimURL(value, fallback string) string {
	value = strings.TrimRight(strings.TrimSpace(value), "/")
	if value == "" {
		return fallback
	}
	return value
}
