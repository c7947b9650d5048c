package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var knownProviders = map[string]struct{}{
	ProviderGoogleBooks: {},
	ProviderOpenLibrary: {},
	ProviderWorldCat:    {},
	ProviderWebSearch:   {},
	ProviderEstimate:    {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateProviders(); err != nil {
		return err
	}
	if err := c.validateSources(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.CacheFile) == "" {
		return errors.New("paths.cache_file must be set")
	}
	if strings.TrimSpace(c.Paths.HistoryDB) != "" && c.Paths.HistoryDB == c.Paths.CacheFile {
		return errors.New("paths.history_db must differ from paths.cache_file")
	}
	return nil
}

func (c *Config) validateProviders() error {
	for _, name := range c.Providers.Order {
		if _, ok := knownProviders[name]; !ok {
			return fmt.Errorf("providers.order: unknown provider %q", name)
		}
	}
	if len(c.EnabledProviders()) == 0 {
		return errors.New("providers: at least one provider must be enabled")
	}
	if c.Providers.MaxRetries > 10 {
		return errors.New("providers.max_retries must be at most 10")
	}
	if c.Providers.TimeoutGrowth > 4 {
		return errors.New("providers.timeout_growth must be at most 4")
	}
	return nil
}

func (c *Config) validateSources() error {
	for key, value := range map[string]string{
		"google_books.base_url": c.GoogleBooks.BaseURL,
		"open_library.base_url": c.OpenLibrary.BaseURL,
		"worldcat.base_url":     c.WorldCat.BaseURL,
		"web_search.base_url":   c.WebSearch.BaseURL,
	} {
		parsed, err := url.Parse(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if parsed.Scheme != "http" && parsed.Scheme != "https" {
			return fmt.Errorf("%s must be an http(s) URL", key)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}

// EnabledProviders returns the configured order filtered to enabled sources.
func (c *Config) EnabledProviders() []string {
	out := make([]string, 0, len(c.Providers.Order))
	for _, name := range c.Providers.Order {
		if c.providerEnabled(name) {
			out = append(out, name)
		}
	}
	return out
}

func (c *Config) providerEnabled(name string) bool {
	switch name {
	case ProviderGoogleBooks:
		return c.GoogleBooks.Enabled
	case ProviderOpenLibrary:
		return c.OpenLibrary.Enabled
	case ProviderWorldCat:
		return c.WorldCat.Enabled
	case ProviderWebSearch:
		return c.WebSearch.Enabled
	case ProviderEstimate:
		return c.Estimate.Enabled
	default:
		return false
	}
}
