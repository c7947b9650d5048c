// Package registry assembles the provider chain described by configuration.
package registry

import (
	"fmt"
	"log/slog"
	"net/http"

	"isbndate/internal/config"
	"isbndate/internal/providers"
	"isbndate/internal/providers/estimate"
	"isbndate/internal/providers/googlebooks"
	"isbndate/internal/providers/openlibrary"
	"isbndate/internal/providers/websearch"
	"isbndate/internal/providers/worldcat"
)

// Endpoint describes one enabled HTTP source, for preflight checks.
type Endpoint struct {
	Name    string
	BaseURL string
}

// ClientOptions derives the shared HTTP client options from cfg.
func ClientOptions(cfg *config.Config, logger *slog.Logger) []providers.Option {
	return []providers.Option{
		providers.WithHTTPClient(&http.Client{}),
		providers.WithUserAgent(cfg.Providers.UserAgent),
		providers.WithRetryPolicy(providers.RetryPolicy{
			MaxRetries:    cfg.Providers.MaxRetries,
			BaseDelay:     cfg.BaseDelay(),
			Timeout:       cfg.RequestTimeout(),
			TimeoutGrowth: cfg.Providers.TimeoutGrowth,
		}),
		providers.WithLogger(logger),
	}
}

// Build returns the chain of enabled sources in configured order. extra
// options are applied after the config-derived ones.
func Build(cfg *config.Config, logger *slog.Logger, extra ...providers.Option) (*providers.Chain, error) {
	if cfg == nil {
		return nil, fmt.Errorf("registry: nil config")
	}
	client := providers.NewClient(append(ClientOptions(cfg, logger), extra...)...)

	sources := make([]providers.Source, 0, len(cfg.Providers.Order))
	for _, name := range cfg.EnabledProviders() {
		switch name {
		case config.ProviderGoogleBooks:
			sources = append(sources, client.Source(googlebooks.New(cfg.GoogleBooks.BaseURL), cfg.RateFor(cfg.GoogleBooks.RequestsPerMinute)))
		case config.ProviderOpenLibrary:
			sources = append(sources, client.Source(openlibrary.New(cfg.OpenLibrary.BaseURL), cfg.RateFor(cfg.OpenLibrary.RequestsPerMinute)))
		case config.ProviderWorldCat:
			sources = append(sources, client.Source(worldcat.New(cfg.WorldCat.BaseURL, cfg.WorldCat.Markers), cfg.RateFor(cfg.WorldCat.RequestsPerMinute)))
		case config.ProviderWebSearch:
			sources = append(sources, client.Source(websearch.New(cfg.WebSearch.BaseURL), cfg.RateFor(cfg.WebSearch.RequestsPerMinute)))
		case config.ProviderEstimate:
			sources = append(sources, estimate.New(logger))
		default:
			return nil, fmt.Errorf("registry: unknown provider %q", name)
		}
	}
	return providers.NewChain(logger, sources...), nil
}

// Endpoints lists the enabled HTTP sources in configured order.
func Endpoints(cfg *config.Config) []Endpoint {
	var out []Endpoint
	for _, name := range cfg.EnabledProviders() {
		switch name {
		case config.ProviderGoogleBooks:
			out = append(out, Endpoint{Name: name, BaseURL: cfg.GoogleBooks.BaseURL})
		case config.ProviderOpenLibrary:
			out = append(out, Endpoint{Name: name, BaseURL: cfg.OpenLibrary.BaseURL})
		case config.ProviderWorldCat:
			out = append(out, Endpoint{Name: name, BaseURL: cfg.WorldCat.BaseURL})
		case config.ProviderWebSearch:
			out = append(out, Endpoint{Name: name, BaseURL: cfg.WebSearch.BaseURL})
		}
	}
	return out
}
