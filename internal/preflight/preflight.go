package preflight

import (
	"context"
	"path/filepath"

	"isbndate/internal/config"
	"isbndate/internal/providers/registry"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Cache directory", filepath.Dir(cfg.Paths.CacheFile)),
		CheckCacheFile(cfg.Paths.CacheFile),
		CheckDirectoryAccess("History directory", filepath.Dir(cfg.Paths.HistoryDB)),
	}
	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}

	for _, endpoint := range registry.Endpoints(cfg) {
		results = append(results, CheckProvider(ctx, endpoint.Name, endpoint.BaseURL, cfg.Providers.UserAgent))
	}
	if cfg.Estimate.Enabled {
		results = append(results, Result{Name: config.ProviderEstimate, Passed: true, Detail: "offline heuristic enabled"})
	}
	return results
}

// Failed counts results that did not pass.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if !r.Passed {
			n++
		}
	}
	return n
}
