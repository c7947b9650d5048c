package config

import "path/filepath"

const (
	defaultConfigPath        = "~/.config/isbndate/config.toml"
	projectConfigName        = "isbndate.toml"
	defaultCacheFileName     = "isbn_index.json"
	defaultHistoryDBName     = "history.db"
	defaultLogDirName        = "logs"
	defaultFlushEvery        = 3
	defaultPaceDelayMs       = 500
	defaultDateColumn        = "Fecha de Lanzamiento"
	defaultUserAgent         = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	defaultMaxRetries        = 3
	defaultBaseDelayMs       = 1000
	defaultTimeoutSeconds    = 10
	defaultTimeoutGrowth     = 1.5
	defaultGoogleBooksURL    = "https://www.googleapis.com/books/v1"
	defaultOpenLibraryURL    = "https://openlibrary.org"
	defaultWorldCatURL       = "https://www.worldcat.org"
	defaultWebSearchURL      = "https://www.google.com"
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	ProviderGoogleBooks      = "googlebooks"
	ProviderOpenLibrary      = "openlibrary"
	ProviderWorldCat         = "worldcat"
	ProviderWebSearch        = "websearch"
	ProviderEstimate         = "estimate"
)

var defaultWorldCatMarkers = []string{"Date:", "Fecha:", "Publication date:", "Fecha de publicación:"}

// DefaultProviderOrder lists the sources in priority order.
func DefaultProviderOrder() []string {
	return []string{ProviderGoogleBooks, ProviderOpenLibrary, ProviderWorldCat, ProviderWebSearch, ProviderEstimate}
}

// DefaultWorldCatMarkers returns the labels that precede a date on catalogue pages.
func DefaultWorldCatMarkers() []string {
	return append([]string(nil), defaultWorldCatMarkers...)
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	dataDir := defaultDataDir()
	return Config{
		Paths: Paths{
			CacheFile: filepath.Join(dataDir, defaultCacheFileName),
			HistoryDB: filepath.Join(dataDir, defaultHistoryDBName),
			LogDir:    filepath.Join(dataDir, defaultLogDirName),
		},
		Resolution: Resolution{
			FlushEvery:  defaultFlushEvery,
			PaceDelayMs: defaultPaceDelayMs,
			DateColumn:  defaultDateColumn,
		},
		Providers: Providers{
			Order:          DefaultProviderOrder(),
			UserAgent:      defaultUserAgent,
			MaxRetries:     defaultMaxRetries,
			BaseDelayMs:    defaultBaseDelayMs,
			TimeoutSeconds: defaultTimeoutSeconds,
			TimeoutGrowth:  defaultTimeoutGrowth,
		},
		GoogleBooks: Source{
			Enabled: true,
			BaseURL: defaultGoogleBooksURL,
		},
		OpenLibrary: Source{
			Enabled: true,
			BaseURL: defaultOpenLibraryURL,
		},
		WorldCat: WorldCat{
			Enabled: true,
			BaseURL: defaultWorldCatURL,
			Markers: DefaultWorldCatMarkers(),
		},
		WebSearch: Source{
			BaseURL: defaultWebSearchURL,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
