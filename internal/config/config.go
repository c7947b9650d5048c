package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains file locations used by the resolver.
type Paths struct {
	CacheFile string `toml:"cache_file"`
	HistoryDB string `toml:"history_db"`
	LogDir    string `toml:"log_dir"`
}

// Resolution contains batch orchestration settings.
type Resolution struct {
	FlushEvery   int    `toml:"flush_every"`
	PaceDelayMs  int    `toml:"pace_delay_ms"`
	PaceJitterMs int    `toml:"pace_jitter_ms"`
	ChunkSize    int    `toml:"chunk_size"`
	DateColumn   string `toml:"date_column"`
}

// Providers contains settings shared by every remote source.
type Providers struct {
	Order             []string `toml:"order"`
	UserAgent         string   `toml:"user_agent"`
	MaxRetries        int      `toml:"max_retries"`
	BaseDelayMs       int      `toml:"base_delay_ms"`
	TimeoutSeconds    int      `toml:"timeout_seconds"`
	TimeoutGrowth     float64  `toml:"timeout_growth"`
	RequestsPerMinute float64  `toml:"requests_per_minute"`
}

// Source contains the settings for one remote source.
type Source struct {
	Enabled           bool    `toml:"enabled"`
	BaseURL           string  `toml:"base_url"`
	RequestsPerMinute float64 `toml:"requests_per_minute"` // 0 inherits providers.requests_per_minute
}

// WorldCat contains the catalogue page scraper settings.
type WorldCat struct {
	Enabled           bool     `toml:"enabled"`
	BaseURL           string   `toml:"base_url"`
	RequestsPerMinute float64  `toml:"requests_per_minute"`
	Markers           []string `toml:"markers"`
}

// Estimate controls the offline prefix heuristic.
type Estimate struct {
	Enabled bool `toml:"enabled"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for isbndate.
//
// Configuration sections by subsystem:
//   - Paths: cache file, run history database, logs
//   - Resolution: flush cadence, pacing, chunking, output column
//   - Providers: retry policy and order shared by all sources
//   - GoogleBooks, OpenLibrary, WorldCat, WebSearch: per-source endpoints
//   - Estimate: offline prefix heuristic (off by default)
//   - Logging: log format and level
type Config struct {
	Paths       Paths      `toml:"paths"`
	Resolution  Resolution `toml:"resolution"`
	Providers   Providers  `toml:"providers"`
	GoogleBooks Source     `toml:"google_books"`
	OpenLibrary Source     `toml:"open_library"`
	WorldCat    WorldCat   `toml:"worldcat"`
	WebSearch   Source     `toml:"web_search"`
	Estimate    Estimate   `toml:"estimate"`
	Logging     Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the parent directories of every configured path.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.LogDir}
	for _, file := range []string{c.Paths.CacheFile, c.Paths.HistoryDB} {
		if strings.TrimSpace(file) != "" {
			dirs = append(dirs, filepath.Dir(file))
		}
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// BaseDelay returns the linear retry backoff unit.
func (c *Config) BaseDelay() time.Duration {
	return time.Duration(c.Providers.BaseDelayMs) * time.Millisecond
}

// RequestTimeout returns the first-attempt timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Providers.TimeoutSeconds) * time.Second
}

// PaceDelay returns the fixed pause after every remote lookup.
func (c *Config) PaceDelay() time.Duration {
	return time.Duration(c.Resolution.PaceDelayMs) * time.Millisecond
}

// PaceJitter returns the maximum random extension of the pause.
func (c *Config) PaceJitter() time.Duration {
	return time.Duration(c.Resolution.PaceJitterMs) * time.Millisecond
}

// RateFor returns the effective requests-per-minute limit for a source.
func (c *Config) RateFor(sourceRPM float64) float64 {
	if sourceRPM > 0 {
		return sourceRPM
	}
	return c.Providers.RequestsPerMinute
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultDataDir() string {
	if base, ok := os.LookupEnv("XDG_DATA_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "isbndate")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "~/.local/share/isbndate"
	}
	return filepath.Join(home, ".local", "share", "isbndate")
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the effective configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}
