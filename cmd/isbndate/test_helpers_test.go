package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"isbndate/internal/config"
	"isbndate/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
	server     *httptest.Server
	calls      *atomic.Int64
}

// knownDates is what the fake Google Books endpoint answers.
var knownDates = map[string]string{
	"9780131103627": "1988",
	"9780306406157": "2001-05-12",
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	calls := new(atomic.Int64)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/googlebooks/volumes") {
			w.WriteHeader(http.StatusOK)
			return
		}
		calls.Add(1)
		id := strings.TrimPrefix(r.URL.Query().Get("q"), "isbn:")
		date, ok := knownDates[id]
		if !ok {
			_, _ = w.Write([]byte(`{"totalItems":0}`))
			return
		}
		fmt.Fprintf(w, `{"totalItems":1,"items":[{"volumeInfo":{"publishedDate":%q}}]}`, date)
	}))
	t.Cleanup(server.Close)

	cfg := testsupport.NewConfig(t,
		testsupport.WithProviderURL(server.URL),
		testsupport.WithProviders(config.ProviderGoogleBooks),
	)
	cfg.Logging.Level = "error"
	base := testsupport.BaseDir(cfg)
	t.Setenv("HOME", filepath.Join(base, "home"))

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		configPath: configPath,
		baseDir:    base,
		server:     server,
		calls:      calls,
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := cfg.Encode()
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
