package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"isbndate/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckProvider_Reachable(t *testing.T) {
	var agent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agent = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	result := CheckProvider(context.Background(), "googlebooks", srv.URL+"/", "isbndate-test")
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	if agent != "isbndate-test" {
		t.Fatalf("expected user agent to be sent, got %q", agent)
	}
}

func TestCheckProvider_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	if result := CheckProvider(context.Background(), "worldcat", srv.URL, ""); result.Passed {
		t.Fatal("expected failure for 502")
	}
}

func TestCheckProvider_MissingURL(t *testing.T) {
	if result := CheckProvider(context.Background(), "openlibrary", " ", ""); result.Passed {
		t.Fatal("expected failure for missing URL")
	}
}

func TestCheckCacheFile(t *testing.T) {
	dir := t.TempDir()
	missing := CheckCacheFile(filepath.Join(dir, "absent.json"))
	if !missing.Passed {
		t.Fatalf("missing cache should pass, got %s", missing.Detail)
	}

	good := filepath.Join(dir, "good.json")
	testsupport.WriteCache(t, good, `{"9780306406157": "2001"}`)
	if result := CheckCacheFile(good); !result.Passed {
		t.Fatalf("expected pass, got %s", result.Detail)
	}

	bad := filepath.Join(dir, "bad.json")
	testsupport.WriteCache(t, bad, `{not json`)
	if result := CheckCacheFile(bad); result.Passed {
		t.Fatal("expected corrupt cache to fail")
	}
}

func TestRunAllCoversEnabledSources(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := testsupport.NewConfig(t,
		testsupport.WithProviderURL(srv.URL),
		testsupport.WithProviders("googlebooks", "estimate"),
	)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	results := RunAll(context.Background(), cfg)
	names := make(map[string]bool)
	for _, r := range results {
		names[r.Name] = true
	}
	for _, want := range []string{"Cache directory", "Cache file", "History directory", "Log directory", "googlebooks", "estimate"} {
		if !names[want] {
			t.Fatalf("missing check %q in %+v", want, results)
		}
	}
	if names["worldcat"] || names["openlibrary"] {
		t.Fatalf("disabled sources must be skipped: %+v", results)
	}
	if n := Failed(results); n != 0 {
		t.Fatalf("expected all checks to pass, %d failed: %+v", n, results)
	}
}
