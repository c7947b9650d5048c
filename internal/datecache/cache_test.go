package datecache

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"isbndate/internal/services"
)

func TestLoadMissingFileIsEmpty(t *testing.T) {
	entries, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty map, got %v", entries)
	}
}

func TestLoadCorruptFileReportsCorruption(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	entries, err := Load(path)
	if !errors.Is(err, services.ErrCacheCorruption) {
		t.Fatalf("expected ErrCacheCorruption, got %v", err)
	}
	if entries == nil || len(entries) != 0 {
		t.Fatalf("expected empty non-nil map, got %v", entries)
	}
}

func TestOpenCorruptFileStartsEmptyAndRecovers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	if err := os.WriteFile(path, []byte("[1,2,3]"), 0o644); err != nil {
		t.Fatal(err)
	}
	cache := Open(path, nil)
	if cache.Count() != 0 {
		t.Fatalf("expected empty cache, got %d entries", cache.Count())
	}
	cache.Put("9780306406157", "2004")
	if err := cache.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	entries, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if entries["9780306406157"] != "2004" {
		t.Fatalf("unexpected entries after recovery: %v", entries)
	}
}

func TestPutGetAndUnflushed(t *testing.T) {
	cache := Open(filepath.Join(t.TempDir(), "cache.json"), nil)
	if _, ok := cache.Get("9780306406157"); ok {
		t.Fatal("expected miss on empty cache")
	}
	cache.Put("9780306406157", "2004")
	cache.Put("9788408123453", "15-03-20")
	if got, ok := cache.Get("9780306406157"); !ok || got != "2004" {
		t.Fatalf("unexpected Get result %q %v", got, ok)
	}
	if cache.Unflushed() != 2 {
		t.Fatalf("expected 2 unflushed, got %d", cache.Unflushed())
	}
	if err := cache.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if cache.Unflushed() != 0 {
		t.Fatalf("expected unflushed reset, got %d", cache.Unflushed())
	}
}

func TestFlushFormatAndIdempotence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cache.json")
	cache := Open(path, nil)
	cache.Put("9788408123453", "Fecha de publicación: 2020 <b>")
	cache.Put("9780306406157", "2004")

	if err := cache.Flush(); err != nil {
		t.Fatalf("first flush: %v", err)
	}
	first, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read first: %v", err)
	}
	if err := cache.Flush(); err != nil {
		t.Fatalf("second flush: %v", err)
	}
	second, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read second: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatalf("flush not idempotent:\n%s\n---\n%s", first, second)
	}

	text := string(first)
	if !strings.HasPrefix(text, "{\n  \"9780306406157\": \"2004\",\n") {
		t.Fatalf("expected sorted two-space indented output, got %q", text)
	}
	if !strings.Contains(text, "publicación") || !strings.Contains(text, "<b>") {
		t.Fatalf("expected raw UTF-8 and markup, got %q", text)
	}
}

func TestReopenSeesFlushedEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	cache := Open(path, nil)
	cache.Put("9780306406157", "2004")
	if err := cache.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	reopened := Open(path, nil)
	if got, ok := reopened.Get("9780306406157"); !ok || got != "2004" {
		t.Fatalf("expected persisted entry, got %q %v", got, ok)
	}
}

func TestRemoveAndClear(t *testing.T) {
	cache := Open(filepath.Join(t.TempDir(), "cache.json"), nil)
	cache.Put("9780306406157", "2004")
	cache.Put("9788408123453", "2020")

	if !cache.Remove("9780306406157") {
		t.Fatal("expected Remove to report existing entry")
	}
	if cache.Remove("9780306406157") {
		t.Fatal("expected second Remove to report missing entry")
	}
	if cache.Count() != 1 {
		t.Fatalf("expected 1 entry, got %d", cache.Count())
	}
	cache.Clear()
	if cache.Count() != 0 {
		t.Fatalf("expected empty cache after Clear, got %d", cache.Count())
	}
}

func TestEntriesAndSearch(t *testing.T) {
	cache := Open("", nil)
	cache.Put("9788408123453", "2020")
	cache.Put("9780306406157", "2004")
	cache.Put("9788467034561", "2023")

	entries := cache.Entries()
	if len(entries) != 3 || entries[0].ISBN != "9780306406157" {
		t.Fatalf("expected sorted entries, got %v", entries)
	}

	matches := cache.Search("978-84")
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches for 978-84, got %v", matches)
	}
	if matches[0].ISBN != "9788408123453" || matches[1].ISBN != "9788467034561" {
		t.Fatalf("unexpected match order %v", matches)
	}
	if len(cache.Search("0000")) != 0 {
		t.Fatal("expected no matches")
	}
}

func TestMemoryOnlyFlushIsNoop(t *testing.T) {
	cache := Open("", nil)
	cache.Put("9780306406157", "2004")
	if err := cache.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if cache.Unflushed() != 0 {
		t.Fatalf("expected unflushed reset, got %d", cache.Unflushed())
	}
	if cache.Path() != "" {
		t.Fatalf("expected empty path, got %q", cache.Path())
	}
}
