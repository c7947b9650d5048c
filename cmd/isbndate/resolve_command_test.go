package main

import (
	"encoding/json"
	"path/filepath"
	"slices"
	"testing"

	"isbndate/internal/datecache"
	"isbndate/internal/history"
	"isbndate/internal/providers"
	"isbndate/internal/sheet"
	"isbndate/internal/testsupport"
)

func TestResolveWritesOutputSheetAndCache(t *testing.T) {
	env := setupCLITestEnv(t)
	input := filepath.Join(env.baseDir, "ISBNs.csv")
	testsupport.WriteCSV(t, input, "ISBN", "0-13-110362-8", "abc123", "9780804429573")

	out, _, err := runCLI(t, []string{"resolve", input, "--no-history"}, env.configPath)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	requireContains(t, out, "Resolution summary")
	requireContains(t, out, "ISBNs_procesados.csv")

	table, err := sheet.Read(filepath.Join(env.baseDir, "ISBNs_procesados.csv"))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !slices.Equal(table.Header, []string{"ISBN", "Fecha de Lanzamiento"}) {
		t.Fatalf("unexpected header %v", table.Header)
	}
	var dates []string
	for _, row := range table.Rows {
		dates = append(dates, row[1])
	}
	want := []string{"1988", providers.NotFoundSentinel, providers.NotFoundSentinel}
	if !slices.Equal(dates, want) {
		t.Fatalf("dates = %q, want %q", dates, want)
	}

	entries, err := datecache.Load(env.cfg.Paths.CacheFile)
	if err != nil {
		t.Fatalf("load cache: %v", err)
	}
	if len(entries) != 1 || entries["9780131103627"] != "1988" {
		t.Fatalf("unexpected cache contents %v", entries)
	}
	if got := env.calls.Load(); got != 2 {
		t.Fatalf("expected 2 provider calls, got %d", got)
	}

	// A second run is answered from the cache for the found ISBN.
	if _, _, err := runCLI(t, []string{"resolve", input, "--no-history"}, env.configPath); err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if got := env.calls.Load(); got != 3 {
		t.Fatalf("expected only the missing ISBN to be queried again, got %d calls", got)
	}
}

func TestResolveJSONReport(t *testing.T) {
	env := setupCLITestEnv(t)
	input := filepath.Join(env.baseDir, "in.csv")
	output := filepath.Join(env.baseDir, "out", "dates.xlsx")
	testsupport.WriteCSV(t, input, "ISBN", "9780306406157", "9780131103627")

	out, _, err := runCLI(t, []string{"resolve", input, "-o", output, "--json", "--show-log", "--no-history"}, env.configPath)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	var payload resolveOutput
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode json: %v\n%s", err, out)
	}
	if payload.Stats.Total != 2 || payload.Stats.FromAPI != 2 || payload.Preview.ToFetch != 2 {
		t.Fatalf("unexpected report %+v", payload)
	}
	if payload.Results[0].Date != "12-05-01" {
		t.Fatalf("expected full date to be shortened, got %q", payload.Results[0].Date)
	}
	if len(payload.Log) == 0 {
		t.Fatal("expected log lines with --show-log")
	}

	table, err := sheet.Read(output)
	if err != nil {
		t.Fatalf("read xlsx output: %v", err)
	}
	if got := table.Identifiers(); !slices.Equal(got, []string{"9780306406157", "9780131103627"}) {
		t.Fatalf("unexpected identifiers %q", got)
	}
}

func TestResolveRecordsChunkCheckpoints(t *testing.T) {
	env := setupCLITestEnv(t)
	input := filepath.Join(env.baseDir, "in.csv")
	testsupport.WriteCSV(t, input, "ISBN", "9780306406157", "bogus", "9780131103627")

	if _, _, err := runCLI(t, []string{"resolve", input, "--chunk-size", "1"}, env.configPath); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	out, _, err := runCLI(t, []string{"history", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	var runs []history.Run
	if err := json.Unmarshal([]byte(out), &runs); err != nil {
		t.Fatalf("decode runs: %v\n%s", err, out)
	}
	if len(runs) != 1 {
		t.Fatalf("expected one run, got %+v", runs)
	}
	run := runs[0]
	if run.Status != history.RunCompleted || run.Total != 3 || run.FromAPI != 2 || run.NotFound != 1 || run.Pending != 0 {
		t.Fatalf("unexpected run %+v", run)
	}

	out, _, err = runCLI(t, []string{"history", "--run", run.ID, "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("history --run: %v", err)
	}
	var detail struct {
		Checkpoints []history.Checkpoint `json:"checkpoints"`
	}
	if err := json.Unmarshal([]byte(out), &detail); err != nil {
		t.Fatalf("decode run detail: %v", err)
	}
	if len(detail.Checkpoints) != 3 || detail.Checkpoints[2].Processed != 3 {
		t.Fatalf("unexpected checkpoints %+v", detail.Checkpoints)
	}

	out, _, err = runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history table: %v", err)
	}
	requireContains(t, out, "completed")
}

func TestResolveRejectsUnsupportedOutput(t *testing.T) {
	env := setupCLITestEnv(t)
	input := filepath.Join(env.baseDir, "in.csv")
	testsupport.WriteCSV(t, input, "ISBN", "9780306406157")

	if _, _, err := runCLI(t, []string{"resolve", input, "-o", filepath.Join(env.baseDir, "out.ods")}, env.configPath); err == nil {
		t.Fatal("expected unsupported output format to fail")
	}
	if got := env.calls.Load(); got != 0 {
		t.Fatalf("no provider should be queried, got %d calls", got)
	}
}

func TestPadDatesMarksUnprocessedRows(t *testing.T) {
	got := padDates([]string{"1997"}, 3)
	want := []string{"1997", providers.UnprocessedSentinel, providers.UnprocessedSentinel}
	if !slices.Equal(got, want) {
		t.Fatalf("padDates = %q, want %q", got, want)
	}
}
