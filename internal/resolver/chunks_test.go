package resolver_test

import (
	"context"
	"errors"
	"testing"

	"isbndate/internal/providers"
	"isbndate/internal/resolver"
)

func TestResolveInChunksCallsBackPerChunk(t *testing.T) {
	cache := newFakeCache(nil)
	lookup := &fakeLookup{answers: map[string]providers.Outcome{
		"9780306406157": providers.Found("a", "2001"),
		"9780131103627": providers.Found("a", "1997"),
	}}
	r := newResolver(t, cache, lookup, resolver.WithFlushEvery(100))

	ids := []string{"9780306406157", "bogus", "9780131103627", "9780804429573", "0306406152"}
	var chunks []resolver.ChunkReport
	var flushesAtChunk []int
	report, err := r.ResolveInChunks(context.Background(), ids, 2, func(c resolver.ChunkReport) error {
		chunks = append(chunks, c)
		flushesAtChunk = append(flushesAtChunk, cache.flushes)
		return nil
	})
	if err != nil {
		t.Fatalf("ResolveInChunks returned error: %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if c.Index != i+1 || c.Chunks != 3 {
			t.Fatalf("unexpected chunk numbering %+v", c)
		}
		if c.Stats.Total != len(ids) {
			t.Fatalf("chunk stats must be cumulative over the input, got %+v", c.Stats)
		}
		checkInvariant(t, c.Stats)
	}
	if chunks[0].Processed != 2 || chunks[1].Processed != 4 || chunks[2].Processed != 5 {
		t.Fatalf("unexpected processed counts %d/%d/%d", chunks[0].Processed, chunks[1].Processed, chunks[2].Processed)
	}
	if len(chunks[2].Results) != 1 || chunks[2].Results[0].Input != "0306406152" {
		t.Fatalf("unexpected last chunk results %+v", chunks[2].Results)
	}
	// The first two chunks each added an entry and were flushed before the callback.
	if flushesAtChunk[0] != 1 || flushesAtChunk[1] != 2 || flushesAtChunk[2] != 2 {
		t.Fatalf("unexpected flushes at chunk boundaries %v", flushesAtChunk)
	}
	if report.Stats.Processed != len(ids) || report.Stats.Pending != 0 {
		t.Fatalf("unexpected final stats %+v", report.Stats)
	}
	if len(report.Results) != len(ids) {
		t.Fatalf("expected %d results, got %d", len(ids), len(report.Results))
	}
}

func TestResolveInChunksWithoutChunkSizeMatchesBatch(t *testing.T) {
	ids := []string{"9780306406157", "bogus", "9780131103627"}
	answers := map[string]providers.Outcome{"9780131103627": providers.Found("a", "1997")}

	batch, err := newResolver(t, newFakeCache(nil), &fakeLookup{answers: answers}).ResolveBatch(context.Background(), ids)
	if err != nil {
		t.Fatalf("ResolveBatch returned error: %v", err)
	}
	for _, size := range []int{0, -1, len(ids), len(ids) + 5} {
		calls := 0
		chunked, err := newResolver(t, newFakeCache(nil), &fakeLookup{answers: answers}).
			ResolveInChunks(context.Background(), ids, size, func(resolver.ChunkReport) error {
				calls++
				return nil
			})
		if err != nil {
			t.Fatalf("ResolveInChunks(%d) returned error: %v", size, err)
		}
		if calls != 1 {
			t.Fatalf("chunk size %d: expected a single chunk, got %d", size, calls)
		}
		if chunked.Stats != batch.Stats {
			t.Fatalf("chunk size %d: stats %+v differ from batch %+v", size, chunked.Stats, batch.Stats)
		}
		for i := range ids {
			if chunked.Results[i] != batch.Results[i] {
				t.Fatalf("chunk size %d: result %d differs: %+v vs %+v", size, i, chunked.Results[i], batch.Results[i])
			}
		}
	}
}

func TestResolveInChunksStopsOnCallbackError(t *testing.T) {
	r := newResolver(t, newFakeCache(nil), &fakeLookup{})
	stop := errors.New("stop")
	report, err := r.ResolveInChunks(context.Background(), []string{"bogus", "bad", "worse"}, 1, func(c resolver.ChunkReport) error {
		if c.Index == 2 {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) {
		t.Fatalf("expected callback error, got %v", err)
	}
	if report.Stats.Processed != 2 || report.Stats.Pending != 1 {
		t.Fatalf("unexpected stats %+v", report.Stats)
	}
}
