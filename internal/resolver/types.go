package resolver

import (
	"context"

	"isbndate/internal/providers"
)

// Cache is the subset of datecache.Cache used during resolution.
type Cache interface {
	Get(id string) (string, bool)
	Put(id, value string)
	Unflushed() int
	Flush() error
}

// Lookuper resolves a canonical ISBN through external sources.
type Lookuper interface {
	Resolve(ctx context.Context, isbn string) providers.Outcome
}

// Status classifies one identifier's result.
type Status string

const (
	StatusCached   Status = "cached"
	StatusFound    Status = "found"
	StatusNotFound Status = "not_found"
	StatusInvalid  Status = "invalid"
	StatusError    Status = "error"
)

// Result sources that are not provider names.
const (
	SourceCache = "cache"
	SourceNone  = "none"
)

// Result is the outcome for one input identifier.
type Result struct {
	Input  string `json:"input"`
	ISBN   string `json:"isbn,omitempty"`
	Date   string `json:"date"`
	Source string `json:"source"`
	Status Status `json:"status"`
}

// Stats are the running counters of a batch. At every step
// FromCache+FromAPI+NotFound == Total-Pending == Processed.
type Stats struct {
	Total     int `json:"total"`
	FromCache int `json:"from_cache"`
	FromAPI   int `json:"from_api"`
	NotFound  int `json:"not_found"`
	Pending   int `json:"pending"`
	Processed int `json:"processed"`
}

// Report is the outcome of a batch.
type Report struct {
	RunID      string   `json:"run_id"`
	Results    []Result `json:"results"`
	Stats      Stats    `json:"stats"`
	Log        []string `json:"log,omitempty"`
	NewEntries int      `json:"new_entries"`
}

// Dates returns the date column in input order.
func (r Report) Dates() []string {
	out := make([]string, len(r.Results))
	for i, res := range r.Results {
		out[i] = res.Date
	}
	return out
}

// ChunkReport is passed to the chunk callback after every chunk.
type ChunkReport struct {
	Index     int
	Chunks    int
	Processed int
	Stats     Stats
	Results   []Result
}

// ProgressFunc is invoked after every identifier with the cumulative stats.
type ProgressFunc func(Result, Stats)
