package providers

import (
	"context"
	"log/slog"

	"isbndate/internal/logging"
	"isbndate/internal/services"
)

// Source is anything that can be asked for the publication date of a
// canonical ISBN-13.
type Source interface {
	Name() string
	Lookup(ctx context.Context, isbn string) Outcome
}

// Chain queries sources in priority order.
type Chain struct {
	sources []Source
	logger  *slog.Logger
}

// NewChain builds a chain over sources, highest priority first.
func NewChain(logger *slog.Logger, sources ...Source) *Chain {
	kept := make([]Source, 0, len(sources))
	for _, src := range sources {
		if src != nil {
			kept = append(kept, src)
		}
	}
	return &Chain{sources: kept, logger: logging.NewComponentLogger(logger, "providers")}
}

// Names lists the sources in query order.
func (c *Chain) Names() []string {
	names := make([]string, 0, len(c.sources))
	for _, src := range c.sources {
		names = append(names, src.Name())
	}
	return names
}

// Resolve returns the first Found outcome. When every source is exhausted
// the outcome is NotFound with the NotFoundSentinel date. StatusError is only
// returned when ctx is done.
func (c *Chain) Resolve(ctx context.Context, isbn string) Outcome {
	var trace []string
	for _, src := range c.sources {
		if err := ctx.Err(); err != nil {
			out := Failed(src.Name(), err)
			out.Trace = trace
			return out
		}
		out := src.Lookup(ctx, isbn)
		trace = append(trace, out.Trace...)
		if out.Status == StatusFound {
			out.Trace = trace
			return out
		}
		if out.Status == StatusError {
			logging.WithContext(services.WithProvider(ctx, src.Name()), c.logger).Debug("source failed; trying next",
				logging.Error(out.Err))
		}
	}
	if err := ctx.Err(); err != nil {
		out := Failed("", err)
		out.Trace = trace
		return out
	}
	out := NotFound("")
	out.Date = NotFoundSentinel
	out.Trace = append(trace, "no source returned a date")
	return out
}
