package logging

import (
	"context"
	"log/slog"

	"isbndate/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID is the standardized structured logging key for batch run identifiers.
	FieldRunID = "run_id"
	// FieldISBN is the standardized structured logging key for canonical identifiers.
	FieldISBN = "isbn"
	// FieldProvider is the standardized structured logging key for source names.
	FieldProvider = "provider"
	// FieldChunk is the standardized structured logging key for 1-based chunk indexes.
	FieldChunk = "chunk"
	// FieldAttempt is the 1-based attempt number within a retry loop.
	FieldAttempt = "attempt"
	// FieldEventType names the kind of event a WARN or ERROR line describes.
	FieldEventType = "event_type"
	// FieldErrorHint tells the operator what to do next.
	FieldErrorHint = "error_hint"
	// FieldImpact describes the user-facing consequence of a warning.
	FieldImpact = "impact"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 4)
	if id, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if chunk, ok := services.ChunkFromContext(ctx); ok {
		fields = append(fields, slog.Int(FieldChunk, chunk))
	}
	if isbn, ok := services.ISBNFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldISBN, isbn))
	}
	if provider, ok := services.ProviderFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldProvider, provider))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
