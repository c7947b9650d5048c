package services

import "context"

type contextKey string

const (
	runIDKey    contextKey = "run_id"
	isbnKey     contextKey = "isbn"
	providerKey contextKey = "provider"
	chunkKey    contextKey = "chunk"
)

// WithRunID annotates context with the batch run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the batch run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithISBN annotates context with the canonical identifier being resolved.
func WithISBN(ctx context.Context, isbn string) context.Context {
	if isbn == "" {
		return ctx
	}
	return context.WithValue(ctx, isbnKey, isbn)
}

// ISBNFromContext returns the identifier if present.
func ISBNFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(isbnKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithProvider annotates context with the provider currently queried.
func WithProvider(ctx context.Context, name string) context.Context {
	if name == "" {
		return ctx
	}
	return context.WithValue(ctx, providerKey, name)
}

// ProviderFromContext returns the provider name if present.
func ProviderFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(providerKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithChunk annotates context with the 1-based chunk index.
func WithChunk(ctx context.Context, index int) context.Context {
	return context.WithValue(ctx, chunkKey, index)
}

// ChunkFromContext extracts the chunk index if present.
func ChunkFromContext(ctx context.Context) (int, bool) {
	v := ctx.Value(chunkKey)
	if v == nil {
		return 0, false
	}
	switch val := v.(type) {
	case int:
		return val, true
	case int64:
		return int(val), true
	default:
		return 0, false
	}
}
