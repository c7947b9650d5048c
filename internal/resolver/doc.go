// Package resolver turns a list of raw identifiers into publication dates.
//
// A Resolver owns no global state: it is handed a cache and a provider chain
// and walks the input sequentially. Every identifier is normalized, answered
// from the cache when possible, and otherwise sent through the provider chain
// inside a recover boundary so that one bad lookup never aborts the batch.
// New dates are written back to the cache and flushed every FlushEvery
// additions, after every chunk, and once more at the end of the run.
//
// ResolveInChunks layers checkpointing on top of the same loop: statistics
// stay cumulative across chunks and the caller is notified after each chunk
// so partial output and history rows can be persisted.
package resolver
