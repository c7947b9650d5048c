package resolver

import (
	"context"

	"isbndate/internal/logging"
	"isbndate/internal/services"
)

// ChunkFunc is invoked after every completed chunk. A non-nil error stops
// the run.
type ChunkFunc func(ChunkReport) error

// ResolveInChunks resolves ids in consecutive chunks of chunkSize, flushing
// the cache and calling onChunk after each one. Stats stay cumulative over
// the whole input. chunkSize <= 0 or >= len(ids) resolves a single chunk.
func (r *Resolver) ResolveInChunks(ctx context.Context, ids []string, chunkSize int, onChunk ChunkFunc) (Report, error) {
	if chunkSize <= 0 || chunkSize >= len(ids) {
		chunkSize = len(ids)
	}
	chunks := 1
	if chunkSize > 0 {
		chunks = (len(ids) + chunkSize - 1) / chunkSize
	}

	b := r.newBatch(ctx, len(ids))
	b.logger.Info("chunked batch started",
		logging.String(logging.FieldEventType, "batch_start"),
		logging.Int("total", len(ids)),
		logging.Int("chunk_size", chunkSize),
		logging.Int("chunks", chunks),
	)

	root := b.ctx
	rootLogger := b.logger
	for index := 0; index < chunks; index++ {
		start := index * chunkSize
		end := min(start+chunkSize, len(ids))

		b.ctx = services.WithChunk(root, index+1)
		b.logger = logging.WithContext(b.ctx, rootLogger)
		offset := len(b.report.Results)
		err := r.process(b, ids[start:end])
		_ = r.flush(b, "chunk")
		b.ctx, b.logger = root, rootLogger
		if err != nil {
			return r.finish(b, err)
		}

		chunk := ChunkReport{
			Index:     index + 1,
			Chunks:    chunks,
			Processed: b.report.Stats.Processed,
			Stats:     b.report.Stats,
			Results:   b.report.Results[offset:],
		}
		if onChunk != nil {
			if err := onChunk(chunk); err != nil {
				return r.finish(b, err)
			}
		}
	}
	return r.finish(b, nil)
}
