// Package service holds the two pipelines: corpus ingestion and question
// answering. Both are plain call chains over injected collaborators and keep
// no mutable state between runs.
package service

import (
	"context"
	"fmt"

	"github.com/phuslu/log"
	"golang.org/x/time/rate"

	"talkrag/internal/corpus"
	"talkrag/internal/domain"
	"talkrag/internal/metadata"
)

// IngestOptions tune one ingestion run.
type IngestOptions struct {
	// Dimension is the vector dimension the index is created with.
	Dimension int
	// BatchSize is the requested embed/upsert batch size. It is clamped
	// down to the embedder's per-call cap, never up.
	BatchSize int
	// ExportPath, when set, receives a CSV of all chunk records after
	// chunking. Debug artifact only; never read back.
	ExportPath string
	// RatePerSecond throttles batch submission when > 0.
	RatePerSecond float64
}

// IngestPipeline loads documents into the vector index:
// ensure index -> clear namespace -> chunk -> embed+upsert per batch.
type IngestPipeline struct {
	chunker  domain.Chunker
	builder  *metadata.Builder
	embedder domain.Embedder
	index    domain.Index
	opts     IngestOptions
	limiter  *rate.Limiter
}

// NewIngestPipeline wires an ingestion pipeline from its collaborators.
func NewIngestPipeline(chunker domain.Chunker, builder *metadata.Builder, embedder domain.Embedder, index domain.Index, opts IngestOptions) *IngestPipeline {
	var limiter *rate.Limiter
	if opts.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), 1)
	}
	return &IngestPipeline{
		chunker:  chunker,
		builder:  builder,
		embedder: embedder,
		index:    index,
		opts:     opts,
		limiter:  limiter,
	}
}

// Run ingests documents. A failed batch (embedding or upsert) is logged with
// its index and skipped; the run continues and the summary reports it.
// Already-written batches are not rolled back on cancellation.
func (p *IngestPipeline) Run(ctx context.Context, docs []domain.Document) (domain.IngestSummary, error) {
	summary := domain.IngestSummary{Documents: len(docs)}

	if err := p.index.EnsureIndex(ctx, p.opts.Dimension); err != nil {
		return summary, err
	}
	if err := p.index.ClearNamespace(ctx); err != nil {
		// Best effort: an unclearable namespace usually just does not
		// exist yet.
		log.Warn().Err(err).Msg("could not clear namespace, continuing")
	}

	var records []domain.ChunkRecord
	for _, doc := range docs {
		chunks, err := p.chunker.Chunk(doc.Content)
		if err != nil {
			return summary, fmt.Errorf("chunk %q: %w", doc.Title, err)
		}
		records = append(records, p.builder.BuildRecords(doc, chunks)...)
	}
	summary.ChunksTotal = len(records)
	log.Info().Int("documents", len(docs)).Int("chunks", len(records)).Msg("corpus chunked")

	if p.opts.ExportPath != "" {
		if err := corpus.ExportRecords(p.opts.ExportPath, records); err != nil {
			log.Warn().Err(err).Str("path", p.opts.ExportPath).Msg("chunk export failed, continuing")
		} else {
			log.Info().Str("path", p.opts.ExportPath).Msg("chunk export written")
		}
	}

	batchSize := p.batchSize()
	ranges := batchRanges(len(records), batchSize)
	summary.BatchesTotal = len(ranges)

	for i, r := range ranges {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if p.limiter != nil {
			if err := p.limiter.Wait(ctx); err != nil {
				return summary, err
			}
		}
		batch := records[r[0]:r[1]]
		if err := p.runBatch(ctx, batch); err != nil {
			log.Error().Err(err).Int("batch", i).Int("size", len(batch)).Msg("batch failed, continuing")
			summary.BatchesFailed++
			summary.FailedBatches = append(summary.FailedBatches, i)
			continue
		}
		summary.ChunksWritten += len(batch)
		log.Debug().Int("batch", i).Int("size", len(batch)).Msg("batch written")
	}

	log.Info().
		Int("chunks_written", summary.ChunksWritten).
		Int("batches_failed", summary.BatchesFailed).
		Msg("ingestion complete")
	return summary, nil
}

func (p *IngestPipeline) runBatch(ctx context.Context, batch []domain.ChunkRecord) error {
	texts := make([]string, len(batch))
	for i, rec := range batch {
		texts[i] = rec.Text
	}
	vectors, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return err
	}
	if len(vectors) != len(batch) {
		return &domain.EmbeddingError{Err: fmt.Errorf("got %d vectors for %d chunks", len(vectors), len(batch))}
	}
	upserts := make([]domain.VectorRecord, len(batch))
	for i := range batch {
		if p.opts.Dimension > 0 && len(vectors[i]) != p.opts.Dimension {
			return &domain.EmbeddingError{Err: fmt.Errorf("vector dimension %d, expected %d", len(vectors[i]), p.opts.Dimension)}
		}
		upserts[i] = domain.VectorRecord{Record: batch[i], Vector: vectors[i]}
	}
	return p.index.Upsert(ctx, upserts)
}

func (p *IngestPipeline) batchSize() int {
	size := p.opts.BatchSize
	limit := p.embedder.Cap()
	if size <= 0 {
		return limit
	}
	if limit > 0 && size > limit {
		log.Warn().Int("requested", size).Int("cap", limit).Msg("batch size exceeds service cap, clamping")
		return limit
	}
	return size
}

// batchRanges partitions [0, n) into [start, end) ranges of at most size
// items, preserving order. All ranges except possibly the last hold exactly
// size items.
func batchRanges(n, size int) [][2]int {
	if n <= 0 || size <= 0 {
		return nil
	}
	ranges := make([][2]int, 0, (n+size-1)/size)
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		ranges = append(ranges, [2]int{start, end})
	}
	return ranges
}
