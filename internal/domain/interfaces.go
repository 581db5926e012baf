package domain

import "context"

// Chunker splits raw text into token-bounded chunk strings in original order.
// Empty input yields zero chunks.
type Chunker interface {
	Chunk(text string) ([]string, error)
}

// Embedder converts texts into fixed-dimension vectors via an external model.
// EmbedBatch accepts at most Cap() texts per call.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
	Cap() int
}

// Index is the narrow surface of the external vector index service.
type Index interface {
	// EnsureIndex creates the index with the given dimension and cosine
	// metric if it does not exist. An existing index is success.
	EnsureIndex(ctx context.Context, dimension int) error
	// ClearNamespace drops all vectors in the configured namespace. An
	// absent namespace is treated as already empty.
	ClearNamespace(ctx context.Context) error
	Upsert(ctx context.Context, records []VectorRecord) error
	Query(ctx context.Context, vector []float64, topK int) ([]RetrievedMatch, error)
}

// Generator produces an answer from a system instruction and a user prompt.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
