// Package embedding wraps the Azure OpenAI embeddings API behind the
// domain.Embedder interface.
package embedding

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"

	"talkrag/internal/domain"
)

// MaxBatchSize is the hard input cap per embeddings call imposed by the
// service. Callers asking for more per batch get clamped down to this.
const MaxBatchSize = 100

// Client embeds texts with a deployed embedding model.
type Client struct {
	api       openai.Client
	model     string
	dimension int
}

// NewClient wraps an already-configured OpenAI client. dimension is the
// expected vector dimension; every returned vector is checked against it.
func NewClient(api openai.Client, model string, dimension int) *Client {
	return &Client{api: api, model: model, dimension: dimension}
}

// Cap returns the per-call input limit.
func (c *Client) Cap() int { return MaxBatchSize }

// EmbedBatch requests embeddings for all texts in one call. The result is
// positionally aligned with texts.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if len(texts) > MaxBatchSize {
		return nil, &domain.EmbeddingError{Err: fmt.Errorf("batch of %d exceeds service cap %d", len(texts), MaxBatchSize)}
	}

	resp, err := c.api.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input:          openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model:          openai.EmbeddingModel(c.model),
		EncodingFormat: openai.EmbeddingNewParamsEncodingFormatFloat,
	})
	if err != nil {
		return nil, &domain.EmbeddingError{Err: err}
	}
	if len(resp.Data) != len(texts) {
		return nil, &domain.EmbeddingError{Err: fmt.Errorf("got %d embeddings for %d inputs", len(resp.Data), len(texts))}
	}

	vectors := make([][]float64, len(texts))
	for _, item := range resp.Data {
		i := int(item.Index)
		if i < 0 || i >= len(vectors) {
			return nil, &domain.EmbeddingError{Err: fmt.Errorf("embedding index %d out of range", i)}
		}
		if c.dimension > 0 && len(item.Embedding) != c.dimension {
			return nil, &domain.EmbeddingError{Err: fmt.Errorf("vector dimension %d, expected %d", len(item.Embedding), c.dimension)}
		}
		vectors[i] = item.Embedding
	}
	return vectors, nil
}
