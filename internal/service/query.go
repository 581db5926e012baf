package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/phuslu/log"

	"talkrag/internal/domain"
)

// DefaultSystemPrompt is the fixed instruction sent with every question.
const DefaultSystemPrompt = "You are a helpful assistant. Use the following conference talk excerpts to answer the question."

// contextDelimiter separates retrieved excerpts in the assembled context.
const contextDelimiter = "\n---\n"

// QueryOptions tune the query pipeline.
type QueryOptions struct {
	// Dimension is the expected question-embedding dimension; a vector of
	// any other size is an embedding failure.
	Dimension int
	// TopK is the default number of matches when the caller passes 0.
	TopK int
	// SystemPrompt overrides DefaultSystemPrompt when set.
	SystemPrompt string
}

// QueryPipeline answers one question:
// embed -> retrieve top-K -> assemble context -> generate.
// It never mutates external state and is safe for concurrent use.
type QueryPipeline struct {
	embedder  domain.Embedder
	index     domain.Index
	generator domain.Generator
	opts      QueryOptions
}

// NewQueryPipeline wires a query pipeline from its collaborators.
func NewQueryPipeline(embedder domain.Embedder, index domain.Index, generator domain.Generator, opts QueryOptions) *QueryPipeline {
	if opts.SystemPrompt == "" {
		opts.SystemPrompt = DefaultSystemPrompt
	}
	if opts.TopK <= 0 {
		opts.TopK = 5
	}
	return &QueryPipeline{embedder: embedder, index: index, generator: generator, opts: opts}
}

// Answer runs the pipeline for one question. topK of 0 uses the configured
// default; values below 1 after defaulting are rejected.
func (p *QueryPipeline) Answer(ctx context.Context, question string, topK int) (domain.Answer, error) {
	if strings.TrimSpace(question) == "" {
		return domain.Answer{}, fmt.Errorf("question is empty")
	}
	if topK == 0 {
		topK = p.opts.TopK
	}
	if topK < 1 {
		return domain.Answer{}, fmt.Errorf("topK must be >= 1, got %d", topK)
	}
	requestID := uuid.NewString()
	logger := log.DefaultLogger
	logger.Context = log.NewContext(nil).Str("request_id", requestID).Value()

	vectors, err := p.embedder.EmbedBatch(ctx, []string{question})
	if err != nil {
		return domain.Answer{}, asEmbeddingError(err)
	}
	if len(vectors) != 1 {
		return domain.Answer{}, &domain.EmbeddingError{Err: fmt.Errorf("got %d vectors for one question", len(vectors))}
	}
	vector := vectors[0]
	if p.opts.Dimension > 0 && len(vector) != p.opts.Dimension {
		return domain.Answer{}, &domain.EmbeddingError{Err: fmt.Errorf("vector dimension %d, expected %d", len(vector), p.opts.Dimension)}
	}
	logger.Debug().Int("dimension", len(vector)).Msg("question embedded")

	matches, err := p.index.Query(ctx, vector, topK)
	if err != nil {
		return domain.Answer{}, &domain.RetrievalError{Err: err}
	}
	logger.Info().Int("matches", len(matches)).Int("top_k", topK).Msg("context retrieved")

	userPrompt := buildPrompt(question, matches)
	text, err := p.generator.Generate(ctx, p.opts.SystemPrompt, userPrompt)
	if err != nil {
		return domain.Answer{}, asGenerationError(err)
	}
	logger.Info().Int("answer_len", len(text)).Msg("answer generated")

	return domain.Answer{Text: text, Retrieved: matches}, nil
}

// buildPrompt concatenates the retrieved chunk texts in service order, each
// annotated with its provenance, and appends the question.
func buildPrompt(question string, matches []domain.RetrievedMatch) string {
	parts := make([]string, 0, len(matches))
	for _, m := range matches {
		parts = append(parts, fmt.Sprintf("%s\n(Source: %s)\nSpeaker: %s\nTitle: %s",
			m.Record.Text, m.Record.Source, m.Record.Speaker, m.Record.Title))
	}
	context := strings.Join(parts, contextDelimiter)
	return fmt.Sprintf("Context:\n%s\n\nQuestion: %s", context, question)
}

func asEmbeddingError(err error) error {
	var e *domain.EmbeddingError
	if errors.As(err, &e) {
		return err
	}
	return &domain.EmbeddingError{Err: err}
}

func asGenerationError(err error) error {
	var e *domain.GenerationError
	if errors.As(err, &e) {
		return err
	}
	return &domain.GenerationError{Err: err}
}
