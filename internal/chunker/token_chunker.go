package chunker

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is the BPE encoding used for chunking. Ingestion and any
// token accounting elsewhere must agree on it.
const DefaultEncoding = "cl100k_base"

// DefaultMaxTokens is the chunk size cap in tokens.
const DefaultMaxTokens = 300

// TokenChunker splits text into contiguous runs of at most maxTokens tokens
// and decodes each run back to a string. Chunks do not overlap and carry no
// sentence-boundary awareness; only the last chunk may be shorter.
type TokenChunker struct {
	enc       *tiktoken.Tiktoken
	maxTokens int
}

// NewTokenChunker builds a chunker for the given encoding name. A maxTokens
// of zero or less is a configuration error.
func NewTokenChunker(encoding string, maxTokens int) (*TokenChunker, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	if maxTokens <= 0 {
		return nil, fmt.Errorf("chunker: max tokens must be positive, got %d", maxTokens)
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("chunker: load encoding %s: %w", encoding, err)
	}
	return &TokenChunker{enc: enc, maxTokens: maxTokens}, nil
}

// Chunk returns the chunk texts for text in original order. Empty or
// whitespace-only input yields no chunks.
func (c *TokenChunker) Chunk(text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	tokens := c.enc.Encode(text, nil, nil)
	if len(tokens) == 0 {
		return nil, nil
	}
	chunks := make([]string, 0, (len(tokens)+c.maxTokens-1)/c.maxTokens)
	for i := 0; i < len(tokens); i += c.maxTokens {
		end := i + c.maxTokens
		if end > len(tokens) {
			end = len(tokens)
		}
		chunks = append(chunks, c.enc.Decode(tokens[i:end]))
	}
	return chunks, nil
}

// CountTokens reports the token length of text under the chunker's encoding.
func (c *TokenChunker) CountTokens(text string) int {
	return len(c.enc.Encode(text, nil, nil))
}

// MaxTokens returns the configured chunk size cap.
func (c *TokenChunker) MaxTokens() int { return c.maxTokens }
