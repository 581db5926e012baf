package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestChunker(t *testing.T, maxTokens int) *TokenChunker {
	t.Helper()
	c, err := NewTokenChunker(DefaultEncoding, maxTokens)
	if err != nil {
		t.Skipf("cl100k_base encoding unavailable: %v", err)
	}
	return c
}

func TestNewTokenChunker_InvalidMaxTokens(t *testing.T) {
	_, err := NewTokenChunker(DefaultEncoding, 0)
	require.Error(t, err)
	_, err = NewTokenChunker(DefaultEncoding, -5)
	require.Error(t, err)
}

func TestChunk_EmptyText(t *testing.T) {
	c := newTestChunker(t, 300)
	chunks, err := c.Chunk("")
	require.NoError(t, err)
	assert.Empty(t, chunks)

	chunks, err = c.Chunk("   \n\t ")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestChunk_RoundTrip(t *testing.T) {
	c := newTestChunker(t, 50)
	text := "Faith is not to have a perfect knowledge of things. " +
		strings.Repeat("Therefore if ye have faith ye hope for things which are not seen, which are true. ", 20)
	chunks, err := c.Chunk(text)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	// Decoded chunks concatenate back to the original text.
	assert.Equal(t, text, strings.Join(chunks, ""))

	total := c.CountTokens(text)
	wantChunks := (total + 49) / 50
	assert.Len(t, chunks, wantChunks)
}

func TestChunk_TokenBounds(t *testing.T) {
	c := newTestChunker(t, 300)
	// " the" is a single cl100k token, so this text is exactly 650 tokens.
	text := strings.Repeat(" the", 650)
	require.Equal(t, 650, c.CountTokens(text))

	chunks, err := c.Chunk(text)
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	assert.Equal(t, 300, c.CountTokens(chunks[0]))
	assert.Equal(t, 300, c.CountTokens(chunks[1]))
	assert.Equal(t, 50, c.CountTokens(chunks[2]))
	assert.Equal(t, text, strings.Join(chunks, ""))
}

func TestChunk_SingleShortChunk(t *testing.T) {
	c := newTestChunker(t, 300)
	chunks, err := c.Chunk("a short text")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "a short text", chunks[0])
}
