package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"talkrag/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, dimension int) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	api := openai.NewClient(
		option.WithBaseURL(server.URL),
		option.WithAPIKey("test-key"),
		option.WithMaxRetries(0),
	)
	return NewClient(api, "text-embedding-3-small", dimension)
}

func TestEmbedBatch_AlignsVectorsByIndex(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"alpha", "beta"}, req.Input)
		assert.Equal(t, "text-embedding-3-small", req.Model)
		// out of order on purpose; Index carries the alignment
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data": []map[string]any{
				{"object": "embedding", "index": 1, "embedding": []float64{0.3, 0.4}},
				{"object": "embedding", "index": 0, "embedding": []float64{0.1, 0.2}},
			},
			"model": "text-embedding-3-small",
			"usage": map[string]any{"prompt_tokens": 2, "total_tokens": 2},
		})
	}, 2)

	vectors, err := c.EmbedBatch(context.Background(), []string{"alpha", "beta"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float64{0.1, 0.2}, vectors[0])
	assert.Equal(t, []float64{0.3, 0.4}, vectors[1])
}

func TestEmbedBatch_WrongDimension(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data": []map[string]any{
				{"object": "embedding", "index": 0, "embedding": []float64{0.1, 0.2, 0.3}},
			},
			"model": "text-embedding-3-small",
			"usage": map[string]any{"prompt_tokens": 1, "total_tokens": 1},
		})
	}, 2)

	_, err := c.EmbedBatch(context.Background(), []string{"alpha"})
	var eerr *domain.EmbeddingError
	require.ErrorAs(t, err, &eerr)
}

func TestEmbedBatch_ServiceErrorWrapped(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"bad request"}}`, http.StatusBadRequest)
	}, 2)

	_, err := c.EmbedBatch(context.Background(), []string{"alpha"})
	var eerr *domain.EmbeddingError
	require.ErrorAs(t, err, &eerr)
}

func TestEmbedBatch_OverCapRejectedBeforeCall(t *testing.T) {
	called := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	}, 2)

	texts := make([]string, MaxBatchSize+1)
	for i := range texts {
		texts[i] = "x"
	}
	_, err := c.EmbedBatch(context.Background(), texts)
	var eerr *domain.EmbeddingError
	require.ErrorAs(t, err, &eerr)
	assert.False(t, called)
}

func TestEmbedBatch_EmptyInput(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no call expected for empty input")
	}, 2)

	vectors, err := c.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vectors)
}
