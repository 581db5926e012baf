// Package pinecone is a minimal REST client to Pinecone serverless indexes.
// It covers the four operations the pipelines need: ensure-index,
// clear-namespace, upsert and query.
package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"talkrag/internal/domain"
)

const (
	controlPlaneURL = "https://api.pinecone.io"
	apiVersion      = "2024-07"
)

// Config configures the Pinecone client.
type Config struct {
	APIKey    string
	IndexName string
	Namespace string
	// Cloud and Region select the serverless spec used when the index has
	// to be created.
	Cloud   string
	Region  string
	Timeout time.Duration
}

// Index is a Pinecone-backed vector index.
type Index struct {
	apiKey     string
	indexName  string
	namespace  string
	cloud      string
	region     string
	controlURL string
	hostMu     sync.Mutex
	host       string
	client     *http.Client
	maxRetries int
}

// New creates a Pinecone client. The data-plane host is resolved lazily by
// EnsureIndex or on first use.
func New(cfg Config) *Index {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	cloud := cfg.Cloud
	if cloud == "" {
		cloud = "aws"
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	return &Index{
		apiKey:     cfg.APIKey,
		indexName:  cfg.IndexName,
		namespace:  cfg.Namespace,
		cloud:      cloud,
		region:     region,
		controlURL: controlPlaneURL,
		client:     &http.Client{Timeout: timeout},
		maxRetries: 3,
	}
}

// EnsureIndex creates the index with the given dimension and cosine metric
// if it does not exist. A 409 from a concurrent create is success.
func (x *Index) EnsureIndex(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return &domain.IndexError{Op: "create", Err: fmt.Errorf("invalid dimension %d", dimension)}
	}
	body := map[string]any{
		"name":      x.indexName,
		"dimension": dimension,
		"metric":    "cosine",
		"spec": map[string]any{
			"serverless": map[string]any{"cloud": x.cloud, "region": x.region},
		},
	}
	status, _, err := x.do(ctx, http.MethodPost, x.controlURL+"/indexes", body)
	if err != nil {
		return &domain.IndexError{Op: "create", Err: err}
	}
	if status != http.StatusCreated && status != http.StatusConflict && status != http.StatusOK {
		return &domain.IndexError{Op: "create", Err: fmt.Errorf("unexpected status %d", status)}
	}
	return x.resolveHost(ctx)
}

// ClearNamespace deletes all vectors in the namespace. Best effort: an
// absent namespace is already empty and reports success.
func (x *Index) ClearNamespace(ctx context.Context) error {
	host, err := x.ensureHost(ctx)
	if err != nil {
		return &domain.IndexError{Op: "clear", Err: err}
	}
	body := map[string]any{"deleteAll": true, "namespace": x.namespace}
	status, _, err := x.do(ctx, http.MethodPost, host+"/vectors/delete", body)
	if err != nil {
		return &domain.IndexError{Op: "clear", Err: err}
	}
	if status == http.StatusNotFound {
		return nil
	}
	if status >= 300 {
		return &domain.IndexError{Op: "clear", Err: fmt.Errorf("unexpected status %d", status)}
	}
	return nil
}

// Upsert writes (id, vector, metadata) triples into the namespace.
func (x *Index) Upsert(ctx context.Context, records []domain.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}
	host, err := x.ensureHost(ctx)
	if err != nil {
		return &domain.IndexError{Op: "upsert", Err: err}
	}
	vectors := make([]map[string]any, len(records))
	for i, rec := range records {
		vectors[i] = map[string]any{
			"id":       rec.Record.ID,
			"values":   rec.Vector,
			"metadata": rec.Record.Metadata(),
		}
	}
	body := map[string]any{"vectors": vectors, "namespace": x.namespace}
	status, _, err := x.do(ctx, http.MethodPost, host+"/vectors/upsert", body)
	if err != nil {
		return &domain.IndexError{Op: "upsert", Err: err}
	}
	if status >= 300 {
		return &domain.IndexError{Op: "upsert", Err: fmt.Errorf("unexpected status %d", status)}
	}
	return nil
}

// Query returns the topK nearest records in the namespace, metadata included,
// in the order the service ranks them.
func (x *Index) Query(ctx context.Context, vector []float64, topK int) ([]domain.RetrievedMatch, error) {
	if topK < 1 {
		return nil, fmt.Errorf("topK must be >= 1, got %d", topK)
	}
	host, err := x.ensureHost(ctx)
	if err != nil {
		return nil, err
	}
	body := map[string]any{
		"vector":          vector,
		"topK":            topK,
		"includeMetadata": true,
		"namespace":       x.namespace,
	}
	status, payload, err := x.do(ctx, http.MethodPost, host+"/query", body)
	if err != nil {
		return nil, err
	}
	if status >= 300 {
		return nil, fmt.Errorf("query failed with status %d", status)
	}
	var out struct {
		Matches []struct {
			ID       string         `json:"id"`
			Score    float64        `json:"score"`
			Metadata map[string]any `json:"metadata"`
		} `json:"matches"`
	}
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("decode query response: %w", err)
	}
	matches := make([]domain.RetrievedMatch, 0, len(out.Matches))
	for _, m := range out.Matches {
		matches = append(matches, domain.RetrievedMatch{
			Record: domain.RecordFromMetadata(m.ID, m.Metadata),
			Score:  m.Score,
		})
	}
	return matches, nil
}

// ensureHost returns the data-plane host, resolving it on first use. The
// mutex keeps concurrent callers from racing on the cached value; the handle
// is shared across pipeline instances.
func (x *Index) ensureHost(ctx context.Context) (string, error) {
	x.hostMu.Lock()
	defer x.hostMu.Unlock()
	if x.host == "" {
		if err := x.resolveHostLocked(ctx); err != nil {
			return "", err
		}
	}
	return x.host, nil
}

func (x *Index) resolveHost(ctx context.Context) error {
	x.hostMu.Lock()
	defer x.hostMu.Unlock()
	return x.resolveHostLocked(ctx)
}

func (x *Index) resolveHostLocked(ctx context.Context) error {
	status, payload, err := x.do(ctx, http.MethodGet, x.controlURL+"/indexes/"+x.indexName, nil)
	if err != nil {
		return fmt.Errorf("describe index %s: %w", x.indexName, err)
	}
	if status >= 300 {
		return fmt.Errorf("describe index %s: status %d", x.indexName, status)
	}
	var desc struct {
		Host string `json:"host"`
	}
	if err := json.Unmarshal(payload, &desc); err != nil {
		return fmt.Errorf("describe index %s: %w", x.indexName, err)
	}
	if desc.Host == "" {
		return fmt.Errorf("describe index %s: empty host", x.indexName)
	}
	x.host = "https://" + desc.Host
	return nil
}

// do sends one JSON request with bounded retry on 429 and 5xx responses.
func (x *Index) do(ctx context.Context, method, url string, body any) (int, []byte, error) {
	var data []byte
	if body != nil {
		var err error
		data, err = json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
	}
	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(data))
		if err != nil {
			return 0, nil, err
		}
		req.Header.Set("Api-Key", x.apiKey)
		req.Header.Set("X-Pinecone-API-Version", apiVersion)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := x.client.Do(req)
		if err != nil {
			if attempt < x.maxRetries && ctx.Err() == nil {
				if werr := sleepCtx(ctx, retryDelay(attempt)); werr != nil {
					return 0, nil, werr
				}
				continue
			}
			return 0, nil, err
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			delay := retryDelay(attempt)
			if ra := resp.Header.Get("Retry-After"); ra != "" {
				if secs, perr := strconv.Atoi(ra); perr == nil {
					delay = time.Duration(secs) * time.Second
				}
			}
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
			if attempt < x.maxRetries {
				if werr := sleepCtx(ctx, delay); werr != nil {
					return 0, nil, werr
				}
				continue
			}
			return resp.StatusCode, nil, fmt.Errorf("%s %s failed: %s", method, url, resp.Status)
		}

		payload, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return resp.StatusCode, nil, err
		}
		return resp.StatusCode, payload, nil
	}
}

func retryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	base := 200 * time.Millisecond
	// exponential backoff capped at 5s
	d := base << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
