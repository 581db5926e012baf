// Package memory is a brute-force cosine-similarity index used for local
// runs and tests.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"talkrag/internal/domain"
)

// Index stores vectors in memory. Safe for concurrent use.
type Index struct {
	mu        sync.RWMutex
	dimension int
	records   []domain.VectorRecord
}

// New creates an empty in-memory index.
func New() *Index { return &Index{} }

// EnsureIndex sets the expected dimension. Re-ensuring with the same
// dimension is a no-op; a different dimension is an error.
func (x *Index) EnsureIndex(_ context.Context, dimension int) error {
	if dimension <= 0 {
		return &domain.IndexError{Op: "create", Err: fmt.Errorf("invalid dimension %d", dimension)}
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.dimension != 0 && x.dimension != dimension {
		return &domain.IndexError{Op: "create", Err: fmt.Errorf("dimension %d conflicts with existing %d", dimension, x.dimension)}
	}
	x.dimension = dimension
	return nil
}

// ClearNamespace drops all stored vectors.
func (x *Index) ClearNamespace(_ context.Context) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.records = nil
	return nil
}

// Upsert inserts or replaces records by id.
func (x *Index) Upsert(_ context.Context, records []domain.VectorRecord) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	for _, rec := range records {
		if x.dimension != 0 && len(rec.Vector) != x.dimension {
			return &domain.IndexError{Op: "upsert", Err: fmt.Errorf("vector dimension %d, expected %d", len(rec.Vector), x.dimension)}
		}
	}
	for _, rec := range records {
		replaced := false
		for i := range x.records {
			if x.records[i].Record.ID == rec.Record.ID {
				x.records[i] = rec
				replaced = true
				break
			}
		}
		if !replaced {
			x.records = append(x.records, rec)
		}
	}
	return nil
}

// Query ranks all stored vectors by cosine similarity, descending.
func (x *Index) Query(_ context.Context, vector []float64, topK int) ([]domain.RetrievedMatch, error) {
	if topK < 1 {
		return nil, fmt.Errorf("topK must be >= 1, got %d", topK)
	}
	x.mu.RLock()
	defer x.mu.RUnlock()
	matches := make([]domain.RetrievedMatch, 0, len(x.records))
	for _, rec := range x.records {
		matches = append(matches, domain.RetrievedMatch{
			Record: rec.Record,
			Score:  cosine(vector, rec.Vector),
		})
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if topK < len(matches) {
		matches = matches[:topK]
	}
	return matches, nil
}

func cosine(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
