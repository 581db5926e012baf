package domain

import "fmt"

// ConfigError is a missing or invalid required setting. Fatal before any
// network call is made.
type ConfigError struct {
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Msg)
}

// EmbeddingError wraps a failure to obtain embeddings, including a vector of
// the wrong dimension.
type EmbeddingError struct {
	Err error
}

func (e *EmbeddingError) Error() string { return "embedding: " + e.Err.Error() }
func (e *EmbeddingError) Unwrap() error { return e.Err }

// RetrievalError wraps a vector index query failure.
type RetrievalError struct {
	Err error
}

func (e *RetrievalError) Error() string { return "retrieval: " + e.Err.Error() }
func (e *RetrievalError) Unwrap() error { return e.Err }

// GenerationError wraps a chat completion failure.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string { return "generation: " + e.Err.Error() }
func (e *GenerationError) Unwrap() error { return e.Err }

// IndexError wraps an index create, clear or upsert failure.
type IndexError struct {
	Op  string
	Err error
}

func (e *IndexError) Error() string { return "index " + e.Op + ": " + e.Err.Error() }
func (e *IndexError) Unwrap() error { return e.Err }
