package domain

// Document is a single talk loaded from the corpus. Immutable once loaded.
type Document struct {
	Title       string
	Speaker     string
	SpeakerRole string
	Content     string
	Source      string
}

// ChunkRecord is one token-bounded chunk of a document together with the
// provenance snapshot that gets written to the vector index. The chunk text is
// carried under both Content and Text because retrieval code may read either.
type ChunkRecord struct {
	ID          string
	Title       string
	Speaker     string
	SpeakerRole string
	Source      string
	Content     string
	Text        string
}

// Metadata returns the record's metadata payload as stored in the index.
func (r ChunkRecord) Metadata() map[string]any {
	return map[string]any{
		"title":        r.Title,
		"speaker":      r.Speaker,
		"speaker_role": r.SpeakerRole,
		"content":      r.Content,
		"source":       r.Source,
		"text":         r.Text,
	}
}

// RecordFromMetadata rebuilds a ChunkRecord from index metadata. Missing keys
// come back as empty strings; Text falls back to Content and vice versa.
func RecordFromMetadata(id string, meta map[string]any) ChunkRecord {
	str := func(key string) string {
		v, _ := meta[key].(string)
		return v
	}
	rec := ChunkRecord{
		ID:          id,
		Title:       str("title"),
		Speaker:     str("speaker"),
		SpeakerRole: str("speaker_role"),
		Source:      str("source"),
		Content:     str("content"),
		Text:        str("text"),
	}
	if rec.Text == "" {
		rec.Text = rec.Content
	}
	if rec.Content == "" {
		rec.Content = rec.Text
	}
	return rec
}

// RetrievedMatch is one query hit: a record's metadata plus similarity score.
type RetrievedMatch struct {
	Record ChunkRecord
	Score  float64
}

// VectorRecord pairs a record with its embedding for an upsert.
type VectorRecord struct {
	Record ChunkRecord
	Vector []float64
}

// IngestSummary reports the outcome of one ingestion run. Failed batches are
// skipped, not retried; their zero-based indexes are listed for the operator.
type IngestSummary struct {
	Documents     int
	ChunksTotal   int
	ChunksWritten int
	BatchesTotal  int
	BatchesFailed int
	FailedBatches []int
}

// Answer is the result of one question: the generated text plus the matches
// that grounded it, in retrieval order, for citation.
type Answer struct {
	Text      string
	Retrieved []RetrievedMatch
}
