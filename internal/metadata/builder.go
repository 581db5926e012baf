package metadata

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"talkrag/internal/domain"
)

// UnknownSpeaker is the canonical value for records whose speaker field is
// blank or carries a value the normalization rules reject.
const UnknownSpeaker = "Unknown Speaker"

// SpeakerRule maps raw speaker values to canonical ones. Keys are compared
// case-insensitively after trimming. A blank speaker always normalizes to
// fallback regardless of the table.
type SpeakerRule struct {
	Replacements map[string]string
	Fallback     string
}

// DefaultSpeakerRule rejects the one known-bad value in the conference talk
// corpus, a talk title that leaked into the speaker column.
func DefaultSpeakerRule() SpeakerRule {
	return SpeakerRule{
		Replacements: map[string]string{
			"the first vision": UnknownSpeaker,
		},
		Fallback: UnknownSpeaker,
	}
}

// Normalize applies the rule to a raw speaker value. Trimming and lowering
// apply only to the comparison; values that match no rule come back as given.
func (r SpeakerRule) Normalize(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return r.Fallback
	}
	if canonical, ok := r.Replacements[strings.ToLower(trimmed)]; ok {
		return canonical
	}
	return raw
}

// Builder turns a document plus its chunk texts into ChunkRecords.
type Builder struct {
	rule SpeakerRule
}

// NewBuilder creates a builder with the given speaker rule. A zero-value rule
// gets the default fallback.
func NewBuilder(rule SpeakerRule) *Builder {
	if rule.Fallback == "" {
		rule.Fallback = UnknownSpeaker
	}
	return &Builder{rule: rule}
}

// BuildRecords emits one record per chunk, in chunk order. Record ids are
// content hashes over source, chunk position and chunk text, so re-ingesting
// an unchanged corpus upserts the same ids.
func (b *Builder) BuildRecords(doc domain.Document, chunks []string) []domain.ChunkRecord {
	speaker := b.rule.Normalize(doc.Speaker)
	records := make([]domain.ChunkRecord, 0, len(chunks))
	for i, text := range chunks {
		records = append(records, domain.ChunkRecord{
			ID:          recordID(doc.Source, i, text),
			Title:       doc.Title,
			Speaker:     speaker,
			SpeakerRole: doc.SpeakerRole,
			Source:      doc.Source,
			Content:     text,
			Text:        text,
		})
	}
	return records
}

func recordID(source string, index int, text string) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%s:%d:%s", source, index, text)))
	return hex.EncodeToString(h[:12])
}
