package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"talkrag/internal/domain"
)

func TestSpeakerRule_Normalize(t *testing.T) {
	rule := DefaultSpeakerRule()

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"blank", "", UnknownSpeaker},
		{"whitespace only", "   ", UnknownSpeaker},
		{"known bad value", "The First Vision", UnknownSpeaker},
		{"known bad value lowercase", "the first vision", UnknownSpeaker},
		{"real speaker passes through", "Jeffrey R. Holland", "Jeffrey R. Holland"},
		{"padded speaker passes through unchanged", "  Dallin H. Oaks ", "  Dallin H. Oaks "},
		{"padded bad value still matches", "  The First Vision ", UnknownSpeaker},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rule.Normalize(tt.raw))
		})
	}
}

func TestSpeakerRule_CustomTable(t *testing.T) {
	rule := SpeakerRule{
		Replacements: map[string]string{"n/a": "Anonymous"},
		Fallback:     "Anonymous",
	}
	assert.Equal(t, "Anonymous", rule.Normalize("N/A"))
	assert.Equal(t, "Anonymous", rule.Normalize(""))
	assert.Equal(t, "Someone", rule.Normalize("Someone"))
}

func TestBuildRecords(t *testing.T) {
	b := NewBuilder(DefaultSpeakerRule())
	doc := domain.Document{
		Title:       "Faith",
		Speaker:     "",
		SpeakerRole: "",
		Content:     "unused here",
		Source:      "talk1",
	}
	chunks := []string{"first chunk", "second chunk", "third chunk"}

	records := b.BuildRecords(doc, chunks)
	require.Len(t, records, 3)

	for i, rec := range records {
		assert.Equal(t, UnknownSpeaker, rec.Speaker)
		assert.Equal(t, "Faith", rec.Title)
		assert.Equal(t, "talk1", rec.Source)
		assert.Equal(t, chunks[i], rec.Content)
		assert.Equal(t, chunks[i], rec.Text)
		assert.NotEmpty(t, rec.ID)
	}

	// Ids are unique within the document and stable across rebuilds.
	assert.NotEqual(t, records[0].ID, records[1].ID)
	again := b.BuildRecords(doc, chunks)
	assert.Equal(t, records[0].ID, again[0].ID)
}

func TestBuildRecords_EmptyChunks(t *testing.T) {
	b := NewBuilder(DefaultSpeakerRule())
	records := b.BuildRecords(domain.Document{Source: "talk2"}, nil)
	assert.Empty(t, records)
}

func TestRecordMetadataRoundTrip(t *testing.T) {
	rec := domain.ChunkRecord{
		ID:          "abc",
		Title:       "Hope",
		Speaker:     "Someone",
		SpeakerRole: "Elder",
		Source:      "https://example.org/talk",
		Content:     "chunk text",
		Text:        "chunk text",
	}
	meta := rec.Metadata()
	assert.Equal(t, "chunk text", meta["content"])
	assert.Equal(t, "chunk text", meta["text"])

	back := domain.RecordFromMetadata("abc", meta)
	assert.Equal(t, rec, back)
}
