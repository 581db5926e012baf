package corpus

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"talkrag/internal/domain"
)

func TestReadDocuments(t *testing.T) {
	in := strings.Join([]string{
		"title,speaker,speaker_role,text,source",
		`Faith,"Jeffrey R. Holland",Elder,"Faith is the first principle.",talk1`,
		`Hope,,,"Hope sustains us.",talk2`,
	}, "\n")

	docs, err := ReadDocuments(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "Faith", docs[0].Title)
	assert.Equal(t, "Jeffrey R. Holland", docs[0].Speaker)
	assert.Equal(t, "Faith is the first principle.", docs[0].Content)
	assert.Equal(t, "talk1", docs[0].Source)

	assert.Equal(t, "", docs[1].Speaker)
	assert.Equal(t, "", docs[1].SpeakerRole)
}

func TestReadDocuments_ContentAndURLFallback(t *testing.T) {
	in := strings.Join([]string{
		"title,speaker,content,url",
		"Charity,Someone,The greatest of these.,https://example.org/charity",
	}, "\n")

	docs, err := ReadDocuments(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "The greatest of these.", docs[0].Content)
	assert.Equal(t, "https://example.org/charity", docs[0].Source)
}

func TestReadDocuments_Empty(t *testing.T) {
	docs, err := ReadDocuments(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestWriteRecordsRoundTrip(t *testing.T) {
	records := []domain.ChunkRecord{
		{Title: "Faith", Speaker: "Unknown Speaker", Content: "chunk one", Source: "talk1", Text: "chunk one"},
		{Title: "Faith", Speaker: "Unknown Speaker", Content: "chunk, two", Source: "talk1", Text: "chunk, two"},
	}
	var sb strings.Builder
	require.NoError(t, WriteRecords(&sb, records))

	lines := strings.Split(strings.TrimSpace(sb.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "title,speaker,speaker_role,content,source,text", lines[0])
	assert.Contains(t, lines[2], `"chunk, two"`)
}
