// Package corpus loads the talk corpus from CSV and writes the optional
// chunked-corpus debug export.
package corpus

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"talkrag/internal/domain"
)

// LoadCSV reads documents from a CSV file with a header row. The text column
// is "text", falling back to "content"; the source column is "source",
// falling back to "url". Missing cells become empty strings.
func LoadCSV(path string) ([]domain.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("corpus: open %s: %w", path, err)
	}
	defer f.Close()
	docs, err := ReadDocuments(f)
	if err != nil {
		return nil, fmt.Errorf("corpus: read %s: %w", path, err)
	}
	return docs, nil
}

// ReadDocuments parses CSV document rows from r.
func ReadDocuments(r io.Reader) ([]domain.Document, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}

	cell := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var docs []domain.Document
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		content := cell(row, "text")
		if _, ok := cols["text"]; !ok {
			content = cell(row, "content")
		}
		source := cell(row, "source")
		if source == "" {
			source = cell(row, "url")
		}
		docs = append(docs, domain.Document{
			Title:       cell(row, "title"),
			Speaker:     cell(row, "speaker"),
			SpeakerRole: cell(row, "speaker_role"),
			Content:     content,
			Source:      source,
		})
	}
	return docs, nil
}

// ExportRecords writes chunk records to a CSV file for inspection. The file
// is never read back by the pipeline.
func ExportRecords(path string, records []domain.ChunkRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("corpus: create export %s: %w", path, err)
	}
	defer f.Close()
	if err := WriteRecords(f, records); err != nil {
		return fmt.Errorf("corpus: write export %s: %w", path, err)
	}
	return nil
}

// WriteRecords writes records as CSV rows with a header to w.
func WriteRecords(w io.Writer, records []domain.ChunkRecord) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"title", "speaker", "speaker_role", "content", "source", "text"}); err != nil {
		return err
	}
	for _, rec := range records {
		row := []string{rec.Title, rec.Speaker, rec.SpeakerRole, rec.Content, rec.Source, rec.Text}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
