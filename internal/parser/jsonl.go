package parser

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"paper-review-rag/internal/models"
)

// jsonlRecord is one line of a transcript file.
type jsonlRecord struct {
	PageContent string         `json:"page_content"`
	Metadata    map[string]any `json:"metadata"`
	Type        string         `json:"type,omitempty"`
}

// LoadJSONL reads documents stored one JSON object per line. Blank lines are
// ignored.
func LoadJSONL(path, sourceID string) ([]models.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadJSONL(f, sourceID)
}

func ReadJSONL(r io.Reader, sourceID string) ([]models.Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var docs []models.Document
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		var rec jsonlRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		meta := make(map[string]string, len(rec.Metadata))
		for k, v := range rec.Metadata {
			meta[k] = fmt.Sprint(v)
		}
		title := meta["title"]
		if doc, ok := newDocRaw(sourceID, title, rec.PageContent, meta); ok {
			docs = append(docs, doc)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}

func newDocRaw(sourceID, title, content string, meta map[string]string) (models.Document, bool) {
	doc, err := models.NewDocument(sourceID, title, content, meta)
	if err != nil {
		return models.Document{}, false
	}
	return doc, true
}

// SaveJSONL writes docs in the format LoadJSONL reads.
func SaveJSONL(path string, docs []models.Document) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteJSONL(f, docs); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func WriteJSONL(w io.Writer, docs []models.Document) error {
	enc := json.NewEncoder(w)
	for _, doc := range docs {
		meta := make(map[string]any, len(doc.Metadata))
		for k, v := range doc.Metadata {
			meta[k] = v
		}
		if _, ok := meta["title"]; !ok && doc.Title != "" {
			meta["title"] = doc.Title
		}
		if err := enc.Encode(jsonlRecord{PageContent: doc.Content, Metadata: meta, Type: "Document"}); err != nil {
			return err
		}
	}
	return nil
}

// JoinContent concatenates document texts without a separator, the way
// transcripts are shown.
func JoinContent(docs []models.Document) string {
	var b strings.Builder
	for _, doc := range docs {
		b.WriteString(doc.Content)
	}
	return b.String()
}
