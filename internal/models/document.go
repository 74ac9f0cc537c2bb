package models

import (
	"fmt"
	"maps"
	"strings"
	"time"
)

// Document is a unit of source text with its provenance.
type Document struct {
	SourceID string            `json:"source_id"`
	Title    string            `json:"title,omitempty"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// NewDocument validates and builds a Document. The metadata map is copied.
func NewDocument(sourceID, title, content string, metadata map[string]string) (Document, error) {
	doc := Document{
		SourceID: strings.TrimSpace(sourceID),
		Title:    title,
		Content:  content,
		Metadata: maps.Clone(metadata),
	}
	if err := doc.Validate(); err != nil {
		return Document{}, err
	}
	return doc, nil
}

func (d Document) Validate() error {
	if d.SourceID == "" {
		return fmt.Errorf("%w: empty source id", ErrInvalidDocument)
	}
	if strings.TrimSpace(d.Content) == "" {
		return fmt.Errorf("%w: %s has no content", ErrInvalidDocument, d.SourceID)
	}
	return nil
}

// Chunk is a bounded-length slice of a Document.
type Chunk struct {
	ID         string            `json:"id"`
	SourceID   string            `json:"source_id"`
	Title      string            `json:"title,omitempty"`
	DocIndex   int               `json:"doc_index"`
	ChunkIndex int               `json:"chunk_index"`
	Content    string            `json:"content"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// ChunkEmbedding pairs a chunk with its embedding vector.
type ChunkEmbedding struct {
	Chunk     Chunk
	Embedding []float32
}

// ScoredChunk is a retrieval hit. Rank is the zero-based position in the
// producing retriever's output.
type ScoredChunk struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
	Rank  int     `json:"rank"`
}

type Answer struct {
	Question string        `json:"question"`
	Language string        `json:"language,omitempty"`
	Content  string        `json:"content"`
	Context  []ScoredChunk `json:"context"`
}

type Paper struct {
	ArxivID   string    `json:"arxiv_id"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary"`
	Authors   []string  `json:"authors"`
	Published time.Time `json:"published"`
	PDFURL    string    `json:"pdf_url"`
}

type Video struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	URL          string    `json:"url"`
	ViewCount    uint64    `json:"view_count"`
	LikeCount    uint64    `json:"like_count"`
	CommentCount uint64    `json:"comment_count"`
	PublishedAt  time.Time `json:"published_at"`
	ThumbnailURL string    `json:"thumbnail_url"`
}

type Translation struct {
	Source     string `json:"source"`
	Translated string `json:"translated"`
}
