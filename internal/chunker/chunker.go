// Package chunker splits documents into overlapping, bounded-length chunks.
package chunker

import (
	"fmt"
	"maps"
	"strconv"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/textsplitter"

	"paper-review-rag/internal/helper"
	"paper-review-rag/internal/models"
)

const (
	StrategyFixed     = "fixed"
	StrategyRecursive = "recursive"
)

// Chunker splits Documents into Chunks. Lengths are counted in runes.
type Chunker struct {
	size     int
	overlap  int
	strategy string
	splitter textsplitter.TextSplitter
}

// New returns a fixed-window chunker. Every chunk holds at most size runes and
// consecutive chunks of a document share exactly overlap runes.
func New(size, overlap int) (*Chunker, error) {
	return NewWithStrategy(size, overlap, StrategyFixed)
}

// NewWithStrategy selects between the fixed window and langchaingo's
// recursive character splitter.
func NewWithStrategy(size, overlap int, strategy string) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", models.ErrInvalidChunkConfig, size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: overlap %d must be in [0, %d)", models.ErrInvalidChunkConfig, overlap, size)
	}

	c := &Chunker{size: size, overlap: overlap, strategy: strategy}
	switch strategy {
	case StrategyFixed:
	case StrategyRecursive:
		c.splitter = textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(size),
			textsplitter.WithChunkOverlap(overlap),
			textsplitter.WithLenFunc(utf8.RuneCountInString),
		)
	default:
		return nil, fmt.Errorf("%w: unknown strategy %q", models.ErrInvalidChunkConfig, strategy)
	}
	return c, nil
}

func (c *Chunker) Size() int    { return c.size }
func (c *Chunker) Overlap() int { return c.overlap }

// Split chunks every document in order. Documents with empty content produce
// no chunks.
func (c *Chunker) Split(docs []models.Document) ([]models.Chunk, error) {
	var chunks []models.Chunk
	for docIndex, doc := range docs {
		texts, err := c.SplitText(doc.Content)
		if err != nil {
			return nil, fmt.Errorf("failed to split document %s: %w", doc.SourceID, err)
		}
		for i, text := range texts {
			meta := maps.Clone(doc.Metadata)
			if meta == nil {
				meta = make(map[string]string, 2)
			}
			meta["chunk_index"] = strconv.Itoa(i)
			meta["total_chunks"] = strconv.Itoa(len(texts))
			chunks = append(chunks, models.Chunk{
				ID:         helper.ChunkID(doc.SourceID, docIndex, i),
				SourceID:   doc.SourceID,
				Title:      doc.Title,
				DocIndex:   docIndex,
				ChunkIndex: i,
				Content:    text,
				Metadata:   meta,
			})
		}
	}
	log.Debug().Int("documents", len(docs)).Int("chunks", len(chunks)).Str("strategy", c.strategy).Msg("Split documents")
	return chunks, nil
}

// SplitText splits a single text.
func (c *Chunker) SplitText(text string) ([]string, error) {
	if c.splitter != nil {
		return c.splitter.SplitText(text)
	}
	return chunkContent(text, c.size, c.overlap), nil
}

// chunkContent slides a window of maxChars runes forward by maxChars-overlapChars
// until the window reaches the end of content.
func chunkContent(content string, maxChars, overlapChars int) []string {
	runes := []rune(content)
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= maxChars {
		return []string{content}
	}

	step := maxChars - overlapChars
	var chunks []string
	for start := 0; ; start += step {
		end := min(start+maxChars, len(runes))
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}
