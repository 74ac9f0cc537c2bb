package chromemdb

import (
	"bytes"
	"context"
	"fmt"
	"runtime"
	"strconv"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"

	"paper-review-rag/internal/models"
)

const (
	// every index holds exactly one collection
	collectionName = "chunks"

	metaSourceID   = "source_id"
	metaTitle      = "title"
	metaDocIndex   = "doc_index"
	metaChunkIndex = "chunk_index"
)

// VectorIndex wraps an in-memory chromem-go database scoped to one source.
type VectorIndex struct {
	sourceID   string
	db         *chromem.DB
	collection *chromem.Collection
	embedder   embeddings.Embedder
}

// NewVectorIndex creates an empty index for sourceID. Queries are embedded
// with embedder.
func NewVectorIndex(sourceID string, embedder embeddings.Embedder) (*VectorIndex, error) {
	db := chromem.NewDB()
	c, err := db.CreateCollection(collectionName, map[string]string{metaSourceID: sourceID}, embeddingFunc(embedder))
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %v", err)
	}
	return &VectorIndex{sourceID: sourceID, db: db, collection: c, embedder: embedder}, nil
}

// ImportVectorIndex restores an index serialized by Export.
func ImportVectorIndex(sourceID string, blob []byte, encryptionKey string, embedder embeddings.Embedder) (*VectorIndex, error) {
	db := chromem.NewDB()
	if err := db.ImportFromReader(bytes.NewReader(blob), encryptionKey, collectionName); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", models.ErrCorruptIndex, sourceID, err)
	}
	c := db.GetCollection(collectionName, embeddingFunc(embedder))
	if c == nil {
		return nil, fmt.Errorf("%w: %s: collection %q missing", models.ErrCorruptIndex, sourceID, collectionName)
	}
	return &VectorIndex{sourceID: sourceID, db: db, collection: c, embedder: embedder}, nil
}

func embeddingFunc(embedder embeddings.Embedder) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return embedder.EmbedQuery(ctx, text)
	}
}

func (v *VectorIndex) SourceID() string { return v.sourceID }

func (v *VectorIndex) Count() int { return v.collection.Count() }

// Add inserts precomputed chunk embeddings.
func (v *VectorIndex) Add(ctx context.Context, items []models.ChunkEmbedding) error {
	docs := make([]chromem.Document, len(items))
	for i, item := range items {
		docs[i] = chromem.Document{
			ID:        item.Chunk.ID,
			Content:   item.Chunk.Content,
			Metadata:  chunkMetadata(item.Chunk),
			Embedding: item.Embedding,
		}
	}
	if err := v.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %v", err)
	}
	return nil
}

// Retrieve returns at most k chunks ordered by cosine similarity to query,
// most similar first.
func (v *VectorIndex) Retrieve(ctx context.Context, query string, k int) ([]models.ScoredChunk, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}
	n := min(k, v.collection.Count())
	if n == 0 {
		return nil, nil
	}

	queryEmbedding, err := v.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	results, err := v.collection.QueryEmbedding(ctx, queryEmbedding, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %v", err)
	}

	scored := make([]models.ScoredChunk, len(results))
	for i, r := range results {
		scored[i] = models.ScoredChunk{
			Chunk: chunkFromResult(r),
			Score: float64(r.Similarity),
			Rank:  i,
		}
	}
	log.Debug().Str("source_id", v.sourceID).Int("k", k).Int("hits", len(scored)).Msg("Retrieved chunks")
	return scored, nil
}

// Export serializes the index. An empty encryptionKey disables encryption;
// otherwise it must be 32 bytes.
func (v *VectorIndex) Export(compress bool, encryptionKey string) ([]byte, error) {
	var buf bytes.Buffer
	if err := v.db.ExportToWriter(&buf, compress, encryptionKey, collectionName); err != nil {
		return nil, fmt.Errorf("failed to export index %s: %v", v.sourceID, err)
	}
	return buf.Bytes(), nil
}

func chunkMetadata(c models.Chunk) map[string]string {
	meta := make(map[string]string, len(c.Metadata)+4)
	for k, val := range c.Metadata {
		meta[k] = val
	}
	meta[metaSourceID] = c.SourceID
	meta[metaTitle] = c.Title
	meta[metaDocIndex] = strconv.Itoa(c.DocIndex)
	meta[metaChunkIndex] = strconv.Itoa(c.ChunkIndex)
	return meta
}

func chunkFromResult(r chromem.Result) models.Chunk {
	c := models.Chunk{
		ID:       r.ID,
		Content:  r.Content,
		Metadata: make(map[string]string, len(r.Metadata)),
	}
	for k, val := range r.Metadata {
		switch k {
		case metaSourceID:
			c.SourceID = val
		case metaTitle:
			c.Title = val
		case metaDocIndex:
			c.DocIndex, _ = strconv.Atoi(val)
		case metaChunkIndex:
			c.ChunkIndex, _ = strconv.Atoi(val)
			c.Metadata[k] = val
		default:
			c.Metadata[k] = val
		}
	}
	return c
}
