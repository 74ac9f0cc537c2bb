// Package indexer loads a persisted vector index for a source or builds and
// persists a new one.
package indexer

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"

	"paper-review-rag/internal/chromemdb"
	"paper-review-rag/internal/chunker"
	"paper-review-rag/internal/embedding"
	"paper-review-rag/internal/models"
	"paper-review-rag/internal/store"
)

type Options struct {
	Compress      bool
	EncryptionKey string
}

// Builder implements GetOrBuild over a BlobStore. The presence of a blob for
// a source id is the cache key.
type Builder struct {
	store    store.BlobStore
	chunker  *chunker.Chunker
	embedder embeddings.Embedder
	opts     Options
}

func NewBuilder(blobs store.BlobStore, c *chunker.Chunker, embedder embeddings.Embedder, opts Options) *Builder {
	return &Builder{store: blobs, chunker: c, embedder: embedder, opts: opts}
}

// Exists reports whether an index has been persisted for sourceID.
func (b *Builder) Exists(ctx context.Context, sourceID string) (bool, error) {
	return b.store.Exists(ctx, sourceID)
}

// Load restores the persisted index for sourceID without embedding anything.
func (b *Builder) Load(ctx context.Context, sourceID string) (*chromemdb.VectorIndex, error) {
	blob, err := b.store.Load(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	return chromemdb.ImportVectorIndex(sourceID, blob, b.opts.EncryptionKey, b.embedder)
}

// GetOrBuild returns the persisted index for sourceID, or chunks and embeds
// docs, persists the result and returns it. Nothing is written unless every
// step succeeds.
func (b *Builder) GetOrBuild(ctx context.Context, sourceID string, docs []models.Document) (*chromemdb.VectorIndex, error) {
	if sourceID == "" {
		return nil, fmt.Errorf("%w: empty source id", models.ErrBuildFailed)
	}

	exists, err := b.store.Exists(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to check index %s: %w", sourceID, err)
	}
	if exists {
		idx, err := b.Load(ctx, sourceID)
		if err != nil {
			return nil, err
		}
		log.Info().Str("source_id", sourceID).Int("chunks", idx.Count()).Msg("Loaded cached index")
		return idx, nil
	}

	return b.Build(ctx, sourceID, docs)
}

// Build always re-embeds docs and overwrites any persisted index for sourceID.
func (b *Builder) Build(ctx context.Context, sourceID string, docs []models.Document) (*chromemdb.VectorIndex, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: %s: no documents", models.ErrBuildFailed, sourceID)
	}
	for _, doc := range docs {
		if err := doc.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", models.ErrBuildFailed, sourceID, err)
		}
	}

	chunks, err := b.chunker.Split(docs)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", models.ErrBuildFailed, sourceID, err)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: %s: documents produced no chunks", models.ErrBuildFailed, sourceID)
	}

	chunkEmbeddings, err := embedding.GenerateEmbedding(ctx, b.embedder, chunks)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", models.ErrBuildFailed, sourceID, err)
	}

	idx, err := chromemdb.NewVectorIndex(sourceID, b.embedder)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", models.ErrBuildFailed, sourceID, err)
	}
	if err := idx.Add(ctx, chunkEmbeddings); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", models.ErrBuildFailed, sourceID, err)
	}

	blob, err := idx.Export(b.opts.Compress, b.opts.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", models.ErrBuildFailed, sourceID, err)
	}
	if err := b.store.Save(ctx, sourceID, blob); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", models.ErrBuildFailed, sourceID, err)
	}

	log.Info().Str("source_id", sourceID).Int("documents", len(docs)).Int("chunks", len(chunks)).Msg("Built and persisted index")
	return idx, nil
}

// Remove deletes the persisted index for sourceID so the next GetOrBuild
// rebuilds it. Indexes already loaded stay usable.
func (b *Builder) Remove(ctx context.Context, sourceID string) error {
	if err := b.store.Delete(ctx, sourceID); err != nil {
		return err
	}
	log.Info().Str("source_id", sourceID).Msg("Removed persisted index")
	return nil
}

// IsNotFound reports whether err means no index is persisted.
func IsNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
