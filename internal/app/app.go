// Package app wires the indexing and question-answering pipeline for one
// review session.
package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"

	"paper-review-rag/internal/chromemdb"
	"paper-review-rag/internal/chunker"
	"paper-review-rag/internal/config"
	"paper-review-rag/internal/indexer"
	"paper-review-rag/internal/models"
	"paper-review-rag/internal/rag"
	"paper-review-rag/internal/review"
	"paper-review-rag/internal/session"
	"paper-review-rag/internal/store"
	"paper-review-rag/internal/translator"
)

// PaperSource loads the full text of a paper.
type PaperSource interface {
	Load(ctx context.Context, arxivID string) ([]models.Document, error)
}

type Deps struct {
	Embedder  embeddings.Embedder
	Model     llms.Model
	Papers    PaperSource
	Indexes   store.BlobStore
	Artifacts store.BlobStore
}

// IndexInfo describes an index that became available to the session.
type IndexInfo struct {
	SourceID string        `json:"source_id"`
	Chunks   int           `json:"chunks"`
	Stage    session.Stage `json:"stage"`
}

// Service runs one action at a time against its session.
type Service struct {
	mu         sync.Mutex
	builder    *indexer.Builder
	session    *session.Session
	rag        *rag.RAG
	papers     PaperSource
	translator *translator.Translator
	reviews    *review.Reviews
	closer     func() error
}

func New(cfg *config.Config, deps Deps) (*Service, error) {
	c, err := chunker.NewWithStrategy(cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap, cfg.RAG.ChunkStrategy)
	if err != nil {
		return nil, err
	}
	artifacts := deps.Artifacts
	if artifacts == nil {
		artifacts = deps.Indexes
	}
	return &Service{
		builder: indexer.NewBuilder(deps.Indexes, c, deps.Embedder, indexer.Options{
			Compress:      cfg.RAG.Compress,
			EncryptionKey: cfg.RAG.EncryptionKey,
		}),
		session: session.New(session.Options{
			TopK:             cfg.RAG.TopK,
			PaperWeight:      cfg.RAG.PaperWeight,
			TranscriptWeight: cfg.RAG.TranscriptWeight,
			Fusion:           cfg.RAG.Fusion,
		}),
		rag:        rag.NewRAG(deps.Model),
		papers:     deps.Papers,
		translator: translator.New(deps.Model, artifacts),
		reviews:    review.New(artifacts),
	}, nil
}

func (s *Service) Stage() session.Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.Stage()
}

// BuildPaperIndex makes the paper index for arxivID available. A persisted
// index is reused without downloading the paper.
func (s *Service) BuildPaperIndex(ctx context.Context, arxivID string) (*IndexInfo, error) {
	if arxivID == "" {
		return nil, fmt.Errorf("%w: empty arxiv id", models.ErrInvalidDocument)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	sourceID := models.PaperSourceID(arxivID)
	load := func(ctx context.Context) ([]models.Document, error) {
		if s.papers == nil {
			return nil, fmt.Errorf("%w: no paper source configured", models.ErrSourceUnavailable)
		}
		return s.papers.Load(ctx, arxivID)
	}
	idx, err := s.getOrBuild(ctx, sourceID, load)
	if err != nil {
		return nil, err
	}
	s.session.SetPaperIndex(idx)
	return &IndexInfo{SourceID: sourceID, Chunks: idx.Count(), Stage: s.session.Stage()}, nil
}

// BuildTranscriptIndex makes the transcript index of videoName available.
// docs may be nil when the index has been persisted before.
func (s *Service) BuildTranscriptIndex(ctx context.Context, videoName string, docs []models.Document) (*IndexInfo, error) {
	if videoName == "" {
		return nil, fmt.Errorf("%w: empty video name", models.ErrInvalidDocument)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	sourceID := models.TranscriptSourceID(videoName)
	load := func(context.Context) ([]models.Document, error) {
		if len(docs) == 0 {
			return nil, fmt.Errorf("%w: no transcript for %s", models.ErrSourceUnavailable, videoName)
		}
		return docs, nil
	}
	idx, err := s.getOrBuild(ctx, sourceID, load)
	if err != nil {
		return nil, err
	}
	s.session.SetTranscriptIndex(idx)
	return &IndexInfo{SourceID: sourceID, Chunks: idx.Count(), Stage: s.session.Stage()}, nil
}

func (s *Service) getOrBuild(ctx context.Context, sourceID string, load func(context.Context) ([]models.Document, error)) (*chromemdb.VectorIndex, error) {
	exists, err := s.builder.Exists(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	if exists {
		return s.builder.GetOrBuild(ctx, sourceID, nil)
	}

	docs, err := load(ctx)
	if err != nil {
		log.Warn().Err(err).Str("source_id", sourceID).Msg("Source unavailable, stage unchanged")
		return nil, err
	}
	return s.builder.GetOrBuild(ctx, sourceID, docs)
}

// RemoveIndex deletes the persisted index for sourceID. The session keeps
// any index it already holds; the stage does not move back.
func (s *Service) RemoveIndex(ctx context.Context, sourceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.builder.Remove(ctx, sourceID)
}

// Ask answers question with the session's current retriever.
func (s *Service) Ask(ctx context.Context, question, language string) (*models.Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rag.Query(ctx, s.session, question, language)
}

func (s *Service) Translate(ctx context.Context, arxivID, text, language string) (*models.Translation, error) {
	return s.translator.Translate(ctx, arxivID, text, language)
}

func (s *Service) Reviews() *review.Reviews {
	return s.reviews
}

func (s *Service) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}
