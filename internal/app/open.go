package app

import (
	"context"
	"fmt"

	"paper-review-rag/internal/arxiv"
	"paper-review-rag/internal/config"
	"paper-review-rag/internal/embedding"
	"paper-review-rag/internal/llmservice"
)

// Open builds a Service backed by the configured providers and blob store.
func Open(ctx context.Context, cfg *config.Config) (*Service, error) {
	embedder, err := embedding.NewEmbedder(&cfg.EmbedLLM)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	model, err := llmservice.NewModel(&cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to create llm: %w", err)
	}
	stores, err := OpenStores(ctx, cfg)
	if err != nil {
		return nil, err
	}

	svc, err := New(cfg, Deps{
		Embedder:  embedder,
		Model:     model,
		Papers:    arxiv.NewClient(&cfg.Arxiv, nil),
		Indexes:   stores.Indexes,
		Artifacts: stores.Artifacts,
	})
	if err != nil {
		stores.Close()
		return nil, err
	}
	svc.closer = stores.Close
	return svc, nil
}
