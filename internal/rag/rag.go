package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"

	"paper-review-rag/internal/llmservice"
	"paper-review-rag/internal/models"
	"paper-review-rag/internal/retriever"
	"paper-review-rag/internal/session"
)

type RAG struct {
	model llms.Model
}

func NewRAG(model llms.Model) *RAG {
	return &RAG{model: model}
}

// Query answers question against the session's current retriever. Nothing is
// sent to the model while the session has no index.
func (r *RAG) Query(ctx context.Context, sess *session.Session, question, language string) (*models.Answer, error) {
	ret, err := sess.Retriever()
	if err != nil {
		return nil, err
	}
	return r.Answer(ctx, question, ret, language)
}

// Answer retrieves context for question, fills the QA prompt and makes one
// model call. The model output is returned unmodified.
func (r *RAG) Answer(ctx context.Context, question string, ret retriever.Retriever, language string) (*models.Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, models.ErrEmptyQuestion
	}

	docs, err := ret.Retrieve(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("%w: retrieval: %w", models.ErrSynthesisFailed, err)
	}

	prompt := BuildPrompt(question, docs, language)
	log.Debug().Int("context_chunks", len(docs)).Int("prompt_len", len(prompt)).Msg("Querying model")

	content, err := llmservice.GenerateContent(ctx, r.model, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrSynthesisFailed, err)
	}

	return &models.Answer{
		Question: question,
		Language: language,
		Content:  content,
		Context:  docs,
	}, nil
}

// BuildPrompt joins the chunk texts in ranked order and fills the QA template.
func BuildPrompt(question string, docs []models.ScoredChunk, language string) string {
	parts := make([]string, len(docs))
	for i, doc := range docs {
		parts[i] = doc.Chunk.Content
	}
	context := strings.Join(parts, models.ContextSeparator)

	directive := ""
	if language != "" {
		directive = fmt.Sprintf(models.LanguageDirectiveTemplate, models.LanguageName(language))
	}
	return fmt.Sprintf(models.QAPromptTemplate, context, question, directive)
}
