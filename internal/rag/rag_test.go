package rag

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paper-review-rag/internal/chunker"
	"paper-review-rag/internal/indexer"
	"paper-review-rag/internal/models"
	"paper-review-rag/internal/retriever"
	"paper-review-rag/internal/session"
	"paper-review-rag/internal/store"
	"paper-review-rag/internal/testutil"
)

func TestAnswerEndToEnd(t *testing.T) {
	ctx := context.Background()
	c, err := chunker.New(10, 2)
	require.NoError(t, err)
	emb := &testutil.FakeEmbedder{}
	b := indexer.NewBuilder(store.NewMemoryStore(), c, emb, indexer.Options{})

	docs := []models.Document{{SourceID: "paper", Title: "Attention", Content: "Attention is all you need"}}
	idx, err := b.GetOrBuild(ctx, models.PaperSourceID("1706.03762"), docs)
	require.NoError(t, err)
	require.Equal(t, 3, idx.Count())

	model := &testutil.FakeModel{Response: "The Transformer, built only on attention."}
	r := NewRAG(model)

	question := "what is the main contribution"
	answer, err := r.Answer(ctx, question, retriever.NewSingle(idx, 3), "en")
	require.NoError(t, err)
	assert.Equal(t, "The Transformer, built only on attention.", answer.Content)
	assert.Equal(t, question, answer.Question)
	require.Len(t, answer.Context, 3)

	texts := make([]string, len(answer.Context))
	for i, sc := range answer.Context {
		texts[i] = sc.Chunk.Content
	}
	assert.ElementsMatch(t, []string{"Attention ", "n is all y", " you need"}, texts)

	require.Equal(t, 1, model.Calls())
	prompt := model.LastPrompt()
	assert.Contains(t, prompt, strings.Join(texts, "\n\n"))
	assert.Contains(t, prompt, question)
	assert.Contains(t, prompt, "Write the answer in English.")
}

func TestBuildPrompt(t *testing.T) {
	docs := []models.ScoredChunk{
		{Chunk: models.Chunk{Content: "first"}},
		{Chunk: models.Chunk{Content: "second"}},
	}
	prompt := BuildPrompt("why?", docs, "ko")
	assert.Contains(t, prompt, "first\n\nsecond")
	assert.Contains(t, prompt, "Question:\nwhy?")
	assert.Contains(t, prompt, "Write the answer in Korean.")

	plain := BuildPrompt("why?", docs, "")
	assert.NotContains(t, plain, "Write the answer in")
}

type failingRetriever struct{}

func (failingRetriever) Retrieve(context.Context, string) ([]models.ScoredChunk, error) {
	return nil, testutil.ErrUnavailable
}

func TestAnswerFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("model error is not retried", func(t *testing.T) {
		model := &testutil.FakeModel{Err: testutil.ErrUnavailable}
		_, err := NewRAG(model).Answer(ctx, "q", retriever.NewSingle(emptyIndex{}, 2), "")
		assert.ErrorIs(t, err, models.ErrSynthesisFailed)
		assert.ErrorIs(t, err, testutil.ErrUnavailable)
		assert.Equal(t, 1, model.Calls())
	})

	t.Run("retrieval error", func(t *testing.T) {
		model := &testutil.FakeModel{Response: "x"}
		_, err := NewRAG(model).Answer(ctx, "q", failingRetriever{}, "")
		assert.ErrorIs(t, err, models.ErrSynthesisFailed)
		assert.Equal(t, 0, model.Calls())
	})

	t.Run("empty question", func(t *testing.T) {
		model := &testutil.FakeModel{Response: "x"}
		_, err := NewRAG(model).Answer(ctx, "  ", failingRetriever{}, "")
		assert.ErrorIs(t, err, models.ErrEmptyQuestion)
		assert.Equal(t, 0, model.Calls())
	})
}

type emptyIndex struct{}

func (emptyIndex) Retrieve(context.Context, string, int) ([]models.ScoredChunk, error) {
	return nil, nil
}

func TestQueryRejectedWithoutIndex(t *testing.T) {
	model := &testutil.FakeModel{Response: "x"}
	sess := session.New(session.Options{TopK: 2, PaperWeight: 0.6, TranscriptWeight: 0.4})
	require.Equal(t, session.None, sess.Stage())

	_, err := NewRAG(model).Query(context.Background(), sess, "q", "")
	assert.ErrorIs(t, err, models.ErrNoRetriever)
	assert.Equal(t, 0, model.Calls())

	sess.SetPaperIndex(emptyIndex{})
	answer, err := NewRAG(model).Query(context.Background(), sess, "q", "")
	require.NoError(t, err)
	assert.Equal(t, "x", answer.Content)
	assert.Equal(t, 1, model.Calls())
}
