package app

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paper-review-rag/internal/config"
	"paper-review-rag/internal/models"
	"paper-review-rag/internal/session"
	"paper-review-rag/internal/store"
	"paper-review-rag/internal/testutil"
)

type fakePapers struct {
	docs  map[string][]models.Document
	calls int
}

func (f *fakePapers) Load(_ context.Context, arxivID string) ([]models.Document, error) {
	f.calls++
	docs, ok := f.docs[arxivID]
	if !ok {
		return nil, models.ErrSourceUnavailable
	}
	return docs, nil
}

type fixture struct {
	svc    *Service
	papers *fakePapers
	emb    *testutil.FakeEmbedder
	model  *testutil.FakeModel
	blobs  *store.MemoryStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		papers: &fakePapers{docs: map[string][]models.Document{
			"1706.03762": {{SourceID: "1706.03762", Title: "Attention", Content: "The Transformer relies entirely on attention."}},
		}},
		emb:   &testutil.FakeEmbedder{},
		model: &testutil.FakeModel{Response: "It introduces the Transformer."},
		blobs: store.NewMemoryStore(),
	}
	cfg := config.Default()
	svc, err := New(cfg, Deps{
		Embedder: f.emb,
		Model:    f.model,
		Papers:   f.papers,
		Indexes:  f.blobs,
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func transcript() []models.Document {
	return []models.Document{{SourceID: "talk", Title: "Talk", Content: "In this video we walk through multi-head attention."}}
}

func TestServiceStages(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	assert.Equal(t, session.None, f.svc.Stage())

	_, err := f.svc.Ask(ctx, "what is the main contribution", "en")
	assert.ErrorIs(t, err, models.ErrNoRetriever)
	assert.Equal(t, 0, f.model.Calls())

	info, err := f.svc.BuildPaperIndex(ctx, "1706.03762")
	require.NoError(t, err)
	assert.Equal(t, "1706.03762_paper_pdf", info.SourceID)
	assert.Equal(t, session.PaperOnly, info.Stage)
	assert.Positive(t, info.Chunks)

	info, err = f.svc.BuildTranscriptIndex(ctx, "Talk", transcript())
	require.NoError(t, err)
	assert.Equal(t, "Talk_youtube_trans", info.SourceID)
	assert.Equal(t, session.Both, info.Stage)

	answer, err := f.svc.Ask(ctx, "what is the main contribution", "en")
	require.NoError(t, err)
	assert.Equal(t, "It introduces the Transformer.", answer.Content)
	assert.Len(t, answer.Context, 2)
	assert.Contains(t, f.model.LastPrompt(), "The Transformer relies entirely on attention.")
	assert.Contains(t, f.model.LastPrompt(), "multi-head attention")
}

func TestServiceFailuresKeepStage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.BuildPaperIndex(ctx, "0000.00000")
	assert.ErrorIs(t, err, models.ErrSourceUnavailable)
	assert.Equal(t, session.None, f.svc.Stage())

	_, err = f.svc.BuildTranscriptIndex(ctx, "Talk", nil)
	assert.ErrorIs(t, err, models.ErrSourceUnavailable)
	assert.Equal(t, session.None, f.svc.Stage())

	f.emb.Err = testutil.ErrUnavailable
	_, err = f.svc.BuildPaperIndex(ctx, "1706.03762")
	assert.ErrorIs(t, err, models.ErrBuildFailed)
	assert.Equal(t, session.None, f.svc.Stage())
	assert.Equal(t, 0, f.blobs.Len())

	_, err = f.svc.BuildPaperIndex(ctx, "")
	assert.Error(t, err)
}

func TestServiceReusesPersistedIndex(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.svc.BuildPaperIndex(ctx, "1706.03762")
	require.NoError(t, err)
	require.Equal(t, 1, f.papers.calls)

	cfg := config.Default()
	fresh, err := New(cfg, Deps{Embedder: f.emb, Model: f.model, Papers: f.papers, Indexes: f.blobs})
	require.NoError(t, err)

	info, err := fresh.BuildPaperIndex(ctx, "1706.03762")
	require.NoError(t, err)
	assert.Equal(t, session.PaperOnly, info.Stage)
	assert.Equal(t, 1, f.papers.calls, "cached index needs no download")
	assert.Equal(t, 1, f.emb.Calls())

	_, err = fresh.BuildTranscriptIndex(ctx, "Talk", transcript())
	require.NoError(t, err)
	again, err := New(cfg, Deps{Embedder: f.emb, Model: f.model, Indexes: f.blobs})
	require.NoError(t, err)
	info, err = again.BuildTranscriptIndex(ctx, "Talk", nil)
	require.NoError(t, err)
	assert.Equal(t, session.TranscriptOnly, info.Stage)
}

func TestServiceRemoveIndex(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.svc.BuildPaperIndex(ctx, "1706.03762")
	require.NoError(t, err)

	sourceID := models.PaperSourceID("1706.03762")
	require.NoError(t, f.svc.RemoveIndex(ctx, sourceID))
	assert.Equal(t, 0, f.blobs.Len())
	assert.Equal(t, session.PaperOnly, f.svc.Stage())
	assert.ErrorIs(t, f.svc.RemoveIndex(ctx, sourceID), store.ErrNotFound)

	_, err = f.svc.BuildPaperIndex(ctx, "1706.03762")
	require.NoError(t, err)
	assert.Equal(t, 2, f.papers.calls)
	assert.Equal(t, 2, f.emb.Calls())
}

func TestServiceTranslateAndReviews(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	tr, err := f.svc.Translate(ctx, "1706.03762", "abstract", "ko")
	require.NoError(t, err)
	assert.Equal(t, "It introduces the Transformer.", tr.Translated)

	text, err := f.svc.Reviews().Load(ctx, "Attention")
	require.NoError(t, err)
	assert.Equal(t, "## Attention Review\n\n", text)
	assert.NoError(t, f.svc.Close())
}

func TestOpenStores(t *testing.T) {
	ctx := context.Background()

	t.Run("file", func(t *testing.T) {
		cfg := config.Default()
		cfg.DataDir = t.TempDir()
		cfg.Store.Path = cfg.DataDir + "/vector_db"
		s, err := OpenStores(ctx, cfg)
		require.NoError(t, err)
		defer s.Close()
		require.NoError(t, s.Indexes.Save(ctx, "a_paper_pdf", []byte("x")))
		ok, err := s.Artifacts.Exists(ctx, "a_paper_pdf")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := config.Default()
		cfg.Store.Backend = "redis"
		cfg.Store.Redis.Addr = mr.Addr()
		cfg.Store.Redis.TTL = time.Hour
		s, err := OpenStores(ctx, cfg)
		require.NoError(t, err)
		require.NoError(t, s.Indexes.Save(ctx, "k", []byte("v")))
		data, err := s.Artifacts.Load(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte("v"), data)
		assert.Equal(t, time.Hour, mr.TTL(cfg.Store.Redis.Prefix+"blob:k"))
		assert.NoError(t, s.Close())
	})

	t.Run("unknown", func(t *testing.T) {
		cfg := config.Default()
		cfg.Store.Backend = "cassandra"
		_, err := OpenStores(ctx, cfg)
		assert.Error(t, err)
	})
}
