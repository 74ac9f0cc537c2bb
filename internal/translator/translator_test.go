package translator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paper-review-rag/internal/models"
	"paper-review-rag/internal/store"
	"paper-review-rag/internal/testutil"
)

func TestTranslateCaches(t *testing.T) {
	ctx := context.Background()
	cache := store.NewMemoryStore()
	model := &testutil.FakeModel{Response: " 주의만 있으면 된다 \n"}
	tr := New(model, cache)

	got, err := tr.Translate(ctx, "1706.03762", "Attention is all you need", "ko")
	require.NoError(t, err)
	assert.Equal(t, "주의만 있으면 된다", got.Translated)
	assert.Equal(t, "Attention is all you need", got.Source)
	assert.Contains(t, model.LastPrompt(), "Korean")
	assert.Contains(t, model.LastPrompt(), "Attention is all you need")

	ok, err := cache.Exists(ctx, "translations/1706.03762_ko.json")
	require.NoError(t, err)
	assert.True(t, ok)

	again, err := tr.Translate(ctx, "1706.03762", "Attention is all you need", "ko")
	require.NoError(t, err)
	assert.Equal(t, got, again)
	assert.Equal(t, 1, model.Calls(), "cache hit must not call the model")

	_, err = tr.Translate(ctx, "1706.03762", "Attention is all you need", "en")
	require.NoError(t, err)
	assert.Equal(t, 2, model.Calls())
}

func TestTranslateFailure(t *testing.T) {
	ctx := context.Background()
	cache := store.NewMemoryStore()
	tr := New(&testutil.FakeModel{Err: testutil.ErrUnavailable}, cache)

	_, err := tr.Translate(ctx, "1706.03762", "text", "ko")
	assert.ErrorIs(t, err, models.ErrSynthesisFailed)
	assert.Equal(t, 0, cache.Len())

	_, err = tr.Translate(ctx, "1706.03762", " ", "ko")
	assert.Error(t, err)
	_, err = tr.Translate(ctx, "1706.03762", "text", "")
	assert.Error(t, err)
}

func TestCorruptCacheIsRetranslated(t *testing.T) {
	ctx := context.Background()
	cache := store.NewMemoryStore()
	require.NoError(t, cache.Save(ctx, CacheKey("x", "ko"), []byte("{")))
	model := &testutil.FakeModel{Response: "번역"}

	got, err := New(model, cache).Translate(ctx, "x", "text", "ko")
	require.NoError(t, err)
	assert.Equal(t, "번역", got.Translated)
	assert.Equal(t, 1, model.Calls())
}

func TestCacheKeyIsFlat(t *testing.T) {
	assert.Equal(t, "translations/1706.03762_ko.json", CacheKey("1706.03762", "ko"))
	assert.Equal(t, "translations/cs_9901001_.._ko.json", CacheKey("cs/9901001", "../ko"))
	assert.Equal(t, "translations/x_zh_TW.json", CacheKey("x", "zh/TW"))
}
