package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseBlobStore(t *testing.T, s BlobStore) {
	t.Helper()
	ctx := context.Background()

	ok, err := s.Exists(ctx, "1706.03762_paper_pdf")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Load(ctx, "1706.03762_paper_pdf")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Save(ctx, "1706.03762_paper_pdf", []byte("index-v1")))
	ok, err = s.Exists(ctx, "1706.03762_paper_pdf")
	require.NoError(t, err)
	assert.True(t, ok)

	blob, err := s.Load(ctx, "1706.03762_paper_pdf")
	require.NoError(t, err)
	assert.Equal(t, []byte("index-v1"), blob)

	require.NoError(t, s.Save(ctx, "1706.03762_paper_pdf", []byte("index-v2")))
	blob, err = s.Load(ctx, "1706.03762_paper_pdf")
	require.NoError(t, err)
	assert.Equal(t, []byte("index-v2"), blob)

	require.NoError(t, s.Save(ctx, "translations/1706.03762_ko.json", []byte(`{"translated":"x"}`)))
	ok, err = s.Exists(ctx, "translations/1706.03762_ko.json")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.Delete(ctx, "1706.03762_paper_pdf"))
	ok, err = s.Exists(ctx, "1706.03762_paper_pdf")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.ErrorIs(t, s.Delete(ctx, "1706.03762_paper_pdf"), ErrNotFound)
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	exerciseBlobStore(t, s)
	assert.Equal(t, 3, s.Saves())
	assert.Equal(t, 1, s.Len())
}

func TestFileStore(t *testing.T) {
	root := t.TempDir()
	s, err := NewFileStore(root)
	require.NoError(t, err)
	exerciseBlobStore(t, s)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp-", "temp files must not be left behind")
	}
	_, err = os.Stat(filepath.Join(root, "translations", "1706.03762_ko.json"))
	assert.NoError(t, err)
}

func TestFileStoreRejectsEscapingKeys(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	for _, key := range []string{"", "..", "../outside", "/etc/passwd"} {
		assert.Error(t, s.Save(ctx, key, []byte("x")), key)
	}
}
