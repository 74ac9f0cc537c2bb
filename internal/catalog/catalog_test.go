package catalog

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paper-review-rag/internal/models"
)

func openTemp(t *testing.T) *Catalog {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "paper_csv", "papers.db"))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func attention() models.Paper {
	return models.Paper{
		ArxivID:   "1706.03762",
		Title:     "Attention Is All You Need",
		Summary:   "The dominant sequence transduction models...",
		Authors:   []string{"Ashish Vaswani", "Noam Shazeer"},
		Published: time.Date(2017, 6, 12, 17, 57, 34, 0, time.UTC),
		PDFURL:    "http://arxiv.org/pdf/1706.03762v7",
	}
}

func TestAddIsIdempotent(t *testing.T) {
	ctx := context.Background()
	c := openTemp(t)

	added, err := c.Add(ctx, attention())
	require.NoError(t, err)
	assert.True(t, added)

	added, err = c.Add(ctx, attention())
	require.NoError(t, err)
	assert.False(t, added)

	papers, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, papers, 1)
	assert.Equal(t, attention(), papers[0])
}

func TestRemoveAndContains(t *testing.T) {
	ctx := context.Background()
	c := openTemp(t)
	_, err := c.Add(ctx, attention())
	require.NoError(t, err)
	_, err = c.Add(ctx, models.Paper{ArxivID: "1810.04805", Title: "BERT"})
	require.NoError(t, err)

	ok, err := c.Contains(ctx, "1706.03762")
	require.NoError(t, err)
	assert.True(t, ok)

	removed, err := c.Remove(ctx, "1706.03762")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = c.Remove(ctx, "1706.03762")
	require.NoError(t, err)
	assert.False(t, removed)

	ok, err = c.Contains(ctx, "1706.03762")
	require.NoError(t, err)
	assert.False(t, ok)

	papers, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, papers, 1)
	assert.Equal(t, "BERT", papers[0].Title)
	assert.Nil(t, papers[0].Authors)

	_, err = c.Get(ctx, "1706.03762")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestToggle(t *testing.T) {
	ctx := context.Background()
	c := openTemp(t)

	listed, err := c.Toggle(ctx, attention())
	require.NoError(t, err)
	assert.True(t, listed)

	listed, err = c.Toggle(ctx, attention())
	require.NoError(t, err)
	assert.False(t, listed)

	_, err = c.Add(ctx, models.Paper{})
	assert.Error(t, err)
}

func TestReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "papers.db")
	c, err := Open(path)
	require.NoError(t, err)
	_, err = c.Add(ctx, attention())
	require.NoError(t, err)
	require.NoError(t, c.Close())

	c, err = Open(path)
	require.NoError(t, err)
	defer c.Close()
	p, err := c.Get(ctx, "1706.03762")
	require.NoError(t, err)
	assert.Equal(t, "Attention Is All You Need", p.Title)
}
