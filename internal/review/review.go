// Package review stores the markdown review written for each paper.
package review

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"paper-review-rag/internal/helper"
	"paper-review-rag/internal/store"
)

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(
		html.WithHardWraps(),
	),
)

type Reviews struct {
	blobs store.BlobStore
}

func New(blobs store.BlobStore) *Reviews {
	return &Reviews{blobs: blobs}
}

func Key(title string) string {
	return "reviews/" + helper.SafeName(title) + ".md"
}

// Template is the text of a review that has not been written yet.
func Template(title string) string {
	return fmt.Sprintf("## %s Review\n\n", title)
}

// Load returns the saved review for title, or Template(title) when none
// exists.
func (r *Reviews) Load(ctx context.Context, title string) (string, error) {
	data, err := r.blobs.Load(ctx, Key(title))
	if errors.Is(err, store.ErrNotFound) {
		return Template(title), nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load review %q: %w", title, err)
	}
	return string(data), nil
}

func (r *Reviews) Save(ctx context.Context, title, markdown string) error {
	if title == "" {
		return fmt.Errorf("review needs a title")
	}
	if err := r.blobs.Save(ctx, Key(title), []byte(markdown)); err != nil {
		return fmt.Errorf("failed to save review %q: %w", title, err)
	}
	return nil
}

// RenderHTML converts review markdown to HTML.
func RenderHTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
