package llmservice

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paper-review-rag/internal/config"
	"paper-review-rag/internal/testutil"
)

func TestGenerateContent(t *testing.T) {
	ctx := context.Background()

	model := &testutil.FakeModel{Response: "canned"}
	out, err := GenerateContent(ctx, model, "hello")
	require.NoError(t, err)
	assert.Equal(t, "canned", out)
	assert.Equal(t, "hello", model.LastPrompt())

	failing := &testutil.FakeModel{Err: testutil.ErrUnavailable}
	_, err = GenerateContent(ctx, failing, "hello")
	assert.ErrorIs(t, err, testutil.ErrUnavailable)
	assert.Equal(t, 1, failing.Calls())
}

func TestNewModel(t *testing.T) {
	_, err := NewModel(&config.LLMConfig{Provider: "bedrock"})
	assert.Error(t, err)

	m, err := NewModel(&config.LLMConfig{Provider: "ollama", BaseURL: "http://127.0.0.1:11434", Model: "llama3"})
	require.NoError(t, err)
	assert.NotNil(t, m)
}
