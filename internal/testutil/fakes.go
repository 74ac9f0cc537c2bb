// Package testutil holds in-process stand-ins for the embedding and
// language-model services.
package testutil

import (
	"context"
	"errors"
	"strings"
	"sync"
	"unicode"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
)

var (
	_ embeddings.Embedder = (*FakeEmbedder)(nil)
	_ llms.Model          = (*FakeModel)(nil)
)

// FakeEmbedder embeds text as letter frequencies plus a constant bias
// dimension, which keeps every vector non-zero.
type FakeEmbedder struct {
	mu            sync.Mutex
	Err           error
	DocumentCalls int
	QueryCalls    int
	Embedded      int
}

func (f *FakeEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.DocumentCalls++
	if f.Err != nil {
		return nil, f.Err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = Vector(t)
	}
	f.Embedded += len(texts)
	return out, nil
}

func (f *FakeEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.QueryCalls++
	if f.Err != nil {
		return nil, f.Err
	}
	return Vector(text), nil
}

func (f *FakeEmbedder) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.DocumentCalls
}

// Vector is the deterministic embedding used by FakeEmbedder.
func Vector(text string) []float32 {
	v := make([]float32, 27)
	for _, r := range strings.ToLower(text) {
		if r >= 'a' && r <= 'z' {
			v[r-'a']++
		} else if unicode.IsLetter(r) {
			v[25]++
		}
	}
	v[26] = 1
	return v
}

// FakeModel returns Response for every call and records the prompts.
type FakeModel struct {
	mu       sync.Mutex
	Response string
	Err      error
	Prompts  []string
}

func (m *FakeModel) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var prompt strings.Builder
	for _, msg := range messages {
		for _, part := range msg.Parts {
			if text, ok := part.(llms.TextContent); ok {
				prompt.WriteString(text.Text)
			}
		}
	}
	m.Prompts = append(m.Prompts, prompt.String())
	if m.Err != nil {
		return nil, m.Err
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: m.Response}},
	}, nil
}

func (m *FakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func (m *FakeModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Prompts)
}

func (m *FakeModel) LastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Prompts) == 0 {
		return ""
	}
	return m.Prompts[len(m.Prompts)-1]
}

// ErrUnavailable stands in for a provider outage.
var ErrUnavailable = errors.New("service unavailable")
