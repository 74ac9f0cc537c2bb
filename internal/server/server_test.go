package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paper-review-rag/internal/app"
	"paper-review-rag/internal/catalog"
	"paper-review-rag/internal/config"
	"paper-review-rag/internal/models"
	"paper-review-rag/internal/store"
	"paper-review-rag/internal/testutil"
)

type fakeSearch struct{}

func (fakeSearch) Search(_ context.Context, query string, _ int) ([]models.Paper, error) {
	if query == "down" {
		return nil, models.ErrSourceUnavailable
	}
	return []models.Paper{{ArxivID: "1706.03762", Title: "Attention Is All You Need"}}, nil
}

type fakePapers struct{}

func (fakePapers) Load(_ context.Context, arxivID string) ([]models.Document, error) {
	if arxivID != "1706.03762" {
		return nil, models.ErrSourceUnavailable
	}
	return []models.Document{{SourceID: arxivID, Title: "Attention", Content: "The Transformer relies entirely on attention."}}, nil
}

type envelope struct {
	Code  int             `json:"code"`
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

func newRouter(t *testing.T) (*gin.Engine, *testutil.FakeModel) {
	t.Helper()
	model := &testutil.FakeModel{Response: "canned answer"}
	svc, err := app.New(config.Default(), app.Deps{
		Embedder: &testutil.FakeEmbedder{},
		Model:    model,
		Papers:   fakePapers{},
		Indexes:  store.NewMemoryStore(),
	})
	require.NoError(t, err)

	cat, err := catalog.Open(filepath.Join(t.TempDir(), "papers.db"))
	require.NoError(t, err)
	t.Cleanup(func() { cat.Close() })

	return NewRouter(&Handler{Service: svc, Papers: fakeSearch{}, Catalog: cat}, gin.TestMode), model
}

func do(t *testing.T, r http.Handler, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func TestAskFlow(t *testing.T) {
	r, model := newRouter(t)

	w, env := do(t, r, http.MethodGet, "/api/v1/session", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"stage":"NONE"}`, string(env.Data))

	w, _ = do(t, r, http.MethodPost, "/api/v1/ask", gin.H{"question": "what is the main contribution"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, 0, model.Calls())

	w, _ = do(t, r, http.MethodPost, "/api/v1/session/paper", gin.H{"arxiv_id": "0000.00000"})
	assert.Equal(t, http.StatusBadGateway, w.Code)

	w, env = do(t, r, http.MethodPost, "/api/v1/session/paper", gin.H{"arxiv_id": "1706.03762"})
	require.Equal(t, http.StatusOK, w.Code)
	var info app.IndexInfo
	require.NoError(t, json.Unmarshal(env.Data, &info))
	assert.Equal(t, "1706.03762_paper_pdf", info.SourceID)

	w, env = do(t, r, http.MethodPost, "/api/v1/session/transcript", gin.H{"video_name": "Talk", "text": "multi-head attention explained"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"stage":"BOTH"`)

	w, env = do(t, r, http.MethodPost, "/api/v1/ask", gin.H{"question": "what is the main contribution", "language": "en"})
	require.Equal(t, http.StatusOK, w.Code)
	var answer models.Answer
	require.NoError(t, json.Unmarshal(env.Data, &answer))
	assert.Equal(t, "canned answer", answer.Content)
	assert.Len(t, answer.Context, 2)

	w, _ = do(t, r, http.MethodPost, "/api/v1/ask", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	calls := model.Calls()
	w, _ = do(t, r, http.MethodPost, "/api/v1/ask", gin.H{"question": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, calls, model.Calls())
}

func TestCatalogRoutes(t *testing.T) {
	r, _ := newRouter(t)

	w, env := do(t, r, http.MethodGet, "/api/v1/catalog", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, string(env.Data))

	w, env = do(t, r, http.MethodPost, "/api/v1/catalog", models.Paper{ArxivID: "1706.03762", Title: "Attention"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"added":true`)

	w, env = do(t, r, http.MethodPost, "/api/v1/catalog", models.Paper{ArxivID: "1706.03762", Title: "Attention"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"added":false`)

	w, _ = do(t, r, http.MethodPost, "/api/v1/catalog", gin.H{"title": "no id"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = do(t, r, http.MethodDelete, "/api/v1/catalog/1706.03762", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"removed":true`)
}

func TestSearchRoutes(t *testing.T) {
	r, _ := newRouter(t)

	w, env := do(t, r, http.MethodGet, "/api/v1/papers/search?query=attention", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), "1706.03762")

	w, _ = do(t, r, http.MethodGet, "/api/v1/papers/search?query=down", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)

	w, _ = do(t, r, http.MethodGet, "/api/v1/papers/search", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, r, http.MethodGet, "/api/v1/videos/search?query=attention", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestTranslateAndReviews(t *testing.T) {
	r, _ := newRouter(t)

	w, env := do(t, r, http.MethodPost, "/api/v1/translate", gin.H{"arxiv_id": "1706.03762", "text": "abstract"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"translated":"canned answer"`)

	w, env = do(t, r, http.MethodGet, "/api/v1/reviews/Attention", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `## Attention Review`)

	w, _ = do(t, r, http.MethodPut, "/api/v1/reviews/Attention", gin.H{"markdown": "## Notes\n\nsolid"})
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = do(t, r, http.MethodGet, "/api/v1/reviews/Attention/html", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<h2>Notes</h2>")
}
