package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"paper-review-rag/internal/models"
	"paper-review-rag/internal/review"
)

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": data, "message": "success"})
}

func fail(c *gin.Context, err error) {
	status := statusFor(err)
	_ = c.Error(err)
	c.JSON(status, gin.H{"code": status, "error": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "error": msg})
}

func unavailable(c *gin.Context, what string) {
	c.JSON(http.StatusServiceUnavailable, gin.H{"code": http.StatusServiceUnavailable, "error": what + " is not configured"})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrNoRetriever):
		return http.StatusConflict
	case errors.Is(err, models.ErrSourceUnavailable), errors.Is(err, models.ErrSynthesisFailed):
		return http.StatusBadGateway
	case errors.Is(err, models.ErrInvalidDocument), errors.Is(err, models.ErrInvalidChunkConfig),
		errors.Is(err, models.ErrEmptyQuestion):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) SearchPapers(c *gin.Context) {
	if h.Papers == nil {
		unavailable(c, "paper search")
		return
	}
	query := strings.TrimSpace(c.Query("query"))
	if query == "" {
		badRequest(c, "query is required")
		return
	}
	maxResults, _ := strconv.Atoi(c.DefaultQuery("max", "0"))

	papers, err := h.Papers.Search(c.Request.Context(), query, maxResults)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, papers)
}

func (h *Handler) SearchVideos(c *gin.Context) {
	if h.Videos == nil {
		unavailable(c, "video search")
		return
	}
	query := strings.TrimSpace(c.Query("query"))
	if query == "" {
		badRequest(c, "query is required")
		return
	}
	maxResults, _ := strconv.ParseInt(c.DefaultQuery("max", "0"), 10, 64)

	videos, err := h.Videos.Search(c.Request.Context(), query, maxResults)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, videos)
}

func (h *Handler) ListCatalog(c *gin.Context) {
	if h.Catalog == nil {
		unavailable(c, "catalog")
		return
	}
	papers, err := h.Catalog.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	if papers == nil {
		papers = []models.Paper{}
	}
	ok(c, papers)
}

func (h *Handler) AddToCatalog(c *gin.Context) {
	if h.Catalog == nil {
		unavailable(c, "catalog")
		return
	}
	var p models.Paper
	if err := c.ShouldBindJSON(&p); err != nil || p.ArxivID == "" {
		badRequest(c, "a paper with arxiv_id is required")
		return
	}
	added, err := h.Catalog.Add(c.Request.Context(), p)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"arxiv_id": p.ArxivID, "added": added})
}

func (h *Handler) RemoveFromCatalog(c *gin.Context) {
	if h.Catalog == nil {
		unavailable(c, "catalog")
		return
	}
	id := strings.Trim(c.Param("arxiv_id"), "/")
	if id == "" {
		badRequest(c, "arxiv_id is required")
		return
	}
	removed, err := h.Catalog.Remove(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"arxiv_id": id, "removed": removed})
}

type translateRequest struct {
	ArxivID  string `json:"arxiv_id" binding:"required"`
	Text     string `json:"text" binding:"required"`
	Language string `json:"language"`
}

func (h *Handler) Translate(c *gin.Context) {
	var req translateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if req.Language == "" {
		req.Language = "ko"
	}
	tr, err := h.Service.Translate(c.Request.Context(), req.ArxivID, req.Text, req.Language)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, tr)
}

func (h *Handler) Stage(c *gin.Context) {
	ok(c, gin.H{"stage": h.Service.Stage()})
}

type paperIndexRequest struct {
	ArxivID string `json:"arxiv_id" binding:"required"`
}

func (h *Handler) BuildPaperIndex(c *gin.Context) {
	var req paperIndexRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	info, err := h.Service.BuildPaperIndex(c.Request.Context(), req.ArxivID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, info)
}

// transcriptIndexRequest carries either whole documents or plain text.
type transcriptIndexRequest struct {
	VideoName string            `json:"video_name" binding:"required"`
	Text      string            `json:"text"`
	Documents []models.Document `json:"documents"`
}

func (h *Handler) BuildTranscriptIndex(c *gin.Context) {
	var req transcriptIndexRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	docs := req.Documents
	if strings.TrimSpace(req.Text) != "" {
		doc, err := models.NewDocument(req.VideoName, req.VideoName, req.Text, nil)
		if err != nil {
			fail(c, err)
			return
		}
		docs = append(docs, doc)
	}
	info, err := h.Service.BuildTranscriptIndex(c.Request.Context(), req.VideoName, docs)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, info)
}

type askRequest struct {
	Question string `json:"question" binding:"required"`
	Language string `json:"language"`
}

func (h *Handler) Ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	answer, err := h.Service.Ask(c.Request.Context(), req.Question, req.Language)
	if err != nil {
		log.Warn().Err(err).Msg("Question not answered")
		fail(c, err)
		return
	}
	ok(c, answer)
}

func (h *Handler) GetReview(c *gin.Context) {
	text, err := h.Service.Reviews().Load(c.Request.Context(), c.Param("title"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"title": c.Param("title"), "markdown": text})
}

type reviewRequest struct {
	Markdown string `json:"markdown"`
}

func (h *Handler) PutReview(c *gin.Context) {
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := h.Service.Reviews().Save(c.Request.Context(), c.Param("title"), req.Markdown); err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"title": c.Param("title")})
}

func (h *Handler) RenderReview(c *gin.Context) {
	text, err := h.Service.Reviews().Load(c.Request.Context(), c.Param("title"))
	if err != nil {
		fail(c, err)
		return
	}
	html, err := review.RenderHTML(text)
	if err != nil {
		fail(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}
