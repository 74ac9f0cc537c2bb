// Package server exposes the review session over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"paper-review-rag/internal/app"
	"paper-review-rag/internal/models"
)

type PaperSearcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]models.Paper, error)
}

type VideoSearcher interface {
	Search(ctx context.Context, query string, maxResults int64) ([]models.Video, error)
}

type Catalog interface {
	Add(ctx context.Context, p models.Paper) (bool, error)
	Remove(ctx context.Context, arxivID string) (bool, error)
	List(ctx context.Context) ([]models.Paper, error)
}

// Handler serves the API. Papers, Videos and Catalog are optional; routes
// needing a missing one answer 503.
type Handler struct {
	Service *app.Service
	Papers  PaperSearcher
	Videos  VideoSearcher
	Catalog Catalog
}

func NewRouter(h *Handler, mode string) *gin.Engine {
	if mode != "" {
		gin.SetMode(mode)
	}
	r := gin.New()
	r.Use(RequestLogger(), gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	api := r.Group("/api/v1")
	{
		api.GET("/papers/search", h.SearchPapers)
		api.GET("/videos/search", h.SearchVideos)

		catalog := api.Group("/catalog")
		catalog.GET("", h.ListCatalog)
		catalog.POST("", h.AddToCatalog)
		catalog.DELETE("/*arxiv_id", h.RemoveFromCatalog)

		api.POST("/translate", h.Translate)

		sess := api.Group("/session")
		sess.GET("", h.Stage)
		sess.POST("/paper", h.BuildPaperIndex)
		sess.POST("/transcript", h.BuildTranscriptIndex)

		api.POST("/ask", h.Ask)

		reviews := api.Group("/reviews")
		reviews.GET("/:title", h.GetReview)
		reviews.PUT("/:title", h.PutReview)
		reviews.GET("/:title/html", h.RenderReview)
	}
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info().Msg("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
