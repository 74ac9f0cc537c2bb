package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"paper-review-rag/internal/app"
	"paper-review-rag/internal/arxiv"
	"paper-review-rag/internal/server"
	"paper-review-rag/internal/youtube"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := app.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	cat, err := openCatalog()
	if err != nil {
		return err
	}
	defer cat.Close()

	h := &server.Handler{
		Service: svc,
		Papers:  arxiv.NewClient(&cfg.Arxiv, nil),
		Catalog: cat,
	}
	if cfg.YouTube.APIKey != "" {
		videos, err := youtube.NewClient(context.WithoutCancel(ctx), &cfg.YouTube)
		if err != nil {
			return err
		}
		h.Videos = videos
	} else {
		log.Warn().Msg("youtube.api_key not set, video search disabled")
	}

	addr := serveAddr
	if addr == "" {
		addr = cfg.Server.Addr
	}
	return server.Run(ctx, addr, server.NewRouter(h, cfg.Server.Mode))
}
