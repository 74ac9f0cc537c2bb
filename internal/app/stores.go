package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"paper-review-rag/internal/config"
	"paper-review-rag/internal/store"
	"paper-review-rag/internal/store/minio"
	"paper-review-rag/internal/store/postgres"
	"paper-review-rag/internal/store/redis"
)

// Stores holds the blob store for vector indexes and the one for cached
// artifacts (translations, reviews). Remote backends serve both from the same
// connection.
type Stores struct {
	Indexes   store.BlobStore
	Artifacts store.BlobStore
	closers   []func() error
}

func (s *Stores) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// OpenStores connects the backend named by cfg.Store.Backend.
func OpenStores(ctx context.Context, cfg *config.Config) (*Stores, error) {
	log.Debug().Str("backend", cfg.Store.Backend).Msg("Opening blob store")
	switch cfg.Store.Backend {
	case "file", "":
		indexes, err := store.NewFileStore(cfg.Store.Path)
		if err != nil {
			return nil, err
		}
		artifacts, err := store.NewFileStore(filepath.Join(cfg.DataDir, "artifacts"))
		if err != nil {
			return nil, err
		}
		return &Stores{Indexes: indexes, Artifacts: artifacts}, nil

	case "postgres":
		sqldb, err := postgres.ConnectDB(&cfg.Store.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		s, err := postgres.New(ctx, postgres.NewDB(sqldb, cfg.Store.Database.Debug))
		if err != nil {
			sqldb.Close()
			return nil, err
		}
		return &Stores{Indexes: s, Artifacts: s, closers: []func() error{s.Close}}, nil

	case "redis":
		s := redis.New(redis.Options{
			Addr:     cfg.Store.Redis.Addr,
			Password: cfg.Store.Redis.Password,
			DB:       cfg.Store.Redis.DB,
			Prefix:   cfg.Store.Redis.Prefix,
			TTL:      cfg.Store.Redis.TTL,
		})
		return &Stores{Indexes: s, Artifacts: s, closers: []func() error{s.Close}}, nil

	case "minio":
		s, err := minio.New(ctx, cfg.Store.MinIO)
		if err != nil {
			return nil, err
		}
		return &Stores{Indexes: s, Artifacts: s}, nil

	default:
		return nil, fmt.Errorf("unsupported store backend: %s", cfg.Store.Backend)
	}
}
