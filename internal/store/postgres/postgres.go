// Package postgres stores blobs in a PostgreSQL table through bun.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"paper-review-rag/internal/config"
	"paper-review-rag/internal/store"
)

type Blob struct {
	bun.BaseModel `bun:"table:index_blobs,alias:b"`
	Key           string    `bun:"key,pk"`
	Data          []byte    `bun:"data,notnull,type:bytea"`
	UpdatedAt     time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// Store implements store.BlobStore on the index_blobs table.
type Store struct {
	db *bun.DB
}

var _ store.BlobStore = (*Store)(nil)

// ConnectDB opens a database handle with the configured driver: bun's
// pgdriver or lib/pq.
func ConnectDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("store.database.dsn is required")
	}
	switch cfg.Driver {
	case "pq":
		return sql.Open("postgres", cfg.DSN)
	case "pgdriver", "":
		opts := []pgdriver.Option{pgdriver.WithDSN(cfg.DSN)}
		if cfg.Password != "" {
			opts = append(opts, pgdriver.WithPassword(cfg.Password))
		}
		return sql.OpenDB(pgdriver.NewConnector(opts...)), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}

func NewDB(sqldb *sql.DB, debug bool) *bun.DB {
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

// New wraps db and creates the blob table when missing.
func New(ctx context.Context, db *bun.DB) (*Store, error) {
	if err := InitDB(ctx, db); err != nil {
		return nil, fmt.Errorf("failed to initialize blob table: %w", err)
	}
	return &Store{db: db}, nil
}

func InitDB(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*Blob)(nil)).IfNotExists().Exec(ctx)
	return err
}

func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	ok, err := s.db.NewSelect().Model((*Blob)(nil)).Where("key = ?", key).Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check blob %s: %w", key, err)
	}
	return ok, nil
}

func (s *Store) Load(ctx context.Context, key string) ([]byte, error) {
	var b Blob
	err := s.db.NewSelect().Model(&b).Where("key = ?", key).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load blob %s: %w", key, err)
	}
	return b.Data, nil
}

// Save upserts in a single statement.
func (s *Store) Save(ctx context.Context, key string, blob []byte) error {
	b := &Blob{Key: key, Data: blob, UpdatedAt: time.Now().UTC()}
	_, err := s.db.NewInsert().
		Model(b).
		On("CONFLICT (key) DO UPDATE").
		Set("data = EXCLUDED.data").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to save blob %s: %w", key, err)
	}
	return nil
}

func (s *Store) deleteQuery(key string) *bun.DeleteQuery {
	return s.db.NewDelete().Model((*Blob)(nil)).Where("key = ?", key)
}

func (s *Store) Delete(ctx context.Context, key string) error {
	res, err := s.deleteQuery(key).Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete blob %s: %w", key, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", store.ErrNotFound, key)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
