// Package redis stores blobs as Redis string values.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"paper-review-rag/internal/store"
)

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string        // Key prefix, default "paper-rag:"
	TTL      time.Duration // Expiration for blobs, default 0 (no expiration)
}

type Store struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ store.BlobStore = (*Store)(nil)

func New(opts Options) *Store {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	prefix := opts.Prefix
	if prefix == "" {
		prefix = "paper-rag:"
	}

	return &Store{client: client, prefix: prefix, ttl: opts.TTL}
}

func (s *Store) blobKey(key string) string {
	return fmt.Sprintf("%sblob:%s", s.prefix, key)
}

func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, s.blobKey(key)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check blob in redis: %w", err)
	}
	return n > 0, nil
}

func (s *Store) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.blobKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", store.ErrNotFound, key)
		}
		return nil, fmt.Errorf("failed to load blob from redis: %w", err)
	}
	return data, nil
}

// Save is a single SET, which Redis applies atomically.
func (s *Store) Save(ctx context.Context, key string, blob []byte) error {
	if err := s.client.Set(ctx, s.blobKey(key), blob, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save blob to redis: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	n, err := s.client.Del(ctx, s.blobKey(key)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete blob from redis: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", store.ErrNotFound, key)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}
