// Package store persists serialized indexes and cached artifacts as opaque
// blobs keyed by a string.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Load and Delete when no blob exists for the key.
var ErrNotFound = errors.New("blob not found")

// BlobStore is a key-value store of byte blobs. Save must either store the
// whole blob or leave the previous state untouched.
type BlobStore interface {
	Exists(ctx context.Context, key string) (bool, error)
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, blob []byte) error
	Delete(ctx context.Context, key string) error
}
