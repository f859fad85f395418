package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Load when nothing is stored under the key.
var ErrNotFound = errors.New("key not found")

// KV is the persistence boundary for per-user state. Save must replace the
// value atomically so a concurrent Load sees either the old or the new value.
type KV interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}
