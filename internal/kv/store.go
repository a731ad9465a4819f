// Package kv defines the key-value Backing Store contract the chunked task
// store persists into.
package kv

import (
	"context"
	"errors"
)

var (
	// ErrQuotaExceeded is returned when a record is larger than the store allows.
	ErrQuotaExceeded = errors.New("record quota exceeded")

	// ErrRateLimited is returned when the write-operation budget is spent.
	ErrRateLimited = errors.New("write rate limit exceeded")
)

// Store is an asynchronous key-value service with multi-key reads and writes.
// Keys missing from the store are absent from Get results, not errors.
type Store interface {
	Get(ctx context.Context, keys ...string) (map[string][]byte, error)
	Set(ctx context.Context, items map[string][]byte) error
	Remove(ctx context.Context, keys ...string) error
}

// Batcher is implemented by stores that can apply a set and a removal as
// one atomic operation.
type Batcher interface {
	Apply(ctx context.Context, set map[string][]byte, remove []string) error
}
