package kv

import (
	"context"
	"fmt"
	"sync"
	"time"
)

const (
	// DefaultMaxRecordBytes mirrors the per-item quota of browser sync storage.
	DefaultMaxRecordBytes = 8192
	// DefaultMaxWritesPerMinute mirrors the per-minute write operation quota.
	DefaultMaxWritesPerMinute = 120
)

// QuotaOptions configures the limits enforced by Quota.
type QuotaOptions struct {
	MaxRecordBytes     int
	MaxWritesPerMinute int
	// Now overrides the clock used for the rate window.
	Now func() time.Time
}

// Quota wraps a Store and rejects writes that break the per-record size cap
// or the per-minute write budget. Size is key length plus value length.
type Quota struct {
	next Store
	opts QuotaOptions

	mu     sync.Mutex
	writes []time.Time
}

// NewQuota decorates next with quota enforcement.
func NewQuota(next Store, opts QuotaOptions) *Quota {
	if opts.MaxRecordBytes <= 0 {
		opts.MaxRecordBytes = DefaultMaxRecordBytes
	}
	if opts.MaxWritesPerMinute <= 0 {
		opts.MaxWritesPerMinute = DefaultMaxWritesPerMinute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Quota{next: next, opts: opts}
}

func (q *Quota) Get(ctx context.Context, keys ...string) (map[string][]byte, error) {
	return q.next.Get(ctx, keys...)
}

func (q *Quota) Set(ctx context.Context, items map[string][]byte) error {
	if err := q.checkSize(items); err != nil {
		return err
	}
	if err := q.spend(); err != nil {
		return err
	}
	return q.next.Set(ctx, items)
}

func (q *Quota) Remove(ctx context.Context, keys ...string) error {
	if err := q.spend(); err != nil {
		return err
	}
	return q.next.Remove(ctx, keys...)
}

// Apply forwards to the wrapped store when it is a Batcher, counting one
// write operation. Otherwise it performs Set then Remove.
func (q *Quota) Apply(ctx context.Context, set map[string][]byte, remove []string) error {
	if err := q.checkSize(set); err != nil {
		return err
	}
	if err := q.spend(); err != nil {
		return err
	}
	if b, ok := q.next.(Batcher); ok {
		return b.Apply(ctx, set, remove)
	}
	if len(set) > 0 {
		if err := q.next.Set(ctx, set); err != nil {
			return err
		}
	}
	if len(remove) > 0 {
		return q.next.Remove(ctx, remove...)
	}
	return nil
}

// WritesInWindow reports how many write operations fall in the current minute.
func (q *Quota) WritesInWindow() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.prune(q.opts.Now())
	return len(q.writes)
}

func (q *Quota) checkSize(items map[string][]byte) error {
	for key, value := range items {
		if size := len(key) + len(value); size > q.opts.MaxRecordBytes {
			return fmt.Errorf("%w: %s is %d bytes, limit %d", ErrQuotaExceeded, key, size, q.opts.MaxRecordBytes)
		}
	}
	return nil
}

func (q *Quota) spend() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.opts.Now()
	q.prune(now)
	if len(q.writes) >= q.opts.MaxWritesPerMinute {
		return fmt.Errorf("%w: %d writes in the last minute", ErrRateLimited, len(q.writes))
	}
	q.writes = append(q.writes, now)
	return nil
}

func (q *Quota) prune(now time.Time) {
	cutoff := now.Add(-time.Minute)
	i := 0
	for i < len(q.writes) && !q.writes[i].After(cutoff) {
		i++
	}
	q.writes = q.writes[i:]
}
