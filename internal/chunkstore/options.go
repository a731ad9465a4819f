package chunkstore

import "time"

const (
	// DefaultWriteThrottle is the coalescing window for queued saves.
	DefaultWriteThrottle = time.Second
	// DefaultMaxWritesPerMinute stays at half the backing store's budget.
	DefaultMaxWritesPerMinute = 60
	// DefaultTargetChunkBytes stays well under an 8KB per-record quota.
	DefaultTargetChunkBytes = 6144
	// DefaultMaxRetries bounds attempts after a failed physical write.
	DefaultMaxRetries = 3
)

// Options configures a Store. Zero values select the defaults.
type Options struct {
	// WriteThrottle is the minimum interval between physical writes; saves
	// arriving within it collapse into one write of the latest snapshot.
	WriteThrottle time.Duration
	// MaxWritesPerMinute caps physical write operations in any one-minute window.
	MaxWritesPerMinute int
	// TargetChunkBytes is the serialized size budget of one chunk record.
	TargetChunkBytes int
	// MaxRetries is the number of retries after the first failed attempt.
	MaxRetries int
}

func (o Options) withDefaults() Options {
	if o.WriteThrottle <= 0 {
		o.WriteThrottle = DefaultWriteThrottle
	}
	if o.MaxWritesPerMinute <= 0 {
		o.MaxWritesPerMinute = DefaultMaxWritesPerMinute
	}
	if o.TargetChunkBytes <= 0 {
		o.TargetChunkBytes = DefaultTargetChunkBytes
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	} else if o.MaxRetries == 0 {
		o.MaxRetries = DefaultMaxRetries
	}
	return o
}
