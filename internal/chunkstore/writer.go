package chunkstore

import (
	"context"
	"fmt"
	"time"

	"github.com/rpggio/tasktimer/internal/domain/task"
	"github.com/rpggio/tasktimer/internal/kv"
)

// run is the single writer goroutine. Physical writes never overlap.
func (s *Store) run() {
	defer close(s.done)

	for {
		s.mu.Lock()
		if !s.queued {
			closing := s.closing
			s.mu.Unlock()
			if closing {
				return
			}
			<-s.wake
			continue
		}
		delay := s.delayLocked(time.Now())
		s.mu.Unlock()

		if delay > 0 {
			t := time.NewTimer(delay)
			select {
			case <-t.C:
			case <-s.wake:
				t.Stop()
			}
			continue
		}

		s.flush()
	}
}

// delayLocked returns how long the queued snapshot must still wait: the
// coalescing window from the first queued save, plus everything
// nextWriteLocked requires. Caller holds mu.
func (s *Store) delayLocked(now time.Time) time.Duration {
	if s.closing {
		return 0
	}

	ready := s.firstAt.Add(s.opts.WriteThrottle)
	if next := s.nextWriteLocked(now); next.After(ready) {
		ready = next
	}
	return ready.Sub(now)
}

// nextWriteLocked returns the earliest time another physical write may
// start: the minimum gap since the previous write and the per-minute write
// budget. Caller holds mu.
func (s *Store) nextWriteLocked(now time.Time) time.Time {
	var ready time.Time
	if !s.lastWrite.IsZero() {
		ready = s.lastWrite.Add(s.opts.WriteThrottle)
	}

	s.pruneHistoryLocked(now)
	if n := len(s.history); n >= s.opts.MaxWritesPerMinute {
		// The oldest write that must age out before another is allowed.
		oldest := s.history[n-s.opts.MaxWritesPerMinute]
		if next := oldest.Add(time.Minute); next.After(ready) {
			ready = next
		}
	}
	return ready
}

// retryDelay is how long a failed write waits before trying again.
func (s *Store) retryDelay() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	d := s.nextWriteLocked(now).Sub(now)
	if d < s.opts.WriteThrottle {
		d = s.opts.WriteThrottle
	}
	return d
}

func (s *Store) pruneHistoryLocked(now time.Time) {
	cutoff := now.Add(-time.Minute)
	i := 0
	for i < len(s.history) && !s.history[i].After(cutoff) {
		i++
	}
	s.history = s.history[i:]
}

func (s *Store) recordAttempt() {
	s.mu.Lock()
	now := time.Now()
	s.history = append(s.history, now)
	s.lastWrite = now
	s.mu.Unlock()
}

// flush takes the queued snapshot and writes it, retrying with the throttle
// interval as a fixed backoff. Retries count against the write budget.
func (s *Store) flush() {
	s.mu.Lock()
	snapshot := s.pending
	waiters := s.waiters
	s.pending, s.queued, s.waiters = nil, false, nil
	s.mu.Unlock()

	s.writeMu.Lock()
	err := s.writeWithRetry(context.Background(), snapshot)
	s.writeMu.Unlock()

	if err != nil {
		s.logger.Error("failed to save tasks", "error", err, "tasks", len(snapshot))
	}
	for _, c := range waiters {
		c.resolve(err)
	}
}

func (s *Store) writeWithRetry(ctx context.Context, tasks []task.Task) error {
	var err error
	for attempt := 0; attempt <= s.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := s.retryDelay()
			s.logger.Warn("retrying task save", "attempt", attempt, "delay", delay, "error", err)
			t := time.NewTimer(delay)
			select {
			case <-t.C:
			case <-s.stop:
				t.Stop()
				return err
			}
		}
		if err = s.write(ctx, tasks); err == nil {
			return nil
		}
	}
	return err
}

// write commits one generation: every chunk record and the index in one
// batched call, plus removal of chunk keys the new index no longer names.
func (s *Store) write(ctx context.Context, tasks []task.Task) error {
	chunks, err := Pack(tasks, s.opts.TargetChunkBytes)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWriteTransport, err)
	}

	prev, err := s.knownKeys(ctx)
	if err != nil {
		return err
	}

	set := make(map[string][]byte, len(chunks)+1)
	keys := make([]string, len(chunks))
	for i, chunk := range chunks {
		keys[i] = ChunkKey(i)
		set[keys[i]] = chunk
	}

	index, err := encodeIndex(ChunkIndex{
		Version:        indexVersion,
		ChunkKeys:      keys,
		TotalTaskCount: len(tasks),
		UpdatedAt:      time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWriteTransport, err)
	}
	set[IndexKey] = index

	stale := staleKeys(prev, keys)

	s.recordAttempt()
	if b, ok := s.kv.(kv.Batcher); ok {
		if err := b.Apply(ctx, set, stale); err != nil {
			return fmt.Errorf("%w: %v", classify(err), err)
		}
		s.setKnown(keys)
		s.logger.Debug("saved tasks", "tasks", len(tasks), "chunks", len(keys), "removed", len(stale))
		return nil
	}

	if err := s.kv.Set(ctx, set); err != nil {
		return fmt.Errorf("%w: %v", classify(err), err)
	}

	// The new index is committed; leftover chunks are orphans until removed.
	if len(stale) > 0 {
		s.recordAttempt()
		if err := s.kv.Remove(ctx, stale...); err != nil {
			s.logger.Warn("failed to remove stale task chunks", "error", err, "keys", stale)
			s.setKnown(append(keys, stale...))
			return nil
		}
	}
	s.setKnown(keys)
	s.logger.Debug("saved tasks", "tasks", len(tasks), "chunks", len(keys), "removed", len(stale))
	return nil
}

func staleKeys(prev, current []string) []string {
	keep := make(map[string]struct{}, len(current))
	for _, k := range current {
		keep[k] = struct{}{}
	}
	var stale []string
	for _, k := range prev {
		if _, ok := keep[k]; !ok {
			stale = append(stale, k)
		}
	}
	return stale
}
