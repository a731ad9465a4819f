package chunkstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rpggio/tasktimer/internal/domain/task"
	"github.com/rpggio/tasktimer/internal/kv"
)

// Store persists the full task collection as bounded-size chunk records
// plus an index record, with throttled, coalesced writes.
type Store struct {
	kv     kv.Store
	opts   Options
	logger *slog.Logger

	mu      sync.Mutex
	pending []task.Task // latest queued snapshot
	queued  bool
	waiters []*Commit
	firstAt time.Time // arrival of the oldest unwritten save
	// known holds the chunk keys believed present in the backing store.
	// knownValid is false until a load, save or clear has established them.
	known      []string
	knownValid bool
	lastWrite  time.Time
	history    []time.Time // physical write attempts in the last minute
	closing    bool
	closed     bool

	// writeMu serializes physical operations against the backing store.
	writeMu sync.Mutex

	wake     chan struct{}
	stop     chan struct{} // closed by Close; abandons retry waits
	stopOnce sync.Once
	done     chan struct{}
}

// New creates a Store over backing and starts its writer.
func New(backing kv.Store, opts Options, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Store{
		kv:     backing,
		opts:   opts.withDefaults(),
		logger: logger,
		wake:   make(chan struct{}, 1),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go s.run()
	return s
}

// Options returns the effective options.
func (s *Store) Options() Options {
	return s.opts
}

// LoadTasks reads the index, then every chunk it references, and returns the
// concatenated tasks. A missing index means no data. A corrupt index or an
// unreadable chunk is logged and recovered from; the error is non-nil only
// when ctx is done.
func (s *Store) LoadTasks(ctx context.Context) ([]task.Task, error) {
	tasks := []task.Task{}

	items, err := s.kv.Get(ctx, IndexKey)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Warn("failed to read task index", "error", err)
		return tasks, nil
	}

	raw, ok := items[IndexKey]
	if !ok {
		s.setKnown(nil)
		s.logger.Debug("no task index found")
		return tasks, nil
	}

	idx, err := decodeIndex(raw)
	if err != nil {
		s.logger.Warn("ignoring task index", "error", err)
		return tasks, nil
	}
	s.setKnown(idx.ChunkKeys)

	if len(idx.ChunkKeys) == 0 {
		return tasks, nil
	}

	chunks, err := s.kv.Get(ctx, idx.ChunkKeys...)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Warn("failed to read task chunks", "error", err, "chunks", len(idx.ChunkKeys))
		return tasks, nil
	}

	for _, key := range idx.ChunkKeys {
		data, ok := chunks[key]
		if !ok {
			s.logger.Warn("dropping task chunk", "key", key, "error", fmt.Errorf("%w: missing", ErrPartialChunk))
			continue
		}
		part, err := unpack(data)
		if err != nil {
			s.logger.Warn("dropping task chunk", "key", key, "error", fmt.Errorf("%w: %v", ErrPartialChunk, err))
			continue
		}
		for i := range part {
			tasks = append(tasks, s.normalize(part[i]))
		}
	}

	if len(tasks) != idx.TotalTaskCount {
		s.logger.Warn("task count differs from index", "loaded", len(tasks), "indexed", idx.TotalTaskCount)
	}

	return tasks, nil
}

func (s *Store) normalize(t task.Task) task.Task {
	if !t.Status.Valid() {
		s.logger.Warn("unknown task status, using todo", "task_id", t.ID, "status", t.Status)
		t.Status = task.StatusTodo
	}
	if t.ElapsedMs < 0 {
		t.ElapsedMs = 0
	}
	return t
}

// SaveTasks queues a full snapshot of tasks for writing and returns
// immediately. Saves issued within the throttle window coalesce; only the
// most recent snapshot is written.
func (s *Store) SaveTasks(tasks []task.Task) *Commit {
	snapshot := make([]task.Task, len(tasks))
	for i := range tasks {
		snapshot[i] = tasks[i].Clone()
	}

	s.mu.Lock()
	if s.closed || s.closing {
		s.mu.Unlock()
		return resolvedCommit(ErrClosed)
	}
	c := newCommit()
	if !s.queued {
		s.firstAt = time.Now()
	}
	s.pending = snapshot
	s.queued = true
	s.waiters = append(s.waiters, c)
	s.mu.Unlock()

	s.signal()
	return c
}

// Clear removes the index and every known chunk record in one call.
// Queued saves are dropped and their commits resolve without error.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	waiters := s.waiters
	s.pending, s.queued, s.waiters = nil, false, nil
	s.mu.Unlock()
	for _, c := range waiters {
		c.resolve(nil)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	known, err := s.knownKeys(ctx)
	if err != nil {
		return err
	}

	keys := append([]string{IndexKey}, known...)
	s.recordAttempt()
	if err := s.kv.Remove(ctx, keys...); err != nil {
		return fmt.Errorf("%w: clearing tasks: %v", classify(err), err)
	}

	s.setKnown(nil)
	s.logger.Info("cleared stored tasks", "records", len(keys))
	return nil
}

// Close writes any queued snapshot without waiting out the throttle, then
// stops the writer. Later saves fail with ErrClosed.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closing = true
	s.mu.Unlock()
	s.stopOnce.Do(func() { close(s.stop) })
	s.signal()

	select {
	case <-s.done:
	case <-ctx.Done():
		return ctx.Err()
	}

	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func (s *Store) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Store) setKnown(keys []string) {
	s.mu.Lock()
	s.known = append([]string(nil), keys...)
	s.knownValid = true
	s.mu.Unlock()
}

// knownKeys returns the chunk keys currently in the backing store, reading
// the index when nothing has been loaded or written yet. Caller holds writeMu.
func (s *Store) knownKeys(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	if s.knownValid {
		keys := append([]string(nil), s.known...)
		s.mu.Unlock()
		return keys, nil
	}
	s.mu.Unlock()

	items, err := s.kv.Get(ctx, IndexKey)
	if err != nil {
		return nil, fmt.Errorf("%w: reading index: %v", classify(err), err)
	}
	raw, ok := items[IndexKey]
	if !ok {
		return nil, nil
	}
	idx, err := decodeIndex(raw)
	if err != nil {
		// Chunks of an unreadable index are unreachable orphans.
		s.logger.Warn("previous task index unreadable", "error", err)
		return nil, nil
	}
	return idx.ChunkKeys, nil
}

func classify(err error) error {
	if errors.Is(err, kv.ErrQuotaExceeded) || errors.Is(err, kv.ErrRateLimited) {
		return ErrWriteQuotaExceeded
	}
	return ErrWriteTransport
}
