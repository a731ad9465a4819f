// Package timer tracks per-task stopwatches and schedules display refreshes.
package timer

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/rpggio/tasktimer/internal/clock"
	"github.com/rpggio/tasktimer/internal/domain/task"
)

// Callbacks couple the engine to the task collection, persistence and
// rendering. Nil callbacks are skipped.
type Callbacks struct {
	GetTasks                  func() []*task.Task
	SaveTasks                 func(tasks []*task.Task)
	OnRowStatusChanged        func(id string, status task.Status)
	OnTimerButtonStateChanged func(id string, running bool)
}

// Record is the runtime state of one running stopwatch. It is never persisted.
type Record struct {
	StartTime     time.Time
	BaseElapsedMs int64
	// PriorStatus is restored when the timer stops.
	PriorStatus task.Status
}

func (r *Record) elapsed(now time.Time) int64 {
	d := now.Sub(r.StartTime).Milliseconds()
	if d < 0 {
		d = 0
	}
	return r.BaseElapsedMs + d
}

// Engine owns every running stopwatch of one task collection.
type Engine struct {
	clock  clock.Clock
	cb     Callbacks
	logger *slog.Logger

	mu     sync.Mutex
	timers map[string]*Record
}

// NewEngine creates an Engine with no running timers.
func NewEngine(clk clock.Clock, cb Callbacks, logger *slog.Logger) *Engine {
	if clk == nil {
		clk = clock.Real{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		clock:  clk,
		cb:     cb,
		logger: logger,
		timers: make(map[string]*Record),
	}
}

// Toggle starts a stopped timer or stops a running one and reports whether
// the timer is running afterwards. Starting a done task is ignored.
func (e *Engine) Toggle(id string) (bool, error) {
	t := e.find(id)
	if t == nil {
		return false, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}

	now := e.clock.Now()

	e.mu.Lock()
	rec, running := e.timers[id]
	if !running {
		if t.Status == task.StatusDone {
			e.mu.Unlock()
			e.logger.Debug("ignoring timer start", "task_id", id, "error", ErrInvalidTransition)
			return false, nil
		}
		e.timers[id] = &Record{
			StartTime:     now,
			BaseElapsedMs: t.ElapsedMs,
			PriorStatus:   t.Status,
		}
		e.mu.Unlock()

		t.Status = task.StatusInProgress
		t.UpdatedAt = now
		e.notify(id, t.Status, true)
		e.save()
		e.logger.Debug("timer started", "task_id", id, "base_ms", t.ElapsedMs)
		return true, nil
	}
	delete(e.timers, id)
	e.mu.Unlock()

	e.stop(t, rec, now)
	e.notify(id, t.Status, false)
	e.save()
	e.logger.Debug("timer stopped", "task_id", id, "elapsed_ms", t.ElapsedMs)
	return false, nil
}

// stop folds the live elapsed time into the task and restores its status.
// A task marked done while running stays done.
func (e *Engine) stop(t *task.Task, rec *Record, now time.Time) {
	t.ElapsedMs = rec.elapsed(now)
	if t.Status != task.StatusDone {
		t.Status = rec.PriorStatus
		// in-progress only holds while a timer runs.
		if t.Status == task.StatusInProgress || !t.Status.Valid() {
			t.Status = task.StatusTodo
		}
	}
	t.UpdatedAt = now
}

// SetBaseElapsedMs rebases a running timer to ms without stopping it and
// without saving. It returns false when the timer is not running, in which
// case the caller updates the task's stored elapsed time itself.
func (e *Engine) SetBaseElapsedMs(id string, ms int64) bool {
	if ms < 0 {
		ms = 0
	}
	now := e.clock.Now()

	e.mu.Lock()
	defer e.mu.Unlock()
	rec, ok := e.timers[id]
	if !ok {
		return false
	}
	rec.StartTime = now
	rec.BaseElapsedMs = ms
	return true
}

// IsRunning reports whether id has a running timer.
func (e *Engine) IsRunning(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.timers[id]
	return ok
}

// CurrentElapsed returns the live elapsed time of a running timer, computed
// from the clock on every call, or the task's stored elapsed time.
func (e *Engine) CurrentElapsed(id string) int64 {
	e.mu.Lock()
	rec, ok := e.timers[id]
	if ok {
		ms := rec.elapsed(e.clock.Now())
		e.mu.Unlock()
		return ms
	}
	e.mu.Unlock()

	if t := e.find(id); t != nil {
		return t.ElapsedMs
	}
	return 0
}

// Running returns the ids of running timers in sorted order.
func (e *Engine) Running() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	ids := make([]string, 0, len(e.timers))
	for id := range e.timers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// RunningElapsed returns the live elapsed time of every running timer.
func (e *Engine) RunningElapsed() map[string]int64 {
	now := e.clock.Now()
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]int64, len(e.timers))
	for id, rec := range e.timers {
		out[id] = rec.elapsed(now)
	}
	return out
}

// Forget drops the timer of id without touching the task. Used when the
// task itself is deleted.
func (e *Engine) Forget(id string) {
	e.mu.Lock()
	delete(e.timers, id)
	e.mu.Unlock()
}

// ClearAll stops every running timer, folding elapsed time into the tasks,
// without saving. The caller does a final bulk save if one is needed.
func (e *Engine) ClearAll() {
	now := e.clock.Now()

	e.mu.Lock()
	timers := e.timers
	e.timers = make(map[string]*Record)
	e.mu.Unlock()

	if len(timers) == 0 {
		return
	}

	byID := make(map[string]*task.Task)
	for _, t := range e.tasks() {
		byID[t.ID] = t
	}

	ids := make([]string, 0, len(timers))
	for id := range timers {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		t, ok := byID[id]
		if !ok {
			continue
		}
		e.stop(t, timers[id], now)
		e.notify(id, t.Status, false)
	}
	e.logger.Debug("stopped all timers", "count", len(ids))
}

func (e *Engine) tasks() []*task.Task {
	if e.cb.GetTasks == nil {
		return nil
	}
	return e.cb.GetTasks()
}

func (e *Engine) find(id string) *task.Task {
	for _, t := range e.tasks() {
		if t != nil && t.ID == id {
			return t
		}
	}
	return nil
}

func (e *Engine) notify(id string, status task.Status, running bool) {
	if e.cb.OnRowStatusChanged != nil {
		e.cb.OnRowStatusChanged(id, status)
	}
	if e.cb.OnTimerButtonStateChanged != nil {
		e.cb.OnTimerButtonStateChanged(id, running)
	}
}

func (e *Engine) save() {
	if e.cb.SaveTasks != nil {
		e.cb.SaveTasks(e.tasks())
	}
}
