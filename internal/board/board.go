// Package board holds the in-memory task collection and applies domain
// operations to it, driving the timer engine and the chunked store.
package board

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rpggio/tasktimer/internal/chunkstore"
	"github.com/rpggio/tasktimer/internal/clock"
	"github.com/rpggio/tasktimer/internal/domain/task"
	"github.com/rpggio/tasktimer/internal/timefmt"
	"github.com/rpggio/tasktimer/internal/timer"
)

// Store persists task snapshots.
type Store interface {
	LoadTasks(ctx context.Context) ([]task.Task, error)
	SaveTasks(tasks []task.Task) *chunkstore.Commit
	Clear(ctx context.Context) error
	Close(ctx context.Context) error
}

// Options configures a Board.
type Options struct {
	// ViewportRows is how many leading rows count as visible for refresh.
	ViewportRows int
}

// Board owns the task collection of one process.
type Board struct {
	store  Store
	clock  clock.Clock
	opts   Options
	logger *slog.Logger
	engine *timer.Engine

	mu         sync.Mutex
	tasks      []*task.Task
	rows       map[string]*row
	lastCommit *chunkstore.Commit
}

// New creates an empty Board.
func New(store Store, clk clock.Clock, opts Options, logger *slog.Logger) *Board {
	if clk == nil {
		clk = clock.Real{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.ViewportRows <= 0 {
		opts.ViewportRows = 50
	}
	b := &Board{
		store:  store,
		clock:  clk,
		opts:   opts,
		logger: logger,
		rows:   make(map[string]*row),
	}
	// Engine callbacks run with b.mu held.
	b.engine = timer.NewEngine(clk, timer.Callbacks{
		GetTasks:                  func() []*task.Task { return b.tasks },
		SaveTasks:                 b.persistLocked,
		OnRowStatusChanged:        b.rowStatusLocked,
		OnTimerButtonStateChanged: b.rowRunningLocked,
	}, logger)
	return b
}

// Engine returns the board's timer engine.
func (b *Board) Engine() *timer.Engine {
	return b.engine
}

// Hydrate replaces the collection with the persisted tasks. Tasks saved as
// in-progress come back as todo since no timer survives a restart.
func (b *Board) Hydrate(ctx context.Context) error {
	loaded, err := b.store.LoadTasks(ctx)
	if err != nil {
		return fmt.Errorf("loading tasks: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.engine.ClearAll()
	b.tasks = make([]*task.Task, 0, len(loaded))
	b.rows = make(map[string]*row, len(loaded))
	for i := range loaded {
		t := loaded[i]
		if t.Status == task.StatusInProgress {
			t.Status = task.StatusTodo
		}
		b.tasks = append(b.tasks, &t)
		b.rows[t.ID] = &row{}
	}

	b.logger.Info("tasks loaded", "count", len(b.tasks))
	return nil
}

// List returns every task in board order.
func (b *Board) List() []View {
	b.mu.Lock()
	defer b.mu.Unlock()

	views := make([]View, 0, len(b.tasks))
	for _, t := range b.tasks {
		views = append(views, b.viewLocked(t))
	}
	return views
}

// Get returns one task.
func (b *Board) Get(id string) (View, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, err := b.findLocked(id)
	if err != nil {
		return View{}, err
	}
	return b.viewLocked(t), nil
}

// Add appends a new task and saves.
func (b *Board) Add(req AddRequest) (View, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return View{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	status := req.Status
	if status == "" {
		status = task.StatusTodo
	}
	if err := checkEditableStatus(status); err != nil {
		return View{}, err
	}

	now := b.clock.Now()
	t := &task.Task{
		ID:        uuid.NewString(),
		Name:      name,
		Status:    status,
		Notes:     req.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, c := range req.Columns {
		t.SetColumn(c.Name, c.Value)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.tasks = append(b.tasks, t)
	b.rows[t.ID] = &row{}
	b.persistLocked(b.tasks)
	return b.viewLocked(t), nil
}

// Update edits a task and saves. Editing elapsed time of a running task
// rebases its timer.
func (b *Board) Update(id string, req UpdateRequest) (View, error) {
	var elapsed *int64
	if req.Elapsed != nil {
		ms, err := timefmt.ParseElapsed(*req.Elapsed)
		if err != nil {
			return View{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		if ms < 0 {
			return View{}, fmt.Errorf("%w: negative elapsed time", ErrInvalidInput)
		}
		elapsed = &ms
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return View{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if req.Status != nil {
		if err := checkEditableStatus(*req.Status); err != nil {
			return View{}, err
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	t, err := b.findLocked(id)
	if err != nil {
		return View{}, err
	}

	running := b.engine.IsRunning(id)
	if req.Status != nil && running && *req.Status != task.StatusDone {
		return View{}, fmt.Errorf("%w: stop the timer before setting %s", ErrTimerRunning, *req.Status)
	}

	if req.Name != nil {
		t.Name = strings.TrimSpace(*req.Name)
	}
	if req.Notes != nil {
		t.Notes = *req.Notes
	}
	if req.Status != nil {
		t.Status = *req.Status
		b.rowStatusLocked(id, t.Status)
	}
	for _, c := range req.Columns {
		t.SetColumn(c.Name, c.Value)
	}
	if elapsed != nil {
		b.setElapsedLocked(t, *elapsed)
	}
	t.UpdatedAt = b.clock.Now()

	b.persistLocked(b.tasks)
	return b.viewLocked(t), nil
}

// SetElapsed replaces a task's elapsed time, rebasing a running timer.
func (b *Board) SetElapsed(id string, ms int64) (View, error) {
	if ms < 0 {
		return View{}, fmt.Errorf("%w: negative elapsed time", ErrInvalidInput)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	t, err := b.findLocked(id)
	if err != nil {
		return View{}, err
	}
	b.setElapsedLocked(t, ms)
	t.UpdatedAt = b.clock.Now()
	b.persistLocked(b.tasks)
	return b.viewLocked(t), nil
}

func (b *Board) setElapsedLocked(t *task.Task, ms int64) {
	b.engine.SetBaseElapsedMs(t.ID, ms)
	t.ElapsedMs = ms
}

// Delete removes a task and its timer, then saves.
func (b *Board) Delete(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, t := range b.tasks {
		if t.ID != id {
			continue
		}
		b.engine.Forget(id)
		b.tasks = append(b.tasks[:i], b.tasks[i+1:]...)
		delete(b.rows, id)
		b.persistLocked(b.tasks)
		return nil
	}
	return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
}

// Toggle starts or stops a task's timer. Toggling a done task does nothing.
func (b *Board) Toggle(id string) (View, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, err := b.findLocked(id)
	if err != nil {
		return View{}, err
	}
	if _, err := b.engine.Toggle(id); err != nil {
		return View{}, fmt.Errorf("toggling timer: %w", err)
	}
	return b.viewLocked(t), nil
}

// ClearTimerState stops a task's timer if it runs and zeroes its elapsed time.
func (b *Board) ClearTimerState(id string) (View, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, err := b.findLocked(id)
	if err != nil {
		return View{}, err
	}
	if b.engine.IsRunning(id) {
		if _, err := b.engine.Toggle(id); err != nil {
			return View{}, fmt.Errorf("stopping timer: %w", err)
		}
	}
	t.ElapsedMs = 0
	t.UpdatedAt = b.clock.Now()
	b.persistLocked(b.tasks)
	return b.viewLocked(t), nil
}

// ClearTimerStates stops every timer and zeroes all elapsed times with one save.
func (b *Board) ClearTimerStates() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.engine.ClearAll()
	now := b.clock.Now()
	for _, t := range b.tasks {
		if t.ElapsedMs != 0 {
			t.ElapsedMs = 0
			t.UpdatedAt = now
		}
	}
	b.persistLocked(b.tasks)
}

// ClearAll deletes every task and removes all stored records.
func (b *Board) ClearAll(ctx context.Context) error {
	b.mu.Lock()
	b.engine.ClearAll()
	b.tasks = nil
	b.rows = make(map[string]*row)
	b.lastCommit = nil
	b.mu.Unlock()

	if err := b.store.Clear(ctx); err != nil {
		return fmt.Errorf("clearing stored tasks: %w", err)
	}
	return nil
}

// Flush waits for the most recent save to finish.
func (b *Board) Flush(ctx context.Context) error {
	b.mu.Lock()
	c := b.lastCommit
	b.mu.Unlock()
	if c == nil {
		return nil
	}
	return c.Wait(ctx)
}

// Teardown stops all timers, saves the final collection and closes the store.
func (b *Board) Teardown(ctx context.Context) error {
	b.mu.Lock()
	b.engine.ClearAll()
	b.persistLocked(b.tasks)
	c := b.lastCommit
	b.mu.Unlock()

	if err := b.store.Close(ctx); err != nil {
		return fmt.Errorf("closing store: %w", err)
	}
	if err := c.Wait(ctx); err != nil {
		return fmt.Errorf("final save: %w", err)
	}
	return nil
}

// IsVisible reports whether a row is inside the viewport.
func (b *Board) IsVisible(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, t := range b.tasks {
		if i >= b.opts.ViewportRows {
			return false
		}
		if t.ID == id {
			return true
		}
	}
	return false
}

// Render stores the displayed elapsed text of running rows.
func (b *Board) Render(updates map[string]int64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ms := range updates {
		if r, ok := b.rows[id]; ok {
			r.elapsedText = timefmt.FormatElapsed(ms)
		}
	}
}

func (b *Board) persistLocked(tasks []*task.Task) {
	c := b.store.SaveTasks(task.Snapshot(tasks))
	b.lastCommit = c
	go func() {
		<-c.Done()
		if err := c.Err(); err != nil {
			b.logger.Error("task save failed", "error", err)
		}
	}()
}

func (b *Board) rowStatusLocked(id string, status task.Status) {
	b.logger.Debug("row status changed", "task_id", id, "status", status)
}

func (b *Board) rowRunningLocked(id string, running bool) {
	r, ok := b.rows[id]
	if !ok {
		return
	}
	r.running = running
	if !running {
		r.elapsedText = ""
	}
}

func (b *Board) findLocked(id string) (*task.Task, error) {
	for _, t := range b.tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
}

func (b *Board) viewLocked(t *task.Task) View {
	live := b.engine.CurrentElapsed(t.ID)
	v := View{
		Task:          t.Clone(),
		Running:       b.engine.IsRunning(t.ID),
		LiveElapsedMs: live,
		Display:       timefmt.FormatElapsed(live),
	}
	if r, ok := b.rows[t.ID]; ok && r.running && r.elapsedText != "" {
		v.Display = r.elapsedText
	}
	return v
}

func checkEditableStatus(s task.Status) error {
	if !s.Valid() {
		return fmt.Errorf("%w: %v", ErrInvalidInput, fmt.Errorf("%w: %q", task.ErrInvalidStatus, s))
	}
	if s == task.StatusInProgress {
		return fmt.Errorf("%w: in-progress is set by starting the timer", ErrInvalidInput)
	}
	return nil
}
