package timer_test

import (
	"testing"
	"time"

	"github.com/rpggio/tasktimer/internal/clock"
	"github.com/rpggio/tasktimer/internal/domain/task"
	"github.com/rpggio/tasktimer/internal/timer"
	"github.com/stretchr/testify/require"
)

type harness struct {
	clock    *clock.Manual
	tasks    []*task.Task
	saves    int
	statuses map[string]task.Status
	buttons  map[string]bool
	engine   *timer.Engine
}

func newHarness(tasks ...*task.Task) *harness {
	h := &harness{
		clock:    clock.NewManual(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)),
		tasks:    tasks,
		statuses: map[string]task.Status{},
		buttons:  map[string]bool{},
	}
	h.engine = timer.NewEngine(h.clock, timer.Callbacks{
		GetTasks:                  func() []*task.Task { return h.tasks },
		SaveTasks:                 func([]*task.Task) { h.saves++ },
		OnRowStatusChanged:        func(id string, s task.Status) { h.statuses[id] = s },
		OnTimerButtonStateChanged: func(id string, running bool) { h.buttons[id] = running },
	}, nil)
	return h
}

func TestEngine_StartStopAccumulates(t *testing.T) {
	t1 := &task.Task{ID: "t1", Status: task.StatusTodo}
	h := newHarness(t1)

	running, err := h.engine.Toggle("t1")
	require.NoError(t, err)
	require.True(t, running)
	require.True(t, h.engine.IsRunning("t1"))
	require.Equal(t, task.StatusInProgress, t1.Status)
	require.Equal(t, task.StatusInProgress, h.statuses["t1"])
	require.True(t, h.buttons["t1"])
	require.Equal(t, 1, h.saves)

	h.clock.Advance(2000 * time.Millisecond)
	require.Equal(t, int64(2000), h.engine.CurrentElapsed("t1"))
	// The stored value is not touched while running.
	require.Zero(t, t1.ElapsedMs)

	running, err = h.engine.Toggle("t1")
	require.NoError(t, err)
	require.False(t, running)
	require.Equal(t, int64(2000), t1.ElapsedMs)
	require.Equal(t, task.StatusTodo, t1.Status)
	require.False(t, h.buttons["t1"])
	require.Equal(t, 2, h.saves)

	// Restart at t=5000 from base 2000, stop at t=7000.
	h.clock.Advance(3000 * time.Millisecond)
	_, err = h.engine.Toggle("t1")
	require.NoError(t, err)
	h.clock.Advance(2000 * time.Millisecond)
	_, err = h.engine.Toggle("t1")
	require.NoError(t, err)
	require.Equal(t, int64(4000), t1.ElapsedMs)
	require.Equal(t, int64(4000), h.engine.CurrentElapsed("t1"))
}

func TestEngine_RebaseWhileRunning(t *testing.T) {
	t1 := &task.Task{ID: "t1", Status: task.StatusTodo, ElapsedMs: 500}
	h := newHarness(t1)

	_, err := h.engine.Toggle("t1")
	require.NoError(t, err)
	h.clock.Advance(10 * time.Second)

	require.True(t, h.engine.SetBaseElapsedMs("t1", 60000))
	require.True(t, h.engine.IsRunning("t1"))
	require.Equal(t, 1, h.saves)
	require.Equal(t, int64(60000), h.engine.CurrentElapsed("t1"))

	h.clock.Advance(2000 * time.Millisecond)
	_, err = h.engine.Toggle("t1")
	require.NoError(t, err)
	require.Equal(t, int64(62000), t1.ElapsedMs)
}

func TestEngine_RebaseWhenStopped(t *testing.T) {
	t1 := &task.Task{ID: "t1", Status: task.StatusTodo}
	h := newHarness(t1)
	require.False(t, h.engine.SetBaseElapsedMs("t1", 1000))
	require.Zero(t, t1.ElapsedMs)
}

func TestEngine_DoneTaskToggleIsNoop(t *testing.T) {
	t1 := &task.Task{ID: "t1", Status: task.StatusDone, ElapsedMs: 42}
	h := newHarness(t1)

	running, err := h.engine.Toggle("t1")
	require.NoError(t, err)
	require.False(t, running)
	require.False(t, h.engine.IsRunning("t1"))
	require.Equal(t, task.StatusDone, t1.Status)
	require.Zero(t, h.saves)
	require.Empty(t, h.statuses)
	require.Empty(t, h.buttons)
	require.Equal(t, int64(42), h.engine.CurrentElapsed("t1"))
}

func TestEngine_DoneWinsOnStop(t *testing.T) {
	t1 := &task.Task{ID: "t1", Status: task.StatusTodo}
	h := newHarness(t1)

	_, err := h.engine.Toggle("t1")
	require.NoError(t, err)
	t1.Status = task.StatusDone
	h.clock.Advance(time.Second)

	_, err = h.engine.Toggle("t1")
	require.NoError(t, err)
	require.Equal(t, task.StatusDone, t1.Status)
	require.Equal(t, int64(1000), t1.ElapsedMs)
}

func TestEngine_InProgressWithoutTimerStopsAsTodo(t *testing.T) {
	t1 := &task.Task{ID: "t1", Status: task.StatusInProgress}
	h := newHarness(t1)

	_, err := h.engine.Toggle("t1")
	require.NoError(t, err)
	_, err = h.engine.Toggle("t1")
	require.NoError(t, err)
	require.Equal(t, task.StatusTodo, t1.Status)
}

func TestEngine_UnknownTask(t *testing.T) {
	h := newHarness()
	_, err := h.engine.Toggle("missing")
	require.ErrorIs(t, err, timer.ErrTaskNotFound)
	require.Zero(t, h.engine.CurrentElapsed("missing"))
}

func TestEngine_ClearAllStopsWithoutSaving(t *testing.T) {
	t1 := &task.Task{ID: "t1", Status: task.StatusTodo}
	t2 := &task.Task{ID: "t2", Status: task.StatusTodo, ElapsedMs: 100}
	t3 := &task.Task{ID: "t3", Status: task.StatusTodo}
	h := newHarness(t1, t2, t3)

	_, err := h.engine.Toggle("t1")
	require.NoError(t, err)
	_, err = h.engine.Toggle("t2")
	require.NoError(t, err)
	require.Equal(t, []string{"t1", "t2"}, h.engine.Running())
	savesBefore := h.saves

	h.clock.Advance(1500 * time.Millisecond)
	h.engine.ClearAll()

	require.Empty(t, h.engine.Running())
	require.Equal(t, savesBefore, h.saves)
	require.Equal(t, int64(1500), t1.ElapsedMs)
	require.Equal(t, int64(1600), t2.ElapsedMs)
	require.Equal(t, task.StatusTodo, t1.Status)
	require.False(t, h.buttons["t2"])
}

func TestEngine_Forget(t *testing.T) {
	t1 := &task.Task{ID: "t1", Status: task.StatusTodo}
	h := newHarness(t1)

	_, err := h.engine.Toggle("t1")
	require.NoError(t, err)
	h.engine.Forget("t1")
	require.False(t, h.engine.IsRunning("t1"))
	require.Equal(t, task.StatusInProgress, t1.Status)
}

func TestEngine_RealClock(t *testing.T) {
	t1 := &task.Task{ID: "t1", Status: task.StatusTodo}
	e := timer.NewEngine(nil, timer.Callbacks{
		GetTasks: func() []*task.Task { return []*task.Task{t1} },
	}, nil)

	_, err := e.Toggle("t1")
	require.NoError(t, err)
	time.Sleep(30 * time.Millisecond)
	require.GreaterOrEqual(t, e.CurrentElapsed("t1"), int64(30))
}
