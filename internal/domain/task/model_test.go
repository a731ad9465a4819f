package task_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/rpggio/tasktimer/internal/domain/task"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	for _, s := range []string{"todo", "in-progress", "done"} {
		st, err := task.ParseStatus(s)
		require.NoError(t, err)
		require.Equal(t, task.Status(s), st)
	}

	_, err := task.ParseStatus("blocked")
	require.ErrorIs(t, err, task.ErrInvalidStatus)
	require.False(t, task.Status("").Valid())
}

func TestTask_CloneIsIndependent(t *testing.T) {
	orig := task.Task{ID: "t1", Columns: []task.Column{{Name: "Owner", Value: "ana"}}}
	cp := orig.Clone()
	cp.SetColumn("Owner", "bo")

	v, ok := orig.Column("Owner")
	require.True(t, ok)
	require.Equal(t, "ana", v)
}

func TestTask_SetColumnKeepsOrder(t *testing.T) {
	var tk task.Task
	tk.SetColumn("B", "1")
	tk.SetColumn("A", "2")
	tk.SetColumn("B", "3")
	require.Equal(t, []task.Column{{Name: "B", Value: "3"}, {Name: "A", Value: "2"}}, tk.Columns)
}

func TestTask_JSONFieldNames(t *testing.T) {
	created := time.Date(2024, 3, 1, 9, 30, 0, 123456789, time.UTC)
	tk := task.Task{
		ID:        "t1",
		Name:      "Write report",
		Status:    task.StatusInProgress,
		ElapsedMs: 1500,
		CreatedAt: created,
		UpdatedAt: created,
		Columns:   []task.Column{{Name: "Priority", Value: "high"}},
	}
	data, err := json.Marshal(tk)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Equal(t, "in-progress", raw["status"])
	require.Equal(t, float64(1500), raw["elapsedMs"])
	require.Equal(t, "2024-03-01T09:30:00.123456789Z", raw["createdAt"])
	require.Contains(t, raw, "additionalColumns")
}

func TestTask_EmptyColumnsSurviveJSON(t *testing.T) {
	for _, cols := range [][]task.Column{nil, {}} {
		data, err := json.Marshal(task.Task{ID: "t1", Columns: cols})
		require.NoError(t, err)

		var got task.Task
		require.NoError(t, json.Unmarshal(data, &got))
		require.Equal(t, cols == nil, got.Columns == nil, "columns %#v", cols)
		require.Empty(t, got.Columns)
	}
}

func TestSnapshot_SkipsNil(t *testing.T) {
	a := &task.Task{ID: "a"}
	out := task.Snapshot([]*task.Task{a, nil})
	require.Len(t, out, 1)
	out[0].Name = "changed"
	require.Empty(t, a.Name)
}
