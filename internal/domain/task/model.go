package task

import (
	"fmt"
	"time"
)

// Status represents the workflow status of a task
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusDone       Status = "done"
)

// ParseStatus validates a status string.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusTodo, StatusInProgress, StatusDone:
		return Status(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	_, err := ParseStatus(string(s))
	return err == nil
}

// Column is an extra named value carried over from imported data.
type Column struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Task is one entry of the user's task list
type Task struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Status    Status    `json:"status"`
	Notes     string    `json:"notes"`
	ElapsedMs int64     `json:"elapsedMs"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Columns   []Column  `json:"additionalColumns"`
}

// Clone returns a copy that shares no mutable state with t.
func (t Task) Clone() Task {
	if t.Columns != nil {
		cols := make([]Column, len(t.Columns))
		copy(cols, t.Columns)
		t.Columns = cols
	}
	return t
}

// Column returns the value of the named extra column.
func (t *Task) Column(name string) (string, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c.Value, true
		}
	}
	return "", false
}

// SetColumn sets a column value, appending it if the name is new so the
// original column order is kept.
func (t *Task) SetColumn(name, value string) {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			t.Columns[i].Value = value
			return
		}
	}
	t.Columns = append(t.Columns, Column{Name: name, Value: value})
}

// Snapshot copies a collection of task pointers into values.
func Snapshot(tasks []*Task) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if t == nil {
			continue
		}
		out = append(out, t.Clone())
	}
	return out
}
