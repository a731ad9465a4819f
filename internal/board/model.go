package board

import "github.com/rpggio/tasktimer/internal/domain/task"

// View is a task as presented to callers, with live timer state.
type View struct {
	task.Task
	Running       bool   `json:"running"`
	LiveElapsedMs int64  `json:"liveElapsedMs"`
	Display       string `json:"display"`
}

// AddRequest describes a new task.
type AddRequest struct {
	Name    string
	Notes   string
	Status  task.Status
	Columns []task.Column
}

// UpdateRequest describes a task edit. Nil fields are left unchanged.
type UpdateRequest struct {
	Name    *string
	Notes   *string
	Status  *task.Status
	Elapsed *string
	Columns []task.Column
}

// row is the rendered state of one task row.
type row struct {
	running     bool
	elapsedText string
}
