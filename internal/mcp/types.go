package mcp

import (
	"time"

	"github.com/rpggio/tasktimer/internal/board"
	"github.com/rpggio/tasktimer/internal/domain/task"
)

// ToolDefinition describes one tool and its JSON input schema.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

type ListTasksParams struct {
	Status      task.Status `json:"status,omitempty"`
	RunningOnly bool        `json:"running_only,omitempty"`
}

type GetTaskParams struct {
	ID string `json:"id"`
}

type AddTaskParams struct {
	Name    string            `json:"name"`
	Notes   string            `json:"notes,omitempty"`
	Status  task.Status       `json:"status,omitempty"`
	Columns map[string]string `json:"columns,omitempty"`
}

type UpdateTaskParams struct {
	ID      string            `json:"id"`
	Name    *string           `json:"name,omitempty"`
	Notes   *string           `json:"notes,omitempty"`
	Status  *task.Status      `json:"status,omitempty"`
	Elapsed *string           `json:"elapsed,omitempty"`
	Columns map[string]string `json:"columns,omitempty"`
}

type DeleteTaskParams struct {
	ID string `json:"id"`
}

type ToggleTimerParams struct {
	ID string `json:"id"`
}

type SetElapsedParams struct {
	ID        string `json:"id"`
	Elapsed   string `json:"elapsed,omitempty"`
	ElapsedMs *int64 `json:"elapsed_ms,omitempty"`
}

type ClearTimerParams struct {
	ID string `json:"id,omitempty"`
}

type ClearTasksParams struct {
	Confirm bool `json:"confirm"`
}

type TaskResponse struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Status    task.Status       `json:"status"`
	Notes     string            `json:"notes,omitempty"`
	ElapsedMs int64             `json:"elapsed_ms"`
	Elapsed   string            `json:"elapsed"`
	Running   bool              `json:"running"`
	Columns   map[string]string `json:"columns,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

type ListTasksResponse struct {
	Tasks   []TaskResponse `json:"tasks"`
	Total   int            `json:"total"`
	Running int            `json:"running"`
}

type DeleteTaskResponse struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

type ClearResponse struct {
	Cleared int `json:"cleared"`
}

func toTaskResponse(v board.View) TaskResponse {
	resp := TaskResponse{
		ID:        v.ID,
		Name:      v.Name,
		Status:    v.Status,
		Notes:     v.Notes,
		ElapsedMs: v.LiveElapsedMs,
		Elapsed:   v.Display,
		Running:   v.Running,
		CreatedAt: v.CreatedAt,
		UpdatedAt: v.UpdatedAt,
	}
	if len(v.Columns) > 0 {
		resp.Columns = make(map[string]string, len(v.Columns))
		for _, c := range v.Columns {
			resp.Columns[c.Name] = c.Value
		}
	}
	return resp
}
