package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/rpggio/tasktimer/internal/board"
	"github.com/rpggio/tasktimer/internal/domain/task"
)

// BoardService defines the task operations needed by MCP.
type BoardService interface {
	List() []board.View
	Get(id string) (board.View, error)
	Add(req board.AddRequest) (board.View, error)
	Update(id string, req board.UpdateRequest) (board.View, error)
	Delete(id string) error
	Toggle(id string) (board.View, error)
	SetElapsed(id string, ms int64) (board.View, error)
	ClearTimerState(id string) (board.View, error)
	ClearTimerStates()
	ClearAll(ctx context.Context) error
}

// Handler dispatches MCP tool calls.
type Handler struct {
	board BoardService
}

// NewHandler creates a new MCP handler.
func NewHandler(b BoardService) *Handler {
	return &Handler{board: b}
}

// Handle dispatches a tool call to the board.
func (h *Handler) Handle(ctx context.Context, method string, params json.RawMessage) (any, error) {
	switch method {
	case "list_tasks":
		var req ListTasksParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if req.Status != "" && !req.Status.Valid() {
			return nil, mapError(fmt.Errorf("%w: unknown status %q", board.ErrInvalidInput, req.Status))
		}
		resp := ListTasksResponse{Tasks: []TaskResponse{}}
		for _, v := range h.board.List() {
			resp.Total++
			if v.Running {
				resp.Running++
			}
			if req.Status != "" && v.Status != req.Status {
				continue
			}
			if req.RunningOnly && !v.Running {
				continue
			}
			resp.Tasks = append(resp.Tasks, toTaskResponse(v))
		}
		return resp, nil
	case "get_task":
		var req GetTaskParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.view(h.board.Get(req.ID))
	case "add_task":
		var req AddTaskParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.view(h.board.Add(board.AddRequest{
			Name:    req.Name,
			Notes:   req.Notes,
			Status:  req.Status,
			Columns: columns(req.Columns),
		}))
	case "update_task":
		var req UpdateTaskParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.view(h.board.Update(req.ID, board.UpdateRequest{
			Name:    req.Name,
			Notes:   req.Notes,
			Status:  req.Status,
			Elapsed: req.Elapsed,
			Columns: columns(req.Columns),
		}))
	case "delete_task":
		var req DeleteTaskParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if err := h.board.Delete(req.ID); err != nil {
			return nil, mapError(err)
		}
		return DeleteTaskResponse{ID: req.ID, Deleted: true}, nil
	case "toggle_timer":
		var req ToggleTimerParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.view(h.board.Toggle(req.ID))
	case "set_elapsed":
		var req SetElapsedParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if req.ElapsedMs != nil {
			return h.view(h.board.SetElapsed(req.ID, *req.ElapsedMs))
		}
		if req.Elapsed == "" {
			return nil, mapError(fmt.Errorf("%w: elapsed or elapsed_ms is required", board.ErrInvalidInput))
		}
		return h.view(h.board.Update(req.ID, board.UpdateRequest{Elapsed: &req.Elapsed}))
	case "clear_timer":
		var req ClearTimerParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if req.ID != "" {
			return h.view(h.board.ClearTimerState(req.ID))
		}
		h.board.ClearTimerStates()
		return ClearResponse{Cleared: len(h.board.List())}, nil
	case "clear_tasks":
		var req ClearTasksParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if !req.Confirm {
			return nil, mapError(fmt.Errorf("%w: confirm must be true", board.ErrInvalidInput))
		}
		n := len(h.board.List())
		if err := h.board.ClearAll(ctx); err != nil {
			return nil, mapError(err)
		}
		return ClearResponse{Cleared: n}, nil
	default:
		return nil, fmt.Errorf("unknown method: %s", method)
	}
}

func (h *Handler) view(v board.View, err error) (any, error) {
	if err != nil {
		return nil, mapError(err)
	}
	return toTaskResponse(v), nil
}

func decodeParams(params json.RawMessage, out any) error {
	if len(params) == 0 {
		return nil
	}
	if err := json.Unmarshal(params, out); err != nil {
		return mapError(fmt.Errorf("%w: %v", board.ErrInvalidInput, err))
	}
	return nil
}

// columns converts a name to value map into columns ordered by name.
func columns(m map[string]string) []task.Column {
	if len(m) == 0 {
		return nil
	}
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	cols := make([]task.Column, 0, len(names))
	for _, name := range names {
		cols = append(cols, task.Column{Name: name, Value: m[name]})
	}
	return cols
}
