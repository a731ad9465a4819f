package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/tasktimer/internal/board"
	"github.com/rpggio/tasktimer/internal/chunkstore"
	"github.com/rpggio/tasktimer/internal/timer"
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MapError maps domain errors to MCP error codes.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, board.ErrTaskNotFound), errors.Is(err, timer.ErrTaskNotFound):
		return &APIError{Code: "TASK_NOT_FOUND", Message: "task not found", Details: err.Error(), RecoveryHint: "Call list_tasks for current ids"}
	case errors.Is(err, board.ErrTimerRunning):
		return &APIError{Code: "TIMER_RUNNING", Message: "timer is running", Details: err.Error(), RecoveryHint: "Call toggle_timer to stop it first"}
	case errors.Is(err, board.ErrInvalidInput):
		return &APIError{Code: "INVALID_INPUT", Message: "invalid input", Details: err.Error()}
	case errors.Is(err, chunkstore.ErrWriteQuotaExceeded):
		return &APIError{Code: "QUOTA_EXCEEDED", Message: "storage quota exceeded", Details: err.Error(), RecoveryHint: "Retry later or delete tasks"}
	case errors.Is(err, chunkstore.ErrWriteTransport):
		return &APIError{Code: "STORAGE_ERROR", Message: "storage write failed", Details: err.Error()}
	case errors.Is(err, chunkstore.ErrClosed):
		return &APIError{Code: "SHUTTING_DOWN", Message: "store is closed"}
	default:
		return nil
	}
}

func mapError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}
