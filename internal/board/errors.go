package board

import "errors"

var (
	// ErrTaskNotFound indicates the task doesn't exist.
	ErrTaskNotFound = errors.New("task not found")
	// ErrInvalidInput indicates invalid task input.
	ErrInvalidInput = errors.New("invalid task input")
	// ErrTimerRunning indicates the change is not allowed while the task's timer runs.
	ErrTimerRunning = errors.New("task timer is running")
)
