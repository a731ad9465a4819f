package timer

import "errors"

var (
	// ErrTaskNotFound indicates the task id is not in the collection.
	ErrTaskNotFound = errors.New("task not found")
	// ErrInvalidTransition marks a start request on a done task. Toggle
	// ignores it rather than returning it.
	ErrInvalidTransition = errors.New("invalid timer transition")
)
