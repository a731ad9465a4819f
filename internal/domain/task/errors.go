package task

import "errors"

// ErrInvalidStatus indicates a status outside todo, in-progress, done.
var ErrInvalidStatus = errors.New("invalid task status")
