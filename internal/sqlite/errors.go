package sqlite

import (
	"fmt"
	"strings"

	"github.com/rpggio/tasktimer/internal/kv"
)

func isFull(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "database or disk is full")
}

func mapWriteError(op string, err error) error {
	if isFull(err) {
		return fmt.Errorf("%s: %w: %v", op, kv.ErrQuotaExceeded, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
