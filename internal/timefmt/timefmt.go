// Package timefmt formats and parses stopwatch durations.
package timefmt

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidElapsed is returned for text that is not a duration.
var ErrInvalidElapsed = errors.New("invalid elapsed time")

// MaxSeconds is the largest elapsed time, in seconds, that fits in
// milliseconds as an int64.
const MaxSeconds = math.MaxInt64 / 1000

// FormatElapsed renders milliseconds as H:MM:SS. Hours are not capped.
func FormatElapsed(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	total := ms / 1000
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}

// FormatCompact renders milliseconds as "1h 02m", "3m 04s" or "5s".
func FormatCompact(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	total := ms / 1000
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %02dm", h, m)
	case m > 0:
		return fmt.Sprintf("%dm %02ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

// ParseElapsed accepts H:MM:SS, MM:SS, plain seconds, or a Go duration
// string such as "1h30m", and returns milliseconds.
func ParseElapsed(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidElapsed)
	}

	if strings.Contains(s, ":") {
		return parseClock(s)
	}

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("%w: negative %q", ErrInvalidElapsed, s)
		}
		if n > MaxSeconds {
			return 0, fmt.Errorf("%w: too large %q", ErrInvalidElapsed, s)
		}
		return n * 1000, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidElapsed, s)
	}
	if d < 0 {
		return 0, fmt.Errorf("%w: negative %q", ErrInvalidElapsed, s)
	}
	return d.Milliseconds(), nil
}

func parseClock(s string) (int64, error) {
	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidElapsed, s)
	}

	var total int64
	for i, p := range parts {
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidElapsed, s)
		}
		// Minutes and seconds after the leading field must be below 60.
		if i > 0 && n >= 60 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidElapsed, s)
		}
		if n > MaxSeconds || total > (MaxSeconds-n)/60 {
			return 0, fmt.Errorf("%w: too large %q", ErrInvalidElapsed, s)
		}
		total = total*60 + n
	}
	return total * 1000, nil
}
