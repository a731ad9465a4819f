package timer

import (
	"context"
	"sync"
	"time"
)

const (
	// DefaultFrameInterval approximates one animation frame.
	DefaultFrameInterval = 16 * time.Millisecond
	// DefaultHiddenInterval is the refresh rate of rows that are off screen.
	DefaultHiddenInterval = time.Second
)

// Display receives batched elapsed-time updates for running timers.
type Display interface {
	IsVisible(id string) bool
	Render(updates map[string]int64)
}

// RefreshOptions configures a Refresher. Zero values select the defaults.
type RefreshOptions struct {
	FrameInterval  time.Duration
	HiddenInterval time.Duration
}

// Refresher periodically pushes live elapsed values of running timers to a
// Display. Visible rows update every frame, hidden rows once per
// HiddenInterval.
type Refresher struct {
	engine  *Engine
	display Display
	opts    RefreshOptions

	mu         sync.Mutex
	lastHidden map[string]time.Time
}

// NewRefresher creates a Refresher for engine.
func NewRefresher(engine *Engine, display Display, opts RefreshOptions) *Refresher {
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = DefaultFrameInterval
	}
	if opts.HiddenInterval <= 0 {
		opts.HiddenInterval = DefaultHiddenInterval
	}
	return &Refresher{
		engine:     engine,
		display:    display,
		opts:       opts,
		lastHidden: make(map[string]time.Time),
	}
}

// Run refreshes once per frame until ctx is done.
func (r *Refresher) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.opts.FrameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			r.Tick(now)
		}
	}
}

// Tick performs one refresh pass and returns the number of rows rendered.
func (r *Refresher) Tick(now time.Time) int {
	elapsed := r.engine.RunningElapsed()

	r.mu.Lock()
	for id := range r.lastHidden {
		if _, ok := elapsed[id]; !ok {
			delete(r.lastHidden, id)
		}
	}

	updates := make(map[string]int64, len(elapsed))
	for id, ms := range elapsed {
		if r.display.IsVisible(id) {
			updates[id] = ms
			delete(r.lastHidden, id)
			continue
		}
		if last, ok := r.lastHidden[id]; ok && now.Sub(last) < r.opts.HiddenInterval {
			continue
		}
		r.lastHidden[id] = now
		updates[id] = ms
	}
	r.mu.Unlock()

	if len(updates) > 0 {
		r.display.Render(updates)
	}
	return len(updates)
}
