package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/rpggio/tasktimer/internal/board"
	"github.com/rpggio/tasktimer/internal/chunkstore"
	"github.com/rpggio/tasktimer/internal/clock"
	"github.com/rpggio/tasktimer/internal/config"
	"github.com/rpggio/tasktimer/internal/kv"
	"github.com/rpggio/tasktimer/internal/sqlite"
	"github.com/rpggio/tasktimer/internal/timefmt"
)

// app is one opened task board and the storage stack under it.
type app struct {
	logger *slog.Logger
	db     *sqlite.DB
	store  *chunkstore.Store
	board  *board.Board
}

func openApp(ctx context.Context, cfg config.Config, clk clock.Clock, logger *slog.Logger) (*app, error) {
	if err := ensureDBDir(cfg.DB.Path); err != nil {
		return nil, fmt.Errorf("prepare database path: %w", err)
	}

	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	backing := kv.NewQuota(sqlite.NewKVStore(db), kv.QuotaOptions{
		MaxRecordBytes:     cfg.Quota.MaxRecordBytes,
		MaxWritesPerMinute: cfg.Quota.MaxWritesPerMinute,
	})
	store := chunkstore.New(backing, chunkstore.Options{
		WriteThrottle:      time.Duration(cfg.Storage.WriteThrottleMs) * time.Millisecond,
		MaxWritesPerMinute: cfg.Storage.MaxWritesPerMinute,
		TargetChunkBytes:   cfg.Storage.TargetChunkBytes,
		MaxRetries:         cfg.Storage.MaxRetries,
	}, logger)
	b := board.New(store, clk, board.Options{ViewportRows: cfg.Refresh.ViewportRows}, logger)

	a := &app{logger: logger, db: db, store: store, board: b}
	if err := b.Hydrate(ctx); err != nil {
		a.close(ctx, false)
		return nil, err
	}
	return a, nil
}

// close shuts the store down. With teardown set, running timers are stopped
// and the final collection is saved first.
func (a *app) close(ctx context.Context, teardown bool) error {
	var errs []error
	if teardown {
		errs = append(errs, a.board.Teardown(ctx))
	} else {
		errs = append(errs, a.store.Close(ctx))
	}
	errs = append(errs, a.db.Close())
	return errors.Join(errs...)
}

func runList(ctx context.Context, cfg config.Config, logger *slog.Logger, out io.Writer) error {
	a, err := openApp(ctx, cfg, clock.Real{}, logger)
	if err != nil {
		return err
	}
	defer a.close(context.Background(), false)

	tasks := a.board.List()
	if len(tasks) == 0 {
		fmt.Fprintln(out, "no tasks")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tELAPSED\tNAME")
	var total int64
	for _, v := range tasks {
		total += v.ElapsedMs
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", v.ID, v.Status, timefmt.FormatElapsed(v.ElapsedMs), v.Name)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "%d tasks, %s total\n", len(tasks), timefmt.FormatCompact(total))
	return nil
}

func runClear(ctx context.Context, cfg config.Config, logger *slog.Logger, out io.Writer) error {
	a, err := openApp(ctx, cfg, clock.Real{}, logger)
	if err != nil {
		return err
	}
	defer a.close(context.Background(), false)

	n := len(a.board.List())
	if err := a.board.ClearAll(ctx); err != nil {
		return err
	}
	fmt.Fprintf(out, "cleared %d tasks\n", n)
	return nil
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
