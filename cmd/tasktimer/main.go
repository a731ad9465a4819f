package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/rpggio/tasktimer/internal/config"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var transport string

	rootCmd := &cobra.Command{
		Use:          "tasktimer",
		Short:        "Task list with per-task stopwatches.",
		Long:         `tasktimer keeps an ordered task list with a stopwatch per task, persisted as size-limited chunks in a local key-value store.`,
		SilenceUsage: true,
		Version:      version,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the task board as MCP tools.",
		Long:  `Runs the MCP server over stdio (default) or streamable HTTP. Timers run while the server is up; the final state is saved on shutdown.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			if transport != "" {
				cfg.Transport.Mode = transport
				if err := cfg.Validate(); err != nil {
					return err
				}
			}
			return runServe(cfg)
		},
	}
	serveCmd.Flags().StringVar(&transport, "transport", "", "Transport mode: stdio or http (overrides TASKTIMER_TRANSPORT).")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Print the persisted tasks.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			return runList(cmd.Context(), cfg, newLogger(cfg, cmd.ErrOrStderr()), cmd.OutOrStdout())
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every persisted task.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			return runClear(cmd.Context(), cfg, newLogger(cfg, cmd.ErrOrStderr()), cmd.OutOrStdout())
		},
	}

	rootCmd.AddCommand(serveCmd, listCmd, clearCmd)
	return rootCmd
}

func newLogger(cfg config.Config, w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
