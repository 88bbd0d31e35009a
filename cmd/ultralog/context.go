package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ultralog/ultralog/internal/config"
	"github.com/ultralog/ultralog/pkg/core"
	"github.com/ultralog/ultralog/pkg/specs"
)

// CommandContext bundles what nearly every subcommand needs: the loaded
// configuration and a wired *core.Core.
type CommandContext struct {
	Cfg  *config.Config
	Core *core.Core
}

// NewCommandContext loads configuration from the current directory (or
// --config-dir, if set) and builds a Core backed by the embedded spec
// registry.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	dir := configDir
	if dir == "" {
		dir = "."
	}

	cfg, err := config.LoadFromDir(dir)
	if err != nil {
		return nil, err
	}

	logger := newLogger(logLevel)

	registry, err := specs.NewWithEmbedded(logger)
	if err != nil {
		return nil, err
	}

	c := core.New(core.Options{
		Registry:    registry,
		LibraryPath: cfg.LibraryPath(),
		MaxWorkers:  cfg.MaxWorkers,
		Logger:      logger,
	})
	if len(cfg.Overrides) > 0 {
		c.SetUserOverrides(cfg.Overrides)
	}

	return &CommandContext{Cfg: cfg, Core: c}, nil
}

// newLogger builds the stderr text-handler logger threaded through Core
// and everything it wires, at the level named by --log-level. An
// unrecognized level falls back to Warn, so a typo never turns a quiet
// command noisy.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
