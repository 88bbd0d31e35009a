// Package watch implements the background spec-bundle watcher feeding
// refresh_specs per spec §4.1: a directory of vendor-spec YAML files is
// watched for changes and re-published to the registry through a
// debounced reload, the same shape as the teacher's docs dev-server
// watch loop.
package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ultralog/ultralog/pkg/specs"
)

// Refresher is the subset of *core.Core this watcher depends on, kept
// narrow so this package never imports pkg/core.
type Refresher interface {
	RefreshSpecs(bundle specs.Bundle) error
}

// Watcher watches a directory of vendor-spec YAML files and republishes a
// parsed Bundle to a Refresher on every settled change.
type Watcher struct {
	dir      string
	refresh  Refresher
	debounce time.Duration
	log      *slog.Logger
}

// New returns a Watcher over dir. debounce, if zero, defaults to 200ms.
func New(dir string, refresh Refresher, debounce time.Duration, logger *slog.Logger) *Watcher {
	if debounce <= 0 {
		debounce = 200 * time.Millisecond
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Watcher{dir: dir, refresh: refresh, debounce: debounce, log: logger}
}

// Run watches until ctx is cancelled. It performs one initial load before
// watching, so a bundle present at startup is published without waiting
// for a filesystem event.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.reload(); err != nil {
		w.log.Warn("initial spec bundle load failed", "error", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return err
	}

	var debounceTimer *time.Timer
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isRelevant(event) {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(w.debounce, func() {
				if err := w.reload(); err != nil {
					w.log.Warn("spec bundle reload failed", "error", err)
				} else {
					w.log.Info("spec bundle reloaded", "dir", w.dir)
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watcher error", "error", err)
		}
	}
}

func isRelevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	ext := strings.ToLower(filepath.Ext(event.Name))
	return ext == ".yaml" || ext == ".yml"
}

func (w *Watcher) reload() error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return err
	}

	files := make(map[string][]byte)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(w.dir, entry.Name()))
		if err != nil {
			return err
		}
		files[entry.Name()] = raw
	}

	bundle, err := specs.ParseBundle(files)
	if err != nil {
		return err
	}
	return w.refresh.RefreshSpecs(bundle)
}
