package app

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"weave/internal/core/watcher"
	"weave/internal/shared/observability"
)

// StartWatcher rebuilds whenever a source under the project root, or under
// the entry's and stdlib's directories, changes. It returns once watching
// has begun; ctx ends pending rebuild waits.
func (a *App) StartWatcher(ctx context.Context) error {
	w, err := watcher.New(a.Config.Watch.Debounce, a.Config.Watch.ExcludeDirs, a.HandleChanges)
	if err != nil {
		return err
	}

	roots := []string{a.Paths.Root, filepath.Dir(a.Paths.Entry)}
	if a.Paths.Stdlib != "" {
		roots = append(roots, filepath.Dir(a.Paths.Stdlib))
	}
	a.watchCtx = ctx
	a.activeWatcher = w
	return w.Watch(uniqueRoots(roots))
}

// HandleChanges rebuilds once for a batch of changed paths, waiting on the
// rebuild limiter first.
func (a *App) HandleChanges(paths []string) {
	ctx := a.watchCtx
	if ctx == nil {
		ctx = context.Background()
	}
	slog.Info("detected changes", "count", len(paths))

	if delay := a.limiter.Delay(); delay > 0 {
		observability.RebuildsThrottledTotal.Inc()
		slog.Debug("rebuild throttled", "delay", delay)
	}
	if err := a.limiter.Wait(ctx); err != nil {
		return
	}

	if _, err := a.build(ctx, paths); err != nil {
		slog.Error("rebuild failed", "error", err)
	}
}

// uniqueRoots drops duplicates and roots nested under another root.
func uniqueRoots(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, candidate := range paths {
		candidate = filepath.Clean(candidate)
		covered := false
		for i, existing := range out {
			if isWithin(candidate, existing) {
				covered = true
				break
			}
			if isWithin(existing, candidate) {
				out[i] = candidate
				covered = true
				break
			}
		}
		if !covered {
			out = append(out, candidate)
		}
	}
	return out
}

func isWithin(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
