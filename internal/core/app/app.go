package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"weave/internal/core/config"
	coreerrors "weave/internal/core/errors"
	"weave/internal/core/ports"
	"weave/internal/core/watcher"
	"weave/internal/data/symbolmap"
	"weave/internal/engine/linker"
	"weave/internal/engine/namespace"
	"weave/internal/shared/util"
)

// Update summarizes one finished build, successful or not.
type Update struct {
	BuildID    string
	Changed    []string
	Namespaces int
	Bytes      int
	Duration   time.Duration
	Err        error
}

// Dependencies lets callers replace the source loader and the name-map store.
type Dependencies struct {
	Loader      namespace.Loader
	SymbolStore ports.SymbolStore
}

type App struct {
	Config *config.Config
	Paths  config.ResolvedPaths

	builder ports.Builder
	symbols ports.SymbolStore
	limiter *util.Limiter

	buildMu sync.Mutex

	lastMu sync.RWMutex
	last   *Update

	updateMu sync.RWMutex
	onUpdate func(Update)

	activeWatcher *watcher.Watcher
	watchCtx      context.Context
}

var openSymbolStore = func(path string) (ports.SymbolStore, error) {
	return symbolmap.Open(path)
}

// New wires an App for the project rooted at root. The symbol map store is
// opened only when mangling is enabled, and closed again if wiring fails.
func New(cfg *config.Config, root string) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	deps := Dependencies{}
	if cfg.Build.Mangle {
		paths, err := config.ResolvePaths(cfg, root)
		if err != nil {
			return nil, err
		}
		store, err := openSymbolStore(paths.SymbolMap)
		if err != nil {
			return nil, err
		}
		deps.SymbolStore = store
	}
	app, err := NewWithDependencies(cfg, root, deps)
	if err != nil {
		if deps.SymbolStore != nil {
			if closeErr := deps.SymbolStore.Close(); closeErr != nil {
				slog.Warn("failed to close symbol map", "error", closeErr)
			}
		}
		return nil, err
	}
	return app, nil
}

func NewWithDependencies(cfg *config.Config, root string, deps Dependencies) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if errs := config.Validate(cfg); len(errs) > 0 {
		return nil, &coreerrors.DomainError{Code: coreerrors.CodeValidationError, Message: "invalid config", Err: errors.Join(errs...)}
	}
	paths, err := config.ResolvePaths(cfg, root)
	if err != nil {
		return nil, err
	}

	opts := cfg.LinkerOptions()
	opts.StdPath = paths.Stdlib

	return &App{
		Config:  cfg,
		Paths:   paths,
		builder: linker.New(deps.Loader, opts),
		symbols: deps.SymbolStore,
		limiter: util.NewLimiter(cfg.Watch.MaxRebuildsPerSecond, 1),
	}, nil
}

func (a *App) SetUpdateHandler(handler func(Update)) {
	a.updateMu.Lock()
	defer a.updateMu.Unlock()
	a.onUpdate = handler
}

// LastUpdate returns the most recent build outcome, if any build ran.
func (a *App) LastUpdate() (Update, bool) {
	a.lastMu.RLock()
	defer a.lastMu.RUnlock()
	if a.last == nil {
		return Update{}, false
	}
	return *a.last, true
}

// Build links the configured entry and writes every configured artifact.
// Builds never overlap.
func (a *App) Build(ctx context.Context) (*linker.Result, error) {
	return a.build(ctx, nil)
}

func (a *App) build(ctx context.Context, changed []string) (*linker.Result, error) {
	a.buildMu.Lock()
	defer a.buildMu.Unlock()

	start := time.Now()
	res, err := a.builder.Build(ctx, a.Paths.Entry)
	if err == nil {
		err = a.GenerateOutputs(res)
	}

	update := Update{Changed: changed, Duration: time.Since(start), Err: err}
	if res != nil {
		update.BuildID = res.BuildID
		update.Namespaces = len(res.Namespaces)
		update.Bytes = len(res.Code)
	}
	a.record(update)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (a *App) record(update Update) {
	a.lastMu.Lock()
	a.last = &update
	a.lastMu.Unlock()

	a.updateMu.RLock()
	handler := a.onUpdate
	a.updateMu.RUnlock()
	if handler != nil {
		handler(update)
	}
}

// Close stops the watcher and releases the symbol map store.
func (a *App) Close() error {
	var firstErr error
	if a.activeWatcher != nil {
		if err := a.activeWatcher.Close(); err != nil {
			firstErr = err
		}
		a.activeWatcher = nil
	}
	if a.symbols != nil {
		if err := a.symbols.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	slog.Debug("app closed")
	return firstErr
}
