package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	coreapp "weave/internal/core/app"
	"weave/internal/core/config"
	"weave/internal/shared/observability"
)

func Run(args []string) int {
	return run(args, os.Stdout, os.Stderr)
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseOptions(args)
	if err != nil {
		return 2
	}

	if opts.version {
		fmt.Fprintf(stdout, "weave v%s\n", versionString)
		return 0
	}

	configureLogging(stderr, opts.verbose)

	cfg, cfgPath, err := loadConfig(opts.configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}
	config.ApplyEnvOverrides(cfg)
	if err := applyFlagOverrides(opts, cfg); err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}
	if errs := config.Validate(cfg); len(errs) > 0 {
		for _, err := range errs {
			slog.Error("invalid config", "error", err)
		}
		return 1
	}
	root := filepath.Dir(cfgPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Observability.OTLPEndpoint != "" {
		shutdown, err := observability.InitTracing(ctx, cfg.Observability.OTLPEndpoint, versionString)
		if err != nil {
			slog.Error("failed to initialize tracing", "error", err)
			return 1
		}
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(flushCtx); err != nil {
				slog.Warn("failed to flush traces", "error", err)
			}
		}()
	}

	app, err := coreapp.New(cfg, root)
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		return 1
	}
	defer app.Close()

	if opts.demangle >= 0 {
		return runDemangle(app, opts, stdout, stderr)
	}

	res, err := app.Build(ctx)
	if err != nil {
		fmt.Fprintln(stderr, renderError(err))
		if !opts.watch {
			return 1
		}
	} else {
		fmt.Fprintln(stdout, renderBuild(app.Paths, res))
	}

	if !opts.watch {
		return 0
	}
	return runWatch(ctx, app, cfg, stdout, stderr)
}

func runDemangle(app *coreapp.App, opts cliOptions, stdout, stderr io.Writer) int {
	entry, err := app.Demangle(opts.buildID, opts.demangle)
	if err != nil {
		fmt.Fprintln(stderr, renderError(err))
		return 1
	}
	fmt.Fprintf(stdout, "%d\t%s\t%s\n", entry.Code, entry.String(), entry.Kind)
	return 0
}

func runWatch(ctx context.Context, app *coreapp.App, cfg *config.Config, stdout, stderr io.Writer) int {
	if addr := cfg.Observability.MetricsAddr; addr != "" {
		server := NewObservabilityServer(addr, coreapp.NewHealthService(app))
		if err := server.Start(ctx); err != nil {
			slog.Error("failed to start observability server", "error", err)
			return 1
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Stop(stopCtx)
		}()
	}

	app.SetUpdateHandler(func(u coreapp.Update) {
		if u.Err != nil {
			fmt.Fprintln(stderr, renderError(u.Err))
			return
		}
		fmt.Fprintln(stdout, renderUpdate(u))
	})
	if err := app.StartWatcher(ctx); err != nil {
		slog.Error("failed to start watcher", "error", err)
		return 1
	}
	slog.Info("watching for changes", "root", app.Paths.Root)

	<-ctx.Done()
	return 0
}

// loadConfig reads the file at path. The default path may be absent, in
// which case the defaults apply relative to the working directory.
func loadConfig(path string) (*config.Config, string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, "", err
	}
	if path != defaultConfigPath {
		cfg, err := config.Load(abs)
		if err != nil {
			return nil, "", err
		}
		return cfg, abs, nil
	}
	cfg, err := config.LoadOrDefault(abs)
	if err != nil {
		return nil, "", err
	}
	return cfg, abs, nil
}

func applyFlagOverrides(opts cliOptions, cfg *config.Config) error {
	if len(opts.args) > 1 {
		return fmt.Errorf("at most one entry file may be given, got %d", len(opts.args))
	}
	if len(opts.args) == 1 {
		cfg.Entry = opts.args[0]
	}
	if opts.demangle >= 0 && opts.watch {
		return errors.New("--demangle cannot be combined with --watch")
	}
	if opts.set["build-id"] && opts.demangle < 0 {
		return errors.New("--build-id requires --demangle")
	}

	if opts.set["out"] {
		cfg.Output.Path = opts.out
	}
	if opts.set["disasm"] {
		cfg.Output.Disasm = opts.disasm
	}
	if opts.set["stdlib"] {
		cfg.Stdlib = opts.stdlib
	}
	if opts.set["mangle"] {
		cfg.Build.Mangle = opts.mangle
	}
	if opts.set["dce"] {
		cfg.Build.RemoveDeadCode = opts.removeDeadCode
	}
	if opts.set["enum-lookup"] {
		enabled := opts.enumLookup
		cfg.Build.IncludeEnumLookup = &enabled
	}
	if opts.set["prune-limit"] {
		cfg.Build.PrunePassLimit = opts.prunePassLimit
	}
	if opts.set["analyse-ast"] {
		cfg.Build.AnalyseAst = opts.analyseAst
	}
	if opts.set["analyse-symbols"] {
		cfg.Build.AnalyseSymbols = opts.analyseSymbols
	}
	if opts.set["retain"] {
		cfg.Build.Retain = append(cfg.Build.Retain, splitPatterns(opts.retain)...)
	}
	if opts.set["metrics-addr"] {
		cfg.Observability.MetricsAddr = opts.metricsAddr
	}
	if opts.set["otlp-endpoint"] {
		cfg.Observability.OTLPEndpoint = opts.otlpEndpoint
	}
	// Demangling reads the map written by mangled builds.
	if opts.demangle >= 0 {
		cfg.Build.Mangle = true
	}
	return nil
}

func configureLogging(output io.Writer, verbose bool) {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
}
