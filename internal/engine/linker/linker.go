package linker

import (
	"context"
	"log/slog"
	"time"

	coreerrors "weave/internal/core/errors"
	"weave/internal/engine/emit"
	"weave/internal/engine/namespace"
	"weave/internal/engine/source"
	"weave/internal/engine/stdlib"
	"weave/internal/engine/syntax"
	"weave/internal/shared/observability"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type Linker struct {
	loader namespace.Loader
	opts   Options
}

func New(loader namespace.Loader, opts Options) *Linker {
	if loader == nil {
		loader = OSLoader{}
	}
	return &Linker{loader: loader, opts: opts}
}

// build is the state of one invocation. Nothing outlives it.
type build struct {
	opts  Options
	nsCtx *namespace.Context
	trees map[*namespace.Namespace]*syntax.Tree
	order []*namespace.Namespace
}

// Build links the program rooted at entry. The build is all-or-nothing: on
// error no partial result is returned.
func (l *Linker) Build(ctx context.Context, entry string) (*Result, error) {
	buildID := uuid.NewString()
	ctx, span := observability.Tracer.Start(ctx, "linker.Build", trace.WithAttributes(
		attribute.String("weave.entry", entry),
		attribute.String("weave.build_id", buildID),
	))
	defer span.End()
	start := time.Now()

	res, err := l.run(ctx, buildID, entry)
	observability.BuildDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		observability.BuildsTotal.WithLabelValues("failed").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "build failed")
		return nil, err
	}
	observability.BuildsTotal.WithLabelValues("ok").Inc()
	observability.NamespacesTotal.Set(float64(len(res.Namespaces)))
	observability.OutputBytes.Set(float64(len(res.Code)))

	slog.Info("build complete",
		"build_id", buildID,
		"entry", entry,
		"namespaces", len(res.Namespaces),
		"prune_passes", res.PrunePasses,
		"bytes", len(res.Code),
		"duration", time.Since(start))
	return res, nil
}

func (l *Linker) run(ctx context.Context, buildID, entry string) (*Result, error) {
	nsCtx, err := namespace.NewContext(l.loader, l.opts.Retain)
	if err != nil {
		return nil, err
	}
	b := &build{
		opts:  l.opts,
		nsCtx: nsCtx,
		trees: make(map[*namespace.Namespace]*syntax.Tree),
	}
	res := &Result{BuildID: buildID}

	if err := phase(ctx, "discovery", func(ctx context.Context) error {
		return b.discover(ctx, entry)
	}); err != nil {
		return nil, err
	}

	if err := phase(ctx, "enums", func(context.Context) error {
		return nsCtx.AssignEnumValues()
	}); err != nil {
		return nil, err
	}

	if b.opts.Mangle {
		_ = phase(ctx, "mangle", func(context.Context) error {
			res.Symbols = nsCtx.Mangle(b.order)
			observability.MangledSymbols.Set(float64(len(res.Symbols)))
			return nil
		})
	}

	if err := phase(ctx, "analysis", b.analyze); err != nil {
		return nil, err
	}
	if err := phase(ctx, "link", b.link); err != nil {
		return nil, err
	}

	if b.opts.RemoveDeadCode {
		_ = phase(ctx, "prune", func(context.Context) error {
			res.PrunePasses = b.prune()
			observability.PrunePasses.Observe(float64(res.PrunePasses))
			return nil
		})
	}

	if b.opts.AnalyseAst || b.opts.AnalyseSymbols {
		res.Reports = b.reports()
	}

	if err := phase(ctx, "emit", func(context.Context) error {
		return b.emit(res)
	}); err != nil {
		return nil, err
	}
	return res, nil
}

// phase runs one global step of the pipeline under its own span and metric.
func phase(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := observability.Tracer.Start(ctx, "linker."+name)
	defer span.End()
	start := time.Now()

	err := fn(ctx)
	elapsed := time.Since(start)
	observability.PhaseDuration.WithLabelValues(name).Observe(elapsed.Seconds())
	if err != nil {
		if de, ok := coreerrors.As(err); ok {
			de.WithContext(coreerrors.CtxPhase, name)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, name+" failed")
		slog.Debug("phase failed", "phase", name, "duration", elapsed, "error", err)
		return err
	}
	slog.Debug("phase complete", "phase", name, "duration", elapsed)
	return nil
}

// discover walks the import graph depth-first: the standard library first,
// then the entry file. Each namespace is parsed once; its imports are opened
// and visited in declaration order before its siblings. b.order receives a
// namespace once all its imports are done, so dependencies come before
// dependents. Ids keep the order in which files were first opened.
func (b *build) discover(ctx context.Context, entry string) error {
	std, err := b.openStd()
	if err != nil {
		return err
	}
	b.nsCtx.SetStd(std)
	if err := b.visit(ctx, std); err != nil {
		return err
	}

	root, _, err := b.nsCtx.Open(entry)
	if err != nil {
		return err
	}
	return b.visit(ctx, root)
}

func (b *build) openStd() (*namespace.Namespace, error) {
	if b.opts.StdPath != "" {
		ns, _, err := b.nsCtx.Open(b.opts.StdPath)
		return ns, err
	}
	ns, _ := b.nsCtx.OpenUnit(source.NewUnit(stdlib.Source(), stdlib.Location))
	return ns, nil
}

func (b *build) visit(ctx context.Context, ns *namespace.Namespace) error {
	if _, seen := b.trees[ns]; seen {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tree, err := syntax.Parse(ns)
	if err != nil {
		return err
	}
	b.trees[ns] = tree
	slog.Debug("parsed namespace", "namespace", ns.ID, "path", ns.Source.Name())

	for _, imp := range ns.DrainImports() {
		target, _, err := b.nsCtx.Open(imp.Location)
		if err != nil {
			err = coreerrors.AddContext(err, coreerrors.CtxNamespace, ns.ID)
			return coreerrors.AddContext(err, coreerrors.CtxSymbol, imp.Alias)
		}
		ns.BindImport(imp.Alias, target)
		if err := b.visit(ctx, target); err != nil {
			return err
		}
	}
	if err := ns.BindForeignRefs(); err != nil {
		return coreerrors.AddContext(err, coreerrors.CtxNamespace, ns.ID)
	}
	b.order = append(b.order, ns)
	return ns.Advance(namespace.ImportsResolved)
}

func (b *build) analyze(ctx context.Context) error {
	for _, ns := range b.order {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := b.trees[ns].CheckSymbolUsage(); err != nil {
			return err
		}
	}
	return nil
}

func (b *build) link(ctx context.Context) error {
	for _, ns := range b.order {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := ns.Link(); err != nil {
			return err
		}
	}
	return nil
}

// prune repeats whole-program passes until one removes nothing or the pass
// limit is hit, and returns the number of passes run.
func (b *build) prune() int {
	limit := b.opts.prunePassLimit()
	passes := 0
	for passes < limit {
		passes++
		removed := false
		for _, ns := range b.order {
			if b.trees[ns].PruneSymbolUsage() {
				removed = true
			}
		}
		if !removed {
			break
		}
	}
	return passes
}

func (b *build) reports() []string {
	var out []string
	for _, ns := range b.order {
		tree := b.trees[ns]
		if b.opts.AnalyseAst {
			report := tree.Analyse()
			slog.Info("syntax tree", "namespace", ns.ID, "report", report)
			out = append(out, report)
		}
		if b.opts.AnalyseSymbols {
			report := tree.AnalyseSymbols()
			slog.Info("symbol usage", "namespace", ns.ID, "report", report)
			out = append(out, report)
		}
	}
	return out
}

// emit generates every namespace dependencies first, then builds the enum
// table from the entries the generated code marked used.
func (b *build) emit(res *Result) error {
	parts := make([]emit.Code, 0, len(b.order))
	for _, ns := range b.order {
		code, err := b.trees[ns].GenerateCode()
		if err != nil {
			return coreerrors.AddContext(err, coreerrors.CtxNamespace, ns.ID)
		}
		res.Namespaces = append(res.Namespaces, NamespaceCode{ID: ns.ID, Location: ns.Source.Name(), Code: code})
		parts = append(parts, code)
	}

	var table []emit.Code
	if b.opts.IncludeEnumLookup {
		for _, ns := range b.order {
			for _, e := range ns.Enums() {
				for _, entry := range e.Entries {
					name := ns.EnumEntryName(e.Name, entry.Name)
					if b.opts.RemoveDeadCode && !ns.EnumUsed(e.Name, entry.Name) {
						b.enumReport(res, "unused enum entry", name)
						continue
					}
					res.EnumTable = append(res.EnumTable, EnumEntry{Name: name, Value: entry.Value})
					table = append(table, emit.EnumRegister(name, entry.Value))
					b.enumReport(res, "enum entry registered", name)
				}
			}
		}
	}

	res.Code = emit.Join(append(table, parts...)...)
	return nil
}

func (b *build) enumReport(res *Result, msg, name string) {
	if !b.opts.AnalyseSymbols {
		return
	}
	slog.Info(msg, "entry", name)
	res.Reports = append(res.Reports, msg+": "+name)
}
