package app

import (
	"fmt"
	"log/slog"
	"strings"

	coreerrors "weave/internal/core/errors"
	"weave/internal/data/symbolmap"
	"weave/internal/engine/emit"
	"weave/internal/engine/linker"
	"weave/internal/engine/namespace"
	"weave/internal/shared/util"
)

// keepBuilds bounds how many builds the symbol map retains.
const keepBuilds = 20

// GenerateOutputs writes the program, the optional listing and, for mangled
// builds, the name map.
func (a *App) GenerateOutputs(res *linker.Result) error {
	if err := util.WriteFileAtomic(a.Paths.Output, res.Code, 0o644); err != nil {
		return coreerrors.AddContext(
			coreerrors.Wrap(err, coreerrors.CodeInternal, "write program"),
			coreerrors.CtxPath, a.Paths.Output)
	}
	slog.Debug("program written", "path", a.Paths.Output, "bytes", len(res.Code))

	if a.Paths.Disasm != "" {
		listing, err := Listing(res)
		if err != nil {
			return err
		}
		if err := util.WriteFileAtomic(a.Paths.Disasm, []byte(listing), 0o644); err != nil {
			return coreerrors.AddContext(
				coreerrors.Wrap(err, coreerrors.CodeInternal, "write listing"),
				coreerrors.CtxPath, a.Paths.Disasm)
		}
	}

	if a.symbols != nil && len(res.Symbols) > 0 {
		build := symbolmap.Build{ID: res.BuildID, Entry: a.Paths.Entry}
		if err := a.symbols.SaveBuild(build, SymbolEntries(res.Symbols)); err != nil {
			return coreerrors.AddContext(err, coreerrors.CtxBuildID, res.BuildID)
		}
		if removed, err := a.symbols.Prune(keepBuilds); err != nil {
			slog.Warn("failed to prune symbol map", "error", err)
		} else if removed > 0 {
			slog.Debug("pruned symbol map", "removed", removed)
		}
	}
	return nil
}

// Listing renders a build as readable text: the enum table, then every
// namespace under a header line.
func Listing(res *linker.Result) (string, error) {
	var b strings.Builder
	if len(res.EnumTable) > 0 {
		b.WriteString("; enum table\n")
		for _, e := range res.EnumTable {
			text, err := emit.Disassemble(emit.EnumRegister(e.Name, e.Value))
			if err != nil {
				return "", err
			}
			b.WriteString(text)
			b.WriteByte('\n')
		}
	}
	for _, ns := range res.Namespaces {
		fmt.Fprintf(&b, "; namespace %s (%s)\n", ns.ID, ns.Location)
		text, err := emit.Disassemble(ns.Code)
		if err != nil {
			return "", coreerrors.AddContext(err, coreerrors.CtxNamespace, ns.ID)
		}
		if text != "" {
			b.WriteString(text)
			b.WriteByte('\n')
		}
	}
	return b.String(), nil
}

func SymbolEntries(in []namespace.MangleEntry) []symbolmap.Entry {
	out := make([]symbolmap.Entry, 0, len(in))
	for _, e := range in {
		out = append(out, symbolmap.Entry{
			Code:      e.Code,
			Namespace: e.Namespace,
			Name:      e.Name,
			Kind:      e.Kind.String(),
			Uses:      e.Uses,
		})
	}
	return out
}

// Demangle maps a code back to its symbol. An empty build id means the most
// recent mangled build.
func (a *App) Demangle(buildID string, code int64) (symbolmap.Entry, error) {
	if a.symbols == nil {
		return symbolmap.Entry{}, coreerrors.New(coreerrors.CodeNotSupported, "symbol map is only kept for mangled builds")
	}
	return a.symbols.Lookup(buildID, code)
}
