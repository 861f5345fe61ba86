// Package linker drives a whole-program build: it discovers the import graph
// from the standard library and an entry file, analyzes and cross-links every
// namespace, prunes dead code and emits one linked program.
package linker

import (
	"fmt"
	"os"
	"path/filepath"

	"weave/internal/engine/emit"
	"weave/internal/engine/namespace"
)

const DefaultPrunePassLimit = 1000

type Options struct {
	// Mangle compacts every eligible name into a numeric code.
	Mangle bool
	// RemoveDeadCode prunes unread bindings until a fixpoint is reached.
	RemoveDeadCode bool
	// PrunePassLimit bounds the pruning fixpoint. Zero means the default.
	PrunePassLimit int
	// AnalyseAst and AnalyseSymbols add diagnostic reports to the result.
	AnalyseAst     bool
	AnalyseSymbols bool
	// IncludeEnumLookup prepends the enum registration table.
	IncludeEnumLookup bool
	// Retain lists glob patterns of property names that keep their spelling.
	Retain []string
	// StdPath replaces the embedded standard library when set.
	StdPath string
}

func (o Options) prunePassLimit() int {
	if o.PrunePassLimit <= 0 {
		return DefaultPrunePassLimit
	}
	return o.PrunePassLimit
}

// EnumEntry is one row of the enum registration table.
type EnumEntry struct {
	Name  string
	Value int64
}

type NamespaceCode struct {
	ID       string
	Location string
	Code     emit.Code
}

type Result struct {
	BuildID     string
	Code        emit.Code
	EnumTable   []EnumEntry
	Namespaces  []NamespaceCode
	Symbols     []namespace.MangleEntry
	PrunePasses int
	Reports     []string
}

// OSLoader reads sources from the local file system.
type OSLoader struct{}

func (OSLoader) Load(location string) (string, error) {
	data, err := os.ReadFile(location)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// MapLoader serves sources from memory, keyed by absolute location.
type MapLoader map[string]string

func (m MapLoader) Load(location string) (string, error) {
	if text, ok := m[filepath.Clean(location)]; ok {
		return text, nil
	}
	return "", fmt.Errorf("%s: %w", location, os.ErrNotExist)
}
