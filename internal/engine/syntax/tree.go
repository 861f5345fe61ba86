// Package syntax is the bundled Weave front-end: tokenizer, parser and the
// syntax tree that the linker drives through analysis, pruning and emission.
package syntax

import (
	"weave/internal/engine/namespace"
	"weave/internal/engine/scope"
)

// Tree is the parsed form of one namespace.
type Tree struct {
	ns    *namespace.Namespace
	Stmts []Stmt

	scope *scope.Scope
}

// Parse tokenizes and parses the namespace's source. Imports found along the
// way are queued on the namespace for the caller to resolve; free names become
// standard-library references.
func Parse(ns *namespace.Namespace) (*Tree, error) {
	tokens, err := Tokenize(ns.Source)
	if err != nil {
		return nil, err
	}
	p := &parser{ns: ns, unit: ns.Source, tokens: tokens}
	stmts, err := p.file()
	if err != nil {
		return nil, err
	}
	bindNames(ns, stmts)
	if err := ns.Advance(namespace.Parsed); err != nil {
		return nil, err
	}
	return &Tree{ns: ns, Stmts: stmts}, nil
}

func (t *Tree) Namespace() *namespace.Namespace { return t.ns }

// Scope returns the root scope, or nil before CheckSymbolUsage.
func (t *Tree) Scope() *scope.Scope { return t.scope }
