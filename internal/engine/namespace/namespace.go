// Package namespace models one source file's bindings (its namespace) and the
// per-build context that ties namespaces into a program.
package namespace

import (
	"fmt"
	"path/filepath"

	"weave/internal/engine/scope"
	"weave/internal/engine/source"
	"weave/internal/engine/symbol"
)

// State is a namespace's position in the build pipeline. It only advances.
type State int

const (
	Created State = iota
	Parsed
	ImportsResolved
	Analyzed
	CrossLinked
	Pruned
	Emitted
)

var stateNames = [...]string{
	Created:         "created",
	Parsed:          "parsed",
	ImportsResolved: "imports-resolved",
	Analyzed:        "analyzed",
	CrossLinked:     "cross-linked",
	Pruned:          "pruned",
	Emitted:         "emitted",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// PendingImport is an import alias whose target namespace is not known yet.
type PendingImport struct {
	Alias    string
	Location string
	Offset   int
}

type Namespace struct {
	ID     string
	Source *source.Unit

	ctx   *Context
	state State

	symbols     map[string][]*symbol.Symbol
	symbolOrder []string

	imports          map[string]*Namespace
	importOrder      []string
	importsToResolve []PendingImport

	enums     map[string]*Enum
	enumOrder []string
	usedEnums map[string]bool

	foreignRefs []*symbol.ForeignRef
	scope       *scope.Scope
}

func newNamespace(ctx *Context, id string, unit *source.Unit) *Namespace {
	return &Namespace{
		ID:        id,
		Source:    unit,
		ctx:       ctx,
		symbols:   make(map[string][]*symbol.Symbol),
		imports:   make(map[string]*Namespace),
		enums:     make(map[string]*Enum),
		usedEnums: make(map[string]bool),
	}
}

func (ns *Namespace) Context() *Context { return ns.ctx }
func (ns *Namespace) State() State      { return ns.state }

// Advance moves the namespace forward in the pipeline.
func (ns *Namespace) Advance(to State) error {
	if to < ns.state {
		return fmt.Errorf("namespace %s cannot move from %s back to %s", ns.ID, ns.state, to)
	}
	ns.state = to
	return nil
}

// Symbol creates a new identity for name in this namespace. Every reference
// site gets its own identity; the group size drives mangling order.
func (ns *Namespace) Symbol(name string) *symbol.Symbol {
	group, seen := ns.symbols[name]
	if !seen {
		ns.symbolOrder = append(ns.symbolOrder, name)
	}
	sym := symbol.New(ns.ID, name)
	ns.symbols[name] = append(group, sym)
	return sym
}

// LeadingSymbol returns the first identity created for name.
func (ns *Namespace) LeadingSymbol(name string) (*symbol.Symbol, bool) {
	group := ns.symbols[name]
	if len(group) == 0 {
		return nil, false
	}
	return group[0], true
}

// Symbols returns the identities sharing name, in creation order.
func (ns *Namespace) Symbols(name string) []*symbol.Symbol {
	return append([]*symbol.Symbol(nil), ns.symbols[name]...)
}

// SymbolNames returns every name with at least one identity, in first-use order.
func (ns *Namespace) SymbolNames() []string {
	return append([]string(nil), ns.symbolOrder...)
}

func (ns *Namespace) Intrinsic(name string) *symbol.Symbol {
	return symbol.NewIntrinsic(name)
}

func (ns *Namespace) Property(name string) *symbol.Symbol {
	return ns.ctx.Property(name)
}

func (ns *Namespace) RetainProperty(name string) {
	ns.ctx.RetainProperty(name)
}

// AddImport queues alias for resolution. rel is resolved against the
// directory of this namespace's source.
func (ns *Namespace) AddImport(alias, rel string, offset int) error {
	if ns.HasImportAlias(alias) {
		return source.Errorf(ns.Source, offset, "import alias %s is declared twice", alias)
	}
	location := rel
	if !filepath.IsAbs(rel) {
		location = filepath.Join(ns.Source.Dir(), rel)
	}
	ns.importsToResolve = append(ns.importsToResolve, PendingImport{Alias: alias, Location: location, Offset: offset})
	return nil
}

func (ns *Namespace) HasImportAlias(alias string) bool {
	if _, ok := ns.imports[alias]; ok {
		return true
	}
	for _, p := range ns.importsToResolve {
		if p.Alias == alias {
			return true
		}
	}
	return false
}

// DrainImports hands out the pending imports exactly once.
func (ns *Namespace) DrainImports() []PendingImport {
	pending := ns.importsToResolve
	ns.importsToResolve = nil
	return pending
}

func (ns *Namespace) BindImport(alias string, target *Namespace) {
	if _, ok := ns.imports[alias]; !ok {
		ns.importOrder = append(ns.importOrder, alias)
	}
	ns.imports[alias] = target
}

func (ns *Namespace) Import(alias string) (*Namespace, bool) {
	target, ok := ns.imports[alias]
	return target, ok
}

// ImportAliases returns resolved aliases in declaration order.
func (ns *Namespace) ImportAliases() []string {
	return append([]string(nil), ns.importOrder...)
}

// AddForeignRef records a reference that can only be resolved once the
// target namespace has been analyzed.
func (ns *Namespace) AddForeignRef(alias, name, member string, offset int) *symbol.ForeignRef {
	ref := symbol.NewForeignRef(alias, name, member, offset)
	ns.foreignRefs = append(ns.foreignRefs, ref)
	return ref
}

func (ns *Namespace) ForeignRefs() []*symbol.ForeignRef {
	return append([]*symbol.ForeignRef(nil), ns.foreignRefs...)
}

// AttachScope stores the root of the namespace's scope tree after analysis.
func (ns *Namespace) AttachScope(s *scope.Scope) {
	ns.scope = s
}

func (ns *Namespace) Scope() *scope.Scope {
	return ns.scope
}

func (ns *Namespace) String() string {
	return ns.ID
}
