// Package scope tracks, per lexical scope, which bindings are defined and who
// reads them. It is the ground truth for dead-code pruning and for the
// symbol diagnostics.
package scope

import (
	"weave/internal/engine/symbol"
)

type Scope struct {
	parent   *Scope
	children []*Scope

	usages     map[string]*SymbolUsage
	usageOrder []string

	foreign      map[foreignKey]*ForeignSymbolUsage
	foreignOrder []foreignKey
}

type foreignKey struct {
	alias string
	name  string
}

func New(parent *Scope) *Scope {
	s := &Scope{
		parent:  parent,
		usages:  make(map[string]*SymbolUsage),
		foreign: make(map[foreignKey]*ForeignSymbolUsage),
	}
	if parent != nil {
		parent.children = append(parent.children, s)
	}
	return s
}

// Child opens a nested scope.
func (s *Scope) Child() *Scope {
	return New(s)
}

func (s *Scope) Parent() *Scope     { return s.parent }
func (s *Scope) Children() []*Scope { return s.children }

// SymbolByID finds or creates the usage record for id.
//
// readOnly never creates and searches outward. defining searches only this
// scope and creates the record here when absent. Otherwise the lookup walks
// outward and creates locally only when no ancestor has the id.
func (s *Scope) SymbolByID(id string, defining, readOnly bool) *SymbolUsage {
	if readOnly {
		for cur := s; cur != nil; cur = cur.parent {
			if u, ok := cur.usages[id]; ok {
				return u
			}
		}
		return nil
	}
	if defining {
		return s.local(id)
	}
	if u := s.SymbolByID(id, false, true); u != nil {
		return u
	}
	return s.local(id)
}

func (s *Scope) local(id string) *SymbolUsage {
	if u, ok := s.usages[id]; ok {
		return u
	}
	u := &SymbolUsage{ID: id}
	s.usages[id] = u
	s.usageOrder = append(s.usageOrder, id)
	return u
}

// AddSymbol registers a read and/or a definition of sym by reader.
func (s *Scope) AddSymbol(sym *symbol.Symbol, reading, defining bool, reader Reader) *SymbolUsage {
	u := s.SymbolByID(sym.ID(), defining, false)
	if defining {
		u.EverDefined = true
	}
	if reading {
		u.AddReader(reader)
	}
	return u
}

// Assign records a store into an existing binding found in the scope chain.
// It returns nil when no scope declares the binding.
func (s *Scope) Assign(sym *symbol.Symbol) *SymbolUsage {
	u := s.SymbolByID(sym.ID(), false, true)
	if u != nil {
		u.EverDefined = true
	}
	return u
}

// AddForeignSymbol registers a read of alias.name. Records are shared per
// scope, so repeated reads accumulate readers on one record.
func (s *Scope) AddForeignSymbol(alias, name string, reader Reader) *ForeignSymbolUsage {
	key := foreignKey{alias: alias, name: name}
	f, ok := s.foreign[key]
	if !ok {
		f = &ForeignSymbolUsage{Name: name, Alias: alias}
		s.foreign[key] = f
		s.foreignOrder = append(s.foreignOrder, key)
	}
	if reader != nil {
		f.AddReader(reader)
	}
	return f
}

// AddCoreNamespaceSymbol registers a read of a standard-library name.
func (s *Scope) AddCoreNamespaceSymbol(name string, reader Reader) *ForeignSymbolUsage {
	return s.AddForeignSymbol("", name, reader)
}

// FindScopeWhereSymbolIsDefined returns the nearest scope holding a defined
// record for id, or nil.
func (s *Scope) FindScopeWhereSymbolIsDefined(id string) *Scope {
	for cur := s; cur != nil; cur = cur.parent {
		if u, ok := cur.usages[id]; ok && u.EverDefined {
			return cur
		}
	}
	return nil
}

// Usages returns this scope's own records in creation order.
func (s *Scope) Usages() []*SymbolUsage {
	out := make([]*SymbolUsage, 0, len(s.usageOrder))
	for _, id := range s.usageOrder {
		out = append(out, s.usages[id])
	}
	return out
}

// ForeignUsages returns this scope's own foreign records in creation order.
func (s *Scope) ForeignUsages() []*ForeignSymbolUsage {
	out := make([]*ForeignSymbolUsage, 0, len(s.foreignOrder))
	for _, key := range s.foreignOrder {
		out = append(out, s.foreign[key])
	}
	return out
}

// Walk visits s and every descendant depth-first, parents before children.
func (s *Scope) Walk(fn func(*Scope) error) error {
	if err := fn(s); err != nil {
		return err
	}
	for _, c := range s.children {
		if err := c.Walk(fn); err != nil {
			return err
		}
	}
	return nil
}
