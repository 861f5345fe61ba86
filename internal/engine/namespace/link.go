package namespace

import (
	coreerrors "weave/internal/core/errors"
	"weave/internal/engine/scope"
	"weave/internal/engine/source"
	"weave/internal/engine/symbol"
)

// Link resolves every foreign reference and every foreign usage record of
// this namespace against the analyzed scopes of the namespaces they target.
// All namespaces must be analyzed before any of them is linked.
func (ns *Namespace) Link() error {
	if ns.scope == nil {
		return coreerrors.Newf(coreerrors.CodeInternal, "namespace %s linked before analysis", ns.ID)
	}

	for _, ref := range ns.foreignRefs {
		if ref.Resolved() {
			continue
		}
		if err := ns.resolveRef(ref); err != nil {
			return err
		}
	}

	err := ns.scope.Walk(func(s *scope.Scope) error {
		for _, f := range s.ForeignUsages() {
			if f.Resolved != nil || f.Enum {
				continue
			}
			if err := ns.linkUsage(f); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	return ns.Advance(CrossLinked)
}

// BindForeignRefs gives every value reference its own identity in the target
// namespace, so cross-namespace reads weigh in when mangling. References to an
// enum of the target are left alone; they never emit a name. Imports must be
// bound and every target parsed.
func (ns *Namespace) BindForeignRefs() error {
	for _, ref := range ns.foreignRefs {
		if ref.Target() != nil || ref.Resolved() {
			continue
		}
		target, err := ns.importTarget(ref.Alias)
		if err != nil {
			return err
		}
		if _, ok := target.enums[ref.Name]; ok {
			continue
		}
		ref.Bind(target.Symbol(ref.Name))
	}
	return nil
}

func (ns *Namespace) resolveRef(ref *symbol.ForeignRef) error {
	target, err := ns.target(ref.Alias)
	if err != nil {
		return err
	}

	if enum, ok := target.enums[ref.Name]; ok {
		if ref.Member == "" {
			return source.Errorf(ns.Source, ref.Offset, "enum %s cannot be used as a value", ref)
		}
		entry, ok := enum.Entry(ref.Member)
		if !ok {
			return ns.unresolved(ref, target, ref.Name+"."+ref.Member)
		}
		return ref.ResolveEnumMember(target.ID, enum.Name, entry.Name, entry.Value)
	}

	if target.definedUsage(ref.Name) == nil {
		return ns.unresolved(ref, target, ref.Name)
	}
	if sym := ref.Target(); sym != nil {
		return ref.ResolveValue(sym)
	}
	sym, ok := target.LeadingSymbol(ref.Name)
	if !ok {
		return ns.unresolved(ref, target, ref.Name)
	}
	return ref.ResolveValue(sym)
}

func (ns *Namespace) linkUsage(f *scope.ForeignSymbolUsage) error {
	target, err := ns.target(f.Alias)
	if err != nil {
		return err
	}
	if _, ok := target.enums[f.Name]; ok {
		f.Enum = true
		return nil
	}
	usage := target.definedUsage(f.Name)
	if usage == nil {
		de := coreerrors.Newf(coreerrors.CodeUnresolvedSymbol, "%s is not defined in namespace %s", f.Name, target.ID)
		return de.WithContext(coreerrors.CtxSymbol, f.Name).WithContext(coreerrors.CtxNamespace, target.ID)
	}
	f.Link(usage)
	return nil
}

// importTarget maps an alias to its namespace; the empty alias is the
// standard library.
func (ns *Namespace) importTarget(alias string) (*Namespace, error) {
	if alias == "" {
		if ns.ctx.std == nil {
			return nil, coreerrors.Newf(coreerrors.CodeInternal, "namespace %s references the standard library but none is loaded", ns.ID)
		}
		return ns.ctx.std, nil
	}
	target, ok := ns.imports[alias]
	if !ok {
		return nil, coreerrors.Newf(coreerrors.CodeInternal, "import %s of namespace %s was never resolved", alias, ns.ID)
	}
	return target, nil
}

// target is importTarget for namespaces that have been analyzed.
func (ns *Namespace) target(alias string) (*Namespace, error) {
	target, err := ns.importTarget(alias)
	if err != nil {
		return nil, err
	}
	if target.scope == nil {
		return nil, coreerrors.Newf(coreerrors.CodeInternal, "namespace %s linked against unanalyzed namespace %s", ns.ID, target.ID)
	}
	return target, nil
}

// definedUsage returns the root-scope record for name when the namespace
// actually defines it.
func (ns *Namespace) definedUsage(name string) *scope.SymbolUsage {
	u := ns.scope.SymbolByID(symbol.ID(ns.ID, name), false, true)
	if u == nil || !u.EverDefined {
		return nil
	}
	return u
}

func (ns *Namespace) unresolved(ref *symbol.ForeignRef, target *Namespace, what string) error {
	de := coreerrors.Newf(coreerrors.CodeUnresolvedSymbol, "%s is not defined in namespace %s", what, target.ID)
	de.Err = source.Errorf(ns.Source, ref.Offset, "undefined: %s", ref)
	return de.WithContext(coreerrors.CtxSymbol, what).WithContext(coreerrors.CtxNamespace, target.ID)
}
