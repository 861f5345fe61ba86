package syntax

import (
	"weave/internal/engine/namespace"
	"weave/internal/engine/scope"
	"weave/internal/engine/source"
)

type analyzer struct {
	ns *namespace.Namespace
}

// CheckSymbolUsage builds the scope tree: every definition and every read is
// recorded against the usage record it resolves to. Names that no enclosing
// scope defines become reads of the standard-library namespace.
func (t *Tree) CheckSymbolUsage() error {
	if t.scope != nil {
		return nil
	}
	a := &analyzer{ns: t.ns}
	root := scope.New(nil)
	if err := a.stmts(root, t.Stmts); err != nil {
		return err
	}
	t.scope = root
	t.ns.AttachScope(root)
	return t.ns.Advance(namespace.Analyzed)
}

// stmts hoists the block's let and fn bindings so that reads anywhere in the
// block see them, then analyzes each statement in order.
func (a *analyzer) stmts(s *scope.Scope, stmts []Stmt) error {
	for _, stmt := range stmts {
		switch d := stmt.(type) {
		case *LetStmt:
			s.AddSymbol(d.Sym, false, true, nil)
		case *FnDecl:
			s.AddSymbol(d.Sym, false, true, nil)
		}
	}
	for _, stmt := range stmts {
		if err := a.stmt(s, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (a *analyzer) stmt(s *scope.Scope, stmt Stmt) error {
	switch st := stmt.(type) {
	case *ImportStmt, *EnumDecl, *RetainStmt:
		return nil

	case *LetStmt:
		if err := a.expr(s, st.Value); err != nil {
			return err
		}
		st.usage = s.AddSymbol(st.Sym, false, true, nil)
		st.usage.TrackTruthiness(truthiness(st.Value))
		return nil

	case *FnDecl:
		st.usage = s.AddSymbol(st.Sym, false, true, nil)
		st.usage.TrackTruthiness(scope.Truthy)
		fs := s.Child()
		for _, param := range st.Params {
			fs.AddSymbol(param.Sym, false, true, nil)
		}
		st.Body.scope = fs
		return a.stmts(fs, st.Body.Stmts)

	case *AssignStmt:
		if err := a.expr(s, st.Value); err != nil {
			return err
		}
		u := s.Assign(st.Sym)
		if u == nil {
			return source.Errorf(a.ns.Source, st.Offset, "assignment to undeclared name %s", st.Name)
		}
		st.usage = u
		u.TrackTruthiness(truthiness(st.Value))
		return nil

	case *SetPropStmt:
		if err := a.expr(s, st.Target); err != nil {
			return err
		}
		return a.expr(s, st.Value)

	case *ReturnStmt:
		if st.Value == nil {
			return nil
		}
		return a.expr(s, st.Value)

	case *IfStmt:
		if err := a.expr(s, st.Cond); err != nil {
			return err
		}
		if err := a.block(s, st.Then); err != nil {
			return err
		}
		if st.Else == nil {
			return nil
		}
		return a.stmt(s, st.Else)

	case *BlockStmt:
		return a.block(s, st)

	case *ExprStmt:
		return a.expr(s, st.X)
	}
	return source.Errorf(a.ns.Source, stmt.Pos(), "unsupported statement %T", stmt)
}

func (a *analyzer) block(s *scope.Scope, b *BlockStmt) error {
	b.scope = s.Child()
	return a.stmts(b.scope, b.Stmts)
}

func (a *analyzer) expr(s *scope.Scope, x Expr) error {
	switch e := x.(type) {
	case *NumberLit, *StringLit, *BoolLit, *NilLit:
		return nil

	case *Ident:
		return a.ident(s, e)

	case *ForeignExpr:
		e.foreign = s.AddForeignSymbol(e.Ref.Alias, e.Ref.Name, e)
		return nil

	case *PropExpr:
		id, ok := e.X.(*Ident)
		if !ok || id.Sym != nil {
			return a.expr(s, e.X)
		}
		enum, ok := a.ns.Enum(id.Name)
		if !ok {
			return a.ident(s, id)
		}
		entry, ok := enum.Entry(e.Name)
		if !ok {
			return source.Errorf(a.ns.Source, e.Offset, "enum %s has no entry %s", enum.Name, e.Name)
		}
		e.enum = &EnumRef{Enum: enum.Name, Entry: entry.Name, Value: entry.Value}
		return nil

	case *CallExpr:
		if err := a.expr(s, e.Callee); err != nil {
			return err
		}
		return a.exprs(s, e.Args)

	case *IntrinsicExpr:
		return a.exprs(s, e.Args)

	case *ObjectExpr:
		return a.exprs(s, e.Values)

	case *BinaryExpr:
		if err := a.expr(s, e.Left); err != nil {
			return err
		}
		return a.expr(s, e.Right)

	case *UnaryExpr:
		return a.expr(s, e.X)
	}
	return source.Errorf(a.ns.Source, x.Pos(), "unsupported expression %T", x)
}

func (a *analyzer) exprs(s *scope.Scope, xs []Expr) error {
	for _, x := range xs {
		if err := a.expr(s, x); err != nil {
			return err
		}
	}
	return nil
}

// ident records a read of a bare name against the binding or the
// standard-library reference chosen when the tree was parsed.
func (a *analyzer) ident(s *scope.Scope, e *Ident) error {
	if e.Sym != nil {
		u := s.SymbolByID(e.Sym.ID(), false, true)
		if u == nil {
			return source.Errorf(a.ns.Source, e.Offset, "%s is bound but no enclosing scope declares it", e.Name)
		}
		u.AddReader(e)
		e.usage = u
		return nil
	}
	if e.ref == nil {
		return source.Errorf(a.ns.Source, e.Offset, "enum %s cannot be used as a value", e.Name)
	}
	e.foreign = s.AddCoreNamespaceSymbol(e.Name, e)
	return nil
}

// truthiness is the constant truth value of a literal initializer.
func truthiness(x Expr) scope.Truthiness {
	switch v := x.(type) {
	case *BoolLit:
		return boolTruth(v.Value)
	case *NilLit:
		return scope.Falsy
	case *NumberLit:
		return boolTruth(v.Value != 0)
	case *StringLit:
		return boolTruth(v.Value != "")
	case *ObjectExpr:
		return scope.Truthy
	}
	return scope.Unknown
}

func boolTruth(v bool) scope.Truthiness {
	if v {
		return scope.Truthy
	}
	return scope.Falsy
}
