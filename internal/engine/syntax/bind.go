package syntax

import "weave/internal/engine/namespace"

// binder decides for every bare name whether it reads a binding of its own
// namespace or a standard-library name. It runs right after parsing, so both
// kinds of read are in the right symbol group before mangling. The scoping
// rules are the ones CheckSymbolUsage applies: let and fn are hoisted to the
// top of their block, parameters belong to the function body.
type binder struct {
	ns *namespace.Namespace
}

type names struct {
	parent *names
	bound  map[string]bool
}

func (n *names) child() *names {
	return &names{parent: n, bound: make(map[string]bool)}
}

func (n *names) has(name string) bool {
	for cur := n; cur != nil; cur = cur.parent {
		if cur.bound[name] {
			return true
		}
	}
	return false
}

func bindNames(ns *namespace.Namespace, stmts []Stmt) {
	b := &binder{ns: ns}
	b.stmts(&names{bound: make(map[string]bool)}, stmts)
}

func (b *binder) stmts(env *names, stmts []Stmt) {
	for _, stmt := range stmts {
		switch d := stmt.(type) {
		case *LetStmt:
			env.bound[d.Name] = true
		case *FnDecl:
			env.bound[d.Name] = true
		}
	}
	for _, stmt := range stmts {
		b.stmt(env, stmt)
	}
}

func (b *binder) stmt(env *names, stmt Stmt) {
	switch st := stmt.(type) {
	case *LetStmt:
		b.expr(env, st.Value)
	case *FnDecl:
		body := env.child()
		for _, p := range st.Params {
			body.bound[p.Name] = true
		}
		b.stmts(body, st.Body.Stmts)
	case *AssignStmt:
		b.expr(env, st.Value)
	case *SetPropStmt:
		b.expr(env, st.Target)
		b.expr(env, st.Value)
	case *ReturnStmt:
		if st.Value != nil {
			b.expr(env, st.Value)
		}
	case *IfStmt:
		b.expr(env, st.Cond)
		b.stmts(env.child(), st.Then.Stmts)
		if st.Else != nil {
			b.stmt(env, st.Else)
		}
	case *BlockStmt:
		b.stmts(env.child(), st.Stmts)
	case *ExprStmt:
		b.expr(env, st.X)
	}
}

func (b *binder) expr(env *names, x Expr) {
	switch e := x.(type) {
	case *Ident:
		b.ident(env, e, "")
	case *PropExpr:
		if id, ok := e.X.(*Ident); ok {
			b.ident(env, id, e.Name)
			return
		}
		b.expr(env, e.X)
	case *CallExpr:
		b.expr(env, e.Callee)
		b.exprs(env, e.Args)
	case *IntrinsicExpr:
		b.exprs(env, e.Args)
	case *ObjectExpr:
		b.exprs(env, e.Values)
	case *BinaryExpr:
		b.expr(env, e.Left)
		b.expr(env, e.Right)
	case *UnaryExpr:
		b.expr(env, e.X)
	}
}

func (b *binder) exprs(env *names, xs []Expr) {
	for _, x := range xs {
		b.expr(env, x)
	}
}

// ident binds a single name. member is the name accessed on it, if any. A
// free name that is an enum of this namespace gets neither an identity nor a
// reference: it is either an entry access or an error found by analysis.
func (b *binder) ident(env *names, e *Ident, member string) {
	switch {
	case env.has(e.Name):
		e.Sym = b.ns.Symbol(e.Name)
	case isOwnEnum(b.ns, e.Name):
	default:
		e.ref = b.ns.AddForeignRef("", e.Name, member, e.Offset)
	}
}

func isOwnEnum(ns *namespace.Namespace, name string) bool {
	_, ok := ns.Enum(name)
	return ok
}
