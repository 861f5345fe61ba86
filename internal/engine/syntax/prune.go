package syntax

import (
	"weave/internal/engine/namespace"
)

// PruneSymbolUsage runs one dead-code pass over the tree and reports whether
// anything was removed. Removed code gives up its reads, which can make more
// bindings unread, so callers repeat until a pass removes nothing.
//
// A pass removes unread let bindings and assignments whose value has no side
// effects, unread functions, and the branch of an if whose condition has a
// known constant truth value. An assignment to an unread binding whose value
// does have side effects is reduced to evaluating the value.
func (t *Tree) PruneSymbolUsage() bool {
	changed := false
	t.Stmts = t.pruneList(t.Stmts, &changed)
	_ = t.ns.Advance(namespace.Pruned)
	return changed
}

func (t *Tree) pruneList(stmts []Stmt, changed *bool) []Stmt {
	kept := stmts[:0]
	for _, stmt := range stmts {
		if repl, drop := t.pruneStmt(stmt, changed); !drop {
			kept = append(kept, repl)
		}
	}
	for i := len(kept); i < len(stmts); i++ {
		stmts[i] = nil
	}
	return kept
}

// pruneStmt returns the statement to keep in place of stmt, or drop=true.
func (t *Tree) pruneStmt(stmt Stmt, changed *bool) (repl Stmt, drop bool) {
	switch s := stmt.(type) {
	case *LetStmt:
		if s.usage != nil && !s.usage.EverRead() && pure(s.Value) {
			release(s.Value)
			*changed = true
			return nil, true
		}

	case *AssignStmt:
		if s.usage != nil && !s.usage.EverRead() {
			*changed = true
			if pure(s.Value) {
				release(s.Value)
				return nil, true
			}
			// The binding may lose its let in this pass; keep only the effect.
			return &ExprStmt{X: s.Value}, false
		}

	case *FnDecl:
		if s.usage != nil && !s.usage.EverRead() {
			release(s.Body)
			*changed = true
			return nil, true
		}
		s.Body.Stmts = t.pruneList(s.Body.Stmts, changed)

	case *BlockStmt:
		s.Stmts = t.pruneList(s.Stmts, changed)

	case *IfStmt:
		if v, ok := constantCondition(s.Cond); ok {
			release(s.Cond)
			*changed = true
			if v {
				release(s.Else)
				return t.pruneStmt(s.Then, changed)
			}
			release(s.Then)
			if s.Else == nil {
				return nil, true
			}
			return t.pruneStmt(s.Else, changed)
		}
		s.Then.Stmts = t.pruneList(s.Then.Stmts, changed)
		if s.Else != nil {
			if repl, drop := t.pruneStmt(s.Else, changed); drop {
				s.Else = nil
			} else {
				s.Else = repl
			}
		}
	}
	return stmt, false
}

// constantCondition reports the truth value of cond when analysis proved it
// constant.
func constantCondition(cond Expr) (bool, bool) {
	switch e := cond.(type) {
	case *BoolLit:
		return e.Value, true
	case *NilLit:
		return false, true
	case *Ident:
		if e.usage == nil {
			return false, false
		}
		return e.usage.Truthiness()
	case *UnaryExpr:
		if e.Op != NOT {
			return false, false
		}
		v, ok := constantCondition(e.X)
		return !v, ok
	}
	return false, false
}

// pure reports whether evaluating x can have no side effects.
func pure(x Expr) bool {
	ok := true
	Inspect(x, func(n Node) bool {
		switch n.(type) {
		case *CallExpr, *IntrinsicExpr:
			ok = false
		}
		return ok
	})
	return ok
}

// release removes every read performed inside n from the usage records it
// was registered with.
func release(n Node) {
	if n == nil {
		return
	}
	Inspect(n, func(n Node) bool {
		switch e := n.(type) {
		case *Ident:
			if e.usage != nil {
				e.usage.RemoveReader(e)
			}
			if e.foreign != nil {
				e.foreign.RemoveReader(e)
			}
		case *ForeignExpr:
			if e.foreign != nil {
				e.foreign.RemoveReader(e)
			}
		}
		return true
	})
}
