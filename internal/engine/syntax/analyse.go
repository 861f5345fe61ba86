package syntax

import (
	"fmt"
	"slices"
	"strings"

	"weave/internal/engine/scope"
)

// Analyse renders the syntax tree as an indented outline for diagnostics.
func (t *Tree) Analyse() string {
	var b strings.Builder
	fmt.Fprintf(&b, "namespace %s (%s)\n", t.ns.ID, t.ns.Source.Name())
	for _, stmt := range t.Stmts {
		writeNode(&b, stmt, 1)
	}
	return b.String()
}

func writeNode(b *strings.Builder, n Node, depth int) {
	indent := strings.Repeat("  ", depth)
	line := func(format string, args ...any) {
		b.WriteString(indent)
		fmt.Fprintf(b, format, args...)
		b.WriteByte('\n')
	}

	switch v := n.(type) {
	case *ImportStmt:
		line("import %s from %q", v.Alias, v.Path)
	case *EnumDecl:
		line("enum %s {%s}", v.Name, strings.Join(v.Entries, ", "))
	case *LetStmt:
		line("let %s", v.Sym)
		writeNode(b, v.Value, depth+1)
	case *FnDecl:
		params := make([]string, 0, len(v.Params))
		for _, p := range v.Params {
			params = append(params, p.Name)
		}
		line("fn %s(%s)", v.Sym, strings.Join(params, ", "))
		writeNode(b, v.Body, depth+1)
	case *RetainStmt:
		line("retain %s", strings.Join(v.Names, ", "))
	case *ReturnStmt:
		line("return")
		if v.Value != nil {
			writeNode(b, v.Value, depth+1)
		}
	case *IfStmt:
		line("if")
		writeNode(b, v.Cond, depth+1)
		writeNode(b, v.Then, depth+1)
		if v.Else != nil {
			line("else")
			writeNode(b, v.Else, depth+1)
		}
	case *BlockStmt:
		line("block")
		for _, s := range v.Stmts {
			writeNode(b, s, depth+1)
		}
	case *AssignStmt:
		line("assign %s", v.Sym)
		writeNode(b, v.Value, depth+1)
	case *SetPropStmt:
		line("set %s", v.Prop)
		writeNode(b, v.Target, depth+1)
		writeNode(b, v.Value, depth+1)
	case *ExprStmt:
		writeNode(b, v.X, depth)
	case *NumberLit:
		line("number %d", v.Value)
	case *StringLit:
		line("string %q", v.Value)
	case *BoolLit:
		line("bool %t", v.Value)
	case *NilLit:
		line("nil")
	case *Ident:
		switch {
		case v.Sym != nil:
			line("ident %s", v.Sym)
		case v.ref != nil:
			line("std %s", v.Name)
		default:
			line("name %s", v.Name)
		}
	case *ForeignExpr:
		line("foreign %s", v.Ref)
	case *PropExpr:
		if v.enum != nil {
			line("enum %s.%s = %d", v.enum.Enum, v.enum.Entry, v.enum.Value)
			return
		}
		line("get %s", v.Prop)
		writeNode(b, v.X, depth+1)
	case *CallExpr:
		line("call")
		writeNode(b, v.Callee, depth+1)
		for _, a := range v.Args {
			writeNode(b, a, depth+1)
		}
	case *IntrinsicExpr:
		line("$%s", v.Sym.Name())
		for _, a := range v.Args {
			writeNode(b, a, depth+1)
		}
	case *ObjectExpr:
		line("object")
		for i, k := range v.Keys {
			line("  %s:", k)
			writeNode(b, v.Values[i], depth+2)
		}
	case *BinaryExpr:
		line("binary %s", v.Op)
		writeNode(b, v.Left, depth+1)
		writeNode(b, v.Right, depth+1)
	case *UnaryExpr:
		line("unary %s", v.Op)
		writeNode(b, v.X, depth+1)
	}
}

// AnalyseSymbols reports, per scope, how many names it holds and who reads
// each of them. Usages are listed most read first; unread ones are marked.
func (t *Tree) AnalyseSymbols() string {
	var b strings.Builder
	fmt.Fprintf(&b, "symbols of %s\n", t.ns.ID)
	if t.scope == nil {
		b.WriteString("  (not analyzed)\n")
		return b.String()
	}
	t.writeScope(&b, t.scope, 1)
	return b.String()
}

func (t *Tree) writeScope(b *strings.Builder, s *scope.Scope, depth int) {
	indent := strings.Repeat("  ", depth)
	usages := s.Usages()
	slices.SortStableFunc(usages, func(x, y *scope.SymbolUsage) int {
		return len(y.Readers) - len(x.Readers)
	})

	fmt.Fprintf(b, "%s%d in scope\n", indent, len(usages))
	for _, u := range usages {
		truth := "-"
		if v, ok := u.Truthiness(); ok {
			truth = fmt.Sprintf("%t", v)
		}
		if len(u.Readers) == 0 {
			fmt.Fprintf(b, "%s- %s defined=%t truthy=%s (never read)\n", indent, u.ID, u.EverDefined, truth)
			continue
		}
		fmt.Fprintf(b, "%s- %s defined=%t truthy=%s\n", indent, u.ID, u.EverDefined, truth)
		fmt.Fprintf(b, "%s  read %dx at %s\n", indent, len(u.Readers), t.positions(u.Readers))
	}
	for _, f := range s.ForeignUsages() {
		target := f.Name
		if f.Alias != "" {
			target = f.Alias + "." + f.Name
		}
		state := "unlinked"
		switch {
		case f.Enum:
			state = "enum"
		case f.Resolved != nil:
			state = "-> " + f.Resolved.ID
		}
		fmt.Fprintf(b, "%sforeign %s readers=%d %s\n", indent, target, len(f.Readers), state)
	}
	for _, c := range s.Children() {
		fmt.Fprintf(b, "%sscope\n", indent)
		t.writeScope(b, c, depth+1)
	}
}

func (t *Tree) positions(readers []scope.Reader) string {
	out := make([]string, 0, len(readers))
	for _, r := range readers {
		n, ok := r.(Node)
		if !ok {
			continue
		}
		row, col := t.ns.Source.PositionToRowAndCol(n.Pos())
		out = append(out, fmt.Sprintf("%d:%d", row, col))
	}
	return strings.Join(out, ", ")
}
