package syntax

import (
	coreerrors "weave/internal/core/errors"
	"weave/internal/engine/emit"
	"weave/internal/engine/namespace"
	"weave/internal/engine/symbol"
)

var binaryOps = map[TokenKind]emit.Opcode{
	PLUS:    emit.OpAdd,
	MINUS:   emit.OpSub,
	STAR:    emit.OpMul,
	SLASH:   emit.OpDiv,
	EQUALS:  emit.OpEq,
	NOT_EQ:  emit.OpNeq,
	LESS:    emit.OpLt,
	GREATER: emit.OpGt,
}

type generator struct {
	ns *namespace.Namespace
}

// GenerateCode emits the namespace's top-level statements, one instruction
// each. Enum entries read by the emitted code are marked used on the
// namespace that declares them.
func (t *Tree) GenerateCode() (emit.Code, error) {
	g := &generator{ns: t.ns}
	parts := make([]emit.Code, 0, len(t.Stmts))
	for _, stmt := range t.Stmts {
		code, err := g.stmt(stmt)
		if err != nil {
			return nil, err
		}
		if code != nil {
			parts = append(parts, code)
		}
	}
	if err := t.ns.Advance(namespace.Emitted); err != nil {
		return nil, err
	}
	return emit.Join(parts...), nil
}

func (g *generator) stmt(stmt Stmt) (emit.Code, error) {
	switch s := stmt.(type) {
	case *ImportStmt, *EnumDecl, *RetainStmt:
		return nil, nil

	case *LetStmt:
		value, err := g.expr(s.Value)
		if err != nil {
			return nil, err
		}
		return emit.Instr(emit.OpDefine, s.Sym.Code(), value), nil

	case *FnDecl:
		params := make([]emit.Code, 0, len(s.Params))
		for _, p := range s.Params {
			params = append(params, p.Sym.Code())
		}
		body, err := g.block(s.Body)
		if err != nil {
			return nil, err
		}
		return emit.Instr(emit.OpDefine, s.Sym.Code(), emit.Func(params, body)), nil

	case *AssignStmt:
		value, err := g.expr(s.Value)
		if err != nil {
			return nil, err
		}
		return emit.Instr(emit.OpStore, s.Sym.Code(), value), nil

	case *SetPropStmt:
		target, err := g.expr(s.Target)
		if err != nil {
			return nil, err
		}
		value, err := g.expr(s.Value)
		if err != nil {
			return nil, err
		}
		return emit.Instr(emit.OpSetProp, target, s.Prop.Code(), value), nil

	case *ReturnStmt:
		if s.Value == nil {
			return emit.Instr(emit.OpReturn, emit.Nil()), nil
		}
		value, err := g.expr(s.Value)
		if err != nil {
			return nil, err
		}
		return emit.Instr(emit.OpReturn, value), nil

	case *IfStmt:
		cond, err := g.expr(s.Cond)
		if err != nil {
			return nil, err
		}
		then, err := g.block(s.Then)
		if err != nil {
			return nil, err
		}
		otherwise := emit.Block()
		if s.Else != nil {
			if otherwise, err = g.stmt(s.Else); err != nil {
				return nil, err
			}
		}
		return emit.Instr(emit.OpIf, cond, then, otherwise), nil

	case *BlockStmt:
		return g.block(s)

	case *ExprStmt:
		x, err := g.expr(s.X)
		if err != nil {
			return nil, err
		}
		return emit.Instr(emit.OpPop, x), nil
	}
	return nil, coreerrors.Newf(coreerrors.CodeInternal, "cannot emit statement %T", stmt)
}

func (g *generator) block(b *BlockStmt) (emit.Code, error) {
	stmts := make([]emit.Code, 0, len(b.Stmts))
	for _, stmt := range b.Stmts {
		code, err := g.stmt(stmt)
		if err != nil {
			return nil, err
		}
		if code != nil {
			stmts = append(stmts, code)
		}
	}
	return emit.Block(stmts...), nil
}

func (g *generator) expr(x Expr) (emit.Code, error) {
	switch e := x.(type) {
	case *NumberLit:
		return emit.Number(e.Value), nil
	case *StringLit:
		return emit.String(e.Value), nil
	case *BoolLit:
		return emit.Bool(e.Value), nil
	case *NilLit:
		return emit.Nil(), nil

	case *Ident:
		if e.usage != nil {
			return emit.Instr(emit.OpLoad, e.Sym.Code()), nil
		}
		return g.foreignValue(e.ref)

	case *ForeignExpr:
		res := e.Ref.Resolution()
		if res.Kind == symbol.EnumMember {
			return g.enumValue(res), nil
		}
		code, err := g.foreignValue(e.Ref)
		if err != nil {
			return nil, err
		}
		if e.MemberSym != nil {
			return emit.Instr(emit.OpGetProp, code, e.MemberSym.Code()), nil
		}
		return code, nil

	case *PropExpr:
		if e.enum != nil {
			g.ns.MarkEnumUsed(e.enum.Enum, e.enum.Entry)
			return emit.Number(e.enum.Value), nil
		}
		if id, ok := e.X.(*Ident); ok && id.ref != nil && id.ref.Resolution().Kind == symbol.EnumMember {
			return g.enumValue(id.ref.Resolution()), nil
		}
		target, err := g.expr(e.X)
		if err != nil {
			return nil, err
		}
		return emit.Instr(emit.OpGetProp, target, e.Prop.Code()), nil

	case *CallExpr:
		callee, err := g.expr(e.Callee)
		if err != nil {
			return nil, err
		}
		args, err := g.exprs(e.Args)
		if err != nil {
			return nil, err
		}
		return emit.Call(callee, args...), nil

	case *IntrinsicExpr:
		args, err := g.exprs(e.Args)
		if err != nil {
			return nil, err
		}
		return emit.Join(append([]emit.Code{e.Sym.Call(len(args))}, args...)...), nil

	case *ObjectExpr:
		values, err := g.exprs(e.Values)
		if err != nil {
			return nil, err
		}
		keys := make([]emit.Code, 0, len(e.Keys))
		for _, k := range e.Keys {
			keys = append(keys, k.Code())
		}
		return emit.Object(keys, values), nil

	case *BinaryExpr:
		left, err := g.expr(e.Left)
		if err != nil {
			return nil, err
		}
		right, err := g.expr(e.Right)
		if err != nil {
			return nil, err
		}
		return emit.Instr(binaryOps[e.Op], left, right), nil

	case *UnaryExpr:
		operand, err := g.expr(e.X)
		if err != nil {
			return nil, err
		}
		op := emit.OpNeg
		if e.Op == NOT {
			op = emit.OpNot
		}
		return emit.Instr(op, operand), nil
	}
	return nil, coreerrors.Newf(coreerrors.CodeInternal, "cannot emit expression %T", x)
}

func (g *generator) exprs(xs []Expr) ([]emit.Code, error) {
	out := make([]emit.Code, 0, len(xs))
	for _, x := range xs {
		code, err := g.expr(x)
		if err != nil {
			return nil, err
		}
		out = append(out, code)
	}
	return out, nil
}

// foreignValue loads the symbol a cross-linked reference resolved to.
func (g *generator) foreignValue(ref *symbol.ForeignRef) (emit.Code, error) {
	if ref == nil {
		return nil, coreerrors.Newf(coreerrors.CodeInternal, "namespace %s emitted before analysis", g.ns.ID)
	}
	res := ref.Resolution()
	if res.Kind != symbol.ValueRef {
		de := coreerrors.Newf(coreerrors.CodeInternal, "reference %s was not linked to a value", ref)
		return nil, de.WithContext(coreerrors.CtxNamespace, g.ns.ID)
	}
	return emit.Instr(emit.OpLoad, res.Symbol.Code()), nil
}

func (g *generator) enumValue(res symbol.Resolution) emit.Code {
	if target, ok := g.ns.Context().ByID(res.Namespace); ok {
		target.MarkEnumUsed(res.Enum, res.Entry)
	}
	return emit.Number(res.Value)
}
