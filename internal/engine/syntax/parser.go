package syntax

import (
	"strconv"

	"weave/internal/engine/namespace"
	"weave/internal/engine/source"
)

// parser consumes the token slice of one namespace and builds its tree. It
// creates symbol identities as it goes, registers imports, enums and retained
// names on the namespace, and records alias references as foreign refs.
//
// Grammar:
//
//	file     = stmt* EOF
//	stmt     = import | enum | let | fn | retain | return | if | block | simple
//	import   = "import" [ IDENT "from" ] STRING
//	enum     = "enum" IDENT "{" (IDENT ("=" "-"? NUMBER)? ","?)* "}"
//	let      = "let" IDENT "=" expr
//	fn       = "fn" IDENT "(" (IDENT ("," IDENT)*)? ")" block
//	retain   = "retain" IDENT ("," IDENT)*
//	return   = "return" expr?
//	if       = "if" expr block ("else" (if | block))?
//	simple   = expr ("=" expr)?
//	expr     = additive (("=="|"!="|"<"|">") additive)*
//	additive = term (("+"|"-") term)*
//	term     = unary (("*"|"/") unary)*
//	unary    = ("!"|"-") unary | postfix
//	postfix  = primary ("." IDENT | "(" args ")")*
//	primary  = NUMBER | STRING | "true" | "false" | "nil" | IDENT
//	         | "$" IDENT "(" args ")" | "(" expr ")" | "{" (IDENT ":" expr ","?)* "}"
type parser struct {
	ns     *namespace.Namespace
	unit   *source.Unit
	tokens []Token
	pos    int
}

func (p *parser) peek() Token {
	return p.peekAt(0)
}

func (p *parser) peekAt(n int) Token {
	if p.pos+n >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos+n]
}

func (p *parser) advance() Token {
	tok := p.peek()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return tok
}

func (p *parser) match(kind TokenKind) bool {
	if p.peek().Kind == kind {
		p.advance()
		return true
	}
	return false
}

func (p *parser) expect(kind TokenKind) (Token, error) {
	tok := p.peek()
	if tok.Kind != kind {
		return tok, p.errorf(tok, "expected %q, found %s", kind.String(), tok)
	}
	return p.advance(), nil
}

func (p *parser) errorf(tok Token, format string, args ...any) error {
	return source.Errorf(p.unit, tok.Offset, format, args...)
}

func (p *parser) skipSeparators() {
	for p.match(SEMICOLON) {
	}
}

func (p *parser) file() ([]Stmt, error) {
	var stmts []Stmt
	p.skipSeparators()
	for p.peek().Kind != EOF {
		stmt, err := p.statement(true)
		if err != nil {
			return nil, err
		}
		if stmt != nil {
			stmts = append(stmts, stmt)
		}
		p.skipSeparators()
	}
	return stmts, nil
}

func (p *parser) statement(top bool) (Stmt, error) {
	tok := p.peek()
	switch tok.Kind {
	case IMPORT:
		if !top {
			return nil, p.errorf(tok, "imports are only allowed at the top level")
		}
		return p.importStmt()
	case ENUM:
		if !top {
			return nil, p.errorf(tok, "enums are only allowed at the top level")
		}
		return p.enumDecl()
	case LET:
		return p.letStmt()
	case FN:
		return p.fnDecl()
	case RETAIN:
		return p.retainStmt()
	case RETURN:
		return p.returnStmt()
	case IF:
		return p.ifStmt()
	case LBRACE:
		return p.block()
	}
	return p.simpleStmt()
}

func (p *parser) importStmt() (Stmt, error) {
	start := p.advance()
	if p.peek().Kind == STRING {
		// Imported for its effects only; the generated alias cannot be spelled.
		path := p.advance()
		alias := p.ns.Context().GenerateSymbolName("import")
		if err := p.ns.AddImport(alias, path.Text, path.Offset); err != nil {
			return nil, err
		}
		return &ImportStmt{Offset: start.Offset, Alias: alias, Path: path.Text}, nil
	}
	alias, err := p.expect(IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(FROM); err != nil {
		return nil, err
	}
	path, err := p.expect(STRING)
	if err != nil {
		return nil, err
	}
	if err := p.ns.AddImport(alias.Text, path.Text, alias.Offset); err != nil {
		return nil, err
	}
	return &ImportStmt{Offset: start.Offset, Alias: alias.Text, Path: path.Text}, nil
}

func (p *parser) enumDecl() (Stmt, error) {
	start := p.advance()
	name, err := p.expect(IDENT)
	if err != nil {
		return nil, err
	}
	enum, err := p.ns.DeclareEnum(name.Text, name.Offset)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(LBRACE); err != nil {
		return nil, err
	}
	decl := &EnumDecl{Offset: start.Offset, Name: name.Text}
	for !p.match(RBRACE) {
		entry, err := p.expect(IDENT)
		if err != nil {
			return nil, err
		}
		var value *int64
		if p.match(ASSIGN) {
			negative := p.match(MINUS)
			num, err := p.expect(NUMBER)
			if err != nil {
				return nil, err
			}
			v, _ := strconv.ParseInt(num.Text, 10, 64)
			if negative {
				v = -v
			}
			value = &v
		}
		if err := p.ns.AddEntry(enum, entry.Text, value, entry.Offset); err != nil {
			return nil, err
		}
		decl.Entries = append(decl.Entries, entry.Text)
		p.match(COMMA)
	}
	return decl, nil
}

func (p *parser) letStmt() (Stmt, error) {
	start := p.advance()
	name, err := p.expect(IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(ASSIGN); err != nil {
		return nil, err
	}
	value, err := p.expr()
	if err != nil {
		return nil, err
	}
	return &LetStmt{Offset: start.Offset, Name: name.Text, Sym: p.ns.Symbol(name.Text), Value: value}, nil
}

func (p *parser) fnDecl() (Stmt, error) {
	start := p.advance()
	name, err := p.expect(IDENT)
	if err != nil {
		return nil, err
	}
	decl := &FnDecl{Offset: start.Offset, Name: name.Text, Sym: p.ns.Symbol(name.Text)}
	if _, err := p.expect(LPAREN); err != nil {
		return nil, err
	}
	for !p.match(RPAREN) {
		if len(decl.Params) > 0 {
			if _, err := p.expect(COMMA); err != nil {
				return nil, err
			}
		}
		param, err := p.expect(IDENT)
		if err != nil {
			return nil, err
		}
		decl.Params = append(decl.Params, &Param{Name: param.Text, Sym: p.ns.Symbol(param.Text)})
	}
	if p.peek().Kind != LBRACE {
		return nil, p.errorf(p.peek(), "expected function body, found %s", p.peek())
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	decl.Body = body
	return decl, nil
}

func (p *parser) retainStmt() (Stmt, error) {
	start := p.advance()
	stmt := &RetainStmt{Offset: start.Offset}
	for {
		name, err := p.expect(IDENT)
		if err != nil {
			return nil, err
		}
		p.ns.RetainProperty(name.Text)
		stmt.Names = append(stmt.Names, name.Text)
		if !p.match(COMMA) {
			return stmt, nil
		}
	}
}

func (p *parser) returnStmt() (Stmt, error) {
	start := p.advance()
	stmt := &ReturnStmt{Offset: start.Offset}
	switch p.peek().Kind {
	case RBRACE, SEMICOLON, EOF:
		return stmt, nil
	}
	value, err := p.expr()
	if err != nil {
		return nil, err
	}
	stmt.Value = value
	return stmt, nil
}

func (p *parser) ifStmt() (*IfStmt, error) {
	start := p.advance()
	cond, err := p.expr()
	if err != nil {
		return nil, err
	}
	if p.peek().Kind != LBRACE {
		return nil, p.errorf(p.peek(), "expected block after if condition, found %s", p.peek())
	}
	then, err := p.block()
	if err != nil {
		return nil, err
	}
	stmt := &IfStmt{Offset: start.Offset, Cond: cond, Then: then}
	if !p.match(ELSE) {
		return stmt, nil
	}
	switch p.peek().Kind {
	case IF:
		stmt.Else, err = p.ifStmt()
	case LBRACE:
		stmt.Else, err = p.block()
	default:
		return nil, p.errorf(p.peek(), "expected if or block after else, found %s", p.peek())
	}
	if err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *parser) block() (*BlockStmt, error) {
	start, err := p.expect(LBRACE)
	if err != nil {
		return nil, err
	}
	block := &BlockStmt{Offset: start.Offset}
	p.skipSeparators()
	for !p.match(RBRACE) {
		if p.peek().Kind == EOF {
			return nil, p.errorf(start, "block is never closed")
		}
		stmt, err := p.statement(false)
		if err != nil {
			return nil, err
		}
		block.Stmts = append(block.Stmts, stmt)
		p.skipSeparators()
	}
	return block, nil
}

func (p *parser) simpleStmt() (Stmt, error) {
	x, err := p.expr()
	if err != nil {
		return nil, err
	}
	if p.peek().Kind != ASSIGN {
		return &ExprStmt{X: x}, nil
	}
	eq := p.advance()
	value, err := p.expr()
	if err != nil {
		return nil, err
	}
	switch target := x.(type) {
	case *Ident:
		return &AssignStmt{Offset: target.Offset, Name: target.Name, Sym: p.ns.Symbol(target.Name), Value: value}, nil
	case *PropExpr:
		return &SetPropStmt{Offset: target.Offset, Target: target.X, Prop: target.Prop, Value: value}, nil
	case *ForeignExpr:
		return nil, p.errorf(eq, "cannot assign to imported name %s", target.Ref)
	}
	return nil, p.errorf(eq, "invalid assignment target")
}

func (p *parser) expr() (Expr, error) {
	left, err := p.additive()
	if err != nil {
		return nil, err
	}
	for {
		op := p.peek()
		switch op.Kind {
		case EQUALS, NOT_EQ, LESS, GREATER:
		default:
			return left, nil
		}
		p.advance()
		right, err := p.additive()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Offset: op.Offset, Op: op.Kind, Left: left, Right: right}
	}
}

func (p *parser) additive() (Expr, error) {
	left, err := p.term()
	if err != nil {
		return nil, err
	}
	for p.peek().Kind == PLUS || p.peek().Kind == MINUS {
		op := p.advance()
		right, err := p.term()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Offset: op.Offset, Op: op.Kind, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) term() (Expr, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for p.peek().Kind == STAR || p.peek().Kind == SLASH {
		op := p.advance()
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Offset: op.Offset, Op: op.Kind, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) unary() (Expr, error) {
	if op := p.peek(); op.Kind == NOT || op.Kind == MINUS {
		p.advance()
		x, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Offset: op.Offset, Op: op.Kind, X: x}, nil
	}
	return p.postfix()
}

func (p *parser) postfix() (Expr, error) {
	x, err := p.primary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.peek().Kind {
		case DOT:
			p.advance()
			name, err := p.expect(IDENT)
			if err != nil {
				return nil, err
			}
			x = &PropExpr{Offset: x.Pos(), X: x, Name: name.Text, Prop: p.ns.Property(name.Text)}
		case LPAREN:
			open := p.advance()
			args, err := p.args()
			if err != nil {
				return nil, err
			}
			x = &CallExpr{Offset: open.Offset, Callee: x, Args: args}
		default:
			return x, nil
		}
	}
}

// args parses a comma separated list; the opening paren is already consumed.
func (p *parser) args() ([]Expr, error) {
	var args []Expr
	for !p.match(RPAREN) {
		if len(args) > 0 {
			if _, err := p.expect(COMMA); err != nil {
				return nil, err
			}
		}
		arg, err := p.expr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	return args, nil
}

func (p *parser) primary() (Expr, error) {
	tok := p.peek()
	switch tok.Kind {
	case NUMBER:
		p.advance()
		v, _ := strconv.ParseInt(tok.Text, 10, 64)
		return &NumberLit{Offset: tok.Offset, Value: v}, nil
	case STRING:
		p.advance()
		return &StringLit{Offset: tok.Offset, Value: tok.Text}, nil
	case TRUE, FALSE:
		p.advance()
		return &BoolLit{Offset: tok.Offset, Value: tok.Kind == TRUE}, nil
	case NIL:
		p.advance()
		return &NilLit{Offset: tok.Offset}, nil
	case IDENT:
		if p.peekAt(1).Kind == DOT && p.peekAt(2).Kind == IDENT && p.ns.HasImportAlias(tok.Text) {
			return p.foreign(), nil
		}
		p.advance()
		return &Ident{Offset: tok.Offset, Name: tok.Text}, nil
	case DOLLAR:
		p.advance()
		name, err := p.expect(IDENT)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(LPAREN); err != nil {
			return nil, err
		}
		args, err := p.args()
		if err != nil {
			return nil, err
		}
		return &IntrinsicExpr{Offset: tok.Offset, Sym: p.ns.Intrinsic(name.Text), Args: args}, nil
	case LPAREN:
		p.advance()
		x, err := p.expr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RPAREN); err != nil {
			return nil, err
		}
		return x, nil
	case LBRACE:
		return p.object()
	}
	return nil, p.errorf(tok, "unexpected %s", tok)
}

// foreign parses alias.Name with an optional .Member.
func (p *parser) foreign() Expr {
	alias := p.advance()
	p.advance() // .
	name := p.advance()
	member := ""
	e := &ForeignExpr{Offset: alias.Offset}
	if p.peek().Kind == DOT && p.peekAt(1).Kind == IDENT {
		p.advance()
		member = p.advance().Text
		e.MemberSym = p.ns.Property(member)
	}
	e.Ref = p.ns.AddForeignRef(alias.Text, name.Text, member, alias.Offset)
	return e
}

func (p *parser) object() (Expr, error) {
	start := p.advance()
	obj := &ObjectExpr{Offset: start.Offset}
	for !p.match(RBRACE) {
		key, err := p.expect(IDENT)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(COLON); err != nil {
			return nil, err
		}
		value, err := p.expr()
		if err != nil {
			return nil, err
		}
		obj.Keys = append(obj.Keys, p.ns.Property(key.Text))
		obj.Values = append(obj.Values, value)
		p.match(COMMA)
	}
	return obj, nil
}
