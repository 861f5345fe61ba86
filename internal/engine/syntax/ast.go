package syntax

import (
	"weave/internal/engine/scope"
	"weave/internal/engine/symbol"
)

// Node is any syntax-tree node. Offset is the byte offset of its first token.
type Node interface {
	Pos() int
}

type Stmt interface {
	Node
	stmtNode()
}

type Expr interface {
	Node
	exprNode()
}

// ---- statements ----

type ImportStmt struct {
	Offset int
	Alias  string
	Path   string
}

type EnumDecl struct {
	Offset  int
	Name    string
	Entries []string
}

type LetStmt struct {
	Offset int
	Name   string
	Sym    *symbol.Symbol
	Value  Expr

	usage *scope.SymbolUsage
}

type Param struct {
	Name string
	Sym  *symbol.Symbol
}

type FnDecl struct {
	Offset int
	Name   string
	Sym    *symbol.Symbol
	Params []*Param
	Body   *BlockStmt

	usage *scope.SymbolUsage
}

type RetainStmt struct {
	Offset int
	Names  []string
}

type ReturnStmt struct {
	Offset int
	Value  Expr // nil for a bare return
}

type IfStmt struct {
	Offset int
	Cond   Expr
	Then   *BlockStmt
	Else   Stmt // nil, *BlockStmt or *IfStmt
}

type BlockStmt struct {
	Offset int
	Stmts  []Stmt

	scope *scope.Scope
}

// AssignStmt stores into a binding declared in an enclosing scope.
type AssignStmt struct {
	Offset int
	Name   string
	Sym    *symbol.Symbol
	Value  Expr

	usage *scope.SymbolUsage
}

// SetPropStmt stores into a member of an object.
type SetPropStmt struct {
	Offset int
	Target Expr
	Prop   *symbol.Symbol
	Value  Expr
}

type ExprStmt struct {
	X Expr
}

// ---- expressions ----

type NumberLit struct {
	Offset int
	Value  int64
}

type StringLit struct {
	Offset int
	Value  string
}

type BoolLit struct {
	Offset int
	Value  bool
}

type NilLit struct {
	Offset int
}

// Ident is a bare name. Sym is set when it reads a binding of its own
// namespace, ref when it reads a standard-library name.
type Ident struct {
	Offset int
	Name   string
	Sym    *symbol.Symbol

	usage   *scope.SymbolUsage
	foreign *scope.ForeignSymbolUsage
	ref     *symbol.ForeignRef
}

// ForeignExpr is alias.Name or alias.Name.Member for an import alias.
type ForeignExpr struct {
	Offset    int
	Ref       *symbol.ForeignRef
	MemberSym *symbol.Symbol // property identity for Member, if any

	foreign *scope.ForeignSymbolUsage
}

// EnumRef is a resolved reference to an enum entry of the same namespace.
type EnumRef struct {
	Enum  string
	Entry string
	Value int64
}

type PropExpr struct {
	Offset int
	X      Expr
	Name   string
	Prop   *symbol.Symbol

	enum *EnumRef
}

type CallExpr struct {
	Offset int
	Callee Expr
	Args   []Expr
}

type IntrinsicExpr struct {
	Offset int
	Sym    *symbol.Symbol
	Args   []Expr
}

type ObjectExpr struct {
	Offset int
	Keys   []*symbol.Symbol
	Values []Expr
}

type BinaryExpr struct {
	Offset int
	Op     TokenKind
	Left   Expr
	Right  Expr
}

type UnaryExpr struct {
	Offset int
	Op     TokenKind
	X      Expr
}

func (s *ImportStmt) Pos() int  { return s.Offset }
func (s *EnumDecl) Pos() int    { return s.Offset }
func (s *LetStmt) Pos() int     { return s.Offset }
func (s *FnDecl) Pos() int      { return s.Offset }
func (s *RetainStmt) Pos() int  { return s.Offset }
func (s *ReturnStmt) Pos() int  { return s.Offset }
func (s *IfStmt) Pos() int      { return s.Offset }
func (s *BlockStmt) Pos() int   { return s.Offset }
func (s *AssignStmt) Pos() int  { return s.Offset }
func (s *SetPropStmt) Pos() int { return s.Offset }
func (s *ExprStmt) Pos() int    { return s.X.Pos() }

func (*ImportStmt) stmtNode()  {}
func (*EnumDecl) stmtNode()    {}
func (*LetStmt) stmtNode()     {}
func (*FnDecl) stmtNode()      {}
func (*RetainStmt) stmtNode()  {}
func (*ReturnStmt) stmtNode()  {}
func (*IfStmt) stmtNode()      {}
func (*BlockStmt) stmtNode()   {}
func (*AssignStmt) stmtNode()  {}
func (*SetPropStmt) stmtNode() {}
func (*ExprStmt) stmtNode()    {}

func (e *NumberLit) Pos() int     { return e.Offset }
func (e *StringLit) Pos() int     { return e.Offset }
func (e *BoolLit) Pos() int       { return e.Offset }
func (e *NilLit) Pos() int        { return e.Offset }
func (e *Ident) Pos() int         { return e.Offset }
func (e *ForeignExpr) Pos() int   { return e.Offset }
func (e *PropExpr) Pos() int      { return e.Offset }
func (e *CallExpr) Pos() int      { return e.Offset }
func (e *IntrinsicExpr) Pos() int { return e.Offset }
func (e *ObjectExpr) Pos() int    { return e.Offset }
func (e *BinaryExpr) Pos() int    { return e.Offset }
func (e *UnaryExpr) Pos() int     { return e.Offset }

func (*NumberLit) exprNode()     {}
func (*StringLit) exprNode()     {}
func (*BoolLit) exprNode()       {}
func (*NilLit) exprNode()        {}
func (*Ident) exprNode()         {}
func (*ForeignExpr) exprNode()   {}
func (*PropExpr) exprNode()      {}
func (*CallExpr) exprNode()      {}
func (*IntrinsicExpr) exprNode() {}
func (*ObjectExpr) exprNode()    {}
func (*BinaryExpr) exprNode()    {}
func (*UnaryExpr) exprNode()     {}
