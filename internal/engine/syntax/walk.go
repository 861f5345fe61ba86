package syntax

// Inspect traverses the tree rooted at n depth-first, calling fn for every
// node. Children are skipped when fn returns false.
func Inspect(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	switch v := n.(type) {
	case *LetStmt:
		Inspect(v.Value, fn)
	case *FnDecl:
		Inspect(v.Body, fn)
	case *ReturnStmt:
		if v.Value != nil {
			Inspect(v.Value, fn)
		}
	case *IfStmt:
		Inspect(v.Cond, fn)
		Inspect(v.Then, fn)
		if v.Else != nil {
			Inspect(v.Else, fn)
		}
	case *BlockStmt:
		for _, s := range v.Stmts {
			Inspect(s, fn)
		}
	case *AssignStmt:
		Inspect(v.Value, fn)
	case *SetPropStmt:
		Inspect(v.Target, fn)
		Inspect(v.Value, fn)
	case *ExprStmt:
		Inspect(v.X, fn)
	case *PropExpr:
		Inspect(v.X, fn)
	case *CallExpr:
		Inspect(v.Callee, fn)
		for _, a := range v.Args {
			Inspect(a, fn)
		}
	case *IntrinsicExpr:
		for _, a := range v.Args {
			Inspect(a, fn)
		}
	case *ObjectExpr:
		for _, x := range v.Values {
			Inspect(x, fn)
		}
	case *BinaryExpr:
		Inspect(v.Left, fn)
		Inspect(v.Right, fn)
	case *UnaryExpr:
		Inspect(v.X, fn)
	}
}
