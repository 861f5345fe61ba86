package syntax

import "fmt"

// TokenKind identifies the category of a lexed token.
type TokenKind int

const (
	EOF TokenKind = iota

	// Literals
	IDENT
	NUMBER
	STRING

	// Keywords
	IMPORT
	FROM
	ENUM
	LET
	FN
	RETAIN
	RETURN
	IF
	ELSE
	TRUE
	FALSE
	NIL

	// Delimiters
	LBRACE    // {
	RBRACE    // }
	LPAREN    // (
	RPAREN    // )
	DOT       // .
	COMMA     // ,
	COLON     // :
	SEMICOLON // ;
	DOLLAR    // $

	// Operators
	ASSIGN  // =
	EQUALS  // ==
	NOT_EQ  // !=
	LESS    // <
	GREATER // >
	PLUS    // +
	MINUS   // -
	STAR    // *
	SLASH   // /
	NOT     // !
)

var tokenNames = map[TokenKind]string{
	EOF:       "end of file",
	IDENT:     "identifier",
	NUMBER:    "number",
	STRING:    "string",
	IMPORT:    "import",
	FROM:      "from",
	ENUM:      "enum",
	LET:       "let",
	FN:        "fn",
	RETAIN:    "retain",
	RETURN:    "return",
	IF:        "if",
	ELSE:      "else",
	TRUE:      "true",
	FALSE:     "false",
	NIL:       "nil",
	LBRACE:    "{",
	RBRACE:    "}",
	LPAREN:    "(",
	RPAREN:    ")",
	DOT:       ".",
	COMMA:     ",",
	COLON:     ":",
	SEMICOLON: ";",
	DOLLAR:    "$",
	ASSIGN:    "=",
	EQUALS:    "==",
	NOT_EQ:    "!=",
	LESS:      "<",
	GREATER:   ">",
	PLUS:      "+",
	MINUS:     "-",
	STAR:      "*",
	SLASH:     "/",
	NOT:       "!",
}

func (k TokenKind) String() string {
	if name, ok := tokenNames[k]; ok {
		return name
	}
	return fmt.Sprintf("token(%d)", int(k))
}

// Token is one lexeme. Offset is the byte offset of its first character.
type Token struct {
	Kind   TokenKind
	Text   string
	Offset int
}

func (t Token) String() string {
	switch t.Kind {
	case IDENT, NUMBER:
		return fmt.Sprintf("%s %q", t.Kind, t.Text)
	case STRING:
		return "string literal"
	default:
		return fmt.Sprintf("%q", t.Kind.String())
	}
}
