package syntax

import (
	"strconv"
	"unicode"
	"unicode/utf8"

	"weave/internal/engine/source"
)

var keywords = map[string]TokenKind{
	"import": IMPORT,
	"from":   FROM,
	"enum":   ENUM,
	"let":    LET,
	"fn":     FN,
	"retain": RETAIN,
	"return": RETURN,
	"if":     IF,
	"else":   ELSE,
	"true":   TRUE,
	"false":  FALSE,
	"nil":    NIL,
}

var punctuation = map[rune]TokenKind{
	'{': LBRACE,
	'}': RBRACE,
	'(': LPAREN,
	')': RPAREN,
	'.': DOT,
	',': COMMA,
	':': COLON,
	';': SEMICOLON,
	'$': DOLLAR,
	'<': LESS,
	'>': GREATER,
	'+': PLUS,
	'-': MINUS,
	'*': STAR,
	'/': SLASH,
}

// lexer holds the state of one scanning pass over a unit's text.
type lexer struct {
	unit *source.Unit
	src  string
	pos  int
}

// Tokenize splits the unit's text into tokens, always ending with EOF. It is a
// pure function of the text.
func Tokenize(unit *source.Unit) ([]Token, error) {
	l := &lexer{unit: unit, src: unit.Text()}
	var tokens []Token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Kind == EOF {
			return tokens, nil
		}
	}
}

func (l *lexer) peek() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.src[l.pos:])
	return r
}

func (l *lexer) peekAt(n int) byte {
	if l.pos+n >= len(l.src) {
		return 0
	}
	return l.src[l.pos+n]
}

func (l *lexer) advance() rune {
	r, size := utf8.DecodeRuneInString(l.src[l.pos:])
	l.pos += size
	return r
}

// skipTrivia discards whitespace and line comments.
func (l *lexer) skipTrivia() {
	for l.pos < len(l.src) {
		r := l.peek()
		switch {
		case unicode.IsSpace(r):
			l.advance()
		case r == '/' && l.peekAt(1) == '/':
			for l.pos < len(l.src) && l.peek() != '\n' {
				l.advance()
			}
		default:
			return
		}
	}
}

func (l *lexer) next() (Token, error) {
	l.skipTrivia()
	start := l.pos
	if l.pos >= len(l.src) {
		return Token{Kind: EOF, Offset: start}, nil
	}

	r := l.peek()
	switch {
	case r == '_' || unicode.IsLetter(r):
		return l.scanIdent(), nil
	case r >= '0' && r <= '9':
		return l.scanNumber()
	case r == '"':
		return l.scanString()
	}

	l.advance()
	switch r {
	case '=':
		if l.peek() == '=' {
			l.advance()
			return Token{Kind: EQUALS, Text: "==", Offset: start}, nil
		}
		return Token{Kind: ASSIGN, Text: "=", Offset: start}, nil
	case '!':
		if l.peek() == '=' {
			l.advance()
			return Token{Kind: NOT_EQ, Text: "!=", Offset: start}, nil
		}
		return Token{Kind: NOT, Text: "!", Offset: start}, nil
	}
	if kind, ok := punctuation[r]; ok {
		return Token{Kind: kind, Text: string(r), Offset: start}, nil
	}
	return Token{}, source.Errorf(l.unit, start, "unexpected character %q", r)
}

func (l *lexer) scanIdent() Token {
	start := l.pos
	for l.pos < len(l.src) {
		r := l.peek()
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			break
		}
		l.advance()
	}
	text := l.src[start:l.pos]
	kind := IDENT
	if kw, ok := keywords[text]; ok {
		kind = kw
	}
	return Token{Kind: kind, Text: text, Offset: start}
}

func (l *lexer) scanNumber() (Token, error) {
	start := l.pos
	for l.pos < len(l.src) && l.src[l.pos] >= '0' && l.src[l.pos] <= '9' {
		l.pos++
	}
	if r := l.peek(); r == '_' || unicode.IsLetter(r) {
		return Token{}, source.Errorf(l.unit, l.pos, "malformed number")
	}
	text := l.src[start:l.pos]
	if _, err := strconv.ParseInt(text, 10, 64); err != nil {
		return Token{}, source.Errorf(l.unit, start, "number %s is out of range", text)
	}
	return Token{Kind: NUMBER, Text: text, Offset: start}, nil
}

// scanString reads a double-quoted literal with Go escape rules. Text holds
// the decoded value.
func (l *lexer) scanString() (Token, error) {
	start := l.pos
	l.pos++ // opening quote
	for {
		if l.pos >= len(l.src) || l.src[l.pos] == '\n' {
			return Token{}, source.Errorf(l.unit, start, "unterminated string literal")
		}
		c := l.src[l.pos]
		if c == '\\' {
			l.pos += 2
			continue
		}
		l.pos++
		if c == '"' {
			break
		}
	}
	value, err := strconv.Unquote(l.src[start:l.pos])
	if err != nil {
		return Token{}, source.Errorf(l.unit, start, "invalid string literal: %v", err)
	}
	return Token{Kind: STRING, Text: value, Offset: start}, nil
}
