package syntax

import (
	"reflect"
	"strings"
	"testing"

	"weave/internal/engine/source"
)

func kinds(tokens []Token) []TokenKind {
	out := make([]TokenKind, 0, len(tokens))
	for _, tok := range tokens {
		out = append(out, tok.Kind)
	}
	return out
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []TokenKind
	}{
		{
			name:     "Empty",
			input:    "",
			expected: []TokenKind{EOF},
		},
		{
			name:     "Operators",
			input:    "= == != ! < > + - * /",
			expected: []TokenKind{ASSIGN, EQUALS, NOT_EQ, NOT, LESS, GREATER, PLUS, MINUS, STAR, SLASH, EOF},
		},
		{
			name:     "Delimiters",
			input:    "{ } ( ) . , : ; $",
			expected: []TokenKind{LBRACE, RBRACE, LPAREN, RPAREN, DOT, COMMA, COLON, SEMICOLON, DOLLAR, EOF},
		},
		{
			name:     "Keywords",
			input:    "import from enum let fn retain return if else true false nil",
			expected: []TokenKind{IMPORT, FROM, ENUM, LET, FN, RETAIN, RETURN, IF, ELSE, TRUE, FALSE, NIL, EOF},
		},
		{
			name:     "Comments",
			input:    "let // trailing words\n// whole line\nx",
			expected: []TokenKind{LET, IDENT, EOF},
		},
		{
			name:     "Literals",
			input:    `name_2 42 "a\"b"`,
			expected: []TokenKind{IDENT, NUMBER, STRING, EOF},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Tokenize(source.NewUnit(tt.input, "test.wv"))
			if err != nil {
				t.Fatalf("Tokenize: %v", err)
			}
			if got := kinds(tokens); !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("kinds = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestTokenize_Values(t *testing.T) {
	tokens, err := Tokenize(source.NewUnit("x\n  \"tab\\there\" 17", "test.wv"))
	if err != nil {
		t.Fatal(err)
	}
	want := []Token{
		{Kind: IDENT, Text: "x", Offset: 0},
		{Kind: STRING, Text: "tab\there", Offset: 4},
		{Kind: NUMBER, Text: "17", Offset: 16},
		{Kind: EOF, Offset: 18},
	}
	if !reflect.DeepEqual(tokens, want) {
		t.Errorf("tokens = %+v, want %+v", tokens, want)
	}
}

func TestTokenize_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		message string
	}{
		{"Unexpected character", "let # = 1", "unexpected character"},
		{"Unterminated string", "\"open", "unterminated string"},
		{"String across lines", "\"a\nb\"", "unterminated string"},
		{"Malformed number", "12ab", "malformed number"},
		{"Number out of range", "99999999999999999999", "out of range"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Tokenize(source.NewUnit(tt.input, "test.wv"))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.message) {
				t.Errorf("error %q does not mention %q", err, tt.message)
			}
		})
	}
}
