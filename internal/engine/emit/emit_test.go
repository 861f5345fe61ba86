package emit

import (
	"bytes"
	"testing"
)

func TestDisassemble(t *testing.T) {
	tests := []struct {
		name string
		code Code
		want string
	}{
		{"number", Number(42), "42"},
		{"negative", Number(-7), "-7"},
		{"string", String("y:foo"), `"y:foo"`},
		{"nil", Nil(), "nil"},
		{"load", Instr(OpLoad, String("y:foo")), `(load "y:foo")`},
		{"define", Instr(OpDefine, Number(0), Instr(OpAdd, Number(1), Number(2))), "(define 0 (add 1 2))"},
		{"call", Call(Instr(OpLoad, Number(1)), Number(2), Bool(true)), "(call (load 1) 2 true)"},
		{"syscall", Join(Syscall("print", 2), String("a"), Nil()), `(syscall print "a" nil)`},
		{"object", Object([]Code{String("x")}, []Code{Number(1)}), `(object "x" 1)`},
		{"func", Func([]Code{String("m:a"), String("m:b")}, Block(Instr(OpReturn, Instr(OpLoad, String("m:a"))))),
			`(fn ("m:a" "m:b") (block (return (load "m:a"))))`},
		{"empty block", Block(), "(block)"},
		{"if", Instr(OpIf, Bool(false), Block(), Nil()), "(if false (block) nil)"},
		{"enum", EnumRegister("m:Color.RED", 1), `(enum "m:Color.RED" 1)`},
		{"sequence", Join(Number(1), Number(2)), "1\n2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Disassemble(tt.code)
			if err != nil {
				t.Fatalf("Disassemble: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDisassemble_Truncated(t *testing.T) {
	code := Instr(OpDefine, String("x"))
	if _, err := Disassemble(code); err == nil {
		t.Error("expected error for missing operand")
	}
	if _, err := Disassemble(Code{0xff}); err == nil {
		t.Error("expected error for unknown opcode")
	}
}

func TestJoin_DoesNotAlias(t *testing.T) {
	a := Number(1)
	joined := Join(a, Number(2))
	joined[0] = 0
	if a[0] != byte(OpNumber) {
		t.Error("Join must copy its inputs")
	}
	raw := []byte{1, 2}
	r := Raw(raw)
	raw[0] = 9
	if !bytes.Equal(r, []byte{1, 2}) {
		t.Error("Raw must copy its input")
	}
}
