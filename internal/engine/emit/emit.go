// Package emit holds the low-level encoding of linked programs.
//
// A program is a prefix-encoded instruction stream: every instruction is an
// opcode byte followed by its operands, and every operand is itself an
// instruction. Variable-length payloads use protobuf wire varints so the
// runtime can decode with any protowire-compatible reader.
package emit

import (
	"google.golang.org/protobuf/encoding/protowire"
)

// Code is an encoded fragment. Fragments compose by concatenation.
type Code []byte

type Opcode byte

const (
	OpNumber Opcode = iota + 1
	OpString
	OpNil
	OpTrue
	OpFalse
	OpLoad
	OpDefine
	OpStore
	OpGetProp
	OpSetProp
	OpCall
	OpSyscall
	OpObject
	OpFunc
	OpBlock
	OpIf
	OpReturn
	OpPop
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpEq
	OpNeq
	OpLt
	OpGt
	OpNot
	OpNeg
	OpEnumRegister
)

var opNames = map[Opcode]string{
	OpNumber:       "number",
	OpString:       "string",
	OpNil:          "nil",
	OpTrue:         "true",
	OpFalse:        "false",
	OpLoad:         "load",
	OpDefine:       "define",
	OpStore:        "store",
	OpGetProp:      "get",
	OpSetProp:      "set",
	OpCall:         "call",
	OpSyscall:      "syscall",
	OpObject:       "object",
	OpFunc:         "fn",
	OpBlock:        "block",
	OpIf:           "if",
	OpReturn:       "return",
	OpPop:          "pop",
	OpAdd:          "add",
	OpSub:          "sub",
	OpMul:          "mul",
	OpDiv:          "div",
	OpEq:           "eq",
	OpNeq:          "neq",
	OpLt:           "lt",
	OpGt:           "gt",
	OpNot:          "not",
	OpNeg:          "neg",
	OpEnumRegister: "enum",
}

// arity is the operand count of fixed-shape instructions.
var arity = map[Opcode]int{
	OpNil:     0,
	OpTrue:    0,
	OpFalse:   0,
	OpLoad:    1,
	OpDefine:  2,
	OpStore:   2,
	OpGetProp: 2,
	OpSetProp: 3,
	OpIf:      3,
	OpReturn:  1,
	OpPop:     1,
	OpAdd:     2,
	OpSub:     2,
	OpMul:     2,
	OpDiv:     2,
	OpEq:      2,
	OpNeq:     2,
	OpLt:      2,
	OpGt:      2,
	OpNot:     1,
	OpNeg:     1,
}

func (op Opcode) String() string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return "op?"
}

// Join concatenates fragments in order.
func Join(parts ...Code) Code {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make(Code, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// Raw embeds pre-encoded bytes verbatim.
func Raw(b []byte) Code {
	return append(Code(nil), b...)
}

func Number(n int64) Code {
	return protowire.AppendVarint(Code{byte(OpNumber)}, protowire.EncodeZigZag(n))
}

func String(s string) Code {
	return protowire.AppendString(Code{byte(OpString)}, s)
}

func Bool(v bool) Code {
	if v {
		return Code{byte(OpTrue)}
	}
	return Code{byte(OpFalse)}
}

func Nil() Code {
	return Code{byte(OpNil)}
}

// Instr encodes a fixed-arity instruction. The operand count must match the
// opcode's arity; Disassemble relies on it.
func Instr(op Opcode, operands ...Code) Code {
	return Join(append([]Code{{byte(op)}}, operands...)...)
}

// Block encodes a statement sequence.
func Block(stmts ...Code) Code {
	head := protowire.AppendVarint(Code{byte(OpBlock)}, uint64(len(stmts)))
	return Join(append([]Code{head}, stmts...)...)
}

func Call(callee Code, args ...Code) Code {
	head := protowire.AppendVarint(Code{byte(OpCall)}, uint64(len(args)))
	return Join(append([]Code{head, callee}, args...)...)
}

// Syscall encodes the header of a built-in operation call; its argc
// arguments must follow.
func Syscall(name string, argc int) Code {
	head := protowire.AppendString(Code{byte(OpSyscall)}, name)
	return protowire.AppendVarint(head, uint64(argc))
}

// Object encodes key/value pairs; keys are symbol operands.
func Object(keys, values []Code) Code {
	head := protowire.AppendVarint(Code{byte(OpObject)}, uint64(len(keys)))
	parts := []Code{head}
	for i := range keys {
		parts = append(parts, keys[i], values[i])
	}
	return Join(parts...)
}

func Func(params []Code, body Code) Code {
	head := protowire.AppendVarint(Code{byte(OpFunc)}, uint64(len(params)))
	return Join(append(append([]Code{head}, params...), body)...)
}

// EnumRegister binds a fully qualified enum entry name to its value before
// program code runs.
func EnumRegister(name string, value int64) Code {
	head := protowire.AppendString(Code{byte(OpEnumRegister)}, name)
	return protowire.AppendVarint(head, protowire.EncodeZigZag(value))
}
