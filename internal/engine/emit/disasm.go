package emit

import (
	"fmt"
	"strconv"
	"strings"

	"google.golang.org/protobuf/encoding/protowire"
)

// Disassemble renders a stream as whitespace-separated S-expressions, one per
// top-level instruction.
func Disassemble(c Code) (string, error) {
	var out []string
	rest := []byte(c)
	for len(rest) > 0 {
		text, n, err := decode(rest)
		if err != nil {
			return "", fmt.Errorf("offset %d: %w", len(c)-len(rest), err)
		}
		out = append(out, text)
		rest = rest[n:]
	}
	return strings.Join(out, "\n"), nil
}

// decode renders one instruction and reports how many bytes it spans.
func decode(b []byte) (string, int, error) {
	if len(b) == 0 {
		return "", 0, fmt.Errorf("unexpected end of code")
	}
	op := Opcode(b[0])
	pos := 1

	switch op {
	case OpNumber:
		v, n := protowire.ConsumeVarint(b[pos:])
		if n < 0 {
			return "", 0, protowire.ParseError(n)
		}
		return strconv.FormatInt(protowire.DecodeZigZag(v), 10), pos + n, nil

	case OpString:
		s, n := protowire.ConsumeString(b[pos:])
		if n < 0 {
			return "", 0, protowire.ParseError(n)
		}
		return strconv.Quote(s), pos + n, nil

	case OpEnumRegister:
		name, n := protowire.ConsumeString(b[pos:])
		if n < 0 {
			return "", 0, protowire.ParseError(n)
		}
		pos += n
		v, n := protowire.ConsumeVarint(b[pos:])
		if n < 0 {
			return "", 0, protowire.ParseError(n)
		}
		return fmt.Sprintf("(enum %s %d)", strconv.Quote(name), protowire.DecodeZigZag(v)), pos + n, nil

	case OpSyscall:
		name, n := protowire.ConsumeString(b[pos:])
		if n < 0 {
			return "", 0, protowire.ParseError(n)
		}
		pos += n
		argc, n := protowire.ConsumeVarint(b[pos:])
		if n < 0 {
			return "", 0, protowire.ParseError(n)
		}
		pos += n
		args, used, err := decodeN(b[pos:], int(argc))
		if err != nil {
			return "", 0, err
		}
		return sexpr(op.String(), append([]string{name}, args...)), pos + used, nil

	case OpBlock, OpCall, OpObject, OpFunc:
		count, n := protowire.ConsumeVarint(b[pos:])
		if n < 0 {
			return "", 0, protowire.ParseError(n)
		}
		pos += n
		items := int(count)
		switch op {
		case OpCall:
			items++ // callee
		case OpObject:
			items *= 2
		case OpFunc:
			items++ // body
		}
		parts, used, err := decodeN(b[pos:], items)
		if err != nil {
			return "", 0, err
		}
		if op == OpFunc {
			params := "(" + strings.Join(parts[:len(parts)-1], " ") + ")"
			parts = []string{params, parts[len(parts)-1]}
		}
		return sexpr(op.String(), parts), pos + used, nil
	}

	k, ok := arity[op]
	if !ok {
		return "", 0, fmt.Errorf("unknown opcode %d", op)
	}
	if k == 0 {
		return op.String(), pos, nil
	}
	parts, used, err := decodeN(b[pos:], k)
	if err != nil {
		return "", 0, err
	}
	return sexpr(op.String(), parts), pos + used, nil
}

func decodeN(b []byte, count int) ([]string, int, error) {
	parts := make([]string, 0, count)
	pos := 0
	for i := 0; i < count; i++ {
		text, n, err := decode(b[pos:])
		if err != nil {
			return nil, 0, err
		}
		parts = append(parts, text)
		pos += n
	}
	return parts, pos, nil
}

func sexpr(head string, parts []string) string {
	if len(parts) == 0 {
		return "(" + head + ")"
	}
	return "(" + head + " " + strings.Join(parts, " ") + ")"
}
