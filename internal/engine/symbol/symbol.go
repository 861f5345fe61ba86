package symbol

import (
	"weave/internal/engine/emit"
)

// Kind distinguishes the three named-entity shapes the linker knows about.
type Kind int

const (
	KindNamespace Kind = iota // bound to one namespace: "<ns>:<name>"
	KindProperty              // program-wide member name: ".<name>"
	KindIntrinsic             // built-in operation invoked by name
)

func (k Kind) String() string {
	switch k {
	case KindNamespace:
		return "namespace"
	case KindProperty:
		return "property"
	case KindIntrinsic:
		return "intrinsic"
	default:
		return "unknown"
	}
}

// Symbol is an identity, not a name: two Symbols with the same ID are distinct
// bindings that share their emitted code.
type Symbol struct {
	name      string
	namespace string
	kind      Kind
	retained  bool
	code      emit.Code
}

// ID returns "<namespace>:<name>" for namespace symbols and ".<name>" for
// property symbols.
func ID(namespaceID, name string) string {
	if namespaceID == "" {
		return "." + name
	}
	return namespaceID + ":" + name
}

// New creates a namespace-scoped symbol. An empty namespace id yields a
// property symbol.
func New(namespaceID, name string) *Symbol {
	if namespaceID == "" {
		return NewProperty(name, false)
	}
	s := &Symbol{name: name, namespace: namespaceID, kind: KindNamespace}
	s.code = emit.String(s.ID())
	return s
}

// NewProperty creates a global symbol. Properties emit their bare name until
// mangled.
func NewProperty(name string, retained bool) *Symbol {
	return &Symbol{name: name, kind: KindProperty, retained: retained, code: emit.String(name)}
}

// NewIntrinsic creates a symbol that always emits a system call by name and is
// never mangled.
func NewIntrinsic(name string) *Symbol {
	return &Symbol{name: name, kind: KindIntrinsic, retained: true}
}

func (s *Symbol) Name() string      { return s.name }
func (s *Symbol) Namespace() string { return s.namespace }
func (s *Symbol) Kind() Kind        { return s.kind }

func (s *Symbol) ID() string {
	if s.kind == KindNamespace {
		return ID(s.namespace, s.name)
	}
	return ID("", s.name)
}

// Retained reports whether the literal name must survive mangling.
func (s *Symbol) Retained() bool {
	return s.retained
}

func (s *Symbol) Retain() {
	s.retained = true
	if s.kind == KindProperty {
		s.code = emit.String(s.name)
	}
}

// Code is the symbol's operand encoding. Intrinsics have none; use Call.
func (s *Symbol) Code() emit.Code {
	return s.code
}

// Mangle replaces the operand encoding with a numeric code. Retained and
// intrinsic symbols keep their literal encoding.
func (s *Symbol) Mangle(n int64) bool {
	if s.retained || s.kind == KindIntrinsic {
		return false
	}
	s.code = emit.Number(n)
	return true
}

// Call encodes an invocation of an intrinsic symbol with argc arguments that
// follow in the stream.
func (s *Symbol) Call(argc int) emit.Code {
	return emit.Syscall(s.name, argc)
}

func (s *Symbol) String() string {
	return s.ID()
}
