package symbol

import (
	"testing"

	"weave/internal/engine/emit"
)

func TestID_Deterministic(t *testing.T) {
	a := New("util", "foo")
	b := New("util", "foo")
	if a == b {
		t.Fatal("expected distinct identities")
	}
	if a.ID() != "util:foo" || a.ID() != b.ID() {
		t.Errorf("expected identical ids, got %q and %q", a.ID(), b.ID())
	}
	if ID("util", "foo") != a.ID() {
		t.Errorf("ID helper disagrees with Symbol.ID")
	}
	if got := NewProperty("size", false).ID(); got != ".size" {
		t.Errorf("property id = %q, want .size", got)
	}
}

func TestSymbol_DefaultCode(t *testing.T) {
	tests := []struct {
		sym  *Symbol
		want string
	}{
		{New("main", "x"), `"main:x"`},
		{NewProperty("size", false), `"size"`},
		{New("", "orphan"), `"orphan"`},
	}

	for _, tt := range tests {
		got, err := emit.Disassemble(tt.sym.Code())
		if err != nil {
			t.Fatalf("disassemble %s: %v", tt.sym, err)
		}
		if got != tt.want {
			t.Errorf("%s code = %s, want %s", tt.sym, got, tt.want)
		}
	}
}

func TestSymbol_Mangle(t *testing.T) {
	s := New("main", "x")
	if !s.Mangle(3) {
		t.Fatal("expected namespace symbol to mangle")
	}
	if got, _ := emit.Disassemble(s.Code()); got != "3" {
		t.Errorf("mangled code = %s, want 3", got)
	}

	kept := NewProperty("onClick", true)
	if kept.Mangle(4) {
		t.Error("retained property must not mangle")
	}
	if got, _ := emit.Disassemble(kept.Code()); got != `"onClick"` {
		t.Errorf("retained code = %s", got)
	}

	sys := NewIntrinsic("print")
	if sys.Mangle(5) {
		t.Error("intrinsic must not mangle")
	}
	if got, _ := emit.Disassemble(emit.Join(sys.Call(1), emit.Number(7))); got != `(syscall print 7)` {
		t.Errorf("intrinsic call = %s", got)
	}
}

func TestForeignRef_ResolveOnce(t *testing.T) {
	ref := NewForeignRef("util", "Color", "RED", 12)
	if ref.Resolved() {
		t.Fatal("new reference must be unresolved")
	}
	if err := ref.ResolveEnumMember("util", "Color", "RED", 1); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if err := ref.ResolveValue(New("util", "Color")); err == nil {
		t.Error("expected second resolution to fail")
	}
	res := ref.Resolution()
	if res.Kind != EnumMember || res.Value != 1 || res.Entry != "RED" {
		t.Errorf("unexpected resolution %+v", res)
	}
	if ref.String() != "util.Color.RED" {
		t.Errorf("String() = %q", ref.String())
	}
}
