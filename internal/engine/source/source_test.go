package source

import (
	"strings"
	"testing"
)

func TestUnit_ShortName(t *testing.T) {
	tests := []struct {
		location string
		want     string
	}{
		{"/proj/util.wv", "util"},
		{"/proj/my-util.wv", "myutil"},
		{"/proj/lib/a.b.wv", "a"},
		{"/proj/util.test.wv", "util"},
		{"/proj/.hidden.wv", "ns"},
		{"/proj/snake_case.wv", "snake_case"},
		{"/proj/---.wv", "ns"},
		{"noext", "noext"},
	}

	for _, tt := range tests {
		u := NewUnit("", tt.location)
		if got := u.ShortName(); got != tt.want {
			t.Errorf("ShortName(%q) = %q, want %q", tt.location, got, tt.want)
		}
	}
}

func TestUnit_PositionToRowAndCol(t *testing.T) {
	u := NewUnit("let a = 1\nlet b = 2\n\nlet c", "/x.wv")

	tests := []struct {
		offset  int
		row     int
		col     int
		comment string
	}{
		{0, 1, 1, "start"},
		{4, 1, 5, "first line"},
		{9, 1, 10, "newline belongs to its line"},
		{10, 2, 1, "second line start"},
		{20, 3, 1, "empty line"},
		{25, 4, 5, "last char"},
		{999, 4, 6, "clamped past end"},
		{-3, 1, 1, "clamped before start"},
	}

	for _, tt := range tests {
		row, col := u.PositionToRowAndCol(tt.offset)
		if row != tt.row || col != tt.col {
			t.Errorf("%s: offset %d = %d:%d, want %d:%d", tt.comment, tt.offset, row, col, tt.row, tt.col)
		}
	}
}

func TestError_Render(t *testing.T) {
	u := NewUnit("let a = 1\nlet b = ?\n", "/proj/main.wv")
	err := Errorf(u, 18, "unexpected character %q", '?')

	got := err.Error()
	lines := strings.Split(got, "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 rendered lines, got %d:\n%s", len(lines), got)
	}
	if lines[0] != `unexpected character '?'` {
		t.Errorf("message line = %q", lines[0])
	}
	if lines[1] != "  at /proj/main.wv:2:9" {
		t.Errorf("locator line = %q", lines[1])
	}
	if lines[2] != "   2 | let b = ?" {
		t.Errorf("source line = %q", lines[2])
	}
	if strings.Index(lines[3], "^") != strings.Index(lines[2], "?") {
		t.Errorf("caret misaligned:\n%s\n%s", lines[2], lines[3])
	}
}

func TestError_RenderWithoutPosition(t *testing.T) {
	if got := (&Error{Message: "boom", Offset: NoPosition}).Error(); got != "boom" {
		t.Errorf("expected bare message, got %q", got)
	}
	u := NewUnit("x", "/a.wv")
	if got := (&Error{Message: "boom", Unit: u, Offset: NoPosition}).Error(); got != "boom\n  at /a.wv" {
		t.Errorf("expected file-only locator, got %q", got)
	}
}
