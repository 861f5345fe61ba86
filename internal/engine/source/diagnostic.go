package source

import (
	"fmt"
	"strings"
)

// NoPosition marks an Error that is not tied to a character offset.
const NoPosition = -1

// Error is a lexical, syntactic or analysis diagnostic. Unit and Offset are
// optional; when both are present the error renders the offending line with
// a caret under the column.
type Error struct {
	Message string
	Unit    *Unit
	Offset  int
}

func Errorf(unit *Unit, offset int, format string, args ...any) *Error {
	return &Error{Message: fmt.Sprintf(format, args...), Unit: unit, Offset: offset}
}

func (e *Error) Error() string {
	return e.Render()
}

// Locator returns "file:row:col", "file" or "" depending on what is known.
func (e *Error) Locator() string {
	if e.Unit == nil {
		return ""
	}
	if e.Offset < 0 {
		return e.Unit.Name()
	}
	row, col := e.Unit.PositionToRowAndCol(e.Offset)
	return fmt.Sprintf("%s:%d:%d", e.Unit.Name(), row, col)
}

// Render produces the message, the locator, the source line and a caret
// aligned under the offending column.
func (e *Error) Render() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Unit == nil {
		return b.String()
	}
	fmt.Fprintf(&b, "\n  at %s", e.Locator())
	if e.Offset < 0 {
		return b.String()
	}
	row, col := e.Unit.PositionToRowAndCol(e.Offset)
	line := e.Unit.Line(row)
	gutter := fmt.Sprintf("%4d | ", row)
	fmt.Fprintf(&b, "\n%s%s\n", gutter, line)
	b.WriteString(strings.Repeat(" ", len(gutter)))
	b.WriteString(caretPadding(line, col))
	b.WriteString("^")
	return b.String()
}

// caretPadding keeps tabs so the caret lines up in terminals.
func caretPadding(line string, col int) string {
	var b strings.Builder
	for i := 0; i < col-1 && i < len(line); i++ {
		if line[i] == '\t' {
			b.WriteByte('\t')
		} else {
			b.WriteByte(' ')
		}
	}
	for i := len(line); i < col-1; i++ {
		b.WriteByte(' ')
	}
	return b.String()
}
