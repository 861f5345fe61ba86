package source

import (
	"path/filepath"
	"sort"
	"strings"
	"unicode"
)

// Unit is one loaded source text together with the location it was read from.
type Unit struct {
	text     string
	location string

	lineStarts []int
}

func NewUnit(text, location string) *Unit {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &Unit{text: text, location: location, lineStarts: starts}
}

func (u *Unit) Text() string {
	return u.text
}

// Name is the location string the unit was loaded from.
func (u *Unit) Name() string {
	return u.location
}

// ShortName is the base name up to its first dot, with every non-word
// character removed. It is the default namespace id for the unit.
func (u *Unit) ShortName() string {
	base, _, _ := strings.Cut(filepath.Base(u.location), ".")
	var b strings.Builder
	b.Grow(len(base))
	for _, r := range base {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "ns"
	}
	return b.String()
}

// Dir is the directory imports of this unit are resolved against.
func (u *Unit) Dir() string {
	return filepath.Dir(u.location)
}

// PositionToRowAndCol maps a byte offset to a 1-based row and column. Offsets
// outside the text are clamped.
func (u *Unit) PositionToRowAndCol(offset int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if offset > len(u.text) {
		offset = len(u.text)
	}
	row := sort.Search(len(u.lineStarts), func(i int) bool {
		return u.lineStarts[i] > offset
	}) - 1
	return row + 1, offset - u.lineStarts[row] + 1
}

// Line returns the text of the 1-based row without its line terminator.
func (u *Unit) Line(row int) string {
	if row < 1 || row > len(u.lineStarts) {
		return ""
	}
	start := u.lineStarts[row-1]
	end := len(u.text)
	if row < len(u.lineStarts) {
		end = u.lineStarts[row] - 1
	}
	return strings.TrimSuffix(u.text[start:end], "\r")
}
