// Package stdlib embeds the default standard-library namespace.
package stdlib

import (
	_ "embed"
)

// Location is the pseudo path of the embedded source. It never touches the
// file system.
const Location = "$std/std.wv"

//go:embed std.wv
var source string

// Source returns the embedded standard-library text.
func Source() string {
	return source
}
