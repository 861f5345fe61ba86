package ports

import (
	"context"

	"weave/internal/data/symbolmap"
	"weave/internal/engine/linker"
)

// Builder links the program rooted at an entry file.
type Builder interface {
	Build(ctx context.Context, entry string) (*linker.Result, error)
}

// SymbolStore abstracts name-map persistence for mangled builds.
type SymbolStore interface {
	SaveBuild(build symbolmap.Build, entries []symbolmap.Entry) error
	Lookup(buildID string, code int64) (symbolmap.Entry, error)
	LatestBuild() (symbolmap.Build, error)
	Prune(keep int) (int, error)
	Close() error
}
