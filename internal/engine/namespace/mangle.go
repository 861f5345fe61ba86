package namespace

import (
	"sort"

	"weave/internal/engine/symbol"
)

// MangleEntry describes one assigned code, for name maps.
type MangleEntry struct {
	Namespace string // empty for property symbols
	Name      string
	Kind      symbol.Kind
	Code      int64
	Uses      int
}

// Mangle assigns dense numeric codes to every mangle-eligible symbol group of
// the given namespaces and to every property group. Groups are ordered by
// size, largest first, so the most referenced names get the shortest
// encodings; equal sizes keep the order of namespaces, then first use. A group
// whose leading identity is retained is skipped and consumes no code.
func (c *Context) Mangle(namespaces []*Namespace) []MangleEntry {
	type group struct {
		namespace string
		name      string
		members   []*symbol.Symbol
	}

	var pool []group
	for _, ns := range namespaces {
		for _, name := range ns.symbolOrder {
			pool = append(pool, group{namespace: ns.ID, name: name, members: ns.symbols[name]})
		}
	}
	for _, name := range c.propertyOrder {
		pool = append(pool, group{name: name, members: c.properties[name]})
	}

	sort.SliceStable(pool, func(i, j int) bool {
		return len(pool[i].members) > len(pool[j].members)
	})

	entries := make([]MangleEntry, 0, len(pool))
	next := int64(0)
	for _, g := range pool {
		if len(g.members) == 0 || g.members[0].Retained() {
			continue
		}
		for _, sym := range g.members {
			sym.Mangle(next)
		}
		entries = append(entries, MangleEntry{
			Namespace: g.namespace,
			Name:      g.name,
			Kind:      g.members[0].Kind(),
			Code:      next,
			Uses:      len(g.members),
		})
		next++
	}
	return entries
}
