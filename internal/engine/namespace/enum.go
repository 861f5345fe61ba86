package namespace

import (
	"fmt"

	coreerrors "weave/internal/core/errors"
	"weave/internal/engine/source"
)

type Enum struct {
	Name    string
	Offset  int
	Entries []*EnumEntry

	byName map[string]*EnumEntry
}

type EnumEntry struct {
	Name     string
	Explicit bool
	Value    int64
	Offset   int
}

func (e *Enum) Entry(name string) (*EnumEntry, bool) {
	entry, ok := e.byName[name]
	return entry, ok
}

// DeclareEnum adds an empty enum to the namespace.
func (ns *Namespace) DeclareEnum(name string, offset int) (*Enum, error) {
	if _, exists := ns.enums[name]; exists {
		return nil, source.Errorf(ns.Source, offset, "enum %s is declared twice", name)
	}
	e := &Enum{Name: name, Offset: offset, byName: make(map[string]*EnumEntry)}
	ns.enums[name] = e
	ns.enumOrder = append(ns.enumOrder, name)
	return e, nil
}

// AddEntry appends an entry. A nil value leaves it for the program-wide
// allocator.
func (ns *Namespace) AddEntry(e *Enum, name string, value *int64, offset int) error {
	if _, exists := e.byName[name]; exists {
		return source.Errorf(ns.Source, offset, "enum %s already has an entry %s", e.Name, name)
	}
	entry := &EnumEntry{Name: name, Offset: offset}
	if value != nil {
		entry.Explicit = true
		entry.Value = *value
	}
	e.Entries = append(e.Entries, entry)
	e.byName[name] = entry
	return nil
}

func (ns *Namespace) Enum(name string) (*Enum, bool) {
	e, ok := ns.enums[name]
	return e, ok
}

// Enums returns the namespace's enums in declaration order.
func (ns *Namespace) Enums() []*Enum {
	out := make([]*Enum, 0, len(ns.enumOrder))
	for _, name := range ns.enumOrder {
		out = append(out, ns.enums[name])
	}
	return out
}

// EnumEntryName is the fully qualified registration name of an entry.
func (ns *Namespace) EnumEntryName(enum, entry string) string {
	return fmt.Sprintf("%s:%s.%s", ns.ID, enum, entry)
}

func (ns *Namespace) MarkEnumUsed(enum, entry string) {
	ns.usedEnums[enum+"."+entry] = true
}

func (ns *Namespace) EnumUsed(enum, entry string) bool {
	return ns.usedEnums[enum+"."+entry]
}

// AssignEnumValues gives every implicit entry of the program its value. The
// counter starts at 1, is shared by all enums, only moves forward and skips
// every value claimed explicitly anywhere in the program.
func (c *Context) AssignEnumValues() error {
	if c.enumsAssigned {
		return nil
	}

	claimed := make(map[int64]string)
	for _, ns := range c.order {
		for _, e := range ns.Enums() {
			for _, entry := range e.Entries {
				if !entry.Explicit {
					continue
				}
				name := ns.EnumEntryName(e.Name, entry.Name)
				if owner, dup := claimed[entry.Value]; dup {
					de := coreerrors.Newf(coreerrors.CodeConflict, "enum value %d of %s is already used by %s", entry.Value, name, owner)
					de.Err = source.Errorf(ns.Source, entry.Offset, "duplicate enum value %d", entry.Value)
					return de.WithContext(coreerrors.CtxEnum, name)
				}
				claimed[entry.Value] = name
			}
		}
	}

	next := int64(1)
	for _, ns := range c.order {
		for _, e := range ns.Enums() {
			for _, entry := range e.Entries {
				if entry.Explicit {
					if entry.Value >= next {
						next = entry.Value + 1
					}
					continue
				}
				for {
					if _, taken := claimed[next]; !taken {
						break
					}
					next++
				}
				entry.Value = next
				claimed[next] = ns.EnumEntryName(e.Name, entry.Name)
				next++
			}
		}
	}

	c.enumsAssigned = true
	return nil
}
