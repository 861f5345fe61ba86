package symbol

import "fmt"

// ResolutionKind tags what a foreign reference turned out to denote.
type ResolutionKind int

const (
	Unresolved ResolutionKind = iota
	ValueRef
	EnumMember
)

// Resolution is decided once during cross-linking and never re-inspected.
type Resolution struct {
	Kind ResolutionKind

	// Symbol is the target binding for ValueRef.
	Symbol *Symbol

	// Namespace, Enum, Entry and Value describe an EnumMember.
	Namespace string
	Enum      string
	Entry     string
	Value     int64
}

// ForeignRef is a reference to a name owned by another namespace, or by the
// standard-library namespace when Alias is empty. Member is the name that was
// accessed on it, if any; it only matters when Name turns out to be an enum.
type ForeignRef struct {
	Alias  string
	Name   string
	Member string
	Offset int

	target     *Symbol
	resolution Resolution
}

func NewForeignRef(alias, name, member string, offset int) *ForeignRef {
	return &ForeignRef{Alias: alias, Name: name, Member: member, Offset: offset}
}

// Bind gives the reference its own identity in the target namespace's pool,
// so the read counts towards that name's group when mangling.
func (r *ForeignRef) Bind(target *Symbol) {
	r.target = target
}

// Target returns the identity set by Bind, or nil.
func (r *ForeignRef) Target() *Symbol {
	return r.target
}

func (r *ForeignRef) Resolved() bool {
	return r.resolution.Kind != Unresolved
}

func (r *ForeignRef) Resolution() Resolution {
	return r.resolution
}

// ResolveValue binds the reference to a plain symbol. A reference resolves at
// most once.
func (r *ForeignRef) ResolveValue(target *Symbol) error {
	if r.Resolved() {
		return fmt.Errorf("foreign reference %s already resolved", r)
	}
	r.resolution = Resolution{Kind: ValueRef, Symbol: target}
	return nil
}

func (r *ForeignRef) ResolveEnumMember(namespaceID, enum, entry string, value int64) error {
	if r.Resolved() {
		return fmt.Errorf("foreign reference %s already resolved", r)
	}
	r.resolution = Resolution{
		Kind:      EnumMember,
		Namespace: namespaceID,
		Enum:      enum,
		Entry:     entry,
		Value:     value,
	}
	return nil
}

func (r *ForeignRef) String() string {
	target := r.Name
	if r.Alias != "" {
		target = r.Alias + "." + r.Name
	}
	if r.Member != "" {
		target += "." + r.Member
	}
	return target
}
