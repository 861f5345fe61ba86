package scope

// Reader is whatever performed a read: in practice a syntax-tree node.
// Readers are compared by identity, so they must be pointers.
type Reader any

// Truthiness is the constant truth value tracked for a binding.
type Truthiness int

const (
	Untracked Truthiness = iota
	Truthy
	Falsy
	Unknown
)

// SymbolUsage records everything known about one binding id in one scope.
type SymbolUsage struct {
	ID          string
	EverDefined bool
	Readers     []Reader

	truthiness Truthiness
}

func (u *SymbolUsage) EverRead() bool {
	return len(u.Readers) > 0
}

func (u *SymbolUsage) AddReader(r Reader) {
	u.Readers = append(u.Readers, r)
}

// RemoveReader drops every occurrence of r and reports whether one existed.
func (u *SymbolUsage) RemoveReader(r Reader) bool {
	return removeReader(&u.Readers, r)
}

// TrackTruthiness folds one observed value into the tracked truthiness. Once a
// binding has been both defined and read, or two different values have been
// seen, the truthiness is Unknown for good.
func (u *SymbolUsage) TrackTruthiness(v Truthiness) {
	if u.truthiness == Unknown {
		return
	}
	if v == Untracked || v == Unknown || (u.EverDefined && u.EverRead()) {
		u.truthiness = Unknown
		return
	}
	if u.truthiness == Untracked {
		u.truthiness = v
		return
	}
	if u.truthiness != v {
		u.truthiness = Unknown
	}
}

// Truthiness returns the constant truth value and whether it is known.
func (u *SymbolUsage) Truthiness() (bool, bool) {
	switch u.truthiness {
	case Truthy:
		return true, true
	case Falsy:
		return false, true
	default:
		return false, false
	}
}

// ForeignSymbolUsage records reads of a name owned by another namespace.
// Alias is empty for the standard-library namespace.
type ForeignSymbolUsage struct {
	Name    string
	Alias   string
	Readers []Reader

	// Resolved is the target namespace's usage, set by cross-linking.
	Resolved *SymbolUsage
	// Enum is set instead of Resolved when the name is an enum in the target.
	Enum bool
}

func (f *ForeignSymbolUsage) AddReader(r Reader) {
	f.Readers = append(f.Readers, r)
	if f.Resolved != nil {
		f.Resolved.AddReader(r)
	}
}

// Link merges this record's readers into target.
func (f *ForeignSymbolUsage) Link(target *SymbolUsage) {
	f.Resolved = target
	target.Readers = append(target.Readers, f.Readers...)
}

// RemoveReader drops r here and from the linked target usage.
func (f *ForeignSymbolUsage) RemoveReader(r Reader) bool {
	removed := removeReader(&f.Readers, r)
	if f.Resolved != nil {
		removed = f.Resolved.RemoveReader(r) || removed
	}
	return removed
}

func removeReader(readers *[]Reader, r Reader) bool {
	kept := (*readers)[:0]
	removed := false
	for _, existing := range *readers {
		if existing == r {
			removed = true
			continue
		}
		kept = append(kept, existing)
	}
	for i := len(kept); i < len(*readers); i++ {
		(*readers)[i] = nil
	}
	*readers = kept
	return removed
}
