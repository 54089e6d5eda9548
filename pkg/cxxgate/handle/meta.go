package handle

import "unsafe"

// Meta describes one bound class to the pointer vocabulary: its place in the
// class graph and the native primitives the wrappers expose.
type Meta struct {
	// Name is the qualified C++ class name, for diagnostics.
	Name string

	// Bases lists the class's base metas in declaration order. Member
	// exposure chains through Bases[0] only; casts may target any entry.
	Bases []*Meta

	// Delete invokes the native deletion primitive. Nil for types the
	// bindings never own.
	Delete func(unsafe.Pointer)

	// DynamicType reports the meta of the live object behind a pointer,
	// usually backed by a native type-probe helper. Nil when the ecosystem
	// offers no runtime type information; checked downcasts then always
	// fail rather than guess.
	DynamicType func(unsafe.Pointer) *Meta
}

// FirstBase returns the first-listed base, or nil at the top of the chain.
func (m *Meta) FirstBase() *Meta {
	if m == nil || len(m.Bases) == 0 {
		return nil
	}
	return m.Bases[0]
}

// DerivesFrom reports whether m is base or inherits from it, through any
// path.
func (m *Meta) DerivesFrom(base *Meta) bool {
	if m == nil || base == nil {
		return false
	}
	if m == base {
		return true
	}
	for _, b := range m.Bases {
		if b.DerivesFrom(base) {
			return true
		}
	}
	return false
}
