package handle

import (
	"errors"
	"runtime"
	"unsafe"
)

var (
	// ErrNilPointer reports construction of a non-nullable handle from nil.
	ErrNilPointer = errors.New("handle: nil pointer")

	// ErrNilMeta reports construction without class metadata.
	ErrNilMeta = errors.New("handle: nil class metadata")
)

// Ptr is a nullable, non-owning, const view of a native object. It never
// deletes.
type Ptr struct {
	raw  unsafe.Pointer
	meta *Meta
}

// NewPtr wraps a possibly-nil raw pointer.
func NewPtr(raw unsafe.Pointer, meta *Meta) Ptr {
	return Ptr{raw: raw, meta: meta}
}

// Raw returns the wrapped pointer, possibly nil.
func (p Ptr) Raw() unsafe.Pointer { return p.raw }

// Meta returns the static class metadata of the view.
func (p Ptr) Meta() *Meta { return p.meta }

// IsNil reports whether the view points at nothing.
func (p Ptr) IsNil() bool { return p.raw == nil }

// FirstBase returns the same object viewed as its first-listed base class.
// ok is false at the top of the chain. Chaining FirstBase repeatedly walks
// the whole primary inheritance path.
func (p Ptr) FirstBase() (Ptr, bool) {
	base := p.meta.FirstBase()
	if base == nil {
		return Ptr{}, false
	}
	return Ptr{raw: p.raw, meta: base}, true
}

// Upcast views the object as the given base class. The target must be a
// transitive base of the handle's static type; generated bindings guarantee
// this the way the C++ compiler guarantees a plain derived-to-base
// conversion, so no runtime check is performed.
func (p Ptr) Upcast(base *Meta) Ptr {
	return Ptr{raw: p.raw, meta: base}
}

// UncheckedDowncast views the object as the given derived class.
//
// Precondition: the live object really is of type derived (or further
// derived). A wrong assertion is undefined behavior, mirroring an unchecked
// C++ static_cast.
func (p Ptr) UncheckedDowncast(derived *Meta) Ptr {
	return Ptr{raw: p.raw, meta: derived}
}

// Downcast views the object as the given derived class after checking the
// live type. ok is false when the object is nil, when no runtime type
// information is available, or when the live type does not derive from the
// target. It never crashes on mismatch.
func (p Ptr) Downcast(derived *Meta) (Ptr, bool) {
	if p.raw == nil || p.meta == nil || p.meta.DynamicType == nil {
		return Ptr{}, false
	}
	live := p.meta.DynamicType(p.raw)
	if live == nil || !live.DerivesFrom(derived) {
		return Ptr{}, false
	}
	return Ptr{raw: p.raw, meta: derived}, true
}

// PtrMut is a nullable, non-owning, mutable view. It never deletes.
type PtrMut struct {
	Ptr
}

// NewPtrMut wraps a possibly-nil raw pointer mutably.
func NewPtrMut(raw unsafe.Pointer, meta *Meta) PtrMut {
	return PtrMut{Ptr{raw: raw, meta: meta}}
}

// Const reborrows the view as const.
func (p PtrMut) Const() Ptr { return p.Ptr }

// UpcastMut preserves mutability across an upcast.
func (p PtrMut) UpcastMut(base *Meta) PtrMut {
	return PtrMut{p.Ptr.Upcast(base)}
}

// DowncastMut is the checked downcast preserving mutability.
func (p PtrMut) DowncastMut(derived *Meta) (PtrMut, bool) {
	inner, ok := p.Ptr.Downcast(derived)
	return PtrMut{inner}, ok
}

// Ref is a non-owning const view guaranteed non-nil at construction.
type Ref struct {
	Ptr
}

// NewRef wraps a raw pointer that must not be nil.
func NewRef(raw unsafe.Pointer, meta *Meta) (Ref, error) {
	if raw == nil {
		return Ref{}, ErrNilPointer
	}
	if meta == nil {
		return Ref{}, ErrNilMeta
	}
	return Ref{Ptr{raw: raw, meta: meta}}, nil
}

// RefMut is a non-owning mutable view guaranteed non-nil at construction.
type RefMut struct {
	PtrMut
}

// NewRefMut wraps a raw pointer that must not be nil.
func NewRefMut(raw unsafe.Pointer, meta *Meta) (RefMut, error) {
	if raw == nil {
		return RefMut{}, ErrNilPointer
	}
	if meta == nil {
		return RefMut{}, ErrNilMeta
	}
	return RefMut{PtrMut{Ptr{raw: raw, meta: meta}}}, nil
}

// Owned holds exclusive ownership of a native object: its Free runs the
// class's deletion primitive exactly once.
//
// Precondition: no other owner exists. The contract is a discipline, not a
// statically enforced guarantee; double ownership corrupts the native heap
// the same way a double delete would in C++.
type Owned struct {
	raw   unsafe.Pointer
	meta  *Meta
	freed bool
}

// NewOwned takes ownership of a valid raw pointer. A finalizer backstops
// Free for callers that drop the handle, matching the usual wrapper
// discipline; deterministic cleanup should still call Free explicitly.
func NewOwned(raw unsafe.Pointer, meta *Meta) (*Owned, error) {
	if raw == nil {
		return nil, ErrNilPointer
	}
	if meta == nil || meta.Delete == nil {
		return nil, ErrNilMeta
	}
	o := &Owned{raw: raw, meta: meta}
	runtime.SetFinalizer(o, (*Owned).Free)
	return o, nil
}

// Raw returns the owned pointer without transferring ownership. nil after
// Free.
func (o *Owned) Raw() unsafe.Pointer {
	if o == nil {
		return nil
	}
	return o.raw
}

// Meta returns the static class metadata.
func (o *Owned) Meta() *Meta { return o.meta }

// Borrow returns a const non-owning view. The view must not outlive the
// owner.
func (o *Owned) Borrow() Ptr { return Ptr{raw: o.raw, meta: o.meta} }

// BorrowMut returns a mutable non-owning view. The view must not outlive
// the owner.
func (o *Owned) BorrowMut() PtrMut { return PtrMut{Ptr{raw: o.raw, meta: o.meta}} }

// Release gives up ownership without deleting, returning the raw pointer.
// The caller becomes responsible for the object's lifetime.
func (o *Owned) Release() unsafe.Pointer {
	if o == nil || o.freed {
		return nil
	}
	raw := o.raw
	o.raw = nil
	o.freed = true
	runtime.SetFinalizer(o, nil)
	return raw
}

// Free deletes the owned object. Idempotent: the deletion primitive runs at
// most once.
func (o *Owned) Free() {
	if o == nil || o.freed {
		return
	}
	o.freed = true
	o.meta.Delete(o.raw)
	o.raw = nil
	runtime.SetFinalizer(o, nil)
}
