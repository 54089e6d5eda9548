// Package handle is the runtime vocabulary generated bindings use to hold
// and navigate native objects: owning and non-owning pointers, non-null
// references, casts along the class graph, and weak references for types
// whose ecosystem reports external deletion.
//
// The package bridges a foreign memory model, so its unchecked operations
// are deliberately explicit rather than hidden. Each one documents its exact
// precondition:
//
//   - Owned assumes no other owner exists; its Free runs the native deletion
//     primitive exactly once.
//   - UncheckedDowncast assumes the asserted dynamic type is correct; a
//     wrong assertion is undefined behavior, exactly like a C++ static_cast
//     to the wrong derived type.
//
// Upcasts are always safe. Downcast (the checked form) consults the live
// type and returns ok=false on mismatch instead of crashing.
package handle
