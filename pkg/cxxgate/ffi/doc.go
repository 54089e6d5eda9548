// Package ffi defines the C-ABI side of the bridge: how a source type
// crosses the boundary and the shape of synthesized wrapper functions.
//
// Two invariants hold for everything this package produces:
//
//   - no slot carries reference indirection; only raw pointers cross the ABI,
//   - no slot carries a class by value; classes always cross as pointers.
//
// Conversion failures are per-item recoverable: an argument or return type
// that cannot be made ABI-safe rejects its method, never the run.
package ffi
