// Package decl models the C++ declarations the parser front-end reports and
// stores them in an append-only, index-addressed database.
//
// The package has no opinion about the C ABI: it describes the source surface
// (types, classes, bases, methods, fields, enums) exactly as declared.
// Conversion to ABI-safe shapes lives in the ffi package; computing effective
// member sets lives in the inherit package.
//
// # Arena addressing
//
// Database items never hold Go pointers to each other. Every cross-item link
// is an ItemID, a stable index into the arena, so fixpoint passes can
// re-visit and extend the database without invalidating references.
//
// # Pass markers
//
// Each item carries one "already processed" bit per pipeline pass. The
// fixpoint scheduler sweeps unmarked items and marks the ones it handled;
// decl only stores the bits, it attaches no meaning to them.
package decl
