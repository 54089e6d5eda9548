// Package synth turns resolved methods, synthesized destructors and field
// accessors into ABI-exact wrapper function signatures.
//
// Every wrapper gets a unique exported name. When several methods collide on
// the same base name, caption strategies are tried in a fixed priority order
// (no caption, argument count, argument names, argument types) and the first
// strategy whose captions are pairwise distinct wins; a group no strategy can
// split is a fatal configuration error.
//
// Concrete template instantiations observed in signatures are recorded in a
// registry so downstream generators know which specializations need their own
// bindings. Parametric (uninstantiated) templates are never synthesized.
package synth
