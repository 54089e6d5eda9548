// Package cxxgate orchestrates binding generation for one C++ module: it
// ingests a declaration stream, resolves inheritance, decides allocation
// placement, synthesizes the flat FFI surface, and persists the processed
// database for dependent modules.
//
// The heavy lifting lives in the subpackages (decl, inherit, alloc, synth,
// ffi, moddb); this package wires them into a run. A Pipeline sweeps the
// declaration database until every item carries all of its pass markers,
// which makes a run restartable and order-insensitive: a pass that cannot
// handle an item yet leaves it unmarked for the next sweep, and a sweep that
// makes no progress reports the remaining items as permanently stuck instead
// of spinning.
package cxxgate
