package cxxgate

import (
	"github.com/cxxgate/cxxgate-go/pkg/cxxgate/decl"
	"github.com/cxxgate/cxxgate-go/pkg/cxxgate/diag"
	"github.com/cxxgate/cxxgate-go/pkg/cxxgate/ffi"
	"github.com/cxxgate/cxxgate-go/pkg/cxxgate/moddb"
)

// Aliases for the types applications touch when driving a run, so simple
// callers only import this package.

// Database is the declaration arena a run processes.
type Database = decl.Database

// NewDatabase returns an empty database for the named module.
func NewDatabase(module string) *Database { return decl.NewDatabase(module) }

// ReadStream ingests a JSON declaration stream into db.
var ReadStream = decl.ReadStream

// Function is one synthesized ABI function.
type Function = ffi.Function

// AllocationPlace states where by-value results of a class materialize.
type AllocationPlace = ffi.AllocationPlace

// Allocation places re-exported for override tables.
const (
	PlaceStack = ffi.PlaceStack
	PlaceHeap  = ffi.PlaceHeap
)

// Logger is the logging facade the engine reports through.
type Logger = diag.Logger

// Summary is the per-run diagnostics tally.
type Summary = diag.Summary

// Module is the persisted form of a processed database.
type Module = moddb.Module

// OpenModule loads a persisted module database for dependency attachment.
var OpenModule = moddb.Open

// SaveModule persists a processed module database.
var SaveModule = moddb.Save
