package cxxgate

import (
	"os"
	"strconv"

	"github.com/cxxgate/cxxgate-go/pkg/cxxgate/ffi"
)

// Config carries the knobs of one generation run. The zero value is usable;
// FromEnv applies the CXXGATE_* environment overrides on top.
type Config struct {
	// Module names the C++ module being processed. Required.
	Module string

	// Includes are the header spellings the generated wrapper unit includes.
	Includes []string

	// FlagsTemplate overrides the class template bit-flags types are spelled
	// with in generated C++. Empty selects QFlags.
	FlagsTemplate string

	// CacheDir is where the completed-run marker and the module database are
	// written. Empty disables both.
	CacheDir string

	// AllocOverrides pins allocation places per qualified class name,
	// overriding the usage heuristic. Typically sourced from a per-library
	// override file.
	AllocOverrides map[string]ffi.AllocationPlace

	// MaxSweeps bounds the fixpoint loop. Zero selects the default; the
	// bound exists only as a backstop, since a sweep without progress aborts
	// the run long before it is hit.
	MaxSweeps int
}

const defaultMaxSweeps = 16

// FromEnv returns c with environment overrides applied. Set via
// CXXGATE_CACHE_DIR, CXXGATE_FLAGS_TEMPLATE and CXXGATE_MAX_SWEEPS in the
// environment.
func (c Config) FromEnv() Config {
	if v := os.Getenv("CXXGATE_CACHE_DIR"); v != "" {
		c.CacheDir = v
	}
	if v := os.Getenv("CXXGATE_FLAGS_TEMPLATE"); v != "" {
		c.FlagsTemplate = v
	}
	if v := os.Getenv("CXXGATE_MAX_SWEEPS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.MaxSweeps = n
		}
	}
	return c
}

func (c Config) maxSweeps() int {
	if c.MaxSweeps > 0 {
		return c.MaxSweeps
	}
	return defaultMaxSweeps
}
