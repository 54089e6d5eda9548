package cxxgate

import (
	"errors"

	"github.com/cxxgate/cxxgate-go/pkg/cxxgate/decl"
	"github.com/cxxgate/cxxgate-go/pkg/cxxgate/ffi"
	"github.com/cxxgate/cxxgate-go/pkg/cxxgate/inherit"
	"github.com/cxxgate/cxxgate-go/pkg/cxxgate/synth"
)

// ErrStuck reports a sweep that made no progress while unprocessed items
// remain. The stuck items are logged through the diagnostics sink before the
// run aborts.
var ErrStuck = errors.New("cxxgate: pipeline made no progress")

// Fatal subpackage errors re-exported so callers can errors.Is against this
// package alone.
var (
	ErrUnknownType      = decl.ErrUnknownType
	ErrMalformedStream  = decl.ErrMalformedStream
	ErrBaseCycle        = inherit.ErrBaseCycle
	ErrCaptionCollision = synth.ErrCaptionCollision
	ErrReturnSlot       = ffi.ErrReturnSlot
)

// Per-item recoverable failures. These never abort a run; the affected
// method or field is dropped and counted in the run summary.
var (
	ErrTemplateParam   = ffi.ErrTemplateParam
	ErrVariadicFnPtr   = ffi.ErrVariadicFnPtr
	ErrDeepIndirection = ffi.ErrDeepIndirection
)
