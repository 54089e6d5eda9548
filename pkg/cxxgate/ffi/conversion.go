package ffi

import (
	"errors"
	"fmt"

	"github.com/cxxgate/cxxgate-go/pkg/cxxgate/decl"
)

// Conv describes how a value is transformed when it crosses the ABI
// boundary.
type Conv uint8

const (
	// NoChange passes the value through bit-identically.
	NoChange Conv = iota

	// ValueToPointer materializes a by-value class behind a pointer.
	ValueToPointer

	// RefToPointer reinterprets a C++ reference as a raw pointer.
	RefToPointer

	// FlagsToUint widens a bit-flags-over-enum value to unsigned int.
	FlagsToUint
)

func (c Conv) String() string {
	switch c {
	case ValueToPointer:
		return "value-to-pointer"
	case RefToPointer:
		return "ref-to-pointer"
	case FlagsToUint:
		return "flags-to-uint"
	}
	return "no-change"
}

// Type pairs a source type with its ABI representation and the conversion
// between them.
type Type struct {
	Original decl.Type
	ABI      decl.Type
	Conv     Conv
}

// Per-item recoverable conversion failures. A method hitting one of these is
// dropped and logged; the run continues.
var (
	ErrTemplateParam   = errors.New("template parameter cannot cross the ABI")
	ErrVariadicFnPtr   = errors.New("variadic function pointer is unsupported")
	ErrDeepIndirection = errors.New("indirection level is unsupported")
)

// uintType is the ABI representation of bit-flags values.
func uintType() decl.Type { return decl.Builtin("unsigned int", false, 0) }

// Bind converts a source type to its ABI representation, applying the
// canonical rules: references become pointers, classes never cross by value,
// bit-flags widen to unsigned int, everything else passes through.
func Bind(t decl.Type) (Type, error) {
	if t.IsParametric() {
		return Type{}, fmt.Errorf("%w: %s", ErrTemplateParam, t.String())
	}
	if t.Indirection == decl.IndirUnsupported {
		return Type{}, fmt.Errorf("%w: %s", ErrDeepIndirection, t.Name)
	}
	if t.Kind == decl.KindFunctionPtr {
		if t.Fn != nil && t.Fn.Variadic {
			return Type{}, fmt.Errorf("%w: %s", ErrVariadicFnPtr, t.String())
		}
		if t.Indirection != decl.IndirNone {
			return Type{}, fmt.Errorf("%w: indirect function pointer %s", ErrDeepIndirection, t.String())
		}
	}

	out := Type{Original: t, ABI: t, Conv: NoChange}

	switch {
	case t.IsReference():
		// References of any base shape become raw pointers. A reference to
		// flags also lands here: the pointee keeps its native layout.
		out.ABI = t.WithIndirection(decl.IndirPtr)
		out.Conv = RefToPointer

	case t.Kind == decl.KindFlags && t.Indirection == decl.IndirNone:
		abi := uintType()
		abi.ConstBase = t.ConstBase
		out.ABI = abi
		out.Conv = FlagsToUint

	case t.IsClassValue():
		out.ABI = t.WithIndirection(decl.IndirPtr)
		out.Conv = ValueToPointer
	}

	if err := checkABI(out.ABI); err != nil {
		return Type{}, err
	}
	return out, nil
}

// checkABI enforces the package invariants on a converted type.
func checkABI(t decl.Type) error {
	if t.IsReference() {
		return fmt.Errorf("ffi: internal: reference leaked into ABI type %s", t.String())
	}
	if t.IsClassValue() {
		return fmt.Errorf("ffi: internal: class by value leaked into ABI type %s", t.String())
	}
	return nil
}
