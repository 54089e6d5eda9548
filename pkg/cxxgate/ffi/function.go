package ffi

import (
	"errors"
	"fmt"

	"github.com/cxxgate/cxxgate-go/pkg/cxxgate/decl"
)

// Meaning states what an argument slot carries at call time.
type Meaning uint8

const (
	// Positional is an ordinary argument forwarded to the wrapped callable;
	// Argument.Index gives its position in the source signature.
	Positional Meaning = iota

	// This is the receiver pointer of a non-static member function.
	This

	// ReturnOut is caller-supplied storage the wrapper constructs the
	// by-value result into.
	ReturnOut
)

func (m Meaning) String() string {
	switch m {
	case This:
		return "this"
	case ReturnOut:
		return "return-out"
	}
	return "positional"
}

// AllocationPlace states where a by-value result is materialized.
type AllocationPlace uint8

const (
	// PlaceNA applies to functions with no by-value class result.
	PlaceNA AllocationPlace = iota

	// PlaceStack means the caller supplies storage and the wrapper
	// placement-constructs into it.
	PlaceStack

	// PlaceHeap means the wrapper heap-allocates and ownership transfers to
	// the caller.
	PlaceHeap
)

func (p AllocationPlace) String() string {
	switch p {
	case PlaceStack:
		return "stack"
	case PlaceHeap:
		return "heap"
	}
	return "n/a"
}

// AccessorKind distinguishes the synthesized field accessors from wrappers
// of declared methods.
type AccessorKind uint8

const (
	AccessorNone   AccessorKind = iota
	AccessorGet                 // copy getter
	AccessorGetRef              // const reference getter
	AccessorGetMut              // mutable reference getter
	AccessorSet
)

func (a AccessorKind) String() string {
	switch a {
	case AccessorGet:
		return "get"
	case AccessorGetRef:
		return "get-ref"
	case AccessorGetMut:
		return "get-mut"
	case AccessorSet:
		return "set"
	}
	return "method"
}

// Origin points back at whatever a wrapper function was synthesized from.
type Origin struct {
	// Item is the database item of the originating method, or decl.NoItem
	// for synthesized accessors and implicit destructors.
	Item decl.ItemID

	// Class is the owning class path, empty for free functions.
	Class string

	// Field names the accessed field when Accessor != AccessorNone.
	Field    string
	Accessor AccessorKind

	// Method is the source-language spelling of the wrapped callable: the
	// method or function name, or the operator token for operator wrappers.
	// Empty for constructors, destructors and accessors.
	Method string

	Kind   decl.MethodKind
	Static bool
	Const  bool
}

// Argument is one slot of a wrapper function.
type Argument struct {
	Name    string
	Type    Type
	Meaning Meaning

	// Index is the source-signature position for Positional slots.
	Index int
}

// Function is one ABI-exact wrapper signature.
type Function struct {
	// Name is the exported symbol name, unique across the whole output.
	Name string

	Args   []Argument
	Return Type
	Place  AllocationPlace
	Origin Origin
}

// ErrReturnSlot reports a violation of return-slot exclusivity.
var ErrReturnSlot = errors.New("ffi: function must have exactly one of non-void return and return-out argument")

// Validate enforces the structural invariants every synthesized function
// must satisfy: ABI-clean slots and return-slot exclusivity.
func (f *Function) Validate() error {
	outs := 0
	thises := 0
	for i := range f.Args {
		a := &f.Args[i]
		if err := checkABI(a.Type.ABI); err != nil {
			return fmt.Errorf("%s arg %d: %w", f.Name, i, err)
		}
		switch a.Meaning {
		case ReturnOut:
			outs++
		case This:
			thises++
		}
	}
	if err := checkABI(f.Return.ABI); err != nil {
		return fmt.Errorf("%s return: %w", f.Name, err)
	}
	if thises > 1 {
		return fmt.Errorf("%s: multiple this-pointer slots", f.Name)
	}
	if outs > 1 {
		return fmt.Errorf("%w: %s has %d return-out slots", ErrReturnSlot, f.Name, outs)
	}
	if outs == 1 && !f.Return.ABI.IsVoid() {
		// A function delivers its result through the return slot or through
		// the out-parameter, never both.
		return fmt.Errorf("%w: %s", ErrReturnSlot, f.Name)
	}
	return nil
}
