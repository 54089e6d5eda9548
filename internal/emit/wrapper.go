package emit

import (
	"fmt"
	"io"
	"strings"

	"github.com/cxxgate/cxxgate-go/pkg/cxxgate/decl"
	"github.com/cxxgate/cxxgate-go/pkg/cxxgate/ffi"
)

// WrapperUnit is one generated C++ translation unit: every synthesized
// function of a module, implemented against the wrapped headers and exported
// with C linkage.
type WrapperUnit struct {
	// Module names the source module; it only appears in the banner.
	Module string

	// Includes are emitted verbatim as #include directives, in order.
	Includes []string

	// FlagsTemplate overrides the class template bit-flags types are spelled
	// with. Empty selects QFlags.
	FlagsTemplate string

	Functions []ffi.Function
}

// WriteTo renders the unit. Functions are emitted in slice order, so a
// deterministic input yields byte-identical output.
func (u *WrapperUnit) WriteTo(w io.Writer) (int64, error) {
	r := newRenderer(u.FlagsTemplate)

	var b strings.Builder
	fmt.Fprintf(&b, "// Generated bindings for module %q. Do not edit.\n\n", u.Module)
	b.WriteString("#include <new>\n")
	for _, inc := range u.Includes {
		fmt.Fprintf(&b, "#include %s\n", includeSpelling(inc))
	}
	b.WriteString(`
#if defined(_WIN32)
#define CXG_EXPORT __declspec(dllexport)
#else
#define CXG_EXPORT __attribute__((visibility("default")))
#endif

extern "C" {
`)

	for i := range u.Functions {
		fn := &u.Functions[i]
		body, err := functionBody(r, fn)
		if err != nil {
			return 0, fmt.Errorf("emit: %s: %w", fn.Name, err)
		}
		b.WriteString("\n")
		fmt.Fprintf(&b, "CXG_EXPORT %s %s(%s) {\n", r.ret(fn.Return.ABI), fn.Name, signature(r, fn))
		for _, line := range body {
			b.WriteString("    " + line + "\n")
		}
		b.WriteString("}\n")
	}

	b.WriteString("\n} // extern \"C\"\n")
	n, err := io.WriteString(w, b.String())
	return int64(n), err
}

// includeSpelling wraps bare paths in quotes; already-delimited spellings
// pass through.
func includeSpelling(inc string) string {
	if strings.HasPrefix(inc, "<") || strings.HasPrefix(inc, `"`) {
		return inc
	}
	return `"` + inc + `"`
}

func signature(r *renderer, fn *ffi.Function) string {
	parts := make([]string, len(fn.Args))
	for i := range fn.Args {
		a := &fn.Args[i]
		parts[i] = r.param(a.Type.ABI, a.Name)
	}
	return strings.Join(parts, ", ")
}

// positionalExprs renders the forwarded call arguments, undoing each slot's
// ABI conversion.
func positionalExprs(r *renderer, fn *ffi.Function) []string {
	var out []string
	for i := range fn.Args {
		a := &fn.Args[i]
		if a.Meaning != ffi.Positional {
			continue
		}
		switch a.Type.Conv {
		case ffi.ValueToPointer, ffi.RefToPointer:
			out = append(out, "*"+a.Name)
		case ffi.FlagsToUint:
			t := a.Type.Original
			t.ConstBase = false
			out = append(out, fmt.Sprintf("static_cast<%s>(%s)", r.typeOf(t), a.Name))
		default:
			out = append(out, a.Name)
		}
	}
	return out
}

func outSlot(fn *ffi.Function) *ffi.Argument {
	for i := range fn.Args {
		if fn.Args[i].Meaning == ffi.ReturnOut {
			return &fn.Args[i]
		}
	}
	return nil
}

// classTail is the unqualified class name, as an explicit destructor call
// requires.
func classTail(path string) string {
	if i := strings.LastIndex(path, "::"); i >= 0 {
		return path[i+2:]
	}
	return path
}

// functionBody renders the statements of one wrapper.
func functionBody(r *renderer, fn *ffi.Function) ([]string, error) {
	o := &fn.Origin
	args := positionalExprs(r, fn)
	joined := strings.Join(args, ", ")

	switch {
	case o.Accessor == ffi.AccessorSet:
		if len(args) != 1 {
			return nil, fmt.Errorf("setter for %s.%s has %d arguments", o.Class, o.Field, len(args))
		}
		return []string{fmt.Sprintf("self->%s = %s;", o.Field, args[0])}, nil

	case o.Accessor != ffi.AccessorNone:
		return resultStatements(r, fn, "self->"+o.Field)

	case o.Kind == decl.Constructor:
		return resultStatements(r, fn, joined)

	case o.Kind == decl.Destructor:
		if fn.Place == ffi.PlaceHeap {
			return []string{"delete self;"}, nil
		}
		return []string{fmt.Sprintf("self->~%s();", classTail(o.Class))}, nil

	case o.Method == "":
		return nil, fmt.Errorf("origin carries no callable name")

	case o.Class == "":
		return resultStatements(r, fn, fmt.Sprintf("%s(%s)", o.Method, joined))

	case o.Static:
		return resultStatements(r, fn, fmt.Sprintf("%s::%s(%s)", o.Class, o.Method, joined))

	default:
		return resultStatements(r, fn, fmt.Sprintf("self->%s(%s)", o.Method, joined))
	}
}

// resultStatements delivers expr through the function's result channel. For
// constructors expr is the argument list of the construction.
func resultStatements(r *renderer, fn *ffi.Function, expr string) ([]string, error) {
	ctor := fn.Origin.Kind == decl.Constructor && fn.Origin.Accessor == ffi.AccessorNone

	if out := outSlot(fn); out != nil {
		// Placement-construct into caller storage. For constructors expr is
		// the argument list; otherwise the result copy-initializes the slot.
		t := out.Type.Original
		t.ConstBase = false
		return []string{fmt.Sprintf("new (out) %s(%s);", r.typeOf(t), expr)}, nil
	}

	ret := fn.Return
	switch {
	case ret.Conv == ffi.ValueToPointer:
		// Heap-placed by-value result: allocate and hand ownership out.
		t := ret.Original
		t.ConstBase = false
		return []string{fmt.Sprintf("return new %s(%s);", r.typeOf(t), expr)}, nil

	case ctor:
		return nil, fmt.Errorf("constructor result is neither out-parameter nor heap pointer")

	case ret.Conv == ffi.RefToPointer:
		return []string{fmt.Sprintf("return &(%s);", expr)}, nil

	case ret.Conv == ffi.FlagsToUint:
		return []string{fmt.Sprintf("return static_cast<unsigned int>(%s);", expr)}, nil

	case ret.ABI.IsVoid():
		if expr == "" {
			return nil, nil
		}
		return []string{expr + ";"}, nil

	default:
		return []string{fmt.Sprintf("return %s;", expr)}, nil
	}
}
