package emit

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/cxxgate/cxxgate-go/pkg/cxxgate/decl"
	"github.com/cxxgate/cxxgate-go/pkg/cxxgate/ffi"
)

// handlePackage is the runtime support package generated sources import.
const handlePackage = "github.com/cxxgate/cxxgate-go/pkg/cxxgate/handle"

// GoClass describes one class to the bound-source emitter.
type GoClass struct {
	// Name is the qualified C++ name.
	Name string

	// FirstBase is the qualified name of the first-listed public base, empty
	// at the top of a hierarchy. Only bases present in the same unit or a
	// dependency unit resolve to typed upcasts.
	FirstBase string
}

// GoUnit is the generated bound-language source file for one module: a
// wrapper type per class plus a function per synthesized wrapper, layered on
// the handle package's ownership and cast vocabulary.
type GoUnit struct {
	// Package is the Go package name of the generated file.
	Package string

	Module    string
	Classes   []GoClass
	Functions []ffi.Function
}

// goName strips the namespace qualification: "ui::Widget" → "Widget".
func goName(qualified string) string {
	if i := strings.LastIndex(qualified, "::"); i >= 0 {
		return qualified[i+2:]
	}
	return qualified
}

// exportName turns a wrapper-symbol remainder into an exported Go
// identifier.
func exportName(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

var symbolScopeReplacer = strings.NewReplacer("::", "_", "<", "_", ">", "", ", ", "_", ",", "_", " ", "_", "~", "")

// localName recovers the per-class remainder of a wrapper symbol:
// "cxg_ui_Widget_set_int" with class ui::Widget yields "set_int".
func localName(fn *ffi.Function) string {
	prefix := "cxg_"
	if fn.Origin.Class != "" {
		prefix += symbolScopeReplacer.Replace(fn.Origin.Class) + "_"
	}
	return strings.TrimPrefix(fn.Name, prefix)
}

// cDecl renders the C-compatible prototype spelling of an ABI type. The
// wrapper unit compiles as C++ and only needs matching ABI here, so class
// pointers flatten to void* and enums to their int representation.
func cDecl(t decl.Type) string {
	switch {
	case t.Kind == decl.KindClass && t.Indirection == decl.IndirPtr:
		return "void*"
	case t.Kind == decl.KindClass && t.Indirection == decl.IndirPtrPtr:
		return "void**"
	case t.Kind == decl.KindVoid && t.Indirection == decl.IndirNone:
		return "void"
	case t.Kind == decl.KindVoid:
		return "void*"
	case t.Kind == decl.KindEnum:
		return "int"
	case t.Kind == decl.KindFunctionPtr, t.IsPointerLike():
		// C linkage carries no type information, so every pointer slot can
		// flatten to void* and keep the cgo-visible types uniform.
		return "void*"
	default:
		return t.Name
	}
}

// goType maps an ABI type to the Go spelling the public signature uses.
// known reports class names that have a wrapper type in scope.
func goType(t decl.Type, known map[string]bool) string {
	switch {
	case t.Kind == decl.KindClass && t.IsPointerLike():
		if t.Indirection == decl.IndirPtr && known[t.Name] {
			return goName(t.Name)
		}
		return "unsafe.Pointer"
	case t.Kind == decl.KindEnum:
		return "int32"
	case t.Kind == decl.KindFunctionPtr, t.IsPointerLike():
		return "unsafe.Pointer"
	case t.Kind == decl.KindFixed:
		return strings.TrimSuffix(t.Name, "_t")
	case t.Kind == decl.KindBuiltin:
		return goBuiltin(t)
	default:
		return "unsafe.Pointer"
	}
}

func goBuiltin(t decl.Type) string {
	switch t.Name {
	case "bool":
		return "bool"
	case "float":
		return "float32"
	case "double":
		return "float64"
	case "char", "signed char":
		return "int8"
	case "unsigned char":
		return "uint8"
	case "short":
		return "int16"
	case "unsigned short":
		return "uint16"
	case "int":
		return "int32"
	case "unsigned int":
		return "uint32"
	}
	if t.Signed {
		return "int64"
	}
	return "uint64"
}

// cgoCast wraps a Go argument expression for the cgo call.
func cgoCast(expr string, t decl.Type, known map[string]bool) string {
	switch {
	case t.Kind == decl.KindClass && t.Indirection == decl.IndirPtr && known[t.Name]:
		return expr + ".Raw()"
	case t.IsPointerLike() || t.Kind == decl.KindFunctionPtr:
		return expr
	case t.Kind == decl.KindBuiltin && t.Name == "bool":
		return fmt.Sprintf("C.bool(%s)", expr)
	case t.Kind == decl.KindEnum:
		return fmt.Sprintf("C.int(%s)", expr)
	default:
		return fmt.Sprintf("C.%s(%s)", cgoName(t), expr)
	}
}

// cgoName is the C.<x> spelling cgo assigns to a C type.
func cgoName(t decl.Type) string {
	if t.Kind == decl.KindFixed {
		return t.Name
	}
	switch t.Name {
	case "signed char":
		return "schar"
	case "unsigned char":
		return "uchar"
	case "unsigned short":
		return "ushort"
	case "unsigned int":
		return "uint"
	case "unsigned long":
		return "ulong"
	case "long long":
		return "longlong"
	case "unsigned long long":
		return "ulonglong"
	}
	return t.Name
}

// goResult wraps the cgo call expression into the declared Go return type.
func goResult(call string, t decl.Type, known map[string]bool) string {
	switch {
	case t.Kind == decl.KindClass && t.Indirection == decl.IndirPtr && known[t.Name]:
		return fmt.Sprintf("wrap%s(unsafe.Pointer(%s))", goName(t.Name), call)
	case t.IsPointerLike() || t.Kind == decl.KindFunctionPtr:
		return fmt.Sprintf("unsafe.Pointer(%s)", call)
	case t.Kind == decl.KindBuiltin && t.Name == "bool":
		return fmt.Sprintf("bool(%s)", call)
	default:
		return fmt.Sprintf("%s(%s)", goType(t, known), call)
	}
}

// WriteTo renders the unit. Classes emit in slice order and functions in
// slice order, so a deterministic pipeline result yields byte-identical
// bound source.
func (u *GoUnit) WriteTo(w io.Writer) (int64, error) {
	known := make(map[string]bool, len(u.Classes))
	for _, c := range u.Classes {
		known[c.Name] = true
	}

	byClass := make(map[string][]*ffi.Function)
	var free []*ffi.Function
	dtors := make(map[string]*ffi.Function)
	for i := range u.Functions {
		fn := &u.Functions[i]
		if fn.Origin.Class == "" {
			free = append(free, fn)
			continue
		}
		if fn.Origin.Kind == decl.Destructor {
			dtors[fn.Origin.Class] = fn
		}
		byClass[fn.Origin.Class] = append(byClass[fn.Origin.Class], fn)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "// Code generated by cxxgate for module %q. DO NOT EDIT.\n\n", u.Module)
	fmt.Fprintf(&b, "package %s\n\n", u.Package)

	b.WriteString("/*\n#include <stdbool.h>\n#include <stdint.h>\n\n")
	for i := range u.Functions {
		fn := &u.Functions[i]
		params := make([]string, len(fn.Args))
		for j := range fn.Args {
			params[j] = cDecl(fn.Args[j].Type.ABI) + " " + fn.Args[j].Name
		}
		fmt.Fprintf(&b, "extern %s %s(%s);\n", cDecl(fn.Return.ABI), fn.Name, strings.Join(params, ", "))
	}
	b.WriteString("*/\nimport \"C\"\n\n")

	fmt.Fprintf(&b, "import (\n\t\"unsafe\"\n\n\t%q\n)\n", handlePackage)

	for _, c := range u.Classes {
		u.writeClass(&b, c, byClass[c.Name], dtors[c.Name], known)
	}

	for _, fn := range free {
		u.writeFree(&b, fn, known)
	}

	n, err := io.WriteString(w, b.String())
	return int64(n), err
}

func (u *GoUnit) writeClass(b *strings.Builder, c GoClass, fns []*ffi.Function, dtor *ffi.Function, known map[string]bool) {
	name := goName(c.Name)

	fmt.Fprintf(b, "\n// %sMeta describes %s to the handle layer.\n", name, c.Name)
	fmt.Fprintf(b, "var %sMeta = &handle.Meta{\n\tName: %q,\n", name, c.Name)
	if dtor != nil {
		fmt.Fprintf(b, "\tDelete: func(p unsafe.Pointer) { C.%s(p) },\n", dtor.Name)
	}
	b.WriteString("}\n")
	if c.FirstBase != "" && known[c.FirstBase] {
		fmt.Fprintf(b, "\nfunc init() { %sMeta.Bases = []*handle.Meta{%sMeta} }\n", name, goName(c.FirstBase))
	}

	fmt.Fprintf(b, "\n// %s is a non-owning view of a %s.\n", name, c.Name)
	fmt.Fprintf(b, "type %s struct {\n\th handle.PtrMut\n}\n\n", name)
	fmt.Fprintf(b, "func wrap%s(p unsafe.Pointer) %s {\n\treturn %s{h: handle.NewPtrMut(p, %sMeta)}\n}\n\n", name, name, name, name)
	fmt.Fprintf(b, "// Raw exposes the native pointer for interop.\nfunc (o %s) Raw() unsafe.Pointer { return o.h.Raw() }\n\n", name)
	fmt.Fprintf(b, "// IsNil reports whether the view points at nothing.\nfunc (o %s) IsNil() bool { return o.h.IsNil() }\n", name)
	if dtor != nil {
		fmt.Fprintf(b, "\n// Own transfers ownership of the object to the returned handle.\n")
		fmt.Fprintf(b, "func (o %s) Own() (*handle.Owned, error) { return handle.NewOwned(o.h.Raw(), %sMeta) }\n", name, name)
	}
	if c.FirstBase != "" && known[c.FirstBase] {
		base := goName(c.FirstBase)
		fmt.Fprintf(b, "\n// As%s views the object as its first-listed base class.\n", base)
		fmt.Fprintf(b, "func (o %s) As%s() %s { return wrap%s(o.h.Raw()) }\n", name, base, base, base)
	}

	for _, fn := range fns {
		switch fn.Origin.Kind {
		case decl.Constructor:
			u.writeCtor(b, c, fn, known)
		case decl.Destructor:
			u.writeDtor(b, c, fn)
		default:
			u.writeMethod(b, c, fn, known)
		}
	}
}

// signatureParts renders the Go parameter list and the cgo argument list for
// every non-this slot.
func signatureParts(fn *ffi.Function, known map[string]bool) (params, args []string) {
	for i := range fn.Args {
		a := &fn.Args[i]
		switch a.Meaning {
		case ffi.This:
			args = append(args, "o.h.Raw()")
		case ffi.ReturnOut:
			// Caller-supplied storage, never a wrapper view.
			params = append(params, a.Name+" unsafe.Pointer")
			args = append(args, a.Name)
		default:
			params = append(params, a.Name+" "+goType(a.Type.ABI, known))
			args = append(args, cgoCast(a.Name, a.Type.ABI, known))
		}
	}
	return params, args
}

func (u *GoUnit) writeCtor(b *strings.Builder, c GoClass, fn *ffi.Function, known map[string]bool) {
	name := goName(c.Name)
	suffix := exportName(strings.TrimPrefix(localName(fn), "new"))
	params, args := signatureParts(fn, known)
	call := fmt.Sprintf("C.%s(%s)", fn.Name, strings.Join(args, ", "))

	if fn.Place == ffi.PlaceStack {
		// Caller supplies storage through the out slot; the wrapper views it.
		fmt.Fprintf(b, "\nfunc New%s%s(%s) %s {\n\t%s\n\treturn wrap%s(out)\n}\n",
			name, suffix, strings.Join(params, ", "), name, call, name)
		return
	}
	fmt.Fprintf(b, "\nfunc New%s%s(%s) %s {\n\treturn wrap%s(unsafe.Pointer(%s))\n}\n",
		name, suffix, strings.Join(params, ", "), name, name, call)
}

func (u *GoUnit) writeDtor(b *strings.Builder, c GoClass, fn *ffi.Function) {
	fmt.Fprintf(b, "\n// Destroy runs the native destructor. The view must not be used again.\n")
	fmt.Fprintf(b, "func (o %s) Destroy() { C.%s(o.h.Raw()) }\n", goName(c.Name), fn.Name)
}

func (u *GoUnit) writeMethod(b *strings.Builder, c GoClass, fn *ffi.Function, known map[string]bool) {
	name := goName(c.Name)
	method := exportName(localName(fn))
	params, args := signatureParts(fn, known)
	call := fmt.Sprintf("C.%s(%s)", fn.Name, strings.Join(args, ", "))

	recv := fmt.Sprintf("func (o %s) %s", name, method)
	if fn.Origin.Static {
		recv = fmt.Sprintf("func %s%s", name, method)
	}

	switch {
	case fn.Return.ABI.IsVoid():
		fmt.Fprintf(b, "\n%s(%s) {\n\t%s\n}\n", recv, strings.Join(params, ", "), call)
	default:
		ret := goType(fn.Return.ABI, known)
		fmt.Fprintf(b, "\n%s(%s) %s {\n\treturn %s\n}\n", recv, strings.Join(params, ", "), ret, goResult(call, fn.Return.ABI, known))
	}
}

func (u *GoUnit) writeFree(b *strings.Builder, fn *ffi.Function, known map[string]bool) {
	name := exportName(symbolScopeReplacer.Replace(strings.TrimPrefix(fn.Name, "cxg_")))
	params, args := signatureParts(fn, known)
	call := fmt.Sprintf("C.%s(%s)", fn.Name, strings.Join(args, ", "))

	if fn.Return.ABI.IsVoid() {
		fmt.Fprintf(b, "\nfunc %s(%s) {\n\t%s\n}\n", name, strings.Join(params, ", "), call)
		return
	}
	fmt.Fprintf(b, "\nfunc %s(%s) %s {\n\treturn %s\n}\n",
		name, strings.Join(params, ", "), goType(fn.Return.ABI, known), goResult(call, fn.Return.ABI, known))
}

// ClassesForGo derives the emitter's class list from a database, in
// declaration order. sort keeps dependency-attached lookups deterministic.
func ClassesForGo(classes map[string]string) []GoClass {
	names := make([]string, 0, len(classes))
	for name := range classes {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]GoClass, 0, len(names))
	for _, name := range names {
		out = append(out, GoClass{Name: name, FirstBase: classes[name]})
	}
	return out
}
