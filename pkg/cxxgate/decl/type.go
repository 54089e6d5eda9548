package decl

import (
	"fmt"
	"strings"
)

// Kind discriminates the base shape of a Type, before indirection is applied.
type Kind uint8

const (
	KindInvalid Kind = iota

	// KindVoid is the C++ void type. Only meaningful as a return type or
	// behind a pointer.
	KindVoid

	// KindBuiltin is a built-in numeric type identified by its spelling
	// ("int", "unsigned long", "double", "bool", "char", ...). Signedness and
	// width are carried explicitly because the spelling alone is ambiguous
	// across targets.
	KindBuiltin

	// KindFixed is a fixed-width numeric type ("int32_t", "uint64_t", ...).
	KindFixed

	// KindEnum references an enum declaration by qualified name.
	KindEnum

	// KindFlags is a bit-flags wrapper over an enum (e.g. QFlags<E>). Name
	// holds the qualified name of the underlying enum.
	KindFlags

	// KindClass references a class declaration by qualified name, optionally
	// with concrete template arguments.
	KindClass

	// KindFunctionPtr is a pointer to a free function.
	KindFunctionPtr

	// KindTemplateParam is an unsubstituted template parameter. It may exist
	// in the database but must never reach FFI synthesis.
	KindTemplateParam
)

func (k Kind) String() string {
	switch k {
	case KindVoid:
		return "void"
	case KindBuiltin:
		return "builtin"
	case KindFixed:
		return "fixed"
	case KindEnum:
		return "enum"
	case KindFlags:
		return "flags"
	case KindClass:
		return "class"
	case KindFunctionPtr:
		return "function-pointer"
	case KindTemplateParam:
		return "template-parameter"
	}
	return "invalid"
}

// Indirection describes how a base type is reached. The set is closed: the
// parser front-end collapses anything deeper (pointer to pointer to pointer,
// reference to reference) into IndirUnsupported, which the conversion layer
// rejects per item.
type Indirection uint8

const (
	IndirNone Indirection = iota
	IndirPtr
	IndirRef
	IndirRValueRef
	IndirPtrPtr
	IndirUnsupported
)

func (i Indirection) String() string {
	switch i {
	case IndirNone:
		return ""
	case IndirPtr:
		return "*"
	case IndirRef:
		return "&"
	case IndirRValueRef:
		return "&&"
	case IndirPtrPtr:
		return "**"
	}
	return "<unsupported>"
}

// FnSignature is the shape of a function-pointer type.
type FnSignature struct {
	Return   *Type
	Params   []Type
	Variadic bool
}

// Type is the source-side view of a C++ type: a base shape plus one level of
// the closed indirection set, with constness tracked at the base level and at
// the pointer level (the latter only meaningful for IndirPtrPtr, where the
// inner pointer itself may be const).
type Type struct {
	Kind Kind

	// Name is the qualified name for enums, flags, classes and template
	// parameters, and the spelling for builtins and fixed-width types.
	Name string

	// Signed and Bits describe numeric types. Bits is zero when the width is
	// target-dependent (plain int, long, ...).
	Signed bool
	Bits   int

	// TemplateArgs holds concrete template arguments for KindClass. A class
	// reference with any KindTemplateParam argument is parametric and cannot
	// be synthesized.
	TemplateArgs []Type

	// Fn is set for KindFunctionPtr.
	Fn *FnSignature

	Indirection Indirection

	// ConstBase qualifies the named type itself (the pointee for pointers
	// and references). ConstPtr qualifies the inner pointer of a
	// pointer-to-pointer.
	ConstBase bool
	ConstPtr  bool
}

// Void returns the void type.
func Void() Type { return Type{Kind: KindVoid, Name: "void"} }

// Builtin constructs a built-in numeric type from its spelling.
func Builtin(name string, signed bool, bits int) Type {
	return Type{Kind: KindBuiltin, Name: name, Signed: signed, Bits: bits}
}

// Fixed constructs a fixed-width numeric type.
func Fixed(name string, signed bool, bits int) Type {
	return Type{Kind: KindFixed, Name: name, Signed: signed, Bits: bits}
}

// Class constructs a class reference.
func Class(name string, args ...Type) Type {
	return Type{Kind: KindClass, Name: name, TemplateArgs: args}
}

// Enum constructs an enum reference.
func Enum(name string) Type { return Type{Kind: KindEnum, Name: name} }

// Flags constructs a bit-flags type over the named enum.
func Flags(enum string) Type { return Type{Kind: KindFlags, Name: enum} }

// TemplateParam constructs an unsubstituted template parameter.
func TemplateParam(name string) Type {
	return Type{Kind: KindTemplateParam, Name: name}
}

// WithIndirection returns a copy of t reached through the given indirection.
func (t Type) WithIndirection(i Indirection) Type {
	t.Indirection = i
	return t
}

// WithConst returns a copy of t with a const-qualified base level.
func (t Type) WithConst() Type {
	t.ConstBase = true
	return t
}

// IsVoid reports whether t is void with no indirection.
func (t Type) IsVoid() bool {
	return t.Kind == KindVoid && t.Indirection == IndirNone
}

// IsClassValue reports whether t is a class type passed by value.
func (t Type) IsClassValue() bool {
	return t.Kind == KindClass && t.Indirection == IndirNone
}

// IsReference reports whether t is reached through an lvalue or rvalue
// reference.
func (t Type) IsReference() bool {
	return t.Indirection == IndirRef || t.Indirection == IndirRValueRef
}

// IsPointerLike reports whether t crosses as a raw pointer already.
func (t Type) IsPointerLike() bool {
	return t.Indirection == IndirPtr || t.Indirection == IndirPtrPtr
}

// IsParametric reports whether t is or contains an unsubstituted template
// parameter. Parametric types never reach FFI synthesis.
func (t Type) IsParametric() bool {
	if t.Kind == KindTemplateParam {
		return true
	}
	for _, a := range t.TemplateArgs {
		if a.IsParametric() {
			return true
		}
	}
	if t.Fn != nil {
		if t.Fn.Return != nil && t.Fn.Return.IsParametric() {
			return true
		}
		for _, p := range t.Fn.Params {
			if p.IsParametric() {
				return true
			}
		}
	}
	return false
}

// baseName renders the base shape without indirection or qualifiers.
func (t Type) baseName() string {
	switch t.Kind {
	case KindClass:
		if len(t.TemplateArgs) == 0 {
			return t.Name
		}
		args := make([]string, len(t.TemplateArgs))
		for i, a := range t.TemplateArgs {
			args[i] = a.String()
		}
		return t.Name + "<" + strings.Join(args, ", ") + ">"
	case KindFlags:
		return "flags<" + t.Name + ">"
	case KindFunctionPtr:
		if t.Fn == nil {
			return "void (*)()"
		}
		params := make([]string, len(t.Fn.Params))
		for i, p := range t.Fn.Params {
			params[i] = p.String()
		}
		if t.Fn.Variadic {
			params = append(params, "...")
		}
		ret := "void"
		if t.Fn.Return != nil {
			ret = t.Fn.Return.String()
		}
		return fmt.Sprintf("%s (*)(%s)", ret, strings.Join(params, ", "))
	default:
		return t.Name
	}
}

// String renders t the way it would appear in a declaration. The rendering is
// deterministic and injective over the supported type set, which overload
// captions rely on.
func (t Type) String() string {
	var b strings.Builder
	if t.ConstBase {
		b.WriteString("const ")
	}
	b.WriteString(t.baseName())
	switch t.Indirection {
	case IndirNone:
	case IndirPtrPtr:
		b.WriteString("*")
		if t.ConstPtr {
			b.WriteString(" const")
		}
		b.WriteString("*")
	default:
		b.WriteString(t.Indirection.String())
	}
	return b.String()
}
