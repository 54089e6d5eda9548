package decl

import "strings"

// Visibility is a C++ member access level.
type Visibility uint8

const (
	Public Visibility = iota
	Protected
	Private
)

func (v Visibility) String() string {
	switch v {
	case Public:
		return "public"
	case Protected:
		return "protected"
	}
	return "private"
}

// MoreRestrictive returns the tighter of two access levels.
func MoreRestrictive(a, b Visibility) Visibility {
	if a > b {
		return a
	}
	return b
}

// Path is a qualified C++ name, outermost scope first.
type Path []string

func ParsePath(s string) Path {
	if s == "" {
		return nil
	}
	return strings.Split(s, "::")
}

func (p Path) String() string { return strings.Join(p, "::") }

// Last returns the unqualified name, or "" for an empty path.
func (p Path) Last() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

// Parent returns the enclosing scope.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return nil
	}
	return p[:len(p)-1]
}

// Child returns p extended by one component.
func (p Path) Child(name string) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, name)
}

// Location is a position in a source file as reported by the parser
// front-end.
type Location struct {
	File string
	Line int
}

// BaseSpecifier is one entry of a class's base list, in declaration order.
type BaseSpecifier struct {
	// Base is the base class type. Inheritance through a pointer or
	// reference shape is malformed input; eligible bases have IndirNone.
	Base Type

	// Index is the position in the declaration's base list, zero first. The
	// first-listed base is the one whose members chained pointer wrappers
	// expose transparently.
	Index int

	Virtual    bool
	Visibility Visibility
}

// UsingDirective re-exposes an otherwise-hidden member of a named base class
// under the derived class's name.
type UsingDirective struct {
	Base   string // qualified base class name
	Member string // unqualified member name
}

// Field is a data member of a class.
type Field struct {
	Name       string
	Type       Type
	Visibility Visibility
	Static     bool
}

// ClassDecl is a class or struct declaration.
type ClassDecl struct {
	Path   Path
	Bases  []BaseSpecifier
	Fields []Field
	Using  []UsingDirective

	// Movable reports whether instances may be relocated in memory. It
	// feeds the allocation-place decision: only movable types are eligible
	// for caller-supplied storage.
	Movable bool

	// TemplateParams is non-empty for class templates; such declarations
	// are only synthesized through concrete instantiations.
	TemplateParams []string
}

// Name returns the unqualified class name.
func (c *ClassDecl) Name() string { return c.Path.Last() }

// UsingAllows reports whether a using-directive re-enables the named member
// from the given base.
func (c *ClassDecl) UsingAllows(base, member string) bool {
	for _, u := range c.Using {
		if u.Base == base && u.Member == member {
			return true
		}
	}
	return false
}

// EnumDecl is an enum declaration; its values are separate database items
// referencing it by ID.
type EnumDecl struct {
	Path Path
}

// EnumValue is a single enumerator.
type EnumValue struct {
	// Enum is the owning enum item, NoItem when the stream did not name one.
	Enum  ItemID
	Name  string
	Value int64
}

// NamespaceDecl records a namespace so nested declarations can resolve their
// qualified paths.
type NamespaceDecl struct {
	Path Path
}

// MethodKind distinguishes the callable flavors a class can declare.
type MethodKind uint8

const (
	Regular MethodKind = iota
	Constructor
	Destructor
)

func (k MethodKind) String() string {
	switch k {
	case Constructor:
		return "constructor"
	case Destructor:
		return "destructor"
	}
	return "regular"
}

// Membership records how a method belongs to a class. Free functions carry a
// nil Membership.
type Membership struct {
	Class       Path
	Kind        MethodKind
	Virtual     bool
	PureVirtual bool
	Const       bool
	Static      bool
	Visibility  Visibility

	// Signal and Slot carry the meta-object tags some C++ frameworks attach
	// to methods. The engine preserves them for downstream generators but
	// attaches no semantics of its own.
	Signal bool
	Slot   bool
}

// Operator tags a method that implements a C++ operator ("==", "[]", ...).
// Empty for ordinary methods.
type Operator string

// Argument is one formal parameter of a method.
type Argument struct {
	Name       string
	Type       Type
	HasDefault bool
}

// Method is a callable: a free function, a member function, a constructor or
// a destructor.
type Method struct {
	Name     string
	Member   *Membership
	Operator Operator
	Args     []Argument
	Return   Type

	// TemplateArgs holds the concrete arguments of a template method
	// instantiation. Parametric methods never reach synthesis.
	TemplateArgs []Type

	// InheritanceChain is the ordered sequence of base specifiers traversed
	// when this method was synthesized by inheritance. Empty exactly when
	// the method was declared directly on its owning class.
	InheritanceChain []BaseSpecifier
}

// Inherited reports whether the method was pulled in from a base class.
func (m *Method) Inherited() bool { return len(m.InheritanceChain) > 0 }

// ArgTypes returns the argument types in order, for signature comparison.
func (m *Method) ArgTypes() []Type {
	out := make([]Type, len(m.Args))
	for i, a := range m.Args {
		out[i] = a.Type
	}
	return out
}

// SameArgTypes reports whether two methods take identical argument lists.
// Argument names and default flags do not participate: C++ overload identity
// is by type only.
func SameArgTypes(a, b *Method) bool {
	if len(a.Args) != len(b.Args) {
		return false
	}
	for i := range a.Args {
		if a.Args[i].Type.String() != b.Args[i].Type.String() {
			return false
		}
	}
	return true
}

// Signature renders a stable textual identity for the method, used for
// ambiguity detection and determinism checks.
func (m *Method) Signature() string {
	var b strings.Builder
	if m.Member != nil {
		b.WriteString(m.Member.Class.String())
		b.WriteString("::")
	}
	b.WriteString(m.Name)
	b.WriteString("(")
	for i, a := range m.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(a.Type.String())
	}
	b.WriteString(")")
	if m.Member != nil && m.Member.Const {
		b.WriteString(" const")
	}
	return b.String()
}
