package emit

import (
	"fmt"
	"strings"

	"github.com/cxxgate/cxxgate-go/pkg/cxxgate/decl"
)

// defaultFlagsTemplate is the class template bit-flags types are spelled
// with when the caller does not override it.
const defaultFlagsTemplate = "QFlags"

// renderer turns the declaration-side type model into C++ source spellings.
type renderer struct {
	flagsTemplate string
}

func newRenderer(flagsTemplate string) *renderer {
	if flagsTemplate == "" {
		flagsTemplate = defaultFlagsTemplate
	}
	return &renderer{flagsTemplate: flagsTemplate}
}

// base renders the base shape without indirection or qualifiers.
func (r *renderer) base(t decl.Type) string {
	switch t.Kind {
	case decl.KindFlags:
		return r.flagsTemplate + "<" + t.Name + ">"
	case decl.KindClass:
		if len(t.TemplateArgs) == 0 {
			return t.Name
		}
		args := make([]string, len(t.TemplateArgs))
		for i, a := range t.TemplateArgs {
			args[i] = r.typeOf(a)
		}
		joined := strings.Join(args, ", ")
		if strings.HasSuffix(joined, ">") {
			joined += " "
		}
		return t.Name + "<" + joined + ">"
	default:
		return t.Name
	}
}

// typeOf renders a complete type spelling, suitable for casts and template
// arguments. Function pointers are not handled here; they need a declarator
// name and go through param.
func (r *renderer) typeOf(t decl.Type) string {
	var b strings.Builder
	if t.ConstBase {
		b.WriteString("const ")
	}
	b.WriteString(r.base(t))
	switch t.Indirection {
	case decl.IndirNone:
	case decl.IndirPtr:
		b.WriteString("*")
	case decl.IndirRef:
		b.WriteString("&")
	case decl.IndirRValueRef:
		b.WriteString("&&")
	case decl.IndirPtrPtr:
		b.WriteString("*")
		if t.ConstPtr {
			b.WriteString(" const")
		}
		b.WriteString("*")
	}
	return b.String()
}

// param renders "type name" for a parameter declaration, folding the name
// into the declarator for function pointers.
func (r *renderer) param(t decl.Type, name string) string {
	if t.Kind == decl.KindFunctionPtr {
		return r.fnPtr(t, name)
	}
	return r.typeOf(t) + " " + name
}

func (r *renderer) fnPtr(t decl.Type, name string) string {
	ret := "void"
	var params []string
	if t.Fn != nil {
		if t.Fn.Return != nil {
			ret = r.typeOf(*t.Fn.Return)
		}
		params = make([]string, len(t.Fn.Params))
		for i, p := range t.Fn.Params {
			params[i] = r.typeOf(p)
		}
	}
	return fmt.Sprintf("%s (*%s)(%s)", ret, name, strings.Join(params, ", "))
}

// ret renders a return type spelling. Function-pointer returns never occur
// in the ABI surface, so the plain spelling suffices.
func (r *renderer) ret(t decl.Type) string {
	if t.IsVoid() {
		return "void"
	}
	return r.typeOf(t)
}
