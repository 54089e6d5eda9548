package decl

import "testing"

func TestTypeString(t *testing.T) {
	cases := []struct {
		typ  Type
		want string
	}{
		{Void(), "void"},
		{Builtin("int", true, 0), "int"},
		{Builtin("int", true, 0).WithIndirection(IndirPtr), "int*"},
		{Class("QString").WithConst().WithIndirection(IndirRef), "const QString&"},
		{Class("QString").WithIndirection(IndirRValueRef), "QString&&"},
		{Class("QList", Builtin("int", true, 0)), "QList<int>"},
		{Flags("Qt::Alignment"), "flags<Qt::Alignment>"},
		{Builtin("char", true, 8).WithConst().WithIndirection(IndirPtrPtr), "const char**"},
	}
	for _, c := range cases {
		if got := c.typ.String(); got != c.want {
			t.Errorf("String() = %q, want %q", got, c.want)
		}
	}
}

func TestTypeCaptionDistinguishesQualifiers(t *testing.T) {
	a := Class("QString").WithConst().WithIndirection(IndirRef)
	b := Class("QString").WithIndirection(IndirPtr)
	c := Class("QString")

	caps := map[string]bool{}
	for _, typ := range []Type{a, b, c} {
		cap := typ.Caption()
		if caps[cap] {
			t.Fatalf("caption %q not unique", cap)
		}
		caps[cap] = true
	}
}

func TestIsParametric(t *testing.T) {
	plain := Class("QList", Builtin("int", true, 0))
	if plain.IsParametric() {
		t.Error("concrete instantiation reported parametric")
	}
	open := Class("QList", TemplateParam("T"))
	if !open.IsParametric() {
		t.Error("open template not reported parametric")
	}
	fn := Type{Kind: KindFunctionPtr, Fn: &FnSignature{
		Params: []Type{TemplateParam("T")},
	}}
	if !fn.IsParametric() {
		t.Error("function pointer over template param not reported parametric")
	}
}

func TestPath(t *testing.T) {
	p := ParsePath("ns::inner::Widget")
	if p.String() != "ns::inner::Widget" {
		t.Fatalf("round trip: %q", p.String())
	}
	if p.Last() != "Widget" {
		t.Errorf("Last() = %q", p.Last())
	}
	if p.Parent().String() != "ns::inner" {
		t.Errorf("Parent() = %q", p.Parent().String())
	}
	if p.Parent().Child("Other").String() != "ns::inner::Other" {
		t.Errorf("Child() = %q", p.Parent().Child("Other").String())
	}
}

func TestSameArgTypes(t *testing.T) {
	a := &Method{Name: "set", Args: []Argument{{Name: "x", Type: Builtin("int", true, 0)}}}
	b := &Method{Name: "set", Args: []Argument{{Name: "y", Type: Builtin("int", true, 0)}}}
	c := &Method{Name: "set", Args: []Argument{{Name: "x", Type: Builtin("double", true, 64)}}}

	if !SameArgTypes(a, b) {
		t.Error("identical arg types with different names should match")
	}
	if SameArgTypes(a, c) {
		t.Error("different arg types should not match")
	}
}
