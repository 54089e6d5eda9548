package emit

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cxxgate/cxxgate-go/pkg/cxxgate/decl"
	"github.com/cxxgate/cxxgate-go/pkg/cxxgate/ffi"
)

func renderGo(t *testing.T, classes []GoClass, fns ...ffi.Function) string {
	t.Helper()
	u := &GoUnit{Package: "ui", Module: "ui", Classes: classes, Functions: fns}
	var buf bytes.Buffer
	_, err := u.WriteTo(&buf)
	require.NoError(t, err)
	return buf.String()
}

func widgetClasses() []GoClass {
	return []GoClass{
		{Name: "ui::Object"},
		{Name: "ui::Widget", FirstBase: "ui::Object"},
	}
}

func TestGoUnitPreambleAndPrototypes(t *testing.T) {
	self := mustBind(t, decl.Class("ui::Widget").WithIndirection(decl.IndirPtr))
	src := renderGo(t, widgetClasses(), ffi.Function{
		Name: "cxg_ui_Widget_width",
		Args: []ffi.Argument{
			{Name: "self", Type: self, Meaning: ffi.This},
		},
		Return: mustBind(t, decl.Builtin("int", true, 0)),
		Origin: ffi.Origin{Class: "ui::Widget", Method: "width"},
	})
	require.Contains(t, src, "// Code generated by cxxgate for module \"ui\". DO NOT EDIT.")
	require.Contains(t, src, "package ui")
	require.Contains(t, src, "extern int cxg_ui_Widget_width(void* self);")
	require.Contains(t, src, "import \"C\"")
	require.Contains(t, src, "\"github.com/cxxgate/cxxgate-go/pkg/cxxgate/handle\"")
}

func TestGoUnitClassScaffolding(t *testing.T) {
	src := renderGo(t, widgetClasses(), ffi.Function{
		Name: "cxg_ui_Widget_delete",
		Args: []ffi.Argument{
			{Name: "self", Type: mustBind(t, decl.Class("ui::Widget").WithIndirection(decl.IndirPtr)), Meaning: ffi.This},
		},
		Return: mustBind(t, decl.Void()),
		Place:  ffi.PlaceHeap,
		Origin: ffi.Origin{Class: "ui::Widget", Kind: decl.Destructor},
	})
	require.Contains(t, src, `var WidgetMeta = &handle.Meta{`)
	require.Contains(t, src, `Name: "ui::Widget",`)
	require.Contains(t, src, "Delete: func(p unsafe.Pointer) { C.cxg_ui_Widget_delete(p) },")
	require.Contains(t, src, "func init() { WidgetMeta.Bases = []*handle.Meta{ObjectMeta} }")
	require.Contains(t, src, "type Widget struct {\n\th handle.PtrMut\n}")
	require.Contains(t, src, "func (o Widget) AsObject() Object { return wrapObject(o.h.Raw()) }")
	require.Contains(t, src, "func (o Widget) Own() (*handle.Owned, error) { return handle.NewOwned(o.h.Raw(), WidgetMeta) }")
	require.Contains(t, src, "func (o Widget) Destroy() { C.cxg_ui_Widget_delete(o.h.Raw()) }")
}

func TestGoUnitMethodConversions(t *testing.T) {
	self := mustBind(t, decl.Class("ui::Widget").WithIndirection(decl.IndirPtr))
	src := renderGo(t, widgetClasses(),
		ffi.Function{
			Name: "cxg_ui_Widget_resize",
			Args: []ffi.Argument{
				{Name: "self", Type: self, Meaning: ffi.This},
				{Name: "w", Type: mustBind(t, decl.Builtin("int", true, 0)), Meaning: ffi.Positional},
				{Name: "h", Type: mustBind(t, decl.Builtin("double", true, 64)), Meaning: ffi.Positional},
			},
			Return: mustBind(t, decl.Void()),
			Origin: ffi.Origin{Class: "ui::Widget", Method: "resize"},
		},
		ffi.Function{
			Name: "cxg_ui_Widget_parent",
			Args: []ffi.Argument{
				{Name: "self", Type: self, Meaning: ffi.This},
			},
			Return: mustBind(t, decl.Class("ui::Object").WithIndirection(decl.IndirPtr)),
			Origin: ffi.Origin{Class: "ui::Widget", Method: "parent"},
		},
	)
	require.Contains(t, src, "func (o Widget) Resize(w int32, h float64) {")
	require.Contains(t, src, "C.cxg_ui_Widget_resize(o.h.Raw(), C.int(w), C.double(h))")
	require.Contains(t, src, "func (o Widget) Parent() Object {")
	require.Contains(t, src, "return wrapObject(unsafe.Pointer(C.cxg_ui_Widget_parent(o.h.Raw())))")
}

func TestGoUnitFlagsAndBoolCrossAsWideTypes(t *testing.T) {
	self := mustBind(t, decl.Class("ui::Widget").WithIndirection(decl.IndirPtr))
	src := renderGo(t, widgetClasses(), ffi.Function{
		Name: "cxg_ui_Widget_setAlignment",
		Args: []ffi.Argument{
			{Name: "self", Type: self, Meaning: ffi.This},
			{Name: "a", Type: mustBind(t, decl.Flags("Qt::Alignment")), Meaning: ffi.Positional},
			{Name: "on", Type: mustBind(t, decl.Builtin("bool", false, 8)), Meaning: ffi.Positional},
		},
		Return: mustBind(t, decl.Void()),
		Origin: ffi.Origin{Class: "ui::Widget", Method: "setAlignment"},
	})
	require.Contains(t, src, "SetAlignment(a uint32, on bool)")
	require.Contains(t, src, "C.uint(a), C.bool(on)")
}

func TestGoUnitConstructorPlaces(t *testing.T) {
	src := renderGo(t, widgetClasses(),
		ffi.Function{
			Name: "cxg_ui_Widget_new",
			Args: []ffi.Argument{
				{Name: "arg0", Type: mustBind(t, decl.Builtin("int", true, 0)), Meaning: ffi.Positional},
			},
			Return: mustBind(t, decl.Class("ui::Widget")),
			Place:  ffi.PlaceHeap,
			Origin: ffi.Origin{Class: "ui::Widget", Kind: decl.Constructor},
		},
		ffi.Function{
			Name: "cxg_ui_Object_new",
			Args: []ffi.Argument{
				{Name: "out", Type: mustBind(t, decl.Class("ui::Object")), Meaning: ffi.ReturnOut},
			},
			Return: mustBind(t, decl.Void()),
			Place:  ffi.PlaceStack,
			Origin: ffi.Origin{Class: "ui::Object", Kind: decl.Constructor},
		},
	)
	require.Contains(t, src, "func NewWidget(arg0 int32) Widget {")
	require.Contains(t, src, "return wrapWidget(unsafe.Pointer(C.cxg_ui_Widget_new(C.int(arg0))))")
	require.Contains(t, src, "func NewObject(out unsafe.Pointer) Object {")
	require.Contains(t, src, "C.cxg_ui_Object_new(out)")
	require.Contains(t, src, "return wrapObject(out)")
}

func TestGoUnitStaticAndFreeFunctions(t *testing.T) {
	src := renderGo(t, widgetClasses(),
		ffi.Function{
			Name:   "cxg_ui_Widget_style",
			Return: mustBind(t, decl.Builtin("int", true, 0)),
			Origin: ffi.Origin{Class: "ui::Widget", Method: "style", Static: true},
		},
		ffi.Function{
			Name:   "cxg_version",
			Return: mustBind(t, decl.Builtin("unsigned int", false, 0)),
			Origin: ffi.Origin{Method: "version", Static: true},
		},
	)
	require.Contains(t, src, "func WidgetStyle() int32 {")
	require.Contains(t, src, "func Version() uint32 {")
	require.Contains(t, src, "return uint32(C.cxg_version())")
}

func TestGoUnitIsDeterministic(t *testing.T) {
	fn := ffi.Function{
		Name: "cxg_ui_Widget_width",
		Args: []ffi.Argument{
			{Name: "self", Type: mustBind(t, decl.Class("ui::Widget").WithIndirection(decl.IndirPtr)), Meaning: ffi.This},
		},
		Return: mustBind(t, decl.Builtin("int", true, 0)),
		Origin: ffi.Origin{Class: "ui::Widget", Method: "width"},
	}
	a := renderGo(t, widgetClasses(), fn)
	b := renderGo(t, widgetClasses(), fn)
	require.Equal(t, a, b)
}

func TestClassesForGoIsSortedByName(t *testing.T) {
	got := ClassesForGo(map[string]string{
		"ui::Widget": "ui::Object",
		"ui::Object": "",
	})
	require.Equal(t, []GoClass{
		{Name: "ui::Object"},
		{Name: "ui::Widget", FirstBase: "ui::Object"},
	}, got)
}
