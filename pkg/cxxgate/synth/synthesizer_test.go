package synth

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/emirpasic/gods/v2/maps/treemap"
	"github.com/stretchr/testify/require"

	"github.com/cxxgate/cxxgate-go/pkg/cxxgate/decl"
	"github.com/cxxgate/cxxgate-go/pkg/cxxgate/diag"
	"github.com/cxxgate/cxxgate-go/pkg/cxxgate/ffi"
)

func member(class string) *decl.Membership {
	return &decl.Membership{Class: decl.ParsePath(class), Visibility: decl.Public}
}

func method(class, name string, ret decl.Type, args ...decl.Argument) decl.Method {
	return decl.Method{Name: name, Member: member(class), Return: ret, Args: args}
}

func arg(name string, t decl.Type) decl.Argument {
	return decl.Argument{Name: name, Type: t}
}

type fixture struct {
	db     *decl.Database
	places *treemap.Map[string, ffi.AllocationPlace]
	insts  *Registry
	sink   *diag.Sink
}

func newFixture() *fixture {
	return &fixture{
		db:     decl.NewDatabase("m"),
		places: treemap.New[string, ffi.AllocationPlace](),
		insts:  NewRegistry(),
		sink:   diag.NewSink(nil, "test"),
	}
}

func (f *fixture) addClass(name string, place ffi.AllocationPlace, methods ...decl.Method) {
	f.db.AddClass(&decl.ClassDecl{Path: decl.ParsePath(name), Movable: true}, decl.Location{}, "")
	f.db.SetResolved(name, methods)
	f.places.Put(name, place)
}

func (f *fixture) run(t *testing.T) []ffi.Function {
	t.Helper()
	fns, err := New(f.db, f.sink, f.places, f.insts).Run(context.Background())
	require.NoError(t, err)
	return fns
}

func names(fns []ffi.Function) []string {
	out := make([]string, len(fns))
	for i := range fns {
		out[i] = fns[i].Name
	}
	return out
}

func TestOverloadsDisambiguateByFirstWorkingStrategy(t *testing.T) {
	f := newFixture()
	f.addClass("Widget", ffi.PlaceHeap,
		method("Widget", "set", decl.Void(), arg("value", decl.Builtin("int", true, 0))),
		method("Widget", "set", decl.Void(), arg("value", decl.Builtin("double", true, 64))),
		method("Widget", "set", decl.Void(), arg("value", decl.Class("QString").WithConst().WithIndirection(decl.IndirRef))),
	)

	fns := f.run(t)
	got := names(fns)
	// Same arity, same argument names: only the type-based strategy splits
	// the group.
	require.Equal(t, []string{
		"cxg_Widget_set_int",
		"cxg_Widget_set_double",
		"cxg_Widget_set_const_QString_ref",
	}, got)
}

func TestArityStrategyWinsBeforeTypeStrategy(t *testing.T) {
	f := newFixture()
	f.addClass("Widget", ffi.PlaceHeap,
		method("Widget", "move", decl.Void(), arg("x", decl.Builtin("int", true, 0))),
		method("Widget", "move", decl.Void(),
			arg("x", decl.Builtin("int", true, 0)), arg("y", decl.Builtin("int", true, 0))),
	)

	fns := f.run(t)
	require.Contains(t, names(fns), "cxg_Widget_move_1")
	require.Contains(t, names(fns), "cxg_Widget_move_2")
}

func TestSingletonGroupKeepsBareName(t *testing.T) {
	f := newFixture()
	f.addClass("Widget", ffi.PlaceHeap,
		method("Widget", "show", decl.Void()),
	)

	fns := f.run(t)
	require.Contains(t, names(fns), "cxg_Widget_show")
}

func TestCaptionCollisionIsFatal(t *testing.T) {
	f := newFixture()
	// Two overloads with identical arity, names and types can only happen
	// through const-qualification of the method itself, which no caption
	// strategy inspects.
	m1 := method("Widget", "data", decl.Builtin("int", true, 0).WithIndirection(decl.IndirPtr))
	m2 := method("Widget", "data", decl.Builtin("int", true, 0).WithIndirection(decl.IndirPtr))
	m2.Member.Const = true
	f.addClass("Widget", ffi.PlaceHeap, m1, m2)

	_, err := New(f.db, f.sink, f.places, f.insts).Run(context.Background())
	require.ErrorIs(t, err, ErrCaptionCollision)
}

func TestConstructorHeapReturnsPointer(t *testing.T) {
	f := newFixture()
	ctor := method("Widget", "Widget", decl.Class("Widget"))
	ctor.Member.Kind = decl.Constructor
	f.addClass("Widget", ffi.PlaceHeap, ctor)

	fns := f.run(t)
	var newFn *ffi.Function
	for i := range fns {
		if fns[i].Name == "cxg_Widget_new" {
			newFn = &fns[i]
		}
	}
	require.NotNil(t, newFn)
	require.Equal(t, ffi.PlaceHeap, newFn.Place)
	require.Equal(t, "Widget*", newFn.Return.ABI.String())
	for _, a := range newFn.Args {
		require.NotEqual(t, ffi.This, a.Meaning, "constructors take no this-pointer")
	}
}

func TestConstructorStackUsesOutParameter(t *testing.T) {
	f := newFixture()
	ctor := method("QSize", "QSize", decl.Class("QSize"),
		arg("w", decl.Builtin("int", true, 0)), arg("h", decl.Builtin("int", true, 0)))
	ctor.Member.Kind = decl.Constructor
	f.addClass("QSize", ffi.PlaceStack, ctor)

	fns := f.run(t)
	var newFn *ffi.Function
	for i := range fns {
		if fns[i].Name == "cxg_QSize_new" {
			newFn = &fns[i]
		}
	}
	require.NotNil(t, newFn)
	require.Equal(t, ffi.PlaceStack, newFn.Place)
	require.True(t, newFn.Return.ABI.IsVoid())

	outs := 0
	for _, a := range newFn.Args {
		if a.Meaning == ffi.ReturnOut {
			outs++
			require.Equal(t, "QSize*", a.Type.ABI.String())
		}
	}
	require.Equal(t, 1, outs)
}

func TestDestructorCarriesAllocationPlace(t *testing.T) {
	for _, place := range []ffi.AllocationPlace{ffi.PlaceHeap, ffi.PlaceStack} {
		f := newFixture()
		dtor := method("Widget", "~Widget", decl.Void())
		dtor.Member.Kind = decl.Destructor
		f.addClass("Widget", place, dtor)

		fns := f.run(t)
		require.Len(t, fns, 1)
		require.Equal(t, "cxg_Widget_delete", fns[0].Name)
		require.Equal(t, place, fns[0].Place)
	}
}

func TestByValueReturnFollowsReturnClassPlace(t *testing.T) {
	f := newFixture()
	f.addClass("QSize", ffi.PlaceStack)
	f.addClass("Widget", ffi.PlaceHeap,
		method("Widget", "size", decl.Class("QSize")),
	)

	fns := f.run(t)
	var sizeFn *ffi.Function
	for i := range fns {
		if fns[i].Name == "cxg_Widget_size" {
			sizeFn = &fns[i]
		}
	}
	require.NotNil(t, sizeFn)
	require.Equal(t, ffi.PlaceStack, sizeFn.Place, "place follows the returned class, not the owner")
	require.True(t, sizeFn.Return.ABI.IsVoid())
}

func TestThisPointerSlot(t *testing.T) {
	f := newFixture()
	m := method("Widget", "width", decl.Builtin("int", true, 0))
	m.Member.Const = true
	st := method("Widget", "count", decl.Builtin("int", true, 0))
	st.Member.Static = true
	f.addClass("Widget", ffi.PlaceHeap, m, st)

	fns := f.run(t)
	for _, fn := range fns {
		switch fn.Name {
		case "cxg_Widget_width":
			require.Equal(t, ffi.This, fn.Args[0].Meaning)
			require.Equal(t, "const Widget*", fn.Args[0].Type.ABI.String())
		case "cxg_Widget_count":
			require.Empty(t, fn.Args, "static methods take no this-pointer")
		}
	}
}

func TestFieldAccessors(t *testing.T) {
	f := newFixture()
	f.db.AddClass(&decl.ClassDecl{
		Path:    decl.ParsePath("Point"),
		Movable: true,
		Fields: []decl.Field{
			{Name: "x", Type: decl.Builtin("int", true, 0), Visibility: decl.Public},
			{Name: "hidden", Type: decl.Builtin("int", true, 0), Visibility: decl.Private},
		},
	}, decl.Location{}, "")
	f.db.SetResolved("Point", nil)
	f.places.Put("Point", ffi.PlaceStack)

	fns := f.run(t)
	got := names(fns)
	require.Contains(t, got, "cxg_Point_x")
	require.Contains(t, got, "cxg_Point_x_ref")
	require.Contains(t, got, "cxg_Point_x_mut")
	require.Contains(t, got, "cxg_Point_set_x")
	for _, n := range got {
		require.NotContains(t, n, "hidden", "private fields get no accessors")
	}
}

func TestAllFunctionsSatisfyABIInvariants(t *testing.T) {
	f := newFixture()
	f.addClass("QSize", ffi.PlaceStack)
	f.addClass("Widget", ffi.PlaceHeap,
		method("Widget", "resize", decl.Void(), arg("size", decl.Class("QSize").WithConst().WithIndirection(decl.IndirRef))),
		method("Widget", "size", decl.Class("QSize")),
		method("Widget", "title", decl.Class("QString")),
		method("Widget", "setFlags", decl.Void(), arg("f", decl.Flags("Qt::WindowFlags"))),
	)

	fns := f.run(t)
	for i := range fns {
		require.NoError(t, fns[i].Validate(), fns[i].Name)
	}
}

func TestUnconvertibleMethodIsDroppedNotFatal(t *testing.T) {
	f := newFixture()
	f.addClass("Widget", ffi.PlaceHeap,
		method("Widget", "bad", decl.Void(), arg("cb", decl.Type{Kind: decl.KindFunctionPtr, Fn: &decl.FnSignature{Variadic: true}})),
		method("Widget", "good", decl.Void()),
	)

	fns := f.run(t)
	got := names(fns)
	require.Contains(t, got, "cxg_Widget_good")
	require.NotContains(t, got, "cxg_Widget_bad")
	require.Equal(t, 1, f.sink.Summary().DroppedItems)
}

func TestParametricMethodNeverReachesConversion(t *testing.T) {
	f := newFixture()
	f.addClass("Widget", ffi.PlaceHeap,
		method("Widget", "generic", decl.TemplateParam("T")),
	)

	fns := f.run(t)
	require.Empty(t, fns)
	require.Equal(t, 1, f.sink.Summary().DroppedItems)
}

func TestTemplateInstantiationsAreRecordedOnce(t *testing.T) {
	f := newFixture()
	listOfInt := decl.Class("QList", decl.Builtin("int", true, 0))
	f.addClass("Widget", ffi.PlaceHeap,
		method("Widget", "items", listOfInt.WithIndirection(decl.IndirRef)),
		method("Widget", "setItems", decl.Void(), arg("v", listOfInt.WithConst().WithIndirection(decl.IndirRef))),
	)

	f.run(t)
	insts := f.insts.New()
	require.Len(t, insts, 1)
	require.Equal(t, "QList<int>", insts[0].Key())
}

func TestDependencySeededInstantiationNotRerecorded(t *testing.T) {
	f := newFixture()
	listOfInt := decl.Class("QList", decl.Builtin("int", true, 0))
	f.insts.SeedFromDependency([]Instantiation{{Class: "QList", Args: []decl.Type{decl.Builtin("int", true, 0)}}})
	f.addClass("Widget", ffi.PlaceHeap,
		method("Widget", "items", listOfInt.WithIndirection(decl.IndirRef)),
	)

	f.run(t)
	require.Empty(t, f.insts.New())
}

func TestRejectFilterDropsBeforeSynthesis(t *testing.T) {
	f := newFixture()
	f.addClass("Widget", ffi.PlaceHeap,
		method("Widget", "internalOnly", decl.Void()),
		method("Widget", "keep", decl.Void()),
	)

	s := New(f.db, f.sink, f.places, f.insts)
	s.SetRejectFilter(func(m *decl.Method) (bool, error) {
		return m.Name == "internalOnly", nil
	})
	fns, err := s.Run(context.Background())
	require.NoError(t, err)
	require.NotContains(t, names(fns), "cxg_Widget_internalOnly")
	require.Contains(t, names(fns), "cxg_Widget_keep")
}

func TestFilterErrorAbortsRun(t *testing.T) {
	f := newFixture()
	f.addClass("Widget", ffi.PlaceHeap, method("Widget", "any", decl.Void()))

	s := New(f.db, f.sink, f.places, f.insts)
	wantErr := errors.New("filter misconfigured")
	s.SetRejectFilter(func(*decl.Method) (bool, error) { return false, wantErr })
	_, err := s.Run(context.Background())
	require.ErrorIs(t, err, wantErr)
}

func TestDeterministicOutput(t *testing.T) {
	build := func() []ffi.Function {
		f := newFixture()
		f.addClass("QSize", ffi.PlaceStack)
		f.addClass("Widget", ffi.PlaceHeap,
			method("Widget", "set", decl.Void(), arg("v", decl.Builtin("int", true, 0))),
			method("Widget", "set", decl.Void(), arg("v", decl.Builtin("double", true, 64))),
			method("Widget", "size", decl.Class("QSize")),
		)
		fns, err := New(f.db, f.sink, f.places, f.insts).Run(context.Background())
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		return fns
	}

	a, b := build(), build()
	require.Equal(t, len(a), len(b))
	for i := range a {
		require.Equal(t, fmt.Sprintf("%+v", a[i]), fmt.Sprintf("%+v", b[i]))
	}
}

func TestAbstractClassGetsNoConstructorWrapper(t *testing.T) {
	f := newFixture()
	ctor := method("Shape", "Shape", decl.Class("Shape"))
	ctor.Member.Kind = decl.Constructor
	pure := method("Shape", "area", decl.Builtin("double", true, 64))
	pure.Member.Virtual = true
	pure.Member.PureVirtual = true
	f.addClass("Shape", ffi.PlaceHeap, ctor, pure)

	fns := f.run(t)
	require.NotContains(t, names(fns), "cxg_Shape_new")
	require.Contains(t, names(fns), "cxg_Shape_area")
}

func TestUninstantiatedTemplateClassIsSkipped(t *testing.T) {
	f := newFixture()
	f.db.AddClass(&decl.ClassDecl{
		Path:           decl.ParsePath("QList"),
		TemplateParams: []string{"T"},
		Movable:        true,
	}, decl.Location{}, "")
	f.db.SetResolved("QList", []decl.Method{
		method("QList", "size", decl.Builtin("int", true, 0)),
	})
	f.places.Put("QList", ffi.PlaceHeap)

	fns := f.run(t)
	require.Empty(t, fns, "parametric templates are never synthesized")
}

func TestUnresolvedClassStaysPendingForNextSweep(t *testing.T) {
	f := newFixture()
	id := f.db.AddClass(&decl.ClassDecl{Path: decl.ParsePath("Widget"), Movable: true}, decl.Location{}, "")

	fns := f.run(t)
	require.Empty(t, fns)

	it := f.db.Item(id)
	require.False(t, it.Processed(decl.PassSynth), "class without a resolved set must stay pending")
	require.False(t, it.Processed(decl.PassTemplates))
}
