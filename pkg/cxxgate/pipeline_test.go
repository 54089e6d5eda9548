package cxxgate

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cxxgate/cxxgate-go/pkg/cxxgate/decl"
	"github.com/cxxgate/cxxgate-go/pkg/cxxgate/ffi"
	"github.com/cxxgate/cxxgate-go/pkg/cxxgate/moddb"
)

func member(class string) *decl.Membership {
	return &decl.Membership{Class: decl.ParsePath(class), Visibility: decl.Public}
}

func addClass(db *decl.Database, name string, bases ...decl.BaseSpecifier) {
	db.AddClass(&decl.ClassDecl{
		Path:    decl.ParsePath(name),
		Bases:   bases,
		Movable: true,
	}, decl.Location{}, "")
}

func addMethod(db *decl.Database, m decl.Method) {
	db.AddMethod(&m, decl.Location{}, "")
}

// widgetDB builds a small module: a polymorphic Base, a Derived that
// inherits its method, and a free function.
func widgetDB() *decl.Database {
	db := decl.NewDatabase("core")

	addClass(db, "Base")
	base := decl.Method{Name: "name", Member: member("Base"), Return: decl.Builtin("int", true, 0)}
	base.Member.Virtual = true
	addMethod(db, base)

	addClass(db, "Derived", decl.BaseSpecifier{Base: decl.Class("Base"), Visibility: decl.Public})

	addMethod(db, decl.Method{Name: "version", Return: decl.Builtin("int", true, 0)})
	return db
}

func fnNames(fns []ffi.Function) []string {
	out := make([]string, len(fns))
	for i := range fns {
		out[i] = fns[i].Name
	}
	return out
}

func TestRunProcessesEveryItem(t *testing.T) {
	db := widgetDB()
	p := NewPipeline(db, Config{Module: "core"}, nil)

	res, err := p.Run(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, res.RunID)

	got := fnNames(res.Functions)
	require.Contains(t, got, "cxg_Base_name")
	require.Contains(t, got, "cxg_Derived_name")
	require.Contains(t, got, "cxg_Base_delete")
	require.Contains(t, got, "cxg_Derived_delete")
	require.Contains(t, got, "cxg_version")

	// Polymorphic classes always land on the heap.
	place, ok := res.Places.Get("Base")
	require.True(t, ok)
	require.Equal(t, ffi.PlaceHeap, place)

	require.Empty(t, p.pending())
	require.Zero(t, res.Summary.StuckItems)
}

func TestRunIsDeterministic(t *testing.T) {
	a, err := NewPipeline(widgetDB(), Config{}, nil).Run(context.Background())
	require.NoError(t, err)
	b, err := NewPipeline(widgetDB(), Config{}, nil).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, fnNames(a.Functions), fnNames(b.Functions))
}

func TestFilterChainFirstRejectionWins(t *testing.T) {
	db := widgetDB()
	p := NewPipeline(db, Config{}, nil)

	secondSawName := false
	p.AddFilter(MethodFilter{Name: "drop-name", Reject: func(m *decl.Method) (bool, error) {
		return m.Name == "name", nil
	}})
	p.AddFilter(MethodFilter{Name: "spy", Reject: func(m *decl.Method) (bool, error) {
		if m.Name == "name" {
			secondSawName = true
		}
		return false, nil
	}})

	res, err := p.Run(context.Background())
	require.NoError(t, err)
	require.False(t, secondSawName)
	for _, n := range fnNames(res.Functions) {
		require.False(t, strings.HasSuffix(n, "_name"), "rejected method leaked: %s", n)
	}
}

func TestFilterErrorAbortsRun(t *testing.T) {
	boom := errors.New("boom")
	p := NewPipeline(widgetDB(), Config{}, nil)
	p.AddFilter(MethodFilter{Name: "explode", Reject: func(*decl.Method) (bool, error) {
		return false, boom
	}})

	_, err := p.Run(context.Background())
	require.ErrorIs(t, err, boom)
}

func TestHooksRunInOrderAndErrorsAbort(t *testing.T) {
	var order []string
	p := NewPipeline(widgetDB(), Config{}, nil)
	p.AddHook(func(ctx context.Context, db *decl.Database) error {
		order = append(order, "first")
		return nil
	})
	p.AddHook(func(ctx context.Context, db *decl.Database) error {
		order = append(order, "second")
		return nil
	})
	_, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"first", "second"}, order)

	boom := errors.New("hook failed")
	p = NewPipeline(widgetDB(), Config{}, nil)
	p.AddHook(func(context.Context, *decl.Database) error { return boom })
	_, err = p.Run(context.Background())
	require.ErrorIs(t, err, boom)
}

func TestHookMutationsFeedResolutionAndSynthesis(t *testing.T) {
	p := NewPipeline(widgetDB(), Config{Module: "core"}, nil)
	p.AddHook(func(ctx context.Context, db *decl.Database) error {
		// A hook sees the database before any sweep, so a method it injects
		// is resolved, inherited and synthesized like streamed input.
		db.AddMethod(&decl.Method{
			Name:   "tag",
			Member: member("Base"),
			Return: decl.Builtin("int", true, 0),
		}, decl.Location{}, "")
		return nil
	})

	res, err := p.Run(context.Background())
	require.NoError(t, err)

	got := fnNames(res.Functions)
	require.Contains(t, got, "cxg_Base_tag")
	require.Contains(t, got, "cxg_Derived_tag", "injected member must flow through inheritance")
}

func TestCycleIsFatal(t *testing.T) {
	db := decl.NewDatabase("m")
	addClass(db, "A", decl.BaseSpecifier{Base: decl.Class("B"), Visibility: decl.Public})
	addClass(db, "B", decl.BaseSpecifier{Base: decl.Class("A"), Visibility: decl.Public})

	_, err := NewPipeline(db, Config{}, nil).Run(context.Background())
	require.ErrorIs(t, err, ErrBaseCycle)
}

func TestStuckItemsAreReportedAsPermanentFailures(t *testing.T) {
	p := NewPipeline(decl.NewDatabase("m"), Config{}, nil)
	err := p.failStuck(context.Background(), []pendingWork{
		{name: "Widget", pass: decl.PassInherit},
		{name: "Widget", pass: decl.PassSynth},
	})
	require.ErrorIs(t, err, ErrStuck)
	require.Equal(t, 2, p.Sink().Summary().StuckItems)
}

func TestDependencyClassesResolveAndSeedTemplates(t *testing.T) {
	depDB := decl.NewDatabase("dep")
	addClass(depDB, "dep::Base")
	depDB.SetResolved("dep::Base", []decl.Method{
		{Name: "id", Member: member("dep::Base"), Return: decl.Builtin("int", true, 0)},
	})
	dep := moddb.Snapshot(depDB, nil, nil)

	db := decl.NewDatabase("m")
	addClass(db, "Child", decl.BaseSpecifier{Base: decl.Class("dep::Base"), Visibility: decl.Public})

	p := NewPipeline(db, Config{}, nil)
	p.AttachDependency(dep)

	res, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Contains(t, fnNames(res.Functions), "cxg_Child_id")
}

func TestSnapshotRoundTrips(t *testing.T) {
	db := widgetDB()
	p := NewPipeline(db, Config{}, nil)
	res, err := p.Run(context.Background())
	require.NoError(t, err)

	mod := p.Snapshot(res)
	require.Equal(t, "core", mod.Name)
	require.Equal(t, ffi.PlaceHeap, mod.Places["Base"])
}

func TestMarkerRoundTrip(t *testing.T) {
	dir := t.TempDir()

	_, ok, err := ReadMarker(dir)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, WriteMarker(dir, Marker{RunID: "r1", Module: "core", Functions: 7}))
	m, ok, err := ReadMarker(dir)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "core", m.Module)
	require.Equal(t, 7, m.Functions)

	require.NoError(t, ClearMarker(dir))
	_, ok, err = ReadMarker(dir)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("CXXGATE_CACHE_DIR", "/tmp/cxg")
	t.Setenv("CXXGATE_MAX_SWEEPS", "3")

	c := Config{}.FromEnv()
	require.Equal(t, "/tmp/cxg", c.CacheDir)
	require.Equal(t, 3, c.MaxSweeps)
}
