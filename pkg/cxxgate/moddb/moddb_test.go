package moddb

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/emirpasic/gods/v2/maps/treemap"
	"github.com/stretchr/testify/require"

	"github.com/cxxgate/cxxgate-go/pkg/cxxgate/decl"
	"github.com/cxxgate/cxxgate-go/pkg/cxxgate/ffi"
	"github.com/cxxgate/cxxgate-go/pkg/cxxgate/synth"
)

func sampleModule() *Module {
	db := decl.NewDatabase("core")
	db.AddClass(&decl.ClassDecl{Path: decl.ParsePath("core::Object"), Movable: true}, decl.Location{}, "root type")
	db.SetResolved("core::Object", []decl.Method{{
		Name:   "event",
		Member: &decl.Membership{Class: decl.ParsePath("core::Object"), Visibility: decl.Public},
		Return: decl.Void(),
	}})

	places := treemap.New[string, ffi.AllocationPlace]()
	places.Put("core::Object", ffi.PlaceHeap)

	insts := []synth.Instantiation{{Class: "QList", Args: []decl.Type{decl.Builtin("int", true, 0)}}}
	return Snapshot(db, places, insts)
}

func TestRoundTrip(t *testing.T) {
	m := sampleModule()

	var buf bytes.Buffer
	require.NoError(t, m.Write(&buf))

	got, err := Read(&buf)
	require.NoError(t, err)
	require.Equal(t, "core", got.Name)
	require.Equal(t, ffi.PlaceHeap, got.Places["core::Object"])
	require.Len(t, got.Instantiations, 1)
	require.Equal(t, "QList<int>", got.Instantiations[0].Key())

	db := got.Database()
	c, ok := db.ClassByName("core::Object")
	require.True(t, ok)
	require.True(t, c.Movable)

	ms, ok := db.Resolved("core::Object")
	require.True(t, ok)
	require.Len(t, ms, 1)
	require.Equal(t, "event", ms[0].Name)
}

func TestSaveOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "core.cxgdb")
	require.NoError(t, Save(sampleModule(), path))

	got, err := Open(path)
	require.NoError(t, err)
	require.Equal(t, "core", got.Name)
}

func TestVersionMismatchRejected(t *testing.T) {
	m := sampleModule()
	m.Version = 99

	var buf bytes.Buffer
	require.NoError(t, m.Write(&buf))
	_, err := Read(&buf)
	require.Error(t, err)
}
