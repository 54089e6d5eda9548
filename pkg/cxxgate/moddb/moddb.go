package moddb

import (
	"fmt"
	"io"
	"os"

	"github.com/emirpasic/gods/v2/maps/treemap"
	"github.com/fxamacker/cbor/v2"

	"github.com/cxxgate/cxxgate-go/pkg/cxxgate/decl"
	"github.com/cxxgate/cxxgate-go/pkg/cxxgate/ffi"
	"github.com/cxxgate/cxxgate-go/pkg/cxxgate/synth"
)

// formatVersion guards against loading databases written by an incompatible
// engine.
const formatVersion = 1

// ClassRecord pairs a class declaration with the item metadata worth
// persisting.
type ClassRecord struct {
	Class *decl.ClassDecl
	Doc   string
}

// Module is the on-disk shape of one processed module.
type Module struct {
	Version        int
	Name           string
	Classes        []ClassRecord
	Resolved       map[string][]decl.Method
	Places         map[string]ffi.AllocationPlace
	Instantiations []synth.Instantiation
}

// Snapshot captures a processed database for persistence.
func Snapshot(db *decl.Database, places *treemap.Map[string, ffi.AllocationPlace], insts []synth.Instantiation) *Module {
	m := &Module{
		Version:        formatVersion,
		Name:           db.ModuleName,
		Resolved:       make(map[string][]decl.Method),
		Places:         make(map[string]ffi.AllocationPlace),
		Instantiations: insts,
	}
	db.EachClass(func(id decl.ItemID, c *decl.ClassDecl) {
		m.Classes = append(m.Classes, ClassRecord{Class: c, Doc: db.Item(id).Doc})
		if ms, ok := db.Resolved(c.Path.String()); ok {
			m.Resolved[c.Path.String()] = ms
		}
	})
	if places != nil {
		for _, k := range places.Keys() {
			v, _ := places.Get(k)
			m.Places[k] = v
		}
	}
	return m
}

// Database rebuilds a read-only declaration database from the snapshot, for
// use as a dependency attachment.
func (m *Module) Database() *decl.Database {
	db := decl.NewDatabase(m.Name)
	for _, rec := range m.Classes {
		db.AddClass(rec.Class, decl.Location{}, rec.Doc)
	}
	for class, ms := range m.Resolved {
		db.SetResolved(class, ms)
	}
	return db
}

// Write encodes the module to w.
func (m *Module) Write(w io.Writer) error {
	enc := cbor.NewEncoder(w)
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("moddb: encode %s: %w", m.Name, err)
	}
	return nil
}

// Read decodes a module from r and checks format compatibility.
func Read(r io.Reader) (*Module, error) {
	var m Module
	dec := cbor.NewDecoder(r)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("moddb: decode: %w", err)
	}
	if m.Version != formatVersion {
		return nil, fmt.Errorf("moddb: unsupported format version %d", m.Version)
	}
	return &m, nil
}

// Save writes the module to path, replacing any previous file atomically so
// a crashed run never leaves a torn database behind.
func Save(m *Module, path string) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("moddb: %w", err)
	}
	if err := m.Write(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("moddb: %w", err)
	}
	return os.Rename(tmp, path)
}

// Open reads the module stored at path.
func Open(path string) (*Module, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("moddb: %w", err)
	}
	defer f.Close()
	return Read(f)
}
