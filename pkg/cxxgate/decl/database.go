package decl

import (
	"errors"
	"fmt"
)

// ItemID is a stable index into a Database's arena. IDs are never reused and
// never invalidated; cross-item links always go through an ItemID rather than
// a Go pointer.
type ItemID int32

// NoItem is the null reference.
const NoItem ItemID = -1

// ItemKind discriminates what a database item declares.
type ItemKind uint8

const (
	ItemNamespace ItemKind = iota
	ItemClass
	ItemEnum
	ItemEnumValue
	ItemMethod
)

func (k ItemKind) String() string {
	switch k {
	case ItemNamespace:
		return "namespace"
	case ItemClass:
		return "class"
	case ItemEnum:
		return "enum"
	case ItemEnumValue:
		return "enum-value"
	}
	return "method"
}

// Pass identifies one post-processing pass for the per-item markers the
// fixpoint scheduler relies on.
type Pass uint8

const (
	PassInherit Pass = iota
	PassTemplates
	PassDtor
	PassAlloc
	PassSynth

	PassCount
)

func (p Pass) String() string {
	switch p {
	case PassInherit:
		return "inheritance"
	case PassTemplates:
		return "template-discovery"
	case PassDtor:
		return "destructor-synthesis"
	case PassAlloc:
		return "allocation-place"
	case PassSynth:
		return "ffi-synthesis"
	}
	return fmt.Sprintf("pass(%d)", uint8(p))
}

// Item is one arena slot. Exactly one payload pointer is non-nil, matching
// Kind.
type Item struct {
	ID   ItemID
	Kind ItemKind
	Loc  Location
	Doc  string

	Namespace *NamespaceDecl
	Class     *ClassDecl
	Enum      *EnumDecl
	EnumVal   *EnumValue
	Method    *Method

	processed uint8
}

// Processed reports whether the given pass already handled this item.
func (it *Item) Processed(p Pass) bool { return it.processed&(1<<p) != 0 }

// MarkProcessed sets the pass marker. Markers are monotone: a pass never
// unmarks an item.
func (it *Item) MarkProcessed(p Pass) { it.processed |= 1 << p }

// Name returns a human-readable identity for diagnostics.
func (it *Item) Name() string {
	switch it.Kind {
	case ItemNamespace:
		return it.Namespace.Path.String()
	case ItemClass:
		return it.Class.Path.String()
	case ItemEnum:
		return it.Enum.Path.String()
	case ItemEnumValue:
		return it.EnumVal.Name
	case ItemMethod:
		return it.Method.Signature()
	}
	return fmt.Sprintf("item(%d)", it.ID)
}

// ErrUnknownType reports a declaration referencing a class the database (and
// its dependencies) has never seen. This is malformed input and fatal.
var ErrUnknownType = errors.New("declaration references unknown type")

// Database is the append-only declaration arena for one module, plus
// read-only attachments of already-processed dependency modules.
type Database struct {
	// ModuleName identifies the module this database describes.
	ModuleName string

	items []Item
	deps  []*Database

	classIndex map[string]ItemID
	enumIndex  map[string]ItemID

	// resolved holds the effective (inheritance-augmented) method set per
	// class path once the inheritance resolver has run.
	resolved map[string][]Method
}

// NewDatabase returns an empty database for the named module.
func NewDatabase(module string) *Database {
	return &Database{
		ModuleName: module,
		classIndex: make(map[string]ItemID),
		enumIndex:  make(map[string]ItemID),
		resolved:   make(map[string][]Method),
	}
}

// AttachDependency makes a previously processed module's database visible for
// read-only lookups (cross-module bases, template instantiations, casts).
func (d *Database) AttachDependency(dep *Database) {
	d.deps = append(d.deps, dep)
}

// Dependencies returns the attached dependency databases.
func (d *Database) Dependencies() []*Database { return d.deps }

func (d *Database) add(it Item) ItemID {
	it.ID = ItemID(len(d.items))
	d.items = append(d.items, it)
	return it.ID
}

// AddNamespace appends a namespace item.
func (d *Database) AddNamespace(ns *NamespaceDecl, loc Location, doc string) ItemID {
	return d.add(Item{Kind: ItemNamespace, Namespace: ns, Loc: loc, Doc: doc})
}

// AddClass appends a class item and indexes it by qualified name.
func (d *Database) AddClass(c *ClassDecl, loc Location, doc string) ItemID {
	id := d.add(Item{Kind: ItemClass, Class: c, Loc: loc, Doc: doc})
	d.classIndex[c.Path.String()] = id
	return id
}

// AddEnum appends an enum item and indexes it by qualified name.
func (d *Database) AddEnum(e *EnumDecl, loc Location, doc string) ItemID {
	id := d.add(Item{Kind: ItemEnum, Enum: e, Loc: loc, Doc: doc})
	d.enumIndex[e.Path.String()] = id
	return id
}

// AddEnumValue appends an enumerator item.
func (d *Database) AddEnumValue(v *EnumValue, loc Location, doc string) ItemID {
	return d.add(Item{Kind: ItemEnumValue, EnumVal: v, Loc: loc, Doc: doc})
}

// AddMethod appends a method item.
func (d *Database) AddMethod(m *Method, loc Location, doc string) ItemID {
	return d.add(Item{Kind: ItemMethod, Method: m, Loc: loc, Doc: doc})
}

// Len returns the number of items in this module's arena.
func (d *Database) Len() int { return len(d.items) }

// Item returns the arena slot for id. The pointer stays valid across appends
// only until the next Add call; passes must re-fetch after growing the arena.
func (d *Database) Item(id ItemID) *Item {
	if id < 0 || int(id) >= len(d.items) {
		return nil
	}
	return &d.items[id]
}

// Each calls fn for every item in declaration order. fn must not append to
// the database.
func (d *Database) Each(fn func(*Item)) {
	for i := range d.items {
		fn(&d.items[i])
	}
}

// EachClass calls fn for every class item in declaration order.
func (d *Database) EachClass(fn func(ItemID, *ClassDecl)) {
	for i := range d.items {
		if d.items[i].Kind == ItemClass {
			fn(d.items[i].ID, d.items[i].Class)
		}
	}
}

// EachMethod calls fn for every method item in declaration order.
func (d *Database) EachMethod(fn func(ItemID, *Method)) {
	for i := range d.items {
		if d.items[i].Kind == ItemMethod {
			fn(d.items[i].ID, d.items[i].Method)
		}
	}
}

// ClassByName resolves a qualified class name in this module first, then in
// dependency order.
func (d *Database) ClassByName(name string) (*ClassDecl, bool) {
	if id, ok := d.classIndex[name]; ok {
		return d.items[id].Class, true
	}
	for _, dep := range d.deps {
		if c, ok := dep.ClassByName(name); ok {
			return c, true
		}
	}
	return nil, false
}

// LocalClassID returns the arena ID of a class declared in this module.
func (d *Database) LocalClassID(name string) (ItemID, bool) {
	id, ok := d.classIndex[name]
	return id, ok
}

// LocalEnumID returns the arena ID of an enum declared in this module.
func (d *Database) LocalEnumID(name string) (ItemID, bool) {
	id, ok := d.enumIndex[name]
	return id, ok
}

// OwnMethods collects the methods declared directly on the named class, in
// declaration order. Inherited entries are excluded.
func (d *Database) OwnMethods(class string) []*Method {
	var out []*Method
	for i := range d.items {
		it := &d.items[i]
		if it.Kind != ItemMethod || it.Method.Member == nil {
			continue
		}
		if it.Method.Member.Class.String() == class && !it.Method.Inherited() {
			out = append(out, it.Method)
		}
	}
	return out
}

// SetResolved replaces the effective method set for a class. Replacement
// (not append) keeps the inheritance resolver idempotent.
func (d *Database) SetResolved(class string, methods []Method) {
	d.resolved[class] = methods
}

// Resolved looks up the effective method set for a class, consulting
// dependency databases when the class is not local.
func (d *Database) Resolved(class string) ([]Method, bool) {
	if ms, ok := d.resolved[class]; ok {
		return ms, true
	}
	for _, dep := range d.deps {
		if ms, ok := dep.Resolved(class); ok {
			return ms, true
		}
	}
	return nil, false
}
