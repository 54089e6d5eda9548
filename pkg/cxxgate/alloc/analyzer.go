package alloc

import (
	"context"

	"github.com/emirpasic/gods/v2/maps/treemap"

	"github.com/cxxgate/cxxgate-go/pkg/cxxgate/decl"
	"github.com/cxxgate/cxxgate-go/pkg/cxxgate/diag"
	"github.com/cxxgate/cxxgate-go/pkg/cxxgate/ffi"
)

// Decision thresholds. Below MinSamples the evidence is too thin to prefer
// stack; above MaxByValueFraction the mixed usage pattern suggests the
// type's pointer identity matters. Both cases resolve to heap with a
// diagnostic.
const (
	MinSamples         = 5
	MaxByValueFraction = 0.5
)

// Stats accumulates how one class is used across the API surface. Consumed
// by Decide, then discarded.
type Stats struct {
	HasVirtual bool
	Ptr        int
	NonPtr     int
}

// Analyzer scans a resolved database and labels every local class with an
// allocation place.
type Analyzer struct {
	db   *decl.Database
	sink *diag.Sink
}

// New returns an analyzer over db reporting through sink.
func New(db *decl.Database, sink *diag.Sink) *Analyzer {
	return &Analyzer{db: db, sink: sink}
}

// Run scans every signature, applies the decision policy, and returns the
// class-name → place map. overrides, keyed by qualified class name, win over
// the heuristic unconditionally. The treemap keeps iteration order sorted so
// downstream output is deterministic.
func (a *Analyzer) Run(ctx context.Context, overrides map[string]ffi.AllocationPlace) *treemap.Map[string, ffi.AllocationPlace] {
	stats := a.scan()

	places := treemap.New[string, ffi.AllocationPlace]()
	a.db.EachClass(func(id decl.ItemID, c *decl.ClassDecl) {
		name := c.Path.String()
		place := a.decide(ctx, c, stats[name], overrides)
		places.Put(name, place)
		a.db.Item(id).MarkProcessed(decl.PassAlloc)
	})
	return places
}

// scan walks every resolved method and free function once, counting pointer
// and non-pointer occurrences of each class and noting virtual methods.
func (a *Analyzer) scan() map[string]*Stats {
	stats := make(map[string]*Stats)
	get := func(name string) *Stats {
		s, ok := stats[name]
		if !ok {
			s = &Stats{}
			stats[name] = s
		}
		return s
	}

	count := func(t decl.Type) {
		if t.Kind != decl.KindClass {
			return
		}
		s := get(t.Name)
		if t.IsPointerLike() {
			s.Ptr++
		} else {
			s.NonPtr++
		}
	}

	scanMethod := func(m *decl.Method) {
		for _, arg := range m.Args {
			count(arg.Type)
		}
		count(m.Return)
	}

	a.db.EachClass(func(_ decl.ItemID, c *decl.ClassDecl) {
		name := c.Path.String()
		resolved, ok := a.db.Resolved(name)
		if !ok {
			return
		}
		for i := range resolved {
			m := &resolved[i]
			if m.Member.Virtual || m.Member.PureVirtual {
				get(name).HasVirtual = true
			}
			scanMethod(m)
		}
		for _, f := range c.Fields {
			count(f.Type)
		}
	})

	// Free functions participate in usage counts too.
	a.db.EachMethod(func(_ decl.ItemID, m *decl.Method) {
		if m.Member == nil {
			scanMethod(m)
		}
	})

	return stats
}

func (a *Analyzer) decide(ctx context.Context, c *decl.ClassDecl, s *Stats, overrides map[string]ffi.AllocationPlace) ffi.AllocationPlace {
	name := c.Path.String()

	if p, ok := overrides[name]; ok {
		return p
	}

	// Polymorphic objects cannot be relocated or placed in caller storage.
	if s != nil && s.HasVirtual {
		return ffi.PlaceHeap
	}

	// A type the wrapper cannot move can only live where the native side
	// put it.
	if !c.Movable {
		return ffi.PlaceHeap
	}

	total := 0
	if s != nil {
		total = s.Ptr + s.NonPtr
	}
	if total < MinSamples {
		a.sink.Heuristic(ctx, "insufficient usage data for stack placement, defaulting to heap",
			"class", name, "samples", total)
		return ffi.PlaceHeap
	}

	if s.Ptr == 0 {
		return ffi.PlaceStack
	}

	fraction := float64(s.NonPtr) / float64(total)
	if fraction > MaxByValueFraction {
		a.sink.Heuristic(ctx, "mixed pointer and by-value usage, defaulting to heap",
			"class", name, "by_value_fraction", fraction)
	}
	return ffi.PlaceHeap
}
