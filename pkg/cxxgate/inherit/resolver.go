package inherit

import (
	"context"
	"fmt"
	"strings"

	"github.com/cxxgate/cxxgate-go/pkg/cxxgate/decl"
	"github.com/cxxgate/cxxgate-go/pkg/cxxgate/diag"
)

func errAmbiguous(group []candidate) error {
	bases := make([]string, len(group))
	for i, c := range group {
		bases[i] = c.via.Base.Name
	}
	return fmt.Errorf("member inherited ambiguously from bases %s", strings.Join(bases, ", "))
}

// Resolver augments every local class with the members it inherits.
type Resolver struct {
	db   *decl.Database
	sink *diag.Sink
}

// New returns a resolver over db reporting through sink.
func New(db *decl.Database, sink *diag.Sink) *Resolver {
	return &Resolver{db: db, sink: sink}
}

// Resolve computes the effective method set of every class in the module, in
// base-before-derived order. The only fatal failures are a cyclic base
// dependency and a base type the database has never seen; everything else
// degrades to dropped members.
func (r *Resolver) Resolve(ctx context.Context) error {
	order, err := topoOrder(r.db)
	if err != nil {
		return err
	}
	for _, id := range order {
		c := r.db.Item(id).Class
		resolved := r.resolveClass(ctx, c)
		r.db.SetResolved(c.Path.String(), resolved)
		it := r.db.Item(id)
		it.MarkProcessed(decl.PassInherit)
		it.MarkProcessed(decl.PassDtor)
	}
	return nil
}

// candidate is one method a base offers to the derived class, paired with
// the specifier it arrived through.
type candidate struct {
	method decl.Method
	via    decl.BaseSpecifier
}

func (r *Resolver) resolveClass(ctx context.Context, c *decl.ClassDecl) []decl.Method {
	path := c.Path.String()

	var own []decl.Method
	for _, m := range r.db.OwnMethods(path) {
		own = append(own, *m)
	}

	ownNames := make(map[string]bool, len(own))
	for i := range own {
		ownNames[own[i].Name] = true
	}

	// Pass 1: gather every candidate a base contributes, applying the
	// hiding and using-directive rules per candidate.
	var candidates []candidate
	for _, b := range c.Bases {
		if !eligibleBase(b) {
			continue
		}
		baseMethods, ok := r.db.Resolved(b.Base.Name)
		if !ok {
			// Base exists but was never resolved; topoOrder guarantees this
			// cannot happen for local bases, so the dependency database is
			// incomplete. Degrade to dropping the base's contribution.
			r.sink.DropItem(ctx, "base", b.Base.Name, decl.ErrUnknownType)
			continue
		}
		for _, bm := range baseMethods {
			if !inheritable(&bm) {
				continue
			}
			if ownNames[bm.Name] {
				// A same-named member on the derived class hides the base
				// member, unless a using-directive re-enables it.
				if !c.UsingAllows(b.Base.Name, bm.Name) {
					continue
				}
				// Re-enabled, but an own declaration with the same argument
				// list still wins.
				if ownDeclares(own, &bm) {
					continue
				}
			}
			candidates = append(candidates, newCandidate(c, b, bm))
		}
	}

	// Pass 2: group same-name same-argument candidates and apply the
	// multi-base ambiguity rule.
	result := own
	seen := make(map[string]bool, len(candidates))
	for i := range candidates {
		key := overloadKey(&candidates[i].method)
		if seen[key] {
			continue
		}
		seen[key] = true

		group := []candidate{candidates[i]}
		for j := i + 1; j < len(candidates); j++ {
			if overloadKey(&candidates[j].method) == key {
				group = append(group, candidates[j])
			}
		}

		if len(group) == 1 || !distinctSpecifiers(group) {
			// Ambiguity only arises when the same member reaches the derived
			// class through more than one base specifier; duplicates from a
			// single specifier are one declaration seen once.
			result = append(result, group[0].method)
			continue
		}
		if m, ok := mergeDiamond(group); ok {
			result = append(result, m)
			continue
		}
		r.sink.DropItem(ctx, "method", path+"::"+group[0].method.Name,
			errAmbiguous(group))
	}

	// Destructor synthesis: destructors are never inherited, so a class
	// that declares none gets one, virtual if any eligible base destructor
	// along the chain is virtual.
	if !hasDestructor(result) {
		result = append(result, r.synthesizeDestructor(c))
	}

	return result
}

// inheritable filters out the member kinds C++ never inherits.
func inheritable(m *decl.Method) bool {
	if m.Member == nil {
		return false
	}
	if m.Member.Kind == decl.Constructor || m.Member.Kind == decl.Destructor {
		return false
	}
	if m.Operator == "=" {
		return false
	}
	return true
}

// ownDeclares reports whether the derived class directly declares a method
// with the same name and argument list as bm.
func ownDeclares(own []decl.Method, bm *decl.Method) bool {
	for i := range own {
		if own[i].Name == bm.Name && decl.SameArgTypes(&own[i], bm) {
			return true
		}
	}
	return false
}

// newCandidate rebinds a base method onto the derived class: membership
// moves, the traversed specifier is prepended to the provenance chain, and
// visibility tightens to the more restrictive of the member's own access and
// the inheritance access.
func newCandidate(c *decl.ClassDecl, via decl.BaseSpecifier, bm decl.Method) candidate {
	m := bm
	member := *bm.Member
	member.Class = c.Path
	member.Visibility = decl.MoreRestrictive(member.Visibility, via.Visibility)
	m.Member = &member

	chain := make([]decl.BaseSpecifier, 0, len(bm.InheritanceChain)+1)
	chain = append(chain, via)
	chain = append(chain, bm.InheritanceChain...)
	m.InheritanceChain = chain

	return candidate{method: m, via: via}
}

// overloadKey identifies a member by name, argument types and constness, the
// identity C++ uses to tell overloads apart. A const/non-const pair like
// data()/data() const is two distinct members, never an ambiguity.
func overloadKey(m *decl.Method) string {
	key := m.Name + "("
	for i, a := range m.Args {
		if i > 0 {
			key += ","
		}
		key += a.Type.String()
	}
	key += ")"
	if m.Member != nil && m.Member.Const {
		key += " const"
	}
	return key
}

// distinctSpecifiers reports whether the group's candidates arrived through
// more than one base specifier of the derived class.
func distinctSpecifiers(group []candidate) bool {
	for _, c := range group[1:] {
		if c.via.Index != group[0].via.Index {
			return true
		}
	}
	return false
}

// origin returns the class the candidate's method was originally declared
// on: the deepest specifier of its provenance chain.
func origin(c candidate) (name string, virtual bool) {
	last := c.method.InheritanceChain[len(c.method.InheritanceChain)-1]
	return last.Base.Name, last.Virtual
}

// mergeDiamond applies the diamond exception: a member reaching the derived
// class through multiple bases survives only when every path goes through a
// virtual specifier of the same ultimate origin. The survivor takes the most
// restrictive visibility among the duplicates.
//
// The most-restrictive rule is a heuristic carried over from the reference
// behavior; it does not claim to handle every diamond shape.
func mergeDiamond(group []candidate) (decl.Method, bool) {
	firstOrigin, virtual := origin(group[0])
	if !virtual {
		return decl.Method{}, false
	}
	vis := group[0].method.Member.Visibility
	for _, c := range group[1:] {
		o, v := origin(c)
		if o != firstOrigin || !v {
			return decl.Method{}, false
		}
		vis = decl.MoreRestrictive(vis, c.method.Member.Visibility)
	}
	m := group[0].method
	member := *m.Member
	member.Visibility = vis
	m.Member = &member
	return m, true
}

func hasDestructor(methods []decl.Method) bool {
	for i := range methods {
		if methods[i].Member != nil && methods[i].Member.Kind == decl.Destructor {
			return true
		}
	}
	return false
}

// synthesizeDestructor builds the implicit destructor for a class that
// declares none. Virtuality propagates from any destructor along the
// eligible base chain, matching the C++ implicit-destructor rule.
func (r *Resolver) synthesizeDestructor(c *decl.ClassDecl) decl.Method {
	virtual := false
	for _, b := range c.Bases {
		if !eligibleBase(b) {
			continue
		}
		if ms, ok := r.db.Resolved(b.Base.Name); ok {
			for i := range ms {
				if ms[i].Member != nil && ms[i].Member.Kind == decl.Destructor && ms[i].Member.Virtual {
					virtual = true
				}
			}
		}
	}
	return decl.Method{
		Name: "~" + c.Name(),
		Member: &decl.Membership{
			Class:      c.Path,
			Kind:       decl.Destructor,
			Virtual:    virtual,
			Visibility: decl.Public,
		},
		Return: decl.Void(),
	}
}
