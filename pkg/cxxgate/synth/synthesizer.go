package synth

import (
	"context"
	"fmt"
	"strings"

	"github.com/emirpasic/gods/v2/maps/treemap"

	"github.com/cxxgate/cxxgate-go/pkg/cxxgate/decl"
	"github.com/cxxgate/cxxgate-go/pkg/cxxgate/diag"
	"github.com/cxxgate/cxxgate-go/pkg/cxxgate/ffi"
)

// symbolPrefix namespaces every exported wrapper symbol.
const symbolPrefix = "cxg"

// RejectFunc is the hook signature for method filters. Returning true drops
// the method before synthesis; returning an error aborts the run.
type RejectFunc func(*decl.Method) (bool, error)

// candidate is one wrapper function awaiting its final name.
type candidate struct {
	baseName  string
	finalName string
	method    decl.Method
	origin    *decl.Method
	fn        ffi.Function
}

// Synthesizer consumes the resolved method sets plus allocation labels and
// produces wrapper signatures.
type Synthesizer struct {
	db     *decl.Database
	sink   *diag.Sink
	places *treemap.Map[string, ffi.AllocationPlace]
	insts  *Registry
	reject RejectFunc
}

// New wires a synthesizer. places maps qualified class names to their
// allocation decision; insts receives template instantiations as they are
// observed.
func New(db *decl.Database, sink *diag.Sink, places *treemap.Map[string, ffi.AllocationPlace], insts *Registry) *Synthesizer {
	return &Synthesizer{db: db, sink: sink, places: places, insts: insts}
}

// SetRejectFilter installs the ordered filter chain collapsed into a single
// predicate. May be nil.
func (s *Synthesizer) SetRejectFilter(f RejectFunc) { s.reject = f }

// placeFor resolves a class's allocation decision. Classes without a local
// decision (typically dependency classes) fall back to heap, which is always
// safe.
func (s *Synthesizer) placeFor(class string) ffi.AllocationPlace {
	if p, ok := s.places.Get(class); ok {
		return p
	}
	return ffi.PlaceHeap
}

// Run synthesizes every wrapper signature for the module. Per-method
// conversion failures are dropped and logged; caption collisions and filter
// errors are fatal.
func (s *Synthesizer) Run(ctx context.Context) ([]ffi.Function, error) {
	var cands []*candidate

	var runErr error
	s.db.EachClass(func(id decl.ItemID, c *decl.ClassDecl) {
		if runErr != nil {
			return
		}
		if len(c.TemplateParams) > 0 {
			// Uninstantiated templates are never synthesized; concrete
			// instantiations arrive as their own class declarations.
			s.db.Item(id).MarkProcessed(decl.PassSynth)
			s.db.Item(id).MarkProcessed(decl.PassTemplates)
			return
		}
		cs, resolved, err := s.classCandidates(ctx, c)
		if err != nil {
			runErr = err
			return
		}
		if !resolved {
			// Leave the item unmarked so the next sweep picks it up after
			// the inheritance pass has reached it.
			return
		}
		cands = append(cands, cs...)
		s.db.Item(id).MarkProcessed(decl.PassSynth)
		s.db.Item(id).MarkProcessed(decl.PassTemplates)
	})
	if runErr != nil {
		return nil, runErr
	}

	s.db.EachMethod(func(id decl.ItemID, m *decl.Method) {
		if runErr != nil || m.Member != nil {
			return
		}
		c, err := s.freeFunctionCandidate(ctx, id, m)
		if err != nil {
			runErr = err
			return
		}
		if c != nil {
			cands = append(cands, c)
		}
		s.db.Item(id).MarkProcessed(decl.PassSynth)
		s.db.Item(id).MarkProcessed(decl.PassTemplates)
	})
	if runErr != nil {
		return nil, runErr
	}

	if err := assignNames(cands); err != nil {
		return nil, err
	}

	out := make([]ffi.Function, 0, len(cands))
	for _, c := range cands {
		c.fn.Name = c.finalName
		if err := c.fn.Validate(); err != nil {
			return nil, fmt.Errorf("synth: %w", err)
		}
		out = append(out, c.fn)
	}
	return out, nil
}

// classCandidates builds candidates for one class: resolved methods, the
// destructor, and field accessors. The second return reports whether the
// class had a resolved set at all; without one the caller must not mark the
// item, or the next sweep could never reach it.
func (s *Synthesizer) classCandidates(ctx context.Context, c *decl.ClassDecl) ([]*candidate, bool, error) {
	path := c.Path.String()
	resolved, ok := s.db.Resolved(path)
	if !ok {
		return nil, false, nil
	}

	abstract := false
	for i := range resolved {
		if resolved[i].Member.PureVirtual {
			abstract = true
			break
		}
	}

	var cands []*candidate
	for i := range resolved {
		m := resolved[i]
		if m.Member.Visibility != decl.Public {
			continue
		}
		if abstract && m.Member.Kind == decl.Constructor {
			continue
		}
		cand, err := s.methodCandidate(ctx, path, m)
		if err != nil {
			return nil, true, err
		}
		if cand != nil {
			cands = append(cands, cand)
		}
	}

	accs, err := s.accessorCandidates(ctx, c)
	if err != nil {
		return nil, true, err
	}
	return append(cands, accs...), true, nil
}

// methodCandidate applies filters, records template instantiations, and
// builds the wrapper signature for one resolved method. A nil, nil return
// means the method was rejected or dropped.
func (s *Synthesizer) methodCandidate(ctx context.Context, class string, m decl.Method) (*candidate, error) {
	if s.reject != nil {
		rejected, err := s.reject(&m)
		if err != nil {
			return nil, fmt.Errorf("synth: method filter failed on %s: %w", m.Signature(), err)
		}
		if rejected {
			s.sink.Logger().Debug(ctx, "method rejected by filter", "method", m.Signature())
			return nil, nil
		}
	}
	if signatureParametric(&m) {
		s.sink.DropItem(ctx, "method", m.Signature(), ffi.ErrTemplateParam)
		return nil, nil
	}
	s.insts.ObserveMethod(&m)

	origin := ffi.Origin{
		Item:   decl.NoItem,
		Class:  class,
		Method: m.Name,
		Kind:   m.Member.Kind,
		Static: m.Member.Static,
		Const:  m.Member.Const,
	}
	if m.Operator != "" {
		origin.Method = "operator" + string(m.Operator)
	}
	if m.Member.Kind != decl.Regular {
		origin.Method = ""
	}
	fn, err := s.buildFunction(class, &m, origin)
	if err != nil {
		s.sink.DropItem(ctx, "method", m.Signature(), err)
		return nil, nil
	}
	return &candidate{
		baseName: s.baseName(class, &m),
		method:   m,
		origin:   &m,
		fn:       *fn,
	}, nil
}

func (s *Synthesizer) freeFunctionCandidate(ctx context.Context, id decl.ItemID, m *decl.Method) (*candidate, error) {
	mm := *m
	if s.reject != nil {
		rejected, err := s.reject(&mm)
		if err != nil {
			return nil, fmt.Errorf("synth: method filter failed on %s: %w", mm.Signature(), err)
		}
		if rejected {
			return nil, nil
		}
	}
	if signatureParametric(&mm) {
		s.sink.DropItem(ctx, "function", mm.Signature(), ffi.ErrTemplateParam)
		return nil, nil
	}
	s.insts.ObserveMethod(&mm)

	fn, err := s.buildFunction("", &mm, ffi.Origin{Item: id, Method: mm.Name, Static: true})
	if err != nil {
		s.sink.DropItem(ctx, "function", mm.Signature(), err)
		return nil, nil
	}
	return &candidate{
		baseName: symbolPrefix + "_" + sanitizeSymbol(mm.Name),
		method:   mm,
		origin:   &mm,
		fn:       *fn,
	}, nil
}

// buildFunction assembles the slots and return handling for one callable.
func (s *Synthesizer) buildFunction(class string, m *decl.Method, origin ffi.Origin) (*ffi.Function, error) {
	fn := &ffi.Function{Origin: origin, Place: ffi.PlaceNA}
	member := m.Member

	if member != nil && !member.Static && member.Kind != decl.Constructor {
		thisT := decl.Class(class).WithIndirection(decl.IndirPtr)
		if member.Const {
			thisT.ConstBase = true
		}
		bound, err := ffi.Bind(thisT)
		if err != nil {
			return nil, err
		}
		fn.Args = append(fn.Args, ffi.Argument{Name: "self", Type: bound, Meaning: ffi.This})
	}

	for i, a := range m.Args {
		bound, err := ffi.Bind(a.Type)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		name := a.Name
		if name == "" {
			name = fmt.Sprintf("arg%d", i)
		}
		fn.Args = append(fn.Args, ffi.Argument{Name: name, Type: bound, Meaning: ffi.Positional, Index: i})
	}

	ret := m.Return
	if member != nil {
		switch member.Kind {
		case decl.Constructor:
			ret = decl.Class(class)
		case decl.Destructor:
			ret = decl.Void()
			// The destructor wrapper either deallocates (heap) or invokes
			// only the destructor body (stack); the place records which.
			fn.Place = s.placeFor(class)
		}
	}

	if ret.IsClassValue() {
		bound, err := ffi.Bind(ret)
		if err != nil {
			return nil, fmt.Errorf("return: %w", err)
		}
		fn.Place = s.placeFor(ret.Name)
		if fn.Place == ffi.PlaceStack {
			// Caller supplies storage; the wrapper placement-constructs
			// into it and the ABI return stays void.
			fn.Args = append(fn.Args, ffi.Argument{Name: "out", Type: bound, Meaning: ffi.ReturnOut})
			fn.Return = voidType()
		} else {
			// Heap: the wrapper allocates and returns the pointer with
			// ownership transferred to the caller.
			fn.Return = bound
		}
		return fn, nil
	}

	bound, err := ffi.Bind(ret)
	if err != nil {
		return nil, fmt.Errorf("return: %w", err)
	}
	fn.Return = bound
	return fn, nil
}

func voidType() ffi.Type {
	t, _ := ffi.Bind(decl.Void())
	return t
}

// signatureParametric reports whether any part of the signature still
// mentions an unsubstituted template parameter. Such methods are dropped:
// parametric types must never reach ABI conversion.
func signatureParametric(m *decl.Method) bool {
	for _, a := range m.Args {
		if a.Type.IsParametric() {
			return true
		}
	}
	if m.Return.IsParametric() {
		return true
	}
	for _, t := range m.TemplateArgs {
		if t.IsParametric() {
			return true
		}
	}
	return false
}

var symbolReplacer = strings.NewReplacer("::", "_", "<", "_", ">", "", ", ", "_", ",", "_", " ", "_", "~", "")

func sanitizeSymbol(s string) string { return symbolReplacer.Replace(s) }

var operatorNames = map[decl.Operator]string{
	"==": "eq", "!=": "ne", "<": "lt", ">": "gt", "<=": "le", ">=": "ge",
	"+": "add", "-": "sub", "*": "mul", "/": "div", "%": "mod",
	"[]": "index", "()": "call", "=": "assign",
	"+=": "add_assign", "-=": "sub_assign", "<<": "shl", ">>": "shr",
	"!": "not", "++": "inc", "--": "dec",
}

// baseName derives the pre-caption wrapper name for a member callable.
func (s *Synthesizer) baseName(class string, m *decl.Method) string {
	scope := symbolPrefix + "_" + sanitizeSymbol(class)
	switch {
	case m.Member != nil && m.Member.Kind == decl.Constructor:
		return scope + "_new"
	case m.Member != nil && m.Member.Kind == decl.Destructor:
		return scope + "_delete"
	case m.Operator != "":
		name, ok := operatorNames[m.Operator]
		if !ok {
			name = "op"
		}
		return scope + "_op_" + name
	default:
		return scope + "_" + sanitizeSymbol(m.Name)
	}
}

// assignNames groups candidates by base name and runs caption
// disambiguation per group, preserving candidate order.
func assignNames(cands []*candidate) error {
	groups := make(map[string][]*candidate)
	var order []string
	for _, c := range cands {
		if _, ok := groups[c.baseName]; !ok {
			order = append(order, c.baseName)
		}
		groups[c.baseName] = append(groups[c.baseName], c)
	}
	for _, name := range order {
		if err := disambiguate(groups[name]); err != nil {
			return err
		}
	}
	// Final names must be globally unique; two groups can only collide if
	// captions re-create another group's base name.
	seen := make(map[string]*candidate, len(cands))
	for _, c := range cands {
		if prev, ok := seen[c.finalName]; ok {
			return fmt.Errorf("%w: %s and %s both map to %s",
				ErrCaptionCollision, prev.describe(), c.describe(), c.finalName)
		}
		seen[c.finalName] = c
	}
	return nil
}
