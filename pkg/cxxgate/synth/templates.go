package synth

import (
	"github.com/cxxgate/cxxgate-go/pkg/cxxgate/decl"
)

// Instantiation is one concrete template argument list observed in the API
// surface.
type Instantiation struct {
	Class string
	Args  []decl.Type
}

// Key renders the canonical identity of the instantiation.
func (i Instantiation) Key() string {
	return decl.Class(i.Class, i.Args...).String()
}

// Registry tracks which concrete template instantiations have been seen, in
// this module or in any dependency. First sightings are recorded in order so
// downstream generators can emit bindings for them deterministically.
type Registry struct {
	seen  map[string]bool
	order []Instantiation
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{seen: make(map[string]bool)}
}

// SeedFromDependency marks instantiations a dependency module already bound,
// so they are not re-recorded here.
func (r *Registry) SeedFromDependency(insts []Instantiation) {
	for _, i := range insts {
		r.seen[i.Key()] = true
	}
}

// Observe walks a type and records any concrete instantiation not seen
// before. Parametric types are ignored; they are rejected elsewhere and can
// never need a specialization.
func (r *Registry) Observe(t decl.Type) {
	if t.Kind == decl.KindClass && len(t.TemplateArgs) > 0 && !t.IsParametric() {
		inst := Instantiation{Class: t.Name, Args: t.TemplateArgs}
		if key := inst.Key(); !r.seen[key] {
			r.seen[key] = true
			r.order = append(r.order, inst)
		}
	}
	for _, a := range t.TemplateArgs {
		r.Observe(a)
	}
	if t.Fn != nil {
		if t.Fn.Return != nil {
			r.Observe(*t.Fn.Return)
		}
		for _, p := range t.Fn.Params {
			r.Observe(p)
		}
	}
}

// ObserveMethod records every instantiation a signature mentions.
func (r *Registry) ObserveMethod(m *decl.Method) {
	for _, a := range m.Args {
		r.Observe(a.Type)
	}
	r.Observe(m.Return)
	for _, t := range m.TemplateArgs {
		r.Observe(t)
	}
}

// New returns the instantiations first seen in this module, in observation
// order.
func (r *Registry) New() []Instantiation {
	out := make([]Instantiation, len(r.order))
	copy(out, r.order)
	return out
}
