package cxxgate

import (
	"context"
	"fmt"

	"github.com/emirpasic/gods/v2/maps/treemap"
	"github.com/google/uuid"

	"github.com/cxxgate/cxxgate-go/pkg/cxxgate/alloc"
	"github.com/cxxgate/cxxgate-go/pkg/cxxgate/decl"
	"github.com/cxxgate/cxxgate-go/pkg/cxxgate/diag"
	"github.com/cxxgate/cxxgate-go/pkg/cxxgate/ffi"
	"github.com/cxxgate/cxxgate-go/pkg/cxxgate/inherit"
	"github.com/cxxgate/cxxgate-go/pkg/cxxgate/moddb"
	"github.com/cxxgate/cxxgate-go/pkg/cxxgate/synth"
)

// MethodFilter is one entry of the ordered rejection chain applied before
// synthesis. Filters run in registration order; the first one to reject a
// method wins and later filters never see it. A filter error aborts the run.
type MethodFilter struct {
	Name   string
	Reject func(*decl.Method) (bool, error)
}

// DatabaseHook post-processes the ingested declaration database before the
// first sweep, in registration order, so a hook's mutations feed inheritance
// resolution, allocation analysis and synthesis. A hook error aborts the run.
type DatabaseHook func(ctx context.Context, db *decl.Database) error

// Result is everything one run produces.
type Result struct {
	RunID     string
	Functions []ffi.Function

	// Places maps every local class to its allocation decision, in sorted
	// key order.
	Places *treemap.Map[string, ffi.AllocationPlace]

	// Instantiations lists the concrete template argument lists observed in
	// this module, excluding those already known from dependencies.
	Instantiations []synth.Instantiation

	Summary diag.Summary
}

// Pipeline drives the passes over one declaration database to fixpoint.
type Pipeline struct {
	db      *decl.Database
	cfg     Config
	sink    *diag.Sink
	reg     *synth.Registry
	filters []MethodFilter
	hooks   []DatabaseHook
}

// NewPipeline wires a pipeline over db. log may be nil, which discards
// diagnostics.
func NewPipeline(db *decl.Database, cfg Config, log diag.Logger) *Pipeline {
	if log == nil {
		log = diag.Discard()
	}
	runID := uuid.NewString()
	return &Pipeline{
		db:   db,
		cfg:  cfg,
		sink: diag.NewSink(log.With("module", db.ModuleName), runID),
		reg:  synth.NewRegistry(),
	}
}

// Sink exposes the run-scoped diagnostics sink.
func (p *Pipeline) Sink() *diag.Sink { return p.sink }

// AttachDependency makes an already-processed module's classes resolvable
// and seeds its template instantiations, so this module never re-reports
// them.
func (p *Pipeline) AttachDependency(mod *moddb.Module) {
	p.db.AttachDependency(mod.Database())
	p.reg.SeedFromDependency(mod.Instantiations)
}

// AddFilter appends a method filter to the rejection chain.
func (p *Pipeline) AddFilter(f MethodFilter) { p.filters = append(p.filters, f) }

// AddHook appends a database hook run ahead of the first sweep.
func (p *Pipeline) AddHook(h DatabaseHook) { p.hooks = append(p.hooks, h) }

// rejectChain collapses the filter list into a single predicate with
// first-rejection-wins semantics.
func (p *Pipeline) rejectChain() synth.RejectFunc {
	if len(p.filters) == 0 {
		return nil
	}
	filters := p.filters
	return func(m *decl.Method) (bool, error) {
		for _, f := range filters {
			rejected, err := f.Reject(m)
			if err != nil {
				return false, fmt.Errorf("filter %q: %w", f.Name, err)
			}
			if rejected {
				return true, nil
			}
		}
		return false, nil
	}
}

// Run sweeps the passes until every item carries all of its markers. A sweep
// that leaves the pending count unchanged means the remaining items can
// never complete; they are reported through the sink and the run fails with
// ErrStuck.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	for _, h := range p.hooks {
		if err := h(ctx, p.db); err != nil {
			return nil, fmt.Errorf("cxxgate: database hook: %w", err)
		}
	}

	resolver := inherit.New(p.db, p.sink)
	analyzer := alloc.New(p.db, p.sink)

	var (
		fns    []ffi.Function
		places *treemap.Map[string, ffi.AllocationPlace]
	)

	prev := -1
	for sweep := 0; ; sweep++ {
		if sweep >= p.cfg.maxSweeps() {
			return nil, fmt.Errorf("%w: sweep limit %d reached", ErrStuck, p.cfg.maxSweeps())
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := resolver.Resolve(ctx); err != nil {
			return nil, err
		}
		places = analyzer.Run(ctx, p.cfg.AllocOverrides)

		s := synth.New(p.db, p.sink, places, p.reg)
		s.SetRejectFilter(p.rejectChain())
		var err error
		fns, err = s.Run(ctx)
		if err != nil {
			return nil, err
		}

		pend := p.pending()
		if len(pend) == 0 {
			break
		}
		if len(pend) == prev {
			return nil, p.failStuck(ctx, pend)
		}
		prev = len(pend)
		p.sink.Logger().Debug(ctx, "sweep incomplete, continuing", "sweep", sweep, "pending", len(pend))
	}

	return &Result{
		RunID:          p.sink.RunID(),
		Functions:      fns,
		Places:         places,
		Instantiations: p.reg.New(),
		Summary:        p.sink.Summary(),
	}, nil
}

// Snapshot packages the processed database for persistence and dependent
// modules. Only valid after a successful Run.
func (p *Pipeline) Snapshot(r *Result) *moddb.Module {
	return moddb.Snapshot(p.db, r.Places, r.Instantiations)
}

// failStuck reports every stranded item and aborts the run.
func (p *Pipeline) failStuck(ctx context.Context, pend []pendingWork) error {
	for _, w := range pend {
		p.sink.Stuck(ctx, w.pass.String(), w.name)
	}
	return fmt.Errorf("%w: %d items pending", ErrStuck, len(pend))
}

type pendingWork struct {
	name string
	pass decl.Pass
}

// passesFor lists the passes that must mark an item before the run is
// complete. Only classes and free functions carry work.
func passesFor(it *decl.Item) []decl.Pass {
	switch {
	case it.Kind == decl.ItemClass:
		return []decl.Pass{decl.PassInherit, decl.PassDtor, decl.PassAlloc, decl.PassTemplates, decl.PassSynth}
	case it.Kind == decl.ItemMethod && it.Method.Member == nil:
		return []decl.Pass{decl.PassTemplates, decl.PassSynth}
	default:
		return nil
	}
}

func (p *Pipeline) pending() []pendingWork {
	var out []pendingWork
	p.db.Each(func(it *decl.Item) {
		for _, pass := range passesFor(it) {
			if !it.Processed(pass) {
				out = append(out, pendingWork{name: it.Name(), pass: pass})
			}
		}
	})
	return out
}
