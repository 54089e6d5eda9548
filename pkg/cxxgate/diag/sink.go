package diag

import (
	"context"
)

// Summary aggregates the countable outcomes of one run. The zero value is a
// clean run with nothing dropped.
type Summary struct {
	DroppedItems      int
	HeuristicWarnings int
	StuckItems        int
}

// Sink is the diagnostics channel threaded through every pipeline pass. It is
// scoped to exactly one run; two concurrent runs must use two sinks. The
// engine itself is single-threaded, so Sink performs no locking.
type Sink struct {
	log     Logger
	runID   string
	summary Summary
}

// NewSink wires a Sink over the given logger. runID is attached to every
// record so interleaved logs from different runs stay distinguishable.
func NewSink(log Logger, runID string) *Sink {
	if log == nil {
		log = New(nil)
	}
	return &Sink{log: log.With("run", runID), runID: runID}
}

// RunID returns the identifier this sink was created with.
func (s *Sink) RunID() string { return s.runID }

// Logger exposes the underlying logger for passes that emit plain records.
func (s *Sink) Logger() Logger { return s.log }

// DropItem records a per-item recoverable failure: the named item is excluded
// from output and the run continues.
func (s *Sink) DropItem(ctx context.Context, kind, name string, err error) {
	s.summary.DroppedItems++
	s.log.Warn(ctx, "item dropped", "kind", kind, "item", name, "reason", err)
}

// Heuristic records a decision made with insufficient confidence. The
// decision itself always resolves to the safe default; this only surfaces
// that the evidence was thin.
func (s *Sink) Heuristic(ctx context.Context, msg string, args ...any) {
	s.summary.HeuristicWarnings++
	s.log.Warn(ctx, msg, args...)
}

// Stuck records an item the fixpoint scheduler could not make progress on.
func (s *Sink) Stuck(ctx context.Context, pass, item string) {
	s.summary.StuckItems++
	s.log.Error(ctx, "item permanently unprocessed", "pass", pass, "item", item)
}

// Summary returns the counters accumulated so far.
func (s *Sink) Summary() Summary { return s.summary }
