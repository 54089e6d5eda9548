// Package diag provides the run-scoped diagnostics sink used by the
// binding engine.
//
// The engine never logs through process-global state: every pass receives a
// *Sink that belongs to exactly one run. The sink wraps a slog.Logger for
// output and additionally counts dropped items and heuristic warnings so the
// end-of-run summary can report them without re-scanning the log.
//
// # Logger facade
//
// The Logger interface mirrors the subset of log/slog the engine needs. It is
// intentionally small so tests can substitute a recording implementation:
//
//	type Logger interface {
//	    Debug(ctx context.Context, msg string, args ...any)
//	    Info(ctx context.Context, msg string, args ...any)
//	    Warn(ctx context.Context, msg string, args ...any)
//	    Error(ctx context.Context, msg string, args ...any)
//	    With(args ...any) Logger
//	}
//
// # Typical use
//
//	sink := diag.NewSink(diag.New(nil), runID)
//	sink.DropItem(ctx, "method", "Widget::resize", err)
//	...
//	summary := sink.Summary()
package diag
