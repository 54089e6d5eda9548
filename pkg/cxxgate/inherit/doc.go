// Package inherit computes each class's effective method set under C++
// member lookup rules: hiding by name, re-enabling via using-directives,
// multi-base ambiguity, and the virtual-base diamond exception.
//
// The resolver is idempotent: it replaces a class's resolved set rather than
// appending to it, so running it twice over the same database yields the
// same result. Per-method ambiguity failures are logged and the method is
// omitted; only a cyclic base dependency or an unknown base type aborts the
// run.
package inherit
