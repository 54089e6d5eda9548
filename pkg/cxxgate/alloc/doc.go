// Package alloc decides, per class, whether by-value results are
// materialized in caller-supplied storage (stack) or heap-allocated with
// ownership transfer.
//
// Heap is always ABI-safe; stack placement is purely a throughput
// optimization and is only chosen with reasonable confidence. The analyzer
// scans every resolved signature once, accumulates per-class usage
// statistics, and discards them after the decision.
package alloc
