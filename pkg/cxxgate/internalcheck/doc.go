// Package internalcheck holds source-level policy tests for the engine
// packages. It exports nothing and is not intended for use by applications.
package internalcheck
