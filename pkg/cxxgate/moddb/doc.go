// Package moddb persists a module's resolved declaration database so later
// modules can link against it: classes, effective method sets, allocation
// decisions and observed template instantiations.
//
// Files are CBOR-encoded. Loading rebuilds a read-only decl.Database
// suitable for AttachDependency; nothing in a loaded module is ever
// re-resolved.
package moddb
