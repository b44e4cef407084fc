// Package model holds the data types shared by the scanner, resolver,
// grapher and facade: the file/import/dependency records a packager
// walks once resolution is done.
package model

import (
	"path/filepath"
	"sync"
)

// Reference pinpoints one require() call site inside a source file: the
// call expression's source text and its half-open byte offsets.
type Reference struct {
	Source string
	Start  int
	End    int
}

// ImportDescriptor is one distinct import site found by the source
// scanner. Specifier is the textual path exactly as written: the
// string literal's contents (quotes stripped) for a static import, or
// the raw source slice of the argument expression for a dynamic one.
// Multiple require() calls that share the same Specifier within one
// file are folded into a single descriptor; References records every
// call site in order of first sighting.
type ImportDescriptor struct {
	Specifier  string
	Dynamic    bool
	References []Reference
}

// FileRecord is the scanner/resolver's view of a single file on disk:
// its absolute path, raw contents, and parsed import descriptors. Once
// the grapher has visited it, it also carries the file's resolved
// dependencies. A FileRecord is shared by pointer; the resolver's file
// cache guarantees at most one FileRecord exists per absolute path for
// the life of the process, so callers may compare pointers for identity.
type FileRecord struct {
	Path     string
	Contents []byte

	mu           sync.Mutex
	scanned      bool
	imports      []ImportDescriptor
	dependencies []DependencyRecord
	depsSet      bool
}

// Dir returns the absolute directory containing this file.
func (f *FileRecord) Dir() string {
	return filepath.Dir(f.Path)
}

// Imports returns the import descriptors found in this file, or nil if
// the file has not been scanned yet.
func (f *FileRecord) Imports() []ImportDescriptor {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.imports
}

// SetImports records the scanner's result for this file and the bytes
// it was scanned from. Called at most once per FileRecord.
func (f *FileRecord) SetImports(contents []byte, imports []ImportDescriptor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Contents = contents
	f.imports = imports
	f.scanned = true
}

// Scanned reports whether SetImports has been called.
func (f *FileRecord) Scanned() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.scanned
}

// DependenciesAssigned reports whether a dependency list has been
// assigned, either by SetDependencies or by the empty sentinel that
// TryBeginDependencies assigns before the grapher recurses (the
// mechanism that terminates cycles).
func (f *FileRecord) DependenciesAssigned() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.depsSet
}

// Dependencies returns the dependency records the grapher attached to
// this file, in the same order as the import descriptors that produced
// them. A false second return means the grapher has not visited this
// file yet; a true second return with a zero-length slice means either
// the grapher is mid-visit (the cycle-termination sentinel) or it
// finished and found no dependencies. Callers cannot distinguish the
// two from this method alone, which is intentional: it is exactly what
// lets a cyclic back-edge observe "already being walked" and stop.
func (f *FileRecord) Dependencies() ([]DependencyRecord, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dependencies, f.depsSet
}

// SetDependencies attaches the grapher's result for this file,
// overwriting the empty cycle-termination sentinel that
// TryBeginDependencies assigned, if any.
func (f *FileRecord) SetDependencies(deps []DependencyRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dependencies = deps
	f.depsSet = true
}

// TryBeginDependencies atomically assigns the empty-sentinel dependency
// list if one has not been assigned yet and reports whether it did so.
// A grapher calls this before scanning a file; true means "proceed, you
// own this visit," false means another visit already owns it (either
// finished, or mid-walk via a cycle's back-edge) and the caller should
// treat the file as already analyzed.
func (f *FileRecord) TryBeginDependencies() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.depsSet {
		return false
	}
	f.dependencies = nil
	f.depsSet = true
	return true
}

// DependencyRecord is one resolved (or failed-to-resolve) edge out of a
// file, produced by the dependency grapher from one ImportDescriptor.
// Exactly one of Target or Error is set: a successfully resolved,
// statically-known specifier carries Target and an empty Error; a
// dynamic or unresolvable specifier carries a nil Target and a
// non-empty Error: resolve.ErrUnresolvableDynamicImport, the resolver's
// "malformed package manifest: <path>" message, or
// "unable to locate dependency: <specifier>".
type DependencyRecord struct {
	Specifier  string
	Dynamic    bool
	References []Reference
	Target     *FileRecord
	Error      string
}
