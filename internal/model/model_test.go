package model

import "testing"

func TestTryBeginDependenciesOnlyOnce(t *testing.T) {
	f := &FileRecord{Path: "/a/b.js"}

	if !f.TryBeginDependencies() {
		t.Fatal("first call should win")
	}
	if f.TryBeginDependencies() {
		t.Fatal("second call should observe the sentinel and lose")
	}

	deps, ok := f.Dependencies()
	if !ok || len(deps) != 0 {
		t.Fatalf("got %+v, ok=%v", deps, ok)
	}

	f.SetDependencies([]DependencyRecord{{Specifier: "./x"}})
	deps, ok = f.Dependencies()
	if !ok || len(deps) != 1 {
		t.Fatalf("got %+v, ok=%v", deps, ok)
	}
}

func TestSetImportsMarksScanned(t *testing.T) {
	f := &FileRecord{Path: "/a/b.js"}
	if f.Scanned() {
		t.Fatal("should not be scanned yet")
	}
	f.SetImports([]byte("require('./x')"), []ImportDescriptor{{Specifier: "./x"}})
	if !f.Scanned() {
		t.Fatal("should be scanned")
	}
	if len(f.Imports()) != 1 {
		t.Fatalf("got %+v", f.Imports())
	}
}
