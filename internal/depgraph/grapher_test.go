package depgraph

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"circular/internal/resolve"
)

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newGrapher() (*Grapher, *resolve.Resolver) {
	cache := resolve.NewFileCache()
	r := resolve.NewResolver(resolve.DefaultConfig(), cache)
	return New(r, 4), r
}

func TestAnalyzeSingleStaticImport(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "main.js"), `require('./b');`)
	writeFile(t, filepath.Join(dir, "b.js"), ``)

	g, r := newGrapher()
	root, err := r.Resolve(context.Background(), "./main", dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := g.Analyze(context.Background(), root); err != nil {
		t.Fatal(err)
	}

	deps, ok := root.Dependencies()
	if !ok || len(deps) != 1 {
		t.Fatalf("got %+v, ok=%v", deps, ok)
	}
	if deps[0].Target == nil || deps[0].Target.Path != filepath.Join(dir, "b.js") {
		t.Errorf("got %+v", deps[0])
	}
}

func TestAnalyzeCycleTerminates(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "x.js"), `require('./y');`)
	writeFile(t, filepath.Join(dir, "y.js"), `require('./x');`)

	g, r := newGrapher()
	x, err := r.Resolve(context.Background(), "./x", dir)
	if err != nil {
		t.Fatal(err)
	}

	if err := g.Analyze(context.Background(), x); err != nil {
		t.Fatal(err)
	}

	xDeps, _ := x.Dependencies()
	if len(xDeps) != 1 || xDeps[0].Target == nil {
		t.Fatalf("got %+v", xDeps)
	}
	y := xDeps[0].Target
	yDeps, ok := y.Dependencies()
	if !ok {
		t.Fatal("y's dependency list was never assigned")
	}
	if len(yDeps) == 1 && yDeps[0].Target != nil && yDeps[0].Target != x {
		t.Errorf("expected y's back-edge to point at x by identity")
	}
}

func TestAnalyzeDynamicImportRecordsError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "main.js"), `require(name);`)

	g, r := newGrapher()
	root, err := r.Resolve(context.Background(), "./main", dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := g.Analyze(context.Background(), root); err != nil {
		t.Fatal(err)
	}

	deps, _ := root.Dependencies()
	if len(deps) != 1 || !deps[0].Dynamic || deps[0].Target != nil {
		t.Fatalf("got %+v", deps)
	}
	if deps[0].Error != resolve.ErrUnresolvableDynamicImport {
		t.Errorf("got error %q", deps[0].Error)
	}
}

func TestAnalyzeIdempotent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "main.js"), `require('./b');`)
	writeFile(t, filepath.Join(dir, "b.js"), ``)

	g, r := newGrapher()
	root, err := r.Resolve(context.Background(), "./main", dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := g.Analyze(context.Background(), root); err != nil {
		t.Fatal(err)
	}
	first, _ := root.Dependencies()

	if err := g.Analyze(context.Background(), root); err != nil {
		t.Fatal(err)
	}
	second, _ := root.Dependencies()

	if len(first) != len(second) {
		t.Fatalf("dependency list changed across idempotent calls: %d vs %d", len(first), len(second))
	}
	if first[0].Target != second[0].Target {
		t.Error("expected the same FileRecord pointer across idempotent calls")
	}
}

func TestAnalyzePreservesSourceOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "main.js"), `
require('./c');
require('./a');
require('./b');
`)
	writeFile(t, filepath.Join(dir, "a.js"), ``)
	writeFile(t, filepath.Join(dir, "b.js"), ``)
	writeFile(t, filepath.Join(dir, "c.js"), ``)

	g, r := newGrapher()
	root, err := r.Resolve(context.Background(), "./main", dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := g.Analyze(context.Background(), root); err != nil {
		t.Fatal(err)
	}

	deps, _ := root.Dependencies()
	want := []string{"./c", "./a", "./b"}
	if len(deps) != len(want) {
		t.Fatalf("got %d deps, want %d", len(deps), len(want))
	}
	for i, w := range want {
		if deps[i].Specifier != w {
			t.Errorf("deps[%d].Specifier = %q, want %q", i, deps[i].Specifier, w)
		}
	}
}
