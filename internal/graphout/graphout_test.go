package graphout

import (
	"strings"
	"testing"

	"circular/internal/model"
)

func TestWriteDOTAndTSVIncludeUnresolvedEdges(t *testing.T) {
	root := &model.FileRecord{Path: "/a/main.js"}
	leaf := &model.FileRecord{Path: "/a/b.js"}
	root.SetDependencies([]model.DependencyRecord{
		{Specifier: "./b", Target: leaf},
		{Specifier: "./missing", Error: "unable to locate dependency: ./missing"},
	})
	leaf.SetDependencies(nil)

	dot := WriteDOT(root)
	if !strings.Contains(dot, "main.js") || !strings.Contains(dot, "style=dashed") {
		t.Errorf("dot output missing expected content: %s", dot)
	}

	tsv := WriteTSV(root)
	if !strings.Contains(tsv, "From\tTo\tDynamic\tError") {
		t.Errorf("tsv missing header: %s", tsv)
	}
	if !strings.Contains(tsv, "unable to locate dependency") {
		t.Errorf("tsv missing error row: %s", tsv)
	}
}
